package domain

import (
	"encoding/json"
	"time"
)

// UnixMillis is a timestamp persisted as milliseconds since the Unix epoch.
type UnixMillis int64

func MillisOf(t time.Time) UnixMillis { return UnixMillis(t.UnixMilli()) }

func (m UnixMillis) Time() time.Time { return time.UnixMilli(int64(m)) }

// Passed reports whether m lies strictly before now.
func (m UnixMillis) Passed(now time.Time) bool { return int64(m) < now.UnixMilli() }

// OptionalMillis tells an omitted JSON field apart from an explicit null.
// Set is true whenever the key was present in the decoded object.
type OptionalMillis struct {
	Set   bool
	Value *UnixMillis
}

func (o *OptionalMillis) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var m UnixMillis
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	o.Value = &m
	return nil
}
