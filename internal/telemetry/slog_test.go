package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "json", "info")
	log.Debug("hidden")
	log.Info("access requested", "email", "a@b.com")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "access requested", line["msg"])
	assert.Equal(t, "a@b.com", line["email"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "text", "warn").Warn("slow", "ms", 12)
	assert.Contains(t, buf.String(), "msg=slow")
	assert.Contains(t, buf.String(), "ms=12")
}

func TestRateLimitedCounter(t *testing.T) {
	read := func() float64 {
		var m dto.Metric
		require.NoError(t, RateLimitedTotal.WithLabelValues("ratelimit:unit").Write(&m))
		return m.GetCounter().GetValue()
	}
	before := read()
	RateLimitedTotal.WithLabelValues("ratelimit:unit").Inc()
	assert.Equal(t, before+1, read())
}
