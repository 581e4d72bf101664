// Package kvrepo maps the auth entities onto key namespaces of a kv.Store.
// The key layout is shared with existing deployments and must not change.
package kvrepo

const (
	viewerPrefix      = "viewer:"
	pendingViewersKey = "pending_viewers"
	sessionPrefix     = "session:"
	sessionSetPrefix  = "sessions:"
	tokenPrefix       = "token:"
	projectLockPrefix = "project-lock:"
)

func viewerKey(email string) string { return viewerPrefix + email }

func sessionKey(id string) string { return sessionPrefix + id }

func sessionSetKey(email string) string { return sessionSetPrefix + email }

func tokenKey(id string) string { return tokenPrefix + id }

func projectLockKey(id string) string { return projectLockPrefix + id }
