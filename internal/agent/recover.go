package agent

import (
	"log/slog"
	"runtime/debug"
)

// guard runs fn and returns fallback if it panics.
func guard[T any](name, sessionID string, fallback func() T, fn func() T) (result T) {
	defer func() {
		if err := recover(); err != nil {
			slog.Error("recovered panic", "name", name, "session_id", sessionID, "error", err, "stack", string(debug.Stack()))
			result = fallback()
		}
	}()

	slog.Debug("step start", "name", name, "session_id", sessionID)
	result = fn()
	slog.Debug("step done", "name", name, "session_id", sessionID)
	return result
}
