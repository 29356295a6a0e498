package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyKind      = "kind"
	KeyUserHash  = "user_hash"
	KeyViewMode  = "view_mode"
	KeySource    = "source"
	KeyCount     = "count"
	KeyStatus    = "status"
	KeyError     = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Kind returns a slog attribute for the entity kind (email, calendar, timeline, custom).
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// ViewMode returns a slog attribute for a list view mode.
func ViewMode(mode string) slog.Attr {
	return slog.String(KeyViewMode, mode)
}

// Source returns a slog attribute for an activity source.
func Source(source string) slog.Attr {
	return slog.String(KeySource, source)
}

// Count returns a slog attribute for an item count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// A nil error yields an empty group, which slog omits, so Err(maybeNil) is always safe.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user identity.
// Both emails and opaque user ids go through it so neither appears raw in logs.
//
//	logger.Warn("tag lookup degraded", logging.UserHash(userID))
func UserHash(identity string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(identity))
}

// SanitizeToken returns a masked version of a token for logging.
// Only the length is kept; even a JWT header prefix is withheld.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
