// Package logging provides structured logging utilities for tagdeck.
//
// All logging goes through log/slog. This package fixes the attribute names used
// across the codebase and keeps personal data out of log lines.
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "emails.load")
//	logger.Info("page loaded", logging.ViewMode("paged"), logging.Count(len(items)))
//
// User identities are hashed before logging:
//
//	logger.Warn("tag lookup degraded", logging.UserHash(userID))
//
// Tokens are never logged directly; use SanitizeToken.
package logging
