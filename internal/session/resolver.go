package session

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/google"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/logging"
)

// Resolver turns an Authorization header into a State.
type Resolver struct {
	verifier *Verifier
	tokens   google.TokenProvider
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewResolver creates a Resolver. tokens may be nil, in which case no user has
// a provider connection.
func NewResolver(verifier *Verifier, tokens google.TokenProvider, logger *slog.Logger, metrics *instrumentation.Metrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{verifier: verifier, tokens: tokens, logger: logger, metrics: metrics}
}

// Resolve verifies the bearer token in header ("Bearer <jwt>") and looks up the
// user's provider token. A missing or unusable provider token is not an error:
// the state is returned with both connection flags off.
func (r *Resolver) Resolve(ctx context.Context, header string) (*State, error) {
	token, ok := BearerToken(header)
	if !ok {
		r.metrics.RecordAuth(ctx, instrumentation.AuthResultFailure)
		return nil, apperrors.CredentialExpired("missing bearer token")
	}

	claims, err := r.verifier.Verify(token)
	if err != nil {
		r.metrics.RecordAuth(ctx, instrumentation.AuthResultExpired)
		r.logger.DebugContext(ctx, "bearer token rejected", "token", logging.SanitizeToken(token), logging.Err(err))
		return nil, err
	}

	state := NewState(claims, token, nil)
	if r.tokens != nil {
		tok, err := r.tokens.Token(ctx, claims.Subject)
		switch {
		case err == nil:
			state = NewState(claims, token, tok)
		case apperrors.IsCredentialExpired(err):
			r.logger.DebugContext(ctx, "no usable provider token", logging.UserHash(claims.Subject), logging.Err(err))
		default:
			r.logger.WarnContext(ctx, "provider token lookup failed", logging.UserHash(claims.Subject), logging.Err(err))
		}
	}

	r.metrics.RecordAuth(ctx, instrumentation.AuthResultSuccess)
	return state, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
