package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/boogy/bearer-warden/pkg/keys"
	"github.com/boogy/bearer-warden/pkg/utils"
	"github.com/boogy/bearer-warden/pkg/verifier"
)

// CandidateSource picks the keys a token is tried against.
// *keystore.Store implements it.
type CandidateSource interface {
	CandidateKeys(token []byte) []*keys.Key
}

// TokenVerifier decodes a token using the given candidate keys.
// *verifier.Verifier implements it.
type TokenVerifier interface {
	Verify(token []byte, candidates []*keys.Key) (*verifier.Result, error)
}

// Outcome is what a successful authentication produced.
type Outcome struct {
	// Claims is the decoded JSON payload. It is only meaningful when
	// Attached is true.
	Claims   any
	Attached bool
	Key      *keys.Key
}

// Authenticator enforces bearer token authentication on HTTP handlers.
type Authenticator struct {
	candidates     CandidateSource
	verifier       TokenVerifier
	claimsKey      any
	maxTokenLength int
	logger         *slog.Logger
}

type Option func(*Authenticator)

// WithVerifier replaces the default go-jose based verifier.
func WithVerifier(v TokenVerifier) Option {
	return func(a *Authenticator) { a.verifier = v }
}

// WithMaxTokenLength rejects tokens longer than n bytes. Zero disables the
// check.
func WithMaxTokenLength(n int) Option {
	return func(a *Authenticator) { a.maxTokenLength = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

// NewAuthenticator returns an Authenticator that verifies tokens against
// keys chosen by candidates and stores decoded claims in the request
// context under claimsKey. A nil claimsKey selects ClaimsContextKey; any
// other key must be comparable.
func NewAuthenticator(candidates CandidateSource, claimsKey any, opts ...Option) *Authenticator {
	if claimsKey == nil {
		claimsKey = ClaimsContextKey
	}
	a := &Authenticator{
		candidates: candidates,
		verifier:   verifier.New(),
		claimsKey:  claimsKey,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate runs the checks in order and stops at the first failure.
func (a *Authenticator) Authenticate(r *http.Request) (*Outcome, error) {
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		return nil, ErrNoAuthHeader
	}

	raw, ok := strings.CutPrefix(values[0], bearerPrefix)
	if !ok {
		return nil, ErrNotBearer
	}
	token := []byte(raw)

	if a.maxTokenLength > 0 && len(token) > a.maxTokenLength {
		return nil, ErrTokenTooLarge
	}

	candidates := a.candidates.CandidateKeys(token)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	res, err := a.verifier.Verify(token, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerify, err)
	}
	if res.Variant != verifier.VariantSigned {
		return nil, fmt.Errorf("%w: %s", ErrNotSigned, res.Variant)
	}

	out := &Outcome{Key: res.Key}
	var claims any
	if err := json.Unmarshal(res.Payload, &claims); err == nil && claims != nil {
		out.Claims = claims
		out.Attached = true
	}
	return out, nil
}

// Middleware wraps next so that it only sees authenticated requests. Every
// failure gets the same 401 response.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.logger.With(slog.String("requestId", RequestIDFromContext(r.Context())))

		out, err := a.Authenticate(r)
		if err != nil {
			log.Debug("Rejected bearer token",
				slog.String("reason", utils.TruncateString(err.Error(), 200)),
				slog.String("token", redactedToken(r)),
			)
			Unauthorized(w)
			return
		}

		log.Debug("Accepted bearer token",
			slog.String("kid", out.Key.KeyID()),
			slog.Bool("claimsAttached", out.Attached),
		)
		if out.Attached {
			r = r.WithContext(context.WithValue(r.Context(), a.claimsKey, out.Claims))
		}
		next.ServeHTTP(w, r)
	})
}

// Unauthorized writes the fixed 401 response.
func Unauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(UnauthorizedBody))
}

// ClaimsFromContext returns the claims attached under key, if any.
func ClaimsFromContext(ctx context.Context, key any) (any, bool) {
	if key == nil {
		key = ClaimsContextKey
	}
	claims := ctx.Value(key)
	return claims, claims != nil
}

func redactedToken(r *http.Request) string {
	raw, _ := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	return utils.RedactToken(raw, 10, 10)
}
