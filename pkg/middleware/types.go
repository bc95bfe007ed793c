package middleware

import "errors"

// Context key types to avoid string collision in context values
type contextKey string

const (
	// ClaimsContextKey is used for the claims attachment when the caller
	// does not supply its own key.
	ClaimsContextKey    contextKey = "claims"
	RequestIDContextKey contextKey = "requestId"
	StartTimeContextKey contextKey = "startTime"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	// UnauthorizedBody is the only response body a rejected request gets.
	UnauthorizedBody = "Invalid Bearer Token"

	bearerPrefix = "Bearer "
)

// Reasons a request was rejected. They are logged, never sent to the client.
var (
	ErrNoAuthHeader  = errors.New("missing Authorization header")
	ErrNotBearer     = errors.New("authorization scheme is not Bearer")
	ErrTokenTooLarge = errors.New("token exceeds maximum allowed size")
	ErrNoCandidates  = errors.New("no candidate keys for token")
	ErrVerify        = errors.New("token verification failed")
	ErrNotSigned     = errors.New("token is not signed")
)
