package handler

import "time"

// Constants for handler configuration
const (
	// DefaultTimeout bounds the startup work done before serving
	DefaultTimeout = 30 * time.Second

	JWKSPath   = "/.well-known/jwks.json"
	HealthPath = "/health"
	WhoAmIPath = "/whoami"
)

var (
	// ResponseHeaders common headers to include in all API responses
	ResponseHeaders = map[string]string{
		"Content-Type":  "application/json",
		"Cache-Control": "no-store",
	}
)

// Response represents a standardized API response
type Response struct {
	Success      bool   `json:"success"`
	StatusCode   int    `json:"statusCode,omitempty"`
	RequestID    string `json:"requestId"`
	ProcessingMS int64  `json:"processingMs,omitempty"`

	Message string `json:"message,omitempty"`
	// Data holds the claims of the authenticated request, null when the
	// token payload was not JSON.
	Data any `json:"data"`
}
