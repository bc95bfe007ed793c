package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/boogy/bearer-warden/pkg/middleware"
	jose "github.com/go-jose/go-jose/v4"
)

// NewRouter wires the routes served by the bearer-warden binary. Every
// request passes through the request ID and access log middleware; /whoami
// additionally requires a valid bearer token.
func NewRouter(b *Bootstrap) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+HealthPath, Health)
	if b.Config.Server.PublishJWKS {
		mux.HandleFunc("GET "+JWKSPath, b.JWKS)
	}
	mux.Handle("GET "+WhoAmIPath, b.Auth.Middleware(http.HandlerFunc(b.WhoAmI)))

	return middleware.Logging(b.Logger)(mux)
}

// Health reports liveness, it is never authenticated.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JWKS publishes the public half of every key in the store.
func (b *Bootstrap) JWKS(w http.ResponseWriter, r *http.Request) {
	set := jose.JSONWebKeySet{}
	for _, key := range b.Store.Keys() {
		set.Keys = append(set.Keys, key.JWK())
	}
	writeJSON(w, http.StatusOK, set)
}

// WhoAmI echoes the claims the authentication middleware attached.
func (b *Bootstrap) WhoAmI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := middleware.ClaimsFromContext(ctx, middleware.ClaimsContextKey)

	resp := Response{
		Success:    true,
		StatusCode: http.StatusOK,
		RequestID:  middleware.RequestIDFromContext(ctx),
		Message:    "Authenticated",
		Data:       claims,
	}
	if start, ok := ctx.Value(middleware.StartTimeContextKey).(time.Time); ok {
		resp.ProcessingMS = time.Since(start).Milliseconds()
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	for k, v := range ResponseHeaders {
		w.Header().Set(k, v)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", slog.String("error", err.Error()))
	}
}
