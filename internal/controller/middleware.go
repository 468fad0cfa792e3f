package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/rest"
)

func (c controller) requestIdMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlogger.AppendCtx(r.Context(), slog.String("request_id", c.generateTimeBasedId()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"url", r.URL.String(),
			"remote_addr", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

// authMw resolves the Authorization bearer token to an identity and
// stores it in the request context. Requests without a valid token are
// rejected.
func (c controller) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "authentication required"})
			return
		}

		identity, err := c.authService.Resolve(r.Context(), token)
		if err != nil {
			c.logger.DebugContext(r.Context(), "failed to resolve token", "error", err)
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), identityCtxKey, identity)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", identity.UserId.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
