package middleware

import (
	"net/http"

	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/logger"
)

// AuthMiddleware resolves the request's JWT into an auth.Session and stores
// it in the context. Requests without a token pass through anonymously;
// handlers that need a session reject them. A token that is present but
// invalid or expired is rejected here.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.ExtractAccessToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := auth.SessionFromToken(tokenStr)
		if err != nil {
			logger.FromCtx(r.Context()).Warn("rejected invalid access token")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}
