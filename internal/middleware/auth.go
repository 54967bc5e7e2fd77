package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/tuckborough/internal/auth"
)

// RequireAuth validates the Bearer token and populates AuthContext.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			memberID, err := auth.VerifyToken(secret, token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{MemberID: memberID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
