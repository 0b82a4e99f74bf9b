package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/minhdn/taskquest/internal/auth"
	"github.com/minhdn/taskquest/internal/store"
)

// RequireAuth validates the auth cookie's JWT, confirms the user still
// exists, and puts the user id on the request context.
func RequireAuth(secret []byte, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			userID, err := auth.ParseToken(secret, cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(userID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Unauthorized"})
}
