package middleware

import (
	"net/http"

	pkgauth "github.com/grafolab/grafo-gate/pkg/auth"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
)

// RequireAdminKey guards operator endpoints with a bcrypt-hashed API key.
// With no hash configured the endpoints are disabled outright rather than
// left open.
func RequireAdminKey(adminKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKeyHash == "" {
				pkghttp.WriteForbidden(w, "Admin endpoints are disabled")
				return
			}

			key := r.Header.Get("X-Admin-Key")
			if key == "" {
				pkghttp.WriteUnauthorized(w, "Missing admin key")
				return
			}

			if err := pkgauth.CompareAdminKey(adminKeyHash, key); err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
