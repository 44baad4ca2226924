package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/grafolab/grafo-gate/internal/models"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
)

type contextKey string

const grantContextKey contextKey = "grant_claims"

// GrantFromContext returns the grant claims attached by the middleware
func GrantFromContext(ctx context.Context) (*GrantClaims, bool) {
	claims, ok := ctx.Value(grantContextKey).(*GrantClaims)
	return claims, ok
}

// bearerGrant extracts the grant from the Authorization header
func bearerGrant(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireGrant admits only requests carrying a valid session grant. When
// consume is true the grant's JTI is spent, so the guarded endpoint runs at
// most once per grant.
func RequireGrant(gm *GrantManager, consume bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grant := bearerGrant(r)
			if grant == "" {
				pkghttp.WriteUnauthorized(w, "Missing grant")
				return
			}

			var claims *GrantClaims
			var err error
			if consume {
				claims, err = gm.Consume(grant)
			} else {
				claims, err = gm.Validate(grant)
			}
			if err != nil {
				switch {
				case errors.Is(err, models.ErrGrantConsumed):
					pkghttp.WriteForbidden(w, "Analysis already performed for this session")
				case errors.Is(err, models.ErrGrantExpired):
					pkghttp.WriteUnauthorized(w, "Session expired, please verify again")
				default:
					pkghttp.WriteUnauthorized(w, "Invalid grant")
				}
				return
			}

			ctx := context.WithValue(r.Context(), grantContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
