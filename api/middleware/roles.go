package middleware

import (
	"net/http"

	"github.com/angelmondragon/agencyops-backend/api/responses"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/agencyops-backend/pkg/errors"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
)

// RequireRole admits callers whose profile role, set by Auth, is one of roles.
func RequireRole(logg *logger.Logger, roles ...enums.ProfileRole) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[string(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
