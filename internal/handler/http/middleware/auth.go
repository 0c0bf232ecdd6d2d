package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired runs after jwtauth.Verifier. It rejects revoked or
// non-access tokens, resolves the caller's current role through the
// directory and stores the principal on the request context.
func AuthRequired(jwtService jwt.Service, directory employee.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.HandleError(w, auth.ErrTokenRevoked)
				return
			}

			c, err := jwtService.ParseClaims(claims, jwt.TokenTypeAccess)
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			role, err := directory.ResolveRole(r.Context(), c.EmployeeID)
			if err != nil {
				if apperror.Is(err, apperror.KindNotFound) {
					response.HandleError(w, auth.ErrInvalidToken)
					return
				}
				response.HandleError(w, err)
				return
			}

			ctx := access.WithPrincipal(r.Context(), access.Principal{
				UserID:     c.UserID,
				EmployeeID: c.EmployeeID,
				Role:       role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}
