package router

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/identity"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/token"
)

// RequireAuth validates the bearer access token and puts its subject into
// the request context. Any failure short-circuits with 401.
func RequireAuth(tokens *token.Service, logger *zap.SugaredLogger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Authorization")
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="taskbite"`)
				httpx.WriteErrorStatus(w, r, logger, http.StatusUnauthorized,
					apperr.New(apperr.ErrAuthentication, "Missing or invalid Authorization header"))
				return
			}
			userID, err := tokens.Validate(parts[1], token.PurposeAccess, 0)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="taskbite", error="invalid_token"`)
				httpx.WriteErrorStatus(w, r, logger, http.StatusUnauthorized, err)
				return
			}
			next(w, r.WithContext(identity.WithUserID(r.Context(), userID)))
		}
	}
}
