package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/obs"
)

var errNoToken = errors.New("auth: token missing")

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseAccessToken(token string) (string, error)
}

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Tokens TokenParser
}

// RequireAuth rejects requests without a valid bearer token with
// AUTH_REQUIRED. On success the user id is stored in the context and added
// to the request log line.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Tokens == nil {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth not configured", nil)
			return
		}
		token := bearerToken(r)
		if token == "" {
			common.WriteError(w, common.AuthRequired(), common.CodeAuthRequired, "authentication required")
			return
		}
		userID, err := m.Tokens.ParseAccessToken(token)
		if err != nil {
			if !common.IsAppError(err) {
				err = invalidToken(err)
			}
			common.WriteError(w, err, common.CodeAuthRequired, "missing or invalid token")
			return
		}
		ctx := common.WithUserID(r.Context(), userID)
		obs.AnnotateUser(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
