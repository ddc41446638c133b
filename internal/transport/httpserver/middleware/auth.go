package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	userdomain "family-tree-go/internal/domain/user"
	"family-tree-go/pkg/logger"
)

type contextKey int

const userKey contextKey = iota

// Authenticator resolves a session id to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*userdomain.User, error)
}

// SessionAuth authenticates requests by the session cookie set at login.
type SessionAuth struct {
	users      Authenticator
	cookieName string
	log        logger.Logger
}

func NewSessionAuth(users Authenticator, cookieName string, log logger.Logger) *SessionAuth {
	return &SessionAuth{
		users:      users,
		cookieName: cookieName,
		log:        log,
	}
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(a.cookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w)
			return
		}

		current, err := a.users.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			switch {
			case errors.Is(err, userdomain.ErrSessionNotFound),
				errors.Is(err, userdomain.ErrSessionExpired),
				errors.Is(err, userdomain.ErrUserNotFound):
				unauthorized(w)
			default:
				a.log.InternalError("auth: session lookup failed", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), current)))
	})
}

// RequireAdmin runs inside Middleware and rejects non-admin users.
func (a *SessionAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if current.Role != userdomain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin_required", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u *userdomain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*userdomain.User, bool) {
	u, ok := ctx.Value(userKey).(*userdomain.User)
	return u, ok
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_session", "invalid session")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
