package handler

import (
	"errors"
	"net/http"
	"time"

	userdomain "family-tree-go/internal/domain/user"
	"family-tree-go/internal/transport/httpserver/middleware"
)

type registerAdminRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type passwordLoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type totpLoginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handlers) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	created, err := h.Users.RegisterAdmin(r.Context(), userdomain.RegisterAdminInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, userdomain.ErrAdminExists):
			h.log.BusinessError("users.register: admin exists", err)
			writeError(w, http.StatusConflict, "admin_exists", "an admin account already exists")
		case errors.Is(err, userdomain.ErrUsernameTaken):
			h.log.BusinessError("users.register: username taken", err)
			writeError(w, http.StatusConflict, "username_taken", "username is taken")
		case errors.Is(err, userdomain.ErrEmailTaken):
			h.log.BusinessError("users.register: email taken", err)
			writeError(w, http.StatusConflict, "email_taken", "email is taken")
		case errors.Is(err, userdomain.ErrPhoneTaken):
			h.log.BusinessError("users.register: phone taken", err)
			writeError(w, http.StatusConflict, "phone_taken", "phone number is taken")
		default:
			// Field validation failures come back as plain errors.
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *Handlers) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	var req passwordLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	session, current, err := h.Users.PasswordLogin(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeLoginError(w, "users.login", err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, toUserResponse(current))
}

func (h *Handlers) TOTPLogin(w http.ResponseWriter, r *http.Request) {
	var req totpLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	session, current, err := h.Users.TOTPLogin(r.Context(), req.Email, req.Code)
	if err != nil {
		h.writeLoginError(w, "users.login.totp", err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, toUserResponse(current))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.auth.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.Users.Logout(r.Context(), cookie.Value); err != nil {
			h.log.InternalError("users.logout: delete session failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_session", "invalid session")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(current))
}

// Failed logins collapse to one 401 so the response does not reveal whether
// the account exists.
func (h *Handlers) writeLoginError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, userdomain.ErrInvalidCredentials),
		errors.Is(err, userdomain.ErrNotEnrolled):
		h.log.BusinessError(op+": rejected", err)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	default:
		h.log.InternalError(op+": failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, session *userdomain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

type userResponse struct {
	ID          string     `json:"id"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
}
