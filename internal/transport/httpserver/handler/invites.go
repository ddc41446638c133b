package handler

import (
	"errors"
	"net/http"
	"time"

	invitedomain "family-tree-go/internal/domain/invite"
	memberdomain "family-tree-go/internal/domain/member"
)

type createInviteRequest struct {
	Email string `json:"email"`
}

type verifyInviteRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) CreateInvite(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	created, err := h.Invites.Create(r.Context(), memberID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, invitedomain.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "invalid_request", "valid email is required")
		case errors.Is(err, memberdomain.ErrMemberNotFound):
			h.log.BusinessError("invites.create: member not found", err, "member_id", memberID)
			writeError(w, http.StatusNotFound, "member_not_found", "member not found")
		case errors.Is(err, invitedomain.ErrEmailTaken):
			h.log.BusinessError("invites.create: email taken", err, "member_id", memberID)
			writeError(w, http.StatusConflict, "email_taken", "email already has an account")
		default:
			h.log.InternalError("invites.create: create failed", err, "member_id", memberID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toInviteResponse(*created))
}

func (h *Handlers) ListInvites(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := parsePaging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, err := h.Invites.List(r.Context(), page, perPage)
	if err != nil {
		h.log.InternalError("invites.list: list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]inviteResponse, 0, len(items))
	for i := range items {
		response = append(response, toInviteResponse(items[i]))
	}
	writeJSON(w, http.StatusOK, inviteListResponse{
		Items:   response,
		Page:    page,
		PerPage: perPage,
	})
}

// AcceptInvite enrolls the invitee's authenticator and returns the QR to scan.
func (h *Handlers) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	qr, err := h.Invites.Accept(r.Context(), id)
	if err != nil {
		h.writeInviteError(w, "invites.accept", id, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"qr_png": qr})
}

func (h *Handlers) VerifyInvite(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req verifyInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if err := h.Invites.Verify(r.Context(), id, req.Code); err != nil {
		h.writeInviteError(w, "invites.verify", id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Invites.Decline(r.Context(), id); err != nil {
		h.writeInviteError(w, "invites.decline", id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeInviteError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, invitedomain.ErrInviteNotFound):
		h.log.BusinessError(op+": invite not found", err, "invite_id", id)
		writeError(w, http.StatusNotFound, "invite_not_found", "invite not found")
	case errors.Is(err, invitedomain.ErrInviteResolved):
		h.log.BusinessError(op+": invite resolved", err, "invite_id", id)
		writeError(w, http.StatusConflict, "invite_resolved", "invite is already resolved")
	case errors.Is(err, invitedomain.ErrInviteExpired):
		h.log.BusinessError(op+": invite expired", err, "invite_id", id)
		writeError(w, http.StatusGone, "invite_expired", "invite has expired")
	case errors.Is(err, invitedomain.ErrNotEnrolled):
		h.log.BusinessError(op+": not enrolled", err, "invite_id", id)
		writeError(w, http.StatusConflict, "not_enrolled", "invite has no enrolled authenticator")
	case errors.Is(err, invitedomain.ErrInvalidTOTP):
		h.log.BusinessError(op+": invalid code", err, "invite_id", id)
		writeError(w, http.StatusUnauthorized, "invalid_code", "invalid authenticator code")
	case errors.Is(err, memberdomain.ErrMemberNotFound):
		h.log.BusinessError(op+": invited member removed", err, "invite_id", id)
		writeError(w, http.StatusNotFound, "member_not_found", "invited member no longer exists")
	default:
		h.log.InternalError(op+": failed", err, "invite_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type inviteResponse struct {
	ID        string    `json:"id"`
	MemberID  *int64    `json:"member_id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type inviteListResponse struct {
	Items   []inviteResponse `json:"items"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

func toInviteResponse(inv invitedomain.Invite) inviteResponse {
	return inviteResponse{
		ID:        inv.ID,
		MemberID:  inv.MemberID,
		Email:     inv.Email,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	}
}
