package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	memberdomain "family-tree-go/internal/domain/member"
	requestdomain "family-tree-go/internal/domain/request"
	"family-tree-go/internal/transport/httpserver/middleware"
)

type submitRequestRequest struct {
	Name         string          `json:"name"`
	LastName     string          `json:"last_name"`
	Gender       string          `json:"gender"`
	Birthday     string          `json:"birthday"`
	Image        string          `json:"image"`
	ImageType    *string         `json:"image_type"`
	PersonalInfo json.RawMessage `json:"personal_info"`
	MotherID     *int64          `json:"mother_id"`
	FatherID     *int64          `json:"father_id"`
}

type disapproveRequestRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_session", "invalid session")
		return
	}

	var req submitRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	if strings.TrimSpace(req.LastName) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "last name is required")
		return
	}

	birthday, err := parseDateParam(req.Birthday)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid birthday")
		return
	}
	image, err := parseImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "image must be base64")
		return
	}

	created, err := h.Requests.Submit(r.Context(), requestdomain.SubmitInput{
		Name:         req.Name,
		LastName:     req.LastName,
		Gender:       req.Gender,
		Birthday:     birthday,
		Image:        image,
		ImageType:    req.ImageType,
		PersonalInfo: req.PersonalInfo,
		MotherID:     req.MotherID,
		FatherID:     req.FatherID,
		SubmittedBy:  user.Username,
	})
	if err != nil {
		switch {
		case errors.Is(err, memberdomain.ErrInvalidGender):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, memberdomain.ErrParentNotFound):
			h.log.BusinessError("requests.submit: parent not found", err, "user_id", user.ID)
			writeError(w, http.StatusUnprocessableEntity, "parent_not_found", "referenced parent does not exist")
		default:
			h.log.InternalError("requests.submit: submit failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toRequestResponse(*created))
}

func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := parsePaging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, err := h.Requests.List(r.Context(), page, perPage)
	if err != nil {
		h.log.InternalError("requests.list: list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]requestResponse, 0, len(items))
	for i := range items {
		response = append(response, toRequestResponse(items[i]))
	}
	writeJSON(w, http.StatusOK, requestListResponse{
		Items:   response,
		Page:    page,
		PerPage: perPage,
	})
}

func (h *Handlers) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, requestdomain.DecisionApproved, "")
}

func (h *Handlers) DisapproveRequest(w http.ResponseWriter, r *http.Request) {
	var req disapproveRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	h.resolveRequest(w, r, requestdomain.DecisionDisapproved, req.Reason)
}

func (h *Handlers) resolveRequest(w http.ResponseWriter, r *http.Request, decision requestdomain.Decision, reason string) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_session", "invalid session")
		return
	}

	id, err := parseUUIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resolved, created, err := h.Requests.Resolve(r.Context(), id, decision, user.Username, reason)
	if err != nil {
		switch {
		case errors.Is(err, requestdomain.ErrRequestNotFound):
			h.log.BusinessError("requests.resolve: request not found", err, "request_id", id)
			writeError(w, http.StatusNotFound, "request_not_found", "request not found")
		case errors.Is(err, requestdomain.ErrAlreadyResolved):
			h.log.BusinessError("requests.resolve: already resolved", err, "request_id", id)
			writeError(w, http.StatusConflict, "already_resolved", "request is already resolved")
		default:
			h.log.InternalError("requests.resolve: resolve failed", err, "request_id", id)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	response := resolveResponse{Request: toRequestResponse(*resolved)}
	if created != nil {
		member := toMemberResponse(*created)
		response.Member = &member
	}
	writeJSON(w, http.StatusOK, response)
}

type requestResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	LastName     string          `json:"last_name"`
	Gender       string          `json:"gender"`
	Birthday     *string         `json:"birthday"`
	PersonalInfo json.RawMessage `json:"personal_info,omitempty"`
	MotherID     *int64          `json:"mother_id"`
	FatherID     *int64          `json:"father_id"`
	Status       string          `json:"status"`
	SubmittedBy  string          `json:"submitted_by"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	ReviewedBy   *string         `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
	RejectReason *string         `json:"reject_reason,omitempty"`
}

type requestListResponse struct {
	Items   []requestResponse `json:"items"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

type resolveResponse struct {
	Request requestResponse `json:"request"`
	Member  *memberResponse `json:"member,omitempty"`
}

func toRequestResponse(req requestdomain.AddRequest) requestResponse {
	response := requestResponse{
		ID:           req.ID,
		Name:         req.Name,
		LastName:     req.LastName,
		Gender:       req.Gender,
		PersonalInfo: req.PersonalInfo,
		MotherID:     req.MotherID,
		FatherID:     req.FatherID,
		Status:       req.Status,
		SubmittedBy:  req.SubmittedBy,
		SubmittedAt:  req.SubmittedAt,
		ReviewedBy:   req.ReviewedBy,
		ReviewedAt:   req.ReviewedAt,
		RejectReason: req.RejectReason,
	}
	if req.Birthday != nil {
		birthday := req.Birthday.UTC().Format(time.DateOnly)
		response.Birthday = &birthday
	}
	return response
}
