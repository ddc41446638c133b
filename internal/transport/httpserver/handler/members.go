package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	memberdomain "family-tree-go/internal/domain/member"
)

type createMemberRequest struct {
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

// updateMemberRequest is a partial update: absent fields stay untouched, the
// clear flags null out the stored value.
type updateMemberRequest struct {
	Name              *string         `json:"name"`
	LastName          *string         `json:"last_name"`
	Gender            *string         `json:"gender"`
	Birthday          *string         `json:"birthday"`
	Image             *string         `json:"image"`
	ImageType         *string         `json:"image_type"`
	PersonalInfo      json.RawMessage `json:"personal_info"`
	MotherID          *int64          `json:"mother_id"`
	FatherID          *int64          `json:"father_id"`
	ClearMother       bool            `json:"clear_mother"`
	ClearFather       bool            `json:"clear_father"`
	ClearPersonalInfo bool            `json:"clear_personal_info"`
}

func (h *Handlers) GetTree(w http.ResponseWriter, r *http.Request) {
	root, err := h.Members.Tree(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, memberdomain.ErrNoRootMember):
			h.log.BusinessError("members.tree: no root member", err)
			writeError(w, http.StatusConflict, "no_root_member", "no member without parents")
		case errors.Is(err, memberdomain.ErrGraphCorrupted):
			h.log.InternalError("members.tree: graph corrupted", err)
			writeError(w, http.StatusInternalServerError, "graph_corrupted", "family graph is corrupted")
		default:
			h.log.InternalError("members.tree: build tree failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	if root == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toNodeResponse(root))
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := parsePaging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, err := h.Members.List(r.Context(), r.URL.Query().Get("q"), page, perPage)
	if err != nil {
		h.log.InternalError("members.list: search failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]memberResponse, 0, len(items))
	for i := range items {
		response = append(response, toMemberResponse(items[i]))
	}
	writeJSON(w, http.StatusOK, memberListResponse{
		Items:   response,
		Page:    page,
		PerPage: perPage,
	})
}

func (h *Handlers) GetSubtree(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	direction := memberdomain.Direction(strings.TrimSpace(r.URL.Query().Get("direction")))
	root, err := h.Members.Subtree(r.Context(), id, direction)
	if err != nil {
		switch {
		case errors.Is(err, memberdomain.ErrMemberNotFound):
			h.log.BusinessError("members.subtree: member not found", err, "member_id", id)
			writeError(w, http.StatusNotFound, "member_not_found", "member not found")
		case errors.Is(err, memberdomain.ErrGraphCorrupted):
			h.log.InternalError("members.subtree: graph corrupted", err, "member_id", id)
			writeError(w, http.StatusInternalServerError, "graph_corrupted", "family graph is corrupted")
		default:
			h.log.InternalError("members.subtree: build subtree failed", err, "member_id", id)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponse(root))
}

func (h *Handlers) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
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

	created, err := h.Members.Create(r.Context(), memberdomain.CreateInput{
		Name:         req.Name,
		LastName:     req.LastName,
		Gender:       req.Gender,
		Birthday:     birthday,
		Image:        image,
		ImageType:    req.ImageType,
		PersonalInfo: req.PersonalInfo,
		MotherID:     req.MotherID,
		FatherID:     req.FatherID,
	})
	if err != nil {
		switch {
		case errors.Is(err, memberdomain.ErrInvalidGender), errors.Is(err, memberdomain.ErrInvalidImage):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, memberdomain.ErrParentNotFound):
			h.log.BusinessError("members.create: parent not found", err)
			writeError(w, http.StatusUnprocessableEntity, "parent_not_found", "referenced parent does not exist")
		default:
			h.log.InternalError("members.create: create failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMemberResponse(*created))
}

func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := memberdomain.UpdateInput{
		Name:         req.Name,
		LastName:     req.LastName,
		Gender:       req.Gender,
		ImageType:    req.ImageType,
		PersonalInfo: req.PersonalInfo,
		MotherID:     req.MotherID,
		FatherID:     req.FatherID,
		ClearMother:  req.ClearMother,
		ClearFather:  req.ClearFather,
		ClearInfo:    req.ClearPersonalInfo,
	}
	if req.Birthday != nil {
		birthday, err := parseDateParam(*req.Birthday)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid birthday")
			return
		}
		input.Birthday = birthday
	}
	if req.Image != nil {
		image, err := parseImage(*req.Image)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "image must be base64")
			return
		}
		input.Image = image
	}

	updated, err := h.Members.Update(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, memberdomain.ErrInvalidGender), errors.Is(err, memberdomain.ErrInvalidImage):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, memberdomain.ErrMemberNotFound):
			h.log.BusinessError("members.update: member not found", err, "member_id", id)
			writeError(w, http.StatusNotFound, "member_not_found", "member not found")
		case errors.Is(err, memberdomain.ErrParentNotFound):
			h.log.BusinessError("members.update: parent not found", err, "member_id", id)
			writeError(w, http.StatusUnprocessableEntity, "parent_not_found", "referenced parent does not exist")
		case errors.Is(err, memberdomain.ErrCycleWouldForm):
			h.log.BusinessError("members.update: cycle rejected", err, "member_id", id)
			writeError(w, http.StatusUnprocessableEntity, "cycle_would_form", "link would make the member its own ancestor")
		default:
			h.log.InternalError("members.update: update failed", err, "member_id", id)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toMemberResponse(*updated))
}

func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Members.Delete(r.Context(), id); err != nil {
		if errors.Is(err, memberdomain.ErrMemberNotFound) {
			h.log.BusinessError("members.delete: member not found", err, "member_id", id)
			writeError(w, http.StatusNotFound, "member_not_found", "member not found")
			return
		}
		h.log.InternalError("members.delete: delete failed", err, "member_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ExportMembers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)
	if err := h.Members.ExportCSV(r.Context(), w); err != nil {
		// Headers are out; the truncated body is all we can signal with.
		h.log.InternalError("members.export: write csv failed", err)
	}
}

func (h *Handlers) ImportMembers(w http.ResponseWriter, r *http.Request) {
	count, err := h.Members.ImportCSV(r.Context(), r.Body)
	if err != nil {
		h.log.BusinessError("members.import: rejected csv", err)
		writeError(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

type memberResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	LastName     string          `json:"last_name"`
	Gender       string          `json:"gender"`
	Birthday     *string         `json:"birthday"`
	Image        string          `json:"image,omitempty"`
	ImageType    *string         `json:"image_type,omitempty"`
	PersonalInfo json.RawMessage `json:"personal_info,omitempty"`
	MotherID     *int64          `json:"mother_id"`
	FatherID     *int64          `json:"father_id"`
}

type memberListResponse struct {
	Items   []memberResponse `json:"items"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

type nodeResponse struct {
	memberResponse
	Children []nodeResponse `json:"children"`
}

func toMemberResponse(m memberdomain.Member) memberResponse {
	response := memberResponse{
		ID:           m.ID,
		Name:         m.Name,
		LastName:     m.LastName,
		Gender:       m.Gender,
		ImageType:    m.ImageType,
		PersonalInfo: m.PersonalInfo,
		MotherID:     m.MotherID,
		FatherID:     m.FatherID,
	}
	if m.Birthday != nil {
		birthday := m.Birthday.UTC().Format(time.DateOnly)
		response.Birthday = &birthday
	}
	if len(m.Image) > 0 {
		response.Image = base64.StdEncoding.EncodeToString(m.Image)
	}
	return response
}

func toNodeResponse(node *memberdomain.Node) nodeResponse {
	response := nodeResponse{
		memberResponse: toMemberResponse(node.Member),
		Children:       make([]nodeResponse, 0, len(node.Children)),
	}
	for _, child := range node.Children {
		response.Children = append(response.Children, toNodeResponse(child))
	}
	return response
}

func parseImage(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
