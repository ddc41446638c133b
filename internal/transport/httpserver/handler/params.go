package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func parseIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func parseUUIDParam(r *http.Request) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return "", fmt.Errorf("id is required")
	}
	return raw, nil
}

func parseDateParam(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseIntParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid int")
	}
	return parsed, nil
}

// maxPerPage bounds a single listing response; member rows can carry image
// bytes, so an uncapped per_page would stream the whole table.
const maxPerPage = 100

func parsePaging(r *http.Request) (page, perPage int, err error) {
	query := r.URL.Query()
	page, err = parseIntParam(query.Get("page"), 0)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page")
	}
	perPage, err = parseIntParam(query.Get("per_page"), 10)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid per_page")
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, nil
}
