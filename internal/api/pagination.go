package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a validated pagination/sort request.
type PageRequest struct {
	Page      int
	Size      int
	SortField string // snake_case column, safe to interpolate
	SortDesc  bool
}

// PaginationResponse is the envelope for paginated listings.
type PaginationResponse[T any] struct {
	Items      []T   `json:"items"`
	PageIndex  int   `json:"pageIndex"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// NewPaginationResponse computes the derived paging fields.
func NewPaginationResponse[T any](items []T, page, size int, total int64) PaginationResponse[T] {
	totalPages := int((total + int64(size) - 1) / int64(size))
	return PaginationResponse[T]{
		Items:      items,
		PageIndex:  page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    int64(page+1)*int64(size) < total,
	}
}

// ParsePageRequest reads page, size and sort query parameters. The sort field
// must appear in allowedSort (API name -> column name); anything else is a
// BadRequest before any query runs.
func ParsePageRequest(r *http.Request, allowedSort map[string]string) (PageRequest, error) {
	page := parseIntDefault(r.URL.Query().Get("page"), 0)
	if page < 0 {
		page = 0
	}
	size := parseIntDefault(r.URL.Query().Get("size"), DefaultPageSize)
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	field, desc, err := parseSort(r.URL.Query().Get("sort"), allowedSort)
	if err != nil {
		return PageRequest{}, err
	}

	return PageRequest{Page: page, Size: size, SortField: field, SortDesc: desc}, nil
}

func parseSort(sort string, allowedSort map[string]string) (string, bool, error) {
	if strings.TrimSpace(sort) == "" {
		sort = "createdAt,desc"
	}

	parts := strings.Split(sort, ",")
	field := strings.TrimSpace(parts[0])
	if field == "" {
		field = "createdAt"
	}

	column, ok := allowedSort[field]
	if !ok {
		return "", false, fmt.Errorf("invalid sort field '%s': %w", field, ErrBadRequest)
	}

	desc := true
	if len(parts) > 1 {
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "asc":
			desc = false
		case "desc", "":
			desc = true
		default:
			return "", false, fmt.Errorf("invalid sort direction '%s', use 'asc' or 'desc': %w", strings.TrimSpace(parts[1]), ErrBadRequest)
		}
	}

	return column, desc, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
