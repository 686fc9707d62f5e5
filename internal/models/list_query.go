package models

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type SortField string

const (
	SortByCreatedAt       SortField = "createdAt"
	SortByUpdatedAt       SortField = "updatedAt"
	SortByFingerprintID   SortField = "fingerprintId"
	SortByFingerprintHash SortField = "fingerprintHash"
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// sortColumns is the allow-list of sortable fields and their storage columns.
var sortColumns = map[SortField]string{
	SortByCreatedAt:       "created_at",
	SortByUpdatedAt:       "updated_at",
	SortByFingerprintID:   "fingerprint_id",
	SortByFingerprintHash: "fingerprint_hash",
}

// ListQuery is a normalized list request. Build it with NewListQuery or
// ParseListQuery; both guarantee every field is within bounds.
type ListQuery struct {
	Page          int
	PageSize      int
	SortField     SortField
	SortDirection SortDirection
}

// NewListQuery clamps pagination to its defaults and resolves the sort
// parameters. Unknown sort fields fall back to createdAt and unknown
// directions to DESC without error.
func NewListQuery(page, pageSize int, sortField, sortDirection string) ListQuery {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return ListQuery{
		Page:          page,
		PageSize:      pageSize,
		SortField:     ResolveSortField(sortField),
		SortDirection: ResolveSortDirection(sortDirection),
	}
}

// ParseListQuery reads page, pageSize, sortField and sortDirection from a query
// string. Present but malformed pagination values are rejected; sort values
// never are.
func ParseListQuery(values url.Values) (ListQuery, error) {
	verr := NewValidationError()

	page := DefaultPage
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr.Add("page", "page must be an integer greater than or equal to 1")
		} else {
			page = n
		}
	}

	pageSize := DefaultPageSize
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageSize {
			verr.Add("pageSize", "pageSize must be an integer between 1 and 100")
		} else {
			pageSize = n
		}
	}

	if err := verr.OrNil(); err != nil {
		return ListQuery{}, err
	}
	return NewListQuery(page, pageSize, values.Get("sortField"), values.Get("sortDirection")), nil
}

func ResolveSortField(raw string) SortField {
	if _, ok := sortColumns[SortField(raw)]; ok {
		return SortField(raw)
	}
	return SortByCreatedAt
}

func ResolveSortDirection(raw string) SortDirection {
	switch SortDirection(strings.ToUpper(strings.TrimSpace(raw))) {
	case SortAsc:
		return SortAsc
	default:
		return SortDesc
	}
}

// Column is the storage column backing the sort field.
func (f SortField) Column() string {
	if col, ok := sortColumns[f]; ok {
		return col
	}
	return sortColumns[SortByCreatedAt]
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

func (q ListQuery) Descending() bool {
	return q.SortDirection == SortDesc
}

// CacheKey identifies the page for response caching.
func (q ListQuery) CacheKey() string {
	return strconv.Itoa(q.Page) + ":" + strconv.Itoa(q.PageSize) + ":" + string(q.SortField) + ":" + string(q.SortDirection)
}
