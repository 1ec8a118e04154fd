// Package pagination provides fixed-size page parameters and the paginated
// response envelope used by the list endpoints.
package pagination

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSize is the fixed number of items per page
const PageSize = 10

// Params is a 1-based page request
type Params struct {
	Page     int
	PageSize int
}

// NewParams returns the params for page, clamping values below 1 to the first page
func NewParams(page int) Params {
	if page < 1 {
		page = 1
	}
	return Params{Page: page, PageSize: PageSize}
}

// ParsePage parses a page query value. An empty value is the first page.
func ParsePage(raw string) (Params, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewParams(1), nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return Params{}, fmt.Errorf("page must be a positive integer, got %q", raw)
	}
	return NewParams(page), nil
}

// Offset calculates the offset for queries
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the maximum number of items on the page
func (p Params) Limit() int {
	return p.PageSize
}

// Result is a page of items with totals
type Result[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// NewResult builds the envelope. A nil items slice is returned as empty.
func NewResult[T any](items []T, total int64, params Params) *Result[T] {
	if items == nil {
		items = []T{}
	}
	size := params.PageSize
	if size < 1 {
		size = PageSize
	}
	totalPages := int((total + int64(size) - 1) / int64(size))

	return &Result[T]{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   size,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
	}
}
