package transport

import (
	"net/url"
	"strconv"
)

// PaginationMeta is the list-envelope metadata every collection endpoint
// returns.
type PaginationMeta struct {
	Total           int  `json:"total"`
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Paginated is the generic list envelope.
type Paginated[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// Page selects a slice of a collection. Zero values are omitted and the
// backend applies its defaults.
type Page struct {
	Page  int
	Limit int
}

// Values encodes the page selection as query parameters.
func (p Page) Values() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	return values
}
