package item

import (
	"fmt"
	"net/http"
	"strconv"
)

// QueryParams holds parsed and validated query parameters for item list
// endpoints.
type QueryParams struct {
	Page    int
	PerPage int
	Search  string // full-text search query over document string values
}

// ParseQueryParams extracts and validates query parameters from the request
// URL.
func ParseQueryParams(r *http.Request) (QueryParams, error) {
	q := QueryParams{
		Page:    1,
		PerPage: 20,
	}

	query := r.URL.Query()

	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return q, fmt.Errorf("page must be a positive integer")
		}
		q.Page = page
	}

	if v := query.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 {
			return q, fmt.Errorf("per_page must be a positive integer")
		}
		if perPage > 100 {
			perPage = 100
		}
		q.PerPage = perPage
	}

	q.Search = query.Get("q")

	return q, nil
}
