// Package search provides PostgreSQL full-text search query building for
// documents stored in dynamic collection backing stores.
package search

import "fmt"

// BuildDocumentSearch generates full-text search SQL fragments over a JSONB
// document column. Every string value of the document participates in the
// match; paramIdx is the $N placeholder the query string binds to.
//
// Returns:
//   - whereClause: e.g., jsonb_to_tsvector('english', data, '["string"]') @@ plainto_tsquery('english', $3)
//   - orderClause: e.g., ts_rank(jsonb_to_tsvector(...), plainto_tsquery('english', $3)) DESC
//   - args: the query string value to bind
//
// An empty query returns zero values for everything (search not requested).
func BuildDocumentSearch(query string, paramIdx int) (whereClause, orderClause string, args []any) {
	if query == "" {
		return "", "", nil
	}

	vector := `jsonb_to_tsvector('english', data, '["string"]')`
	tsquery := fmt.Sprintf("plainto_tsquery('english', $%d)", paramIdx)

	whereClause = fmt.Sprintf("%s @@ %s", vector, tsquery)
	orderClause = fmt.Sprintf("ts_rank(%s, %s) DESC", vector, tsquery)
	args = []any{query}
	return whereClause, orderClause, args
}
