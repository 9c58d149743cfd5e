// Package cursor defines the pagination cursor used by the enrichment
// batch API. The server returns the cursor for the next page as
// next_after_key; an empty name means there are no more pages.
package cursor

// Cursor marks where the next enrichment batch should start.
type Cursor struct {
	Name  string `json:"name"`
	Birth string `json:"birth"`
}

// IsZero reports whether the cursor carries no pagination position.
// The name field is the sentinel: a cursor without a name never filters
// a page, regardless of the birth field.
func (c Cursor) IsZero() bool {
	return c.Name == ""
}
