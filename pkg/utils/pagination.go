package utils

// Page size bounds for list endpoints
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a normalised page request. Limit is always within
// 1..MaxPageLimit so a list query is never unbounded.
type Page struct {
	Number int
	Limit  int
}

// PageMeta describes a returned page
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// NewPage clamps a raw page number and limit taken from a query string
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Meta builds the response metadata for totalCount rows
func (p Page) Meta(totalCount int64) PageMeta {
	pages := 0
	if totalCount > 0 {
		pages = int((totalCount + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PageMeta{
		Page:       p.Number,
		Limit:      p.Limit,
		TotalCount: totalCount,
		TotalPages: pages,
	}
}
