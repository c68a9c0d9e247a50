package pagination

const (
	// DefaultPage is the first page; pages are 1-indexed.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes one page of a listing.
type Page struct {
	Total       int64 `json:"totalOrders"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

// Normalize applies defaults and caps.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset returns the number of rows to skip: (page-1)*limit.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Describe builds page metadata for a total row count.
func Describe(p Params, total int64) Page {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Page{Total: total, TotalPages: pages, CurrentPage: n.Page}
}
