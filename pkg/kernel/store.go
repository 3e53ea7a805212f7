package kernel

// Page represents pagination metadata
type Page struct {
	Number int `json:"page"`      // Current page number (1-based)
	Size   int `json:"page_size"` // Number of records per page
	Total  int `json:"total"`     // Total number of records
	Pages  int `json:"pages"`     // Total number of pages
}

// Paginated is a generic container for paginated data with metadata
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated creates a new paginated result with calculated fields
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   size,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

// HasNext returns whether there are more pages after the current one
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

// PaginationOptions holds options for pagination queries
type PaginationOptions struct {
	Page     int
	PageSize int
}

// Normalize clamps the options to page >= 1 and 1 <= size <= maxSize,
// substituting defaultSize for an unset size.
func (o PaginationOptions) Normalize(defaultSize, maxSize int) PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultSize
	}
	if o.PageSize > maxSize {
		o.PageSize = maxSize
	}
	return o
}

// Offset is the zero-based row offset for the page.
func (o PaginationOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}
