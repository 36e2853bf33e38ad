package model

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination builds pagination metadata for total rows.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ClampPage normalises page/limit query values.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Offset returns the row offset for a 1-based page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// Page is a generic listing response.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
