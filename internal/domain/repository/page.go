package repository

// Page resultado paginado (page/per_page, base 1).
type Page[T any] struct {
	Items    []*T
	Total    int
	Page     int
	PerPage  int
	LastPage int
}

// NewPage arma la página calculando LastPage.
func NewPage[T any](items []*T, total, page, perPage int) *Page[T] {
	if items == nil {
		items = []*T{}
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return &Page[T]{Items: items, Total: total, Page: page, PerPage: perPage, LastPage: last}
}

// Offset calcula el desplazamiento SQL para page/perPage.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
