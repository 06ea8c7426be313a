package store

import "blogpress/internal/models"

// PageSize is the number of categories per public listing page.
const PageSize = 10

// Paginator is one page of a category listing plus the numbers needed to
// render navigation links.
type Paginator struct {
	Items       []models.Category
	CurrentPage int
	PageSize    int
	Total       int
}

func (p *Paginator) offset() int {
	return (p.CurrentPage - 1) * p.PageSize
}

// LastPage returns the number of the final page (at least 1).
func (p *Paginator) LastPage() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasPrevious reports whether a page exists before the current one.
func (p *Paginator) HasPrevious() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a page exists after the current one.
func (p *Paginator) HasNext() bool {
	return p.CurrentPage < p.LastPage()
}

// PreviousPage returns the page before the current one.
func (p *Paginator) PreviousPage() int {
	if p.CurrentPage <= 1 {
		return 1
	}
	return p.CurrentPage - 1
}

// NextPage returns the page after the current one.
func (p *Paginator) NextPage() int {
	return p.CurrentPage + 1
}

// Pages lists every page number, for numbered navigation links.
func (p *Paginator) Pages() []int {
	last := p.LastPage()
	pages := make([]int, last)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
