package model

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Page is a window over an already filtered collection.
// Page numbers are 1-based; indexes are 1-based and inclusive for display.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalCount int
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
}

// TotalPages returns the number of pages needed to show TotalCount items.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.TotalCount == 0 {
		return 1
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// Paginate slices items into the requested page, clamping out-of-range pages
// to the last page. The returned Items slice is a copy.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	lastPage := 1
	if total > 0 {
		lastPage = (total + pageSize - 1) / pageSize
	}
	if page > lastPage {
		page = lastPage
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	out := make([]T, end-start)
	copy(out, items[start:end])

	p := Page[T]{
		Items:      out,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		HasPrev:    page > 1,
		HasNext:    end < total,
	}
	if total > 0 {
		p.StartIndex = start + 1
		p.EndIndex = end
	}
	return p
}
