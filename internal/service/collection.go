package service

import (
	"context"
	"sync"

	"github.com/target/taskdesk/internal/domain/model"
)

// Collection holds the last loaded copy of a remote list.
// Reloads are fenced by a generation counter: when two reloads overlap, only
// the most recently started one may replace the items.
type Collection[T any] struct {
	mu     sync.RWMutex
	gen    uint64
	items  []T
	loaded bool
}

// Reload fetches a fresh copy and stores it unless a newer reload started in
// the meantime. It reports whether the result was applied.
func (c *Collection[T]) Reload(ctx context.Context, fetch func(context.Context) ([]T, error)) (bool, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	items, err := fetch(ctx)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	c.items = append(make([]T, 0, len(items)), items...)
	c.loaded = true
	return true, nil
}

// Items returns a copy of the current items.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(make([]T, 0, len(c.items)), c.items...)
}

// Loaded reports whether any reload has been applied.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// View filters the current items with keep and returns the page p points at.
func (c *Collection[T]) View(keep func(T) bool, p *Pager) model.Page[T] {
	return model.Paginate(Filter(c.Items(), keep), p.Page(), p.Size())
}

// Pager tracks the page a list view is on. Changing the criteria sends it back
// to the first page.
type Pager struct {
	mu       sync.Mutex
	page     int
	size     int
	criteria string
}

// NewPager returns a Pager on page 1. Non-positive sizes use model.DefaultPageSize.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = model.DefaultPageSize
	}
	return &Pager{page: 1, size: size}
}

// SetCriteria records the active filter key and resets to page 1 when it changed.
func (p *Pager) SetCriteria(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key != p.criteria {
		p.criteria = key
		p.page = 1
	}
}

// SetPage moves to page n; values below 1 select the first page.
func (p *Pager) SetPage(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = max(n, 1)
}

// Page returns the current 1-based page.
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Size returns the page size.
func (p *Pager) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}
