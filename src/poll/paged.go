package poll

import (
	"context"
	"sync"
	"time"
)

// Page is one window of a server-paginated collection. Total comes from the
// server and is authoritative; it is never inferred from len(Items).
type Page[T any] struct {
	Items []T
	Total int
}

type PagedFetch[T any] func(ctx context.Context, skip, limit int) (Page[T], error)

// PagedPoller owns page index and page size on top of a Poller. Any change
// to either resets the view to loading, discards in-flight results fetched
// with the old parameters, and refetches immediately.
type PagedPoller[T any] struct {
	poller *Poller[Page[T]]

	mu       sync.Mutex
	page     int
	pageSize int
}

func NewPagedPoller[T any](name string, interval time.Duration, pageSize int, fetch PagedFetch[T]) *PagedPoller[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	pp := &PagedPoller[T]{pageSize: pageSize}
	pp.poller = NewPoller(name, interval, func(ctx context.Context) (Page[T], error) {
		skip, limit := pp.window()
		return fetch(ctx, skip, limit)
	})
	return pp
}

func (pp *PagedPoller[T]) window() (skip, limit int) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return pp.page * pp.pageSize, pp.pageSize
}

func (pp *PagedPoller[T]) Start(ctx context.Context) (stop func()) {
	return pp.poller.Start(ctx)
}

func (pp *PagedPoller[T]) Stop() { pp.poller.Stop() }

func (pp *PagedPoller[T]) Kick() { pp.poller.Kick() }

func (pp *PagedPoller[T]) Status() Status[Page[T]] {
	return pp.poller.Status()
}

func (pp *PagedPoller[T]) OnUpdate(fn func(Status[Page[T]])) *PagedPoller[T] {
	pp.poller.OnUpdate(fn)
	return pp
}

func (pp *PagedPoller[T]) Page() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return pp.page
}

func (pp *PagedPoller[T]) PageSize() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return pp.pageSize
}

// PageCount derives the page count from the server total. Zero until the
// first page has loaded.
func (pp *PagedPoller[T]) PageCount() int {
	st := pp.poller.Status()
	if !st.HasValue {
		return 0
	}
	size := pp.PageSize()
	return (st.Value.Total + size - 1) / size
}

func (pp *PagedPoller[T]) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	pp.mu.Lock()
	if page == pp.page {
		pp.mu.Unlock()
		return
	}
	pp.page = page
	pp.mu.Unlock()
	pp.refetch()
}

// SetPageSize resets the page to 0: changing the denominator invalidates the
// current offset.
func (pp *PagedPoller[T]) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	pp.mu.Lock()
	if size == pp.pageSize {
		pp.mu.Unlock()
		return
	}
	pp.pageSize = size
	pp.page = 0
	pp.mu.Unlock()
	pp.refetch()
}

func (pp *PagedPoller[T]) refetch() {
	pp.poller.Invalidate()
	pp.poller.Kick()
}
