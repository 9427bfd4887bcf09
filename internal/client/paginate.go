package client

import (
	"context"
	"errors"
)

// Page is one slice of a cursor-paginated result set. An empty NextToken
// marks the final page; an empty Items slice does not.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// PageFunc fetches one page. It receives an empty token for the first page
// and the previous page's NextToken afterwards.
type PageFunc[T any] func(ctx context.Context, token string) (Page[T], error)

// Pager walks a cursor-paginated endpoint lazily, yielding records one at a
// time across page boundaries. Pages are fetched strictly sequentially: the
// next fetch happens only once the current page is fully consumed, and only
// if it carried a cursor. A fetch error is returned exactly once as the
// terminal element.
//
// A Pager is single-use and not safe for concurrent use; create a fresh one
// to restart from the first page.
type Pager[T any] struct {
	fetch   PageFunc[T]
	items   []T
	pos     int
	token   string
	started bool
	done    bool
}

// NewPager creates a pager over fetch. No request is made until Next is
// called.
func NewPager[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// Next returns the next record. It returns Done once the upstream reports an
// empty cursor and all records have been yielded, or after an error has been
// returned.
func (p *Pager[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if p.done {
		return zero, Done
	}

	for p.pos >= len(p.items) {
		// The absence of a cursor is the sole termination signal. Empty
		// pages with a cursor keep going.
		if p.started && p.token == "" {
			p.done = true
			return zero, Done
		}
		page, err := p.fetch(ctx, p.token)
		if err != nil {
			p.done = true
			return zero, err
		}
		p.started = true
		p.items = page.Items
		p.pos = 0
		p.token = page.NextToken
	}

	item := p.items[p.pos]
	p.pos++
	return item, nil
}

// Collect drains the pager into a slice. On error it returns the records
// gathered so far along with the error.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		item, err := p.Next(ctx)
		if errors.Is(err, Done) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
}
