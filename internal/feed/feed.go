// Package feed accumulates pages of a collection listing for infinite scroll.
package feed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"scalesite/internal/domain/content"
	"scalesite/internal/query"
)

var (
	ErrInFlight   = errors.New("feed: fetch already in flight")
	ErrNoNextPage = errors.New("feed: no next page")
	ErrStale      = errors.New("feed: response belongs to a previous query")
)

// Lister is the slice of the CMS client the feed needs.
type Lister interface {
	List(ctx context.Context, req query.Request) (content.Page, error)
}

type State struct {
	Items              []content.Content
	Pagination         content.Pagination
	HasNextPage        bool
	IsFetchingNextPage bool
	Loaded             bool
	Empty              bool
	Err                error
}

type Feed struct {
	src Lister
	log *zap.Logger

	mu       sync.Mutex
	req      query.Request
	gen      uint64
	cursor   int
	items    []content.Content
	pg       content.Pagination
	loaded   bool
	inFlight bool
	err      error
}

func New(src Lister, req query.Request, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Feed{src: src, log: log.Named("feed")}
	f.reset(req)
	return f
}

// Reset switches the feed to a new query. Accumulated items are dropped and
// any fetch still running for the previous query will be discarded.
func (f *Feed) Reset(req query.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset(req)
}

func (f *Feed) reset(req query.Request) {
	f.req = req.Normalized()
	f.gen++
	f.cursor = 1
	f.items = nil
	f.pg = content.Pagination{}
	f.loaded = false
	f.inFlight = false
	f.err = nil
}

// FetchNext loads the page at the cursor and appends it in server order.
// On failure the cursor stays put so the same page can be retried.
func (f *Feed) FetchNext(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrInFlight
	}
	if f.loaded && !f.pg.HasNextPage() {
		f.mu.Unlock()
		return ErrNoNextPage
	}
	gen := f.gen
	req := f.req.WithPage(f.cursor)
	f.inFlight = true
	f.mu.Unlock()

	page, err := f.src.List(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		f.log.Debug("discarding stale page", zap.String("query", req.Key()), zap.Int("page", req.Page))
		return ErrStale
	}
	f.inFlight = false
	if err != nil {
		f.err = err
		f.log.Warn("fetch failed", zap.String("query", req.Key()), zap.Int("page", req.Page), zap.Error(err))
		return err
	}
	f.err = nil
	f.items = append(f.items, page.Items...)
	f.pg = page.Pagination
	// the cursor decides which page this was; servers may omit or repeat it
	f.pg.Page = req.Page
	if len(page.Items) == 0 && f.pg.PageCount > req.Page {
		f.pg.PageCount = req.Page
	}
	f.loaded = true
	f.cursor++
	return nil
}

// Drain fetches until the last page, returning everything accumulated.
func (f *Feed) Drain(ctx context.Context) ([]content.Content, error) {
	for {
		err := f.FetchNext(ctx)
		switch {
		case errors.Is(err, ErrNoNextPage):
			return f.State().Items, nil
		case err != nil:
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (f *Feed) Request() query.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]content.Content, len(f.items))
	copy(items, f.items)
	return State{
		Items:              items,
		Pagination:         f.pg,
		HasNextPage:        !f.loaded || f.pg.HasNextPage(),
		IsFetchingNextPage: f.inFlight,
		Loaded:             f.loaded,
		Empty:              f.loaded && len(f.items) == 0,
		Err:                f.err,
	}
}
