package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"scalesite/internal/domain/content"
	"scalesite/internal/query"
)

type fakeLister struct {
	mu    sync.Mutex
	pages map[int][]int
	total int
	size  int
	fail  map[int]error
	calls []query.Request

	// gate, when set, blocks List until a value is received.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeLister) List(ctx context.Context, req query.Request) (content.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	err := f.fail[req.Page]
	ids := f.pages[req.Page]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if err != nil {
		return content.Page{}, err
	}
	items := make([]content.Content, 0, len(ids))
	for _, id := range ids {
		items = append(items, content.Content{ID: id})
	}
	pageCount := (f.total + f.size - 1) / f.size
	return content.Page{
		Items:      items,
		Pagination: content.Pagination{Page: req.Page, PageSize: f.size, PageCount: pageCount, Total: f.total},
	}, nil
}

func ids(items []content.Content) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFetchNextAccumulatesInServerOrder(t *testing.T) {
	src := &fakeLister{
		pages: map[int][]int{1: {1, 2, 3}, 2: {4, 5, 6}},
		total: 6,
		size:  3,
	}
	f := New(src, query.Request{Variant: content.VariantBlog, PageSize: 3}, nil)

	if err := f.FetchNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st := f.State(); !st.HasNextPage {
		t.Fatalf("page 1 of 2 should have a next page: %+v", st.Pagination)
	}
	if err := f.FetchNext(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := f.State()
	if got := ids(st.Items); !equalInts(got, []int{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("items = %v", got)
	}
	if st.HasNextPage {
		t.Fatal("last page should not have a next page")
	}
	if err := f.FetchNext(context.Background()); !errors.Is(err, ErrNoNextPage) {
		t.Fatalf("expected ErrNoNextPage, got %v", err)
	}
	if len(src.calls) != 2 || src.calls[0].Page != 1 || src.calls[1].Page != 2 {
		t.Fatalf("calls = %+v", src.calls)
	}
}

func TestFetchNextKeepsDuplicates(t *testing.T) {
	src := &fakeLister{pages: map[int][]int{1: {1, 2}, 2: {2, 3}}, total: 4, size: 2}
	f := New(src, query.Request{PageSize: 2}, nil)
	for i := 0; i < 2; i++ {
		if err := f.FetchNext(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := ids(f.State().Items); !equalInts(got, []int{1, 2, 2, 3}) {
		t.Fatalf("items = %v", got)
	}
}

func TestFetchNextRefusedWhileInFlight(t *testing.T) {
	src := &fakeLister{
		pages:   map[int][]int{1: {1}},
		total:   2,
		size:    1,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	f := New(src, query.Request{PageSize: 1}, nil)

	done := make(chan error, 1)
	go func() { done <- f.FetchNext(context.Background()) }()
	<-src.started

	if !f.State().IsFetchingNextPage {
		t.Fatal("expected in-flight state")
	}
	if err := f.FetchNext(context.Background()); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(src.gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if f.State().IsFetchingNextPage {
		t.Fatal("in-flight flag not cleared")
	}
	if len(src.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(src.calls))
	}
}

func TestFailedPageIsRetryable(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeLister{
		pages: map[int][]int{1: {1, 2}, 2: {3, 4}},
		total: 4,
		size:  2,
		fail:  map[int]error{2: boom},
	}
	f := New(src, query.Request{PageSize: 2}, nil)
	if err := f.FetchNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := f.FetchNext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	st := f.State()
	if !errors.Is(st.Err, boom) || len(st.Items) != 2 || st.IsFetchingNextPage {
		t.Fatalf("state after failure = %+v", st)
	}

	src.mu.Lock()
	delete(src.fail, 2)
	src.mu.Unlock()
	if err := f.FetchNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	st = f.State()
	if st.Err != nil || !equalInts(ids(st.Items), []int{1, 2, 3, 4}) {
		t.Fatalf("state after retry = %+v", st)
	}
	if last := src.calls[len(src.calls)-1]; last.Page != 2 {
		t.Fatalf("retry fetched page %d, want 2", last.Page)
	}
}

func TestResetDiscardsStaleResponse(t *testing.T) {
	src := &fakeLister{
		pages:   map[int][]int{1: {1, 2}},
		total:   2,
		size:    2,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	f := New(src, query.Request{PageSize: 2, Filters: query.Filters{CategorySlug: "news"}}, nil)

	done := make(chan error, 1)
	go func() { done <- f.FetchNext(context.Background()) }()
	<-src.started

	f.Reset(query.Request{PageSize: 2, Filters: query.Filters{CategorySlug: "research"}})
	close(src.gate)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	st := f.State()
	if len(st.Items) != 0 || st.Loaded || st.IsFetchingNextPage {
		t.Fatalf("stale page leaked into state: %+v", st)
	}
	if got := f.Request().Filters.CategorySlug; got != "research" {
		t.Fatalf("request = %q", got)
	}
}

func TestEmptyResult(t *testing.T) {
	src := &fakeLister{pages: map[int][]int{}, total: 0, size: 9}
	f := New(src, query.Request{Filters: query.Filters{Search: "robotics"}}, nil)
	if err := f.FetchNext(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := f.State()
	if !st.Empty || st.HasNextPage || st.Err != nil {
		t.Fatalf("state = %+v", st)
	}
}

func TestDrain(t *testing.T) {
	src := &fakeLister{
		pages: map[int][]int{1: {1, 2}, 2: {3, 4}, 3: {5}},
		total: 5,
		size:  2,
	}
	f := New(src, query.Request{PageSize: 2}, nil)
	items, err := f.Drain(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !equalInts(ids(items), []int{1, 2, 3, 4, 5}) {
		t.Fatalf("items = %v", ids(items))
	}
}

// pageOneLister always reports page 1, whatever was asked for.
type pageOneLister struct {
	pageCount int
	perPage   int
	calls     int
}

func (p *pageOneLister) List(_ context.Context, req query.Request) (content.Page, error) {
	p.calls++
	items := make([]content.Content, 0, p.perPage)
	if req.Page <= 2 {
		for i := 0; i < p.perPage; i++ {
			items = append(items, content.Content{ID: req.Page*100 + i})
		}
	}
	return content.Page{
		Items:      items,
		Pagination: content.Pagination{Page: 1, PageSize: p.perPage, PageCount: p.pageCount, Total: p.pageCount * p.perPage},
	}, nil
}

func TestDrainFollowsCursorNotServerPage(t *testing.T) {
	src := &pageOneLister{pageCount: 2, perPage: 1}
	f := New(src, query.Request{Variant: content.VariantBlog, PageSize: 1}, nil)

	items, err := f.Drain(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Fatalf("calls = %d, want 2", src.calls)
	}
	if got := ids(items); len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Fatalf("items = %v", got)
	}
	if st := f.State(); st.HasNextPage || st.Pagination.Page != 2 {
		t.Fatalf("state = %+v", st)
	}
}

func TestDrainStopsOnEmptyPage(t *testing.T) {
	// claims far more pages than it has
	src := &pageOneLister{pageCount: 50, perPage: 3}
	f := New(src, query.Request{Variant: content.VariantBlog, PageSize: 3}, nil)

	items, err := f.Drain(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if src.calls != 3 || len(items) != 6 {
		t.Fatalf("calls = %d items = %d", src.calls, len(items))
	}
}
