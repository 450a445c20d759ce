package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"movienight-cli/model"
	"movienight-cli/store"
)

type fakeSearcher struct {
	mu     sync.Mutex
	terms  []string
	links  []string
	search func(ctx context.Context, term string) (model.Page[model.Movie], error)
	follow func(ctx context.Context, link string) (model.Page[model.Movie], error)
}

func (f *fakeSearcher) SearchMovies(ctx context.Context, term string) (model.Page[model.Movie], error) {
	f.mu.Lock()
	f.terms = append(f.terms, term)
	f.mu.Unlock()
	return f.search(ctx, term)
}

func (f *fakeSearcher) MoviePage(ctx context.Context, link string) (model.Page[model.Movie], error) {
	f.mu.Lock()
	f.links = append(f.links, link)
	f.mu.Unlock()
	return f.follow(ctx, link)
}

type memoryStorage struct {
	snapshot store.SearchSnapshot
	fresh    bool
	saved    int
	terms    []string
}

func (m *memoryStorage) LoadSnapshot() (store.SearchSnapshot, bool, error) {
	return m.snapshot, m.fresh, nil
}

func (m *memoryStorage) SaveSnapshot(s store.SearchSnapshot) error {
	m.snapshot = s
	m.fresh = true
	m.saved++
	return nil
}

func (m *memoryStorage) RecentTerms() ([]string, error) { return m.terms, nil }

func (m *memoryStorage) RememberTerm(term string) error {
	m.terms = append([]string{term}, m.terms...)
	return nil
}

func resultPage(next, previous string, titles ...string) model.Page[model.Movie] {
	p := model.Page[model.Movie]{}
	if next != "" {
		p.Next = &next
	}
	if previous != "" {
		p.Previous = &previous
	}
	for i, title := range titles {
		p.Results = append(p.Results, model.Movie{ID: i + 1, Title: title})
	}
	return p
}

func TestSubmit_ReplacesResultsAndCaches(t *testing.T) {
	searcher := &fakeSearcher{
		search: func(_ context.Context, term string) (model.Page[model.Movie], error) {
			return resultPage("p2", "", term+" 1", term+" 2"), nil
		},
	}
	storage := &memoryStorage{}
	pipeline := NewPipeline(searcher, storage, nil)

	if err := pipeline.Submit(context.Background(), "  alien "); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := pipeline.Submit(context.Background(), "heat"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	snap := pipeline.Snapshot()
	if snap.Term != "heat" || len(snap.Results) != 2 || snap.Results[0].Title != "heat 1" {
		t.Fatalf("expected results replaced by second query, got %+v", snap)
	}
	if storage.snapshot.Term != "heat" || storage.snapshot.Next != "p2" {
		t.Fatalf("expected last query cached, got %+v", storage.snapshot)
	}
	if len(storage.terms) != 2 || storage.terms[0] != "heat" || storage.terms[1] != "alien" {
		t.Fatalf("unexpected recent terms: %v", storage.terms)
	}
}

func TestNextPrevious_FollowServerLinks(t *testing.T) {
	searcher := &fakeSearcher{
		search: func(context.Context, string) (model.Page[model.Movie], error) {
			return resultPage("p2", "", "first"), nil
		},
		follow: func(_ context.Context, link string) (model.Page[model.Movie], error) {
			if link == "p2" {
				return resultPage("", "p1", "second"), nil
			}
			return resultPage("p2", "", "first"), nil
		},
	}
	pipeline := NewPipeline(searcher, &memoryStorage{}, nil)
	ctx := context.Background()

	if ok, _ := pipeline.Previous(ctx); ok {
		t.Fatal("expected Previous to be a no-op without a link")
	}
	_ = pipeline.Submit(ctx, "x")

	ok, err := pipeline.Next(ctx)
	if !ok || err != nil {
		t.Fatalf("expected next page, got ok=%v err=%v", ok, err)
	}
	snap := pipeline.Snapshot()
	if len(snap.Results) != 1 || snap.Results[0].Title != "second" || snap.HasNext() || !snap.HasPrevious() {
		t.Fatalf("unexpected page 2 state: %+v", snap)
	}
	if ok, _ := pipeline.Next(ctx); ok {
		t.Fatal("expected Next to be a no-op on the last page")
	}

	if ok, err := pipeline.Previous(ctx); !ok || err != nil {
		t.Fatalf("expected previous page, got ok=%v err=%v", ok, err)
	}
	if got := pipeline.Snapshot().Results[0].Title; got != "first" {
		t.Fatalf("expected first page again, got %q", got)
	}
}

func TestNext_FailureKeepsDisplayedSet(t *testing.T) {
	boom := errors.New("boom")
	searcher := &fakeSearcher{
		search: func(context.Context, string) (model.Page[model.Movie], error) {
			return resultPage("p2", "", "first"), nil
		},
		follow: func(context.Context, string) (model.Page[model.Movie], error) {
			return model.Page[model.Movie]{}, boom
		},
	}
	pipeline := NewPipeline(searcher, &memoryStorage{}, nil)
	_ = pipeline.Submit(context.Background(), "x")

	if _, err := pipeline.Next(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	snap := pipeline.Snapshot()
	if len(snap.Results) != 1 || snap.Next != "p2" || snap.Err == nil || snap.Fetching {
		t.Fatalf("expected displayed set kept, got %+v", snap)
	}
}

func TestOpen_RestoresCacheWithoutFetching(t *testing.T) {
	searcher := &fakeSearcher{}
	storage := &memoryStorage{
		fresh:    true,
		snapshot: store.SearchSnapshot{Term: "cached", Results: []model.Movie{{ID: 9, Title: "Cached"}}, Next: "p2"},
	}
	pipeline := NewPipeline(searcher, storage, nil)

	shown, err := pipeline.Open(context.Background(), "")
	if err != nil || !shown {
		t.Fatalf("expected cached results shown, got shown=%v err=%v", shown, err)
	}
	snap := pipeline.Snapshot()
	if snap.Term != "cached" || snap.Next != "p2" || len(snap.Results) != 1 {
		t.Fatalf("unexpected restored state: %+v", snap)
	}
	if len(searcher.terms) != 0 {
		t.Fatalf("expected no fetch, got %v", searcher.terms)
	}
}

func TestOpen_DeepLinkWinsOverCache(t *testing.T) {
	searcher := &fakeSearcher{
		search: func(_ context.Context, term string) (model.Page[model.Movie], error) {
			return resultPage("", "", "Fresh "+term), nil
		},
	}
	storage := &memoryStorage{
		fresh:    true,
		snapshot: store.SearchSnapshot{Term: "cached", Results: []model.Movie{{Title: "Cached"}}},
	}
	pipeline := NewPipeline(searcher, storage, nil)

	shown, err := pipeline.Open(context.Background(), "matrix")
	if err != nil || !shown {
		t.Fatalf("expected fresh results, got shown=%v err=%v", shown, err)
	}
	if got := pipeline.Snapshot().Results[0].Title; got != "Fresh matrix" {
		t.Fatalf("expected deep-link results, got %q", got)
	}
	if len(searcher.terms) != 1 || searcher.terms[0] != "matrix" {
		t.Fatalf("expected one fetch for matrix, got %v", searcher.terms)
	}
}

func TestOpen_StaleCacheShowsNothing(t *testing.T) {
	storage := &memoryStorage{snapshot: store.SearchSnapshot{Term: "old"}}
	pipeline := NewPipeline(&fakeSearcher{}, storage, nil)

	shown, err := pipeline.Open(context.Background(), "")
	if err != nil || shown {
		t.Fatalf("expected nothing shown, got shown=%v err=%v", shown, err)
	}
}

func TestSubmit_RejectsBlankTerm(t *testing.T) {
	pipeline := NewPipeline(&fakeSearcher{}, &memoryStorage{}, nil)
	if err := pipeline.Submit(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank term")
	}
}

func TestSubmit_SupersedesInFlightQuery(t *testing.T) {
	started := make(chan struct{})
	searcher := &fakeSearcher{
		search: func(ctx context.Context, term string) (model.Page[model.Movie], error) {
			if term == "slow" {
				close(started)
				<-ctx.Done()
				return model.Page[model.Movie]{}, ctx.Err()
			}
			return resultPage("", "", term), nil
		},
	}
	pipeline := NewPipeline(searcher, &memoryStorage{}, nil)

	done := make(chan error, 1)
	go func() { done <- pipeline.Submit(context.Background(), "slow") }()
	<-started

	if err := pipeline.Submit(context.Background(), "fast"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected superseded query to be dropped silently, got %v", err)
	}
	snap := pipeline.Snapshot()
	if snap.Term != "fast" || snap.Err != nil {
		t.Fatalf("expected fast results, got %+v", snap)
	}
}
