// Package search runs free-text movie queries with page-at-a-time navigation
// and restores the last result set when the search view is revisited.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"movienight-cli/model"
	"movienight-cli/store"
)

// Searcher is the part of the API client the pipeline needs.
type Searcher interface {
	SearchMovies(ctx context.Context, term string) (model.Page[model.Movie], error)
	MoviePage(ctx context.Context, link string) (model.Page[model.Movie], error)
}

// Storage keeps the last search and the recent terms across runs.
type Storage interface {
	LoadSnapshot() (store.SearchSnapshot, bool, error)
	SaveSnapshot(store.SearchSnapshot) error
	RecentTerms() ([]string, error)
	RememberTerm(term string) error
}

// FileStorage keeps search state in the user config and cache directories.
type FileStorage struct {
	TTL time.Duration
}

func (f FileStorage) LoadSnapshot() (store.SearchSnapshot, bool, error) {
	return store.LoadSearchCache(f.TTL)
}

func (FileStorage) SaveSnapshot(s store.SearchSnapshot) error { return store.SaveSearchCache(s) }
func (FileStorage) RecentTerms() ([]string, error)             { return store.LoadRecentSearchTerms() }
func (FileStorage) RememberTerm(term string) error             { return store.RememberSearchTerm(term) }

type Snapshot struct {
	Term     string
	Results  []model.Movie
	Next     string
	Previous string
	Fetching bool
	Err      error
}

func (s Snapshot) HasNext() bool     { return s.Next != "" }
func (s Snapshot) HasPrevious() bool { return s.Previous != "" }

// Pipeline holds one displayed page of search results. Each navigation
// replaces the displayed set.
type Pipeline struct {
	searcher Searcher
	storage  Storage
	logger   *logrus.Logger

	mu         sync.Mutex
	term       string
	results    []model.Movie
	next       string
	previous   string
	fetching   bool
	generation uint64
	cancel     context.CancelFunc
	err        error
}

func NewPipeline(searcher Searcher, storage Storage, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{searcher: searcher, storage: storage, logger: logger}
}

// Submit runs a new query. It supersedes any request still in flight.
func (p *Pipeline) Submit(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return errors.New("search term is required")
	}

	if p.storage != nil {
		if err := p.storage.RememberTerm(term); err != nil {
			p.logger.WithError(err).Warn("could not record search term")
		}
	}

	_, err := p.run(ctx, term, true, func(ctx context.Context) (model.Page[model.Movie], error) {
		return p.searcher.SearchMovies(ctx, term)
	})
	return err
}

// Next shows the following page. It reports false when there is no next page
// or a request is already in flight.
func (p *Pipeline) Next(ctx context.Context) (bool, error) {
	return p.follow(ctx, func() string { return p.next })
}

// Previous shows the preceding page.
func (p *Pipeline) Previous(ctx context.Context) (bool, error) {
	return p.follow(ctx, func() string { return p.previous })
}

// Open prepares the view. A deep-link term always triggers a fresh query;
// otherwise the cached result set is restored when it is still fresh. It
// reports whether anything is displayed.
func (p *Pipeline) Open(ctx context.Context, deepLinkTerm string) (bool, error) {
	if strings.TrimSpace(deepLinkTerm) != "" {
		if err := p.Submit(ctx, deepLinkTerm); err != nil {
			return false, err
		}
		return true, nil
	}

	p.mu.Lock()
	if p.term != "" {
		p.mu.Unlock()
		return true, nil
	}
	p.mu.Unlock()

	if p.storage == nil {
		return false, nil
	}
	snapshot, fresh, err := p.storage.LoadSnapshot()
	if err != nil {
		p.logger.WithError(err).Warn("could not load cached search")
		return false, nil
	}
	if !fresh || snapshot.Term == "" {
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.term = snapshot.Term
	p.results = snapshot.Results
	p.next = snapshot.Next
	p.previous = snapshot.Previous
	p.err = nil
	return true, nil
}

// RecentTerms returns the most recent queries, newest first.
func (p *Pipeline) RecentTerms() []string {
	if p.storage == nil {
		return nil
	}
	terms, err := p.storage.RecentTerms()
	if err != nil {
		p.logger.WithError(err).Warn("could not load recent search terms")
		return nil
	}
	return terms
}

func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]model.Movie, len(p.results))
	copy(results, p.results)
	return Snapshot{
		Term:     p.term,
		Results:  results,
		Next:     p.next,
		Previous: p.previous,
		Fetching: p.fetching,
		Err:      p.err,
	}
}

func (p *Pipeline) follow(ctx context.Context, link func() string) (bool, error) {
	p.mu.Lock()
	target := link()
	term := p.term
	busy := p.fetching
	p.mu.Unlock()
	if busy || target == "" {
		return false, nil
	}
	return p.run(ctx, term, false, func(ctx context.Context) (model.Page[model.Movie], error) {
		return p.searcher.MoviePage(ctx, target)
	})
}

// run issues fetch and displays its page. A superseding run cancels the
// request in flight; any other run is dropped while one is outstanding.
func (p *Pipeline) run(ctx context.Context, term string, supersede bool, fetch func(context.Context) (model.Page[model.Movie], error)) (bool, error) {
	p.mu.Lock()
	if supersede {
		if p.cancel != nil {
			p.cancel()
		}
		p.generation++
	} else if p.fetching {
		p.mu.Unlock()
		return false, nil
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	p.fetching = true
	p.cancel = cancel
	generation := p.generation
	p.mu.Unlock()
	defer cancel()

	page, err := fetch(fetchCtx)

	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()
		return false, nil
	}
	p.fetching = false
	p.cancel = nil
	if err != nil {
		p.err = err
		p.mu.Unlock()
		return false, err
	}
	p.term = term
	p.results = page.Results
	p.next = page.NextURL()
	p.previous = page.PreviousURL()
	p.err = nil
	snapshot := store.SearchSnapshot{
		Term:     p.term,
		Results:  p.results,
		Next:     p.next,
		Previous: p.previous,
	}
	p.mu.Unlock()

	if p.storage != nil {
		if err := p.storage.SaveSnapshot(snapshot); err != nil {
			p.logger.WithError(err).Warn("could not cache search results")
		}
	}
	return true, nil
}
