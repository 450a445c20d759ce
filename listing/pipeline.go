package listing

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"movienight-cli/model"
)

// Fetcher retrieves one page of movies. An empty endpoint means the first
// page for query; otherwise endpoint is a server-provided cursor.
type Fetcher interface {
	ListMovies(ctx context.Context, endpoint string, query url.Values) (model.Page[model.Movie], error)
}

// Snapshot is a consistent copy of the pipeline state for rendering.
type Snapshot struct {
	Results  []model.Movie
	NextURL  string
	HasMore  bool
	Fetching bool
	// Exhausted is true once the server reported no further page.
	Exhausted bool
	Err       error
	Criteria  Criteria
	Ordering  Ordering
}

// Pipeline accumulates the pages of the filtered movie list. At most one page
// request is in flight; a criteria change supersedes it.
type Pipeline struct {
	fetcher Fetcher
	logger  *logrus.Logger

	mu         sync.Mutex
	criteria   Criteria
	ordering   Ordering
	results    []model.Movie
	next       string
	loaded     bool
	fetching   bool
	generation uint64
	cancel     context.CancelFunc
	err        error
}

func NewPipeline(fetcher Fetcher, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{fetcher: fetcher, logger: logger}
}

// SetCriteria replaces the filter criteria and refetches from the first page.
// Invalid criteria are rejected without touching the current results.
func (p *Pipeline) SetCriteria(ctx context.Context, criteria Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.criteria = criteria.Clone()
	p.mu.Unlock()
	return p.Reset(ctx)
}

// SetOrdering replaces the ordering key and refetches from the first page.
func (p *Pipeline) SetOrdering(ctx context.Context, ordering Ordering) error {
	p.mu.Lock()
	p.ordering = ordering
	p.mu.Unlock()
	return p.Reset(ctx)
}

// Configure replaces criteria and ordering together with a single refetch.
func (p *Pipeline) Configure(ctx context.Context, criteria Criteria, ordering Ordering) error {
	if err := criteria.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.criteria = criteria.Clone()
	p.ordering = ordering
	p.mu.Unlock()
	return p.Reset(ctx)
}

// Reset clears the accumulated results and fetches the first page under the
// current criteria. An in-flight request is cancelled and its response dropped.
func (p *Pipeline) Reset(ctx context.Context) error {
	_, err := p.load(ctx, true)
	return err
}

// LoadMore fetches the next page. It reports false without doing anything
// while another fetch is outstanding or once the list is exhausted.
func (p *Pipeline) LoadMore(ctx context.Context) (bool, error) {
	return p.load(ctx, false)
}

func (p *Pipeline) load(ctx context.Context, reset bool) (bool, error) {
	p.mu.Lock()
	if reset {
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		p.generation++
		p.results = nil
		p.next = ""
		p.loaded = false
		p.fetching = false
		p.err = nil
	}
	if p.fetching || (p.loaded && p.next == "") {
		p.mu.Unlock()
		return false, nil
	}
	endpoint := p.next
	var query url.Values
	if !p.loaded {
		endpoint = ""
		query = p.query()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	p.fetching = true
	p.cancel = cancel
	generation := p.generation
	p.mu.Unlock()
	defer cancel()

	page, err := p.fetcher.ListMovies(fetchCtx, endpoint, query)

	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation {
		p.logger.WithField("endpoint", endpoint).Debug("discarding stale movie page")
		return false, nil
	}
	p.fetching = false
	p.cancel = nil
	if err != nil {
		p.err = err
		return false, err
	}
	p.err = nil
	p.results = append(p.results, page.Results...)
	p.next = page.NextURL()
	p.loaded = true
	return true, nil
}

// NearEnd reports whether the rendered index is within threshold items of the
// end of the accumulated results, which is when the next page should load.
func (p *Pipeline) NearEnd(index, threshold int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.results) == 0 || p.fetching || (p.loaded && p.next == "") {
		return false
	}
	return index >= len(p.results)-1-threshold
}

func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]model.Movie, len(p.results))
	copy(results, p.results)
	return Snapshot{
		Results:   results,
		NextURL:   p.next,
		HasMore:   p.next != "",
		Fetching:  p.fetching,
		Exhausted: p.loaded && p.next == "",
		Err:       p.err,
		Criteria:  p.criteria.Clone(),
		Ordering:  p.ordering,
	}
}

func (p *Pipeline) query() url.Values {
	q := p.criteria.Query()
	if p.ordering != OrderDefault {
		q.Set("ordering", string(p.ordering))
	}
	return q
}
