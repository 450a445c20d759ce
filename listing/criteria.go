package listing

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Criteria is the set of user-adjustable predicates applied to the movie
// collection. Zero values mean "unset" and are left out of the query.
type Criteria struct {
	Genres  map[string]struct{}
	Country string
	Title   string
	Year    int
	// YearFrom and YearTo bound the release year (published_from/published_to).
	YearFrom    int
	YearTo      int
	RuntimeFrom int
	RuntimeTo   int
	RatingFrom  *float64
}

// ToggleGenre adds the genre when absent and removes it when present.
func (c *Criteria) ToggleGenre(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if c.Genres == nil {
		c.Genres = map[string]struct{}{}
	}
	if _, ok := c.Genres[name]; ok {
		delete(c.Genres, name)
		return
	}
	c.Genres[name] = struct{}{}
}

func (c Criteria) HasGenre(name string) bool {
	_, ok := c.Genres[name]
	return ok
}

// GenreList returns the selected genres sorted by name.
func (c Criteria) GenreList() []string {
	genres := maps.Keys(c.Genres)
	sort.Strings(genres)
	return genres
}

func (c Criteria) Validate() error {
	if c.RatingFrom != nil && (*c.RatingFrom < 0 || *c.RatingFrom > 10) {
		return errors.New("rating must be between 0 and 10")
	}
	if c.Year < 0 || c.YearFrom < 0 || c.YearTo < 0 {
		return errors.New("year must be positive")
	}
	if c.YearFrom > 0 && c.YearTo > 0 && c.YearFrom > c.YearTo {
		return errors.New("year range is inverted")
	}
	if c.RuntimeFrom < 0 || c.RuntimeTo < 0 {
		return errors.New("runtime must be positive")
	}
	if c.RuntimeFrom > 0 && c.RuntimeTo > 0 && c.RuntimeFrom > c.RuntimeTo {
		return errors.New("runtime range is inverted")
	}
	return nil
}

// Query renders the criteria as movie list query parameters.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	if len(c.Genres) > 0 {
		q["genres"] = []string{strings.Join(c.GenreList(), ",")}
	}
	if v := strings.TrimSpace(c.Country); v != "" {
		q["country"] = []string{v}
	}
	if v := strings.TrimSpace(c.Title); v != "" {
		q["title"] = []string{v}
	}
	setInt(q, "year", c.Year)
	setInt(q, "published_from", c.YearFrom)
	setInt(q, "published_to", c.YearTo)
	setInt(q, "runtime_minutes_from", c.RuntimeFrom)
	setInt(q, "runtime_minutes_to", c.RuntimeTo)
	if c.RatingFrom != nil {
		q["imdb_rating_from"] = []string{strconv.FormatFloat(*c.RatingFrom, 'f', -1, 64)}
	}
	return q
}

func (c Criteria) Equal(other Criteria) bool {
	if len(c.Genres) != len(other.Genres) {
		return false
	}
	for g := range c.Genres {
		if _, ok := other.Genres[g]; !ok {
			return false
		}
	}
	if (c.RatingFrom == nil) != (other.RatingFrom == nil) {
		return false
	}
	if c.RatingFrom != nil && *c.RatingFrom != *other.RatingFrom {
		return false
	}
	return c.Country == other.Country &&
		c.Title == other.Title &&
		c.Year == other.Year &&
		c.YearFrom == other.YearFrom &&
		c.YearTo == other.YearTo &&
		c.RuntimeFrom == other.RuntimeFrom &&
		c.RuntimeTo == other.RuntimeTo
}

// Clone returns a copy that shares no state with c.
func (c Criteria) Clone() Criteria {
	out := c
	if c.Genres != nil {
		out.Genres = maps.Clone(c.Genres)
	}
	if c.RatingFrom != nil {
		rating := *c.RatingFrom
		out.RatingFrom = &rating
	}
	return out
}

func (c Criteria) IsZero() bool {
	return c.Equal(Criteria{})
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q[key] = []string{strconv.Itoa(v)}
	}
}
