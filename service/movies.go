package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"movienight-cli/model"
)

const maxGenrePages = 20

// MoviesURL is the first page of the movie collection.
func (c *Client) MoviesURL() string {
	return c.URL(apiPath("movies/"))
}

// ListMovies fetches one page of movies. An empty endpoint means the first
// page; otherwise endpoint is a server-provided cursor.
func (c *Client) ListMovies(ctx context.Context, endpoint string, query url.Values) (model.Page[model.Movie], error) {
	if endpoint == "" {
		endpoint = c.MoviesURL()
	}
	var page model.Page[model.Movie]
	if err := c.Get(ctx, endpoint, query, &page); err != nil {
		return model.Page[model.Movie]{}, err
	}
	return page, nil
}

// GetMovie fetches movie details.
func (c *Client) GetMovie(ctx context.Context, id int) (model.Movie, error) {
	if id <= 0 {
		return model.Movie{}, errors.New("movie id is required")
	}
	var movie model.Movie
	if err := c.Get(ctx, apiPath("movies/%d/", id), nil, &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

// SearchMovies submits a free-text query and returns its first result page.
func (c *Client) SearchMovies(ctx context.Context, term string) (model.Page[model.Movie], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return model.Page[model.Movie]{}, errors.New("search term is required")
	}
	var page model.Page[model.Movie]
	body := map[string]string{"term": term}
	if err := c.Post(ctx, apiPath("movies/search/"), body, &page); err != nil {
		return model.Page[model.Movie]{}, err
	}
	return page, nil
}

// MoviePage follows a next/previous link of a movie collection.
func (c *Client) MoviePage(ctx context.Context, link string) (model.Page[model.Movie], error) {
	if link == "" {
		return model.Page[model.Movie]{}, errors.New("page link is required")
	}
	return c.ListMovies(ctx, link, nil)
}

// ListGenres returns every available genre tag.
func (c *Client) ListGenres(ctx context.Context) ([]model.Genre, error) {
	endpoint := apiPath("genres/")
	var genres []model.Genre
	for i := 0; endpoint != "" && i < maxGenrePages; i++ {
		var page model.Page[model.Genre]
		if err := c.Get(ctx, endpoint, nil, &page); err != nil {
			return nil, err
		}
		genres = append(genres, page.Results...)
		endpoint = page.NextURL()
	}
	return genres, nil
}
