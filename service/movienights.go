package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"movienight-cli/model"
)

// ListMyMovieNights lists movie nights created by the signed-in user.
// Supported query keys: start_from, start_to, ordering, movie.
func (c *Client) ListMyMovieNights(ctx context.Context, query url.Values) (model.Page[model.MovieNight], error) {
	var page model.Page[model.MovieNight]
	if err := c.Get(ctx, apiPath("my-movie-nights/"), query, &page); err != nil {
		return model.Page[model.MovieNight]{}, err
	}
	return page, nil
}

// ListMovieNightsForMovie lists the signed-in user's movie nights for one movie.
func (c *Client) ListMovieNightsForMovie(ctx context.Context, movieID int, query url.Values) (model.Page[model.MovieNight], error) {
	if movieID <= 0 {
		return model.Page[model.MovieNight]{}, errors.New("movie id is required")
	}
	var page model.Page[model.MovieNight]
	if err := c.Get(ctx, apiPath("movies/%d/my-movie-nights/", movieID), query, &page); err != nil {
		return model.Page[model.MovieNight]{}, err
	}
	return page, nil
}

func (c *Client) CreateMovieNight(ctx context.Context, night model.NewMovieNight) (model.MovieNight, error) {
	if night.Movie <= 0 {
		return model.MovieNight{}, errors.New("movie id is required")
	}
	if night.StartTime.IsZero() {
		return model.MovieNight{}, errors.New("start time is required")
	}
	var created model.MovieNight
	if err := c.Post(ctx, apiPath("my-movie-nights/"), night, &created); err != nil {
		return model.MovieNight{}, err
	}
	return created, nil
}

func (c *Client) GetMovieNight(ctx context.Context, id int) (model.MovieNight, error) {
	if id <= 0 {
		return model.MovieNight{}, errors.New("movie night id is required")
	}
	var night model.MovieNight
	if err := c.Get(ctx, apiPath("movie-nights/%d/", id), nil, &night); err != nil {
		return model.MovieNight{}, err
	}
	return night, nil
}

// UpdateMovieNightStart moves a movie night to a new start time.
func (c *Client) UpdateMovieNightStart(ctx context.Context, id int, start time.Time) (model.MovieNight, error) {
	if id <= 0 {
		return model.MovieNight{}, errors.New("movie night id is required")
	}
	var night model.MovieNight
	body := map[string]time.Time{"start_time": start}
	if err := c.Patch(ctx, apiPath("movie-nights/%d/", id), body, &night); err != nil {
		return model.MovieNight{}, err
	}
	return night, nil
}

func (c *Client) DeleteMovieNight(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New("movie night id is required")
	}
	return c.Delete(ctx, apiPath("movie-nights/%d/", id))
}

// Invite sends a movie night invitation to the given email.
func (c *Client) Invite(ctx context.Context, movieNightID int, invitee string) (model.Invitation, error) {
	invitee = strings.TrimSpace(invitee)
	if movieNightID <= 0 || invitee == "" {
		return model.Invitation{}, errors.New("movie night id and invitee are required")
	}
	body := model.Invitation{Invitee: invitee, MovieNight: movieNightID}
	var invitation model.Invitation
	if err := c.Post(ctx, apiPath("movie-nights/%d/invite/", movieNightID), body, &invitation); err != nil {
		return model.Invitation{}, err
	}
	return invitation, nil
}

// RespondToInvitation records the invitee's attendance decision.
func (c *Client) RespondToInvitation(ctx context.Context, invitationID int, attending bool) (model.Invitation, error) {
	if invitationID <= 0 {
		return model.Invitation{}, errors.New("invitation id is required")
	}
	body := model.InvitationResponse{IsAttending: attending, AttendanceConfirmed: true}
	var invitation model.Invitation
	if err := c.Patch(ctx, apiPath("movienight-invitations/%d/", invitationID), body, &invitation); err != nil {
		return model.Invitation{}, err
	}
	return invitation, nil
}
