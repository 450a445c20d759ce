// Package movienight manages the lifecycle of one scheduled movie night:
// creation, rescheduling, invitations, responses and deletion.
package movienight

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"movienight-cli/model"
	"movienight-cli/service"
)

var (
	ErrAlreadyInvited = errors.New("You have already invited this person.")
	ErrNotCreator     = errors.New("only the creator can change this movie night")
	ErrCreator        = errors.New("the creator cannot respond to their own movie night")
	ErrNotLoaded      = errors.New("no movie night loaded")
)

// Client is the part of the API client the widget needs.
type Client interface {
	CreateMovieNight(ctx context.Context, night model.NewMovieNight) (model.MovieNight, error)
	GetMovieNight(ctx context.Context, id int) (model.MovieNight, error)
	UpdateMovieNightStart(ctx context.Context, id int, start time.Time) (model.MovieNight, error)
	DeleteMovieNight(ctx context.Context, id int) error
	Invite(ctx context.Context, movieNightID int, invitee string) (model.Invitation, error)
	RespondToInvitation(ctx context.Context, invitationID int, attending bool) (model.Invitation, error)
	ListMyMovieNights(ctx context.Context, query url.Values) (model.Page[model.MovieNight], error)
	ListMovieNightsForMovie(ctx context.Context, movieID int, query url.Values) (model.Page[model.MovieNight], error)
}

// Error carries the display message for a failed action.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// MineFilter narrows ListMine. Zero fields are omitted.
type MineFilter struct {
	StartFrom time.Time
	StartTo   time.Time
	// Ordering is a server key such as "start_time" or "-start_time".
	Ordering string
	Movie    int
}

func (f MineFilter) Query() url.Values {
	q := url.Values{}
	if !f.StartFrom.IsZero() {
		q.Set("start_from", f.StartFrom.Format(time.RFC3339))
	}
	if !f.StartTo.IsZero() {
		q.Set("start_to", f.StartTo.Format(time.RFC3339))
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	if f.Movie > 0 {
		q.Set("movie", fmt.Sprint(f.Movie))
	}
	return q
}

// Widget holds the movie night currently on screen. Local membership changes
// after a response are provisional until the next Load.
type Widget struct {
	client Client
	me     func() string

	mu    sync.RWMutex
	night *model.MovieNight
}

// NewWidget creates a widget; me returns the signed-in user's email.
func NewWidget(client Client, me func() string) *Widget {
	if me == nil {
		me = func() string { return "" }
	}
	return &Widget{client: client, me: me}
}

// Current returns a copy of the loaded movie night.
func (w *Widget) Current() (model.MovieNight, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.night == nil {
		return model.MovieNight{}, false
	}
	return cloneNight(*w.night), true
}

func (w *Widget) Create(ctx context.Context, movieID int, start time.Time, notifyBefore NotifyBefore) (model.MovieNight, error) {
	night, err := w.client.CreateMovieNight(ctx, model.NewMovieNight{
		Movie:                   movieID,
		StartTime:               start,
		StartNotificationBefore: notifyBefore.Seconds(),
	})
	if err != nil {
		return model.MovieNight{}, &Error{Message: service.Message(err, "Failed to create the movie night.", "start_time", "movie"), Err: err}
	}
	w.set(night)
	return night, nil
}

func (w *Widget) Load(ctx context.Context, id int) (model.MovieNight, error) {
	night, err := w.client.GetMovieNight(ctx, id)
	if err != nil {
		return model.MovieNight{}, &Error{Message: service.Message(err, "Failed to fetch movie night details."), Err: err}
	}
	w.set(night)
	return night, nil
}

// Update moves the movie night to start. Server validation messages for the
// start time are returned verbatim.
func (w *Widget) Update(ctx context.Context, start time.Time) (model.MovieNight, error) {
	night, err := w.creatorNight()
	if err != nil {
		return model.MovieNight{}, err
	}
	updated, err := w.client.UpdateMovieNightStart(ctx, night.ID, start)
	if err != nil {
		return model.MovieNight{}, &Error{Message: service.Message(err, "Failed to update start time.", "start_time"), Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.night != nil && w.night.ID == night.ID {
		w.night.StartTime = updated.StartTime
		if updated.StartNotificationBefore != "" {
			w.night.StartNotificationBefore = updated.StartNotificationBefore
		}
		return cloneNight(*w.night), nil
	}
	return updated, nil
}

// Invite sends an invitation. A repeated invitation yields ErrAlreadyInvited.
func (w *Widget) Invite(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &Error{Message: "Invitee email is required."}
	}
	night, err := w.creatorNight()
	if err != nil {
		return err
	}
	if _, err := w.client.Invite(ctx, night.ID, email); err != nil {
		var apiErr *service.APIError
		if errors.As(err, &apiErr) && apiErr.HasField("non_field_errors") {
			return ErrAlreadyInvited
		}
		return &Error{Message: service.Message(err, "Failed to send the invitation.", "invitee"), Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.night != nil && w.night.ID == night.ID && !contains(w.night.PendingInvitees, email) {
		w.night.PendingInvitees = append(w.night.PendingInvitees, email)
	}
	return nil
}

// Delete removes the movie night and returns the movie it belonged to.
func (w *Widget) Delete(ctx context.Context) (int, error) {
	night, err := w.creatorNight()
	if err != nil {
		return 0, err
	}
	if err := w.client.DeleteMovieNight(ctx, night.ID); err != nil {
		return 0, &Error{Message: service.Message(err, "Failed to delete movie night."), Err: err}
	}
	w.mu.Lock()
	w.night = nil
	w.mu.Unlock()
	return night.Movie, nil
}

// Respond records the signed-in invitee's decision and predicts the new
// membership locally: accepting moves them to participants, declining
// removes them from both lists. Repeating a response changes nothing.
func (w *Widget) Respond(ctx context.Context, invitationID int, attending bool) error {
	w.mu.RLock()
	night := w.night
	w.mu.RUnlock()
	if night == nil {
		return ErrNotLoaded
	}
	if night.IsCreator {
		return ErrCreator
	}
	if invitationID <= 0 {
		return &Error{Message: "Invitation not found."}
	}

	if _, err := w.client.RespondToInvitation(ctx, invitationID, attending); err != nil {
		return &Error{Message: service.Message(err, "Failed to send your response."), Err: err}
	}

	me := w.me()
	if me == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.night == nil || w.night.ID != night.ID {
		return nil
	}
	w.night.PendingInvitees = remove(w.night.PendingInvitees, me)
	if attending {
		if !contains(w.night.Participants, me) {
			w.night.Participants = append(w.night.Participants, me)
		}
	} else {
		w.night.Participants = remove(w.night.Participants, me)
	}
	return nil
}

// ListMine lists the movie nights created by the signed-in user.
func (w *Widget) ListMine(ctx context.Context, filter MineFilter) ([]model.MovieNight, error) {
	page, err := w.client.ListMyMovieNights(ctx, filter.Query())
	if err != nil {
		return nil, &Error{Message: service.Message(err, "Failed to fetch movie nights."), Err: err}
	}
	return page.Results, nil
}

// ListForMovie lists the signed-in user's movie nights for one movie.
func (w *Widget) ListForMovie(ctx context.Context, movieID int) ([]model.MovieNight, error) {
	query := url.Values{}
	query.Set("ordering", "start_time")
	page, err := w.client.ListMovieNightsForMovie(ctx, movieID, query)
	if err != nil {
		return nil, &Error{Message: service.Message(err, "Failed to fetch movie nights."), Err: err}
	}
	return page.Results, nil
}

// Countdown returns the time left until the loaded movie night starts,
// or zero once it has started.
func (w *Widget) Countdown(now time.Time) time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.night == nil {
		return 0
	}
	return Countdown(w.night.StartTime, now)
}

func Countdown(start, now time.Time) time.Duration {
	if left := start.Sub(now); left > 0 {
		return left
	}
	return 0
}

// FormatCountdown renders d as "2d 03h 04m 05s", dropping the day part when zero.
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "Started"
	}
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
}

func (w *Widget) set(night model.MovieNight) {
	w.mu.Lock()
	defer w.mu.Unlock()
	clone := cloneNight(night)
	w.night = &clone
}

func (w *Widget) creatorNight() (model.MovieNight, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.night == nil {
		return model.MovieNight{}, ErrNotLoaded
	}
	if !w.night.IsCreator {
		return model.MovieNight{}, ErrNotCreator
	}
	return *w.night, nil
}

func cloneNight(n model.MovieNight) model.MovieNight {
	n.Participants = append([]string(nil), n.Participants...)
	n.PendingInvitees = append([]string(nil), n.PendingInvitees...)
	return n
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func remove(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if !strings.EqualFold(v, value) {
			out = append(out, v)
		}
	}
	return out
}
