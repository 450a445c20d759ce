package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"movienight-cli/listing"
	"movienight-cli/model"
	"movienight-cli/movienight"
	"movienight-cli/notify"
	"movienight-cli/service"
	"movienight-cli/store"
)

type errMsg struct {
	err error
}

type loginMsg struct {
	session model.Session
	err     error
}

type refreshMsg struct {
	err   error
	retry tea.Cmd
}

// retriedMsg wraps the result of a command replayed after a token refresh,
// so a second auth failure goes to the login view instead of looping.
type retriedMsg struct {
	msg tea.Msg
}

type moviesMsg struct {
	err   error
	retry tea.Cmd
}

type genresMsg struct {
	genres []model.Genre
	err    error
}

type searchMsg struct {
	shown bool
	err   error
	retry tea.Cmd
}

type movieDetailMsg struct {
	movie  model.Movie
	nights []model.MovieNight
	err    error
	retry  tea.Cmd
}

type nightMsg struct {
	night model.MovieNight
	err   error
	retry tea.Cmd
}

type nightActionMsg struct {
	status string
	err    error
}

type nightDeletedMsg struct {
	movieID int
	err     error
}

type notificationsMsg struct {
	state notify.State
	err   error
	retry tea.Cmd
}

type destinationMsg struct {
	destination notify.Destination
}

type myNightsMsg struct {
	nights []model.MovieNight
	err    error
	retry  tea.Cmd
}

type pollTickMsg struct{}

type countdownTickMsg struct{}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func retried(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		return retriedMsg{msg: cmd()}
	}
}

func (m appModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		sess, err := m.session.Login(ctx, model.Credentials{Email: email, Password: password})
		return loginMsg{session: sess, err: err}
	}
}

func (m appModel) refreshSessionCmd(retry tea.Cmd) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		_, err := m.session.Refresh(ctx)
		return refreshMsg{err: err, retry: retry}
	}
}

func (m appModel) resetMoviesCmd() tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		return moviesMsg{err: m.listing.Reset(ctx), retry: cmd}
	}
	return cmd
}

func (m appModel) loadMoreMoviesCmd() tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		_, err := m.listing.LoadMore(ctx)
		return moviesMsg{err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) setCriteriaCmd(criteria listing.Criteria) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		return moviesMsg{err: m.listing.SetCriteria(ctx, criteria), retry: cmd}
	}
	return cmd
}

func (m appModel) setOrderingCmd(ordering listing.Ordering) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		return moviesMsg{err: m.listing.SetOrdering(ctx, ordering), retry: cmd}
	}
	return cmd
}

func (m appModel) fetchGenresCmd() tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadGenreCache(m.genreTTL); err == nil && fresh && len(cached) > 0 {
			return genresMsg{genres: cached}
		}
		ctx := context.Background()
		genres, err := m.client.ListGenres(ctx)
		if err == nil && len(genres) > 0 {
			if err := store.SaveGenreCache(genres); err != nil {
				m.logger.WithError(err).Warn("could not cache genres")
			}
		}
		return genresMsg{genres: genres, err: err}
	}
}

func (m appModel) openSearchCmd(deepLink string) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		shown, err := m.search.Open(ctx, deepLink)
		return searchMsg{shown: shown, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) submitSearchCmd(term string) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		err := m.search.Submit(ctx, term)
		return searchMsg{shown: err == nil, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) searchPageCmd(forward bool) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		var err error
		if forward {
			_, err = m.search.Next(ctx)
		} else {
			_, err = m.search.Previous(ctx)
		}
		return searchMsg{shown: true, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) fetchMovieDetailCmd(id int) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		movie, err := m.client.GetMovie(ctx, id)
		if err != nil {
			return movieDetailMsg{err: err, retry: cmd}
		}
		nights, err := m.widget.ListForMovie(ctx, id)
		if err != nil {
			return movieDetailMsg{err: err, retry: cmd}
		}
		return movieDetailMsg{movie: movie, nights: nights}
	}
	return cmd
}

func (m appModel) loadNightCmd(id int) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		night, err := m.widget.Load(ctx, id)
		return nightMsg{night: night, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) createNightCmd(movieID int, start time.Time, notifyBefore movienight.NotifyBefore) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		night, err := m.widget.Create(ctx, movieID, start, notifyBefore)
		return nightMsg{night: night, err: err}
	}
}

func (m appModel) updateNightCmd(start time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		night, err := m.widget.Update(ctx, start)
		if err != nil {
			return nightActionMsg{err: err}
		}
		return nightMsg{night: night}
	}
}

func (m appModel) inviteCmd(email string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.widget.Invite(ctx, email); err != nil {
			return nightActionMsg{err: err}
		}
		return nightActionMsg{status: "Invitation sent to " + email}
	}
}

func (m appModel) deleteNightCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		movieID, err := m.widget.Delete(ctx)
		return nightDeletedMsg{movieID: movieID, err: err}
	}
}

// respondCmd answers the invitation held in the slot and records the answer
// there, so the view can show it and the user can change their mind.
func (m appModel) respondCmd(pending notify.PendingInvitation, attending bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.widget.Respond(ctx, pending.InvitationID, attending); err != nil {
			return nightActionMsg{err: err}
		}
		pending.AttendanceConfirmed = true
		pending.IsAttending = attending
		m.poller.Slot().Save(pending)
		if attending {
			return nightActionMsg{status: "You are going."}
		}
		return nightActionMsg{status: "You declined the invitation."}
	}
}

func (m appModel) fetchMyNightsCmd() tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		nights, err := m.widget.ListMine(ctx, movienight.MineFilter{Ordering: "start_time"})
		return myNightsMsg{nights: nights, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) refreshNotificationsCmd() tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		state, err := m.poller.Refresh(ctx)
		return notificationsMsg{state: state, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) setNotificationFilterCmd(filter notify.Filter) tea.Cmd {
	var cmd tea.Cmd
	cmd = func() tea.Msg {
		ctx := context.Background()
		state, err := m.poller.SetFilter(ctx, filter)
		return notificationsMsg{state: state, err: err, retry: cmd}
	}
	return cmd
}

func (m appModel) openNotificationCmd(n model.Notification) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return destinationMsg{destination: m.poller.Open(ctx, n)}
	}
}

func (m appModel) markAllSeenCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.poller.MarkAllSeen(ctx); err != nil {
			return notificationsMsg{state: m.poller.State(), err: err}
		}
		return notificationsMsg{state: m.poller.State()}
	}
}

func (m appModel) pollTickCmd() tea.Cmd {
	return tea.Tick(m.poller.Interval(), func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func countdownTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{}
	})
}

// displayError turns err into the text shown to the user.
func displayError(err error) string {
	if err == nil {
		return ""
	}
	var widgetErr *movienight.Error
	if errors.As(err, &widgetErr) {
		return widgetErr.Message
	}
	if errors.Is(err, service.ErrNetwork) {
		return service.UnreachableMessage
	}
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		return service.Message(err, "Something went wrong. Please try again.")
	}
	return err.Error()
}
