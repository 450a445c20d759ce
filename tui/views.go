package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"movienight-cli/listing"
	"movienight-cli/model"
	"movienight-cli/movienight"
	"movienight-cli/notify"
)

func movieDetailView(movie model.Movie) string {
	title := labelStyle.Render(movieItem{movie: movie}.Title())
	lines := []string{title}
	if meta := (movieItem{movie: movie}).Description(); meta != "" {
		lines = append(lines, hint(meta))
	}
	if movie.HasPlot() {
		lines = append(lines, "", movie.Plot)
	}
	if movie.HasPoster() {
		lines = append(lines, "", hint("Poster: "+movie.PosterURL))
	}
	if movie.IMDbID != "" {
		lines = append(lines, hint("IMDb: https://www.imdb.com/title/"+movie.IMDbID+"/"))
	}
	return strings.Join(lines, "\n")
}

func nightDetailView(title string, night model.MovieNight, pending *notify.PendingInvitation, now time.Time) string {
	countdown := movienight.FormatCountdown(movienight.Countdown(night.StartTime, now))
	countdownStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))

	reminder := "No reminder"
	if d := night.NotifyBefore(); d > 0 {
		if option, ok := movienight.ForDuration(d); ok {
			reminder = option.Label()
		} else {
			reminder = d.String() + " before"
		}
	}
	if night.StartNotificationSent {
		reminder += " (sent)"
	}

	host := night.Creator
	if night.IsCreator {
		host = "you"
	}

	lines := []string{
		labelStyle.Render(title),
		"",
		fmt.Sprintf("Starts:    %s", night.StartTime.Local().Format("Mon 02 Jan 2006 15:04")),
		fmt.Sprintf("Countdown: %s", countdownStyle.Render(countdown)),
		fmt.Sprintf("Reminder:  %s", reminder),
		fmt.Sprintf("Host:      %s", host),
		"",
		labelStyle.Render(fmt.Sprintf("Going (%d)", len(night.Participants))),
	}
	lines = append(lines, bulletList(night.Participants, "Nobody has confirmed yet.")...)
	lines = append(lines, "", labelStyle.Render(fmt.Sprintf("Invited (%d)", len(night.PendingInvitees))))
	lines = append(lines, bulletList(night.PendingInvitees, "No pending invitations.")...)

	if !night.IsCreator && pending != nil {
		answer := "You have not answered yet."
		if pending.AttendanceConfirmed {
			answer = "You declined."
			if pending.IsAttending {
				answer = "You are going."
			}
		}
		lines = append(lines, "", labelStyle.Render("Your invitation"), answer)
	}
	return strings.Join(lines, "\n")
}

func bulletList(values []string, empty string) []string {
	if len(values) == 0 {
		return []string{hint("  " + empty)}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, "  • "+v)
	}
	return out
}

// criteriaSummary renders the active filters on one line, or "" when none are set.
func criteriaSummary(c listing.Criteria) string {
	var parts []string
	if genres := c.GenreList(); len(genres) > 0 {
		parts = append(parts, strings.Join(genres, "/"))
	}
	if c.Title != "" {
		parts = append(parts, fmt.Sprintf("title %q", c.Title))
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	if c.Year > 0 {
		parts = append(parts, strconv.Itoa(c.Year))
	}
	if r := rangeText(c.YearFrom, c.YearTo, ""); r != "" {
		parts = append(parts, "years "+r)
	}
	if r := rangeText(c.RuntimeFrom, c.RuntimeTo, " min"); r != "" {
		parts = append(parts, "runtime "+r)
	}
	if c.RatingFrom != nil {
		parts = append(parts, fmt.Sprintf("IMDb ≥ %.1f", *c.RatingFrom))
	}
	return strings.Join(parts, ", ")
}

func rangeText(from, to int, unit string) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d%s", from, to, unit)
	case from > 0:
		return fmt.Sprintf("≥ %d%s", from, unit)
	case to > 0:
		return fmt.Sprintf("≤ %d%s", to, unit)
	}
	return ""
}

// MovieDetail renders a movie the way the detail screen shows it.
func MovieDetail(movie model.Movie) string {
	return movieDetailView(movie)
}

// NightDetail renders a movie night for printing outside the interactive UI.
func NightDetail(night model.MovieNight, now time.Time) string {
	return nightDetailView(fmt.Sprintf("Movie night #%d", night.ID), night, nil, now)
}
