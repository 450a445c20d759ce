package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"movienight-cli/listing"
	"movienight-cli/model"
	"movienight-cli/notify"
)

type movieItem struct {
	movie model.Movie
}

func (m movieItem) Title() string {
	if m.movie.Year > 0 {
		return fmt.Sprintf("%s (%d)", m.movie.Title, m.movie.Year)
	}
	return m.movie.Title
}

func (m movieItem) Description() string {
	var parts []string
	if len(m.movie.Genres) > 0 {
		parts = append(parts, strings.Join(m.movie.Genres, ", "))
	}
	if m.movie.RuntimeMinutes != nil && *m.movie.RuntimeMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", *m.movie.RuntimeMinutes))
	}
	if m.movie.IMDbRating > 0 {
		parts = append(parts, fmt.Sprintf("IMDb %.1f", m.movie.IMDbRating))
	}
	if m.movie.HasCountry() {
		parts = append(parts, m.movie.Country)
	}
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(strings.Join(append([]string{m.movie.Title}, m.movie.Genres...), " "))
}

type nightItem struct {
	night model.MovieNight
}

func (n nightItem) Title() string {
	return n.night.StartTime.Local().Format("Mon 02 Jan 2006 15:04")
}

func (n nightItem) Description() string {
	parts := []string{}
	if n.night.IsCreator {
		parts = append(parts, "Hosted by you")
	} else if n.night.Creator != "" {
		parts = append(parts, "Host: "+n.night.Creator)
	}
	parts = append(parts, fmt.Sprintf("%d going", len(n.night.Participants)))
	if pending := len(n.night.PendingInvitees); pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", pending))
	}
	return strings.Join(parts, " • ")
}

func (n nightItem) FilterValue() string {
	return strings.ToLower(n.Title() + " " + n.night.Creator)
}

type notificationItem struct {
	notification model.Notification
	group        string
}

func (n notificationItem) Title() string {
	marker := "  "
	if !n.notification.IsRead {
		marker = "● "
	}
	return marker + n.notification.Type.Label() + " — " + n.notification.Message
}

func (n notificationItem) Description() string {
	ts := n.notification.Timestamp.Local()
	if n.group == "Today" {
		return n.group + " • " + ts.Format("15:04")
	}
	return n.group + " • " + ts.Format("02 Jan 15:04")
}

func (n notificationItem) FilterValue() string {
	return strings.ToLower(n.notification.Message + " " + n.notification.Type.Label())
}

type genreItem struct {
	name     string
	selected bool
}

func (g genreItem) Title() string {
	if g.selected {
		return "[x] " + g.name
	}
	return "[ ] " + g.name
}

func (g genreItem) Description() string { return "" }

func (g genreItem) FilterValue() string { return strings.ToLower(g.name) }

func buildMovieItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, movie := range movies {
		items = append(items, movieItem{movie: movie})
	}
	return items
}

func buildNightItems(nights []model.MovieNight) []list.Item {
	items := make([]list.Item, 0, len(nights))
	for _, night := range nights {
		items = append(items, nightItem{night: night})
	}
	return items
}

func buildNotificationItems(notifications []model.Notification, now time.Time) []list.Item {
	var items []list.Item
	for _, group := range notify.GroupByDay(notifications, now) {
		for _, n := range group.Notifications {
			items = append(items, notificationItem{notification: n, group: group.Label})
		}
	}
	return items
}

func buildGenreItems(genres []model.Genre, criteria listing.Criteria) []list.Item {
	items := make([]list.Item, 0, len(genres))
	for _, genre := range genres {
		items = append(items, genreItem{name: genre.Name, selected: criteria.HasGenre(genre.Name)})
	}
	return items
}
