package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"movienight-cli/listing"
	"movienight-cli/model"
	"movienight-cli/notify"
	"movienight-cli/service"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

func newFilterModel(items []list.Item) *appModel {
	model := New(Deps{}).(appModel)
	model.state = stateMovies
	model.movieList = newList("Movies")
	model.movieList.SetItems(items)
	return &model
}

func TestNew_StartsAtLoginWithoutSession(t *testing.T) {
	m := New(Deps{}).(appModel)
	if m.state != stateLogin {
		t.Fatalf("expected login state, got %d", m.state)
	}
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Amelie"},
		testItem{value: "Alien"},
	})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "a" {
		t.Fatalf("expected filter value to be %q, got %q", "a", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "al" {
		t.Fatalf("expected filter value to be %q, got %q", "al", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Amelie"},
		testItem{value: "Alien"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.movieList.FilterValue(); got != "a" {
		t.Fatalf("expected filter value to be %q, got %q", "a", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Blade Runner"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}
	if got := m.movieList.FilterValue(); got != "bl " {
		t.Fatalf("expected filter value to be %q, got %q", "bl ", got)
	}
}

func TestHandleFilterInput_IgnoredOutsideLists(t *testing.T) {
	m := newFilterModel(nil)
	m.state = stateNightDetail
	if m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}) {
		t.Fatal("expected runes to reach the night detail shortcuts")
	}
}

func TestHandleKey_CycleOrderingStartsLoading(t *testing.T) {
	m := newFilterModel(nil)
	next, cmd, handled := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlO})
	if !handled || cmd == nil {
		t.Fatal("expected ctrl+o to be handled with a command")
	}
	got := next.(appModel)
	if got.state != stateLoading {
		t.Fatalf("expected loading state, got %d", got.state)
	}
	want := "Sorting by " + listing.OrderDefault.Next().Label()
	if got.loadingLabel != want {
		t.Fatalf("expected label %q, got %q", want, got.loadingLabel)
	}
}

func TestFail_AuthWithoutSessionShowsLogin(t *testing.T) {
	m := newFilterModel(nil)
	next, _ := m.fail(&service.APIError{StatusCode: 401, Status: "401 Unauthorized"}, nil)
	got := next.(appModel)
	if got.state != stateLogin {
		t.Fatalf("expected login state, got %d", got.state)
	}
	if got.login.message != sessionExpiredMessage {
		t.Fatalf("expected %q, got %q", sessionExpiredMessage, got.login.message)
	}
}

func TestErrMsg_ReturnsToStateBeforeLoading(t *testing.T) {
	m := newFilterModel(nil)
	m.startLoading("Loading movie", stateSearchResults)
	next, _ := m.Update(errMsg{err: service.ErrNotFound})
	got := next.(appModel)
	if got.state != stateError {
		t.Fatalf("expected error state, got %d", got.state)
	}
	next, _ = got.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if back := next.(appModel); back.state != stateSearchResults {
		t.Fatalf("expected to return to search results, got %d", back.state)
	}
}

func TestLoginErrorMessage_JoinsServerMessages(t *testing.T) {
	err := &service.APIError{
		StatusCode: 400,
		Fields: map[string]any{
			"email":    []any{"Enter a valid email address."},
			"password": []any{"This field may not be blank."},
		},
	}
	got := loginErrorMessage(err)
	want := "Enter a valid email address., This field may not be blank."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFilterFormBuild(t *testing.T) {
	form := newFilterForm(listing.Criteria{})
	form.criteria.ToggleGenre("Comedy")
	form.inputs[0].SetValue("France")
	form.inputs[2].SetValue("1999")
	form.inputs[7].SetValue("7.5")

	c, err := form.build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Country != "France" || c.Year != 1999 || !c.HasGenre("Comedy") {
		t.Fatalf("unexpected criteria %+v", c)
	}
	if c.RatingFrom == nil || *c.RatingFrom != 7.5 {
		t.Fatalf("expected rating 7.5, got %v", c.RatingFrom)
	}

	form.inputs[7].SetValue("11")
	if _, err := form.build(); err == nil {
		t.Fatal("expected out-of-range rating to be rejected")
	}

	form.inputs[7].SetValue("")
	form.inputs[5].SetValue("long")
	if _, err := form.build(); err == nil {
		t.Fatal("expected non-numeric runtime to be rejected")
	}
}

func TestNextNotificationType_Cycles(t *testing.T) {
	current := model.NotificationType("")
	seen := map[model.NotificationType]bool{}
	for range notificationTypes {
		current = nextNotificationType(current)
		seen[current] = true
	}
	if current != "" {
		t.Fatalf("expected cycle to return to all types, got %q", current)
	}
	if len(seen) != len(notificationTypes) {
		t.Fatalf("expected %d types, got %d", len(notificationTypes), len(seen))
	}
}

func TestCriteriaSummary(t *testing.T) {
	rating := 8.0
	c := listing.Criteria{YearFrom: 1990, YearTo: 1999, RatingFrom: &rating}
	c.ToggleGenre("Drama")
	got := criteriaSummary(c)
	want := "Drama, years 1990-1999, IMDb ≥ 8.0"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if criteriaSummary(listing.Criteria{}) != "" {
		t.Fatal("expected empty summary for empty criteria")
	}
}

func TestNightDetailView_ShowsInvitationAnswer(t *testing.T) {
	night := model.MovieNight{
		ID:                      3,
		StartTime:               time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC),
		Creator:                 "host@x.io",
		StartNotificationBefore: "01:00:00",
		Participants:            []string{"me@x.io"},
	}
	pending := &notify.PendingInvitation{InvitationID: 1, MovieNightID: 3, AttendanceConfirmed: true, IsAttending: true}
	view := nightDetailView("Alien", night, pending, time.Date(2029, 12, 31, 20, 0, 0, 0, time.UTC))
	for _, want := range []string{"Alien", "1 hour before", "You are going.", "me@x.io", "No pending invitations."} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q\n%s", want, view)
		}
	}
}

func TestBuildNotificationItems_MarksUnread(t *testing.T) {
	now := time.Date(2030, 1, 2, 12, 0, 0, 0, time.Local)
	items := buildNotificationItems([]model.Notification{
		{ID: 1, Type: model.NotificationInvite, Message: "join", Timestamp: now.Add(-time.Hour)},
		{ID: 2, Type: model.NotificationReminder, Message: "soon", IsRead: true, Timestamp: now.Add(-48 * time.Hour)},
	}, now)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(notificationItem)
	if !strings.HasPrefix(first.Title(), "● ") || first.group != "Today" {
		t.Fatalf("expected unread item from today, got %q in %q", first.Title(), first.group)
	}
	second := items[1].(notificationItem)
	if strings.HasPrefix(second.Title(), "● ") || second.group != "Earlier" {
		t.Fatalf("expected read item from earlier, got %q in %q", second.Title(), second.group)
	}
}
