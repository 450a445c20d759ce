package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"movienight-cli/listing"
	"movienight-cli/movienight"
)

const startTimeLayout = "2006-01-02 15:04"

type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	message  string
}

func newLoginForm() loginForm {
	email := newInput("you@example.com", "Email    ")
	password := newInput("password", "Password ")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	f := loginForm{email: email, password: password}
	f.email.Focus()
	return f
}

func (f *loginForm) next() tea.Cmd {
	f.focus = (f.focus + 1) % 2
	if f.focus == 0 {
		f.password.Blur()
		return f.email.Focus()
	}
	f.email.Blur()
	return f.password.Focus()
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f loginForm) view() string {
	lines := []string{
		f.email.View(),
		f.password.View(),
	}
	if f.message != "" {
		lines = append(lines, "", errorStyle.Render(f.message))
	}
	return strings.Join(lines, "\n")
}

// filterForm edits listing criteria. Focus 0 is the genre list; the rest are
// the text inputs in filterFields order.
type filterForm struct {
	inputs   []textinput.Model
	focus    int
	criteria listing.Criteria
	message  string
}

var filterFields = []string{"Country", "Title", "Year", "Year from", "Year to", "Runtime from", "Runtime to", "Min rating"}

func newFilterForm(criteria listing.Criteria) filterForm {
	f := filterForm{criteria: criteria.Clone()}
	values := []string{
		criteria.Country,
		criteria.Title,
		intText(criteria.Year),
		intText(criteria.YearFrom),
		intText(criteria.YearTo),
		intText(criteria.RuntimeFrom),
		intText(criteria.RuntimeTo),
		"",
	}
	if criteria.RatingFrom != nil {
		values[7] = strconv.FormatFloat(*criteria.RatingFrom, 'f', -1, 64)
	}
	for i, label := range filterFields {
		input := newInput("any", fmt.Sprintf("%-13s", label))
		input.SetValue(values[i])
		f.inputs = append(f.inputs, input)
	}
	return f
}

func (f *filterForm) move(delta int) tea.Cmd {
	total := len(f.inputs) + 1
	f.focus = (f.focus + delta + total) % total
	var cmd tea.Cmd
	for i := range f.inputs {
		if i+1 == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	if f.focus == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus-1], cmd = f.inputs[f.focus-1].Update(msg)
	return cmd
}

// build turns the form back into criteria, keeping the toggled genres.
func (f filterForm) build() (listing.Criteria, error) {
	c := listing.Criteria{Genres: f.criteria.Clone().Genres}
	c.Country = strings.TrimSpace(f.inputs[0].Value())
	c.Title = strings.TrimSpace(f.inputs[1].Value())

	ints := []*int{&c.Year, &c.YearFrom, &c.YearTo, &c.RuntimeFrom, &c.RuntimeTo}
	for i, target := range ints {
		raw := strings.TrimSpace(f.inputs[i+2].Value())
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return listing.Criteria{}, fmt.Errorf("%s must be a whole number", filterFields[i+2])
		}
		*target = v
	}
	if raw := strings.TrimSpace(f.inputs[7].Value()); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return listing.Criteria{}, errors.New("Min rating must be a number")
		}
		c.RatingFrom = &rating
	}
	if err := c.Validate(); err != nil {
		return listing.Criteria{}, err
	}
	return c, nil
}

func (f filterForm) view(genres string) string {
	lines := []string{genres, ""}
	for _, input := range f.inputs {
		lines = append(lines, input.View())
	}
	if f.message != "" {
		lines = append(lines, "", errorStyle.Render(f.message))
	}
	return strings.Join(lines, "\n")
}

type createNightForm struct {
	start   textinput.Model
	notify  int
	message string
}

func newCreateNightForm(now time.Time) createNightForm {
	start := newInput(startTimeLayout, "Starts at ")
	start.SetValue(now.Add(24 * time.Hour).Truncate(time.Hour).Format(startTimeLayout))
	start.Focus()
	return createNightForm{start: start}
}

func (f *createNightForm) cycle(delta int) {
	options := movienight.NotifyBeforeOptions()
	f.notify = (f.notify + delta + len(options)) % len(options)
}

func (f createNightForm) notifyBefore() movienight.NotifyBefore {
	return movienight.NotifyBeforeOptions()[f.notify]
}

func (f createNightForm) view() string {
	lines := []string{
		f.start.View(),
		fmt.Sprintf("Reminder  ‹ %s ›", f.notifyBefore().Label()),
	}
	if f.message != "" {
		lines = append(lines, "", errorStyle.Render(f.message))
	}
	return strings.Join(lines, "\n")
}

func parseStartTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(startTimeLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("use the format %s", startTimeLayout)
	}
	return t, nil
}

func newInput(placeholder, prompt string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = prompt
	input.CharLimit = 254
	return input
}

func intText(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
