package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"movienight-cli/listing"
	"movienight-cli/model"
	"movienight-cli/movienight"
	"movienight-cli/notify"
	"movienight-cli/search"
	"movienight-cli/service"
	"movienight-cli/session"
)

const (
	sessionExpiredMessage = "Your session has expired. Please log in again."
	loadMoreThreshold     = 5
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

var notificationTypes = []model.NotificationType{
	"",
	model.NotificationInvite,
	model.NotificationReminder,
	model.NotificationResponse,
	model.NotificationUpdate,
	model.NotificationCancellation,
}

type appState int

const (
	stateLogin appState = iota
	stateLoading
	stateMovies
	stateFilters
	stateInput
	stateSearchResults
	stateMovieDetail
	stateCreateNight
	stateNightDetail
	stateConfirmDelete
	stateNotifications
	stateMyNights
	stateError
)

type inputAction int

const (
	inputSearch inputAction = iota
	inputInvite
	inputUpdateStart
)

// Deps are the components the TUI drives. Nil fields get defaults built on
// Client.
type Deps struct {
	Client   *service.Client
	Session  *session.Store
	Listing  *listing.Pipeline
	Search   *search.Pipeline
	Poller   *notify.Poller
	Widget   *movienight.Widget
	GenreTTL time.Duration
	// DeepLink is a search term to open once the user is signed in.
	DeepLink string
	Logger   *logrus.Logger
}

type appModel struct {
	client  *service.Client
	session *session.Store
	listing *listing.Pipeline
	search  *search.Pipeline
	poller  *notify.Poller
	widget  *movienight.Widget
	logger  *logrus.Logger

	genreTTL time.Duration
	deepLink string

	state         appState
	lastState     appState
	loadingLabel  string
	loadingReturn appState
	err           error
	status        string
	afterRefresh  bool

	width  int
	height int

	movieList        list.Model
	searchList       list.Model
	movieNightList   list.Model
	nightList        list.Model
	notificationList list.Model
	genreList        list.Model
	detail           viewport.Model

	genres       []model.Genre
	movie        model.Movie
	detailReturn appState
	nightReturn  appState

	login        loginForm
	filters      filterForm
	create       createNightForm
	input        textinput.Model
	inputAction  inputAction
	inputMessage string

	unread  int
	polling bool
	ticking bool

	spinner spinner.Model
	initCmd tea.Cmd
}

func New(deps Deps) tea.Model {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Client == nil {
		deps.Client = service.NewClient(nil, "")
		deps.Client.SetLogger(deps.Logger)
	}
	if deps.Session == nil {
		deps.Session = session.New(deps.Client, nil, deps.Logger)
	}
	if deps.Listing == nil {
		deps.Listing = listing.NewPipeline(deps.Client, deps.Logger)
	}
	if deps.Search == nil {
		deps.Search = search.NewPipeline(deps.Client, nil, deps.Logger)
	}
	if deps.Poller == nil {
		deps.Poller = notify.NewPoller(deps.Client, 0, nil, deps.Logger)
	}
	if deps.Widget == nil {
		sess := deps.Session
		deps.Widget = movienight.NewWidget(deps.Client, func() string {
			if user := sess.Current().User; user != nil {
				return user.Email
			}
			return ""
		})
	}
	if deps.GenreTTL <= 0 {
		deps.GenreTTL = 24 * time.Hour
	}

	m := appModel{
		client:   deps.Client,
		session:  deps.Session,
		listing:  deps.Listing,
		search:   deps.Search,
		poller:   deps.Poller,
		widget:   deps.Widget,
		logger:   deps.Logger,
		genreTTL: deps.GenreTTL,
		deepLink: strings.TrimSpace(deps.DeepLink),
		state:    stateLogin,
	}

	m.movieList = newList("Movies")
	m.searchList = newList("Search")
	m.movieNightList = newList("Your movie nights")
	m.nightList = newList("My movie nights")
	m.notificationList = newList("Notifications")
	m.genreList = newList("Genres")
	m.genreList.SetFilteringEnabled(false)
	m.genreList.SetShowFilter(false)
	m.detail = viewport.New(0, 0)

	m.login = newLoginForm()
	m.input = newInput("", "> ")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	m.initCmd = textinput.Blink
	if m.session.IsAuthenticated() {
		m.startLoading("Loading movies", stateMovies)
		m.initCmd = m.signedInCmd()
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	return m.initCmd
}

// signedInCmd starts everything that needs a session: the first page of
// movies, the genre list, notification polling and a pending deep link.
func (m *appModel) signedInCmd() tea.Cmd {
	cmds := []tea.Cmd{m.resetMoviesCmd(), m.fetchGenresCmd(), m.spinner.Tick}
	if poll := m.startPolling(); poll != nil {
		cmds = append(cmds, poll)
	}
	if m.deepLink != "" {
		term := m.deepLink
		m.deepLink = ""
		m.detailReturn = stateSearchResults
		cmds = append(cmds, m.openSearchCmd(term))
	}
	return tea.Batch(cmds...)
}

func (m *appModel) startPolling() tea.Cmd {
	if m.polling {
		return nil
	}
	m.polling = true
	return tea.Batch(m.refreshNotificationsCmd(), m.pollTickCmd())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		if m.handleFilterInput(msg) {
			return m, m.maybeLoadMore()
		}
		var handled bool
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == stateLoading {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.lastState = m.recoverState()
		m.state = stateError
		return m, nil

	case retriedMsg:
		m.afterRefresh = true
		next, cmd := m.Update(msg.msg)
		if nm, ok := next.(appModel); ok {
			nm.afterRefresh = false
			return nm, cmd
		}
		return next, cmd

	case refreshMsg:
		if msg.err != nil {
			return m.expire()
		}
		return m, retried(msg.retry)

	case loginMsg:
		if msg.err != nil {
			m.login.message = loginErrorMessage(msg.err)
			return m, nil
		}
		m.login = newLoginForm()
		m.startLoading("Loading movies", stateMovies)
		cmd := m.signedInCmd()
		return m, cmd

	case moviesMsg:
		m.syncMovies()
		if msg.err != nil {
			if service.IsCanceled(msg.err) {
				return m, nil
			}
			if m.state == stateLoading || errors.Is(msg.err, service.ErrAuth) {
				return m.fail(msg.err, msg.retry)
			}
			m.status = displayError(msg.err)
			return m, nil
		}
		if m.state == stateLoading && m.loadingReturn == stateMovies {
			m.state = stateMovies
		}
		return m, nil

	case genresMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("could not load genres")
			return m, nil
		}
		m.genres = msg.genres
		return m, nil

	case searchMsg:
		if msg.err != nil {
			if service.IsCanceled(msg.err) {
				return m, nil
			}
			if errors.Is(msg.err, service.ErrAuth) {
				return m.fail(msg.err, msg.retry)
			}
			m.syncSearch()
			if m.state == stateLoading {
				m.state = stateSearchResults
			}
			m.status = displayError(msg.err)
			return m, nil
		}
		if !msg.shown {
			cmd := m.openInput(inputSearch, "")
			return m, cmd
		}
		m.syncSearch()
		m.state = stateSearchResults
		return m, nil

	case movieDetailMsg:
		if msg.err != nil {
			return m.fail(msg.err, msg.retry)
		}
		m.movie = msg.movie
		m.movieNightList.Title = "Your movie nights • " + msg.movie.Title
		m.movieNightList.SetItems(buildNightItems(msg.nights))
		m.state = stateMovieDetail
		return m, nil

	case nightMsg:
		if msg.err != nil {
			if m.state == stateCreateNight && !errors.Is(msg.err, service.ErrAuth) {
				m.create.message = displayError(msg.err)
				return m, nil
			}
			return m.fail(msg.err, msg.retry)
		}
		m.state = stateNightDetail
		m.refreshNightView()
		if !m.ticking {
			m.ticking = true
			return m, countdownTickCmd()
		}
		return m, nil

	case nightActionMsg:
		if msg.err != nil {
			if errors.Is(msg.err, service.ErrAuth) {
				return m.fail(msg.err, nil)
			}
			m.status = displayError(msg.err)
		} else {
			m.status = msg.status
		}
		if m.state == stateLoading {
			m.state = stateNightDetail
		}
		m.refreshNightView()
		return m, nil

	case nightDeletedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, service.ErrAuth) {
				return m.fail(msg.err, nil)
			}
			m.status = displayError(msg.err)
			m.state = stateNightDetail
			return m, nil
		}
		m.status = "Movie night deleted."
		m.detailReturn = stateMovies
		m.startLoading("Loading movie", stateMovies)
		return m, tea.Batch(m.fetchMovieDetailCmd(msg.movieID), m.spinner.Tick)

	case myNightsMsg:
		if msg.err != nil {
			return m.fail(msg.err, msg.retry)
		}
		m.nightList.SetItems(buildNightItems(msg.nights))
		m.state = stateMyNights
		return m, nil

	case notificationsMsg:
		m.applyNotifications(msg.state)
		if msg.err != nil {
			if service.IsCanceled(msg.err) {
				return m, nil
			}
			if errors.Is(msg.err, service.ErrAuth) {
				return m.fail(msg.err, msg.retry)
			}
			if m.state == stateNotifications {
				m.status = displayError(msg.err)
			} else {
				m.logger.WithError(msg.err).Warn("notification refresh failed")
			}
		}
		return m, nil

	case destinationMsg:
		m.applyNotifications(m.poller.State())
		switch msg.destination.Kind {
		case notify.DestinationMovieNight:
			m.nightReturn = stateNotifications
			m.startLoading("Loading movie night", stateNotifications)
			return m, tea.Batch(m.loadNightCmd(msg.destination.MovieNightID), m.spinner.Tick)
		default:
			m.status = msg.destination.Message
			return m, nil
		}

	case pollTickMsg:
		if !m.session.IsAuthenticated() {
			m.polling = false
			return m, nil
		}
		return m, tea.Batch(m.refreshNotificationsCmd(), m.pollTickCmd())

	case countdownTickMsg:
		if m.state != stateNightDetail && m.state != stateConfirmDelete && m.state != stateInput {
			m.ticking = false
			return m, nil
		}
		if m.state == stateNightDetail {
			m.refreshNightView()
		}
		return m, countdownTickCmd()
	}

	var cmd tea.Cmd
	switch m.state {
	case stateLogin:
		cmd = m.login.update(msg)
	case stateFilters:
		if m.filters.focus == 0 {
			m.genreList, cmd = m.genreList.Update(msg)
		} else {
			cmd = m.filters.update(msg)
		}
	case stateInput:
		m.input, cmd = m.input.Update(msg)
	case stateCreateNight:
		m.create.start, cmd = m.create.start.Update(msg)
	case stateMovies:
		m.movieList, cmd = m.movieList.Update(msg)
		if more := m.maybeLoadMore(); more != nil {
			return m, tea.Batch(cmd, more)
		}
	case stateSearchResults:
		m.searchList, cmd = m.searchList.Update(msg)
	case stateMovieDetail:
		m.movieNightList, cmd = m.movieNightList.Update(msg)
	case stateMyNights:
		m.nightList, cmd = m.nightList.Update(msg)
	case stateNotifications:
		m.notificationList, cmd = m.notificationList.Update(msg)
	case stateNightDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLogin:
		return header + "\n\n" + labelStyle.Render("Log in") + "\n\n" + m.login.view()
	case stateLoading:
		return header + "\n\n" + m.loadingView()
	case stateMovies:
		return header + "\n\n" + m.movieList.View() + m.listingFooter()
	case stateFilters:
		return header + "\n\n" + m.filters.view(m.genreList.View())
	case stateInput:
		return header + "\n\n" + m.inputView()
	case stateSearchResults:
		return header + "\n\n" + m.searchList.View()
	case stateMovieDetail:
		return header + "\n\n" + movieDetailView(m.movie) + "\n\n" + m.movieNightList.View()
	case stateCreateNight:
		return header + "\n\n" + labelStyle.Render("New movie night • "+m.movie.Title) + "\n\n" + m.create.view()
	case stateNightDetail:
		return header + "\n\n" + m.detail.View()
	case stateConfirmDelete:
		return header + "\n\n" + errorStyle.Render("Delete this movie night?") + "\n\n" + hint("y confirm • n/esc cancel")
	case stateNotifications:
		return header + "\n\n" + m.notificationList.View()
	case stateMyNights:
		return header + "\n\n" + m.nightList.View()
	case stateError:
		return header + "\n\n" + errorStyle.Render(displayError(m.err)) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Movie Night")
	sub := []string{}
	if user := m.session.Current().User; user != nil {
		sub = append(sub, user.Email)
	}
	if m.session.IsAuthenticated() {
		sub = append(sub, fmt.Sprintf("Notifications: %d unread", m.unread))
	}
	switch m.state {
	case stateMovies, stateFilters:
		snap := m.listing.Snapshot()
		sub = append(sub, "Sort: "+snap.Ordering.Label())
		if summary := criteriaSummary(snap.Criteria); summary != "" {
			sub = append(sub, "Filters: "+summary)
		}
	case stateSearchResults:
		if term := m.search.Snapshot().Term; term != "" {
			sub = append(sub, fmt.Sprintf("Search: %q", term))
		}
	case stateNotifications:
		filter := m.poller.State().Filter
		sub = append(sub, "Show: "+filter.Read.Label())
		if filter.Type != "" {
			sub = append(sub, "Type: "+filter.Type.Label())
		}
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit • esc back"
	switch m.state {
	case stateLogin:
		hints = "ctrl+c quit • tab next field • enter log in"
	case stateMovies:
		hints = "ctrl+c quit • type to filter • enter open • ctrl+f filters • ctrl+o sort • ctrl+s search • ctrl+n notifications • ctrl+e my nights • ctrl+r reload • ctrl+x log out"
	case stateFilters:
		hints = "esc cancel • tab next field • space toggle genre • enter apply • ctrl+l clear"
	case stateInput:
		hints = "esc cancel • enter submit"
		if m.inputAction == inputSearch {
			hints = "esc cancel • tab complete recent • enter search"
		}
	case stateSearchResults:
		hints = "ctrl+c quit • esc back • type to filter • enter open • tab next page • shift+tab previous page • ctrl+s new search"
	case stateMovieDetail:
		hints = "ctrl+c quit • esc back • enter open night • ctrl+a new movie night"
	case stateCreateNight:
		hints = "esc cancel • left/right reminder • enter create"
	case stateNightDetail:
		hints = m.nightHints()
	case stateNotifications:
		hints = "ctrl+c quit • esc back • type to filter • enter open • ctrl+u read filter • ctrl+t type • ctrl+a mark all seen • ctrl+r refresh"
	case stateMyNights:
		hints = "ctrl+c quit • esc back • type to filter • enter open • ctrl+r refresh"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	statusLine := ""
	if m.status != "" {
		statusLine = "\n" + statusStyle.Render(m.status)
	}
	return title + meta + filterLine + statusLine + "\n" + hint(hints)
}

func (m appModel) nightHints() string {
	night, ok := m.widget.Current()
	if !ok {
		return "ctrl+c quit • esc back"
	}
	if night.IsCreator {
		return "q quit • esc back • r reload • u change start • i invite • d delete"
	}
	if _, ok := m.poller.Slot().Peek(night.ID); ok {
		return "q quit • esc back • r reload • a accept • x decline"
	}
	return "q quit • esc back • r reload"
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return m, tea.Quit, true
	case "q":
		if m.state == stateNightDetail || m.state == stateError {
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		model, cmd := m.goBack()
		return model, cmd, true
	}

	switch m.state {
	case stateLogin:
		return m.handleLoginKey(msg)
	case stateFilters:
		return m.handleFiltersKey(msg)
	case stateInput:
		return m.handleInputKey(msg)
	case stateCreateNight:
		return m.handleCreateKey(msg)
	case stateNightDetail:
		return m.handleNightKey(msg)
	case stateConfirmDelete:
		switch key {
		case "y", "Y":
			m.startLoading("Deleting movie night", stateNightDetail)
			return m, tea.Batch(m.deleteNightCmd(), m.spinner.Tick), true
		case "n", "N":
			m.state = stateNightDetail
			return m, nil, true
		}
		return m, nil, true
	case stateMovies:
		if handled, model, cmd := m.handleGlobalKey(key); handled {
			return model, cmd, true
		}
		switch key {
		case "ctrl+f":
			m.filters = newFilterForm(m.listing.Snapshot().Criteria)
			m.genreList.SetItems(buildGenreItems(m.genres, m.filters.criteria))
			m.genreList.Select(0)
			m.state = stateFilters
			return m, nil, true
		case "ctrl+o":
			next := m.listing.Snapshot().Ordering.Next()
			m.startLoading("Sorting by "+next.Label(), stateMovies)
			return m, tea.Batch(m.setOrderingCmd(next), m.spinner.Tick), true
		case "ctrl+r":
			m.startLoading("Loading movies", stateMovies)
			return m, tea.Batch(m.resetMoviesCmd(), m.spinner.Tick), true
		case "enter":
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			return m.openMovie(item.movie.ID, stateMovies)
		}
	case stateSearchResults:
		if handled, model, cmd := m.handleGlobalKey(key); handled {
			return model, cmd, true
		}
		switch key {
		case "tab":
			if !m.search.Snapshot().HasNext() {
				m.status = "This is the last page."
				return m, nil, true
			}
			return m, m.searchPageCmd(true), true
		case "shift+tab":
			if !m.search.Snapshot().HasPrevious() {
				m.status = "This is the first page."
				return m, nil, true
			}
			return m, m.searchPageCmd(false), true
		case "enter":
			item, ok := m.searchList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			return m.openMovie(item.movie.ID, stateSearchResults)
		}
	case stateMovieDetail:
		switch key {
		case "ctrl+a":
			m.create = newCreateNightForm(time.Now())
			m.state = stateCreateNight
			return m, textinput.Blink, true
		case "enter":
			item, ok := m.movieNightList.SelectedItem().(nightItem)
			if !ok {
				return m, nil, true
			}
			return m.openNight(item.night.ID, stateMovieDetail)
		}
	case stateMyNights:
		switch key {
		case "ctrl+r":
			m.startLoading("Loading movie nights", stateMyNights)
			return m, tea.Batch(m.fetchMyNightsCmd(), m.spinner.Tick), true
		case "enter":
			item, ok := m.nightList.SelectedItem().(nightItem)
			if !ok {
				return m, nil, true
			}
			return m.openNight(item.night.ID, stateMyNights)
		}
	case stateNotifications:
		filter := m.poller.State().Filter
		switch key {
		case "ctrl+r":
			return m, m.refreshNotificationsCmd(), true
		case "ctrl+u":
			filter.Read = (filter.Read + 1) % 3
			return m, m.setNotificationFilterCmd(filter), true
		case "ctrl+t":
			filter.Type = nextNotificationType(filter.Type)
			return m, m.setNotificationFilterCmd(filter), true
		case "ctrl+a":
			return m, m.markAllSeenCmd(), true
		case "enter":
			item, ok := m.notificationList.SelectedItem().(notificationItem)
			if !ok {
				return m, nil, true
			}
			return m, m.openNotificationCmd(item.notification), true
		}
	}
	return m, nil, false
}

// handleGlobalKey covers the shortcuts shared by the movie and search lists.
func (m appModel) handleGlobalKey(key string) (bool, tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+s":
		cmd := m.openInput(inputSearch, "")
		return true, m, cmd
	case "ctrl+n":
		m.state = stateNotifications
		m.applyNotifications(m.poller.State())
		return true, m, m.refreshNotificationsCmd()
	case "ctrl+e":
		m.startLoading("Loading movie nights", m.state)
		return true, m, tea.Batch(m.fetchMyNightsCmd(), m.spinner.Tick)
	case "ctrl+x":
		m.session.Logout()
		m.login = newLoginForm()
		m.state = stateLogin
		return true, m, textinput.Blink
	}
	return false, m, nil
}

func (m appModel) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab", "down", "up":
		cmd := m.login.next()
		return m, cmd, true
	case "enter":
		if m.login.focus == 0 {
			cmd := m.login.next()
			return m, cmd, true
		}
		email := strings.TrimSpace(m.login.email.Value())
		password := m.login.password.Value()
		if email == "" || password == "" {
			m.login.message = "Email and password are required."
			return m, nil, true
		}
		m.login.message = ""
		return m, m.loginCmd(email, password), true
	}
	return m, nil, false
}

func (m appModel) handleFiltersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab":
		cmd := m.filters.move(1)
		return m, cmd, true
	case "shift+tab":
		cmd := m.filters.move(-1)
		return m, cmd, true
	case " ":
		if m.filters.focus != 0 {
			return m, nil, false
		}
		item, ok := m.genreList.SelectedItem().(genreItem)
		if !ok {
			return m, nil, true
		}
		m.filters.criteria.ToggleGenre(item.name)
		index := m.genreList.Index()
		m.genreList.SetItems(buildGenreItems(m.genres, m.filters.criteria))
		m.genreList.Select(index)
		return m, nil, true
	case "ctrl+l":
		m.filters = newFilterForm(listing.Criteria{})
		m.genreList.SetItems(buildGenreItems(m.genres, m.filters.criteria))
		return m, nil, true
	case "enter":
		criteria, err := m.filters.build()
		if err != nil {
			m.filters.message = err.Error()
			return m, nil, true
		}
		if criteria.Equal(m.listing.Snapshot().Criteria) {
			m.state = stateMovies
			return m, nil, true
		}
		m.startLoading("Applying filters", stateMovies)
		return m, tea.Batch(m.setCriteriaCmd(criteria), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m appModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() != "enter" {
		return m, nil, false
	}
	value := strings.TrimSpace(m.input.Value())
	switch m.inputAction {
	case inputSearch:
		if value == "" {
			m.inputMessage = "Type something to search for."
			return m, nil, true
		}
		m.detailReturn = stateSearchResults
		m.startLoading("Searching", stateMovies)
		return m, tea.Batch(m.submitSearchCmd(value), m.spinner.Tick), true
	case inputInvite:
		if value == "" {
			m.inputMessage = "Invitee email is required."
			return m, nil, true
		}
		if err := session.ValidateEmail(value); err != nil {
			m.inputMessage = err.Error()
			return m, nil, true
		}
		m.state = stateNightDetail
		m.status = "Sending invitation..."
		return m, m.inviteCmd(value), true
	case inputUpdateStart:
		start, err := parseStartTime(value)
		if err != nil {
			m.inputMessage = err.Error()
			return m, nil, true
		}
		m.startLoading("Updating movie night", stateNightDetail)
		return m, tea.Batch(m.updateNightCmd(start), m.spinner.Tick), true
	}
	return m, nil, true
}

func (m appModel) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "left":
		m.create.cycle(-1)
		return m, nil, true
	case "right":
		m.create.cycle(1)
		return m, nil, true
	case "enter":
		start, err := parseStartTime(m.create.start.Value())
		if err != nil {
			m.create.message = err.Error()
			return m, nil, true
		}
		if !start.After(time.Now()) {
			m.create.message = "The start time must be in the future."
			return m, nil, true
		}
		m.create.message = ""
		m.nightReturn = stateMovieDetail
		return m, m.createNightCmd(m.movie.ID, start, m.create.notifyBefore()), true
	}
	return m, nil, false
}

func (m appModel) handleNightKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	night, ok := m.widget.Current()
	if !ok {
		return m, nil, false
	}
	switch msg.String() {
	case "r":
		m.startLoading("Loading movie night", stateNightDetail)
		return m, tea.Batch(m.loadNightCmd(night.ID), m.spinner.Tick), true
	case "u":
		if !night.IsCreator {
			m.status = movienight.ErrNotCreator.Error()
			return m, nil, true
		}
		cmd := m.openInput(inputUpdateStart, night.StartTime.Local().Format(startTimeLayout))
		return m, cmd, true
	case "i":
		if !night.IsCreator {
			m.status = movienight.ErrNotCreator.Error()
			return m, nil, true
		}
		cmd := m.openInput(inputInvite, "")
		return m, cmd, true
	case "d":
		if !night.IsCreator {
			m.status = movienight.ErrNotCreator.Error()
			return m, nil, true
		}
		m.state = stateConfirmDelete
		return m, nil, true
	case "a", "x":
		if night.IsCreator {
			m.status = movienight.ErrCreator.Error()
			return m, nil, true
		}
		pending, ok := m.poller.Slot().Peek(night.ID)
		if !ok {
			m.status = "Open the invitation from your notifications to respond."
			return m, nil, true
		}
		m.status = "Sending your response..."
		return m, m.respondCmd(pending, msg.String() == "a"), true
	}
	return m, nil, false
}

func (m appModel) openMovie(id int, from appState) (tea.Model, tea.Cmd, bool) {
	m.detailReturn = from
	m.startLoading("Loading movie", from)
	return m, tea.Batch(m.fetchMovieDetailCmd(id), m.spinner.Tick), true
}

func (m appModel) openNight(id int, from appState) (tea.Model, tea.Cmd, bool) {
	m.nightReturn = from
	m.startLoading("Loading movie night", from)
	return m, tea.Batch(m.loadNightCmd(id), m.spinner.Tick), true
}

func (m *appModel) openInput(action inputAction, value string) tea.Cmd {
	m.inputAction = action
	m.inputMessage = ""
	m.input = newInput("", "> ")
	m.input.ShowSuggestions = false
	switch action {
	case inputSearch:
		m.input.Placeholder = "movie title"
		m.input.ShowSuggestions = true
		m.input.SetSuggestions(m.search.RecentTerms())
	case inputInvite:
		m.input.Placeholder = "friend@example.com"
	case inputUpdateStart:
		m.input.Placeholder = startTimeLayout
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.state = stateInput
	return m.input.Focus()
}

func (m appModel) inputView() string {
	title := "Search movies"
	switch m.inputAction {
	case inputInvite:
		title = "Invite someone"
	case inputUpdateStart:
		title = "New start time"
	}
	lines := []string{labelStyle.Render(title), "", m.input.View()}
	if m.inputAction == inputSearch {
		if recent := m.search.RecentTerms(); len(recent) > 0 {
			lines = append(lines, "", hint("Recent: "+strings.Join(recent, ", ")))
		}
	}
	if m.inputMessage != "" {
		lines = append(lines, "", errorStyle.Render(m.inputMessage))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateFilters:
		m.state = stateMovies
	case stateInput:
		switch m.inputAction {
		case inputSearch:
			if len(m.searchList.Items()) > 0 {
				m.state = stateSearchResults
			} else {
				m.state = stateMovies
			}
		default:
			m.state = stateNightDetail
		}
	case stateSearchResults, stateNotifications, stateMyNights:
		m.state = stateMovies
	case stateMovieDetail:
		m.state = m.detailReturn
		if m.state != stateSearchResults && m.state != stateMyNights {
			m.state = stateMovies
		}
	case stateCreateNight:
		m.state = stateMovieDetail
	case stateNightDetail:
		switch m.nightReturn {
		case stateMovieDetail:
			m.startLoading("Loading movie", stateMovieDetail)
			return m, tea.Batch(m.fetchMovieDetailCmd(m.movie.ID), m.spinner.Tick)
		case stateMyNights:
			m.startLoading("Loading movie nights", stateMyNights)
			return m, tea.Batch(m.fetchMyNightsCmd(), m.spinner.Tick)
		case stateNotifications:
			m.state = stateNotifications
		default:
			m.state = stateMovies
		}
	case stateConfirmDelete:
		m.state = stateNightDetail
	case stateError:
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

// fail routes a command error. Auth failures refresh the session and replay
// retry once; a second failure, or a failed refresh, ends the session.
func (m appModel) fail(err error, retry tea.Cmd) (tea.Model, tea.Cmd) {
	if errors.Is(err, service.ErrAuth) {
		if m.afterRefresh || !m.session.IsAuthenticated() {
			return m.expire()
		}
		return m, m.refreshSessionCmd(retry)
	}
	return m, errCmd(err)
}

func (m appModel) expire() (tea.Model, tea.Cmd) {
	m.session.Logout()
	m.login = newLoginForm()
	m.login.message = sessionExpiredMessage
	m.state = stateLogin
	return m, textinput.Blink
}

func (m *appModel) startLoading(label string, returnState appState) {
	m.loadingLabel = label
	m.loadingReturn = returnState
	m.state = stateLoading
}

func (m appModel) recoverState() appState {
	if m.state == stateLoading || m.state == stateError {
		return m.loadingReturn
	}
	return m.state
}

func (m *appModel) maybeLoadMore() tea.Cmd {
	if m.state != stateMovies || m.movieList.IsFiltered() || m.movieList.SettingFilter() {
		return nil
	}
	if !m.listing.NearEnd(m.movieList.Index(), loadMoreThreshold) {
		return nil
	}
	return m.loadMoreMoviesCmd()
}

func (m *appModel) syncMovies() {
	snap := m.listing.Snapshot()
	index := m.movieList.Index()
	m.movieList.SetItems(buildMovieItems(snap.Results))
	if index < len(snap.Results) {
		m.movieList.Select(index)
	}
	m.movieList.Title = fmt.Sprintf("Movies • %d loaded", len(snap.Results))
}

func (m appModel) listingFooter() string {
	snap := m.listing.Snapshot()
	switch {
	case snap.Fetching:
		return "\n" + hint(m.spinner.View()+" loading more...")
	case snap.Err != nil:
		return "\n" + errorStyle.Render(displayError(snap.Err))
	case snap.Exhausted && len(snap.Results) == 0:
		return "\n" + hint("No movies match these filters.")
	case snap.Exhausted:
		return "\n" + hint("End of list.")
	}
	return ""
}

func (m *appModel) syncSearch() {
	snap := m.search.Snapshot()
	m.searchList.SetItems(buildMovieItems(snap.Results))
	m.searchList.Select(0)
	title := fmt.Sprintf("Search • %s", snap.Term)
	if len(snap.Results) == 0 {
		title += " • no results"
	}
	m.searchList.Title = title
}

func (m *appModel) applyNotifications(state notify.State) {
	m.unread = state.Unread
	index := m.notificationList.Index()
	items := buildNotificationItems(state.Notifications, time.Now())
	m.notificationList.SetItems(items)
	if index < len(items) {
		m.notificationList.Select(index)
	}
	m.notificationList.Title = fmt.Sprintf("Notifications • %d unread", state.Unread)
}

func (m *appModel) refreshNightView() {
	night, ok := m.widget.Current()
	if !ok {
		m.detail.SetContent(hint("No movie night loaded."))
		return
	}
	var pending *notify.PendingInvitation
	if inv, ok := m.poller.Slot().Peek(night.ID); ok {
		pending = &inv
	}
	title := fmt.Sprintf("Movie #%d", night.Movie)
	if m.movie.ID == night.Movie && m.movie.Title != "" {
		title = m.movie.Title
	}
	m.detail.SetContent(nightDetailView(title, night, pending, time.Now()))
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateMovies:
		return &m.movieList
	case stateSearchResults:
		return &m.searchList
	case stateMovieDetail:
		return &m.movieNightList
	case stateMyNights:
		return &m.nightList
	case stateNotifications:
		return &m.notificationList
	default:
		return nil
	}
}

func (m appModel) loadingView() string {
	title := m.loadingLabel
	if title == "" {
		title = "Loading"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Fetching data..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h-1)
	m.searchList.SetSize(m.width, h)
	m.nightList.SetSize(m.width, h)
	m.notificationList.SetSize(m.width, h)
	m.genreList.SetSize(m.width, h/2)
	detailHeight := h / 2
	if detailHeight < 6 {
		detailHeight = 6
	}
	m.movieNightList.SetSize(m.width, detailHeight)
	m.detail.Width = m.width
	m.detail.Height = h
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func loginErrorMessage(err error) string {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		if messages := apiErr.Messages(); len(messages) > 0 {
			return strings.Join(messages, ", ")
		}
	}
	if errors.Is(err, service.ErrAuth) {
		return "Invalid email or password."
	}
	return displayError(err)
}

func nextNotificationType(current model.NotificationType) model.NotificationType {
	for i, t := range notificationTypes {
		if t == current {
			return notificationTypes[(i+1)%len(notificationTypes)]
		}
	}
	return ""
}
