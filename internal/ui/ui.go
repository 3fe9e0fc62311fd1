package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/account"
	"github.com/desertthunder/flix/internal/favorites"
	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WelcomeView ViewState = iota
	LoginView
	RegisterView
	MoviesView
	MovieDetailView
	ProfileView
	EditProfileView
)

func (v ViewState) String() string {
	return [...]string{"welcome", "login", "register", "movies", "movie", "profile", "edit-profile"}[v]
}

// Deps are the services the TUI drives. Toasts should be the notifier given to the account service and
// the favorites controller.
type Deps struct {
	API           services.Client
	Account       *account.Service
	Favorites     *favorites.Controller
	Session       *session.Store
	Toasts        ToastChannel
	ToastDuration time.Duration
	MovieLimit    int
	Logger        *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *log.Logger

	view   ViewState
	width  int
	height int

	sess session.Session
	sub  *session.Subscription

	movieList list.Model
	movies    []models.Movie
	loading   bool
	selected  *models.Movie
	detail    *detailPayload

	profile       *models.User
	confirmDelete bool

	form     *form
	toast    *models.Toast
	toastSeq int
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model. A restored session opens on the movie list, otherwise on the welcome screen.
//
// The model subscribes to the session; call [Model.Close] when the program exits.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.ToastDuration <= 0 {
		deps.ToastDuration = DefaultToastDuration
	}
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}

	movieList := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	movieList.Title = "Movies"
	movieList.SetShowHelp(false)

	m := &Model{
		ctx:       ctx,
		deps:      deps,
		logger:    deps.Logger.With("component", "tui"),
		view:      WelcomeView,
		movieList: movieList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	if deps.Session.Current().LoggedIn {
		m.view = MoviesView
		m.loading = true
	}
	m.sub = deps.Session.Subscribe()
	return m
}

// Close detaches the model from the session.
func (m *Model) Close() {
	m.sub.Close()
}

// ActiveView returns the view being shown.
func (m *Model) ActiveView() ViewState { return m.view }

// Init starts listening for session changes and toasts. The first session message triggers the initial fetches.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForSession(m.sub), waitForToast(m.deps.Toasts))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movieList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQ) {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case Msg:
		return m, m.handleMsg(msg)
	}

	if m.form != nil {
		return m, m.form.update(msg)
	}
	if m.view == MoviesView {
		var cmd tea.Cmd
		m.movieList, cmd = m.movieList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgSessionChanged:
		return tea.Batch(waitForSession(m.sub), m.applySession(msg.data.(session.Session)))

	case MsgMoviesFetched:
		p := msg.data.(moviesPayload)
		m.loading = false
		if p.err != nil {
			m.err = p.err
			return nil
		}
		m.err = nil
		m.movies = p.movies
		return m.refreshItems()

	case MsgFavoritesLoaded, MsgFavoriteToggled:
		return m.refreshItems()

	case MsgLoggedIn:
		if p := msg.data.(userPayload); p.err != nil && m.form != nil {
			m.form.errs = account.FieldErrors(p.err)
		}
		return nil

	case MsgRegistered:
		p := msg.data.(registeredPayload)
		if p.err != nil {
			if m.form != nil {
				m.form.errs = account.FieldErrors(p.err)
			}
			return nil
		}
		m.view = LoginView
		m.form = loginForm(p.username)
		m.form.setFocus(1)
		return nil

	case MsgProfileFetched:
		p := msg.data.(userPayload)
		if p.err != nil {
			m.err = p.err
			return nil
		}
		m.err = nil
		m.profile = p.user
		return nil

	case MsgProfileSaved:
		p := msg.data.(userPayload)
		if p.err != nil {
			if m.form != nil {
				m.form.errs = account.FieldErrors(p.err)
			}
			return nil
		}
		m.profile = p.user
		m.form = nil
		m.view = ProfileView
		return nil

	case MsgAccountDeleted:
		m.confirmDelete = false
		return nil

	case MsgDetailFetched:
		p := msg.data.(detailPayload)
		m.detail = &p
		return nil

	case MsgToast:
		t := msg.data.(models.Toast)
		m.toastSeq++
		m.toast = &t
		return tea.Batch(waitForToast(m.deps.Toasts), expireToast(m.toastSeq, m.deps.ToastDuration))

	case MsgToastExpired:
		if msg.data.(int) == m.toastSeq {
			m.toast = nil
		}
		return nil
	}
	return nil
}

// applySession routes on login and logout. Every change invalidates the favorites cache, so a live session
// reloads it.
func (m *Model) applySession(s session.Session) tea.Cmd {
	m.sess = s
	m.logger.Debug("session changed", "logged_in", s.LoggedIn, "username", s.Username, "view", m.view)

	if !s.LoggedIn {
		m.movies = nil
		m.selected = nil
		m.detail = nil
		m.profile = nil
		m.confirmDelete = false
		m.loading = false
		m.err = nil
		m.movieList.ResetFilter()
		cmd := m.movieList.SetItems(nil)
		switch m.view {
		case WelcomeView, LoginView, RegisterView:
		default:
			m.view = WelcomeView
			m.form = nil
		}
		return cmd
	}

	cmds := []tea.Cmd{m.loadFavorites(s.Username), m.refreshItems()}
	switch m.view {
	case WelcomeView, LoginView, RegisterView:
		m.view = MoviesView
		m.form = nil
	}
	if len(m.movies) == 0 {
		m.loading = true
		cmds = append(cmds, m.fetchMovies())
	}
	return tea.Batch(cmds...)
}

func (m *Model) refreshItems() tea.Cmd {
	items := make([]list.Item, len(m.movies))
	for i, mv := range m.movies {
		items[i] = movieItem{
			movie:    mv,
			favorite: m.deps.Favorites.IsFavorite(mv.ID),
			pending:  m.deps.Favorites.IsPending(mv.ID),
		}
	}
	return m.movieList.SetItems(items)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case WelcomeView:
		return m.handleWelcomeKeys(msg)
	case LoginView, RegisterView, EditProfileView:
		return m.handleFormKeys(msg)
	case MoviesView:
		return m.handleMovieListKeys(msg)
	case MovieDetailView:
		return m.handleDetailKeys(msg)
	case ProfileView:
		return m.handleProfileKeys(msg)
	}
	return m, nil
}

func (m *Model) handleWelcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.login):
		m.view = LoginView
		m.form = loginForm("")
	case key.Matches(msg, m.keys.register):
		m.view = RegisterView
		m.form = registerForm()
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.form = nil
		if m.view == EditProfileView {
			m.view = ProfileView
		} else {
			m.view = WelcomeView
		}
		return m, nil
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.next):
		return m, m.form.next()
	case key.Matches(msg, m.keys.prev):
		return m, m.form.prev()
	}
	return m, m.form.update(msg)
}

func (m *Model) handleMovieListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.movieList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.movieList, cmd = m.movieList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.movieList.SelectedItem().(movieItem); ok {
			mv := item.movie
			m.selected = &mv
			m.detail = nil
			m.view = MovieDetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if item, ok := m.movieList.SelectedItem().(movieItem); ok {
			return m, m.toggle(item.movie.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.profile):
		m.view = ProfileView
		m.profile = nil
		return m, m.fetchProfile()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.movieList, cmd = m.movieList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.detail != nil {
			m.detail = nil
		} else {
			m.view = MoviesView
			m.selected = nil
		}
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggle(m.selected.ID)
	case key.Matches(msg, m.keys.genre):
		if len(m.selected.Genres) > 0 {
			return m, m.fetchGenre(m.selected.Genres[0].Name)
		}
	case key.Matches(msg, m.keys.director):
		if len(m.selected.Directors) > 0 {
			return m, m.fetchDirector(m.selected.Directors[0].Name)
		}
	}
	return m, nil
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		switch {
		case key.Matches(msg, m.keys.yes):
			return m, m.deleteAccount()
		case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
			m.confirmDelete = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MoviesView
		m.err = nil
	case key.Matches(msg, m.keys.edit):
		if m.profile != nil {
			m.view = EditProfileView
			m.form = editProfileForm(m.profile)
		}
	case key.Matches(msg, m.keys.remove):
		if m.profile != nil {
			m.confirmDelete = true
		}
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}
	return m, nil
}

func loginForm(username string) *form {
	return newForm("Log in",
		fieldSpec{key: "username", label: "Username", value: username},
		fieldSpec{key: "password", label: "Password", secret: true},
	)
}

func registerForm() *form {
	return newForm("Sign up",
		fieldSpec{key: "username", label: "Username", placeholder: "at least 5 characters"},
		fieldSpec{key: "password", label: "Password", placeholder: "8+ chars, upper, lower, number, symbol", secret: true},
		fieldSpec{key: "email", label: "Email", placeholder: "you@example.com"},
		fieldSpec{key: "birthday", label: "Birthday", placeholder: "yyyy-mm-dd (optional)"},
	)
}

func editProfileForm(u *models.User) *form {
	return newForm("Edit profile",
		fieldSpec{key: "username", label: "Username", value: u.Username},
		fieldSpec{key: "email", label: "Email", value: u.Email},
		fieldSpec{key: "birthday", label: "Birthday", placeholder: "yyyy-mm-dd", value: formatter.BirthdayInput(u)},
		fieldSpec{key: "currentPassword", label: "Current password", placeholder: "only to change password", secret: true},
		fieldSpec{key: "newPassword", label: "New password", secret: true},
	)
}

// submit sends the active form.
func (m *Model) submit() tea.Cmd {
	f := m.form
	f.errs = nil

	switch m.view {
	case LoginView:
		req := models.LoginRequest{Username: f.value("username"), Password: f.value("password")}
		return func() tea.Msg {
			user, err := m.deps.Account.Login(m.ctx, req)
			return loggedInMsg(user, err)
		}

	case RegisterView:
		req := models.RegisterRequest{
			Username: f.value("username"),
			Password: f.value("password"),
			Email:    f.value("email"),
			Birthday: f.value("birthday"),
		}
		return func() tea.Msg {
			_, err := m.deps.Account.Register(m.ctx, req)
			return registeredMsg(req.Username, err)
		}

	case EditProfileView:
		req := changedFields(m.profile, f)
		return func() tea.Msg {
			user, err := m.deps.Account.UpdateProfile(m.ctx, req)
			return profileSavedMsg(user, err)
		}
	}
	return nil
}

// changedFields builds an update with only the fields that differ from u.
func changedFields(u *models.User, f *form) models.UpdateUserRequest {
	req := models.UpdateUserRequest{
		CurrentPassword: f.value("currentPassword"),
		NewPassword:     f.value("newPassword"),
	}
	if v := f.value("username"); v != u.Username {
		req.Username = v
	}
	if v := f.value("email"); v != u.Email {
		req.Email = v
	}
	if v := f.value("birthday"); v != formatter.BirthdayInput(u) {
		req.Birthday = v
	}
	return req
}

func (m *Model) fetchMovies() tea.Cmd {
	return func() tea.Msg {
		movies, err := m.deps.API.ListMovies(m.ctx, m.deps.MovieLimit)
		return moviesFetchedMsg(movies, err)
	}
}

func (m *Model) loadFavorites(username string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.deps.Favorites.Load(m.ctx, username)
		return favoritesLoadedMsg(err)
	}
}

func (m *Model) toggle(movieID string) tea.Cmd {
	username := m.sess.Username
	return func() tea.Msg {
		res, err := m.deps.Favorites.Toggle(m.ctx, username, movieID)
		return favoriteToggledMsg(res, err)
	}
}

func (m *Model) fetchProfile() tea.Cmd {
	return func() tea.Msg {
		user, err := m.deps.Account.Profile(m.ctx)
		return profileFetchedMsg(user, err)
	}
}

func (m *Model) deleteAccount() tea.Cmd {
	return func() tea.Msg {
		return accountDeletedMsg(m.deps.Account.DeleteAccount(m.ctx))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		if err := m.deps.Account.Logout(); err != nil {
			m.logger.Error("logout failed", "error", err)
		}
		return nil
	}
}

func (m *Model) fetchGenre(name string) tea.Cmd {
	return func() tea.Msg {
		details, err := m.deps.API.Genre(m.ctx, name)
		if err != nil {
			return detailFetchedMsg(name, "", err)
		}

		var b strings.Builder
		b.WriteString(formatter.GenreLine(details.Genre) + "\n")
		if len(details.Movies) > 0 {
			b.WriteString("\nMovies:\n")
			for _, mv := range details.Movies {
				b.WriteString("  " + mv.Title + "\n")
			}
		}
		return detailFetchedMsg(name, b.String(), nil)
	}
}

func (m *Model) fetchDirector(name string) tea.Cmd {
	return func() tea.Msg {
		d, err := m.deps.API.Director(m.ctx, name)
		if err != nil {
			return detailFetchedMsg(name, "", err)
		}
		return detailFetchedMsg(d.Name, formatter.DirectorDetail(*d), nil)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	var helpKeys []key.Binding

	switch m.view {
	case WelcomeView:
		body = m.renderWelcome()
		helpKeys = []key.Binding{m.keys.login, m.keys.register, m.keys.quit}
	case LoginView, RegisterView, EditProfileView:
		body = m.form.view()
		helpKeys = []key.Binding{m.keys.next, m.keys.submit, m.keys.back, m.keys.forceQ}
	case MoviesView:
		body = m.renderMovieList()
		helpKeys = []key.Binding{m.keys.enter, m.keys.favorite, m.keys.profile, m.keys.logout, m.keys.quit}
	case MovieDetailView:
		body = m.renderMovieDetail()
		helpKeys = []key.Binding{m.keys.favorite, m.keys.genre, m.keys.director, m.keys.back, m.keys.quit}
	case ProfileView:
		body = m.renderProfile()
		if m.confirmDelete {
			helpKeys = []key.Binding{m.keys.yes, m.keys.no}
		} else {
			helpKeys = []key.Binding{m.keys.edit, m.keys.remove, m.keys.logout, m.keys.back, m.keys.quit}
		}
	}

	var b strings.Builder
	b.WriteString(body)
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+services.Message(m.err)) + "\n")
	}
	if m.toast != nil {
		b.WriteString("\n" + styles.toast(m.toast.Level).Render(m.toast.Message) + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderWelcome() string {
	title := styles.title.Render("Welcome to flix")
	return fmt.Sprintf("%s\nBrowse the movie catalog and keep a list of your favorites.\n", title)
}

func (m *Model) renderMovieList() string {
	if m.loading && len(m.movies) == 0 {
		return styles.title.Render("Movies") + "\nLoading movies…\n"
	}
	header := styles.help.Render("Signed in as " + m.sess.Username)
	return fmt.Sprintf("%s\n%s", m.movieList.View(), header)
}

func (m *Model) renderMovieDetail() string {
	mv := m.selected
	favorite := m.deps.Favorites.IsFavorite(mv.ID)

	var b strings.Builder
	b.WriteString(styles.title.Render(mv.Title) + "\n")
	b.WriteString(formatter.MovieDetail(*mv, favorite))
	if m.deps.Favorites.IsPending(mv.ID) {
		b.WriteString(styles.warn.Render("Updating favorites…") + "\n")
	}

	if d := m.detail; d != nil {
		b.WriteString("\n" + styles.info.Render(d.title) + "\n")
		if d.err != nil {
			b.WriteString(styles.err.Render(services.Message(d.err)) + "\n")
		} else {
			b.WriteString(d.body)
		}
	}
	return b.String()
}

func (m *Model) renderProfile() string {
	title := styles.title.Render("Profile")
	if m.profile == nil {
		return title + "\nLoading profile…\n"
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(formatter.Profile(m.profile))

	if ids := m.profile.FavoriteMovies; len(ids) > 0 {
		titles := make(map[string]string, len(m.movies))
		for _, mv := range m.movies {
			titles[mv.ID] = mv.Title
		}
		b.WriteString("\nFavorite movies:\n")
		for _, id := range ids {
			name, ok := titles[id]
			if !ok {
				name = id
			}
			b.WriteString("  ★ " + name + "\n")
		}
	}

	if m.confirmDelete {
		b.WriteString("\n" + styles.warn.Render("Delete your account? This cannot be undone. (y/n)") + "\n")
	}
	return b.String()
}
