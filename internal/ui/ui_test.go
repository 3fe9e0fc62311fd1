package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/flix/internal/account"
	"github.com/desertthunder/flix/internal/favorites"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
	"github.com/desertthunder/flix/internal/validation"
)

type harness struct {
	fake   *tu.FakeAPI
	store  *session.Store
	ctrl   *favorites.Controller
	toasts ToastChannel
	m      *Model
}

// newHarness wires the TUI to the fake API. With loggedIn, alice (favorites m1, m2) is signed in first.
func newHarness(t *testing.T, loggedIn bool) harness {
	t.Helper()
	logger := shared.NewLogger(io.Discard)

	fake := tu.NewFakeAPI(t)
	token := fake.AddUser("alice", "Secret1!", "m1", "m2")

	store := session.NewStore(session.NewMemoryStorage(nil), logger)
	api := services.NewMovieAPI(services.Options{
		BaseURL:        fake.URL(),
		Tokens:         store,
		Logger:         logger,
		OnUnauthorized: func(token string) { _, _ = store.Expire(token) },
	})
	toasts := NewToastChannel(16)
	ctrl := favorites.New(api, toasts, logger)
	store.Observe(ctrl.HandleSessionChange)

	if loggedIn {
		require.NoError(t, store.Login("alice", token))
	}

	m := NewModel(context.Background(), Deps{
		API:       api,
		Account:   account.New(api, store, validation.New(), toasts, logger),
		Favorites: ctrl,
		Session:   store,
		Toasts:    toasts,
		Logger:    logger,
	})
	t.Cleanup(m.Close)

	return harness{fake: fake, store: store, ctrl: ctrl, toasts: toasts, m: m}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

// press sends a key and runs the command it returns, feeding the result back into the model.
func (h harness) press(t *testing.T, k string) {
	t.Helper()
	if cmd := h.send(keyPress(k)); cmd != nil {
		h.send(cmd())
	}
}

// syncSession delivers the latest session change.
func (h harness) syncSession() {
	h.send(waitForSession(h.m.sub)())
}

// loadCatalog runs the fetches a login triggers.
func (h harness) loadCatalog() {
	h.send(h.m.fetchMovies()())
	h.send(h.m.loadFavorites(h.store.Current().Username)())
}

func (h harness) itemTitles() []string {
	var titles []string
	for _, it := range h.m.movieList.Items() {
		titles = append(titles, it.(movieItem).Title())
	}
	return titles
}

func (h harness) drainToasts() []models.Toast {
	var out []models.Toast
	for {
		select {
		case t := <-h.toasts:
			out = append(out, t)
		default:
			return out
		}
	}
}

func TestStartupRouting(t *testing.T) {
	t.Run("no session opens welcome", func(t *testing.T) {
		h := newHarness(t, false)
		assert.Equal(t, WelcomeView, h.m.ActiveView())
		assert.Contains(t, h.m.View(), "Welcome to flix")
	})

	t.Run("restored session opens movies", func(t *testing.T) {
		h := newHarness(t, true)
		assert.Equal(t, MoviesView, h.m.ActiveView())
		assert.Contains(t, h.m.View(), "Loading movies")

		h.syncSession()
		h.loadCatalog()
		assert.Equal(t, []string{"★ Inception", "★ Spirited Away", "The Dark Knight"}, h.itemTitles())
	})
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t, false)

	h.press(t, "l")
	require.Equal(t, LoginView, h.m.ActiveView())

	h.m.form.set("username", "alice")
	h.m.form.set("password", "Secret1!")
	h.press(t, "enter")

	assert.True(t, h.store.Current().LoggedIn)
	h.syncSession()
	assert.Equal(t, MoviesView, h.m.ActiveView())

	h.loadCatalog()
	assert.Len(t, h.m.movieList.Items(), 3)
	assert.True(t, h.ctrl.IsFavorite("m1"))

	h.send(waitForToast(h.toasts)())
	assert.Contains(t, h.m.View(), "Login successful! Welcome, alice!")
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t, false)

	h.press(t, "l")
	h.m.form.set("username", "alice")
	h.press(t, "enter")

	assert.Equal(t, LoginView, h.m.ActiveView())
	assert.Contains(t, h.m.View(), "Password is required.")
	assert.Empty(t, h.fake.Calls())

	h.press(t, "esc")
	assert.Equal(t, WelcomeView, h.m.ActiveView())
}

func TestRegisterFlow(t *testing.T) {
	h := newHarness(t, false)

	h.press(t, "r")
	require.Equal(t, RegisterView, h.m.ActiveView())

	h.m.form.set("username", "bobby1")
	h.m.form.set("password", "Secret1!")
	h.m.form.set("email", "bob@example.com")
	h.press(t, "enter")

	assert.True(t, h.fake.HasUser("bobby1"))
	assert.Equal(t, LoginView, h.m.ActiveView())
	assert.Equal(t, "bobby1", h.m.form.value("username"))
	assert.False(t, h.store.Current().LoggedIn)
}

func TestFavoritesFromList(t *testing.T) {
	h := newHarness(t, true)
	h.syncSession()
	h.loadCatalog()
	h.drainToasts()

	h.m.movieList.Select(2)
	h.press(t, "f")

	assert.True(t, h.ctrl.IsFavorite("m3"))
	assert.Contains(t, h.fake.Favorites("alice"), "m3")
	assert.Equal(t, "★ The Dark Knight", h.itemTitles()[2])
	assert.Equal(t, []models.Toast{{Level: models.ToastSuccess, Message: favorites.MsgAdded}}, h.drainToasts())

	h.m.movieList.Select(0)
	h.press(t, "f")
	assert.False(t, h.ctrl.IsFavorite("m1"))
	assert.Equal(t, "Inception", h.itemTitles()[0])
}

func TestMovieDetail(t *testing.T) {
	h := newHarness(t, true)
	h.syncSession()
	h.loadCatalog()

	h.m.movieList.Select(0)
	h.press(t, "enter")
	require.Equal(t, MovieDetailView, h.m.ActiveView())
	view := h.m.View()
	assert.Contains(t, view, "Inception ★")
	assert.Contains(t, view, "Sci-Fi: Speculative fiction.")

	h.press(t, "d")
	assert.Contains(t, h.m.View(), "British-American filmmaker.")

	h.press(t, "g")
	assert.Contains(t, h.m.View(), "Movies:\n  Inception")

	h.press(t, "f")
	assert.False(t, h.ctrl.IsFavorite("m1"))
	assert.NotContains(t, h.m.View(), "Inception ★")

	h.press(t, "esc")
	assert.Equal(t, MovieDetailView, h.m.ActiveView(), "first esc closes the lookup")
	h.press(t, "esc")
	assert.Equal(t, MoviesView, h.m.ActiveView())
}

func TestForcedLogout(t *testing.T) {
	h := newHarness(t, true)
	h.syncSession()
	h.loadCatalog()

	h.fake.Fail(http.MethodGet, "/movies", http.StatusUnauthorized, `{"message":"jwt expired"}`)
	h.send(h.m.fetchMovies()())

	assert.False(t, h.store.Current().LoggedIn)
	h.syncSession()
	assert.Equal(t, WelcomeView, h.m.ActiveView())
	assert.Empty(t, h.m.movieList.Items())
	assert.False(t, h.ctrl.IsFavorite("m1"))
}

func TestProfileFlow(t *testing.T) {
	h := newHarness(t, true)
	h.syncSession()
	h.loadCatalog()

	h.press(t, "p")
	require.Equal(t, ProfileView, h.m.ActiveView())
	view := h.m.View()
	assert.Contains(t, view, "Email:     alice@example.com")
	assert.Contains(t, view, "Birthday:  12.04.1990")
	assert.Contains(t, view, "★ Spirited Away")

	t.Run("edit sends changed fields", func(t *testing.T) {
		h.press(t, "e")
		require.Equal(t, EditProfileView, h.m.ActiveView())
		assert.Equal(t, "1990-04-12", h.m.form.value("birthday"))

		h.m.form.set("email", "new@example.com")
		h.press(t, "enter")

		assert.Equal(t, ProfileView, h.m.ActiveView())
		assert.Contains(t, h.m.View(), "Email:     new@example.com")
		assert.Equal(t, "alice", h.store.Current().Username)
	})

	t.Run("delete asks first", func(t *testing.T) {
		h.press(t, "x")
		assert.Contains(t, h.m.View(), "Delete your account?")
		h.press(t, "n")
		assert.NotContains(t, h.m.View(), "Delete your account?")
		assert.True(t, h.fake.HasUser("alice"))

		h.press(t, "x")
		h.press(t, "y")
		assert.False(t, h.fake.HasUser("alice"))

		h.syncSession()
		assert.Equal(t, WelcomeView, h.m.ActiveView())
	})
}

func TestToasts(t *testing.T) {
	h := newHarness(t, false)

	h.send(toastMsg(models.Toast{Level: models.ToastInfo, Message: "first"}))
	h.send(toastMsg(models.Toast{Level: models.ToastError, Message: "second"}))
	assert.Contains(t, h.m.View(), "second")

	h.send(toastExpiredMsg(1))
	assert.Contains(t, h.m.View(), "second", "an older timer does not clear a newer toast")

	h.send(toastExpiredMsg(2))
	assert.NotContains(t, h.m.View(), "second")
}

func TestToastChannel(t *testing.T) {
	c := NewToastChannel(1)
	done := make(chan struct{})
	go func() {
		c.Notify(models.Toast{Message: "a"})
		c.Notify(models.Toast{Message: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full channel")
	}
	assert.Equal(t, "a", (<-c).Message)
}

// removeFails is session storage whose Remove always fails.
type removeFails struct {
	*session.MemoryStorage
}

func (removeFails) Remove(...string) error { return errors.New("disk full") }

func TestLogoutStorageFailure(t *testing.T) {
	quiet := shared.NewLogger(io.Discard)
	var logs bytes.Buffer

	fake := tu.NewFakeAPI(t)
	store := session.NewStore(removeFails{session.NewMemoryStorage(nil)}, quiet)
	api := services.NewMovieAPI(services.Options{BaseURL: fake.URL(), Tokens: store, Logger: quiet})
	require.NoError(t, store.Login("alice", "t1"))

	toasts := NewToastChannel(4)
	m := NewModel(context.Background(), Deps{
		API:       api,
		Account:   account.New(api, store, validation.New(), toasts, quiet),
		Favorites: favorites.New(api, toasts, quiet),
		Session:   store,
		Toasts:    toasts,
		Logger:    shared.NewLogger(&logs),
	})
	t.Cleanup(m.Close)

	m.logout()()
	assert.False(t, store.Current().LoggedIn)
	assert.Contains(t, logs.String(), "logout failed")
	assert.Contains(t, logs.String(), "disk full")
}
