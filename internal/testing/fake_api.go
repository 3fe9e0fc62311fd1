package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

type fakeAccount struct {
	user     models.User
	password string
	token    string
}

type injectedFailure struct {
	status int
	body   string
}

// FakeAPI is an in-memory movie API served by [httptest.Server].
//
// It stores movies and accounts, checks bearer tokens, records every call, and can be told to fail
// or to hold favorite writes until released.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	movies   []models.Movie
	accounts map[string]*fakeAccount
	calls    []string
	failures map[string]injectedFailure
	hold     chan struct{}

	omitFavorites  bool
	envelopeMovies bool
}

// SampleMovies is the default catalog served by [NewFakeAPI].
func SampleMovies() []models.Movie {
	return []models.Movie{
		{
			ID:          "m1",
			Title:       "Inception",
			Description: "A thief who steals secrets through dreams.",
			Genres:      []models.Genre{{Name: "Sci-Fi", Description: "Speculative fiction."}, {Name: "Thriller"}},
			Directors:   []models.Director{{Name: "Christopher Nolan", Bio: "British-American filmmaker."}},
			ImagePath:   "/posters/inception.png",
			Featured:    true,
		},
		{
			ID:          "m2",
			Title:       "Spirited Away",
			Description: "A girl wanders into a world of spirits.",
			Genres:      []models.Genre{{Name: "Animation", Description: "Drawn or computer generated."}},
			Directors:   []models.Director{{Name: "Hayao Miyazaki", Bio: "Japanese animator."}},
			ImagePath:   "/posters/spirited-away.png",
		},
		{
			ID:          "m3",
			Title:       "The Dark Knight",
			Description: "Batman faces the Joker.",
			Genres:      []models.Genre{{Name: "Action"}, {Name: "Thriller"}},
			Directors:   []models.Director{{Name: "Christopher Nolan", Bio: "British-American filmmaker."}},
			ImagePath:   "/posters/dark-knight.png",
		},
	}
}

// NewFakeAPI starts a fake API with [SampleMovies] and closes it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		movies:         SampleMovies(),
		accounts:       make(map[string]*fakeAccount),
		failures:       make(map[string]injectedFailure),
		envelopeMovies: true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", f.handleLogin)
	mux.HandleFunc("POST /users", f.handleRegister)
	mux.HandleFunc("GET /movies", f.authed(f.handleMovies))
	mux.HandleFunc("GET /movies/{title}", f.authed(f.handleMovie))
	mux.HandleFunc("GET /movies/genres/all", f.authed(f.handleGenres))
	mux.HandleFunc("GET /movies/genres/{name}", f.authed(f.handleGenre))
	mux.HandleFunc("GET /movies/directors/all", f.authed(f.handleDirectors))
	mux.HandleFunc("GET /movies/directors/{name}", f.authed(f.handleDirector))
	mux.HandleFunc("GET /users/{username}", f.authed(f.owner(f.handleGetUser)))
	mux.HandleFunc("PUT /users/{username}", f.authed(f.owner(f.handleUpdateUser)))
	mux.HandleFunc("DELETE /users/{username}", f.authed(f.owner(f.handleDeleteUser)))
	mux.HandleFunc("PUT /users/{username}/{movieID}", f.authed(f.owner(f.handleAddFavorite)))
	mux.HandleFunc("DELETE /users/{username}/{movieID}", f.authed(f.owner(f.handleRemoveFavorite)))
	mux.HandleFunc("GET /posters/{file}", f.handlePoster)

	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// AddUser creates an account and returns a valid token for it.
func (f *FakeAPI) AddUser(username, password string, favorites ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	token := "token-" + shared.GenerateID()
	f.accounts[username] = &fakeAccount{
		user: models.User{
			ID:             "u-" + username,
			Username:       username,
			Email:          username + "@example.com",
			Birthday:       "1990-04-12T00:00:00.000Z",
			FavoriteMovies: append([]string{}, favorites...),
		},
		password: password,
		token:    token,
	}
	return token
}

// Favorites returns the server-side favorites of username.
func (f *FakeAPI) Favorites(username string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acct, ok := f.accounts[username]; ok {
		return slices.Clone(acct.user.FavoriteMovies)
	}
	return nil
}

// HasUser reports whether an account exists.
func (f *FakeAPI) HasUser(username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[username]
	return ok
}

// Fail makes every request matching method and path answer with status and body.
func (f *FakeAPI) Fail(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = injectedFailure{status: status, body: body}
}

// ClearFailures removes every injected failure.
func (f *FakeAPI) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failures)
}

// OmitFavorites makes user responses leave out favMovies.
func (f *FakeAPI) OmitFavorites(omit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitFavorites = omit
}

// BareMovieList makes GET /movies answer with a bare array instead of {"data": [...]}.
func (f *FakeAPI) BareMovieList() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopeMovies = false
}

// HoldFavorites blocks favorite add/remove requests until the returned release function is called.
func (f *FakeAPI) HoldFavorites() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{})
	f.hold = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.hold == ch {
				f.hold = nil
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns the recorded "METHOD /path" of every request so far.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallCount counts recorded requests with the given method whose path starts with prefix.
func (f *FakeAPI) CallCount(method, prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		m, p, _ := strings.Cut(c, " ")
		if m == method && strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		f.calls = append(f.calls, key)
		failure, failing := f.failures[key]
		f.mu.Unlock()

		if failing {
			w.WriteHeader(failure.status)
			fmt.Fprint(w, failure.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || f.userForToken(token) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

// owner rejects requests for another user's resources.
func (f *FakeAPI) owner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if f.userForToken(token) != r.PathValue("username") {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Permission denied"})
			return
		}
		next(w, r)
	}
}

func (f *FakeAPI) userForToken(token string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, acct := range f.accounts {
		if acct.token == token {
			return name
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) userJSON(u models.User) any {
	if f.omitFavorites {
		return map[string]any{"_id": u.ID, "username": u.Username, "email": u.Email, "birthday": u.Birthday}
	}
	return u
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed body"})
		return
	}

	f.mu.Lock()
	acct, ok := f.accounts[req.Username]
	f.mu.Unlock()

	if !ok || acct.password != req.Password {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Incorrect username or password.", "user": false})
		return
	}

	f.mu.Lock()
	body := map[string]any{"token": acct.token, "user": f.userJSON(acct.user)}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed body"})
		return
	}

	if len(req.Username) < 5 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": []map[string]string{{"msg": "Username must be at least 5 characters long."}},
		})
		return
	}

	if f.HasUser(req.Username) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "%s already exists", req.Username)
		return
	}

	f.AddUser(req.Username, req.Password)
	f.mu.Lock()
	acct := f.accounts[req.Username]
	acct.user.Email = req.Email
	acct.user.Birthday = req.Birthday
	f.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "User %s has been registered.", req.Username)
}

func (f *FakeAPI) handleMovies(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	movies := slices.Clone(f.movies)
	envelope := f.envelopeMovies
	f.mu.Unlock()

	if envelope {
		writeJSON(w, http.StatusOK, map[string]any{"data": movies})
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (f *FakeAPI) findMovie(match func(models.Movie) bool) (models.Movie, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movies {
		if match(m) {
			return m, true
		}
	}
	return models.Movie{}, false
}

func (f *FakeAPI) handleMovie(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	movie, ok := f.findMovie(func(m models.Movie) bool { return m.Title == title })
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Movie not found"})
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (f *FakeAPI) handleGenres(w http.ResponseWriter, r *http.Request) {
	var genres []models.Genre
	seen := map[string]bool{}
	f.mu.Lock()
	for _, m := range f.movies {
		for _, g := range m.Genres {
			if !seen[g.Name] {
				seen[g.Name] = true
				genres = append(genres, g)
			}
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, genres)
}

func (f *FakeAPI) handleGenre(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var movies []models.Movie
	f.mu.Lock()
	for _, m := range f.movies {
		if slices.ContainsFunc(m.Genres, func(g models.Genre) bool { return g.Name == name }) {
			movies = append(movies, m)
		}
	}
	f.mu.Unlock()

	if len(movies) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Genre not found"})
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (f *FakeAPI) handleDirectors(w http.ResponseWriter, r *http.Request) {
	var directors []models.Director
	seen := map[string]bool{}
	f.mu.Lock()
	for _, m := range f.movies {
		for _, d := range m.Directors {
			if !seen[d.Name] {
				seen[d.Name] = true
				directors = append(directors, d)
			}
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, directors)
}

func (f *FakeAPI) handleDirector(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movies {
		for _, d := range m.Directors {
			if d.Name == name {
				writeJSON(w, http.StatusOK, d)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Director not found"})
}

func (f *FakeAPI) handleGetUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := f.accounts[r.PathValue("username")]
	writeJSON(w, http.StatusOK, f.userJSON(acct.user))
}

func (f *FakeAPI) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed body"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := r.PathValue("username")
	acct := f.accounts[name]

	if req.NewPassword != "" {
		if req.CurrentPassword != acct.password {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Current password is incorrect"})
			return
		}
		acct.password = req.NewPassword
	}
	if req.Email != "" {
		acct.user.Email = req.Email
	}
	if req.Birthday != "" {
		acct.user.Birthday = req.Birthday
	}
	if req.Username != "" && req.Username != name {
		if _, taken := f.accounts[req.Username]; taken {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Username already taken"})
			return
		}
		delete(f.accounts, name)
		acct.user.Username = req.Username
		f.accounts[req.Username] = acct
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "User updated", "user": f.userJSON(acct.user)})
}

func (f *FakeAPI) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := r.PathValue("username")
	delete(f.accounts, name)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s was deleted.", name)
}

func (f *FakeAPI) waitForRelease(r *http.Request) {
	f.mu.Lock()
	hold := f.hold
	f.mu.Unlock()

	if hold == nil {
		return
	}
	select {
	case <-hold:
	case <-r.Context().Done():
	}
}

func (f *FakeAPI) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	f.waitForRelease(r)

	movieID := r.PathValue("movieID")
	if _, ok := f.findMovie(func(m models.Movie) bool { return m.ID == movieID }); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Movie not found"})
		return
	}

	f.mu.Lock()
	acct := f.accounts[r.PathValue("username")]
	if !slices.Contains(acct.user.FavoriteMovies, movieID) {
		acct.user.FavoriteMovies = append(acct.user.FavoriteMovies, movieID)
	}
	f.mu.Unlock()

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "User has been updated.")
}

func (f *FakeAPI) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	f.waitForRelease(r)

	movieID := r.PathValue("movieID")

	f.mu.Lock()
	acct := f.accounts[r.PathValue("username")]
	acct.user.FavoriteMovies = slices.DeleteFunc(acct.user.FavoriteMovies, func(id string) bool { return id == movieID })
	body := f.userJSON(acct.user)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, body)
}

// handlePoster serves placeholder image bytes ("PNG:<file>") for the sample image paths.
func (f *FakeAPI) handlePoster(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	fmt.Fprintf(w, "PNG:%s", r.PathValue("file"))
}
