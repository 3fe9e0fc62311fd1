// Movie API [Client] implementation
//
// Authenticated calls go through an [oauth2.Transport] fed by the session's token source; login and
// registration use a plain client. Every request waits on a shared rate limiter.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	DefaultBaseURL    = "https://nimkus-movies-flix-6973780b155e.herokuapp.com"
	DefaultMovieLimit = 100
)

// Options configures a [MovieAPI].
type Options struct {
	BaseURL string

	// HTTPClient supplies the base transport and timeout. Defaults to [http.DefaultClient].
	HTTPClient *http.Client

	// Tokens authenticates every call except Login and Register.
	Tokens oauth2.TokenSource

	// RequestsPerSecond throttles outgoing requests. Zero or less disables throttling.
	RequestsPerSecond float64

	Logger *log.Logger

	// OnUnauthorized runs after an authenticated call is rejected with 401 or 403. It receives the
	// access token that was sent, which may no longer be the session's token.
	OnUnauthorized func(token string)
}

// MovieAPI implements [Client] over HTTP.
type MovieAPI struct {
	baseURL        string
	public         *http.Client
	base           http.RoundTripper
	tokens         oauth2.TokenSource
	limiter        *rate.Limiter
	logger         *log.Logger
	onUnauthorized func(token string)
}

// NewMovieAPI creates a new movie API client.
func NewMovieAPI(opts Options) *MovieAPI {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	public := opts.HTTPClient
	if public == nil {
		public = http.DefaultClient
	}

	base := public.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	a := &MovieAPI{
		baseURL:        baseURL,
		public:         public,
		base:           base,
		tokens:         opts.Tokens,
		limiter:        rate.NewLimiter(limit, burst),
		logger:         logger.With("component", "api"),
		onUnauthorized: opts.OnUnauthorized,
	}
	return a
}

// authedClient returns a client that sends tok. The token is read once per request so an
// authorization failure can be tied to the token that caused it.
func (a *MovieAPI) authedClient(tok *oauth2.Token) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: a.base},
		Timeout:   a.public.Timeout,
	}
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

// response is the raw result of a successful (2xx) call.
type response struct {
	StatusCode int
	Body       []byte
	IsJSON     bool
}

func (a *MovieAPI) do(ctx context.Context, r request) (*response, error) {
	client := a.public
	var sent string
	if r.auth {
		if a.tokens == nil {
			return nil, shared.ErrNotAuthenticated
		}
		tok, err := a.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		sent = tok.AccessToken
		client = a.authedClient(tok)
	}

	fullURL := a.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, networkError(err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		a.logger.Warn("request failed", "method", r.method, "path", r.path, "error", err)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(fmt.Errorf("failed to read response: %w", err))
	}

	a.logger.Debug("request", "method", r.method, "path", r.path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(resp.StatusCode, data)
		if apiErr.Kind == KindUnauthorized && r.auth && a.onUnauthorized != nil {
			a.logger.Warn("session rejected by server", "status", resp.StatusCode)
			a.onUnauthorized(sent)
		}
		return nil, apiErr
	}

	return &response{
		StatusCode: resp.StatusCode,
		Body:       data,
		IsJSON:     json.Valid(data),
	}, nil
}

// decode unmarshals a JSON response into v.
func (r *response) decode(v any) error {
	if !r.IsJSON {
		return unexpectedResponse(r.StatusCode, "expected JSON, got %q", truncate(string(r.Body), 80))
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return unexpectedResponse(r.StatusCode, "failed to decode response: %v", err)
	}
	return nil
}

// isArray reports whether the JSON body is an array.
func (r *response) isArray() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// text returns the body as a message: a JSON string is unquoted, anything else is returned verbatim.
func (r *response) text() string {
	var s string
	if err := json.Unmarshal(r.Body, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.Body))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func segment(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// ListMovies calls GET /movies?limit=N. The API answers with {"data": [...]} or a bare array.
func (a *MovieAPI) ListMovies(ctx context.Context, limit int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = DefaultMovieLimit
	}

	resp, err := a.do(ctx, request{
		method: http.MethodGet,
		path:   "/movies",
		query:  url.Values{"limit": {strconv.Itoa(limit)}},
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	if resp.isArray() {
		var movies []models.Movie
		if err := resp.decode(&movies); err != nil {
			return nil, err
		}
		return movies, nil
	}

	var envelope struct {
		Data *[]models.Movie `json:"data"`
	}
	if err := resp.decode(&envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, unexpectedResponse(resp.StatusCode, "movie list is missing data")
	}
	return *envelope.Data, nil
}

// Movie calls GET /movies/{title}.
func (a *MovieAPI) Movie(ctx context.Context, title string) (*models.Movie, error) {
	resp, err := a.do(ctx, request{method: http.MethodGet, path: segment("movies", title), auth: true})
	if err != nil {
		return nil, err
	}

	var movie models.Movie
	if err := resp.decode(&movie); err != nil {
		return nil, err
	}
	if movie.ID == "" && movie.Title == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, title)
	}
	return &movie, nil
}

// Genres calls GET /movies/genres/all.
func (a *MovieAPI) Genres(ctx context.Context) ([]models.Genre, error) {
	resp, err := a.do(ctx, request{method: http.MethodGet, path: "/movies/genres/all", auth: true})
	if err != nil {
		return nil, err
	}

	var genres []models.Genre
	if err := resp.decode(&genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// Genre calls GET /movies/genres/{name}, which answers with either the genre or its movies.
func (a *MovieAPI) Genre(ctx context.Context, name string) (*models.GenreDetails, error) {
	resp, err := a.do(ctx, request{method: http.MethodGet, path: segment("movies", "genres", name), auth: true})
	if err != nil {
		return nil, err
	}

	details := &models.GenreDetails{Genre: models.Genre{Name: name}}
	if resp.isArray() {
		if err := resp.decode(&details.Movies); err != nil {
			return nil, err
		}
		for _, m := range details.Movies {
			for _, g := range m.Genres {
				if strings.EqualFold(g.Name, name) && g.Description != "" {
					details.Genre = g
				}
			}
		}
		return details, nil
	}

	var genre models.Genre
	if err := resp.decode(&genre); err != nil {
		return nil, err
	}
	if genre.Name == "" {
		return nil, unexpectedResponse(resp.StatusCode, "genre %q has no name", name)
	}
	details.Genre = genre
	return details, nil
}

// Directors calls GET /movies/directors/all.
func (a *MovieAPI) Directors(ctx context.Context) ([]models.Director, error) {
	resp, err := a.do(ctx, request{method: http.MethodGet, path: "/movies/directors/all", auth: true})
	if err != nil {
		return nil, err
	}

	var directors []models.Director
	if err := resp.decode(&directors); err != nil {
		return nil, err
	}
	return directors, nil
}

// Director calls GET /movies/directors/{name}.
func (a *MovieAPI) Director(ctx context.Context, name string) (*models.Director, error) {
	resp, err := a.do(ctx, request{method: http.MethodGet, path: segment("movies", "directors", name), auth: true})
	if err != nil {
		return nil, err
	}

	var director models.Director
	if err := resp.decode(&director); err != nil {
		return nil, err
	}
	if director.Name == "" {
		return nil, unexpectedResponse(resp.StatusCode, "director %q has no name", name)
	}
	return &director, nil
}

// Register calls POST /users. The API answers with text or the created user.
func (a *MovieAPI) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	resp, err := a.do(ctx, request{method: http.MethodPost, path: "/users", body: req})
	if err != nil {
		return "", err
	}

	if resp.IsJSON && !resp.isArray() {
		var user models.User
		if err := resp.decode(&user); err == nil && user.Username != "" {
			return fmt.Sprintf("User %s has been registered.", user.Username), nil
		}
	}
	return resp.text(), nil
}

// Login calls POST /login. The result must carry a token and a username.
func (a *MovieAPI) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	resp, err := a.do(ctx, request{method: http.MethodPost, path: "/login", body: req})
	if err != nil {
		return nil, err
	}

	var result models.LoginResult
	if err := resp.decode(&result); err != nil {
		return nil, err
	}
	if result.Token == "" || result.User == nil || result.User.Username == "" {
		return nil, unexpectedResponse(resp.StatusCode, "login response is missing token or user")
	}
	return &result, nil
}

// User calls GET /users/{username}.
func (a *MovieAPI) User(ctx context.Context, username string) (*models.User, error) {
	resp, err := a.do(ctx, request{method: http.MethodGet, path: segment("users", username), auth: true})
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := resp.decode(&user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		return nil, unexpectedResponse(resp.StatusCode, "user response is missing username")
	}
	return &user, nil
}

// UpdateUser calls PUT /users/{username}. The API answers with {"user": {...}} or the bare user.
func (a *MovieAPI) UpdateUser(ctx context.Context, username string, req models.UpdateUserRequest) (*models.User, error) {
	resp, err := a.do(ctx, request{method: http.MethodPut, path: segment("users", username), body: req, auth: true})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		User *models.User `json:"user"`
	}
	if err := resp.decode(&envelope); err != nil {
		return nil, err
	}

	user := envelope.User
	if user == nil {
		user = &models.User{}
		if err := resp.decode(user); err != nil {
			return nil, err
		}
	}
	if user.Username == "" {
		return nil, unexpectedResponse(resp.StatusCode, "update response is missing username")
	}
	return user, nil
}

// DeleteUser calls DELETE /users/{username}.
func (a *MovieAPI) DeleteUser(ctx context.Context, username string) error {
	_, err := a.do(ctx, request{method: http.MethodDelete, path: segment("users", username), auth: true})
	return err
}

// AddFavorite calls PUT /users/{username}/{movieID}.
func (a *MovieAPI) AddFavorite(ctx context.Context, username, movieID string) error {
	_, err := a.do(ctx, request{method: http.MethodPut, path: segment("users", username, movieID), auth: true})
	return err
}

// RemoveFavorite calls DELETE /users/{username}/{movieID}.
func (a *MovieAPI) RemoveFavorite(ctx context.Context, username, movieID string) error {
	_, err := a.do(ctx, request{method: http.MethodDelete, path: segment("users", username, movieID), auth: true})
	return err
}

// IsUnauthorized reports whether err is an authorization failure from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
