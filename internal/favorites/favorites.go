// package favorites keeps the signed-in user's favorite movies in sync with the API.
//
// A [Controller] caches the favorite movie IDs of one user. The server is the source of truth: the
// cache is replaced by [Controller.Load] and only changed by [Controller.Toggle] after the server
// confirms the change. At most one toggle per movie ID is in flight at a time.
//
// The cache is invalidated on every session change (see [Controller.HandleSessionChange]); responses
// that arrive after an invalidation are dropped. The pending set is not part of the cache: a movie stays
// pending until its own request finishes, across invalidations.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
)

var (
	// ErrLoadFailed wraps every [Controller.Load] failure so callers can tell it apart from an empty list.
	ErrLoadFailed = shared.ErrFavoritesLoadFailed

	// ErrTogglePending is returned when a toggle for the same movie is still in flight.
	ErrTogglePending = errors.New("favorite toggle already in progress")
)

// Toast texts shown to the user.
const (
	MsgAdded         = "Movie added to favorites."
	MsgRemoved       = "Movie removed from favorites."
	MsgAddFailed     = "Failed to add movie to favorites."
	MsgRemoveFailed  = "Failed to remove movie from favorites."
	MsgLoadFailed    = "Failed to load favorite movies. Please try again later."
	MsgLoadMalformed = "Unexpected response from server while fetching favorites."
)

// API is the part of the movie API the controller needs.
type API interface {
	User(ctx context.Context, username string) (*models.User, error)
	AddFavorite(ctx context.Context, username, movieID string) error
	RemoveFavorite(ctx context.Context, username, movieID string) error
}

// Action is the direction of a toggle.
type Action int

const (
	Added Action = iota
	Removed
)

func (a Action) String() string {
	if a == Removed {
		return "removed"
	}
	return "added"
}

// Result describes a finished toggle.
type Result struct {
	MovieID string
	Action  Action
	// Favorite is the movie's status after the toggle as far as the cache knows.
	Favorite bool
	// Stale is set when the cache was invalidated while the request was in flight. The server outcome is
	// not applied to the cache; a failed stale toggle still returns its error.
	Stale bool
}

// State is a copy of the cache for rendering.
type State struct {
	Username string
	Loaded   bool
	MovieIDs []string
	Pending  []string
}

type change struct {
	revision uint64
	movieID  string
	favorite bool
}

// Controller owns the favorites cache. It is safe for concurrent use.
type Controller struct {
	api      API
	notifier models.Notifier
	logger   *log.Logger

	mu       sync.Mutex
	username string
	loaded   bool
	movieIDs map[string]struct{}

	// pending holds movie IDs with a request in flight. Only the toggle that added an ID removes it.
	pending map[string]struct{}

	// generation changes on every invalidation; results started under an older generation are dropped.
	generation uint64

	// revision counts confirmed toggles. While loads are in flight, confirmed toggles are journaled so a
	// load that started before them does not undo them.
	revision      uint64
	loadsInFlight int
	journal       []change
}

// New creates a [Controller]. notifier may be nil.
func New(api API, notifier models.Notifier, logger *log.Logger) *Controller {
	if notifier == nil {
		notifier = models.NotifierFunc(func(models.Toast) {})
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Controller{
		api:      api,
		notifier: notifier,
		logger:   logger.With("component", "favorites"),
		movieIDs: make(map[string]struct{}),
		pending:  make(map[string]struct{}),
	}
}

// resetLocked drops the cache and starts a new generation for username. Pending toggles are kept.
func (c *Controller) resetLocked(username string) {
	c.generation++
	c.username = username
	c.loaded = false
	c.movieIDs = make(map[string]struct{})
	c.journal = nil
}

// HandleSessionChange invalidates the cache. Bind it with [session.Store.Observe].
func (c *Controller) HandleSessionChange(s session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	username := ""
	if s.LoggedIn {
		username = s.Username
	}
	c.resetLocked(username)
	c.logger.Debug("cache invalidated", "username", username, "generation", c.generation)
}

// Load fetches the favorites of username and replaces the cache with them.
//
// On failure the cache keeps its previous contents and the error wraps [ErrLoadFailed].
func (c *Controller) Load(ctx context.Context, username string) ([]string, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, shared.ErrNotAuthenticated)
	}

	c.mu.Lock()
	if c.username != username {
		c.resetLocked(username)
	}
	gen, startRev := c.generation, c.revision
	c.loadsInFlight++
	c.mu.Unlock()

	user, err := c.api.User(ctx, username)
	if err == nil && user.FavoriteMovies == nil {
		err = fmt.Errorf("%w: user %s has no favMovies", shared.ErrUnexpectedResponse, username)
	}

	c.mu.Lock()
	c.loadsInFlight--
	current := gen == c.generation

	var ids map[string]struct{}
	if err == nil {
		ids = make(map[string]struct{}, len(user.FavoriteMovies))
		for _, id := range user.FavoriteMovies {
			ids[id] = struct{}{}
		}
		if current {
			for _, ch := range c.journal {
				if ch.revision <= startRev {
					continue
				}
				if ch.favorite {
					ids[ch.movieID] = struct{}{}
				} else {
					delete(ids, ch.movieID)
				}
			}
			c.movieIDs = ids
			c.loaded = true
		}
	}
	if c.loadsInFlight == 0 {
		c.journal = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to load favorites", "username", username, "error", err)
		if current {
			c.notify(models.ToastError, loadFailureMessage(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	if !current {
		c.logger.Debug("dropping stale favorites load", "username", username)
	} else {
		c.logger.Debug("favorites loaded", "username", username, "count", len(ids))
	}
	return sortedKeys(ids), nil
}

// IsFavorite reports whether movieID is in the cache. It is false when nothing is cached.
func (c *Controller) IsFavorite(movieID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.movieIDs[movieID]
	return ok
}

// IsPending reports whether a toggle for movieID is in flight.
func (c *Controller) IsPending(movieID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[movieID]
	return ok
}

// Toggle adds movieID to the favorites of username, or removes it when the cache says it is already
// a favorite. The cache is changed only after the server confirms.
//
// A toggle for a movie that is already in flight returns [ErrTogglePending] without calling the API.
// Toggling for a user that has not been loaded starts from an empty cache.
func (c *Controller) Toggle(ctx context.Context, username, movieID string) (Result, error) {
	if username == "" {
		return Result{}, shared.ErrNotAuthenticated
	}
	if movieID == "" {
		return Result{}, fmt.Errorf("%w: movie id is required", shared.ErrInvalidInput)
	}

	c.mu.Lock()
	if c.username != username {
		c.resetLocked(username)
	}
	if _, busy := c.pending[movieID]; busy {
		c.mu.Unlock()
		return Result{MovieID: movieID}, ErrTogglePending
	}
	_, wasFavorite := c.movieIDs[movieID]
	c.pending[movieID] = struct{}{}
	gen := c.generation
	c.mu.Unlock()

	action := Added
	var err error
	if wasFavorite {
		action = Removed
		err = c.api.RemoveFavorite(ctx, username, movieID)
	} else {
		err = c.api.AddFavorite(ctx, username, movieID)
	}

	c.mu.Lock()
	delete(c.pending, movieID)
	current := gen == c.generation
	if current && err == nil {
		c.applyLocked(movieID, !wasFavorite)
	}
	c.mu.Unlock()

	result := Result{MovieID: movieID, Action: action, Favorite: wasFavorite, Stale: !current}
	if !current {
		if err != nil {
			c.logger.Warn("toggle failed after session change", "movie_id", movieID, "action", action, "error", err)
			return result, err
		}
		c.logger.Debug("dropping stale toggle", "movie_id", movieID, "action", action)
		return result, nil
	}

	if err != nil {
		c.logger.Error("toggle failed", "movie_id", movieID, "action", action, "error", err)
		c.notify(models.ToastError, toggleFailureMessage(action, err))
		return result, err
	}

	result.Favorite = !wasFavorite
	c.logger.Info("favorite toggled", "movie_id", movieID, "action", action)
	if action == Added {
		c.notify(models.ToastSuccess, MsgAdded)
	} else {
		c.notify(models.ToastSuccess, MsgRemoved)
	}
	return result, nil
}

func (c *Controller) applyLocked(movieID string, favorite bool) {
	if favorite {
		c.movieIDs[movieID] = struct{}{}
	} else {
		delete(c.movieIDs, movieID)
	}

	c.revision++
	if c.loadsInFlight > 0 {
		c.journal = append(c.journal, change{revision: c.revision, movieID: movieID, favorite: favorite})
	}
}

// Snapshot returns a copy of the cache.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Username: c.username,
		Loaded:   c.loaded,
		MovieIDs: sortedKeys(c.movieIDs),
		Pending:  sortedKeys(c.pending),
	}
}

func (c *Controller) notify(level models.ToastLevel, msg string) {
	c.notifier.Notify(models.Toast{Level: level, Message: msg})
}

func loadFailureMessage(err error) string {
	if errors.Is(err, shared.ErrUnexpectedResponse) {
		return MsgLoadMalformed
	}
	return MsgLoadFailed
}

func toggleFailureMessage(action Action, err error) string {
	prefix := MsgAddFailed
	if action == Removed {
		prefix = MsgRemoveFailed
	}
	if msg := services.Message(err); msg != "" {
		return prefix + " " + msg
	}
	return prefix
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
