package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/account"
	"github.com/desertthunder/flix/internal/favorites"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/validation"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session stack (database, session store, API client, favorites, account) is built on first use so
// that setup commands work before a database exists.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	toasts     *toastRelay

	storage session.Storage
	db      *sql.DB

	store     *session.Store
	api       *services.MovieAPI
	favorites *favorites.Controller
	account   *account.Service
	unbind    func()
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// Storage replaces the SQLite local storage.
	Storage session.Storage
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		storage:    opts.Storage,
	}
	r.toasts = &toastRelay{target: printNotifier{r: r}}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, genresCommand, directorsCommand, favoritesCommand, profileCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger. Call it before the session stack is opened.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// open builds the session stack once.
func (r *Runner) open() error {
	if r.store != nil {
		return nil
	}

	if r.storage == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open local storage: %w", err)
		}
		r.db = db
		r.storage = repositories.NewLocalStorage(db)
	}

	r.store = session.NewStore(r.storage, r.logger)
	r.api = services.NewMovieAPI(services.Options{
		BaseURL:           r.config.API.BaseURL,
		HTTPClient:        r.httpClient,
		Tokens:            r.store,
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Logger:            r.logger,
		OnUnauthorized:    r.forceLogout,
	})
	r.favorites = favorites.New(r.api, r.toasts, r.logger)
	r.unbind = r.store.Observe(r.favorites.HandleSessionChange)
	r.account = account.New(r.api, r.store, validation.New(), r.toasts, r.logger)
	return nil
}

// forceLogout ends the session after the API rejected its token. A rejection of a token that a newer
// login already replaced is ignored.
func (r *Runner) forceLogout(token string) {
	ended, err := r.store.Expire(token)
	if err != nil {
		r.logger.Error("failed to clear session", "error", err)
	}
	if !ended {
		return
	}
	r.logger.Warn("session rejected by the API, logged out")
	r.toasts.Notify(models.Toast{Level: models.ToastError, Message: "Your session has expired. Please log in again."})
}

// requireLogin opens the stack and returns the current session, failing when nobody is logged in.
func (r *Runner) requireLogin() (session.Session, error) {
	if err := r.open(); err != nil {
		return session.Session{}, err
	}
	current := r.store.Current()
	if !current.LoggedIn {
		return current, fmt.Errorf("%w: run 'flix auth login' first", shared.ErrNotAuthenticated)
	}
	return current, nil
}

// Close releases the database.
func (r *Runner) Close() error {
	if r.unbind != nil {
		r.unbind()
		r.unbind = nil
	}
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// toastRelay forwards toasts to a target that can be swapped, so the TUI can take over from the CLI printer.
type toastRelay struct {
	mu     sync.Mutex
	target models.Notifier
}

func (t *toastRelay) Notify(toast models.Toast) {
	t.mu.Lock()
	target := t.target
	t.mu.Unlock()
	target.Notify(toast)
}

func (t *toastRelay) set(n models.Notifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = n
}

// printNotifier writes toasts as status lines.
type printNotifier struct {
	r *Runner
}

func (p printNotifier) Notify(t models.Toast) {
	switch t.Level {
	case models.ToastSuccess:
		p.r.writePlain("✓ %s\n", t.Message)
	case models.ToastError:
		p.r.writePlain("✗ %s\n", t.Message)
	default:
		p.r.writePlain("• %s\n", t.Message)
	}
}
