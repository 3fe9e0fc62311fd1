package services

import (
	"context"

	"github.com/desertthunder/flix/internal/models"
)

// Client is the movie API as seen by the CLI and TUI. [MovieAPI] implements it.
//
// Every method except Login and Register requires an authenticated session.
type Client interface {
	// ListMovies returns up to limit movies. A limit of zero or less uses [DefaultMovieLimit].
	ListMovies(ctx context.Context, limit int) ([]models.Movie, error)

	// Movie looks up a single movie by title.
	Movie(ctx context.Context, title string) (*models.Movie, error)

	Genres(ctx context.Context) ([]models.Genre, error)
	Genre(ctx context.Context, name string) (*models.GenreDetails, error)
	Directors(ctx context.Context) ([]models.Director, error)
	Director(ctx context.Context, name string) (*models.Director, error)

	// Register creates an account and returns the server's confirmation text.
	Register(ctx context.Context, req models.RegisterRequest) (string, error)

	// Login exchanges credentials for a token. It does not touch the session; callers do.
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)

	User(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, username string, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error

	// AddFavorite and RemoveFavorite report success for any 2xx response.
	AddFavorite(ctx context.Context, username, movieID string) error
	RemoveFavorite(ctx context.Context, username, movieID string) error
}
