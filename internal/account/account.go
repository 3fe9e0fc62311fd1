// package account implements the sign-in, registration and profile flows shared by the CLI and the TUI.
//
// Each flow validates its form, calls the API, updates the session and reports the outcome as a toast.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/validation"
)

const (
	MsgLoggedOut       = "You have been logged out."
	MsgProfileUpdated  = "Profile updated successfully!"
	MsgProfileDeleted  = "Profile deleted successfully!"
	MsgUpdateFailed    = "Error updating profile."
	MsgDeleteFailed    = "Error deleting profile."
	MsgProfileFailed   = "Error fetching user data."
	MsgNothingToUpdate = "Nothing to update."
)

// ErrNothingToUpdate is returned by [Service.UpdateProfile] for an empty request.
var ErrNothingToUpdate = fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)

// Service runs account flows against the API and the session.
type Service struct {
	api       services.Client
	store     *session.Store
	validator *validation.Validator
	notifier  models.Notifier
	logger    *log.Logger
}

// New creates a [Service]. notifier may be nil.
func New(api services.Client, store *session.Store, v *validation.Validator, notifier models.Notifier, logger *log.Logger) *Service {
	if notifier == nil {
		notifier = models.NotifierFunc(func(models.Toast) {})
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if v == nil {
		v = validation.New()
	}
	return &Service{api: api, store: store, validator: v, notifier: notifier, logger: logger.With("component", "account")}
}

// Login checks credentials with the API and starts a session.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		s.fail("Please enter both username and password.")
		return nil, err
	}

	result, err := s.api.Login(ctx, req)
	if err != nil {
		s.fail("Error: " + services.Message(err))
		return nil, err
	}

	if err := s.store.Login(result.User.Username, result.Token); err != nil {
		// the session is live in memory; it just won't survive a restart
		s.logger.Warn("session not persisted", "error", err)
	}
	s.notify(models.ToastSuccess, fmt.Sprintf("Login successful! Welcome, %s!", result.User.Username))
	return result.User, nil
}

// Register creates an account. It does not sign in.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		s.fail("Please fill all required fields correctly.")
		return "", err
	}

	msg, err := s.api.Register(ctx, req)
	if err != nil {
		s.fail("Error: " + services.Message(err))
		return "", err
	}

	s.notify(models.ToastSuccess, fmt.Sprintf("Registration successful! Welcome, %s!", req.Username))
	return msg, nil
}

// Logout ends the session.
func (s *Service) Logout() error {
	err := s.store.Logout()
	if err != nil {
		s.logger.Warn("logout not persisted", "error", err)
	}
	s.notify(models.ToastInfo, MsgLoggedOut)
	return err
}

// Profile fetches the signed-in user.
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	current, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	user, err := s.api.User(ctx, current.Username)
	if err != nil {
		s.fail(MsgProfileFailed)
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the signed-in user's account. When the server returns a different username the
// session is restarted under it with the same token; other edits leave the session alone.
func (s *Service) UpdateProfile(ctx context.Context, req models.UpdateUserRequest) (*models.User, error) {
	current, err := s.requireSession()
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		s.notify(models.ToastInfo, MsgNothingToUpdate)
		return nil, ErrNothingToUpdate
	}
	if err := s.validator.Struct(req); err != nil {
		s.fail("Please correct the form errors.")
		return nil, err
	}

	user, err := s.api.UpdateUser(ctx, current.Username, req)
	if err != nil {
		s.fail(MsgUpdateFailed)
		return nil, err
	}

	if user.Username != "" && user.Username != current.Username {
		if err := s.store.Login(user.Username, current.Token); err != nil {
			s.logger.Warn("session not persisted", "error", err)
		}
	}
	s.notify(models.ToastSuccess, MsgProfileUpdated)
	return user, nil
}

// DeleteAccount deletes the signed-in user and ends the session.
func (s *Service) DeleteAccount(ctx context.Context) error {
	current, err := s.requireSession()
	if err != nil {
		return err
	}

	if err := s.api.DeleteUser(ctx, current.Username); err != nil {
		s.fail(MsgDeleteFailed)
		return err
	}

	if err := s.store.Logout(); err != nil {
		s.logger.Warn("logout not persisted", "error", err)
	}
	s.notify(models.ToastSuccess, MsgProfileDeleted)
	return nil
}

// Session returns the current session.
func (s *Service) Session() session.Session {
	return s.store.Current()
}

func (s *Service) requireSession() (session.Session, error) {
	current := s.store.Current()
	if !current.LoggedIn {
		return current, shared.ErrNotAuthenticated
	}
	return current, nil
}

func (s *Service) notify(level models.ToastLevel, msg string) {
	s.notifier.Notify(models.Toast{Level: level, Message: msg})
}

func (s *Service) fail(msg string) {
	s.notify(models.ToastError, msg)
}

// FieldErrors returns the per-field messages of a validation failure, or nil.
func FieldErrors(err error) validation.Errors {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return errs
	}
	return nil
}
