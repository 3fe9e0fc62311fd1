package account

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
	"github.com/desertthunder/flix/internal/validation"
)

type toasts struct {
	mu   sync.Mutex
	list []models.Toast
}

func (t *toasts) Notify(toast models.Toast) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.list = append(t.list, toast)
}

func (t *toasts) last() models.Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.list) == 0 {
		return models.Toast{}
	}
	return t.list[len(t.list)-1]
}

type fixture struct {
	fake   *tu.FakeAPI
	store  *session.Store
	svc    *Service
	toasts *toasts
}

func setup(t *testing.T) fixture {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	fake := tu.NewFakeAPI(t)
	store := session.NewStore(session.NewMemoryStorage(nil), logger)
	api := services.NewMovieAPI(services.Options{
		BaseURL:        fake.URL(),
		Tokens:         store,
		Logger:         logger,
		OnUnauthorized: func(token string) { _, _ = store.Expire(token) },
	})
	rec := &toasts{}
	return fixture{fake: fake, store: store, svc: New(api, store, validation.New(), rec, logger), toasts: rec}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("starts a session", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!", "m1")

		user, err := f.svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "Secret1!"})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, session.Session{LoggedIn: true, Username: "alice", Token: token}, f.store.Current())
		assert.Equal(t, models.Toast{Level: models.ToastSuccess, Message: "Login successful! Welcome, alice!"}, f.toasts.last())
	})

	t.Run("wrong password keeps session", func(t *testing.T) {
		f := setup(t)
		f.fake.AddUser("alice", "Secret1!")

		_, err := f.svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.False(t, f.store.Current().LoggedIn)
		assert.Equal(t, "Error: Incorrect username or password.", f.toasts.last().Message)
	})

	t.Run("empty form sends nothing", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.Login(ctx, models.LoginRequest{Username: "alice"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, "Password is required.", FieldErrors(err).Field("password"))
		assert.Empty(t, f.fake.Calls())
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account without signing in", func(t *testing.T) {
		f := setup(t)

		msg, err := f.svc.Register(ctx, models.RegisterRequest{
			Username: "bobby1", Password: "Secret1!", Email: "bob@example.com", Birthday: "1990-04-12",
		})
		require.NoError(t, err)
		assert.Equal(t, "User bobby1 has been registered.", msg)
		assert.True(t, f.fake.HasUser("bobby1"))
		assert.False(t, f.store.Current().LoggedIn)
		assert.Equal(t, "Registration successful! Welcome, bobby1!", f.toasts.last().Message)
	})

	t.Run("invalid form sends nothing", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.Register(ctx, models.RegisterRequest{Username: "bob", Password: "weak", Email: "x"})
		errs := FieldErrors(err)
		require.NotNil(t, errs)
		assert.Len(t, errs, 3)
		assert.Empty(t, f.fake.Calls())
		assert.Equal(t, models.ToastError, f.toasts.last().Level)
	})

	t.Run("server rejection surfaces message", func(t *testing.T) {
		f := setup(t)
		f.fake.AddUser("bobby1", "Secret1!")

		_, err := f.svc.Register(ctx, models.RegisterRequest{Username: "bobby1", Password: "Secret1!", Email: "bob@example.com"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, "Error: bobby1 already exists", f.toasts.last().Message)
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("requires session", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.Profile(ctx)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		_, err = f.svc.UpdateProfile(ctx, models.UpdateUserRequest{Email: "a@b.co"})
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.ErrorIs(t, f.svc.DeleteAccount(ctx), shared.ErrNotAuthenticated)
		assert.Empty(t, f.fake.Calls())
	})

	t.Run("fetch", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!", "m1", "m2")
		require.NoError(t, f.store.Login("alice", token))

		user, err := f.svc.Profile(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"m1", "m2"}, user.FavoriteMovies)
	})

	t.Run("rename restarts session with same token", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!")
		require.NoError(t, f.store.Login("alice", token))

		var seen []session.Session
		cancel := f.store.Observe(func(s session.Session) { seen = append(seen, s) })
		defer cancel()

		user, err := f.svc.UpdateProfile(ctx, models.UpdateUserRequest{Username: "alice2"})
		require.NoError(t, err)
		assert.Equal(t, "alice2", user.Username)
		assert.Equal(t, session.Session{LoggedIn: true, Username: "alice2", Token: token}, f.store.Current())
		assert.Len(t, seen, 2)
		assert.Equal(t, MsgProfileUpdated, f.toasts.last().Message)
	})

	t.Run("email change keeps the session", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!")
		require.NoError(t, f.store.Login("alice", token))

		emitted := 0
		cancel := f.store.Observe(func(session.Session) { emitted++ })
		defer cancel()

		user, err := f.svc.UpdateProfile(ctx, models.UpdateUserRequest{Email: "alice@new.example"})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, 1, emitted, "only the replayed value")
		assert.Equal(t, MsgProfileUpdated, f.toasts.last().Message)
	})

	t.Run("empty update", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!")
		require.NoError(t, f.store.Login("alice", token))

		_, err := f.svc.UpdateProfile(ctx, models.UpdateUserRequest{})
		assert.ErrorIs(t, err, ErrNothingToUpdate)
		assert.Equal(t, 0, f.fake.CallCount(http.MethodPut, "/users/"))
	})

	t.Run("password change needs current password", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!")
		require.NoError(t, f.store.Login("alice", token))

		_, err := f.svc.UpdateProfile(ctx, models.UpdateUserRequest{NewPassword: "Secret2!"})
		assert.Equal(t, "Current password is required.", FieldErrors(err).Field("currentPassword"))

		_, err = f.svc.UpdateProfile(ctx, models.UpdateUserRequest{CurrentPassword: "wrong", NewPassword: "Secret2!"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, MsgUpdateFailed, f.toasts.last().Message)

		_, err = f.svc.UpdateProfile(ctx, models.UpdateUserRequest{CurrentPassword: "Secret1!", NewPassword: "Secret2!"})
		require.NoError(t, err)
		_, err = f.svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "Secret2!"})
		assert.NoError(t, err)
	})

	t.Run("delete ends session", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!")
		require.NoError(t, f.store.Login("alice", token))

		require.NoError(t, f.svc.DeleteAccount(ctx))
		assert.False(t, f.fake.HasUser("alice"))
		assert.Equal(t, session.Session{}, f.store.Current())
		assert.Equal(t, MsgProfileDeleted, f.toasts.last().Message)
	})

	t.Run("delete failure keeps session", func(t *testing.T) {
		f := setup(t)
		token := f.fake.AddUser("alice", "Secret1!")
		require.NoError(t, f.store.Login("alice", token))
		f.fake.Fail(http.MethodDelete, "/users/alice", http.StatusInternalServerError, "")

		assert.ErrorIs(t, f.svc.DeleteAccount(ctx), shared.ErrAPIRequest)
		assert.True(t, f.store.Current().LoggedIn)
		assert.Equal(t, MsgDeleteFailed, f.toasts.last().Message)
	})
}

func TestLogout(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.Login("alice", "t1"))

	require.NoError(t, f.svc.Logout())
	assert.Equal(t, session.Session{}, f.store.Current())
	assert.Equal(t, models.Toast{Level: models.ToastInfo, Message: MsgLoggedOut}, f.toasts.last())
}
