package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/account"
	"github.com/desertthunder/flix/internal/models"
)

// AuthLogin checks the credentials with the API and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.account.Login(ctx, models.LoginRequest{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
	})
	if err != nil {
		r.writeFieldErrors(err)
		return fmt.Errorf("login failed: %w", err)
	}

	r.logger.Debug("logged in", "username", user.Username)
	return nil
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	msg, err := r.account.Register(ctx, models.RegisterRequest{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
		Birthday: cmd.String("birthday"),
	})
	if err != nil {
		r.writeFieldErrors(err)
		return fmt.Errorf("registration failed: %w", err)
	}

	if msg != "" {
		r.logger.Info(msg)
	}
	r.writePlain("Run 'flix auth login --username %s' to sign in\n", cmd.String("username"))
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	return r.account.Logout()
}

type authStatus struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
}

// AuthStatus reports the stored session without contacting the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	current := r.account.Session()
	status := authStatus{LoggedIn: current.LoggedIn, Username: current.Username}
	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.LoggedIn {
		r.writePlain("Not logged in\n")
		return nil
	}
	r.writePlain("Logged in as %s\n", status.Username)
	return nil
}

// writeFieldErrors prints one line per invalid field.
func (r *Runner) writeFieldErrors(err error) {
	for _, fe := range account.FieldErrors(err) {
		r.writePlain("  %s: %s\n", fe.Field, fe.Message)
	}
}
