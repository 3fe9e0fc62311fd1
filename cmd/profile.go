package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/account"
	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// ProfileShow prints the logged-in user's account.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}

	user, err := r.account.Profile(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Profile")
	r.writePlain("%s", formatter.Profile(user))
	return nil
}

// ProfileUpdate sends the flags that were given. The session follows a username change.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}

	user, err := r.account.UpdateProfile(ctx, models.UpdateUserRequest{
		Username:        cmd.String("username"),
		Email:           cmd.String("email"),
		Birthday:        cmd.String("birthday"),
		CurrentPassword: cmd.String("current-password"),
		NewPassword:     cmd.String("new-password"),
	})
	if errors.Is(err, account.ErrNothingToUpdate) {
		return fmt.Errorf("%w: pass at least one of --username, --email, --birthday or --new-password", shared.ErrMissingArgument)
	}
	if err != nil {
		r.writeFieldErrors(err)
		return err
	}

	r.writePlain("%s", formatter.Profile(user))
	return nil
}

// ProfileDelete deletes the account after --yes and logs out.
func (r *Runner) ProfileDelete(ctx context.Context, cmd *cli.Command) error {
	current, err := r.requireLogin()
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		r.writePlain("This permanently deletes the account %s. Re-run with --yes to confirm.\n", current.Username)
		return nil
	}
	return r.account.DeleteAccount(ctx)
}
