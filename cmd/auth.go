package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in and stores the session cookie for later commands.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	username := cmd.String("username")
	r.logger.Info("signing in", "user", username, "backend", r.backend.BaseURL())

	res, err := session.Login(ctx, username, cmd.String("password"))
	if err := authError(res, err); err != nil {
		return err
	}

	r.logger.Info("authentication successful", "user", res.Username)
	r.writePlain("✓ Signed in as %s\n", res.Username)
	return r.reportReturnPath()
}

// AuthRegister creates an account and signs in as the new user.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	username := cmd.String("username")
	password := cmd.String("password")
	confirm := cmd.String("confirm")
	if confirm == "" {
		confirm = password
	}

	r.logger.Info("registering", "user", username, "backend", r.backend.BaseURL())

	res, err := session.Register(ctx, username, password, confirm)
	if err := authError(res, err); err != nil {
		return err
	}

	r.writePlain("✓ Account created, signed in as %s\n", res.Username)
	return r.reportReturnPath()
}

// AuthLogout ends the session on the backend and forgets the stored cookie.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	if !session.Authenticated() {
		return r.writePlain("Not signed in\n")
	}

	username := session.Username()
	if err := session.Logout(ctx); err != nil {
		r.logger.Warn("backend logout failed, local session cleared", "error", err)
	}
	return r.writePlain("✓ Signed out %s\n", username)
}

// AuthStatus reports which user owns the stored session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"backend":       r.backend.BaseURL(),
			"authenticated": session.Authenticated(),
			"username":      session.Username(),
		}, true)
	}

	r.writePlain("Backend: %s\n", r.backend.BaseURL())
	if session.Authenticated() {
		return r.writePlain("Authentication: ✓ Signed in as %s\n", session.Username())
	}
	return r.writePlain("Authentication: ✗ Not signed in\n")
}

// reportReturnPath tells the user where an earlier command was redirected from.
func (r *Runner) reportReturnPath() error {
	if r.store == nil {
		return nil
	}
	path, err := r.store.TakeReturnPath()
	if err != nil {
		r.logger.Warn("failed to read return path", "error", err)
		return nil
	}
	if path == "" {
		return nil
	}
	return r.writePlain("Continue where you left off: %s\n", path)
}

// authError turns a refused or invalid sign in into an error carrying the user-facing message.
func authError(res services.AuthResult, err error) error {
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return fmt.Errorf("%w: %s", shared.ErrInvalidInput, shared.ValidationMessage(err))
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if res.OK {
		return nil
	}

	switch res.Reason {
	case services.ReasonUsernameTaken:
		return fmt.Errorf("%w: %s", shared.ErrUsernameTaken, res.Message)
	case services.ReasonInvalidCredentials:
		return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, res.Message)
	default:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Message)
	}
}
