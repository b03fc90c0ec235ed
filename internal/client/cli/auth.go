package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediminder/internal/common"
)

var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.auth.Register(ctx, email, password, fullName); err != nil {
		return a.authFailed(err)
	}
	a.setMode(ModeOnline)
	a.resetChanges()
	fmt.Fprintf(a.out, "Welcome, %s!\n", a.engine.User().Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.auth.Login(ctx, email, password); err != nil {
		return a.authFailed(err)
	}
	a.setMode(ModeOnline)
	a.resetChanges()
	fmt.Fprintf(a.out, "Logged in as %s. %d medications, %d appointments.\n",
		a.engine.User().Name, len(a.meds.List()), len(a.appts.List()))
	return nil
}

// authFailed keeps the tracker usable on local data when the server is gone.
func (a *App) authFailed(err error) error {
	if errors.Is(err, common.ErrUnavailable) {
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Server unavailable, continuing with local data.")
		return nil
	}
	return err
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	a.mu.Lock()
	a.lastUndo = nil
	a.mu.Unlock()
	a.resetChanges()
	fmt.Fprintln(a.out, "Logged out, local data cleared.")
	return nil
}
