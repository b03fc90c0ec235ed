package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mediminder/internal/client/services"
)

// Root runs the interactive session until the user exits or ctx is done.
func (a *App) Root(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	if a.config.Seed && services.SeedSampleData(a.engine, a.now) {
		fmt.Fprintln(a.out, "Sample data added.")
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	a.checkOnline(ctx)

	fmt.Fprintf(a.out, "Hello, %s! Type help for commands.\n", a.engine.User().Name)
	return runREPL(ctx, a, a.getStatus, a.reader)
}
