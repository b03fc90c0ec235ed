package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/client"
	"github.com/dmitrijs2005/mediminder/internal/client/config"
	"github.com/dmitrijs2005/mediminder/internal/client/engine"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/services"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	engine *engine.Engine

	auth   services.AuthService
	meds   services.MedicationService
	intake services.IntakeService
	appts  services.AppointmentService
	undo   services.UndoService
	now    services.Clock

	reader *bufio.Reader
	out    io.Writer
	logger logging.Logger

	mu       sync.Mutex
	mode     Mode
	busy     bool
	known    map[models.Collection]string
	changed  map[models.Collection]bool
	lastUndo *models.PendingUndo
	unsub    func()
}

func NewApp(rt *client.Runtime, logger logging.Logger) *App {
	a := &App{
		config:  rt.Config,
		engine:  rt.Engine,
		auth:    rt.Auth,
		meds:    rt.Medications,
		intake:  rt.Intake,
		appts:   rt.Appointments,
		undo:    rt.Undo,
		now:     rt.Now,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		logger:  logger,
		known:   map[models.Collection]string{},
		changed: map[models.Collection]bool{},
	}
	a.snapshot()
	a.unsub = rt.Notifier.Subscribe(a.onChange)
	return a
}

func (a *App) fingerprint(c models.Collection) string {
	var b strings.Builder
	for _, raw := range a.engine.Collection(c) {
		b.Write(raw)
		b.WriteByte('\n')
	}
	return b.String()
}

// onChange flags c when its content moved away from what the user last
// saw. Notifications raised while a command runs are the command's own.
func (a *App) onChange(c models.Collection) {
	fp := a.fingerprint(c)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy || a.known[c] == fp {
		return
	}
	a.known[c] = fp
	a.changed[c] = true
	a.logger.Info(context.Background(), "collection changed remotely", "collection", c)
}

func (a *App) snapshot() {
	fps := make(map[models.Collection]string, 3)
	for _, c := range models.AllCollections() {
		fps[c] = a.fingerprint(c)
	}
	a.mu.Lock()
	a.known = fps
	a.mu.Unlock()
}

// run executes one command. Changes it makes are taken as seen.
func (a *App) run(fn func() error) error {
	a.mu.Lock()
	a.busy = true
	a.mu.Unlock()
	defer func() {
		a.snapshot()
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()
	return fn()
}

// resetChanges drops all change flags, e.g. when the session switches.
func (a *App) resetChanges() {
	a.mu.Lock()
	a.changed = map[models.Collection]bool{}
	a.mu.Unlock()
}

// seen clears the change flag of c after the user looked at it.
func (a *App) seen(c models.Collection) {
	a.mu.Lock()
	delete(a.changed, c)
	a.mu.Unlock()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.engine.State() == engine.StateLoggedIn
}

// getStatus renders the prompt status, e.g. "(Anna online, updated: appointments)".
func (a *App) getStatus() string {
	var parts []string
	if a.isLoggedIn() {
		parts = append(parts, a.engine.User().Name)
	}
	a.mu.Lock()
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	var changed []string
	for c := range a.changed {
		changed = append(changed, string(c))
	}
	a.mu.Unlock()

	s := strings.Join(parts, " ")
	if len(changed) > 0 {
		sort.Strings(changed)
		if s != "" {
			s += ", "
		}
		s += "updated: " + strings.Join(changed, ",")
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// connectivity mode until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.auth.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// Close detaches the app from change notifications.
func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
}
