// Package engine keeps the local cache and the remote backend in step across
// login, logout and every save.
//
// Reads always come from the local cache. Saves update the cache
// synchronously and, while a session is active, are pushed to the remote in
// the background. On login the engine migrates pre-existing local data to an
// empty remote, loads every collection, and subscribes to push events when
// the transport supports them. Remote failures never reach callers: they are
// logged and the last known local value is kept.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/localcache"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/notify"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"golang.org/x/sync/errgroup"
)

var ErrNoIdentity = errors.New("identity without user id")

type State int

const (
	StateLoggedOut State = iota
	StateLoggingIn
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggingIn:
		return "logging-in"
	case StateLoggedIn:
		return "logged-in"
	default:
		return "logged-out"
	}
}

type Options struct {
	// LoadTimeout bounds each remote read during login and push reloads.
	LoadTimeout time.Duration
	// PushTimeout bounds each background remote write.
	PushTimeout time.Duration
}

func (o *Options) withDefaults() {
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 15 * time.Second
	}
	if o.PushTimeout <= 0 {
		o.PushTimeout = 15 * time.Second
	}
}

type Engine struct {
	cache     *localcache.Cache
	transport remote.Transport
	notifier  *notify.Notifier
	logger    logging.Logger
	opts      Options
	writer    *writer

	// mu guards the session fields and serializes cache writes so that a
	// stale remote result can never land after a logout.
	mu        sync.Mutex
	state     State
	identity  *remote.Identity
	gen       uint64
	subCancel context.CancelFunc
	unsubs    []func()
	// writes counts local saves per target (collection name or
	// models.UserKey). A reload that started before a save must not
	// overwrite it.
	writes map[string]uint64
}

func New(cache *localcache.Cache, transport remote.Transport, notifier *notify.Notifier, logger logging.Logger, opts Options) *Engine {
	opts.withDefaults()
	logger = logger.With("component", "engine")
	return &Engine{
		cache:     cache,
		transport: transport,
		notifier:  notifier,
		logger:    logger,
		opts:      opts,
		writer:    newWriter(opts.PushTimeout, logger),
		writes:    make(map[string]uint64),
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Identity returns the active identity, if any.
func (e *Engine) Identity() (remote.Identity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.identity == nil {
		return remote.Identity{}, false
	}
	return *e.identity, true
}

// OnAuthenticated starts a session for id: migration, bulk load, then push
// subscriptions. It returns once the session is LoggedIn, or earlier if a
// logout or another login superseded it meanwhile.
func (e *Engine) OnAuthenticated(ctx context.Context, id remote.Identity) error {
	if id.UserID == "" {
		return ErrNoIdentity
	}

	e.mu.Lock()
	unsubs, cancel := e.detachSubscriptionsLocked()
	e.gen++
	gen := e.gen
	e.identity = &id
	e.state = StateLoggingIn
	e.mu.Unlock()
	stopSubscriptions(unsubs, cancel)

	e.logger.Info(ctx, "session starting", "user", id.UserID)

	e.migrate(ctx, gen, id)
	e.loadAll(ctx, gen, id)

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		e.logger.Info(ctx, "session superseded during login", "user", id.UserID)
		return nil
	}
	e.state = StateLoggedIn
	e.mu.Unlock()

	e.notifyAll()
	e.subscribe(gen, id)

	e.logger.Info(ctx, "session ready", "user", id.UserID)
	return nil
}

// OnSignedOut ends the session: subscriptions are cancelled and the local
// cache is reset so the next identity starts clean.
func (e *Engine) OnSignedOut(ctx context.Context) {
	e.mu.Lock()
	unsubs, cancel := e.detachSubscriptionsLocked()
	e.gen++
	e.identity = nil
	e.state = StateLoggedOut
	e.cache.Reset()
	e.mu.Unlock()
	stopSubscriptions(unsubs, cancel)

	e.logger.Info(ctx, "session ended")
	e.notifyAll()
}

// Flush waits until every queued remote push has been attempted.
func (e *Engine) Flush() {
	e.writer.flush()
}

// Close drains pending pushes and drops subscriptions. The engine must not
// be used afterwards.
func (e *Engine) Close() {
	e.writer.close()
	e.mu.Lock()
	unsubs, cancel := e.detachSubscriptionsLocked()
	e.mu.Unlock()
	stopSubscriptions(unsubs, cancel)
}

// migrate pushes local data to an empty remote. A non-empty remote, or one
// that cannot be checked, is never overwritten.
func (e *Engine) migrate(ctx context.Context, gen uint64, id remote.Identity) {
	log := e.logger.With("user", id.UserID)

	checkCtx, cancel := context.WithTimeout(ctx, e.opts.LoadTimeout)
	existing, err := e.transport.LoadCollection(checkCtx, id, models.Medications)
	cancel()
	if err != nil {
		log.Warn(ctx, "migration check failed, skipping migration", "error", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	local := make(map[models.Collection][]remote.Record, 3)
	empty := true
	for _, c := range models.AllCollections() {
		recs, err := remote.RecordsFromItems(e.cache.ReadCollection(c))
		if err != nil {
			log.Warn(ctx, "local collection unreadable, not migrated", "collection", c, "error", err)
			continue
		}
		local[c] = recs
		if len(recs) > 0 {
			empty = false
		}
	}
	if empty || !e.current(gen) {
		return
	}

	log.Info(ctx, "migrating local data to remote")
	for c, recs := range local {
		pushCtx, cancel := context.WithTimeout(ctx, e.opts.PushTimeout)
		err := e.transport.OverwriteCollection(pushCtx, id, c, recs)
		cancel()
		if err != nil {
			// No rollback: the remote may now be partially migrated.
			log.Error(ctx, "migration push failed", "collection", c, "error", err)
		}
	}

	profile := e.cache.ReadProfile()
	if profile.Email == "" {
		profile.Email = id.Email
	}
	pushCtx, cancel := context.WithTimeout(ctx, e.opts.PushTimeout)
	defer cancel()
	if err := e.transport.SaveProfile(pushCtx, id, profile); err != nil {
		log.Warn(ctx, "migration profile push failed", "error", err)
	}
}

func (e *Engine) loadAll(ctx context.Context, gen uint64, id remote.Identity) {
	var g errgroup.Group
	for _, c := range models.AllCollections() {
		g.Go(func() error {
			e.reloadCollection(ctx, gen, id, c)
			return nil
		})
	}
	g.Go(func() error {
		e.reloadProfile(ctx, gen, id)
		return nil
	})
	_ = g.Wait()
}

// reloadCollection copies the remote collection into the cache. It reports
// whether the cache was written; on a transport error or a changed session
// the local snapshot is left alone.
func (e *Engine) reloadCollection(ctx context.Context, gen uint64, id remote.Identity, c models.Collection) bool {
	ctx, cancel := context.WithTimeout(ctx, e.opts.LoadTimeout)
	defer cancel()

	seq := e.writeSeq(string(c))
	recs, err := e.transport.LoadCollection(ctx, id, c)
	if err != nil {
		e.logger.Warn(ctx, "remote load failed, keeping local snapshot",
			"user", id.UserID, "collection", c, "error", err)
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return false
	}
	// A local save made after the read started, or still queued for push,
	// is newer than anything this read returned.
	if e.writes[string(c)] != seq || e.writer.pendingFor(jobKey{userID: id.UserID, target: string(c)}) {
		return false
	}
	e.cache.WriteCollection(c, remote.Items(recs))
	return true
}

func (e *Engine) reloadProfile(ctx context.Context, gen uint64, id remote.Identity) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.LoadTimeout)
	defer cancel()

	seq := e.writeSeq(models.UserKey)
	p, err := e.transport.LoadProfile(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "remote profile load failed", "user", id.UserID, "error", err)
		return
	}
	if p == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen || e.writes[models.UserKey] != seq ||
		e.writer.pendingFor(jobKey{userID: id.UserID, target: models.UserKey}) {
		return
	}
	e.cache.WriteProfile(*p)
}

func (e *Engine) subscribe(gen uint64, id remote.Identity) {
	sub, ok := e.transport.(remote.Subscriber)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var unsubs []func()
	for _, c := range models.AllCollections() {
		unsub, err := sub.Subscribe(ctx, id, c, func() { e.onPush(gen, id, c) })
		if err != nil {
			e.logger.Warn(ctx, "subscribe failed", "user", id.UserID, "collection", c, "error", err)
			continue
		}
		unsubs = append(unsubs, unsub)
	}

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		stopSubscriptions(unsubs, cancel)
		return
	}
	e.unsubs = unsubs
	e.subCancel = cancel
	e.mu.Unlock()
}

func (e *Engine) onPush(gen uint64, id remote.Identity, c models.Collection) {
	if !e.current(gen) {
		return
	}
	if e.reloadCollection(context.Background(), gen, id, c) {
		e.notifier.Notify(c)
	}
}

func (e *Engine) writeSeq(target string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes[target]
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen == gen
}

func (e *Engine) detachSubscriptionsLocked() ([]func(), context.CancelFunc) {
	unsubs, cancel := e.unsubs, e.subCancel
	e.unsubs, e.subCancel = nil, nil
	return unsubs, cancel
}

// stopSubscriptions runs outside e.mu: unsubscribing may wait for a push
// handler that needs the lock.
func stopSubscriptions(unsubs []func(), cancel context.CancelFunc) {
	for _, u := range unsubs {
		u()
	}
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) notifyAll() {
	for _, c := range models.AllCollections() {
		e.notifier.Notify(c)
	}
}

// saveCollection writes items locally, queues the remote push when a
// session is active, then notifies. The push is queued under e.mu so a
// concurrent reload sees it.
func (e *Engine) saveCollection(c models.Collection, items []json.RawMessage) {
	recs, err := remote.RecordsFromItems(items)
	if err != nil {
		e.storeCollection(c, items, nil)
		e.logger.Error(context.Background(), "cannot push collection", "collection", c, "error", err)
		return
	}
	e.storeCollection(c, items, func(ctx context.Context, id remote.Identity) error {
		return e.transport.OverwriteCollection(ctx, id, c, recs)
	})
}

// clearCollection empties c locally and remotely. Transports with a
// delete-all call get it; the rest receive an empty overwrite.
func (e *Engine) clearCollection(c models.Collection) {
	push := func(ctx context.Context, id remote.Identity) error {
		return e.transport.OverwriteCollection(ctx, id, c, nil)
	}
	if cl, ok := e.transport.(remote.Clearer); ok {
		push = func(ctx context.Context, id remote.Identity) error {
			return cl.DeleteCollection(ctx, id, c)
		}
	}
	e.storeCollection(c, []json.RawMessage{}, push)
}

// storeCollection writes the cache and, when signed in, queues push. A nil
// push keeps the save local.
func (e *Engine) storeCollection(c models.Collection, items []json.RawMessage, push func(context.Context, remote.Identity) error) {
	e.mu.Lock()
	e.cache.WriteCollection(c, items)
	e.writes[string(c)]++
	if e.identity != nil && push != nil {
		e.writer.enqueue(pushJob{
			key: jobKey{userID: e.identity.UserID, target: string(c)},
			id:  *e.identity,
			run: push,
		})
	}
	e.mu.Unlock()

	e.notifier.Notify(c)
}

func (e *Engine) saveProfile(p models.UserProfile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.WriteProfile(p)
	e.writes[models.UserKey]++
	if e.identity == nil {
		return
	}
	e.writer.enqueue(pushJob{
		key: jobKey{userID: e.identity.UserID, target: models.UserKey},
		id:  *e.identity,
		run: func(ctx context.Context, id remote.Identity) error {
			return e.transport.SaveProfile(ctx, id, p)
		},
	})
}
