package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/config"
	"github.com/dmitrijs2005/mediminder/internal/client/engine"
	"github.com/dmitrijs2005/mediminder/internal/client/localcache"
	"github.com/dmitrijs2005/mediminder/internal/client/notify"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/client/remote/memremote"
	"github.com/dmitrijs2005/mediminder/internal/client/remote/pgremote"
	"github.com/dmitrijs2005/mediminder/internal/client/remote/rest"
	"github.com/dmitrijs2005/mediminder/internal/client/remote/s3remote"
	"github.com/dmitrijs2005/mediminder/internal/client/repositories/cache"
	"github.com/dmitrijs2005/mediminder/internal/client/services"
	"github.com/dmitrijs2005/mediminder/internal/filex"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
)

// Runtime is the assembled client.
type Runtime struct {
	Config   *config.Config
	Engine   *engine.Engine
	Notifier *notify.Notifier

	Auth         services.AuthService
	Medications  services.MedicationService
	Intake       services.IntakeService
	Appointments services.AppointmentService
	Undo         services.UndoService

	Now services.Clock

	closers []func() error
}

func restConfig(cfg *config.Config) rest.Config {
	return rest.Config{BaseURL: cfg.ServerURL, Timeout: cfg.RequestTimeout, Retries: cfg.Retries}
}

// NewTransport opens the transport named by cfg.Transport. The returned
// close function releases its resources.
func NewTransport(ctx context.Context, cfg *config.Config, logger logging.Logger) (remote.Transport, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Transport {
	case config.TransportREST:
		return rest.NewLive(restConfig(cfg), logger), noop, nil

	case config.TransportPG:
		db, err := pgstore.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.RunMigrations(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate remote db: %w", err)
		}
		return pgremote.New(pgstore.New(db), cfg.DatabaseDSN, logger), db.Close, nil

	case config.TransportS3:
		api, err := s3remote.NewClient(ctx, s3remote.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3remote.New(api, cfg.S3Bucket), noop, nil

	case config.TransportMemory:
		return memremote.New(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}

// Build opens the local cache and the transport and assembles the engine
// and services.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := filex.EnsureParentDir(cfg.CacheDSN); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	repo, db, err := cache.Open(ctx, cfg.CacheDSN)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Now: time.Now}
	rt.closers = append(rt.closers, db.Close)

	transport, closeTransport, err := NewTransport(ctx, cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open %s transport: %w", cfg.Transport, err)
	}
	rt.closers = append(rt.closers, closeTransport)

	rt.Notifier = notify.New(logger)
	rt.Engine = engine.New(localcache.New(repo, logger), transport, rt.Notifier, logger, engine.Options{
		LoadTimeout: cfg.LoadTimeout,
		PushTimeout: cfg.PushTimeout,
	})
	rt.closers = append(rt.closers, func() error { rt.Engine.Close(); return nil })

	rt.Auth = services.NewAuthService(rest.New(restConfig(cfg), logger), rt.Engine)
	rt.Medications = services.NewMedicationService(rt.Engine, rt.Now)
	rt.Intake = services.NewIntakeService(rt.Engine, rt.Now)
	rt.Appointments = services.NewAppointmentService(rt.Engine, rt.Now)
	rt.Undo = services.NewUndoService(rt.Engine, rt.Now, cfg.UndoWindow)

	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}
