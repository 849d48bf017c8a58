package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/config"
	"github.com/wagnerlima/algolab/internal/connectivity"
	"github.com/wagnerlima/algolab/internal/executor"
	"github.com/wagnerlima/algolab/internal/remote"
	"github.com/wagnerlima/algolab/internal/repository"
	"github.com/wagnerlima/algolab/internal/session"
	"github.com/wagnerlima/algolab/internal/storage"
	"github.com/wagnerlima/algolab/internal/telemetry"
)

// app is the wired object graph shared by every command.
type app struct {
	deps     repository.Deps
	store    *storage.Store
	shutdown telemetry.Shutdown

	lists   *repository.ListRepository
	details *repository.DetailsRepository
	results *repository.ResultRepository
}

func newApp(ctx context.Context, c config.Config, log *zap.Logger) (*app, error) {
	shutdown, err := telemetry.Init(ctx, c.OTELEndpoint, c.ServiceName, version, c.OTELInsecure)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(c.DataDir)
	if err != nil {
		return nil, multierr.Append(err, shutdown(ctx))
	}

	client, err := remote.NewClient(remote.Config{BaseURL: c.BaseURL, Timeout: c.RequestTimeout})
	if err != nil {
		return nil, multierr.Combine(err, store.Close(), shutdown(ctx))
	}

	var probe connectivity.Probe
	if c.Offline {
		probe = connectivity.NewStatic(false)
	} else {
		dp, err := connectivity.NewDialProbe(c.BaseURL, c.ProbeTimeout)
		if err != nil {
			return nil, multierr.Combine(fmt.Errorf("connectivity probe: %w", err), store.Close(), shutdown(ctx))
		}
		probe = dp
	}

	rt := executor.NewYaegi(store.Scripts(), c.EntryFunc, log.Named("executor"))
	bridge := executor.NewBridge(rt, executor.Config{Timeout: c.ExecTimeout, Workers: c.Workers}, log.Named("executor"))

	deps := repository.Deps{
		API:      client,
		Store:    store,
		Probe:    probe,
		Executor: bridge,
		Logger:   log.Named("repository"),
	}
	log.Debug("app ready",
		zap.String("base_url", c.BaseURL),
		zap.String("data_dir", c.DataDir),
		zap.Bool("offline", c.Offline),
	)
	return &app{
		deps:     deps,
		store:    store,
		shutdown: shutdown,
		lists:    repository.NewListRepository(deps),
		details:  repository.NewDetailsRepository(deps),
		results:  repository.NewResultRepository(deps),
	}, nil
}

// openDetails returns a details session for name that reports messages to
// notify.
func (a *app) openDetails(name string, notify session.Notifier) *session.DetailsSession {
	return session.NewDetails(session.DetailsConfig{
		Name:       name,
		Details:    a.details,
		Results:    a.results,
		Downloaded: a.store.Scripts().Exists,
		Notify:     notify,
	})
}

// Close releases the store and flushes traces.
func (a *app) Close(ctx context.Context) error {
	return multierr.Combine(a.store.Close(), a.shutdown(ctx))
}
