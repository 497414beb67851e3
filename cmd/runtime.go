package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/portal/internal/config"
	"github.com/zjrosen/portal/internal/infrastructure/sqlite"
	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/portal"
	"github.com/zjrosen/portal/internal/session"
	"github.com/zjrosen/portal/internal/tracing"
)

var errNotSignedIn = errors.New("not signed in: run `portal login` first")

// runtime bundles the tracer provider and backend client shared by the
// TUI and the one-shot commands.
type runtime struct {
	cfg      config.Config
	provider *tracing.Provider
	client   *portal.Client
}

func newRuntime(c config.Config) (*runtime, error) {
	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	client := portal.NewClient(c.APIBase, c.DataBase(),
		portal.WithTimeout(c.RequestTimeout),
		portal.WithTracer(provider.Tracer()),
	)
	return &runtime{cfg: c, provider: provider, client: client}, nil
}

// openSession restores the saved session or explains how to create one.
func (r *runtime) openSession() (*session.Context, error) {
	sess, err := session.Open(r.client, r.cfg.SessionFile)
	if errors.Is(err, session.ErrSignedOut) {
		return nil, errNotSignedIn
	}
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	return sess, nil
}

func (r *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.provider.Shutdown(ctx); err != nil {
		log.Warn(log.CatConfig, "Tracing shutdown failed", "error", err.Error())
	}
}

func openStore(c config.Config) (*sqlite.DB, error) {
	db, err := sqlite.NewDB(c.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	return db, nil
}
