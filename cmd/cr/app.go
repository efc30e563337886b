package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/crumbs/internal/config"
	"github.com/fyrsmithlabs/crumbs/internal/handoff"
	"github.com/fyrsmithlabs/crumbs/internal/journal"
	"github.com/fyrsmithlabs/crumbs/internal/logging"
	"github.com/fyrsmithlabs/crumbs/internal/secrets"
	"github.com/fyrsmithlabs/crumbs/internal/telemetry"
	"github.com/fyrsmithlabs/crumbs/internal/workspace"
)

// app is everything one command invocation needs.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	ws       *workspace.Workspace
	store    *journal.Store
	handoffs *handoff.Engine
	tel      *telemetry.Telemetry
	span     trace.Span
}

// setup loads configuration, resolves the workspace and ensures the store
// scaffold exists. Callers must call close.
func setup(cmd *cobra.Command) (*app, context.Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Telemetry comes first so the logger can tee into its LoggerProvider.
	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg.LoggerConfig(), cmd.ErrOrStderr(), tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if verbose && !logger.Enabled(zapcore.DebugLevel) {
		logger.SetLevel(zapcore.DebugLevel)
	}

	cwd, err := os.Getwd()
	if err != nil {
		_ = tel.Shutdown(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	ws, err := workspace.Detect(cwd, cfg.Store.DirName)
	if err != nil {
		_ = tel.Shutdown(context.WithoutCancel(ctx))
		return nil, nil, err
	}

	ctx = logging.WithInvocationID(ctx, uuid.NewString())
	ctx = logging.WithCommand(ctx, cmd.CommandPath())
	ctx = logging.WithStoreRoot(ctx, ws.Root)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := tel.Tracer("github.com/fyrsmithlabs/crumbs/cmd/cr").Start(ctx, cmd.CommandPath())

	store := journal.NewStore(ws.StoreDir())
	if err := store.Ensure(); err != nil {
		span.End()
		_ = tel.Shutdown(context.WithoutCancel(ctx))
		return nil, nil, err
	}
	logger.Debug(ctx, "store ready", zap.String("dir", store.Dir()))

	a := &app{
		cfg:    cfg,
		logger: logger,
		ws:     ws,
		store:  store,
		tel:    tel,
		span:   span,
		handoffs: handoff.NewEngine(store, handoff.Options{
			Logger:         logger.Named("handoff"),
			TracerProvider: tel.TracerProvider(),
			MeterProvider:  tel.MeterProvider(),
		}),
	}
	return a, ctx, nil
}

func (a *app) close(ctx context.Context) {
	a.span.End()
	if err := a.tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newJournal builds the memory journal. The secret guard is only compiled
// when something is about to be written.
func (a *app) newJournal(withGuard bool) (*journal.Journal, error) {
	opts := journal.Options{
		Logger:         a.logger.Named("journal"),
		TracerProvider: a.tel.TracerProvider(),
		MeterProvider:  a.tel.MeterProvider(),
	}
	if withGuard && a.cfg.Secrets.Enabled {
		allow, err := secrets.LoadProjectAllowlist(a.ws.Root)
		if err != nil {
			return nil, err
		}
		guard, err := secrets.NewGuard(append(allow, a.cfg.Secrets.Allow...))
		if err != nil {
			return nil, err
		}
		opts.Guard = guard
	}
	return journal.New(a.store, opts), nil
}

// origin describes where new records are created. Missing git metadata is
// logged and recorded as absent.
func (a *app) origin(ctx context.Context) journal.Origin {
	origin, err := a.ws.Origin()
	if err != nil {
		a.logger.Debug(ctx, "git metadata unavailable", zap.Error(err))
	}
	return origin
}
