package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-lead-capture/internal/capi"
	"github.com/tbourn/go-lead-capture/internal/config"
	httpapi "github.com/tbourn/go-lead-capture/internal/http"
	"github.com/tbourn/go-lead-capture/internal/observability"
	"github.com/tbourn/go-lead-capture/internal/repo"
	"github.com/tbourn/go-lead-capture/internal/services"
	"github.com/tbourn/go-lead-capture/internal/supabase"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version,
		attribute.String("lead.store.driver", cfg.Store.Driver))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	fwd := capi.NewClient(cfg.CAPI, nil)
	svc := services.NewLeadService(store, fwd, cfg.CAPI.Source)
	svc.ForwardTimeout = cfg.CAPI.Timeout

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg, store.healthChecks()...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", store.Name()).
			Str("capi_endpoint", fwd.Endpoint()).
			Str("lead_path", cfg.APIBasePath+cfg.LeadPath).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// storeHandle is the lead store chosen at startup plus its lifecycle hooks.
type storeHandle struct {
	services.LeadStore
	close func() error
	ping  func(context.Context) error // nil when the backend has no cheap check
}

func (h *storeHandle) healthChecks() []httpapi.HealthCheck {
	if h.ping == nil {
		return nil
	}
	return []httpapi.HealthCheck{{Name: "store", Check: h.ping}}
}

// buildStore returns the lead store selected by cfg.Driver. SQL stores are
// migrated first when cfg.AutoMigrate is set.
func buildStore(ctx context.Context, cfg config.StoreConfig) (*storeHandle, error) {
	if cfg.Driver == config.DriverSupabase {
		return &storeHandle{
			LeadStore: supabase.New(cfg, nil),
			close:     func() error { return nil },
		}, nil
	}

	db, err := repo.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := repo.AutoMigrate(db, cfg.Table); err != nil {
			_ = repo.Close(db)
			return nil, err
		}
	}
	return &storeHandle{
		LeadStore: repo.NewLeadRepo(db, cfg.Table),
		close:     func() error { return repo.Close(db) },
		ping:      func(ctx context.Context) error { return repo.Ping(ctx, db) },
	}, nil
}
