package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-lead-capture/internal/config"
	"github.com/tbourn/go-lead-capture/internal/repo"
)

var errMigrateSupabase = errors.New("the supabase store is migrated from the Supabase project, not by this binary")

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the leads table for the postgres and sqlite stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd, a.cfg.Store)
		},
	}
}

func migrate(cmd *cobra.Command, cfg config.StoreConfig) error {
	if cfg.Driver == config.DriverSupabase {
		return errMigrateSupabase
	}
	db, err := repo.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close(db) }()

	if err := repo.AutoMigrate(db, cfg.Table); err != nil {
		return err
	}
	log.Info().Str("driver", cfg.Driver).Str("table", cfg.Table).Msg("migrated")
	return nil
}
