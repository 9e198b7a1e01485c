package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-lead-capture/internal/config"
	"github.com/tbourn/go-lead-capture/internal/sysutil"
)

// app carries state shared by subcommands once the root pre-run has loaded it.
type app struct {
	envFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "leadcapture",
		Short:         "leadcapture - landing-page lead capture service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env",
		"Dotenv file to load before reading the environment. Missing files are ignored.")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newHashCmd())
	return root
}

// load reads the dotenv file (existing variables win), then the config, and
// installs the global logger.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	for _, name := range cfg.MissingSecrets() {
		log.Warn().Str("var", name).Msg("credential not set; calls that need it will fail")
	}
	a.cfg = cfg
	return nil
}
