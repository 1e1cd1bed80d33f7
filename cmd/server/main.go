package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"brigade_tracker/internal/config"
	"brigade_tracker/internal/logger"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "brigade_tracker",
		Short: "Field campaign backend: sampling sites, brigades and field workers",
		Long: `brigade_tracker generates sampling sites, runs their approval, and manages
the brigades and field workers assigned to them.

Configuration comes from the environment (or a .env file):
HTTP_ADDR, FRONTEND_URL, DB_DRIVER (postgres|sqlite), DATABASE_URL or DB_HOST,
DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE, DB_TIMEZONE, SQLITE_PATH,
JWT_SECRET (required), NOTIFY_URL, NOTIFY_KEY, INVITE_TTL, LOG_FILE, LOG_LEVEL, ACCESS_LOG,
BRIGADE_STRICT_TRANSITIONS`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedRegionsCmd(),
		expireInvitesCmd(),
		tokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and starts file logging.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.LogFile, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}
	return cfg, nil
}
