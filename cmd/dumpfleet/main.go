// cmd/dumpfleet/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dumpfleet/internal/app"
	"dumpfleet/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dumpfleet",
	Short: "Back up every database on a server through a bounded worker pool",
	Long: `dumpfleet connects to a PostgreSQL, MySQL or MongoDB server, verifies
that backups can succeed before starting any, and then dumps the selected
databases in parallel into a timestamped directory.

A run only exits non zero when it cannot start at all. Individual database
failures are collected and reported in the final summary.`,
	Example: `  # Back up every user database on a local postgres server
  dumpfleet --backup-dir /var/backups/pg

  # Back up two databases on a remote mysql server, four at a time
  dumpfleet --type mysql --host db1.internal --user backup --password s3cret \
            --databases orders,billing --parallel 4 --backup-dir /var/backups/mysql

  # Everything from a config file
  dumpfleet --config /etc/dumpfleet.yaml`,
	Version:      version,
	RunE:         runBackup,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	rootCmd.Flags().String("type", "postgres", "server type (postgres, mysql, mongodb)")
	rootCmd.Flags().String("host", "localhost", "database server host")
	rootCmd.Flags().Int("port", 0, "database server port (0 picks the engine default)")
	rootCmd.Flags().String("user", "", "database user (default: current OS user)")
	rootCmd.Flags().String("password", "", "database password (empty relies on ambient auth)")
	rootCmd.Flags().String("ssl-mode", "prefer", "postgres sslmode")
	rootCmd.Flags().String("auth-db", "admin", "mongodb authentication database")

	rootCmd.Flags().String("backup-dir", "", "destination root for backup files (required)")
	rootCmd.Flags().StringSlice("databases", nil, "databases to back up (default: every user database)")
	rootCmd.Flags().Int("parallel", 3, "maximum number of concurrent backups")

	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-file", "", "also write JSON logs to this file")

	viper.BindPFlag("server.type", rootCmd.Flags().Lookup("type"))
	viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.user", rootCmd.Flags().Lookup("user"))
	viper.BindPFlag("server.password", rootCmd.Flags().Lookup("password"))
	viper.BindPFlag("server.ssl_mode", rootCmd.Flags().Lookup("ssl-mode"))
	viper.BindPFlag("server.auth_database", rootCmd.Flags().Lookup("auth-db"))

	viper.BindPFlag("backup.dir", rootCmd.Flags().Lookup("backup-dir"))
	viper.BindPFlag("backup.databases", rootCmd.Flags().Lookup("databases"))
	viper.BindPFlag("backup.max_parallel", rootCmd.Flags().Lookup("parallel"))

	viper.BindPFlag("log.level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log.file", rootCmd.Flags().Lookup("log-file"))
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return application.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
