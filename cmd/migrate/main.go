// Package main 提供数据库迁移管理的命令行工具，基于 golang-migrate。
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/logger"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the blog database schema",
	Long: `Manage the blog database schema with golang-migrate.

Connection settings come from the same environment / .env file as the server.

Examples:
  migrate up                 # apply all pending migrations
  migrate down --steps 1     # roll back the last migration
  migrate version            # print the current version
  migrate goto 2             # migrate up or down to version 2
  migrate force 1            # clear a dirty state after a manual fix`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB, lg *zap.Logger) error {
			return db.RunMigrations(migrationsDir)
		})
	},
}

var downSteps int

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return withDB(func(db *database.DB, lg *zap.Logger) error {
			return db.MigrateDown(migrationsDir, downSteps)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *database.DB, lg *zap.Logger) error {
			version, dirty, err := db.MigrationVersion(migrationsDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		})
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto VERSION",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		if version == 0 {
			return fmt.Errorf("version must be greater than 0, use down to roll back everything")
		}
		return withDB(func(db *database.DB, lg *zap.Logger) error {
			return db.MigrateToVersion(migrationsDir, version)
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Force the recorded version without running migrations",
	Long:  "Force the recorded version to clear a dirty state. Version 0 resets to the empty state.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		return withDB(func(db *database.DB, lg *zap.Logger) error {
			lg.Warn("forcing migration version, dirty state will be cleared", zap.Uint("version", version))
			return db.ForceMigrationVersion(migrationsDir, version)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd, gotoCmd, forceCmd)
}

func parseVersion(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return uint(v), nil
}

// withDB 加载配置、建立连接后执行 fn，结束时关闭连接
func withDB(fn func(db *database.DB, lg *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	if migrationsDir == "" {
		migrationsDir = cfg.Migrations.Dir
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	return fn(db, lg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
