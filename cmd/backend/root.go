package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"inventory-management/internal/backup"
	"inventory-management/internal/config"
	"inventory-management/internal/logging"
	"inventory-management/internal/repository/sqlite"
	"inventory-management/internal/storage"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "backend",
		Short:         "Inventory management backend",
		Long:          `backend serves the inventory management user and authentication API and maintains its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setUp(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level, overrides log.level from config")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newBackupCmd(a),
		newUserCmd(a),
	)

	return root
}

func (a *app) setUp(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openDatabase opens the SQLite file and brings its schema up to date.
func (a *app) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := sqlite.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applied, err := sqlite.Migrate(ctx, db)
	if err != nil {
		a.closeDatabase(db)
		return nil, err
	}
	for _, version := range applied {
		a.logger.WithField("version", version).Info("migration applied")
	}
	return db, nil
}

func (a *app) closeDatabase(db *sql.DB) {
	if err := db.Close(); err != nil {
		a.logger.Warnf("close database: %v", err)
	}
}

func (a *app) backupManager(ctx context.Context, db *sql.DB) (backup.Manager, error) {
	if a.cfg.Backup.Bucket == "" {
		return nil, fmt.Errorf("backup bucket is required")
	}
	store, err := storage.NewS3FromConfig(ctx, storage.S3Config{
		Region:   a.cfg.Backup.Region,
		Endpoint: a.cfg.Backup.Endpoint,
		Profile:  a.cfg.AWS.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("setup storage: %w", err)
	}
	a.logger.Infof("using s3 bucket %s (region %s)", a.cfg.Backup.Bucket, a.cfg.Backup.Region)

	return backup.NewManager(backup.Config{
		Bucket:    a.cfg.Backup.Bucket,
		KeyPrefix: a.cfg.Backup.KeyPrefix,
		Interval:  a.cfg.BackupInterval(),
		Retain:    a.cfg.Backup.Retain,
		Logger:    a.logger,
	}, func(ctx context.Context, dest string) error {
		return sqlite.Snapshot(ctx, db, dest)
	}, store), nil
}
