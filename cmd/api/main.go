package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/hospital-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/hospital-scheduler/internal/db"
	infraRepo "github.com/BruksfildServices01/hospital-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/hospital-scheduler/internal/logger"
	"github.com/BruksfildServices01/hospital-scheduler/internal/maintenance"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hospital-scheduler",
		Short: "Hospital appointments API with SMS reminders",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(normalizePhonesCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				if err := dbpkg.Migrate(db); err != nil {
					return err
				}
				log.Info("migrations applied")
				return nil
			})
		},
	}
}

func normalizePhonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-phones",
		Short: "Rewrite stored patient phone numbers into international format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				res, err := maintenance.NormalizePhones(
					cmd.Context(),
					infraRepo.NewProfileGormRepository(db),
					notify.NewPhoneNormalizer(cfg.DefaultCountryCode, cfg.KnownCountryCodes),
					log,
				)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(),
					"scanned=%d updated=%d unchanged=%d invalid=%d failed=%d\n",
					res.Scanned, res.Updated, res.Unchanged, res.Invalid, res.Failed,
				)
				return nil
			})
		},
	}
}

func createAdminCmd() *cobra.Command {
	var userName, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			return withDB(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				user, err := maintenance.CreateAdmin(
					cmd.Context(),
					infraRepo.NewProfileGormRepository(db),
					userName,
					password,
					log,
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin %q created with id %d\n", user.UserName, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userName, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password (defaults to $ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func withDB(fn func(*config.Config, *gorm.DB, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	return fn(cfg, db, log)
}

