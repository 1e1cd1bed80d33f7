package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"brigade_tracker/internal/config"
	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/services"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func seedRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-regions",
		Short: "Insert the department catalogue (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}

			added, err := services.New(db).Regions.Seed(cmd.Context())
			if err != nil {
				return err
			}
			logrus.WithField("added", added).Info("seed-regions: done")
			fmt.Fprintf(cmd.OutOrStdout(), "%d regions added\n", added)
			return nil
		},
	}
}

func expireInvitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-invites",
		Short: "Delete registration invitations past their expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg)
			if err != nil {
				return err
			}

			removed, err := services.New(db).Workers.ExpireInvites(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invitations removed\n", removed)
			return nil
		},
	}
}

// tokenCmd signs a development token with JWT_SECRET.
func tokenCmd() *cobra.Command {
	var (
		sub   string
		email string
		role  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case middleware.RolePlatformAdmin, middleware.RoleBrigadeAdmin, middleware.RoleFieldWorker:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := middleware.NewJWTProvider(cfg.JWTSecret).GenerateToken(middleware.Principal{
				ID:    sub,
				Email: email,
				Role:  role,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "subject (user id)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", middleware.RoleFieldWorker, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 72*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

