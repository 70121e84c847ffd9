package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homebase/internal/config"
	"github.com/dukerupert/homebase/internal/database"
	"github.com/dukerupert/homebase/internal/logging"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/push"
	"github.com/dukerupert/homebase/internal/server"
	"github.com/dukerupert/homebase/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "homebase",
		Short:         "Household chore ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().String("db", "", "SQLite database path")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if err := applyFlags(cmd.Flags(), cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	cmd.AddCommand(serveCmd(load), familyCmd(load), memberCmd(load), vapidKeysCmd())
	return cmd
}

type loader func(cmd *cobra.Command) (*config.Config, error)

func serveCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("port", "", "HTTP listen port")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var pub notify.Publisher
	if cfg.NATS.URL != "" {
		nc, err := notify.ConnectNATS(cfg.NATS.URL, "homebase")
		if err != nil {
			return err
		}
		defer nc.Drain()
		pub = nc
		logger.Info("publishing events", "nats_url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}
	if !cfg.PushEnabled() {
		logger.Info("web push disabled, no VAPID keys configured")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(db, cfg, pub, logger)
	go srv.RateLimiter().Run(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("homebase listening", "addr", httpServer.Addr, "db", cfg.Database.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func familyCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "family",
		Short: "Manage families",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			fam, err := store.NewFamilyStore(db).CreateFamily(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created family %q (id %d)\n", fam.Name, fam.ID)
			return nil
		},
	})
	return cmd
}

func memberCmd(load loader) *cobra.Command {
	var (
		familyID int64
		name     string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage family members",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a member to a family",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidRole(role) {
				return fmt.Errorf("invalid role %q", role)
			}
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			fs := store.NewFamilyStore(db)
			fam, err := fs.GetFamily(cmd.Context(), familyID)
			if err != nil {
				return err
			}
			if fam == nil {
				return fmt.Errorf("family %d not found", familyID)
			}
			m, err := fs.CreateMember(cmd.Context(), familyID, name, role, "#3B82F6", "😀")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (id %d) to %s\n", m.Role, m.Name, m.ID, fam.Name)
			return nil
		},
	}
	add.Flags().Int64Var(&familyID, "family", 0, "Family id")
	add.Flags().StringVar(&name, "name", "", "Member name")
	add.Flags().StringVar(&role, "role", model.RoleChild, "Role (parent, admin, child, member)")
	add.MarkFlagRequired("family")
	add.MarkFlagRequired("name")
	cmd.AddCommand(add)
	return cmd
}

func vapidKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "HOMEBASE_VAPID_PUBLIC_KEY=%s\n", pub)
			fmt.Fprintf(out, "HOMEBASE_VAPID_PRIVATE_KEY=%s\n", priv)
			return nil
		},
	}
}
