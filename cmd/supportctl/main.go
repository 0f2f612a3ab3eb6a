// Package main is the admin CLI for schema setup, demo data and turn replay.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/auth"
	"github.com/capitalize-ai/support-chat/internal/config"
	natsclient "github.com/capitalize-ai/support-chat/internal/nats"
	"github.com/capitalize-ai/support-chat/internal/store"
	"github.com/capitalize-ai/support-chat/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "supportctl",
		Short:         "Administer the support chat backend",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	newLogger := func() (*logger.Logger, error) {
		return logger.New(logLevel)
	}

	root.AddCommand(
		newMigrateCmd(newLogger),
		newSeedCmd(newLogger),
		newEventsCmd(newLogger),
	)
	return root
}

func openStore(ctx context.Context, cfg *config.Config) (*store.GormStore, error) {
	db, err := store.Open(store.Config{
		URL:      cfg.DatabaseURL,
		LogLevel: store.ParseLogLevel(cfg.DBLogLevel),
	})
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(ctx, db); err != nil {
		return nil, err
	}
	return store.New(db), nil
}

func newMigrateCmd(newLogger func() (*logger.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			log.Info("schema is up to date")
			return nil
		},
	}
}

func newSeedCmd(newLogger func() (*logger.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace users and orders with the demo data set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			res, err := store.SeedDemo(cmd.Context(), s, auth.HashPassword, time.Now(), log.Component("seed"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users and %d orders (password %q)\n", res.Users, res.Orders, store.DemoPassword)
			return nil
		},
	}
}

func newEventsCmd(newLogger func() (*logger.Logger, error)) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events <conversation-id>",
		Short: "Print the recorded turn events of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var conversationID uint
			if _, err := fmt.Sscan(args[0], &conversationID); err != nil || conversationID == 0 {
				return fmt.Errorf("invalid conversation id %q", args[0])
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.NATSURL == "" {
				return fmt.Errorf("NATS_URL is not set")
			}

			client, err := natsclient.Connect(cmd.Context(), natsclient.Config{
				URL:            cfg.NATSURL,
				CAFile:         cfg.NATSCAFile,
				CertFile:       cfg.NATSCertFile,
				KeyFile:        cfg.NATSKeyFile,
				Token:          cfg.NATSToken,
				ConnectTimeout: 5 * time.Second,
			}, log)
			if err != nil {
				return err
			}
			defer client.Close()

			events, err := natsclient.NewStreamManager(client).TurnEvents(cmd.Context(), conversationID, limit)
			if err != nil {
				return err
			}
			log.Debug("fetched turn events", zap.Int("count", len(events)))

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i := range events {
				if err := enc.Encode(&events[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of events to print")
	return cmd
}
