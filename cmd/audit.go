/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/securenotes/apiserver/config"
	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/mq"
	"github.com/securenotes/apiserver/internal/server"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect published security events",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print audit events from the configured broker as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := server.NewLogger(os.Stderr, cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("AUDIT_BACKEND is not set")
		}
		defer broker.Close()

		sink := audit.LogSink{Logger: logger}
		err = broker.Subscribe(ctx, cfg.Audit.Channel, func(ctx context.Context, msg mq.Message) error {
			var event audit.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Undecodable messages are acked so they are not redelivered forever.
				logger.Warn("skipping malformed audit message", "id", msg.ID, "error", err)
				return nil
			}
			sink.Emit(ctx, event)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit tail: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditTailCmd)
}
