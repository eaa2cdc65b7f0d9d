package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dauglabs/switchboard/internal/config"
)

func newNotifyCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test notification",
		Long:  "Sends a test message on the configured notification backend to confirm credentials and channel wiring.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifyTest(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to Switchboard config file")
	return cmd
}

func runNotifyTest(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	if err := notifier.Test(ctx, "Switchboard test notification"); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s\n", cfg.Notify.Platform)
	return nil
}
