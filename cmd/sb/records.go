package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dauglabs/switchboard/internal/config"
	"github.com/dauglabs/switchboard/internal/records"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect recorded leads and payments",
	}

	cmd.AddCommand(newRecordsLeadsCmd())
	cmd.AddCommand(newRecordsPaymentsCmd())
	return cmd
}

func newRecordsLeadsCmd() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List recent buyer leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRecords(configPath)
			if err != nil {
				return err
			}
			leads, err := store.RecentLeads(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tPARTICIPANT\tUSERNAME\tTRIGGER")
			for _, l := range leads {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					l.CreatedAt.Format("2006-01-02 15:04"), l.ParticipantID, l.Username, l.Trigger)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to Switchboard config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to show")
	return cmd
}

func newRecordsPaymentsCmd() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List recent payment screenshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRecords(configPath)
			if err != nil {
				return err
			}
			payments, err := store.RecentPayments(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tPARTICIPANT\tUSERNAME\tAMOUNT\tREFERENCE")
			for _, p := range payments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.CreatedAt.Format("2006-01-02 15:04"), p.ParticipantID, p.Username, p.Amount, p.Reference)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to Switchboard config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to show")
	return cmd
}

func openRecords(configPath string) (*records.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Records.Backend == "none" {
		return nil, fmt.Errorf("records: no backend configured in %s (set records.backend)", configPath)
	}
	dsn := cfg.Records.DSN
	if cfg.Records.Backend == "sqlite" {
		dsn = cfg.Records.Path
	}
	return records.Open(cfg.Records.Backend, dsn)
}
