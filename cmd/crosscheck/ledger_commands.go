package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crosscheck/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the reported-incident ledger",
	}

	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCountCommand(ctx))

	return ledgerCmd
}

type ledgerEntryJSON struct {
	ID         string    `json:"id"`
	Dataset    string    `json:"dataset"`
	CaseID     string    `json:"case_id"`
	RunID      string    `json:"run_id"`
	ReportedAt time.Time `json:"reported_at"`
	Source     string    `json:"source,omitempty"`
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var dataset string
	var runID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reported incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(cmd.Context(), func(store *ledger.SQLiteStore) error {
				entries, err := store.List(cmd.Context(), ledger.Filter{Dataset: dataset, RunID: runID})
				if err != nil {
					return err
				}

				if jsonOutput {
					items := make([]ledgerEntryJSON, 0, len(entries))
					for _, e := range entries {
						items = append(items, ledgerEntryJSON{
							ID:         e.ID.String(),
							Dataset:    e.ID.Dataset,
							CaseID:     e.ID.CaseID,
							RunID:      e.RunID,
							ReportedAt: e.ReportedAt,
							Source:     e.Source,
						})
					}
					return writeJSON(cmd.OutOrStdout(), items)
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Ledger is empty")
					return nil
				}
				tbl := newTable("Incident", "Run", "Reported", "Source")
				for _, e := range entries {
					tbl.add(e.ID.String(), e.RunID, e.ReportedAt.Local().Format("2006-01-02 15:04"), e.Source)
				}
				return tbl.write(out)
			})
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Only entries for this dataset id")
	cmd.Flags().StringVar(&runID, "run", "", "Only entries recorded by this run id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLedgerCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of reported incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(cmd.Context(), func(store *ledger.SQLiteStore) error {
				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}
