// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2word/internal/compare"
	"github.com/pdiddy/pdf2word/internal/history"
	"github.com/pdiddy/pdf2word/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the conversion history ledger",
	Long: `History reads the ledger of finished conversions that serve and convert
record when run with --history (or history.enabled in the config file).`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversions, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.Open(loadConfig().History)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), historyOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No conversions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-20s  %-30s  %-10s  %-10s  %s\n",
		"ID", "Finished", "File", "Original", "Converted", "Outcome")
	for _, r := range records {
		name := r.Original.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		converted := "-"
		if r.Converted != nil {
			converted = compare.FormatSize(r.Converted.Size)
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-20s  %-30s  %-10s  %-10s  %s\n",
			r.ID, r.FinishedAt.Local().Format("2006-01-02 15:04:05"), name,
			compare.FormatSize(r.Original.Size), converted, r.Outcome)
	}
	fmt.Fprintf(os.Stdout, "\n%d conversions\n", len(records))
	return nil
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history ledger to YAML or JSON",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := history.Open(loadConfig().History)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := historyOptsFromFlags(cmd)
	format, _ := cmd.Flags().GetString("format")

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

func historyOptsFromFlags(cmd *cobra.Command) history.ListOptions {
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")
	return history.ListOptions{Outcome: types.Outcome(outcome), Limit: limit}
}

func init() {
	historyCmd.PersistentFlags().String("outcome", "", "filter by outcome: completed or failed")
	historyCmd.PersistentFlags().Int("limit", 0, "maximum records (0 = 50 for list, all for export)")

	historyListCmd.Flags().Bool("json", false, "output records as JSON")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
