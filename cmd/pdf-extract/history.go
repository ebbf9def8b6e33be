// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-extract/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent extraction runs",
	Long: `History lists the most recent runs recorded in the ledger, newest first.
The ledger is a SQLite database at ledger.path in the configuration.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	l, err := ledger.Open(viper.GetString("ledger.path"))
	if err != nil {
		return err
	}
	defer l.Close()

	runs, err := l.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return formatHistory(os.Stdout, runs, jsonOutput)
}

func formatHistory(w io.Writer, runs []ledger.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-6s  %-8s  %5s  %6s  %-8s  %s\n",
		"Started", "Status", "Method", "Pages", "Images", "Duration", "Input")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		method := string(r.Method)
		if method == "" {
			method = "-"
		}
		fmt.Fprintf(w, "%-20s  %-6s  %-8s  %5d  %6d  %-8s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status, method, r.Pages, r.Images,
			r.Duration.Round(time.Millisecond), r.Input)
		if r.Error != "" {
			fmt.Fprintf(w, "%22s%s\n", "", r.Error)
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "print runs as JSON")

	rootCmd.AddCommand(historyCmd)
}
