package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"earsip/internal/app"
	"earsip/internal/archive"
	"earsip/internal/config"
)

func newListCmd(cfg config.Config, jsonOutput *bool) *cobra.Command {
	var (
		scope  string
		term   string
		status string
		start  string
		end    string
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List letters with filters and pagination",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := archive.ParseScope(scope)
			if err != nil {
				return err
			}

			controller, closeStore, err := app.Open(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			state := archive.NewViewState()
			state.SetScope(parsed)
			state.SetTerm(term)
			state.SetStatus(status)
			state.SetDateRange(start, end)
			state.SetPage(page)

			result := controller.View(state)
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeLetterTable(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "all", "all, incoming, outgoing or none")
	cmd.Flags().StringVarP(&term, "search", "q", "", "search subject, letter number and counterparty")
	cmd.Flags().StringVar(&status, "status", "", "InProgress, Completed or Urgent")
	cmd.Flags().StringVar(&start, "from", "", "earliest archive date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "to", "", "latest archive date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")

	return cmd
}

func newStatsCmd(cfg config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show archive totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeStore, err := app.Open(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			stats := controller.Stats()
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"total: %d\nincoming: %d\noutgoing: %d\nin progress: %d\ncompleted: %d%%\n",
				stats.Total, stats.Incoming, stats.Outgoing, stats.InProgress, stats.CompletionRate)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLetterTable(w io.Writer, page archive.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tDATE\tDIRECTION\tSTATUS\tSUBJECT\tCOUNTERPARTY")
	for _, l := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.LetterNumber, l.ArchiveDate, l.Direction, l.Status, l.Subject, l.Counterparty)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d (%d letters)\n", page.Page, page.PageCount, page.Total)
	return err
}
