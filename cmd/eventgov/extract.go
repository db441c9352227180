package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/eventgov/internal/core"
	"github.com/agenthands/eventgov/internal/core/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run dual extraction over pending logs",
	Long: `Run every pending log (one without events yet) through both prompt
variants, newest first, and store the reconciled events.

Examples:
  # Process everything pending
  eventgov extract

  # Process the 20 newest pending logs
  eventgov extract --limit 20

  # Process one stored log by id
  eventgov extract --doc 7f3a9c`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		docID, _ := cmd.Flags().GetString("doc")

		if docID != "" {
			report, err := application.Engine.ProcessByID(cmd.Context(), docID)
			if err != nil {
				return err
			}
			printDocument(report)
			return nil
		}

		report, err := application.Engine.RunBatch(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printBatch(report)
		return nil
	},
}

func printDocument(r *core.DocumentReport) {
	mode := "dual"
	if !r.DualRun {
		mode = yellow("single")
	}
	fmt.Printf("  %s  %s run, consistency %s, %d new (%s silver, %s gray, %s pending), %d skipped\n",
		r.DocumentID, mode, pct(r.Consistency), r.Inserted,
		green(r.Silver), yellow(r.Gray), gray(r.Pending), r.Skipped)
	if r.RunAError != "" {
		fmt.Printf("    %s run A: %s\n", red("✗"), r.RunAError)
	}
	if r.RunBError != "" {
		fmt.Printf("    %s run B: %s\n", red("✗"), r.RunBError)
	}
}

func printBatch(r *core.BatchReport) {
	header("Extraction Batch")
	for _, d := range r.Documents {
		printDocument(d)
	}
	if len(r.Documents) > 0 {
		fmt.Println()
	}
	fmt.Printf("Processed: %d  Failed: %s  Duration: %v\n", r.Processed, red(r.Failed), r.Duration.Round(time.Millisecond))
	fmt.Printf("Events:    %d  (%s %d, %s %d, %s %d)\n", r.Events,
		statusColor(model.StatusSilver)("silver"), r.Silver,
		statusColor(model.StatusGray)("gray"), r.Gray,
		statusColor(model.StatusPending)("pending"), r.Pending)
	fmt.Printf("Mean consistency: %s\n", pct(r.MeanConsistency))
	for _, id := range r.FailedDocuments {
		fmt.Printf("  %s %s left pending\n", red("✗"), id)
	}
}

func init() {
	extractCmd.Flags().Int("limit", 0, "maximum number of logs to process (0 = all pending)")
	extractCmd.Flags().String("doc", "", "process a single stored log by doc_id")
	rootCmd.AddCommand(extractCmd)
}
