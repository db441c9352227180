package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/eventgov/internal/core/model"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load daily logs from a JSON Lines file",
	Long: `Load daily logs into the store, one JSON object per line:

  {"doc_id":"...","author":"...","department":"...","date":"2025-06-09","content":"..."}

Existing logs with the same doc_id are overwritten. Use "-" to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		docs, err := readDocuments(r)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := application.Store.UpsertDocument(cmd.Context(), doc); err != nil {
				return err
			}
		}
		fmt.Printf("%s Imported %d logs\n", green("✓"), len(docs))
		return nil
	},
}

// readDocuments parses JSON Lines, skipping blank lines. Every record needs
// a doc_id and content.
func readDocuments(r io.Reader) ([]model.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs []model.Document
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc model.Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if doc.ID == "" || doc.Content == "" {
			return nil, fmt.Errorf("line %d: doc_id and content are required", line)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
