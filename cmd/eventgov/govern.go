package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/eventgov/internal/core"
	"github.com/agenthands/eventgov/internal/core/alias"
	"github.com/agenthands/eventgov/internal/core/community"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/taxonomy"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote candidate tags that meet the frequency, school and consistency thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.Taxonomy.Promote(cmd.Context())
		if err != nil {
			return err
		}
		printPromotion(report)
		return nil
	},
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Discover and promote school and product aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.Aliases.Run(cmd.Context())
		if err != nil {
			return err
		}
		printAliases(report)
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List likely synonym tags without changing the taxonomy",
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := application.Taxonomy.SuggestMerges(cmd.Context())
		if err != nil {
			return err
		}
		recorded, err := application.Store.ListSuggestions(cmd.Context())
		if err != nil {
			return err
		}
		header("Merge Suggestions")
		printSuggestions(append(recorded, scan...))
		return nil
	},
}

var governCmd = &cobra.Command{
	Use:   "govern",
	Short: "Run tag promotion, alias governance and the merge scan in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.Engine.Govern(cmd.Context())
		if err != nil {
			return err
		}
		printGovernance(report)
		return nil
	},
}

func printPromotion(r *taxonomy.Report) {
	header("Tag Promotion")
	fmt.Printf("Evaluated %d candidates\n", r.Evaluated)
	for _, d := range r.Promoted {
		fmt.Printf("  %s %s/%s (7d %d, schools %d, consistency %s)\n", green("↑"),
			d.Tag.Dimension, d.Tag.Name, d.Tag.Freq7d, d.Tag.DistinctSchools, pct(d.Tag.ConsistencyRate))
	}
	for _, d := range r.Rejected {
		fmt.Printf("  %s %s/%s too close to %s (%.2f)\n", yellow("≈"),
			d.Tag.Dimension, d.Tag.Name, d.Collision, d.Similarity)
	}
	if len(r.Promoted) == 0 && len(r.Rejected) == 0 {
		fmt.Printf("  %s\n", gray("Nothing promotable"))
	}
}

func printAliases(r *alias.Report) {
	header("Alias Governance")
	for _, t := range model.EntityTypes() {
		d := r.Discovered[t]
		if d == nil {
			continue
		}
		fmt.Printf("%s %d name pairs, %d new, %d refreshed\n", yellow(string(t)+":"), d.Pairs, len(d.Added), d.Refreshed)
		for _, a := range d.Added {
			fmt.Printf("  + %s → %s (%.2f)\n", a.Alias, a.Canonical, a.Confidence)
		}
	}
	for _, a := range r.Promoted {
		fmt.Printf("  %s %s %s → %s (seen %d times)\n", green("↑"), a.EntityType, a.Alias, a.Canonical, a.Frequency)
	}
}

func printSuggestions(list []model.MergeSuggestion) {
	if len(list) == 0 {
		fmt.Printf("  %s\n", gray("No suggestions"))
		return
	}
	for _, s := range list {
		fmt.Printf("  %s/%s → %s (%.2f, %s)\n", s.Dimension, s.Tag, s.Target, s.Similarity, gray(s.Source))
	}
}

func printGroups(groups []community.SynonymGroup) {
	if len(groups) == 0 {
		return
	}
	fmt.Printf("\n%s\n", yellow("Synonym groups:"))
	for _, g := range groups {
		fmt.Printf("  %s: %v → %s\n", g.Dimension, g.Tags, green(g.Anchor))
	}
}

func printGovernance(r *core.GovernanceReport) {
	printPromotion(r.Tags)
	if r.Definitions > 0 {
		fmt.Printf("Drafted %d definitions\n", r.Definitions)
	}
	printAliases(r.Aliases)
	header("Merge Suggestions")
	printSuggestions(r.Suggestions)
	printGroups(r.Groups)
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(aliasesCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(governCmd)
}
