package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agenthands/eventgov/internal/core/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store counts, alias totals and the candidate tag pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		top, _ := cmd.Flags().GetInt("top")

		counts, err := application.Store.Counts(ctx)
		if err != nil {
			return err
		}
		header("Event Store")
		fmt.Printf("Logs:   %d (%d pending)\n", counts.Documents, counts.PendingDocuments)
		fmt.Printf("Events: %s %d, %s %d, %s %d\n",
			green("silver"), counts.Events[string(model.StatusSilver)],
			yellow("gray"), counts.Events[string(model.StatusGray)],
			gray("pending"), counts.Events[string(model.StatusPending)])
		fmt.Printf("Tags:   %d stable, %d candidate\n",
			counts.Tags[string(model.StatusStable)], counts.Tags[string(model.StatusCandidate)])

		aliases, err := application.Aliases.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", yellow("Aliases:"))
		for _, t := range model.EntityTypes() {
			fmt.Printf("  %-8s %d stable, %d candidate\n", t,
				aliases[t][model.StatusStable], aliases[t][model.StatusCandidate])
		}

		candidates, err := application.Taxonomy.CandidateSummary(ctx, top)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", yellow("Candidate tags:"))
		for _, d := range model.Dimensions() {
			views := candidates[d]
			if len(views) == 0 {
				fmt.Printf("  %s: %s\n", d, gray("none"))
				continue
			}
			fmt.Printf("  %s:\n", d)
			for _, v := range views {
				mark := " "
				if v.NearPromotable {
					mark = green("●")
				}
				fmt.Printf("    %s %s (7d %d, 30d %d, schools %d, consistency %s)\n",
					mark, v.Name, v.Freq7d, v.Freq30d, v.DistinctSchools, pct(v.ConsistencyRate))
			}
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List stored events",
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, _ := cmd.Flags().GetString("doc")
		school, _ := cmd.Flags().GetString("school")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := model.EventFilter{DocumentID: docID, School: school, Status: model.ConsistencyStatus(status), Limit: limit}
		if filter.Status != "" && !filter.Status.Valid() {
			return fmt.Errorf("unknown status %q", status)
		}
		events, err := application.Store.ListEvents(cmd.Context(), filter)
		if err != nil {
			return err
		}
		header(fmt.Sprintf("Events (%d)", len(events)))
		for _, ev := range events {
			c := statusColor(ev.Status)
			fmt.Printf("%s %s %s %s\n", c("●"), ev.OccurredOn, ev.School.Key(), c(string(ev.Status)))
			fmt.Printf("    %s\n", ev.RawSpan)
			tags := make([]string, 0, len(model.Dimensions()))
			for _, d := range model.Dimensions() {
				if v := ev.Tags.Get(d); v.Name != "" {
					tags = append(tags, fmt.Sprintf("%s=%s", d, v.Name))
				}
			}
			fmt.Printf("    %v confidence %.2f agreement %.2f\n", tags, ev.Confidence, ev.Agreement)
		}
		return nil
	},
}

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "List taxonomy tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		dim, _ := cmd.Flags().GetString("dimension")
		status, _ := cmd.Flags().GetString("status")

		filter := model.TagFilter{Status: model.LifecycleStatus(status)}
		if dim != "" {
			d, err := model.ParseDimension(dim)
			if err != nil {
				return err
			}
			filter.Dimension = d
		}
		tags, err := application.Store.ListTags(cmd.Context(), filter)
		if err != nil {
			return err
		}

		byDim := make(map[model.Dimension][]model.TaxonomyTag)
		for _, t := range tags {
			byDim[t.Dimension] = append(byDim[t.Dimension], t)
		}
		header("Taxonomy")
		for _, d := range model.Dimensions() {
			list := byDim[d]
			if len(list) == 0 {
				continue
			}
			sort.SliceStable(list, func(i, j int) bool { return list[i].Status > list[j].Status })
			fmt.Printf("%s\n", yellow(string(d)))
			for _, t := range list {
				name := t.Name
				if t.Status == model.StatusStable {
					name = green(name)
				}
				fmt.Printf("  %s %s (7d %d) %s\n", name, gray(string(t.Status)), t.Freq7d, t.Definition)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("top", 5, "candidates to show per dimension")
	eventsCmd.Flags().String("doc", "", "filter by doc_id")
	eventsCmd.Flags().String("school", "", "filter by canonical school name")
	eventsCmd.Flags().String("status", "", "filter by consistency status: silver, gray or pending")
	eventsCmd.Flags().Int("limit", 50, "maximum events to list")
	taxonomyCmd.Flags().String("dimension", "", "action_type, blocker or outcome")
	taxonomyCmd.Flags().String("status", "", "stable or candidate")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(taxonomyCmd)
}
