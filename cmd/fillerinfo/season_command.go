package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"fillerinfo/internal/classifier"
	"fillerinfo/internal/episode"
	"fillerinfo/internal/services"
)

type seasonResult struct {
	Identifier string           `json:"identifier"`
	Season     int              `json:"season"`
	Episodes   []classifyResult `json:"episodes"`
	Summary    map[string]int   `json:"summary"`
}

func newSeasonCommand(ctx *commandContext) *cobra.Command {
	var from, to, workers int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "season <identifier> <season>",
		Short: "Classify every episode of a season",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := strings.TrimSpace(args[0])
			season, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid season %q", args[1])
			}
			rt, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			runCtx := services.WithRequestID(commandCtx(cmd), uuid.New().String())

			last := to
			if last <= 0 {
				series, err := rt.provider.FindSeries(runCtx, identifier)
				if err != nil {
					return fmt.Errorf("resolve series: %w", err)
				}
				count, err := rt.provider.SeasonEpisodeCount(runCtx, series.ID, season)
				if err != nil {
					return fmt.Errorf("season %d size unknown, pass --to: %w", season, err)
				}
				last = count
			}
			if from < 1 {
				from = 1
			}
			if last < from {
				return fmt.Errorf("empty episode range %d..%d", from, last)
			}
			if workers < 1 {
				workers = 1
			}

			results := make([]classifyResult, last-from+1)
			p := pool.New().WithMaxGoroutines(workers)
			for i := range results {
				q := episode.Query{Identifier: identifier, Season: season, Episode: from + i}
				p.Go(func() {
					outcome, err := rt.classifier.Explain(runCtx, q)
					results[i] = toClassifyResult(q, outcome, err)
				})
			}
			p.Wait()

			summary := map[string]int{}
			for _, r := range results {
				summary[r.Status]++
			}

			if jsonOutput {
				return writeJSON(cmd, seasonResult{Identifier: identifier, Season: season, Episodes: results, Summary: summary})
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				absolute := "-"
				if r.AbsoluteEpisode > 0 {
					absolute = strconv.Itoa(r.AbsoluteEpisode)
				}
				rows = append(rows, []string{strconv.Itoa(r.Episode), absolute, r.Status})
			}
			out := cmd.OutOrStdout()
			writeTable(out, []string{"Episode", "Absolute", "Status"}, rows, []columnAlignment{alignRight, alignRight, alignLeft})
			fmt.Fprintf(out, "filler %d, mixed %d, canon %d, no data %d\n",
				summary[classifier.StatusFiller.String()],
				summary[classifier.StatusMixed.String()],
				summary[classifier.StatusCanon.String()],
				summary[classifier.StatusNoData.String()])
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 1, "First episode to classify")
	cmd.Flags().IntVar(&to, "to", 0, "Last episode to classify (default: season length from metadata)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent classifications")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
