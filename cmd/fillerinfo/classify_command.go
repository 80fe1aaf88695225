package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fillerinfo/internal/classifier"
	"fillerinfo/internal/episode"
	"fillerinfo/internal/services"
)

type classifyResult struct {
	Identifier      string  `json:"identifier"`
	Season          int     `json:"season"`
	Episode         int     `json:"episode"`
	Status          string  `json:"status"`
	DisplayName     string  `json:"display_name,omitempty"`
	Key             string  `json:"key,omitempty"`
	RecordName      string  `json:"record_name,omitempty"`
	CacheHit        bool    `json:"cache_hit"`
	Score           float64 `json:"score,omitempty"`
	AbsoluteEpisode int     `json:"absolute_episode,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Error           string  `json:"error,omitempty"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var explain bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify <identifier> <season> <episode> | classify <addon-id>",
		Short: "Classify one episode as filler, mixed or canon",
		Example: "  fillerinfo classify tt0409591 1 26\n" +
			"  fillerinfo classify kitsu:11:220 --explain",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("expected <identifier> <season> <episode> or a single addon id, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArgs(args)
			if err != nil {
				return err
			}
			rt, err := ctx.buildRuntime()
			if err != nil {
				return err
			}

			runCtx := services.WithRequestID(commandCtx(cmd), uuid.New().String())
			outcome, classifyErr := rt.classifier.Explain(runCtx, q)
			result := toClassifyResult(q, outcome, classifyErr)

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if explain {
				printExplanation(out, result)
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", q.String(), statusLabel(outcome.Status))
			return nil
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "Show how the status was reached")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func parseQueryArgs(args []string) (episode.Query, error) {
	if len(args) == 1 {
		return episode.ParseID(args[0])
	}
	identifier := strings.TrimSpace(args[0])
	if identifier == "" {
		return episode.Query{}, fmt.Errorf("identifier is required")
	}
	season, err := strconv.Atoi(args[1])
	if err != nil {
		return episode.Query{}, fmt.Errorf("invalid season %q", args[1])
	}
	ep, err := strconv.Atoi(args[2])
	if err != nil {
		return episode.Query{}, fmt.Errorf("invalid episode %q", args[2])
	}
	return episode.Query{Identifier: identifier, Season: season, Episode: ep}, nil
}

func toClassifyResult(q episode.Query, outcome classifier.Outcome, err error) classifyResult {
	result := classifyResult{
		Identifier:      q.Identifier,
		Season:          q.Season,
		Episode:         q.Episode,
		Status:          outcome.Status.String(),
		DisplayName:     outcome.DisplayName,
		Key:             outcome.Key,
		RecordName:      outcome.RecordName,
		CacheHit:        outcome.CacheHit,
		Score:           outcome.Score,
		AbsoluteEpisode: outcome.AbsoluteEpisode,
	}
	if err != nil {
		result.Reason = services.Kind(err)
		result.Error = err.Error()
	}
	return result
}

func printExplanation(out io.Writer, r classifyResult) {
	fmt.Fprintf(out, "Query:            %s S%dE%d\n", r.Identifier, r.Season, r.Episode)
	fmt.Fprintf(out, "Display name:     %s\n", orDash(r.DisplayName))
	key := orDash(r.Key)
	switch {
	case r.Key == "":
	case r.CacheHit:
		key += " (identity cache)"
	default:
		key += fmt.Sprintf(" (matched %q, score %.3f)", r.RecordName, r.Score)
	}
	fmt.Fprintf(out, "Database key:     %s\n", key)
	if r.AbsoluteEpisode > 0 {
		fmt.Fprintf(out, "Absolute episode: %d\n", r.AbsoluteEpisode)
	}
	fmt.Fprintf(out, "Status:           %s\n", r.Status)
	if r.Reason != "" {
		fmt.Fprintf(out, "Reason:           %s\n", r.Reason)
		fmt.Fprintf(out, "Detail:           %s\n", r.Error)
	}
}

func statusLabel(status classifier.Status) string {
	if status == classifier.StatusNoData {
		return "no data available"
	}
	return string(status)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
