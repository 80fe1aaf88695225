package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/matcher"
	"fillerinfo/internal/textutil"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the filler database",
	}

	dbCmd.AddCommand(newDBListCommand(ctx))
	dbCmd.AddCommand(newDBShowCommand(ctx))
	dbCmd.AddCommand(newDBStatsCommand(ctx))
	dbCmd.AddCommand(newDBMatchCommand(ctx))

	return dbCmd
}

func newDBListCommand(ctx *commandContext) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List database entries in file order",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			needle := textutil.Normalize(search)
			rows := make([][]string, 0, db.Len())
			for _, entry := range db.Entries() {
				if needle != "" && !strings.Contains(textutil.Normalize(entry.Record.Name), needle) && !strings.Contains(entry.Key, needle) {
					continue
				}
				rows = append(rows, []string{
					entry.Key,
					entry.Record.Name,
					strconv.Itoa(len(entry.Record.Filler)),
					strconv.Itoa(len(entry.Record.Mixed)),
				})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No matching entries")
				return nil
			}
			writeTable(out, []string{"Key", "Name", "Filler", "Mixed"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Only show entries whose name or key contains this text")
	return cmd
}

func newDBShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show the filler and mixed episodes of one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			key := strings.TrimSpace(args[0])
			rec, ok := db.Get(key)
			if !ok {
				return fmt.Errorf("no database entry with key %q", key)
			}
			if jsonOutput {
				return writeJSON(cmd, map[string]fillerdb.Record{key: *rec})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:    %s\n", key)
			fmt.Fprintf(out, "Name:   %s\n", rec.Name)
			fmt.Fprintf(out, "Filler: %s\n", formatEpisodes(rec.Filler.Sorted()))
			fmt.Fprintf(out, "Mixed:  %s\n", formatEpisodes(rec.Mixed.Sorted()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDBStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the loaded database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			filler, mixed := 0, 0
			for _, entry := range db.Entries() {
				filler += len(entry.Record.Filler)
				mixed += len(entry.Record.Mixed)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source:          %s\n", db.Origin())
			fmt.Fprintf(out, "Series:          %d\n", db.Len())
			fmt.Fprintf(out, "Filler episodes: %d\n", filler)
			fmt.Fprintf(out, "Mixed episodes:  %d\n", mixed)
			return nil
		},
	}
}

func newDBMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <title>",
		Short: "Show which database entry a title resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.database()
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")
			m := matcher.NewFromConfig(cfg, logger)
			match := m.FindBestMatch(title, db)
			out := cmd.OutOrStdout()
			if match == nil {
				fmt.Fprintf(out, "No entry scores at least %.2f for %q\n", m.Threshold(), title)
				return nil
			}
			fmt.Fprintf(out, "%s (%s) score %.3f\n", match.Key, match.Name, match.Score)
			return nil
		},
	}
}

// formatEpisodes collapses consecutive numbers into ranges: 1-3, 7, 9-10.
func formatEpisodes(episodes []int) string {
	if len(episodes) == 0 {
		return "none"
	}
	var parts []string
	start, prev := episodes[0], episodes[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, ep := range episodes[1:] {
		if ep == prev+1 {
			prev = ep
			continue
		}
		flush()
		start, prev = ep, ep
	}
	flush()
	return strings.Join(parts, ", ")
}
