package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fillerinfo/internal/services"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the identity cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached identifier to database key mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.identityCache()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Identity cache is empty")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				cached := "-"
				if !entry.CachedAt.IsZero() {
					cached = entry.CachedAt.Local().Format(stampLayout)
				}
				rows = append(rows, []string{entry.Identifier, entry.Key, cached})
			}
			writeTable(out, []string{"Identifier", "Key", "Cached"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identifier>...",
		Short: "Forget cached mappings so the titles are matched again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.identityCache()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var missing []string
			for _, id := range args {
				err := store.Remove(cmd.Context(), id)
				switch {
				case errors.Is(err, services.ErrNotFound):
					missing = append(missing, id)
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "Removed %s\n", id)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("not cached: %v", missing)
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the identity cache without --yes")
			}
			store, err := ctx.identityCache()
			if err != nil {
				return err
			}
			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached mappings\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the cache")
	return cmd
}
