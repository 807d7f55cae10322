package main

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/arbor/pkg/drift"
	"github.com/vanderheijden86/arbor/pkg/loader"
	"github.com/vanderheijden86/arbor/pkg/store"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

func (c *cli) newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, restore and list named outline snapshots",
		Long: `Save, restore and list named outline snapshots.

Snapshots live in a SQLite database (default .arbor/snapshots.db) and keep
each node's name, widget, position and expanded flag.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save <name> [outline]",
		Short: "Store the outline under name, replacing an older snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.outlinePath(args[1:])
			if err != nil {
				return err
			}
			t, _, err := c.loadTree(path)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				if err := s.Save(ctx, args[0], t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d nodes as %q\n", t.Len(), args[0])
				return nil
			})
		},
	})

	var out string
	var force bool
	load := &cobra.Command{
		Use:   "load <name>",
		Short: "Write a snapshot back out as an outline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := out
			if target == "" {
				p, err := c.outlinePath(nil)
				if err != nil {
					return fmt.Errorf("no target: %w", err)
				}
				target = p
			}
			if ok, err := c.mayWrite(target, force); err != nil || !ok {
				return err
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				t := tree.New(tree.WithLogger(c.log))
				if err := s.Load(ctx, args[0], t); err != nil {
					return err
				}
				if err := loader.SaveFile(target, loader.Dump(t, args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %q (%d nodes) to %s\n", args[0], t.Len(), target)
				return nil
			})
		},
	}
	load.Flags().StringVarP(&out, "out", "o", "", "Outline file to write (default: the project outline)")
	load.Flags().BoolVar(&force, "force", false, "Overwrite the target without asking")
	cmd.AddCommand(load)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				infos, err := s.List(ctx)
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No snapshots yet.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.SetStyle(table.StyleRounded)
				tw.AppendHeader(table.Row{"Name", "Nodes", "Saved"})
				for _, info := range infos {
					tw.AppendRow(table.Row{info.Name, info.Nodes, info.SavedAt.Local().Format(time.DateTime)})
				}
				tw.Render()
				return nil
			})
		},
	})

	cmd.AddCommand(c.newSnapshotDiffCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				if err := s.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

func (c *cli) newSnapshotDiffCmd() *cobra.Command {
	var asJSON, strict bool
	cmd := &cobra.Command{
		Use:   "diff <name> [outline]",
		Short: "Report how the outline drifted from a snapshot",
		Long: `Report how the outline drifted from a snapshot.

Removed controls are critical, removed nodes, deeper nesting and hub shifts
are warnings, and additions are informational. With --strict the command
fails on warnings and critical changes.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.outlinePath(args[1:])
			if err != nil {
				return err
			}
			current, _, err := c.loadTree(path)
			if err != nil {
				return err
			}
			var result *drift.Result
			err = c.withStore(cmd.Context(), func(ctx context.Context, s *store.Store) error {
				baseline := tree.New(tree.WithLogger(c.log))
				if err := s.Load(ctx, args[0], baseline); err != nil {
					return err
				}
				result = drift.NewCalculator(baseline, current, nil).Calculate()
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), result.Summary())
			}
			c.log.Info().Str("snapshot", args[0]).Int("alerts", len(result.Alerts)).Msg("drift computed")
			if strict && result.HasWarnings() {
				return fmt.Errorf("outline drifted from %q (exit code %d)", args[0], result.ExitCode())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print machine-readable JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on warning or critical drift")
	return cmd
}

// withStore opens the configured snapshot database for the duration of fn.
func (c *cli) withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := store.Open(c.cfg.Snapshots, store.WithLogger(c.log))
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
