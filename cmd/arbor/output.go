package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/arbor/pkg/analysis"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/export"
	"github.com/vanderheijden86/arbor/pkg/loader"
	"github.com/vanderheijden86/arbor/pkg/model"
	"golang.org/x/term"
)

// confirmOverwrite asks before replacing an existing export target. It is
// swapped out in tests.
var confirmOverwrite = func(path string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
		Affirmative("Overwrite").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

func (c *cli) newPrintCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "print [outline]",
		Short: "Print an outline as a nested list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.outlinePath(args)
			if err != nil {
				return err
			}
			t, doc, err := c.loadTree(path)
			if err != nil {
				return err
			}
			md := export.Markdown(t, titleFor(path, doc))
			if raw || !isTerminal(os.Stdout) {
				_, err := io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			out, err := renderMarkdown(md)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print plain Markdown without terminal styling")
	return cmd
}

// renderMarkdown styles md for the terminal, wrapped to its width.
func renderMarkdown(md string) (string, error) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = min(w-4, 120)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render(md)
}

// export command flags
type exportFlags struct {
	format string
	output string
	force  bool
}

var exportFormats = []string{"md", "svg", "png", "json", "yaml"}

func (c *cli) newExportCmd() *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export [outline]",
		Short: "Export an outline as Markdown, SVG, PNG, JSON or YAML",
		Long: strings.TrimSpace(`
Export an outline. The format defaults to the output file's extension.

Examples:
  arbor export menu.outline.yaml -o menu.svg
  arbor export menu.outline.yaml --format md
  arbor export -o tree.png --force
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: "+strings.Join(exportFormats, "|"))
	cmd.Flags().StringVarP(&f.output, "out", "o", "", "Write output to file instead of stdout (required for png)")
	cmd.Flags().BoolVar(&f.force, "force", false, "Overwrite the output file without asking")
	return cmd
}

func (c *cli) runExport(cmd *cobra.Command, args []string, f exportFlags) error {
	format, err := exportFormat(f)
	if err != nil {
		return err
	}
	if format == "png" && (f.output == "" || f.output == "-") {
		return errors.New("png export needs an output file (-o)")
	}

	path, err := c.outlinePath(args)
	if err != nil {
		return err
	}
	t, doc, err := c.loadTree(path)
	if err != nil {
		return err
	}

	toFile := f.output != "" && f.output != "-"
	if toFile {
		if ok, err := c.mayWrite(f.output, f.force); err != nil || !ok {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(f.output), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	title := titleFor(path, doc)
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := export.PNG(f.output, t); err != nil {
			return err
		}
	case "svg":
		err = export.SVG(&buf, t)
	case "md":
		buf.WriteString(export.Markdown(t, title))
	case "json", "yaml":
		var data []byte
		data, err = loader.Marshal("export."+format, loader.Dump(t, title))
		buf.Write(data)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}

	if format != "png" {
		if !toFile {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(f.output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}
	c.log.Info().Str("format", format).Str("out", f.output).Int("nodes", t.Len()).Msg("export complete")
	if toFile {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d nodes to %s\n", t.Len(), f.output)
	}
	return nil
}

// exportFormat resolves --format, falling back to the output extension and
// then to Markdown.
func exportFormat(f exportFlags) (string, error) {
	format := strings.ToLower(f.format)
	if format == "" && f.output != "" {
		switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.output), ".")); ext {
		case "markdown":
			format = "md"
		case "yml":
			format = "yaml"
		default:
			format = ext
		}
	}
	if format == "" {
		format = "md"
	}
	for _, known := range exportFormats {
		if format == known {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", format)
}

// mayWrite reports whether path can be written. Existing files need --force,
// or a yes from the user when stdin is a terminal.
func (c *cli) mayWrite(path string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if !isTerminal(os.Stdin) {
		return false, fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	ok, err := confirmOverwrite(path)
	if err != nil {
		return false, err
	}
	if !ok {
		c.log.Info().Str("out", path).Msg("export cancelled")
	}
	return ok, nil
}

func (c *cli) newStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats [outline]",
		Short: "Show the shape of an outline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.outlinePath(args)
			if err != nil {
				return err
			}
			t, _, err := c.loadTree(path)
			if err != nil {
				return err
			}
			s := analysis.Compute(t)
			if asJSON {
				data, err := json.MarshalIndent(s, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			renderStats(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print machine-readable JSON")
	return cmd
}

// renderStats writes the summary and hub tables.
func renderStats(w io.Writer, s analysis.Stats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Nodes", s.Nodes},
		{"Leaves", s.Leaves},
		{"Max depth", s.MaxDepth},
		{"Expanded", s.Expanded},
		{"Mean depth", fmt.Sprintf("%.2f", s.DepthMean)},
		{"Branching", fmt.Sprintf("%.2f ± %.2f", s.BranchingMean, s.BranchingStdDev)},
	})
	tw.AppendSeparator()
	for _, k := range []model.Kind{model.KindLabel, model.KindControl, model.KindIconLabel, analysis.KindOther} {
		if n := s.ByKind[k]; n > 0 {
			tw.AppendRow(table.Row{"Kind: " + string(k), n})
		}
	}
	tw.Render()

	if len(s.Hubs) == 0 {
		return
	}
	fmt.Fprintln(w)
	hw := table.NewWriter()
	hw.SetOutputMirror(w)
	hw.SetStyle(table.StyleRounded)
	hw.SetTitle("Hubs")
	hw.AppendHeader(table.Row{"Path", "Score"})
	for _, h := range s.Hubs {
		hw.AppendRow(table.Row{h.Path, fmt.Sprintf("%.1f", h.Score)})
	}
	hw.Render()
}

func (c *cli) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [outline...]",
		Short: "Validate outlines and the trees built from them",
		Long: `Validate outlines and the trees built from them.

Without arguments every *.outline.{yaml,yml,json} file in the project is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				if c.cfg.Outline != "" {
					paths = []string{c.cfg.Outline}
				} else if c.root != "" {
					paths = config.ScanOutlines(c.root, 3)
				}
			}
			if len(paths) == 0 {
				return errors.New("no outlines to check")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return c.runCheck(ctx, cmd.OutOrStdout(), paths)
		},
	}
}

// runCheck parses every file in parallel, then builds and verifies each tree.
func (c *cli) runCheck(ctx context.Context, w io.Writer, paths []string) error {
	docs, err := loader.LoadAll(ctx, paths)
	if err != nil {
		return err
	}
	failed := 0
	for i, doc := range docs {
		t, err := c.buildTree(doc)
		if err == nil {
			err = t.Verify()
		}
		if err == nil && t.Len() != doc.Count() {
			err = fmt.Errorf("built %d nodes from %d items", t.Len(), doc.Count())
		}
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", paths[i], err)
			continue
		}
		fmt.Fprintf(w, "ok   %s (%d nodes)\n", paths[i], t.Len())
		for n := range t.All() {
			if il, ok := n.Payload().(*model.IconLabel); ok && !il.Icon.IsKnown() {
				fmt.Fprintf(w, "     note: %s uses unknown icon %q\n", n.NamePath(), il.Icon)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d outlines failed", failed, len(paths))
	}
	return nil
}
