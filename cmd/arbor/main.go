// Command arbor views, edits and exports outline trees.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/loader"
	"github.com/vanderheijden86/arbor/pkg/logger"
	"github.com/vanderheijden86/arbor/pkg/tree"
	"golang.org/x/term"
)

// build-time override (e.g. -ldflags "-X main.version=1.2.3")
var version = "dev"

// isTerminal is swapped out in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// cli holds the global flags and what PersistentPreRunE derives from them.
type cli struct {
	configPath string
	logLevel   string
	verbose    bool
	debug      bool

	cfg    config.Config
	root   string // project root, empty outside a project
	log    zerolog.Logger
	logger *logger.Logger
}

func main() {
	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root Cobra command.
func newRootCmd() *cobra.Command {
	c := &cli{log: zerolog.Nop()}
	cmd := &cobra.Command{
		Use:   "arbor",
		Short: "Outline tree viewer and editor",
		Long: strings.TrimSpace(`
arbor - outline tree viewer and editor

Outlines are YAML or JSON documents of nested items. arbor opens them in an
interactive tree view, prints and exports them, and keeps named snapshots in
a SQLite database under .arbor/.`),
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file; its relative paths resolve against its directory (default: .arbor/config.yaml in the project)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug|info|warn|error|disabled")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose (info) logging")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging (overrides --verbose)")
	cmd.Version = version

	cmd.AddCommand(c.newViewCmd())
	cmd.AddCommand(c.newPrintCmd())
	cmd.AddCommand(c.newExportCmd())
	cmd.AddCommand(c.newStatsCmd())
	cmd.AddCommand(c.newCheckCmd())
	cmd.AddCommand(c.newSnapshotCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// newVersionCmd prints version info (simple helper).
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arbor version: %s\n", version)
		},
	}
}

// setup loads the configuration and builds the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	if c.configPath != "" {
		cfg, err := config.LoadFromFile(c.configPath)
		if err != nil {
			return err
		}
		// Relative paths in an explicit config file are relative to the file.
		abs, err := filepath.Abs(c.configPath)
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfg.Resolve(filepath.Dir(abs))
		c.cfg = cfg
		c.root, _ = config.DetectCurrentProject()
	} else {
		cfg, root, err := config.Discover(cwd)
		if err != nil {
			return err
		}
		c.cfg, c.root = cfg, root
	}

	level := c.cfg.Log.Level
	switch {
	case c.debug:
		level = "debug"
	case c.verbose:
		level = "info"
	case c.logLevel != "":
		level = c.logLevel
	}
	b := logger.New().FromWriter(cmd.ErrOrStderr()).Level(level)
	if c.cfg.Log.File != "" {
		b = b.FromPath(c.cfg.Log.File)
	}
	l, err := b.Make()
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	c.logger = l
	c.log = l.Logger
	c.log.Debug().Str("project", c.root).Str("state_dir", c.cfg.StateDir).Msg("configuration loaded")
	return nil
}

func (c *cli) teardown(*cobra.Command, []string) error {
	if c.logger == nil {
		return nil
	}
	return c.logger.Close()
}

// outlinePath picks the outline to open: the argument, the configured
// default, or the only outline file in the project.
func (c *cli) outlinePath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c.cfg.Outline != "" {
		return c.cfg.Outline, nil
	}
	if c.root != "" {
		found := config.ScanOutlines(c.root, 3)
		if len(found) == 1 {
			return found[0], nil
		}
		if len(found) > 1 {
			return "", fmt.Errorf("several outlines found (%s); pass one explicitly", strings.Join(relativeTo(c.root, found), ", "))
		}
	}
	return "", errors.New("no outline given; pass a file or set outline in .arbor/config.yaml")
}

// loadTree reads an outline and builds a tree from it, in fast mode when
// the config asks for it.
func (c *cli) loadTree(path string) (*tree.Tree, *loader.Document, error) {
	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	t, err := c.buildTree(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	c.log.Info().Str("outline", path).Int("nodes", t.Len()).Msg("outline loaded")
	return t, doc, nil
}

func (c *cli) buildTree(doc *loader.Document) (*tree.Tree, error) {
	t := tree.New(tree.WithLogger(c.log))
	build := loader.Append
	if c.cfg.FastLoad {
		build = loader.Build
	}
	if err := build(t, doc); err != nil {
		return nil, err
	}
	return t, nil
}

// titleFor returns the document title, or the file name without extensions.
func titleFor(path string, doc *loader.Document) string {
	if doc != nil && doc.Title != "" {
		return doc.Title
	}
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

func relativeTo(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(base, p); err == nil {
			p = rel
		}
		out[i] = p
	}
	return out
}
