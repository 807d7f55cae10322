package main

import (
	"bytes"
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/loader"
	"github.com/vanderheijden86/arbor/pkg/tree"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

func (c *cli) newViewCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "view [outline]",
		Short: "Open an outline in the interactive tree view",
		Long: `Open an outline in the interactive tree view.

Edits are written back to the outline with s. The file is watched, and
changes made elsewhere are picked up while there are no unsaved edits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(args, !noWatch)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the outline when it changes on disk")
	return cmd
}

func (c *cli) runView(args []string, watch bool) error {
	// The TUI owns stderr; only log when a log file is configured.
	if c.cfg.Log.File == "" {
		c.log = zerolog.Nop()
	}
	log := c.log

	path, err := c.outlinePath(args)
	if err != nil {
		return err
	}
	t, doc, err := c.loadTree(path)
	if err != nil {
		return err
	}

	if c.root != "" {
		if err := loader.EnsureIgnored(c.root, config.DirName); err != nil {
			log.Warn().Err(err).Msg("failed to update .gitignore")
		}
	}

	// lastSaved holds the bytes of our own last write so the watcher can
	// tell it apart from an outside edit.
	var lastSaved atomic.Pointer[[]byte]
	title := titleFor(path, doc)
	save := func(t *tree.Tree) error {
		out := loader.Dump(t, title)
		data, err := loader.Marshal(path, out)
		if err != nil {
			return err
		}
		lastSaved.Store(&data)
		return loader.SaveFile(path, out)
	}

	app := ui.NewApp(t, ui.ThemeFor(c.cfg.Theme),
		ui.WithSave(save),
		ui.WithStateDir(c.cfg.StateDir),
		ui.WithExpandDepth(c.cfg.ExpandDepth),
		ui.WithAppLogger(log),
	)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if watch {
		w, err := loader.NewWatcher(path, log)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Warn().Err(err).Msg("live reload disabled")
		} else {
			defer w.Stop()
			go c.forwardReloads(p, w.Subscribe(), path, &lastSaved)
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running tree view: %w", err)
	}
	return nil
}

// forwardReloads turns file change signals into ReloadMsgs until ch closes.
func (c *cli) forwardReloads(p *tea.Program, ch <-chan struct{}, path string, lastSaved *atomic.Pointer[[]byte]) {
	for range ch {
		data, err := os.ReadFile(path)
		if err == nil {
			if own := lastSaved.Load(); own != nil && bytes.Equal(data, *own) {
				continue
			}
		}
		t, _, err := c.loadTree(path)
		p.Send(ui.ReloadMsg{Tree: t, Err: err})
	}
}
