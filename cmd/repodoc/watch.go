package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/runner"
	"github.com/CageChen/repodoc/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [PATHS...]",
		Short: "Regenerate documents whenever files below their roots change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, args)
			if err != nil {
				return err
			}
			defer a.close()

			w, err := startWatching(cmd.Context(), a, nil)
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()

			<-cmd.Context().Done()
			a.log.Info("stopping")
			return nil
		},
	}
	cmd.Flags().Int("debounce", config.DefaultConfig().DebounceMs, "milliseconds of quiet before a changed root is regenerated")
	return cmd
}

// startWatching writes every document once, then regenerates roots as their files
// change. onEvent, if set, also receives every change.
func startWatching(ctx context.Context, a *app, onEvent watcher.Callback) (*watcher.Watcher, error) {
	if err := a.runner.Run(ctx, runner.ModeWrite); err != nil {
		a.log.Warn("initial generation: %v", err)
	}

	w, err := watcher.New(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	w.OnChange(a.runner.OnChange)
	if onEvent != nil {
		w.OnChange(onEvent)
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return nil, err
	}

	for _, t := range a.runner.Targets() {
		if t.Local() {
			a.log.Info("watching %s (%s)", t.Alias, t.AbsDir())
		} else {
			a.log.Info("%s is read from git ref %s and not watched", t.Alias, t.Folder.GitRef)
		}
	}
	return w, nil
}
