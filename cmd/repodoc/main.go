// Package main is the entry point for the repodoc command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/docextract"
	"github.com/CageChen/repodoc/internal/fs"
	"github.com/CageChen/repodoc/internal/logger"
	"github.com/CageChen/repodoc/internal/markdown"
	"github.com/CageChen/repodoc/internal/runner"
	"github.com/CageChen/repodoc/internal/structure"
)

var (
	cfgFile     string
	gitRef      string
	toStdout    bool
	toClipboard bool
	checkOnly   bool
	interactive bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repodoc [PATHS...]",
		Short: "Document the structure of a repository",
		Long: `repodoc writes REPOSITORY_STRUCTURE.md into each scanned root: an ASCII tree of
the directory followed by the leading documentation comment of every Python,
JavaScript/TypeScript and Java source file.

PATHS default to the configured folders, or the current directory. A path that is
a git URL is cloned and its document printed to stdout.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGenerate,
	}

	defaults := config.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.config/repodoc/config.yaml or ./repodoc.yaml)")
	pf.StringVar(&gitRef, "git-ref", "", "document a git ref (branch, tag or commit) instead of the working tree")
	pf.StringSlice("subdir", nil, "subdirectory to document separately (repeatable, e.g. frontend,backend)")
	pf.StringSliceP("exclude", "e", defaults.Exclude, "glob patterns to leave out of the scan")
	pf.Bool("gitignore", defaults.RespectGitignore, "respect .gitignore files")
	pf.StringP("output-name", "o", defaults.OutputName, "name of the document written into each root")
	pf.Bool("html", defaults.HTML, "also write an HTML rendering next to each document")
	pf.Int("cache-size", defaults.CacheSize, "number of extraction results kept in memory")
	pf.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.String("log-dir", "", "also write JSON logs to this directory")

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print documents instead of writing them")
	cmd.Flags().BoolVarP(&toClipboard, "clipboard", "c", false, "copy documents to the clipboard instead of writing them")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "exit non-zero if a written document is out of date")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the roots to document with a fuzzy finder")

	cmd.AddCommand(newWatchCmd(), newServeCmd())
	return cmd
}

// app is what every command needs once flags and configuration are resolved.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	runner *runner.Runner
	// folders cloned from git URLs; their documents are printed, never written
	clones  map[string]bool
	cleanup []func()
}

func (a *app) close() {
	a.runner.Close()
	for _, fn := range a.cleanup {
		fn()
	}
	_ = a.log.Sync()
}

func setup(cmd *cobra.Command, args []string) (*app, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, clones: make(map[string]bool)}
	log.Debug("config file: %s", cfg.GetConfigFilePath())

	paths, err := a.resolvePaths(cmd.Context(), args)
	if err != nil {
		a.cleanupOnly()
		return nil, err
	}
	switch {
	case len(paths) > 0:
		err = cfg.UsePaths(paths, gitRef)
	case len(cfg.Folders) == 0 || gitRef != "":
		err = cfg.UsePaths([]string{"."}, gitRef)
	}
	if err != nil {
		a.cleanupOnly()
		return nil, err
	}
	for i, f := range cfg.Folders {
		if a.clones[f.Path] {
			cfg.Folders[i].GitRef = ""
		}
	}

	cache, err := docextract.NewCache(docextract.NewDefault(), cfg.CacheSize)
	if err != nil {
		a.cleanupOnly()
		return nil, fmt.Errorf("create extraction cache: %w", err)
	}
	documenter := structure.New(cache, structure.WithLogger(log))
	a.runner = runner.New(cfg, documenter,
		runner.WithLogger(log),
		runner.WithHTML(markdown.NewParser()),
	)
	return a, nil
}

func (a *app) cleanupOnly() {
	for _, fn := range a.cleanup {
		fn()
	}
}

// resolvePaths clones git URLs into temporary directories and, with --interactive,
// asks for the roots to document.
func (a *app) resolvePaths(ctx context.Context, args []string) ([]string, error) {
	if interactive && len(args) == 0 {
		picked, err := pickRoots(a.cfg)
		if err != nil {
			return nil, err
		}
		args = picked
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if !fs.IsGitURL(arg) {
			paths = append(paths, arg)
			continue
		}
		a.log.Info("cloning %s", arg)
		dir, err := fs.CloneRepo(ctx, arg, nil)
		if err != nil {
			return nil, err
		}
		a.cleanup = append(a.cleanup, func() { _ = os.RemoveAll(dir) })
		a.clones[dir] = true
		paths = append(paths, dir)
	}
	return paths, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if checkOnly {
		err := a.runner.Run(ctx, runner.ModeCheck)
		if errors.Is(err, runner.ErrStale) {
			return fmt.Errorf("documents out of date, run repodoc to update:\n%w", err)
		}
		return err
	}

	var printed []string
	var errs []error
	for _, t := range a.runner.Targets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if toStdout || toClipboard || a.clones[t.Folder.Path] {
			res := a.runner.Generate(t)
			if res.Err != nil {
				errs = append(errs, res.Err)
				continue
			}
			printed = append(printed, res.Document)
			continue
		}
		if res := a.runner.Write(t); res.Err != nil {
			errs = append(errs, res.Err)
		} else if res.OutputPath == "" {
			// Git ref targets have nowhere to be written
			printed = append(printed, res.Document)
		}
	}

	if len(printed) > 0 {
		out := strings.Join(printed, "\n")
		if toClipboard {
			if err := clipboard.WriteAll(out); err != nil {
				a.log.Warn("writing to clipboard failed: %v", err)
				fmt.Fprint(cmd.OutOrStdout(), out)
			} else {
				a.log.Info("copied %d document(s) to the clipboard", len(printed))
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
	}
	return errors.Join(errs...)
}
