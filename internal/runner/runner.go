// Package runner turns configured targets into structure documents: it opens each root,
// generates its document, writes or checks the output file and regenerates roots when
// the watcher reports changes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/fs"
	"github.com/CageChen/repodoc/internal/logger"
	"github.com/CageChen/repodoc/internal/markdown"
	"github.com/CageChen/repodoc/internal/structure"
	"github.com/CageChen/repodoc/internal/watcher"
)

// ErrStale is returned by Check when a written document no longer matches the tree.
var ErrStale = errors.New("document is out of date")

// Mode selects what Run does with every target.
type Mode int

// Run modes.
const (
	ModeWrite Mode = iota
	ModeCheck
)

// Result is the outcome of generating one target.
type Result struct {
	Target      config.Target `json:"target"`
	Document    string        `json:"-"`
	OutputPath  string        `json:"outputPath,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Err         error         `json:"-"`
}

// Runner generates documents for the configured targets.
type Runner struct {
	cfg        *config.Config
	documenter *structure.Documenter
	html       *markdown.Parser
	log        logger.Logger
	now        func() time.Time

	// genMu serializes generations; watcher callbacks and HTTP requests may overlap.
	genMu sync.Mutex

	mu      sync.RWMutex
	targets []config.Target
	results map[string]Result

	cbMu      sync.RWMutex
	callbacks []func(Result)

	timerMu sync.Mutex
	timers  map[string]*pendingRun
	closed  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithHTML enables writing an HTML rendering next to every document when the
// configuration asks for it.
func WithHTML(p *markdown.Parser) Option {
	return func(r *Runner) {
		r.html = p
	}
}

// New creates a runner for cfg's targets.
func New(cfg *config.Config, documenter *structure.Documenter, opts ...Option) *Runner {
	r := &Runner{
		cfg:        cfg,
		documenter: documenter,
		log:        logger.NewNop(),
		now:        time.Now,
		targets:    cfg.Targets(),
		results:    make(map[string]Result),
		timers:     make(map[string]*pendingRun),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Targets returns the current targets in configuration order.
func (r *Runner) Targets() []config.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]config.Target(nil), r.targets...)
}

// Target looks a target up by ID.
func (r *Runner) Target(id string) (config.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets {
		if t.ID == id {
			return t, true
		}
	}
	return config.Target{}, false
}

// Reload re-reads the targets from the configuration, dropping results of targets that
// no longer exist or changed.
func (r *Runner) Reload() {
	targets := r.cfg.Targets()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = targets
	for id, res := range r.results {
		if !containsTarget(targets, res.Target) {
			delete(r.results, id)
		}
	}
}

func containsTarget(targets []config.Target, t config.Target) bool {
	for _, candidate := range targets {
		if candidate.ID == t.ID && candidate.Dir == t.Dir &&
			candidate.Folder.Path == t.Folder.Path && candidate.Folder.GitRef == t.Folder.GitRef {
			return true
		}
	}
	return false
}

// Open builds the root node of t: the working tree or git ref of its folder, minus
// excluded, gitignored and generated files.
func (r *Runner) Open(t config.Target) (*fs.Node, error) {
	var fsys fs.FileSystem
	if t.Local() {
		fsys = fs.NewLocalFS(t.Folder.Path)
	} else {
		fsys = fs.NewGitFS(t.Folder.Path, t.Folder.GitRef)
	}

	exclude := make([]string, 0, len(r.cfg.Exclude)+len(t.Folder.Exclude)+2)
	exclude = append(exclude, r.cfg.Exclude...)
	exclude = append(exclude, t.Folder.Exclude...)
	exclude = append(exclude, r.cfg.OutputName, config.HTMLName(r.cfg.OutputName))

	var ignore []string
	if r.cfg.RespectGitignore {
		if t.Dir != "" {
			ignore = append(ignore, fs.LoadGitignore(fsys, "")...)
		}
		ignore = append(ignore, fs.LoadGitignore(fsys, t.Dir)...)
	}

	return fs.NewRoot(fsys, t.Dir, t.Name(), fs.NewFilter(t.Dir, exclude, ignore))
}

// Generate builds the document of t without writing it.
func (r *Runner) Generate(t config.Target) Result {
	res := Result{Target: t, GeneratedAt: r.now()}
	root, err := r.Open(t)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", t.Alias, err)
		return res
	}
	doc, err := r.documenter.Generate(root)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", t.Alias, err)
		return res
	}
	res.Document = doc
	return res
}

// OutputPath returns where the document of t is written, or "" for targets read from a
// git ref, which are never written.
func (r *Runner) OutputPath(t config.Target) string {
	if !t.Local() {
		return ""
	}
	return filepath.Join(t.AbsDir(), r.cfg.OutputName)
}

// Write generates the document of t, writes it into the target's root and records the
// result. Callbacks registered with OnGenerated see every successful result.
func (r *Runner) Write(t config.Target) Result {
	r.genMu.Lock()
	defer r.genMu.Unlock()

	res := r.Generate(t)
	if res.Err != nil {
		return res
	}

	if out := r.OutputPath(t); out != "" {
		if err := os.WriteFile(out, []byte(res.Document), 0644); err != nil {
			res.Err = fmt.Errorf("write %s: %w", out, err)
			return res
		}
		res.OutputPath = out
		if err := r.writeHTML(t, res.Document); err != nil {
			res.Err = err
			return res
		}
		r.log.Info("wrote %s", out)
	} else {
		r.log.Info("generated %s", t.Alias)
	}

	r.mu.Lock()
	r.results[t.ID] = res
	r.mu.Unlock()

	r.cbMu.RLock()
	callbacks := make([]func(Result), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(res)
	}
	return res
}

func (r *Runner) writeHTML(t config.Target, doc string) error {
	if r.html == nil || !r.cfg.HTML {
		return nil
	}
	page, err := r.html.Render([]byte(doc), markdown.PageOptions{ID: t.ID})
	if err != nil {
		return fmt.Errorf("render %s: %w", t.Alias, err)
	}
	out := filepath.Join(t.AbsDir(), config.HTMLName(r.cfg.OutputName))
	if err := os.WriteFile(out, []byte(page), 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// Check reports ErrStale when the written document of t is missing or differs from a
// fresh generation, ignoring the timestamp line. Targets read from a git ref have no
// written document and always pass.
func (r *Runner) Check(t config.Target) error {
	out := r.OutputPath(t)
	if out == "" {
		r.log.Debug("skipping check of %s: git ref targets are not written", t.Alias)
		return nil
	}

	res := r.Generate(t)
	if res.Err != nil {
		return res.Err
	}

	existing, err := os.ReadFile(out)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", out, ErrStale)
		}
		return fmt.Errorf("read %s: %w", out, err)
	}
	if structure.StripTimestamp(string(existing)) != structure.StripTimestamp(res.Document) {
		return fmt.Errorf("%s: %w", out, ErrStale)
	}
	return nil
}

// Run writes or checks every target. It keeps going after a failure and returns all
// failures joined.
func (r *Runner) Run(ctx context.Context, mode Mode) error {
	var errs []error
	for _, t := range r.Targets() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		switch mode {
		case ModeCheck:
			if err := r.Check(t); err != nil {
				errs = append(errs, err)
			}
		default:
			if res := r.Write(t); res.Err != nil {
				errs = append(errs, res.Err)
			}
		}
	}
	return errors.Join(errs...)
}

// Results returns the latest written result of every target that has one, in target
// order.
func (r *Runner) Results() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []Result
	for _, t := range r.targets {
		if res, ok := r.results[t.ID]; ok {
			results = append(results, res)
		}
	}
	return results
}

// Result returns the latest written result of the target with the given ID.
func (r *Runner) Result(id string) (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[id]
	return res, ok
}

// OnGenerated registers a callback for every successfully written document.
func (r *Runner) OnGenerated(cb func(Result)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// OnChange schedules regeneration of every local target containing the changed path.
// Events for the same target within the debounce window collapse into one generation.
func (r *Runner) OnChange(e watcher.Event) {
	if r.cfg.IsOutputFile(e.Path) {
		return
	}
	for _, t := range r.Targets() {
		if t.Local() && within(t.AbsDir(), e.Path) {
			r.log.Debug("%s changed (%s), regenerating %s", e.Path, e.Type, t.Alias)
			r.schedule(t.ID)
		}
	}
}

// pendingRun is one scheduled regeneration. A timer that already fired cannot be
// stopped, so the callback compares its own entry with the map before running.
type pendingRun struct {
	timer *time.Timer
}

func (r *Runner) schedule(id string) {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	if r.closed {
		return
	}
	if prev, ok := r.timers[id]; ok {
		prev.timer.Stop()
	}
	run := &pendingRun{}
	r.timers[id] = run
	run.timer = time.AfterFunc(r.cfg.Debounce(), func() { r.fire(id, run) })
}

// fire regenerates target id unless run was replaced or the runner closed meanwhile.
func (r *Runner) fire(id string, run *pendingRun) {
	r.timerMu.Lock()
	current := r.timers[id] == run
	if current {
		delete(r.timers, id)
	}
	closed := r.closed
	r.timerMu.Unlock()
	if closed || !current {
		return
	}

	t, ok := r.Target(id)
	if !ok {
		return
	}
	if res := r.Write(t); res.Err != nil {
		r.log.Error("regenerate %s: %v", t.Alias, res.Err)
	}
}

// Close cancels pending regenerations.
func (r *Runner) Close() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	r.closed = true
	for id, run := range r.timers {
		run.timer.Stop()
		delete(r.timers, id)
	}
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
