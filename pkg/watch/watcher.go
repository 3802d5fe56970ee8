// Package watch records new versions automatically when registered
// artifacts change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/solaius/standards-registry/pkg/digest"
	"github.com/solaius/standards-registry/pkg/registry"
	"github.com/solaius/standards-registry/pkg/semver"
)

// DefaultDebounce is the quiet period after the last write before a
// change is recorded. Editors commonly emit several writes per save.
const DefaultDebounce = 2 * time.Second

// autoDescription is used for versions recorded by the watcher.
const autoDescription = "Automatic version from file change"

// Config controls the artifact watcher.
type Config struct {
	// Enabled turns the watcher on.
	Enabled bool `yaml:"enabled"`
	// Artifacts lists repository-relative paths to watch.
	Artifacts []string `yaml:"artifacts"`
	// DebounceSeconds is the quiet period before a change is recorded.
	// Zero means DefaultDebounce.
	DebounceSeconds int `yaml:"debounceSeconds"`
}

// Debounce returns the configured quiet period.
func (c Config) Debounce() time.Duration {
	if c.DebounceSeconds <= 0 {
		return DefaultDebounce
	}
	return time.Duration(c.DebounceSeconds) * time.Second
}

// Watcher observes registered artifacts and records a patch version for
// each settled change. Changes that leave the content hash equal to the
// newest recorded version (a rollback restore, a re-save without edits)
// are skipped.
type Watcher struct {
	controller *registry.Controller
	artifacts  map[string]struct{}
	debounce   time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher for the given repository-relative artifact paths.
func New(c *registry.Controller, artifacts []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("no artifacts to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(artifacts))
	for _, a := range artifacts {
		set[filepath.Clean(a)] = struct{}{}
	}
	return &Watcher{
		controller: c.As("watcher"),
		artifacts:  set,
		debounce:   debounce,
		logger:     logger,
		timers:     make(map[string]*time.Timer),
	}, nil
}

// Run watches until the context is cancelled. Directories containing the
// registered artifacts are watched rather than the files themselves, so
// rename-based saves keep being observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start artifact watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.watchDirs() {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}

	w.logger.Info("artifact watcher started",
		"artifacts", len(w.artifacts),
		"debounce", w.debounce.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("artifact watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("artifact watcher error", "error", err)
		}
	}
}

// watchDirs returns the unique absolute directories holding artifacts.
func (w *Watcher) watchDirs() []string {
	seen := make(map[string]struct{})
	var dirs []string
	for rel := range w.artifacts {
		dir := filepath.Join(w.controller.Repo(), filepath.Dir(rel))
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}
	rel, err := filepath.Rel(w.controller.Repo(), event.Name)
	if err != nil {
		return
	}
	rel = filepath.Clean(rel)
	if _, registered := w.artifacts[rel]; !registered {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[rel]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[rel] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, rel)
		w.mu.Unlock()
		w.record(ctx, rel)
	})
}

// record captures the settled content as a new patch version.
func (w *Watcher) record(ctx context.Context, rel string) {
	if ctx.Err() != nil {
		return
	}
	if w.unchanged(rel) {
		w.logger.Debug("artifact unchanged, skipping", "file", rel)
		return
	}
	v, err := w.controller.Create(ctx, rel, autoDescription, semver.BumpPatch)
	if err != nil {
		w.logger.Error("automatic version failed", "file", rel, "error", err)
		return
	}
	w.logger.Info("automatic version recorded", "file", rel, "versionId", v.VersionID)
}

// unchanged reports whether the live content already matches the newest
// recorded version of the artifact.
func (w *Watcher) unchanged(rel string) bool {
	hash, err := digest.File(filepath.Join(w.controller.Repo(), rel))
	if err != nil {
		return false
	}
	versions := w.controller.Versions()
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].File == rel {
			return versions[i].Hash == hash
		}
	}
	return false
}
