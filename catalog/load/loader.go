// Package load bootstraps a datastore's catalog from DEFINE statement
// files on disk (a convenience for embedding/test setups that don't drive
// schema entirely through the query language) and optionally watches them
// for changes, re-applying the file's statements on every write (spec §6
// "External Interfaces", supplemented: the original implementation's
// embedded/bootstrap mode for pre-seeding a store from static schema
// files).
package load

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Applier executes a single batch of DEFINE statements (as raw query
// text) against the datastore. The loader is decoupled from the parser
// and executor through this interface to avoid an import cycle between
// catalog/load and syn/exec.
type Applier interface {
	Apply(ctx context.Context, query string) error
}

// Loader reads `.surql`-style schema files from a directory in
// lexical filename order (so numeric prefixes like "001_namespace.surql"
// control apply order) and applies them through an Applier.
type Loader struct {
	dir     string
	applier Applier
	log     *zap.Logger
}

// New returns a Loader reading schema files from dir.
func New(dir string, applier Applier, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dir: dir, applier: applier, log: log}
}

// LoadAll applies every schema file in the directory once, in order.
func (l *Loader) LoadAll(ctx context.Context) error {
	files, err := l.schemaFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := l.applyFile(ctx, f); err != nil {
			return fmt.Errorf("veloxdb/catalog/load: %s: %w", f, err)
		}
	}
	return nil
}

func (l *Loader) schemaFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".surql" {
			continue
		}
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) applyFile(ctx context.Context, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	l.log.Info("applying schema file", zap.String("path", path))
	return l.applier.Apply(ctx, string(contents))
}

// Watch applies every schema file once via LoadAll, then watches the
// directory and re-applies a file whenever it is written, until ctx is
// cancelled. It runs in the calling goroutine; callers that want
// background hot-reload should invoke it via `go loader.Watch(ctx)`.
func (l *Loader) Watch(ctx context.Context) error {
	if err := l.LoadAll(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("veloxdb/catalog/load: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("veloxdb/catalog/load: watch %s: %w", l.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Ext(ev.Name) != ".surql" {
				continue
			}
			if err := l.applyFile(ctx, ev.Name); err != nil {
				l.log.Error("reload failed", zap.String("path", ev.Name), zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Error("watcher error", zap.Error(err))
		}
	}
}
