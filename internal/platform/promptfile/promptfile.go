// Package promptfile loads the document-type prompt map from a YAML file and
// keeps a docprompts.Store in sync with it.
//
// File layout:
//
//	prompts:
//	  - ehr: ecw
//	    documentType: Progress Notes
//	    prompt: Summarize the last visits.
package promptfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/docprompts"
)

type file struct {
	Prompts []docprompts.Entry `yaml:"prompts"`
}

// Parse decodes a prompt file.
func Parse(data []byte) ([]docprompts.Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding prompt file: %w", err)
	}
	return f.Prompts, nil
}

// Load reads path and replaces the contents of store. The store is left
// untouched when the file cannot be read or holds an invalid entry.
func Load(path string, store *docprompts.Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading prompt file: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return err
	}
	if err := store.Replace(entries); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Watcher reloads a prompt file into a store whenever it changes.
type Watcher struct {
	path     string
	store    *docprompts.Store
	logger   zerolog.Logger
	debounce time.Duration
}

func NewWatcher(path string, store *docprompts.Store, logger zerolog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		store:    store,
		logger:   logger.With().Str("component", "promptfile").Str("path", path).Logger(),
		debounce: 200 * time.Millisecond,
	}
}

// Run watches the file until ctx is cancelled. The parent directory is
// watched rather than the file so that editors replacing the file by rename
// are picked up. A failed reload keeps the previous prompts.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info().Msg("watching prompt file")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("prompt file watcher error")

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	if err := Load(w.path, w.store); err != nil {
		w.logger.Warn().Err(err).Msg("prompt file reload failed, keeping previous prompts")
		return
	}
	w.logger.Info().Int("entries", w.store.Len()).Msg("prompt file reloaded")
}
