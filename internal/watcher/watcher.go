// Package watcher ingests files dropped into an inbox directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/extractor"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/fsnotify/fsnotify"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Ingester stores one uploaded file. The document service satisfies it.
type Ingester interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.StoredDocument, error)
}

// Watcher uploads every regular file that appears in its inbox, then moves
// it to processed/ or failed/.
type Watcher struct {
	dir         string
	debounce    time.Duration
	maxFileSize int64
	ingester    Ingester
	logger      *utils.Logger
}

func New(dir string, debounce time.Duration, maxFileSize int64, ingester Ingester, logger *utils.Logger) *Watcher {
	return &Watcher{
		dir:         dir,
		debounce:    debounce,
		maxFileSize: maxFileSize,
		ingester:    ingester,
		logger:      logger,
	}
}

// Prepare creates the inbox and its outcome directories.
func (w *Watcher) Prepare() error {
	for _, d := range []string{w.dir, filepath.Join(w.dir, ProcessedDir), filepath.Join(w.dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create inbox dir %s: %w", d, err)
		}
	}
	return nil
}

// Run ingests files already in the inbox, then watches it until ctx is
// cancelled. Writes to the same file are debounced so a file is ingested
// once its writer has gone quiet.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Prepare(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox %s: %w", w.dir, err)
	}
	w.logger.Info("Inbox watcher started", "dir", w.dir)

	ready := make(chan string)
	var mu sync.Mutex
	timers := map[string]*time.Timer{}

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[path] = time.AfterFunc(w.debounce, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	paths, err := w.pending()
	if err != nil {
		return err
	}
	for _, p := range paths {
		schedule(p)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
			w.logger.Info("Inbox watcher stopped")
			return nil

		case path := <-ready:
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			if _, statErr := os.Stat(path); statErr != nil {
				continue
			}
			w.IngestFile(ctx, path)

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isCandidate(ev.Name) {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Inbox watcher error", "error", watchErr)
		}
	}
}

// pending lists the files waiting in the inbox.
func (w *Watcher) pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", w.dir, err)
	}

	var paths []string
	for _, e := range entries {
		p := filepath.Join(w.dir, e.Name())
		if isCandidate(p) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// IngestAll ingests every file currently in the inbox and reports how many
// succeeded.
func (w *Watcher) IngestAll(ctx context.Context) (int, error) {
	if err := w.Prepare(); err != nil {
		return 0, err
	}
	paths, err := w.pending()
	if err != nil {
		return 0, err
	}

	ok := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return ok, err
		}
		if w.IngestFile(ctx, p) == nil {
			ok++
		}
	}
	return ok, nil
}

// IngestFile uploads path and moves it to processed/ on success or failed/
// otherwise.
func (w *Watcher) IngestFile(ctx context.Context, path string) error {
	name := filepath.Base(path)

	err := w.upload(ctx, path)
	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		w.logger.Warn("Inbox file rejected", "file", name, "kind", utils.KindOf(err), "error", err)
	} else {
		w.logger.Info("Inbox file ingested", "file", name)
	}

	if moveErr := moveInto(path, filepath.Join(w.dir, dest)); moveErr != nil {
		w.logger.Error("Failed to move inbox file", "file", name, "dest", dest, "error", moveErr)
	}
	return err
}

func (w *Watcher) upload(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
		return utils.NewBadRequestError(fmt.Sprintf("File size exceeds %d byte limit", w.maxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	_, err = w.ingester.Upload(ctx, &models.UploadRequest{
		File:         data,
		Filename:     name,
		ContentType:  extractor.DetectContentType(name, ""),
		LastModified: info.ModTime().UnixMilli(),
	})
	return err
}

// isCandidate excludes directories, hidden files and editor temporaries.
func isCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// moveInto renames path into dir, prefixing a timestamp when the name is
// already taken.
func moveInto(path, dir string) error {
	target := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(path)))
	}
	return os.Rename(path, target)
}
