// Package templates indexes the downloadable document templates kept on disk.
package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/logger"
)

const templateExt = ".docx"

// Template is one downloadable file
type Template struct {
	DocType      models.DocType
	Path         string
	DownloadName string
}

// Catalog maps document types to template files in one directory
type Catalog struct {
	dir string

	mu    sync.RWMutex
	files map[models.DocType]string
}

// NewCatalog indexes dir. A missing directory yields an empty catalog.
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir, files: map[models.DocType]string{}}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rescans the directory
func (c *Catalog) Reload() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	files := make(map[models.DocType]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), templateExt) {
			continue
		}
		docType := models.DocType(strings.TrimSuffix(name, filepath.Ext(name)))
		if !docType.IsValid() {
			continue
		}
		files[docType] = filepath.Join(c.dir, name)
	}

	c.mu.Lock()
	c.files = files
	c.mu.Unlock()

	logger.Debug().Str("dir", c.dir).Int("templates", len(files)).Msg("Template catalog loaded")
	return nil
}

// Lookup returns the template for docType
func (c *Catalog) Lookup(docType models.DocType) (Template, error) {
	if !docType.IsValid() {
		return Template{}, apperrors.ErrInvalidDocType
	}

	c.mu.RLock()
	p, ok := c.files[docType]
	c.mu.RUnlock()
	if !ok {
		return Template{}, apperrors.ErrTemplateNotFound
	}

	return Template{DocType: docType, Path: p, DownloadName: docType.TemplateFileName()}, nil
}

// Available lists the document types that have a template
func (c *Catalog) Available() []models.DocType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.DocType, 0, len(c.files))
	for t := range c.files {
		out = append(out, t)
	}
	return out
}

// Watch reloads the catalog whenever the directory changes, until ctx is done.
// Bursts of events are coalesced into one reload.
func (c *Catalog) Watch(ctx context.Context) error {
	if err := os.MkdirAll(c.dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}

	go func() {
		defer w.Close()

		const settle = 200 * time.Millisecond
		timer := time.NewTimer(settle)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
					timer.Reset(settle)
				}
			case <-timer.C:
				if err := c.Reload(); err != nil {
					logger.Warn().Err(err).Msg("Template catalog reload failed")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("Template watcher error")
			}
		}
	}()

	logger.Info().Str("dir", c.dir).Msg("Watching document templates")
	return nil
}
