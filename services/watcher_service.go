package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DirectoryWatcher ingests PDF files dropped into a watched directory
// through the same pipeline as HTTP uploads.
type DirectoryWatcher struct {
	ragService RAGService
	log        zerolog.Logger
}

// NewDirectoryWatcher creates a watcher feeding the given service.
func NewDirectoryWatcher(ragService RAGService, log zerolog.Logger) *DirectoryWatcher {
	return &DirectoryWatcher{ragService: ragService, log: log}
}

// Watch blocks until the context is cancelled, ingesting every PDF created
// or rewritten under dirPath. Each file is a fresh one-shot ingestion; there
// is no re-index reconciliation.
func (w *DirectoryWatcher) Watch(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Error().Err(err).Msg("failed to create file watcher")
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
					continue
				}
				// Editors often write via a temp file and rename; Create and
				// Write are handled the same way.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					w.ingestFile(ctx, event.Name)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.Error().Err(err).Msg("watcher error")

			case <-ctx.Done():
				w.log.Info().Msg("context cancelled, shutting down watcher")
				return
			}
		}
	}()

	if err := watcher.Add(dirPath); err != nil {
		w.log.Error().Err(err).Str("dir", dirPath).Msg("failed to add path to watcher")
		return
	}
	w.log.Info().Str("dir", dirPath).Msg("watching directory for PDFs")

	<-ctx.Done()
}

func (w *DirectoryWatcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("could not read dropped file")
		return
	}
	resp, err := w.ragService.UploadPDF(ctx, filepath.Base(path), data)
	if err != nil {
		w.log.Error().Err(err).Str("path", path).Msg("failed to ingest dropped file")
		return
	}
	w.log.Info().Str("path", path).Str("document_id", resp.ID).Msg("ingested dropped file")
}
