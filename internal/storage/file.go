package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/deusflow/dealwatch/internal/news"
)

// FileArchive keeps the archive as a JSON array in a single file.
type FileArchive struct {
	filePath string
	mu       sync.Mutex
}

// NewFileArchive returns an archive stored at filePath. The file is created
// on first append.
func NewFileArchive(filePath string) *FileArchive {
	return &FileArchive{filePath: filePath}
}

func (fa *FileArchive) ReadAll(_ context.Context) ([]news.Article, error) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	items, err := fa.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", news.ErrArchiveRead, err)
	}
	return items, nil
}

func (fa *FileArchive) Append(_ context.Context, articles []news.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	fa.mu.Lock()
	defer fa.mu.Unlock()

	items, err := fa.load()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", news.ErrArchivePersist, err)
	}
	items = append(items, articles...)
	if err := fa.save(items); err != nil {
		return 0, fmt.Errorf("%w: %v", news.ErrArchivePersist, err)
	}
	return len(articles), nil
}

func (fa *FileArchive) Close() error { return nil }

func (fa *FileArchive) load() ([]news.Article, error) {
	data, err := os.ReadFile(fa.filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var items []news.Article
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archive: %w", err)
	}
	return items, nil
}

// save writes through a temp file so a crash never leaves a truncated archive.
func (fa *FileArchive) save(items []news.Article) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}

	dir := filepath.Dir(fa.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".archive-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fa.filePath); err != nil {
		return fmt.Errorf("failed to replace archive file: %w", err)
	}
	return nil
}
