package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local stores document bytes as flat files under a directory, one file per
// document id.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) path(docID string) string {
	return filepath.Join(l.dir, filepath.Base(docID))
}

func (l *Local) Write(ctx context.Context, docID string, data []byte, contentType string) error {
	if err := os.WriteFile(l.path(docID), data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", docID, err)
	}
	return nil
}

func (l *Local) Read(ctx context.Context, docID string) ([]byte, error) {
	data, err := os.ReadFile(l.path(docID))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", docID, err)
	}
	return data, nil
}

func (l *Local) Delete(ctx context.Context, docID string) error {
	err := os.Remove(l.path(docID))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", docID, err)
	}
	return nil
}
