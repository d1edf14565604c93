// Package blob stores raw document bytes keyed by document id.
package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob: not found")

type Store interface {
	Write(ctx context.Context, docID string, data []byte, contentType string) error
	Read(ctx context.Context, docID string) ([]byte, error)
	Delete(ctx context.Context, docID string) error
}
