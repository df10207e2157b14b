package object

import (
	"context"
	"io"
)

// ObjectStore persists uploaded case document bytes. The key returned by
// Save is relative to the store root and is what Open and Delete accept.
type ObjectStore interface {
	Save(ctx context.Context, ownerKey, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
