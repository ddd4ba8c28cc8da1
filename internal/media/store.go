package media

import (
	"context"
	"errors"
	"io"
)

// ErrStoreUnavailable indicates the media store dependency is missing.
var ErrStoreUnavailable = errors.New("media store unavailable")

// Store hosts uploaded assets. Save returns a public location for the asset;
// Delete accepts the same location back.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}
