// Package datasource defines where import bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw byte stream of one input. Callers own the returned
// ReadCloser.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
