// Package datasource defines where profiling input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source produces a byte stream for one profiling run. Implementations live
// in the file and httpds subpackages.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
