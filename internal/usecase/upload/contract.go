package upload

import (
	"context"
	"io"

	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
)

// Engine loads CSV files into engine tables.
type Engine interface {
	Upload(ctx context.Context, fileName, table string, r io.Reader) (envelope.Upload, error)
}
