// Package upload forwards CSV files to the engine and previews them locally.
package upload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
)

const (
	// DefaultTable receives uploads that name no table.
	DefaultTable = "uploaded_table"
	// PreviewRows caps the rows echoed back after an upload.
	PreviewRows = 10
)

const sampleCSV = `id,nombre,edad,ciudad,latitud,longitud
1,Juan Pérez,25,Lima,-12.0464,-77.0428
2,María García,30,Arequipa,-16.4090,-71.5375
3,Carlos López,28,Cusco,-13.5319,-71.9675
4,Ana Rodríguez,32,Trujillo,-8.1116,-79.0290
5,Luis Fernández,27,Chiclayo,-6.7714,-79.8391
`

// Service handles CSV uploads.
type Service struct {
	engine Engine
	logger *zap.Logger
}

// New creates an upload service.
func New(engine Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, logger: logger}
}

// Upload sends a CSV file to the engine as table. size is the file size in bytes,
// used when the engine does not report one.
func (s *Service) Upload(ctx context.Context, fileName, tableName string, size int64, r io.Reader) (envelope.Upload, error) {
	if !IsCSV(fileName) {
		return envelope.Upload{}, fmt.Errorf("%w: %q is not a .csv file", domain.ErrUnsupportedFile, fileName)
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		tableName = DefaultTable
	}
	if err := querybuilder.ValidateTable(tableName); err != nil {
		return envelope.Upload{}, err
	}

	up, err := s.engine.Upload(ctx, filepath.Base(fileName), tableName, r)
	if err != nil {
		return envelope.Upload{}, fmt.Errorf("upload %s: %w", fileName, err)
	}
	if !up.OK {
		msg := up.Error
		if msg == "" {
			msg = up.Message
		}
		if msg == "" {
			return envelope.Upload{}, fmt.Errorf("upload %s: %w", fileName, domain.ErrMalformedResponse)
		}
		return envelope.Upload{}, domain.NewRemoteError(msg)
	}

	if len(up.Rows) > PreviewRows {
		up.Rows = up.Rows[:PreviewRows]
	}
	if up.FileSize == "" {
		up.FileSize = FormatFileSize(size)
	}
	if up.TableName == "" {
		up.TableName = tableName
	}

	s.logger.Info("table uploaded",
		zap.String("table", up.TableName),
		zap.Int("records", up.RecordCount),
		zap.Int("inserted", up.Inserted),
		zap.Int("failed", up.Failed),
	)
	return up, nil
}

// Preview parses a CSV locally: the first record is the header line,
// up to n data rows are returned along with the total data row count.
func (s *Service) Preview(r io.Reader, n int) (table.Result, int, error) {
	if n <= 0 {
		n = PreviewRows
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return table.Result{}, 0, fmt.Errorf("%w: csv file is empty", domain.ErrInvalidParameter)
		}
		return table.Result{}, 0, fmt.Errorf("%w: read csv header: %w", domain.ErrInvalidParameter, err)
	}

	res := table.Result{Headers: headers, Rows: [][]string{}}
	total := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table.Result{}, 0, fmt.Errorf("%w: read csv row %d: %w", domain.ErrInvalidParameter, total+1, err)
		}
		if total < n {
			res.Rows = append(res.Rows, rec)
		}
		total++
	}
	return res, total, nil
}

// SampleCSV returns the downloadable example file.
func (s *Service) SampleCSV() []byte {
	return []byte(sampleCSV)
}

// IsCSV reports whether fileName has a .csv extension (any case).
func IsCSV(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".csv")
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes with 1024-based units and at most two decimals.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizeUnits[i]
}
