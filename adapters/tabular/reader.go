package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gograde/domain/dataset"
	"gograde/internal"
	"gograde/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Delimiters of the two text formats the pipeline handles
const (
	RawDelimiter      = ';'
	ArtifactDelimiter = ','
)

// DataReader loads a delimited text file or the first sheet of an xlsx workbook
type DataReader struct {
	filePath  string
	fileType  string // "xlsx" or "csv"
	delimiter rune
	logger    *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string, delimiter rune, logger *internal.Logger) *DataReader {
	fileType := "csv"
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		fileType = "xlsx"
	}
	if logger == nil {
		logger = internal.Discard
	}
	return &DataReader{
		filePath:  filePath,
		fileType:  fileType,
		delimiter: delimiter,
		logger:    logger.WithPrefix("DataReader"),
	}
}

// Read loads the whole table with every cell kept as text
func (r *DataReader) Read(ctx context.Context) (*dataset.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingFile(r.filePath)
		}
		return nil, errors.ReadError(r.filePath, err)
	}

	r.logger.Debug("reading %s file %s", r.fileType, r.filePath)
	start := time.Now()

	var (
		frame *dataset.Frame
		err   error
	)
	switch r.fileType {
	case "xlsx":
		frame, err = r.readExcel()
	default:
		frame, err = r.readCSV()
	}
	if err != nil {
		return nil, errors.ReadError(r.filePath, err)
	}

	r.logger.Debug("read %d rows x %d columns in %.2fms",
		frame.Len(), len(frame.Columns()), float64(time.Since(start).Nanoseconds())/1e6)
	return frame, nil
}

// readCSV reads a delimited file; ragged rows are rejected
func (r *DataReader) readCSV() (*dataset.Frame, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cr := csv.NewReader(file)
	cr.Comma = r.delimiter
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	records[0] = headerNames(records[0])
	return dataset.FromRecords(records)
}

// readExcel reads the first sheet; short rows are padded, long rows are rejected
func (r *DataReader) readExcel() (*dataset.Frame, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := headerNames(rows[0])
	records := make([][]string, 0, len(rows))
	records = append(records, header)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+2, len(row), len(header))
		}
		padded := make([]string, len(header))
		copy(padded, row)
		records = append(records, padded)
	}
	return dataset.FromRecords(records)
}

// headerNames trims column names and drops a leading byte order mark
func headerNames(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		if i == 0 {
			s = strings.TrimPrefix(s, "\ufeff")
		}
		out[i] = strings.TrimSpace(s)
	}
	return out
}
