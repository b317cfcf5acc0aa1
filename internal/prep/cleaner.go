// Package prep turns a raw student table into the cleaned, encoded artifact
// every analysis stage reads.
package prep

import (
	"context"
	"strings"

	"gograde/adapters/tabular"
	"gograde/domain/dataset"
	"gograde/internal"
	"gograde/internal/config"
	"gograde/internal/errors"
)

// Cleaner validates the raw table and applies the cleaning policy:
// project to the required columns, drop rows with a missing value,
// keep rows whose grade lies in [GradeMin, GradeMax].
type Cleaner struct {
	cfg     config.CleaningConfig
	missing map[string]bool
	logger  *internal.Logger
}

// NewCleaner creates a cleaner for the given policy
func NewCleaner(cfg config.CleaningConfig, logger *internal.Logger) *Cleaner {
	if logger == nil {
		logger = internal.Discard
	}
	missing := make(map[string]bool, len(cfg.MissingTokens))
	for _, tok := range cfg.MissingTokens {
		missing[strings.TrimSpace(tok)] = true
	}
	// gota renders missing string cells as NaN
	missing["NaN"] = true
	return &Cleaner{cfg: cfg, missing: missing, logger: logger.WithPrefix("Cleaner")}
}

// Clean reads the raw `;`-delimited file (or xlsx workbook) at path and cleans it
func (c *Cleaner) Clean(ctx context.Context, path string) (*dataset.Frame, *dataset.CleanReport, error) {
	raw, err := tabular.NewDataReader(path, tabular.RawDelimiter, c.logger).Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c.CleanFrame(raw)
}

// CleanFrame applies the policy to an in-memory table. Cleaning a cleaned frame is a no-op.
func (c *Cleaner) CleanFrame(raw *dataset.Frame) (*dataset.Frame, *dataset.CleanReport, error) {
	if missing := raw.Missing(c.cfg.RequiredColumns); len(missing) > 0 {
		return nil, nil, errors.SchemaError(missing)
	}

	projected, err := raw.Select(c.cfg.RequiredColumns)
	if err != nil {
		return nil, nil, err
	}

	report := &dataset.CleanReport{InputRows: projected.Len()}

	columns := make([][]string, len(c.cfg.RequiredColumns))
	gradeIdx := -1
	for i, name := range c.cfg.RequiredColumns {
		if columns[i], err = projected.Strings(name); err != nil {
			return nil, nil, err
		}
		if name == c.cfg.GradeColumn {
			gradeIdx = i
		}
	}
	if gradeIdx < 0 {
		return nil, nil, errors.SchemaError([]string{c.cfg.GradeColumn})
	}

	keep := make([]int, 0, report.InputRows)
rows:
	for row := 0; row < report.InputRows; row++ {
		for _, col := range columns {
			if c.IsMissing(col[row]) {
				report.DroppedMissing++
				continue rows
			}
		}
		if !c.gradeInRange(columns[gradeIdx][row]) {
			report.DroppedRange++
			continue
		}
		keep = append(keep, row)
	}
	report.KeptRows = len(keep)

	c.logger.Debug("input=%d dropped_missing=%d dropped_range=%d kept=%d",
		report.InputRows, report.DroppedMissing, report.DroppedRange, report.KeptRows)

	if len(keep) == 0 {
		return nil, report, errors.EmptyResult(report.InputRows)
	}
	if len(keep) == report.InputRows {
		return projected, report, nil
	}

	cleaned, err := projected.Subset(keep)
	if err != nil {
		return nil, report, errors.Wrap(err, "failed to subset cleaned rows")
	}
	return cleaned, report, nil
}

// IsMissing reports whether a cell holds one of the configured missing tokens
func (c *Cleaner) IsMissing(cell string) bool {
	return c.missing[strings.TrimSpace(cell)]
}

// unparseable grades count as out of range
func (c *Cleaner) gradeInRange(cell string) bool {
	g, ok := dataset.ParseNumber(cell)
	if !ok {
		return false
	}
	return g >= c.cfg.GradeMin && g <= c.cfg.GradeMax
}
