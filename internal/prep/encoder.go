package prep

import (
	"strings"

	"gograde/domain/dataset"
	"gograde/internal"
	"gograde/internal/config"
	"gograde/internal/errors"
)

// CodeColumn names the integer column derived from a categorical column
func CodeColumn(column string) string {
	return column + "_code"
}

// Encoder appends `<col>_code` integer columns for each declared binary column
type Encoder struct {
	encodings []config.Encoding
	logger    *internal.Logger
}

// NewEncoder creates an encoder; encodings are applied in order
func NewEncoder(encodings []config.Encoding, logger *internal.Logger) *Encoder {
	if logger == nil {
		logger = internal.Discard
	}
	return &Encoder{encodings: encodings, logger: logger.WithPrefix("Encoder")}
}

// Encode maps every declared column. A value outside the mapping is a DomainError.
// Re-encoding replaces existing code columns.
func (e *Encoder) Encode(frame *dataset.Frame) (*dataset.Frame, error) {
	declared := make([]string, len(e.encodings))
	for i, enc := range e.encodings {
		declared[i] = enc.Column
	}
	if missing := frame.Missing(declared); len(missing) > 0 {
		return nil, errors.SchemaError(missing)
	}

	out := frame
	for _, enc := range e.encodings {
		values, err := out.Strings(enc.Column)
		if err != nil {
			return nil, err
		}

		mapping := enc.Mapping()
		codes := make([]int, len(values))
		for row, v := range values {
			code, ok := mapping[strings.TrimSpace(v)]
			if !ok {
				return nil, errors.DomainError(enc.Column, v).With("row", row)
			}
			codes[row] = code
		}

		if out, err = out.WithIntColumn(CodeColumn(enc.Column), codes); err != nil {
			return nil, errors.Wrapf(err, "failed to add %s", CodeColumn(enc.Column))
		}
		e.logger.Debug("encoded %s over %d rows", enc.Column, len(codes))
	}
	return out, nil
}
