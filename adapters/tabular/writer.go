package tabular

import (
	"bytes"

	"gograde/domain/dataset"
)

// EncodeCSV renders a frame as the comma-delimited artifact format
func EncodeCSV(frame *dataset.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
