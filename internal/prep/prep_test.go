package prep

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gograde/adapters/tabular"
	"gograde/domain/dataset"
	"gograde/internal/config"
	"gograde/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// student returns one raw row over the default required columns with overrides applied
func student(overrides map[string]string) map[string]string {
	row := map[string]string{
		"G3": "12", "G1": "11", "sex": "F", "Mjob": "teacher", "higher": "yes", "internet": "yes",
		"age": "17", "absences": "2", "studytime": "2", "failures": "0",
		"Medu": "3", "Fedu": "2", "goout": "3", "Dalc": "1", "Walc": "2",
		"health": "4", "freetime": "3", "famrel": "4",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

// rawCSV renders rows as a `;` file with the default columns plus an extra one
func rawCSV(rows ...map[string]string) string {
	cols := append([]string{"school"}, config.Default().Cleaning.RequiredColumns...)
	var b strings.Builder
	b.WriteString(strings.Join(cols, ";") + "\n")
	for _, r := range rows {
		cells := make([]string, len(cols))
		cells[0] = "GP"
		for i, c := range cols[1:] {
			cells[i+1] = r[c]
		}
		b.WriteString(strings.Join(cells, ";") + "\n")
	}
	return b.String()
}

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCleanFiveRowScenario(t *testing.T) {
	path := writeRaw(t, rawCSV(
		student(nil),
		student(map[string]string{"G3": "25"}),
		student(map[string]string{"age": ""}),
		student(map[string]string{"G3": "0", "sex": "M"}),
		student(map[string]string{"G3": "20"}),
	))

	cleaner := NewCleaner(config.Default().Cleaning, nil)
	frame, report, err := cleaner.Clean(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, frame.Len())
	assert.Equal(t, config.Default().Cleaning.RequiredColumns, frame.Columns())
	assert.Equal(t, dataset.CleanReport{InputRows: 5, DroppedMissing: 1, DroppedRange: 1, KeptRows: 3}, *report)

	grades, err := frame.Floats("G3")
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 0, 20}, grades)
}

func TestCleanedRowsAreCompleteAndInRange(t *testing.T) {
	path := writeRaw(t, rawCSV(
		student(map[string]string{"G3": "-1"}),
		student(map[string]string{"G3": "abc"}),
		student(map[string]string{"Mjob": "NA"}),
		student(map[string]string{"famrel": " null "}),
		student(map[string]string{"Walc": "None"}),
		student(map[string]string{"G3": "19.5"}),
		student(map[string]string{"G3": "7"}),
	))

	cleaner := NewCleaner(config.Default().Cleaning, nil)
	frame, _, err := cleaner.Clean(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, frame.Len())

	grades, err := frame.Floats("G3")
	require.NoError(t, err)
	for _, g := range grades {
		assert.GreaterOrEqual(t, g, 0.0)
		assert.LessOrEqual(t, g, 20.0)
	}
	for _, col := range frame.Columns() {
		cells, err := frame.Strings(col)
		require.NoError(t, err)
		for _, cell := range cells {
			assert.False(t, cleaner.IsMissing(cell), "column %s", col)
		}
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	path := writeRaw(t, rawCSV(
		student(nil),
		student(map[string]string{"G3": "30"}),
		student(map[string]string{"sex": "M", "G3": "15"}),
	))
	cleaner := NewCleaner(config.Default().Cleaning, nil)

	once, _, err := cleaner.Clean(context.Background(), path)
	require.NoError(t, err)

	// round trip through the artifact format, as downstream stages do
	data, err := tabular.EncodeCSV(once)
	require.NoError(t, err)
	artifact := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, os.WriteFile(artifact, data, 0o644))
	reread, err := tabular.NewDataReader(artifact, tabular.ArtifactDelimiter, nil).Read(context.Background())
	require.NoError(t, err)

	twice, report, err := cleaner.CleanFrame(reread)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DroppedMissing+report.DroppedRange)

	again, err := tabular.EncodeCSV(twice)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestCleanSchemaErrorNamesEveryMissingColumn(t *testing.T) {
	path := writeRaw(t, "G3;sex;age\n12;F;17\n")

	_, _, err := NewCleaner(config.Default().Cleaning, nil).Clean(context.Background(), path)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSchema))
	for _, col := range []string{"G1", "Mjob", "higher", "internet", "famrel"} {
		assert.Contains(t, err.Error(), col)
	}
}

func TestCleanEmptyResult(t *testing.T) {
	path := writeRaw(t, rawCSV(
		student(map[string]string{"G3": "21"}),
		student(map[string]string{"sex": ""}),
	))

	_, report, err := NewCleaner(config.Default().Cleaning, nil).Clean(context.Background(), path)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyResult))
	assert.Contains(t, err.Error(), "input_rows=2")
	assert.Equal(t, 0, report.KeptRows)
}

func TestCleanHeaderOnlyIsEmptyResult(t *testing.T) {
	path := writeRaw(t, rawCSV())

	_, report, err := NewCleaner(config.Default().Cleaning, nil).Clean(context.Background(), path)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyResult))
	assert.Contains(t, err.Error(), "input_rows=0")
	require.NotNil(t, report)
	assert.Equal(t, 0, report.InputRows)

	// schema is checked before emptiness
	_, _, err = NewCleaner(config.Default().Cleaning, nil).Clean(context.Background(), writeRaw(t, "G3;sex;age\n"))
	assert.True(t, stderrors.Is(err, errors.ErrSchema))
}

func TestCleanMissingFile(t *testing.T) {
	_, _, err := NewCleaner(config.Default().Cleaning, nil).
		Clean(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, stderrors.Is(err, errors.ErrMissingFile))
}

func encodedFrame(t *testing.T, sexes ...string) *dataset.Frame {
	t.Helper()
	records := [][]string{{"sex", "higher", "internet"}}
	for _, s := range sexes {
		records = append(records, []string{s, "yes", "no"})
	}
	f, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return f
}

func TestEncodeAppendsCodeColumns(t *testing.T) {
	enc := NewEncoder(config.Default().Encodings, nil)

	out, err := enc.Encode(encodedFrame(t, "F", "M", "F"))
	require.NoError(t, err)
	assert.Equal(t, []string{"sex", "higher", "internet", "sex_code", "higher_code", "internet_code"}, out.Columns())

	sex, err := out.Floats("sex_code")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, sex)

	higher, err := out.Floats("higher_code")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, higher)

	internet, err := out.Floats("internet_code")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, internet)
}

func TestEncodeIsDeterministicAndReplaces(t *testing.T) {
	enc := NewEncoder(config.Default().Encodings, nil)

	first, err := enc.Encode(encodedFrame(t, "M", "F"))
	require.NoError(t, err)
	second, err := enc.Encode(first)
	require.NoError(t, err)

	assert.Equal(t, first.Columns(), second.Columns())
	a, _ := tabular.EncodeCSV(first)
	b, _ := tabular.EncodeCSV(second)
	assert.Equal(t, string(a), string(b))
}

func TestEncodeOutsideDomain(t *testing.T) {
	enc := NewEncoder(config.Default().Encodings, nil)

	for _, bad := range []string{"X", "f", "male"} {
		_, err := enc.Encode(encodedFrame(t, "F", bad))
		require.Error(t, err, bad)
		assert.True(t, stderrors.Is(err, errors.ErrDomain))
		assert.Contains(t, err.Error(), "sex")
		assert.Contains(t, err.Error(), "row=1")
	}
}

func TestEncodeMissingDeclaredColumn(t *testing.T) {
	f, err := dataset.FromRecords([][]string{{"sex"}, {"F"}})
	require.NoError(t, err)

	_, err = NewEncoder(config.Default().Encodings, nil).Encode(f)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSchema))
	assert.Contains(t, err.Error(), "higher, internet")
}
