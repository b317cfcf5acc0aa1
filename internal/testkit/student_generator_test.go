package testkit

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRecordsShape(t *testing.T) {
	cfg := DefaultStudentConfig()
	records := NewStudentDataGenerator(cfg).GenerateRecords()

	require.Len(t, records, 1+cfg.StudentCount+2)
	assert.Equal(t, StudentHeader, records[0])
	for _, rec := range records {
		assert.Len(t, rec, len(StudentHeader))
	}
}

func TestGenerateRecordsDeterministic(t *testing.T) {
	a := NewStudentDataGenerator(DefaultStudentConfig()).GenerateRecords()
	b := NewStudentDataGenerator(DefaultStudentConfig()).GenerateRecords()
	assert.Equal(t, a, b)

	cfg := DefaultStudentConfig()
	cfg.Seed = 8
	c := NewStudentDataGenerator(cfg).GenerateRecords()
	assert.NotEqual(t, a, c)
}

func TestGradesFollowGroupMeans(t *testing.T) {
	cfg := DefaultStudentConfig()
	cfg.Noise = 0
	cfg.DirtyRows = false
	records := NewStudentDataGenerator(cfg).GenerateRecords()

	for _, rec := range records[1:] {
		job := rec[4]
		g3, err := strconv.Atoi(rec[1])
		require.NoError(t, err)
		assert.Equal(t, cfg.GroupMeans[job], g3, job)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "student-por.csv")
	require.NoError(t, NewStudentDataGenerator(DefaultStudentConfig()).WriteCSV(path, ";"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, strings.Join(StudentHeader, ";"), lines[0])
	assert.Len(t, lines, 1+120+2)
}
