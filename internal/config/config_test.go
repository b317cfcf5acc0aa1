package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"gograde/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.05, cfg.Alpha)
	assert.Len(t, cfg.Regression.Features, 14)
	assert.Equal(t, map[string]int{"F": 0, "M": 1}, cfg.Encodings[0].Mapping())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gograde.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alpha: 0.01
paths:
  input: data/student-mat.csv
encodings:
  - column: sex
    levels:
      - {value: F, code: 0}
      - {value: M, code: 1}
independence:
  yates_correction: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.Alpha)
	assert.Equal(t, "data/student-mat.csv", cfg.Paths.Input)
	assert.Equal(t, Default().Paths.Cleaned, cfg.Paths.Cleaned)
	require.Len(t, cfg.Encodings, 1)
	assert.Equal(t, "M", cfg.Encodings[0].Levels[1].Value)
	assert.True(t, cfg.Independence.YatesCorrection)
	assert.Equal(t, "sex", cfg.Independence.ColumnA)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GOGRADE_ALPHA", "0.1")
	t.Setenv("GOGRADE_ANOVA_GROUP", "Fjob")
	t.Setenv("GOGRADE_REGRESSION_FEATURES", "age,failures")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Alpha)
	assert.Equal(t, "Fjob", cfg.ANOVA.Group)
	assert.Equal(t, []string{"age", "failures"}, cfg.Regression.Features)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"alpha zero", func(c *Config) { c.Alpha = 0 }},
		{"alpha one", func(c *Config) { c.Alpha = 1 }},
		{"no required columns", func(c *Config) { c.Cleaning.RequiredColumns = nil }},
		{"grade not required", func(c *Config) { c.Cleaning.GradeColumn = "G2" }},
		{"bounds reversed", func(c *Config) { c.Cleaning.GradeMin = 21 }},
		{"no features", func(c *Config) { c.Regression.Features = nil }},
		{"duplicate encoding", func(c *Config) { c.Encodings = append(c.Encodings, c.Encodings[0]) }},
		{"duplicate level", func(c *Config) {
			c.Encodings[0].Levels = []Level{{Value: "F", Code: 0}, {Value: "F", Code: 1}}
		}},
		{"empty input", func(c *Config) { c.Paths.Input = "" }},
		{"no group", func(c *Config) { c.ANOVA.Group = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrConfigInvalid))
		})
	}
}

func TestDump(t *testing.T) {
	out, err := Dump(Default())
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "alpha: 0.05")
	assert.Contains(t, s, "grade_column: G3")
	assert.Contains(t, s, "internet_code")
	assert.NotContains(t, s, "metrics_textfile")
}
