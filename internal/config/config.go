package config

import (
	"fmt"
	"os"
	"strings"

	"gograde/internal/errors"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the explicit, run-wide configuration threaded through every stage
type Config struct {
	Paths        PathConfig         `mapstructure:"paths" yaml:"paths"`
	Alpha        float64            `mapstructure:"alpha" yaml:"alpha"`
	Cleaning     CleaningConfig     `mapstructure:"cleaning" yaml:"cleaning"`
	Encodings    []Encoding         `mapstructure:"encodings" yaml:"encodings"`
	Describe     DescribeConfig     `mapstructure:"describe" yaml:"describe"`
	Independence IndependenceConfig `mapstructure:"independence" yaml:"independence"`
	ANOVA        ANOVAConfig        `mapstructure:"anova" yaml:"anova"`
	Regression   RegressionConfig   `mapstructure:"regression" yaml:"regression"`
	Render       RenderConfig       `mapstructure:"render" yaml:"render"`
	LogLevel     string             `mapstructure:"log_level" yaml:"log_level"`
}

// PathConfig holds file system locations
type PathConfig struct {
	Input           string `mapstructure:"input" yaml:"input"`
	Cleaned         string `mapstructure:"cleaned" yaml:"cleaned"`
	Report          string `mapstructure:"report" yaml:"report"`
	Figures         string `mapstructure:"figures" yaml:"figures"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile,omitempty"`
}

// CleaningConfig holds the validation and cleaning policy
type CleaningConfig struct {
	RequiredColumns []string `mapstructure:"required_columns" yaml:"required_columns"`
	GradeColumn     string   `mapstructure:"grade_column" yaml:"grade_column"`
	GradeMin        float64  `mapstructure:"grade_min" yaml:"grade_min"`
	GradeMax        float64  `mapstructure:"grade_max" yaml:"grade_max"`
	MissingTokens   []string `mapstructure:"missing_tokens" yaml:"missing_tokens"`
}

// Encoding declares a binary categorical column and its total mapping.
// Levels are a list rather than a map because viper folds map keys to lower case.
type Encoding struct {
	Column string  `mapstructure:"column" yaml:"column"`
	Levels []Level `mapstructure:"levels" yaml:"levels"`
}

// Level is one category value and its integer code
type Level struct {
	Value string `mapstructure:"value" yaml:"value"`
	Code  int    `mapstructure:"code" yaml:"code"`
}

// Mapping returns the levels as a lookup table
func (e Encoding) Mapping() map[string]int {
	m := make(map[string]int, len(e.Levels))
	for _, l := range e.Levels {
		m[l.Value] = l.Code
	}
	return m
}

// DescribeConfig lists the numeric columns to summarize
type DescribeConfig struct {
	Columns []string `mapstructure:"columns" yaml:"columns"`
}

// IndependenceConfig selects the categorical pair for the chi-square test
type IndependenceConfig struct {
	ColumnA         string `mapstructure:"column_a" yaml:"column_a"`
	ColumnB         string `mapstructure:"column_b" yaml:"column_b"`
	YatesCorrection bool   `mapstructure:"yates_correction" yaml:"yates_correction"`
}

// ANOVAConfig selects the target and grouping column
type ANOVAConfig struct {
	Target string `mapstructure:"target" yaml:"target"`
	Group  string `mapstructure:"group" yaml:"group"`
}

// RegressionConfig selects the OLS target and ordered feature list
type RegressionConfig struct {
	Target   string   `mapstructure:"target" yaml:"target"`
	Features []string `mapstructure:"features" yaml:"features"`
}

// RenderConfig toggles the figure sink
type RenderConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the canonical pipeline policy
func Default() *Config {
	return &Config{
		Paths: PathConfig{
			Input:   "dataset/raw/student-por.csv",
			Cleaned: "dataset/processed/data_clean.csv",
			Report:  "outputs/posthoc_tukey.txt",
			Figures: "outputs/figures",
		},
		Alpha: 0.05,
		Cleaning: CleaningConfig{
			RequiredColumns: []string{
				"G3", "G1", "sex", "Mjob", "higher", "internet",
				"age", "absences", "studytime", "failures",
				"Medu", "Fedu", "goout", "Dalc", "Walc",
				"health", "freetime", "famrel",
			},
			GradeColumn:   "G3",
			GradeMin:      0,
			GradeMax:      20,
			MissingTokens: []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"},
		},
		Encodings: []Encoding{
			{Column: "sex", Levels: []Level{{Value: "F", Code: 0}, {Value: "M", Code: 1}}},
			{Column: "higher", Levels: []Level{{Value: "no", Code: 0}, {Value: "yes", Code: 1}}},
			{Column: "internet", Levels: []Level{{Value: "no", Code: 0}, {Value: "yes", Code: 1}}},
		},
		Describe: DescribeConfig{
			Columns: []string{"G3", "absences", "studytime", "age"},
		},
		Independence: IndependenceConfig{
			ColumnA: "sex",
			ColumnB: "higher",
		},
		ANOVA: ANOVAConfig{
			Target: "G3",
			Group:  "Mjob",
		},
		Regression: RegressionConfig{
			Target: "G3",
			Features: []string{
				"age", "sex_code", "Medu", "Fedu",
				"studytime", "failures", "absences",
				"goout", "Dalc", "Walc", "health",
				"freetime", "famrel", "internet_code",
			},
		},
		Render:   RenderConfig{Enabled: true},
		LogLevel: "INFO",
	}
}

// scalar keys that can be overridden from GOGRADE_* environment variables
var envKeys = []string{
	"paths.input", "paths.cleaned", "paths.report", "paths.figures", "paths.metrics_textfile",
	"alpha",
	"cleaning.required_columns", "cleaning.grade_column", "cleaning.grade_min", "cleaning.grade_max",
	"describe.columns",
	"independence.column_a", "independence.column_b", "independence.yates_correction",
	"anova.target", "anova.group",
	"regression.target", "regression.features",
	"render.enabled",
	"log_level",
}

// Load reads configuration from .env, GOGRADE_* environment variables and an
// optional YAML file, on top of Default(), and validates it.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	v := viper.New()
	v.SetEnvPrefix("GOGRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", cfgFile)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	}); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks internal consistency of the policy
func (c *Config) Validate() error {
	if c.Paths.Input == "" {
		return errors.ConfigInvalid("input path is required")
	}
	if c.Paths.Cleaned == "" {
		return errors.ConfigInvalid("cleaned artifact path is required")
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be in (0,1), got %g", c.Alpha))
	}
	if len(c.Cleaning.RequiredColumns) == 0 {
		return errors.ConfigInvalid("required column list is empty")
	}
	if !contains(c.Cleaning.RequiredColumns, c.Cleaning.GradeColumn) {
		return errors.ConfigInvalid(fmt.Sprintf("grade column %q is not a required column", c.Cleaning.GradeColumn))
	}
	if c.Cleaning.GradeMin > c.Cleaning.GradeMax {
		return errors.ConfigInvalid("grade_min is greater than grade_max")
	}
	seen := make(map[string]bool)
	for _, enc := range c.Encodings {
		if enc.Column == "" || len(enc.Levels) == 0 {
			return errors.ConfigInvalid("encoding needs a column and at least one level")
		}
		if seen[enc.Column] {
			return errors.ConfigInvalid(fmt.Sprintf("column %s is encoded twice", enc.Column))
		}
		seen[enc.Column] = true
		values := make(map[string]bool)
		for _, l := range enc.Levels {
			if values[l.Value] {
				return errors.ConfigInvalid(fmt.Sprintf("duplicate level %q for %s", l.Value, enc.Column))
			}
			values[l.Value] = true
		}
	}
	if c.Regression.Target == "" || len(c.Regression.Features) == 0 {
		return errors.ConfigInvalid("regression needs a target and at least one feature")
	}
	if c.ANOVA.Target == "" || c.ANOVA.Group == "" {
		return errors.ConfigInvalid("anova needs a target and a group column")
	}
	if c.Independence.ColumnA == "" || c.Independence.ColumnB == "" {
		return errors.ConfigInvalid("independence test needs two columns")
	}
	return nil
}

// Dump renders the effective configuration as YAML
func Dump(c *Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal yaml")
	}
	return b, nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
