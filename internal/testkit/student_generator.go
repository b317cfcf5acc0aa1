package testkit

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// StudentGeneratorConfig configures the synthetic student table
type StudentGeneratorConfig struct {
	StudentCount int `json:"student_count"`
	// GroupMeans sets the expected grade per Mjob level; levels cycle in sorted order
	GroupMeans map[string]int `json:"group_means"`
	// Noise is the half-width of the uniform integer noise added to each grade
	Noise int   `json:"noise"`
	Seed  int64 `json:"seed"`
	// DirtyRows appends one row with a missing value and one with an out-of-range grade
	DirtyRows bool `json:"dirty_rows"`
}

// DefaultStudentConfig returns a table where the grade depends strongly on Mjob
func DefaultStudentConfig() StudentGeneratorConfig {
	return StudentGeneratorConfig{
		StudentCount: 120,
		GroupMeans: map[string]int{
			"at_home": 8, "health": 14, "other": 10, "services": 12, "teacher": 13,
		},
		Noise:     2,
		Seed:      7,
		DirtyRows: true,
	}
}

// StudentHeader is the raw column order; "school" is not a required column
var StudentHeader = []string{
	"school", "G3", "G1", "sex", "Mjob", "higher", "internet",
	"age", "absences", "studytime", "failures",
	"Medu", "Fedu", "goout", "Dalc", "Walc",
	"health", "freetime", "famrel",
}

// StudentDataGenerator produces deterministic student records
type StudentDataGenerator struct {
	config StudentGeneratorConfig
	rng    *rand.Rand
}

// NewStudentDataGenerator creates a new student data generator
func NewStudentDataGenerator(config StudentGeneratorConfig) *StudentDataGenerator {
	return &StudentDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords returns the header row followed by the student rows
func (g *StudentDataGenerator) GenerateRecords() [][]string {
	jobs := make([]string, 0, len(g.config.GroupMeans))
	for job := range g.config.GroupMeans {
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)
	yesNo := []string{"no", "yes"}

	records := [][]string{append([]string(nil), StudentHeader...)}
	for i := 0; i < g.config.StudentCount; i++ {
		job := jobs[i%len(jobs)]
		g3 := clampGrade(g.config.GroupMeans[job] + g.noise())
		sex := "F"
		if g.rng.Intn(2) == 1 {
			sex = "M"
		}
		records = append(records, []string{
			"GP",
			strconv.Itoa(g3),
			strconv.Itoa(clampGrade(g3 + g.rng.Intn(3) - 1)),
			sex,
			job,
			yesNo[g.rng.Intn(2)],
			yesNo[g.rng.Intn(2)],
			strconv.Itoa(15 + g.rng.Intn(6)),
			strconv.Itoa(g.rng.Intn(20)),
			strconv.Itoa(1 + g.rng.Intn(4)),
			strconv.Itoa(g.rng.Intn(4)),
			strconv.Itoa(g.rng.Intn(5)),
			strconv.Itoa(g.rng.Intn(5)),
			g.likert(),
			g.likert(),
			g.likert(),
			g.likert(),
			g.likert(),
			g.likert(),
		})
	}

	if g.config.DirtyRows {
		records = append(records,
			[]string{"GP", "12", "11", "F", "other", "NA", "yes", "16", "2", "2", "0", "2", "2", "3", "1", "1", "3", "3", "4"},
			[]string{"GP", "25", "11", "M", "other", "yes", "yes", "16", "2", "2", "0", "2", "2", "3", "1", "1", "3", "3", "4"},
		)
	}
	return records
}

// WriteCSV writes the generated table with the given delimiter, creating parent directories
func (g *StudentDataGenerator) WriteCSV(path string, delimiter string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var b strings.Builder
	for _, rec := range g.GenerateRecords() {
		b.WriteString(strings.Join(rec, delimiter))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func (g *StudentDataGenerator) noise() int {
	if g.config.Noise <= 0 {
		return 0
	}
	return g.rng.Intn(2*g.config.Noise+1) - g.config.Noise
}

func (g *StudentDataGenerator) likert() string {
	return strconv.Itoa(1 + g.rng.Intn(5))
}

func clampGrade(v int) int {
	if v < 0 {
		return 0
	}
	if v > 20 {
		return 20
	}
	return v
}
