// Package pagecontext loads each teacher's setup and builds the page context from it.
package pagecontext

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Bisp1999/grading-app/internal/models"
)

// Setup is the reference data a teacher configured for their classes
type Setup struct {
	TeacherID         int64
	Competencies      []string
	Semesters         []string
	Subjects          []string
	Grades            []string
	ClassroomsByGrade map[string][]string
	Translations      map[string]string
}

// Loader manages loading and caching of teacher setups
type Loader struct {
	mu     sync.RWMutex
	setups map[int64]*Setup
}

// NewLoader creates a new setup loader
func NewLoader() *Loader {
	return &Loader{
		setups: make(map[int64]*Setup),
	}
}

// LoadFromDir loads every YAML setup in dir. Files that fail to parse are
// logged and skipped.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading teacher setups from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load setup", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("teacher setups loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single setup from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	setup, err := Parse(data)
	if err != nil {
		return err
	}

	l.Add(setup)
	slog.Debug("setup loaded", "teacher_id", setup.TeacherID, "grades", len(setup.Grades))
	return nil
}

// Parse decodes one setup document
func Parse(data []byte) (*Setup, error) {
	var sf setupFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sf.TeacherID <= 0 {
		return nil, fmt.Errorf("teacher_id is required")
	}

	setup := &Setup{
		TeacherID:         sf.TeacherID,
		Competencies:      sf.Competencies,
		Semesters:         sf.Semesters,
		Subjects:          sf.Subjects,
		ClassroomsByGrade: make(map[string][]string),
		Translations:      sf.Translations,
	}

	if len(setup.Semesters) == 0 {
		for i := 1; i <= sf.NumSemesters; i++ {
			setup.Semesters = append(setup.Semesters, fmt.Sprintf("Semester %d", i))
		}
	}

	for _, block := range sf.Classrooms {
		if block.Grade == "" {
			return nil, fmt.Errorf("classroom block without grade")
		}
		if _, ok := setup.ClassroomsByGrade[block.Grade]; !ok {
			setup.Grades = append(setup.Grades, block.Grade)
		}
		setup.ClassroomsByGrade[block.Grade] = append(setup.ClassroomsByGrade[block.Grade], block.Classes...)
	}

	if len(sf.ClassroomNames) > 0 {
		grouped := make(map[string][]string)
		for _, raw := range sf.ClassroomNames {
			name, grade := SplitClassroom(raw)
			grouped[grade] = append(grouped[grade], name)
		}
		grades := make([]string, 0, len(grouped))
		for grade, classes := range grouped {
			sort.Strings(classes)
			grades = append(grades, grade)
		}
		sort.Strings(grades)
		for _, grade := range grades {
			if _, ok := setup.ClassroomsByGrade[grade]; !ok {
				setup.Grades = append(setup.Grades, grade)
			}
			setup.ClassroomsByGrade[grade] = append(setup.ClassroomsByGrade[grade], grouped[grade]...)
		}
	}

	return setup, nil
}

// Get retrieves the setup of a teacher
func (l *Loader) Get(teacherID int64) *Setup {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.setups[teacherID]
}

// Add registers a setup, replacing any previous one for the same teacher
func (l *Loader) Add(setup *Setup) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setups[setup.TeacherID] = setup
}

func (l *Loader) replace(other *Loader) {
	other.mu.RLock()
	setups := make(map[int64]*Setup, len(other.setups))
	for id, s := range other.setups {
		setups[id] = s
	}
	other.mu.RUnlock()

	l.mu.Lock()
	l.setups = setups
	l.mu.Unlock()
}

// Len returns the number of loaded setups
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.setups)
}

var (
	withGrade    = regexp.MustCompile(`^(.+?) \(([^)]+)\)$`)
	roomNumber   = regexp.MustCompile(`^([1-9])\d+$`)
	gradeLetter  = regexp.MustCompile(`^([1-9])[A-Za-z]+$`)
	leadingDigit = regexp.MustCompile(`^([1-9])`)
)

// SplitClassroom splits "3A (Grade 3)" into its class and grade. Without an
// explicit grade one is guessed from the name: "301" and "3A" are Grade 3.
func SplitClassroom(raw string) (name, grade string) {
	raw = strings.TrimSpace(raw)
	if m := withGrade.FindStringSubmatch(raw); m != nil {
		return m[1], m[2]
	}
	return raw, GradeFromName(raw)
}

// GradeFromName guesses the grade of a classroom from its name
func GradeFromName(name string) string {
	if name == "" {
		return "Unknown Grade"
	}
	if strings.Contains(strings.ToLower(name), "grade") {
		return name
	}
	for _, re := range []*regexp.Regexp{roomNumber, gradeLetter, leadingDigit} {
		if m := re.FindStringSubmatch(name); m != nil {
			return "Grade " + m[1]
		}
	}
	return name
}

// Build merges a teacher's setup, account and last-used selection into the
// page context. A nil setup yields an empty context of the teacher's type.
func Build(setup *Setup, teacher *models.Teacher, last models.LastUsed) models.ContextData {
	d := models.ContextData{
		TeacherType:       string(teacher.Type),
		ClassroomsByGrade: map[string][]string{},
		LastTestGrade:     last.Grade,
		LastTestClassName: last.ClassName,
	}

	if teacher.Type == models.TeacherHomeroom {
		d.HomeroomClassName = teacher.HomeroomClassName
		d.HomeroomGrade = teacher.HomeroomGrade
	}

	if setup == nil {
		return d
	}

	d.Competencies = append([]string(nil), setup.Competencies...)
	d.Semesters = append([]string(nil), setup.Semesters...)
	d.Subjects = append([]string(nil), setup.Subjects...)
	d.Translations = setup.Translations

	if teacher.Type == models.TeacherSpecialist {
		d.Grades = append([]string(nil), setup.Grades...)
		for grade, classes := range setup.ClassroomsByGrade {
			d.ClassroomsByGrade[grade] = append([]string(nil), classes...)
		}
	}

	return d
}

// --- YAML file structs ---

// setupFile represents the YAML structure of a setup file
type setupFile struct {
	TeacherID      int64             `yaml:"teacher_id"`
	Competencies   []string          `yaml:"competencies"`
	NumSemesters   int               `yaml:"num_semesters"`
	Semesters      []string          `yaml:"semesters"`
	Subjects       []string          `yaml:"subjects"`
	Classrooms     []classroomBlock  `yaml:"classrooms"`
	ClassroomNames []string          `yaml:"classroom_names"`
	Translations   map[string]string `yaml:"translations"`
}

// classroomBlock lists the classes of one grade
type classroomBlock struct {
	Grade   string   `yaml:"grade"`
	Classes []string `yaml:"classes"`
}
