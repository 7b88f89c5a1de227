package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format of test dates
const DateLayout = "2006-01-02"

// TestRecord represents a graded test as served by the API.
// Grade and ClassName are set for specialist teachers, Subject for homeroom teachers.
type TestRecord struct {
	ID         int64   `json:"id"`
	Semester   string  `json:"semester"`
	TestName   string  `json:"test_name"`
	MaxPoints  int     `json:"max_points"`
	TestDate   string  `json:"test_date"`
	TestWeight float64 `json:"test_weight"`
	Competency string  `json:"competency"`
	Grade      string  `json:"grade,omitempty"`
	ClassName  string  `json:"class_name,omitempty"`
	Subject    string  `json:"subject,omitempty"`

	TeacherID int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// TestRow is the view projection of one rendered test row
type TestRow struct {
	ID       int64
	Class    string
	Semester string
	Subject  string
	Cells    map[string]string // competency -> cell text
}

// RowFromRecord projects a record onto the competency columns.
// Only the record's own competency carries a weight; other cells are empty.
func RowFromRecord(rec *TestRecord, competencies []string) TestRow {
	row := TestRow{
		ID:       rec.ID,
		Class:    rec.ClassName,
		Semester: rec.Semester,
		Subject:  rec.Subject,
		Cells:    make(map[string]string, len(competencies)),
	}
	for _, comp := range competencies {
		row.Cells[comp] = ""
	}
	row.Cells[rec.Competency] = FormatNumber(rec.TestWeight) + "%"
	return row
}

// FormatNumber renders a float in its shortest decimal form ("10", "12.5")
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TestSubmission is the snapshot of the authoring form at submit time
type TestSubmission struct {
	ID         int64   `json:"id,omitempty"`
	Semester   string  `json:"semester"`
	Grade      string  `json:"grade,omitempty"`
	ClassName  string  `json:"class_name,omitempty"`
	Subject    string  `json:"subject,omitempty"`
	Competency string  `json:"competency"`
	TestName   string  `json:"test_name"`
	MaxPoints  int     `json:"max_points"`
	TestDate   string  `json:"test_date"`
	TestWeight float64 `json:"test_weight"`
	Scope      Scope   `json:"scope,omitempty"`
}

// ListFilters contains options for listing tests
type ListFilters struct {
	TeacherID int64
	Semester  string
	ClassName string
	Subject   string
}

// DeleteResult is the body of a delete response
type DeleteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SaveResult is the body of a save response
type SaveResult struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Validate checks the submission before it is stored
func (s TestSubmission) Validate() error {
	switch {
	case s.Semester == "":
		return errors.New("semester is required")
	case s.Competency == "":
		return errors.New("competency is required")
	case s.TestName == "":
		return errors.New("test name is required")
	case s.MaxPoints <= 0:
		return errors.New("max points must be positive")
	case s.TestWeight < 0 || s.TestWeight > 100:
		return errors.New("test weight must be between 0 and 100")
	}
	if _, err := time.Parse(DateLayout, s.TestDate); err != nil {
		return fmt.Errorf("invalid test date %q", s.TestDate)
	}
	if s.Scope != "" && s.Scope != ScopeGradeAll && s.Scope != ScopeClassOnly {
		return fmt.Errorf("unknown test scope %q", s.Scope)
	}
	return nil
}

// Record builds the stored record for teacherID from the submission
func (s TestSubmission) Record(teacherID int64) *TestRecord {
	return &TestRecord{
		ID:         s.ID,
		TeacherID:  teacherID,
		Semester:   s.Semester,
		TestName:   s.TestName,
		MaxPoints:  s.MaxPoints,
		TestDate:   s.TestDate,
		TestWeight: s.TestWeight,
		Competency: s.Competency,
		Grade:      s.Grade,
		ClassName:  s.ClassName,
		Subject:    s.Subject,
	}
}
