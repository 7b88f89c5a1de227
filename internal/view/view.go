// Package view is the binding layer between the engine and the rendered page.
//
// Control identifiers and row/cell attributes are the contract with the
// surrounding template and must not change. Every accessor may be nil when
// the page variant does not render that element; callers treat a nil
// element as "nothing to do".
package view

// Form controls
const (
	IDGrade      = "grade"
	IDClassName  = "class_name"
	IDSemester   = "semester"
	IDCompetency = "competency"
	IDSubject    = "subject"
	IDTestScope  = "test_scope"
	IDTestName   = "test_name"
	IDMaxPoints  = "max_points"
	IDTestDate   = "test_date"
	IDTestWeight = "test_weight"
	IDEditTestID = "editTestId"
)

// Filter bar and host-owned global filters
const (
	IDFilterGrade          = "filter_grade"
	IDFilterClass          = "filter_class"
	IDFilterSemester       = "filter_semester"
	IDFilterSubject        = "filter_subject"
	IDGlobalClassFilter    = "global_class_filter"
	IDGlobalSemesterFilter = "global_semester_filter"
)

// Buttons and layout blocks
const (
	IDSubmitButton       = "submitButton"
	IDDeleteButton       = "deleteButton"
	IDCreateTestsButton  = "createTestsBtn"
	IDDefineTestsCard    = "defineTestsCard"
	IDTestsTable         = "testsTable"
	IDNoSelectionMessage = "noSelectionMessage"
	IDHeaderInfo         = "header_class_semester_info"
	IDTotalsRow          = "totalsRow"
)

// Row and cell attributes
const (
	ClassTestRow    = "test-row"
	ClassCompetency = "competency-cell"
	AttrSemester    = "data-semester"
	AttrClass       = "data-class"
	AttrSubject     = "data-subject"
	AttrCompetency  = "data-competency"
	AttrGrade       = "data-grade"
	AttrTestID      = "data-test-id"
)

// Option is one entry of a select. Grade is the data-grade metadata.
type Option struct {
	Value string
	Label string
	Grade string
}

// Select is a dropdown control
type Select interface {
	Value() string
	// SetValue selects the option with value v. When no option matches the
	// selection is cleared, Value returns "" and SetValue returns false.
	SetValue(v string) bool
	Options() []Option
	Selected() (Option, bool)
	// ReplaceOptions swaps the option list and selects the first option.
	// The returned channel is closed once the new options exist.
	ReplaceOptions(opts []Option) <-chan struct{}
	Disabled() bool
	SetDisabled(disabled bool)
}

// Input is a free-text form field
type Input interface {
	Value() string
	SetValue(v string)
}

// Button is a clickable control with a label
type Button interface {
	Label() string
	SetLabel(label string)
	Visible() bool
	SetVisible(visible bool)
	Disabled() bool
	SetDisabled(disabled bool)
}

// Block is a layout element that can be shown, hidden or given text
type Block interface {
	Visible() bool
	SetVisible(visible bool)
	Text() string
	SetText(text string)
}

// Row is one rendered .test-row
type Row interface {
	TestID() int64
	Semester() string
	Class() string
	Subject() string
	// Cell returns the text of the competency-cell for competency.
	Cell(competency string) (string, bool)
	Visible() bool
	SetVisible(visible bool)
}

// EventKind identifies a user interaction
type EventKind int

const (
	EventChange EventKind = iota
	EventClick
	EventSubmit
	EventEditRow
)

// Event describes an interaction delivered by the document
type Event struct {
	Kind   EventKind
	Target string
	TestID int64
}

// Document is the page as seen by the engine
type Document interface {
	Select(id string) (Select, bool)
	Input(id string) (Input, bool)
	Button(id string) (Button, bool)
	Block(id string) (Block, bool)
	Rows() []Row
	TotalCell(competency string) (Block, bool)
	// On registers fn for events of kind on target. Submit and row edits
	// use an empty target.
	On(kind EventKind, target string, fn func(Event))
}

// ValueOf returns the value of s, or "" when s is absent
func ValueOf(s Select) string {
	if s == nil {
		return ""
	}
	return s.Value()
}

// InputValue returns the value of in, or "" when in is absent
func InputValue(in Input) string {
	if in == nil {
		return ""
	}
	return in.Value()
}
