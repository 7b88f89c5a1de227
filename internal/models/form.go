package models

import "strconv"

// Scope says whether a test applies to a whole grade or a single class
type Scope string

const (
	ScopeGradeAll  Scope = "grade_all"
	ScopeClassOnly Scope = "class_only"
)

// ModeKind distinguishes the two authoring form states
type ModeKind int

const (
	ModeCreate ModeKind = iota
	ModeEdit
)

// String returns the mode name
func (k ModeKind) String() string {
	if k == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormMode is Create or Edit(TestID)
type FormMode struct {
	Kind   ModeKind
	TestID int64
}

// CreateMode returns the initial form mode
func CreateMode() FormMode { return FormMode{Kind: ModeCreate} }

// EditMode returns the mode for editing test id
func EditMode(id int64) FormMode { return FormMode{Kind: ModeEdit, TestID: id} }

// IsEdit reports whether a loaded test is being edited
func (m FormMode) IsEdit() bool { return m.Kind == ModeEdit }

// String renders the mode for logs
func (m FormMode) String() string {
	if m.IsEdit() {
		return "edit(" + strconv.FormatInt(m.TestID, 10) + ")"
	}
	return "create"
}

// FilterState is the transient filter selection read back from the controls
type FilterState struct {
	SelectedClass    string
	SelectedSemester string
	SelectedSubject  string
	FilterGrade      string
	FilterClass      string
}
