// Package formmode drives the authoring form between Create and Edit modes.
package formmode

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/Bisp1999/grading-app/internal/cascade"
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
)

// Default labels, used when the translation table has no entry
const (
	LabelCreateTest  = "Create Test"
	LabelUpdateTest  = "Update Test"
	LabelHideForm    = "Hide Form"
	LabelCreateTests = "Create Tests"
)

// FieldError reports a form field that could not take a value
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %q is not an available option", e.Field, e.Value)
}

// Controller owns the form mode and every write to the authoring form
type Controller struct {
	pctx *models.Context
	b    *view.Bindings
	sel  *cascade.Selector
	seq  cascade.Sequencer
	mode models.FormMode
}

// NewController creates a controller in Create mode. It does not touch the
// view; call Reset to render the Create state.
func NewController(pctx *models.Context, b *view.Bindings, sel *cascade.Selector, seq cascade.Sequencer) *Controller {
	return &Controller{
		pctx: pctx,
		b:    b,
		sel:  sel,
		seq:  seq,
		mode: models.CreateMode(),
	}
}

// Mode returns the current form mode
func (c *Controller) Mode() models.FormMode {
	return c.mode
}

// Reset returns the form to Create mode
func (c *Controller) Reset() {
	c.mode = models.CreateMode()

	if c.b.EditTestID != nil {
		c.b.EditTestID.SetValue("")
	}
	if c.b.SubmitButton != nil {
		c.b.SubmitButton.SetLabel(c.pctx.Translate("createTest", LabelCreateTest))
	}
	if c.b.DeleteButton != nil {
		c.b.DeleteButton.SetVisible(false)
	}
	if c.b.TestScope != nil {
		c.b.TestScope.SetValue(string(models.ScopeGradeAll))
		c.b.TestScope.SetDisabled(false)
	}
}

// EnterEdit switches to Edit(id). The scope is locked to the loaded class
// and the authoring panel is revealed.
func (c *Controller) EnterEdit(id int64) {
	c.mode = models.EditMode(id)

	if c.b.EditTestID != nil {
		c.b.EditTestID.SetValue(strconv.FormatInt(id, 10))
	}
	if c.b.SubmitButton != nil {
		c.b.SubmitButton.SetLabel(c.pctx.Translate("updateTest", LabelUpdateTest))
	}
	if c.b.DeleteButton != nil {
		c.b.DeleteButton.SetVisible(true)
	}
	if c.b.TestScope != nil {
		c.b.TestScope.SetValue(string(models.ScopeClassOnly))
		c.b.TestScope.SetDisabled(true)
	}

	c.ShowPanel()
}

// PanelOpen reports whether the authoring panel is shown
func (c *Controller) PanelOpen() bool {
	return c.b.DefineTestsCard != nil && c.b.DefineTestsCard.Visible()
}

// ShowPanel reveals the authoring panel if it is hidden
func (c *Controller) ShowPanel() {
	if c.b.DefineTestsCard == nil || c.b.DefineTestsCard.Visible() {
		return
	}
	c.b.DefineTestsCard.SetVisible(true)
	if c.b.CreateTestsButton != nil {
		c.b.CreateTestsButton.SetLabel(c.pctx.Translate("hideForm", LabelHideForm))
	}
}

// TogglePanel shows or hides the authoring panel. Collapsing always resets
// the form to Create mode. It returns whether the panel is now open.
func (c *Controller) TogglePanel() bool {
	if c.b.DefineTestsCard == nil || c.b.CreateTestsButton == nil {
		return c.PanelOpen()
	}

	if !c.b.DefineTestsCard.Visible() {
		c.b.DefineTestsCard.SetVisible(true)
		c.b.CreateTestsButton.SetLabel(c.pctx.Translate("hideForm", LabelHideForm))
		return true
	}

	c.b.DefineTestsCard.SetVisible(false)
	c.b.CreateTestsButton.SetLabel(c.pctx.Translate("createTests", LabelCreateTests))
	c.Reset()
	return false
}

// Populate copies rec into the form fields. Every field is attempted; the
// joined field errors are returned and fields already written stay written.
// Grade and class are left to SelectGrade/SelectClass.
func (c *Controller) Populate(rec *models.TestRecord) error {
	err := setSelect(view.IDSemester, c.b.Semester, rec.Semester)
	setInput(c.b.TestName, rec.TestName)
	setInput(c.b.MaxPoints, strconv.Itoa(rec.MaxPoints))
	setInput(c.b.TestDate, rec.TestDate)
	setInput(c.b.TestWeight, models.FormatNumber(rec.TestWeight))
	err = multierr.Append(err, setSelect(view.IDCompetency, c.b.Competency, rec.Competency))

	if c.pctx.IsHomeroom() && rec.Subject != "" {
		err = multierr.Append(err, setSelect(view.IDSubject, c.b.Subject, rec.Subject))
	}

	return err
}

// SelectGrade sets the form grade and rebuilds the class options for it.
// The channel is closed once the new class options exist.
func (c *Controller) SelectGrade(grade string) (<-chan struct{}, error) {
	err := setSelect(view.IDGrade, c.b.Grade, grade)
	return c.sel.SyncClassFromGrade(cascade.Form), err
}

// SelectClass sets the form class; call it after the class options are rebuilt
func (c *Controller) SelectClass(className string) error {
	return setSelect(view.IDClassName, c.b.ClassName, className)
}

// SetDefaultDate fills the test date field
func (c *Controller) SetDefaultDate(date string) {
	setInput(c.b.TestDate, date)
}

// ApplyLastTest preselects the grade and class of the most recently saved
// test for specialist teachers. The channel is closed once done.
func (c *Controller) ApplyLastTest() <-chan struct{} {
	if !c.pctx.IsSpecialist() {
		return closedChan()
	}

	ready := closedChan()
	if grade := c.pctx.LastTestGrade(); grade != "" && c.b.Grade != nil {
		c.b.Grade.SetValue(grade)
		ready = c.sel.SyncClassFromGrade(cascade.Form)
	}

	className := c.pctx.LastTestClassName()
	if className == "" || c.b.ClassName == nil {
		return ready
	}
	return c.seq.Then(ready, func() {
		c.b.ClassName.SetValue(className)
	})
}

// SyncFromFilters copies the host's class and semester selection into the
// form and writes the "CLASS: .. - SEMESTER: .." header. The channel is
// closed once any class-option rebuild has completed.
func (c *Controller) SyncFromFilters() <-chan struct{} {
	semester := view.ValueOf(c.b.GlobalSemester)
	ready := closedChan()

	header := ""
	if c.pctx.IsSpecialist() {
		ready, header = c.syncSpecialistClass(semester)
	} else {
		c.setHidden(c.b.ClassName, c.pctx.HomeroomClassName())
		c.setHidden(c.b.Grade, c.pctx.HomeroomGrade())
		if semester != "" && c.pctx.HomeroomClassName() != "" {
			header = headerText(c.pctx.HomeroomClassName(), semester)
		}
	}

	if semester != "" {
		c.setHidden(c.b.Semester, semester)
	} else {
		c.setHidden(c.b.Semester, "")
		header = ""
	}

	if c.b.HeaderInfo != nil {
		c.b.HeaderInfo.SetText(header)
	}
	return ready
}

func (c *Controller) syncSpecialistClass(semester string) (<-chan struct{}, string) {
	ready := closedChan()

	opt, ok := selected(c.b.GlobalClass)
	if !ok || opt.Value == "" {
		c.setHidden(c.b.ClassName, "")
		c.setHidden(c.b.Grade, "")
		return ready, ""
	}

	if grade := cascade.GradeOf(opt); grade != "" && c.b.Grade != nil {
		c.b.Grade.SetValue(grade)
		ready = c.sel.SyncClassFromGrade(cascade.Form)
	}
	if c.b.ClassName != nil {
		ready = c.seq.Then(ready, func() {
			c.b.ClassName.SetValue(opt.Value)
		})
	}

	header := ""
	if semester != "" {
		header = headerText(opt.Label, semester)
	}
	return ready, header
}

func (c *Controller) setHidden(s view.Select, v string) {
	if s != nil {
		s.SetValue(v)
	}
}

// EditingID returns the id of the test being edited, read from editTestId
func (c *Controller) EditingID() (int64, bool) {
	raw := strings.TrimSpace(view.InputValue(c.b.EditTestID))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Submission snapshots the form for saving
func (c *Controller) Submission() (models.TestSubmission, error) {
	sub := models.TestSubmission{
		Semester:   view.ValueOf(c.b.Semester),
		Grade:      view.ValueOf(c.b.Grade),
		ClassName:  view.ValueOf(c.b.ClassName),
		Subject:    view.ValueOf(c.b.Subject),
		Competency: view.ValueOf(c.b.Competency),
		TestName:   strings.TrimSpace(view.InputValue(c.b.TestName)),
		TestDate:   strings.TrimSpace(view.InputValue(c.b.TestDate)),
		Scope:      models.Scope(view.ValueOf(c.b.TestScope)),
	}
	if id, ok := c.EditingID(); ok {
		sub.ID = id
	}

	maxPoints, err := strconv.Atoi(strings.TrimSpace(view.InputValue(c.b.MaxPoints)))
	if err != nil {
		return sub, fmt.Errorf("invalid max points: %w", err)
	}
	sub.MaxPoints = maxPoints

	weight, err := strconv.ParseFloat(strings.TrimSpace(view.InputValue(c.b.TestWeight)), 64)
	if err != nil {
		return sub, fmt.Errorf("invalid test weight: %w", err)
	}
	sub.TestWeight = weight

	return sub, nil
}

func headerText(class, semester string) string {
	return "CLASS: " + class + " - SEMESTER: " + semester
}

func selected(s view.Select) (view.Option, bool) {
	if s == nil {
		return view.Option{}, false
	}
	return s.Selected()
}

func setSelect(field string, s view.Select, v string) error {
	if s == nil {
		return nil
	}
	if !s.SetValue(v) {
		return &FieldError{Field: field, Value: v}
	}
	return nil
}

func setInput(in view.Input, v string) {
	if in != nil {
		in.SetValue(v)
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
