package dom

import (
	"github.com/Bisp1999/grading-app/internal/cascade"
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
)

// Render builds the authoring page for pctx the way the server template
// lays it out. Specialist pages get the grade/class controls and the global
// class filter; homeroom pages carry their fixed class and get the subject
// filter instead.
func Render(pctx *models.Context, rows []models.TestRow) *Document {
	d := New()

	semesters := choices("", "Select Semester", pctx.Semesters())

	if pctx.IsSpecialist() {
		d.AddSelect(view.IDGrade, choices("", "Select Grade", pctx.Grades())...)
		d.AddSelect(view.IDClassName, cascade.ClassOptions(pctx, "", cascade.FormPlaceholder)...)
		d.AddSelect(view.IDFilterGrade, choices("", "All Grades", pctx.Grades())...)
		d.AddSelect(view.IDFilterClass, cascade.ClassOptions(pctx, "", cascade.FilterPlaceholder)...)
		d.AddSelect(view.IDGlobalClassFilter, cascade.ClassOptions(pctx, "", cascade.FilterPlaceholder)...)
	} else {
		d.AddSelect(view.IDGrade, view.Option{Value: pctx.HomeroomGrade(), Label: pctx.HomeroomGrade()})
		d.AddSelect(view.IDClassName, view.Option{Value: pctx.HomeroomClassName(), Label: pctx.HomeroomClassName()})
		d.AddSelect(view.IDSubject, choices("", "Select Subject", pctx.Subjects())...)
		d.AddSelect(view.IDFilterSubject, choices("", "All Subjects", pctx.Subjects())...)
	}

	d.AddSelect(view.IDSemester, semesters...)
	d.AddSelect(view.IDCompetency, choices("", "Select Competency", pctx.Competencies())...)
	d.AddSelect(view.IDTestScope,
		view.Option{Value: string(models.ScopeGradeAll), Label: "All classes in grade"},
		view.Option{Value: string(models.ScopeClassOnly), Label: "This class only"},
	)
	d.AddSelect(view.IDFilterSemester, choices("", "All Semesters", pctx.Semesters())...)
	d.AddSelect(view.IDGlobalSemesterFilter, semesters...)

	d.AddInput(view.IDTestName, "")
	d.AddInput(view.IDMaxPoints, "")
	d.AddInput(view.IDTestDate, "")
	d.AddInput(view.IDTestWeight, "")
	d.AddInput(view.IDEditTestID, "")

	d.AddButton(view.IDSubmitButton, pctx.Translate("createTest", "Create Test"))
	d.AddButton(view.IDDeleteButton, "Delete Test").SetVisible(false)
	d.AddButton(view.IDCreateTestsButton, pctx.Translate("createTests", "Create Tests"))

	d.AddBlock(view.IDDefineTestsCard, false)
	d.AddBlock(view.IDTestsTable, false)
	d.AddBlock(view.IDNoSelectionMessage, true)
	d.AddBlock(view.IDHeaderInfo, true)

	d.SetTotals(pctx.Competencies())
	d.SetRows(rows)

	return d
}

func choices(value, placeholder string, items []string) []view.Option {
	opts := []view.Option{{Value: value, Label: placeholder}}
	for _, item := range items {
		opts = append(opts, view.Option{Value: item, Label: item})
	}
	return opts
}
