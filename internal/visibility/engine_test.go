package visibility_test

import (
	"reflect"
	"testing"

	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
	"github.com/Bisp1999/grading-app/internal/view/dom"
	"github.com/Bisp1999/grading-app/internal/visibility"
)

var competencies = []string{"Reading", "Writing"}

func row(id int64, class, semester, subject, comp, weight string) models.TestRow {
	cells := map[string]string{"Reading": "", "Writing": ""}
	cells[comp] = weight
	return models.TestRow{ID: id, Class: class, Semester: semester, Subject: subject, Cells: cells}
}

func specialistPage(rows ...models.TestRow) (*dom.Document, *visibility.Engine) {
	pctx := models.NewContext(models.ContextData{
		TeacherType:       "specialist",
		Grades:            []string{"3"},
		ClassroomsByGrade: map[string][]string{"3": {"3A", "3B"}},
		Competencies:      competencies,
		Semesters:         []string{"Semester 1", "Semester 2"},
	})
	doc := dom.Render(pctx, rows)
	return doc, visibility.NewEngine(pctx, view.Resolve(doc))
}

func homeroomPage(rows ...models.TestRow) (*dom.Document, *visibility.Engine) {
	pctx := models.NewContext(models.ContextData{
		TeacherType:       "homeroom",
		HomeroomClassName: "5B",
		HomeroomGrade:     "5",
		Competencies:      competencies,
		Semesters:         []string{"Semester 1", "Semester 2"},
		Subjects:          []string{"Math", "French"},
	})
	doc := dom.Render(pctx, rows)
	return doc, visibility.NewEngine(pctx, view.Resolve(doc))
}

func TestApplyFiltersConjunction(t *testing.T) {
	doc, engine := specialistPage(
		row(1, "3A", "Semester 1", "", "Reading", "10%"),
		row(2, "3B", "Semester 1", "", "Reading", "20%"),
		row(3, "3A", "Semester 2", "", "Writing", "30%"),
	)

	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 1")
	doc.SelectByID(view.IDGlobalClassFilter).SetValue("3A")

	if n := engine.ApplyFilters(); n != 1 {
		t.Errorf("expected 1 visible row, got %d", n)
	}
	if got := doc.VisibleRowIDs(); !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("expected [1] visible, got %v", got)
	}

	doc.SelectByID(view.IDGlobalClassFilter).SetValue("")
	engine.ApplyFilters()
	if got := doc.VisibleRowIDs(); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("expected [1 2] visible, got %v", got)
	}
}

func TestApplyFiltersIdempotent(t *testing.T) {
	doc, engine := specialistPage(
		row(1, "3A", "Semester 1", "", "Reading", "10%"),
		row(2, "3B", "Semester 2", "", "Reading", "20%"),
	)
	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 2")

	engine.ApplyFilters()
	first := doc.VisibleRowIDs()
	engine.ApplyFilters()
	if second := doc.VisibleRowIDs(); !reflect.DeepEqual(first, second) {
		t.Errorf("second pass changed visibility: %v then %v", first, second)
	}
}

func TestSubjectFilterOnlyForHomeroom(t *testing.T) {
	doc, engine := homeroomPage(
		row(1, "5B", "Semester 1", "Math", "Reading", "10%"),
		row(2, "5B", "Semester 1", "French", "Reading", "20%"),
	)
	doc.SelectByID(view.IDFilterSubject).SetValue("Math")
	engine.ApplyFilters()
	if got := doc.VisibleRowIDs(); !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("expected [1] visible, got %v", got)
	}

	r := dom.New()
	r.SetRows([]models.TestRow{row(7, "3A", "Semester 1", "Art", "Reading", "")})
	f := models.FilterState{SelectedSubject: "Math"}
	if !visibility.Matches(r.Rows()[0], f, false) {
		t.Error("subject must not filter specialist rows")
	}
}

func TestRecomputeTotals(t *testing.T) {
	doc, engine := specialistPage(
		row(1, "3A", "Semester 1", "", "Reading", "10%"),
		row(2, "3A", "Semester 1", "", "Reading", " 12.5% "),
		row(3, "3A", "Semester 1", "", "Writing", "n/a"),
		row(4, "3A", "Semester 2", "", "Writing", "40%"),
	)
	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 1")
	engine.ApplyFilters()

	totals := engine.RecomputeTotals()
	if totals["Reading"] != 22.5 {
		t.Errorf("expected Reading 22.5, got %v", totals["Reading"])
	}
	if totals["Writing"] != 0 {
		t.Errorf("expected hidden and malformed weights to count 0, got %v", totals["Writing"])
	}

	want := map[string]string{"Reading": "22.5%", "Writing": "0%"}
	if got := doc.Totals(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected totals %v, got %v", want, got)
	}
}

func TestRecomputeTotalsFollowsVisibility(t *testing.T) {
	doc, engine := specialistPage(
		row(1, "3A", "Semester 1", "", "Reading", "10%"),
		row(2, "3A", "Semester 2", "", "Reading", "30%"),
	)

	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 1")
	engine.ApplyFilters()
	if got := engine.RecomputeTotals()["Reading"]; got != 10 {
		t.Fatalf("expected 10 with row 2 hidden, got %v", got)
	}

	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("")
	engine.ApplyFilters()
	if got := engine.RecomputeTotals()["Reading"]; got != 40 {
		t.Errorf("expected 40 once row 2 is visible again, got %v", got)
	}
	if got := doc.Totals()["Reading"]; got != "40%" {
		t.Errorf("expected rendered 40%%, got %q", got)
	}

	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 2")
	engine.ApplyFilters()
	if got := engine.RecomputeTotals()["Reading"]; got != 30 {
		t.Errorf("expected 30 with row 1 hidden, got %v", got)
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10%", 10},
		{" 7.5 % ", 7.5},
		{"", 0},
		{"%", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf%", 0},
		{"1e400", 0},
		{"5%%", 5},
		{"12.5 pts", 12.5},
		{"-3%", -3},
		{".5", 0.5},
		{"pts 12", 0},
	}

	for _, tt := range tests {
		if got := visibility.ParseWeight(tt.in); got != tt.want {
			t.Errorf("ParseWeight(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComputeGatingSpecialist(t *testing.T) {
	doc, engine := specialistPage()

	gate := engine.ComputeGating()
	if gate.Open() {
		t.Fatal("expected gate closed with nothing selected")
	}
	if !doc.ButtonByID(view.IDCreateTestsButton).Disabled() {
		t.Error("expected create button disabled")
	}
	if doc.BlockByID(view.IDTestsTable).Visible() || !doc.BlockByID(view.IDNoSelectionMessage).Visible() {
		t.Error("expected table hidden and message shown")
	}

	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 1")
	if engine.ComputeGating().Open() {
		t.Fatal("specialist gate must also require a class")
	}

	doc.SelectByID(view.IDGlobalClassFilter).SetValue("3B")
	if !engine.ComputeGating().Open() {
		t.Fatal("expected gate open")
	}
	if doc.ButtonByID(view.IDCreateTestsButton).Disabled() {
		t.Error("expected create button enabled")
	}
	if !doc.BlockByID(view.IDTestsTable).Visible() || doc.BlockByID(view.IDNoSelectionMessage).Visible() {
		t.Error("expected table shown and message hidden")
	}
}

func TestComputeGatingCloses(t *testing.T) {
	tests := []struct {
		name  string
		clear string
	}{
		{"semester cleared", view.IDGlobalSemesterFilter},
		{"class cleared", view.IDGlobalClassFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, engine := specialistPage()
			doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 1")
			doc.SelectByID(view.IDGlobalClassFilter).SetValue("3A")
			if !engine.ComputeGating().Open() {
				t.Fatal("expected gate open")
			}

			doc.SelectByID(tt.clear).SetValue("")
			if engine.ComputeGating().Open() {
				t.Fatal("expected gate closed")
			}
			if !doc.ButtonByID(view.IDCreateTestsButton).Disabled() {
				t.Error("expected create button disabled again")
			}
			if doc.BlockByID(view.IDTestsTable).Visible() {
				t.Error("expected table hidden again")
			}
			if !doc.BlockByID(view.IDNoSelectionMessage).Visible() {
				t.Error("expected no-selection message shown again")
			}
		})
	}
}

func TestComputeGatingHomeroomNeedsOnlySemester(t *testing.T) {
	doc, engine := homeroomPage()

	doc.SelectByID(view.IDGlobalSemesterFilter).SetValue("Semester 2")
	gate := engine.Refresh()
	if !gate.Open() {
		t.Errorf("expected homeroom gate open with a semester, got %+v", gate)
	}
}
