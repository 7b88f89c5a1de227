// Package visibility filters the test list, recomputes per-competency totals
// and gates the list behind a class and semester selection.
package visibility

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
)

// Gate is the outcome of the class + semester gating rule
type Gate struct {
	SemesterSelected bool
	ClassSelected    bool
}

// Open reports whether the list and authoring affordance may be shown
func (g Gate) Open() bool {
	return g.SemesterSelected && g.ClassSelected
}

// Engine derives row visibility, totals and gating from the filter controls
type Engine struct {
	pctx *models.Context
	b    *view.Bindings
}

// NewEngine creates an engine over the resolved bindings
func NewEngine(pctx *models.Context, b *view.Bindings) *Engine {
	return &Engine{pctx: pctx, b: b}
}

// Filters reads the current filter selection back from the controls
func (e *Engine) Filters() models.FilterState {
	return models.FilterState{
		SelectedClass:    view.ValueOf(e.b.GlobalClass),
		SelectedSemester: view.ValueOf(e.b.GlobalSemester),
		SelectedSubject:  view.ValueOf(e.b.FilterSubject),
		FilterGrade:      view.ValueOf(e.b.FilterGrade),
		FilterClass:      view.ValueOf(e.b.FilterClass),
	}
}

// Matches applies the filter predicate to one row. Subject only narrows the
// list for homeroom teachers.
func Matches(row view.Row, f models.FilterState, homeroom bool) bool {
	if f.SelectedSemester != "" && row.Semester() != f.SelectedSemester {
		return false
	}
	if f.SelectedClass != "" && row.Class() != f.SelectedClass {
		return false
	}
	if homeroom && f.SelectedSubject != "" && row.Subject() != f.SelectedSubject {
		return false
	}
	return true
}

// ApplyFilters shows exactly the rows matching the active filters and
// returns how many are visible
func (e *Engine) ApplyFilters() int {
	f := e.Filters()
	homeroom := e.pctx.IsHomeroom()

	visible := 0
	for _, row := range e.b.Rows() {
		show := Matches(row, f, homeroom)
		row.SetVisible(show)
		if show {
			visible++
		}
	}
	return visible
}

// RecomputeTotals sums each competency's weights over the visible rows and
// writes "<sum>%" into its totals cell
func (e *Engine) RecomputeTotals() map[string]float64 {
	rows := e.b.Rows()
	totals := make(map[string]float64)

	for _, comp := range e.pctx.Competencies() {
		total := 0.0
		for _, row := range rows {
			if !row.Visible() {
				continue
			}
			if text, ok := row.Cell(comp); ok {
				total += ParseWeight(text)
			}
		}
		totals[comp] = total

		if cell := e.b.TotalCell(comp); cell != nil {
			cell.SetText(models.FormatNumber(total) + "%")
		}
	}
	return totals
}

var weightPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseWeight reads a percentage cell the way a browser's parseFloat would:
// the first "%" is dropped and the leading number is used, so "5%%" and
// "12.5 pts" read as 5 and 12.5. Text without a leading number, or one that
// overflows, counts as 0.
func ParseWeight(text string) float64 {
	s := strings.TrimSpace(strings.Replace(text, "%", "", 1))
	m := weightPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ComputeGating shows the list only when a semester and (for specialists)
// a class are selected
func (e *Engine) ComputeGating() Gate {
	g := Gate{
		SemesterSelected: view.ValueOf(e.b.GlobalSemester) != "",
		ClassSelected:    true,
	}
	if e.pctx.IsSpecialist() {
		g.ClassSelected = view.ValueOf(e.b.GlobalClass) != ""
	}

	open := g.Open()
	if e.b.CreateTestsButton != nil {
		e.b.CreateTestsButton.SetDisabled(!open)
	}
	if e.b.TestsTable != nil {
		e.b.TestsTable.SetVisible(open)
	}
	if e.b.NoSelectionMessage != nil {
		e.b.NoSelectionMessage.SetVisible(!open)
	}
	return g
}

// Refresh runs filtering, totals and gating in that order
func (e *Engine) Refresh() Gate {
	e.ApplyFilters()
	e.RecomputeTotals()
	return e.ComputeGating()
}
