package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Bisp1999/grading-app/internal/view"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	headerCell  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell        = lipgloss.NewStyle().Padding(0, 1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#585b70")).Padding(0, 1)
)

// show prints the page as it currently stands
func (d *desk) show(ctx context.Context) {
	var out string
	if err := d.page.Do(ctx, func() { out = d.render() }); err != nil {
		fmt.Println(errorStyle.Render("cannot draw page: " + err.Error()))
		return
	}
	fmt.Println(out)
}

// render must run on the page loop
func (d *desk) render() string {
	var sections []string

	if header := d.doc.BlockByID(view.IDHeaderInfo).Text(); header != "" {
		sections = append(sections, titleStyle.Render(header))
	}

	if d.doc.BlockByID(view.IDNoSelectionMessage).Visible() {
		sections = append(sections, dimStyle.Render("Select a semester and class to see tests."))
	}
	if d.doc.BlockByID(view.IDTestsTable).Visible() {
		sections = append(sections, d.renderTable())
	}
	if d.doc.BlockByID(view.IDDefineTestsCard).Visible() {
		sections = append(sections, d.renderForm())
	}

	btn := d.doc.ButtonByID(view.IDCreateTestsButton)
	state := btn.Label()
	if btn.Disabled() {
		state += " (disabled)"
	}
	sections = append(sections, dimStyle.Render("["+state+"]"))

	return strings.Join(sections, "\n")
}

func (d *desk) renderTable() string {
	comps := d.pctx.Competencies()

	columns := make([][]string, 0, len(comps)+2)
	ids := []string{headerCell.Render("ID")}
	names := []string{headerCell.Render("Class")}
	for _, r := range d.doc.VisibleRows() {
		ids = append(ids, cell.Render(strconv.FormatInt(r.TestID(), 10)))
		names = append(names, cell.Render(r.Class()+r.Subject()))
	}
	ids = append(ids, headerCell.Render("Total"))
	names = append(names, cell.Render(""))
	columns = append(columns, ids, names)

	totals := d.doc.Totals()
	for _, comp := range comps {
		col := []string{headerCell.Render(comp)}
		for _, r := range d.doc.VisibleRows() {
			text, _ := r.Cell(comp)
			col = append(col, cell.Render(text))
		}
		col = append(col, headerCell.Render(totals[comp]))
		columns = append(columns, col)
	}

	rendered := make([]string, len(columns))
	for i, col := range columns {
		rendered[i] = lipgloss.JoinVertical(lipgloss.Left, col...)
	}
	return panelStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

func (d *desk) renderForm() string {
	var lines []string

	field := func(label, value string) {
		lines = append(lines, fmt.Sprintf("%-12s %s", label+":", value))
	}
	sel := func(id string) string {
		s := d.doc.SelectByID(id)
		if s == nil {
			return ""
		}
		v := s.Value()
		if s.Disabled() {
			v += " (locked)"
		}
		return v
	}
	in := func(id string) string {
		if i := d.doc.InputByID(id); i != nil {
			return i.Value()
		}
		return ""
	}

	if d.pctx.IsSpecialist() {
		field(view.IDGrade, sel(view.IDGrade))
		field(view.IDClassName, sel(view.IDClassName))
	} else {
		field(view.IDSubject, sel(view.IDSubject))
	}
	field(view.IDSemester, sel(view.IDSemester))
	field(view.IDCompetency, sel(view.IDCompetency))
	field(view.IDTestScope, sel(view.IDTestScope))
	field(view.IDTestName, in(view.IDTestName))
	field(view.IDMaxPoints, in(view.IDMaxPoints))
	field(view.IDTestDate, in(view.IDTestDate))
	field(view.IDTestWeight, in(view.IDTestWeight))

	actions := "[" + d.doc.ButtonByID(view.IDSubmitButton).Label() + "]"
	if del := d.doc.ButtonByID(view.IDDeleteButton); del.Visible() {
		actions += " [" + del.Label() + "]"
	}
	lines = append(lines, promptStyle.Render(actions))

	return panelStyle.Render(strings.Join(lines, "\n"))
}
