// Package cascade keeps dependent grade/class dropdowns consistent.
package cascade

import (
	"regexp"

	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
)

// Scope selects which pair of grade/class controls an operation targets
type Scope int

const (
	Form   Scope = iota // grade / class_name in the authoring form
	Filter              // filter_grade / filter_class in the filter bar
)

// Placeholder labels of the neutral first option
const (
	FormPlaceholder   = "Select Class"
	FilterPlaceholder = "All Classes"
)

// Sequencer runs a continuation once an option rebuild has completed
type Sequencer interface {
	Then(ready <-chan struct{}, fn func()) <-chan struct{}
}

type pair struct {
	grade       view.Select
	class       view.Select
	placeholder string
}

// Selector derives class options from grades and grades from classes
type Selector struct {
	pctx   *models.Context
	seq    Sequencer
	form   pair
	filter pair
}

// NewSelector creates a selector over the resolved bindings
func NewSelector(pctx *models.Context, b *view.Bindings, seq Sequencer) *Selector {
	return &Selector{
		pctx:   pctx,
		seq:    seq,
		form:   pair{grade: b.Grade, class: b.ClassName, placeholder: FormPlaceholder},
		filter: pair{grade: b.FilterGrade, class: b.FilterClass, placeholder: FilterPlaceholder},
	}
}

func (s *Selector) pair(scope Scope) pair {
	if scope == Filter {
		return s.filter
	}
	return s.form
}

// SyncClassFromGrade rebuilds the class options for the chosen grade.
// The previously chosen class survives only if it is still offered. The
// returned channel is closed once the rebuild and the restore have happened.
func (s *Selector) SyncClassFromGrade(scope Scope) <-chan struct{} {
	p := s.pair(scope)
	if p.grade == nil || p.class == nil {
		return closed()
	}

	previous := p.class.Value()
	opts := ClassOptions(s.pctx, p.grade.Value(), p.placeholder)
	rebuilt := p.class.ReplaceOptions(opts)

	return s.seq.Then(rebuilt, func() {
		if previous != "" && hasValue(opts, previous) {
			p.class.SetValue(previous)
		}
	})
}

// SyncGradeFromClass points the grade control at the selected class's grade.
// Homeroom teachers have a single implicit grade, so it does nothing for them.
func (s *Selector) SyncGradeFromClass(scope Scope) {
	if !s.pctx.IsSpecialist() {
		return
	}
	p := s.pair(scope)
	if p.grade == nil || p.class == nil {
		return
	}

	opt, ok := p.class.Selected()
	if !ok || opt.Value == "" || opt.Grade == "" {
		return
	}
	p.grade.SetValue(opt.Grade)
}

// ClassOptions lists the class options offered for grade: the placeholder
// followed by the grade's classrooms in source order. Without a known grade
// every class of every grade is offered, labeled "<class> (<grade>)".
func ClassOptions(pctx *models.Context, grade, placeholder string) []view.Option {
	opts := []view.Option{{Value: "", Label: placeholder}}

	if grade != "" && pctx.HasGrade(grade) {
		for _, class := range pctx.ClassesIn(grade) {
			opts = append(opts, view.Option{Value: class, Label: class, Grade: grade})
		}
		return opts
	}

	for _, g := range pctx.Grades() {
		for _, class := range pctx.ClassesIn(g) {
			opts = append(opts, view.Option{Value: class, Label: class + " (" + g + ")", Grade: g})
		}
	}
	return opts
}

var trailingGrade = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// GradeOf returns the grade carried by opt, falling back to a trailing
// "(grade)" in its label
func GradeOf(opt view.Option) string {
	if opt.Grade != "" {
		return opt.Grade
	}
	if m := trailingGrade.FindStringSubmatch(opt.Label); m != nil {
		return m[1]
	}
	return ""
}

func hasValue(opts []view.Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
