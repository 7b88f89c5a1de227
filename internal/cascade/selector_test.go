package cascade_test

import (
	"reflect"
	"testing"

	"github.com/Bisp1999/grading-app/internal/cascade"
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
	"github.com/Bisp1999/grading-app/internal/view/dom"
)

// inline runs continuations as soon as their rebuild has completed
type inline struct{}

func (inline) Then(ready <-chan struct{}, fn func()) <-chan struct{} {
	<-ready
	fn()
	done := make(chan struct{})
	close(done)
	return done
}

// queued holds continuations until drain is called
type queued struct {
	waits []func()
}

func (q *queued) Then(ready <-chan struct{}, fn func()) <-chan struct{} {
	done := make(chan struct{})
	q.waits = append(q.waits, func() {
		<-ready
		fn()
		close(done)
	})
	return done
}

func (q *queued) drain() {
	waits := q.waits
	q.waits = nil
	for _, w := range waits {
		w()
	}
}

func specialist() *models.Context {
	return models.NewContext(models.ContextData{
		TeacherType: "specialist",
		Grades:      []string{"3", "4"},
		ClassroomsByGrade: map[string][]string{
			"3": {"3A", "3B"},
			"4": {"4A"},
		},
		Competencies: []string{"Reading", "Writing"},
		Semesters:    []string{"Semester 1", "Semester 2"},
	})
}

func setup(t *testing.T, pctx *models.Context) (*dom.Document, *cascade.Selector) {
	t.Helper()
	doc := dom.Render(pctx, nil)
	return doc, cascade.NewSelector(pctx, view.Resolve(doc), inline{})
}

func TestClassOptionsForGrade(t *testing.T) {
	got := cascade.ClassOptions(specialist(), "3", cascade.FormPlaceholder)
	want := []view.Option{
		{Value: "", Label: "Select Class"},
		{Value: "3A", Label: "3A", Grade: "3"},
		{Value: "3B", Label: "3B", Grade: "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestClassOptionsWithoutGrade(t *testing.T) {
	for _, grade := range []string{"", "9"} {
		got := cascade.ClassOptions(specialist(), grade, cascade.FilterPlaceholder)
		want := []view.Option{
			{Value: "", Label: "All Classes"},
			{Value: "3A", Label: "3A (3)", Grade: "3"},
			{Value: "3B", Label: "3B (3)", Grade: "3"},
			{Value: "4A", Label: "4A (4)", Grade: "4"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("grade %q: expected %v, got %v", grade, want, got)
		}
	}
}

func TestSyncClassFromGradeKeepsClassStillOffered(t *testing.T) {
	doc, sel := setup(t, specialist())

	doc.SelectByID(view.IDClassName).SetValue("3B")
	doc.SelectByID(view.IDGrade).SetValue("3")
	<-sel.SyncClassFromGrade(cascade.Form)

	class := doc.SelectByID(view.IDClassName)
	if got := class.Values(); !reflect.DeepEqual(got, []string{"", "3A", "3B"}) {
		t.Errorf("unexpected class options %v", got)
	}
	if class.Value() != "3B" {
		t.Errorf("expected 3B to survive the rebuild, got %q", class.Value())
	}
}

func TestSyncClassFromGradeResetsStaleClass(t *testing.T) {
	doc, sel := setup(t, specialist())

	doc.SelectByID(view.IDGrade).SetValue("3")
	<-sel.SyncClassFromGrade(cascade.Form)
	doc.SelectByID(view.IDClassName).SetValue("3A")

	doc.SelectByID(view.IDGrade).SetValue("4")
	<-sel.SyncClassFromGrade(cascade.Form)

	class := doc.SelectByID(view.IDClassName)
	if class.Value() != "" {
		t.Errorf("expected placeholder after grade change, got %q", class.Value())
	}
	if got := class.Values(); !reflect.DeepEqual(got, []string{"", "4A"}) {
		t.Errorf("unexpected class options %v", got)
	}
}

func TestSyncClassFromGradeWaitsForDeferredRebuild(t *testing.T) {
	pctx := specialist()
	doc := dom.Render(pctx, nil)
	seq := &queued{}
	sel := cascade.NewSelector(pctx, view.Resolve(doc), seq)

	doc.SelectByID(view.IDFilterClass).SetValue("4A")
	doc.SelectByID(view.IDFilterGrade).SetValue("4")

	doc.DeferRebuilds(true)
	done := sel.SyncClassFromGrade(cascade.Filter)

	select {
	case <-done:
		t.Fatal("sync completed before the rebuild was flushed")
	default:
	}
	if got := len(doc.SelectByID(view.IDFilterClass).Values()); got != 4 {
		t.Errorf("expected old options until flush, got %d", got)
	}

	doc.FlushRebuilds()
	seq.drain()
	<-done

	class := doc.SelectByID(view.IDFilterClass)
	if got := class.Values(); !reflect.DeepEqual(got, []string{"", "4A"}) {
		t.Errorf("unexpected class options %v", got)
	}
	if class.Value() != "4A" {
		t.Errorf("expected 4A restored, got %q", class.Value())
	}
}

func TestSyncGradeFromClass(t *testing.T) {
	doc, sel := setup(t, specialist())

	doc.SelectByID(view.IDClassName).SetValue("4A")
	sel.SyncGradeFromClass(cascade.Form)
	if got := doc.SelectByID(view.IDGrade).Value(); got != "4" {
		t.Errorf("expected grade 4, got %q", got)
	}

	doc.SelectByID(view.IDClassName).SetValue("")
	sel.SyncGradeFromClass(cascade.Form)
	if got := doc.SelectByID(view.IDGrade).Value(); got != "4" {
		t.Errorf("placeholder must not change the grade, got %q", got)
	}
}

func TestSyncGradeFromClassHomeroomNoop(t *testing.T) {
	pctx := models.NewContext(models.ContextData{
		TeacherType:       "homeroom",
		HomeroomClassName: "5B",
		HomeroomGrade:     "5",
	})
	doc := dom.New()
	grade := doc.AddSelect(view.IDGrade, view.Option{Value: ""}, view.Option{Value: "5"})
	doc.AddSelect(view.IDClassName, view.Option{Value: "5B", Label: "5B", Grade: "5"})

	sel := cascade.NewSelector(pctx, view.Resolve(doc), inline{})
	sel.SyncGradeFromClass(cascade.Form)

	if grade.Value() != "" {
		t.Errorf("expected homeroom grade untouched, got %q", grade.Value())
	}
}

func TestGradeOf(t *testing.T) {
	tests := []struct {
		opt  view.Option
		want string
	}{
		{view.Option{Value: "3A", Grade: "3"}, "3"},
		{view.Option{Value: "3A", Label: "3A (Grade 3)"}, "Grade 3"},
		{view.Option{Value: "3A", Label: "3A"}, ""},
	}

	for _, tt := range tests {
		if got := cascade.GradeOf(tt.opt); got != tt.want {
			t.Errorf("GradeOf(%+v) = %q, want %q", tt.opt, got, tt.want)
		}
	}
}
