// Package page assembles the test authoring page and runs it on an event loop.
package page

import (
	"context"
	"log/slog"
	"time"

	"github.com/Bisp1999/grading-app/internal/cascade"
	"github.com/Bisp1999/grading-app/internal/editgateway"
	"github.com/Bisp1999/grading-app/internal/formmode"
	"github.com/Bisp1999/grading-app/internal/loop"
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
	"github.com/Bisp1999/grading-app/internal/visibility"
)

// DefaultGraceDelay is how long after start the host filters are re-read
const DefaultGraceDelay = 100 * time.Millisecond

// FilterEvents notifies the page when the host's global filters change
type FilterEvents interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Deps are the host services the page needs
type Deps struct {
	API        editgateway.TestAPI
	Notifier   editgateway.Notifier
	Confirmer  editgateway.Confirmer
	Reloader   editgateway.Reloader
	Events     FilterEvents
	GraceDelay time.Duration
	Now        func() time.Time
}

// Page owns the document and every component. The document is only touched
// from the loop goroutine; use Do to reach it from elsewhere.
type Page struct {
	pctx *models.Context
	doc  view.Document
	b    *view.Bindings
	loop *loop.Loop
	deps Deps

	sel  *cascade.Selector
	vis  *visibility.Engine
	form *formmode.Controller
	gw   *editgateway.Gateway

	ctx context.Context
}

// New resolves the bindings against doc and wires the components together
func New(pctx *models.Context, doc view.Document, deps Deps) *Page {
	if deps.GraceDelay <= 0 {
		deps.GraceDelay = DefaultGraceDelay
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	l := loop.New()
	b := view.Resolve(doc)
	if missing := b.Missing(); len(missing) > 0 {
		slog.Debug("page elements not rendered", "ids", missing)
	}

	sel := cascade.NewSelector(pctx, b, l)
	form := formmode.NewController(pctx, b, sel, l)

	p := &Page{
		pctx: pctx,
		doc:  doc,
		b:    b,
		loop: l,
		deps: deps,
		sel:  sel,
		vis:  visibility.NewEngine(pctx, b),
		form: form,
		gw: editgateway.New(editgateway.Config{
			API:       deps.API,
			Context:   pctx,
			Form:      form,
			Notifier:  deps.Notifier,
			Confirmer: deps.Confirmer,
			Reloader:  deps.Reloader,
			Loop:      l,
		}),
		ctx: context.Background(),
	}
	p.wire()
	return p
}

// Run drives the event loop until ctx is cancelled
func (p *Page) Run(ctx context.Context) error {
	p.ctx = ctx

	if p.deps.Events != nil {
		unsubscribe := p.deps.Events.Subscribe(func() {
			p.loop.Post(p.onGlobalFiltersChanged)
		})
		defer unsubscribe()
	}

	return p.loop.Run(ctx)
}

// Do runs fn on the loop and waits for it
func (p *Page) Do(ctx context.Context, fn func()) error {
	return p.loop.Do(ctx, fn)
}

// Start performs the page-load sequence and schedules the delayed re-read
// of the host filters
func (p *Page) Start(ctx context.Context) error {
	if err := p.loop.Do(ctx, p.start); err != nil {
		return err
	}

	time.AfterFunc(p.deps.GraceDelay, func() {
		p.loop.Post(p.onGlobalFiltersChanged)
	})
	return nil
}

func (p *Page) start() {
	p.vis.Refresh()
	p.form.SyncFromFilters()
	p.form.SetDefaultDate(p.deps.Now().Format(models.DateLayout))
	clearSelect(p.b.FilterSemester)

	if p.pctx.IsSpecialist() {
		clearSelect(p.b.FilterGrade)
		clearSelect(p.b.FilterClass)
		p.sel.SyncClassFromGrade(cascade.Filter)
		p.form.ApplyLastTest()
	} else {
		clearSelect(p.b.FilterSubject)
	}

	gate := p.vis.Refresh()
	slog.Debug("page started",
		"teacher_type", p.pctx.TeacherType(),
		"semester_selected", gate.SemesterSelected,
		"class_selected", gate.ClassSelected,
	)
}

// OnGlobalFiltersChanged re-applies the host's class and semester
// selection. Safe to call from any goroutine.
func (p *Page) OnGlobalFiltersChanged() {
	p.loop.Post(p.onGlobalFiltersChanged)
}

func (p *Page) onGlobalFiltersChanged() {
	p.vis.Refresh()
	p.form.SyncFromFilters()
}

// EditTest loads test id into the form
func (p *Page) EditTest(ctx context.Context, id int64) <-chan error {
	var done <-chan error
	if err := p.loop.Do(ctx, func() { done = p.gw.LoadForEdit(ctx, id) }); err != nil {
		return failed(err)
	}
	return done
}

// ConfirmDelete deletes test id after asking the user
func (p *Page) ConfirmDelete(ctx context.Context, id int64) <-chan error {
	var done <-chan error
	if err := p.loop.Do(ctx, func() { done = p.gw.DeleteTest(ctx, id) }); err != nil {
		return failed(err)
	}
	return done
}

// ResetForm returns the authoring form to Create mode
func (p *Page) ResetForm(ctx context.Context) error {
	return p.loop.Do(ctx, p.form.Reset)
}

// Mode returns the form mode
func (p *Page) Mode(ctx context.Context) (models.FormMode, error) {
	var mode models.FormMode
	err := p.loop.Do(ctx, func() { mode = p.form.Mode() })
	return mode, err
}

// Submission snapshots the authoring form
func (p *Page) Submission(ctx context.Context) (models.TestSubmission, error) {
	var (
		sub    models.TestSubmission
		subErr error
	)
	if err := p.loop.Do(ctx, func() { sub, subErr = p.form.Submission() }); err != nil {
		return sub, err
	}
	return sub, subErr
}

func (p *Page) wire() {
	b := p.b

	b.On(view.EventChange, view.IDFilterSubject, func(view.Event) {
		p.vis.Refresh()
	})

	b.On(view.EventChange, view.IDGrade, func(view.Event) {
		p.sel.SyncClassFromGrade(cascade.Form)
	})
	b.On(view.EventChange, view.IDFilterGrade, func(view.Event) {
		ready := p.sel.SyncClassFromGrade(cascade.Filter)
		p.loop.Then(ready, func() { p.vis.Refresh() })
	})

	b.On(view.EventChange, view.IDClassName, func(view.Event) {
		p.sel.SyncGradeFromClass(cascade.Form)
	})
	b.On(view.EventChange, view.IDFilterClass, func(view.Event) {
		p.sel.SyncGradeFromClass(cascade.Filter)
		p.vis.Refresh()
	})

	b.On(view.EventClick, view.IDCreateTestsButton, func(view.Event) {
		p.form.TogglePanel()
	})

	b.On(view.EventClick, view.IDDeleteButton, func(view.Event) {
		id, ok := p.form.EditingID()
		if !ok {
			return
		}
		p.gw.DeleteTest(p.ctx, id)
	})

	b.On(view.EventEditRow, "", func(ev view.Event) {
		p.gw.LoadForEdit(p.ctx, ev.TestID)
	})

	b.On(view.EventSubmit, "", func(view.Event) {
		p.form.SyncFromFilters()
	})
}

func clearSelect(s view.Select) {
	if s != nil {
		s.SetValue("")
	}
}

func failed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
