// Package editgateway loads tests into the form and deletes them through the API.
package editgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/Bisp1999/grading-app/internal/formmode"
	"github.com/Bisp1999/grading-app/internal/models"
)

// DeleteWarning is the confirmation shown before a delete request
const DeleteWarning = "Warning: Deleting this test will also delete any grades that have been entered for this test. Are you sure you want to proceed?"

var (
	// ErrDeclined is returned when the user cancels a delete
	ErrDeclined = errors.New("delete declined")
	// ErrSuperseded is returned by a load that a newer load replaced
	ErrSuperseded = errors.New("load superseded by a newer request")
	// ErrDeleteRejected is returned when the server answers success=false
	ErrDeleteRejected = errors.New("delete rejected")
	// ErrStopped is returned when the event loop is gone before a result lands
	ErrStopped = errors.New("event loop stopped")
)

// TestAPI is the subset of the API client the gateway calls
type TestAPI interface {
	GetTest(ctx context.Context, id int64) (*models.TestRecord, error)
	DeleteTest(ctx context.Context, id int64) (*models.DeleteResult, error)
}

// Notifier shows a blocking message to the user
type Notifier interface {
	Alert(msg string)
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(msg string) bool
}

// Reloader reloads the page after a successful delete. It is called off the
// event loop.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Poster hands work back to the event loop
type Poster interface {
	Post(fn func()) bool
	Then(ready <-chan struct{}, fn func()) <-chan struct{}
}

// Gateway issues remote calls off the loop and applies results on it.
// All methods must be called from the loop goroutine.
type Gateway struct {
	api      TestAPI
	pctx     *models.Context
	form     *formmode.Controller
	notifier Notifier
	confirm  Confirmer
	reloader Reloader
	loop     Poster

	loadSeq    uint64
	cancelLoad context.CancelFunc
}

// Config holds the collaborators of a Gateway
type Config struct {
	API       TestAPI
	Context   *models.Context
	Form      *formmode.Controller
	Notifier  Notifier
	Confirmer Confirmer
	Reloader  Reloader
	Loop      Poster
}

// New creates a gateway
func New(cfg Config) *Gateway {
	return &Gateway{
		api:      cfg.API,
		pctx:     cfg.Context,
		form:     cfg.Form,
		notifier: cfg.Notifier,
		confirm:  cfg.Confirmer,
		reloader: cfg.Reloader,
		loop:     cfg.Loop,
	}
}

// LoadForEdit fetches test id and puts the form in Edit mode for it.
// A load started while another is in flight cancels the older one. The
// returned channel receives the outcome once.
func (g *Gateway) LoadForEdit(ctx context.Context, id int64) <-chan error {
	done := make(chan error, 1)

	if g.cancelLoad != nil {
		g.cancelLoad()
	}
	g.loadSeq++
	seq := g.loadSeq
	reqCtx, cancel := context.WithCancel(ctx)
	g.cancelLoad = cancel

	go func() {
		rec, err := g.api.GetTest(reqCtx, id)
		posted := g.loop.Post(func() {
			g.finishLoad(seq, id, rec, err, done)
		})
		if !posted {
			cancel()
			done <- ErrStopped
		}
	}()

	return done
}

func (g *Gateway) current(seq uint64) bool {
	return seq == g.loadSeq
}

func (g *Gateway) finishLoad(seq uint64, id int64, rec *models.TestRecord, err error, done chan<- error) {
	if !g.current(seq) {
		done <- ErrSuperseded
		return
	}
	g.cancelLoad()
	g.cancelLoad = nil

	if err != nil {
		slog.Error("failed to load test", "test_id", id, "error", err)
		g.alert("Error loading test data: " + err.Error())
		done <- fmt.Errorf("load test %d: %w", id, err)
		return
	}

	fieldErr := g.form.Populate(rec)

	if !g.pctx.IsSpecialist() {
		g.complete(id, fieldErr, done)
		return
	}

	rebuilt, gradeErr := g.form.SelectGrade(rec.Grade)
	g.loop.Then(rebuilt, func() {
		if !g.current(seq) {
			done <- ErrSuperseded
			return
		}
		classErr := g.form.SelectClass(rec.ClassName)
		g.complete(id, multierr.Combine(fieldErr, gradeErr, classErr), done)
	})
}

func (g *Gateway) complete(id int64, fieldErr error, done chan<- error) {
	if fieldErr != nil {
		// The form now holds a partial copy of id; drop any previously
		// loaded record so submit and delete cannot target it.
		g.form.Reset()
		slog.Warn("test loaded with fields that could not be set", "test_id", id, "error", fieldErr)
		done <- fmt.Errorf("populate test %d: %w", id, fieldErr)
		return
	}

	g.form.EnterEdit(id)
	slog.Debug("test loaded for edit", "test_id", id)
	done <- nil
}

// DeleteTest asks for confirmation, deletes test id and reloads the page on
// success. A successful delete returns the form to Create before the reload.
// Nothing is sent when the user declines.
func (g *Gateway) DeleteTest(ctx context.Context, id int64) <-chan error {
	done := make(chan error, 1)

	if g.confirm == nil || !g.confirm.Confirm(DeleteWarning) {
		done <- ErrDeclined
		return done
	}

	go func() {
		res, err := g.api.DeleteTest(ctx, id)
		posted := g.loop.Post(func() {
			g.finishDelete(ctx, id, res, err, done)
		})
		if !posted {
			done <- ErrStopped
		}
	}()

	return done
}

func (g *Gateway) finishDelete(ctx context.Context, id int64, res *models.DeleteResult, err error, done chan<- error) {
	if err != nil {
		slog.Error("failed to delete test", "test_id", id, "error", err)
		g.alert("Error deleting test")
		done <- fmt.Errorf("delete test %d: %w", id, err)
		return
	}

	if res == nil || !res.Success {
		msg := ""
		if res != nil {
			msg = res.Error
		}
		slog.Warn("server refused to delete test", "test_id", id, "error", msg)
		g.alert("Error deleting test: " + msg)
		done <- fmt.Errorf("delete test %d: %w: %s", id, ErrDeleteRejected, msg)
		return
	}

	slog.Info("test deleted", "test_id", id, "message", res.Message)
	g.form.Reset()

	if g.reloader == nil {
		done <- nil
		return
	}
	go func() {
		done <- g.reloader.Reload(ctx)
	}()
}

func (g *Gateway) alert(msg string) {
	if g.notifier != nil {
		g.notifier.Alert(msg)
	}
}
