// Command testdesk hosts the test authoring page in a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Bisp1999/grading-app/internal/config"
	"github.com/Bisp1999/grading-app/internal/editgateway"
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/page"
	"github.com/Bisp1999/grading-app/internal/view"
	"github.com/Bisp1999/grading-app/internal/view/dom"
	"github.com/Bisp1999/grading-app/pkg/client"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.NewClient(cfg.Client.BaseURL,
		client.WithAPIKey(cfg.Client.APIKey),
		client.WithTimeout(cfg.Client.Timeout),
	)

	if err := run(ctx, cfg, api); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("testdesk failed", "error", err)
		os.Exit(1)
	}
}

// desk is the terminal host around one page
type desk struct {
	api  *client.Client
	in   *bufio.Scanner
	pctx *models.Context
	doc  *dom.Document
	page *page.Page
	bus  *page.FilterBus
}

func run(ctx context.Context, cfg *config.Config, api *client.Client) error {
	data, err := api.GetPageContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to load page context: %w", err)
	}

	d := &desk{
		api:  api,
		in:   bufio.NewScanner(os.Stdin),
		pctx: models.NewContext(*data),
		bus:  page.NewFilterBus(),
	}
	d.doc = dom.Render(d.pctx, nil)
	d.page = page.New(d.pctx, d.doc, page.Deps{
		API:        api,
		Notifier:   d,
		Confirmer:  d,
		Reloader:   d,
		Events:     d.bus,
		GraceDelay: cfg.Page.GraceDelay,
	})

	loopErr := make(chan error, 1)
	go func() { loopErr <- d.page.Run(ctx) }()

	if err := d.page.Start(ctx); err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Test authoring"), dimStyle.Render("type 'help' for commands"))
	d.show(ctx)

	for {
		fmt.Print(promptStyle.Render("> "))
		if !d.in.Scan() {
			return d.in.Err()
		}
		quit, err := d.exec(ctx, strings.Fields(d.in.Text()))
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
		}
		if quit {
			return nil
		}

		select {
		case err := <-loopErr:
			return err
		default:
		}
	}
}

func (d *desk) exec(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Println(helpText)
	case "show":
		d.show(ctx)
	case "semester":
		return false, d.setGlobal(ctx, view.IDGlobalSemesterFilter, rest(args))
	case "class":
		return false, d.setGlobal(ctx, view.IDGlobalClassFilter, rest(args))
	case "set":
		if len(args) < 2 {
			return false, errors.New("usage: set <field> <value>")
		}
		if err := d.set(ctx, args[1], strings.Join(args[2:], " ")); err != nil {
			return false, err
		}
		d.show(ctx)
	case "toggle":
		if err := d.page.Do(ctx, func() { d.doc.Click(view.IDCreateTestsButton) }); err != nil {
			return false, err
		}
		d.show(ctx)
	case "edit":
		id, err := parseID(args)
		if err != nil {
			return false, err
		}
		if err := <-d.page.EditTest(ctx, id); err != nil {
			slog.Debug("edit did not complete", "test_id", id, "error", err)
		}
		d.show(ctx)
	case "delete":
		return false, d.delete(ctx)
	case "save":
		return false, d.save(ctx)
	default:
		return false, fmt.Errorf("unknown command %q", args[0])
	}
	return false, nil
}

// setGlobal changes a host filter, refetches the rows and notifies the page
func (d *desk) setGlobal(ctx context.Context, id, value string) error {
	var ok bool
	if err := d.page.Do(ctx, func() {
		if s := d.doc.SelectByID(id); s != nil {
			ok = s.SetValue(value)
		}
	}); err != nil {
		return err
	}
	if !ok && value != "" {
		return fmt.Errorf("%q is not an option of %s", value, id)
	}

	if err := d.Reload(ctx); err != nil {
		return err
	}
	d.show(ctx)
	return nil
}

func (d *desk) set(ctx context.Context, id, value string) error {
	var fieldErr error
	err := d.page.Do(ctx, func() {
		switch {
		case d.doc.SelectByID(id) != nil:
			d.doc.Change(id, value)
		case d.doc.InputByID(id) != nil:
			d.doc.Type(id, value)
		default:
			fieldErr = fmt.Errorf("no field %q", id)
		}
	})
	if err != nil {
		return err
	}
	return fieldErr
}

func (d *desk) delete(ctx context.Context) error {
	id, err := d.editingID(ctx)
	if err != nil {
		return err
	}

	err = <-d.page.ConfirmDelete(ctx, id)
	if errors.Is(err, editgateway.ErrDeclined) {
		return nil
	}
	if err == nil {
		fmt.Println(okStyle.Render("Test deleted"))
		d.show(ctx)
	}
	return nil
}

func (d *desk) editingID(ctx context.Context) (int64, error) {
	mode, err := d.page.Mode(ctx)
	if err != nil {
		return 0, err
	}
	if !mode.IsEdit() {
		return 0, errors.New("no test loaded; use 'edit <id>' first")
	}
	return mode.TestID, nil
}

func (d *desk) save(ctx context.Context) error {
	if err := d.page.Do(ctx, d.doc.Submit); err != nil {
		return err
	}

	sub, err := d.page.Submission(ctx)
	if err != nil {
		return err
	}

	id, err := d.api.SaveTest(ctx, sub)
	if err != nil {
		return fmt.Errorf("error saving test: %w", err)
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("Test %d saved", id)))

	if err := d.page.ResetForm(ctx); err != nil {
		return err
	}
	if err := d.Reload(ctx); err != nil {
		return err
	}
	d.show(ctx)
	return nil
}

// Alert implements editgateway.Notifier
func (d *desk) Alert(msg string) {
	fmt.Println(errorStyle.Render(msg))
}

// Confirm implements editgateway.Confirmer
func (d *desk) Confirm(msg string) bool {
	fmt.Println(warnStyle.Render(msg))
	fmt.Print(promptStyle.Render("[y/N] "))
	if !d.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(d.in.Text()))
	return answer == "y" || answer == "yes"
}

// Reload implements editgateway.Reloader. It refetches the tests of the
// selected semester and re-renders the rows.
func (d *desk) Reload(ctx context.Context) error {
	var semester string
	if err := d.page.Do(ctx, func() {
		semester = d.doc.SelectByID(view.IDGlobalSemesterFilter).Value()
	}); err != nil {
		return err
	}

	var rows []models.TestRow
	if semester != "" {
		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		tests, err := d.api.ListTests(reqCtx, semester, "", "")
		if err != nil {
			return fmt.Errorf("failed to load tests: %w", err)
		}
		for _, rec := range tests {
			if rec.Semester == "" {
				rec.Semester = semester
			}
			if d.pctx.IsHomeroom() && rec.ClassName == "" {
				rec.ClassName = d.pctx.HomeroomClassName()
			}
			rows = append(rows, models.RowFromRecord(rec, d.pctx.Competencies()))
		}
	}

	if err := d.page.Do(ctx, func() { d.doc.SetRows(rows) }); err != nil {
		return err
	}
	d.bus.Publish()
	return nil
}

func rest(args []string) string {
	return strings.Join(args[1:], " ")
}

func parseID(args []string) (int64, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: %s <id>", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid test id %q", args[1])
	}
	return id, nil
}

const helpText = `commands:
  semester <name>      choose the semester (host filter)
  class <name>         choose the class (host filter, specialist)
  set <field> <value>  change a form or filter field by id
  toggle               show or hide the authoring form
  edit <id>            load a test into the form
  delete               delete the loaded test
  save                 create or update from the form
  show                 redraw the page
  quit`
