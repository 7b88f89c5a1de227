// Package dom is an in-memory page document implementing view.Document.
//
// It mirrors browser select semantics closely enough for the engine: replacing
// options selects the first one and assigning an unknown value clears the
// selection. A Document is not safe for concurrent use; callers confine it to
// the page event loop.
package dom

import (
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/view"
)

type handlerKey struct {
	kind   view.EventKind
	target string
}

// Document is the in-memory page
type Document struct {
	selects map[string]*Select
	inputs  map[string]*Input
	buttons map[string]*Button
	blocks  map[string]*Block
	rows    []*Row
	totals  map[string]*Block

	handlers map[handlerKey][]func(view.Event)

	deferRebuilds bool
	pending       []*Select
}

// New creates an empty document
func New() *Document {
	return &Document{
		selects:  make(map[string]*Select),
		inputs:   make(map[string]*Input),
		buttons:  make(map[string]*Button),
		blocks:   make(map[string]*Block),
		totals:   make(map[string]*Block),
		handlers: make(map[handlerKey][]func(view.Event)),
	}
}

// AddSelect renders a select with the given options; the first is selected
func (d *Document) AddSelect(id string, opts ...view.Option) *Select {
	s := &Select{doc: d, selected: -1}
	s.setOptions(opts)
	d.selects[id] = s
	return s
}

// AddInput renders a text field
func (d *Document) AddInput(id, value string) *Input {
	in := &Input{value: value}
	d.inputs[id] = in
	return in
}

// AddButton renders a visible, enabled button
func (d *Document) AddButton(id, label string) *Button {
	b := &Button{label: label, visible: true}
	d.buttons[id] = b
	return b
}

// AddBlock renders a layout block
func (d *Document) AddBlock(id string, visible bool) *Block {
	b := &Block{visible: visible}
	d.blocks[id] = b
	return b
}

// SetTotals renders the totals row with one empty cell per competency
func (d *Document) SetTotals(competencies []string) {
	d.totals = make(map[string]*Block, len(competencies))
	for _, c := range competencies {
		d.totals[c] = &Block{visible: true}
	}
}

// SetRows re-renders the test list; all rows start visible
func (d *Document) SetRows(rows []models.TestRow) {
	d.rows = make([]*Row, 0, len(rows))
	for _, r := range rows {
		cells := make(map[string]string, len(r.Cells))
		for k, v := range r.Cells {
			cells[k] = v
		}
		d.rows = append(d.rows, &Row{
			id:       r.ID,
			semester: r.Semester,
			class:    r.Class,
			subject:  r.Subject,
			cells:    cells,
			visible:  true,
		})
	}
}

// DeferRebuilds holds option replacements until FlushRebuilds is called
func (d *Document) DeferRebuilds(on bool) {
	d.deferRebuilds = on
}

// FlushRebuilds applies held option replacements and signals their completion
func (d *Document) FlushRebuilds() {
	pending := d.pending
	d.pending = nil
	for _, s := range pending {
		s.flush()
	}
}

// PendingRebuilds returns how many option replacements are being held
func (d *Document) PendingRebuilds() int {
	return len(d.pending)
}

// --- view.Document ---

// Select implements view.Document
func (d *Document) Select(id string) (view.Select, bool) {
	s, ok := d.selects[id]
	if !ok {
		return nil, false
	}
	return s, true
}

// Input implements view.Document
func (d *Document) Input(id string) (view.Input, bool) {
	in, ok := d.inputs[id]
	if !ok {
		return nil, false
	}
	return in, true
}

// Button implements view.Document
func (d *Document) Button(id string) (view.Button, bool) {
	b, ok := d.buttons[id]
	if !ok {
		return nil, false
	}
	return b, true
}

// Block implements view.Document
func (d *Document) Block(id string) (view.Block, bool) {
	b, ok := d.blocks[id]
	if !ok {
		return nil, false
	}
	return b, true
}

// Rows implements view.Document
func (d *Document) Rows() []view.Row {
	out := make([]view.Row, len(d.rows))
	for i, r := range d.rows {
		out[i] = r
	}
	return out
}

// TotalCell implements view.Document
func (d *Document) TotalCell(competency string) (view.Block, bool) {
	c, ok := d.totals[competency]
	if !ok {
		return nil, false
	}
	return c, true
}

// On implements view.Document
func (d *Document) On(kind view.EventKind, target string, fn func(view.Event)) {
	k := handlerKey{kind: kind, target: target}
	d.handlers[k] = append(d.handlers[k], fn)
}

// --- user interactions ---

// Change selects value in select id as a user would and fires change.
// It returns false when the select is absent.
func (d *Document) Change(id, value string) bool {
	s, ok := d.selects[id]
	if !ok {
		return false
	}
	s.SetValue(value)
	d.fire(view.Event{Kind: view.EventChange, Target: id})
	return true
}

// Type sets the value of input id as a user would
func (d *Document) Type(id, value string) bool {
	in, ok := d.inputs[id]
	if !ok {
		return false
	}
	in.value = value
	d.fire(view.Event{Kind: view.EventChange, Target: id})
	return true
}

// Click fires a click on button id; disabled buttons ignore clicks
func (d *Document) Click(id string) bool {
	b, ok := d.buttons[id]
	if !ok || b.disabled {
		return false
	}
	d.fire(view.Event{Kind: view.EventClick, Target: id})
	return true
}

// Submit fires the authoring form submit
func (d *Document) Submit() {
	d.fire(view.Event{Kind: view.EventSubmit})
}

// EditRow fires the edit action of the row for test id
func (d *Document) EditRow(id int64) {
	d.fire(view.Event{Kind: view.EventEditRow, TestID: id})
}

func (d *Document) fire(ev view.Event) {
	for _, fn := range d.handlers[handlerKey{kind: ev.Kind, target: ev.Target}] {
		fn(ev)
	}
}

// --- inspection helpers ---

// SelectByID returns the concrete select for assertions and rendering
func (d *Document) SelectByID(id string) *Select { return d.selects[id] }

// InputByID returns the concrete input
func (d *Document) InputByID(id string) *Input { return d.inputs[id] }

// ButtonByID returns the concrete button
func (d *Document) ButtonByID(id string) *Button { return d.buttons[id] }

// BlockByID returns the concrete block
func (d *Document) BlockByID(id string) *Block { return d.blocks[id] }

// VisibleRowIDs returns the test ids of visible rows in render order
func (d *Document) VisibleRowIDs() []int64 {
	var ids []int64
	for _, r := range d.rows {
		if r.visible {
			ids = append(ids, r.id)
		}
	}
	return ids
}

// Totals returns the rendered totals keyed by competency
func (d *Document) Totals() map[string]string {
	out := make(map[string]string, len(d.totals))
	for k, c := range d.totals {
		out[k] = c.text
	}
	return out
}

// VisibleRows returns the visible rows in render order
func (d *Document) VisibleRows() []*Row {
	var rows []*Row
	for _, r := range d.rows {
		if r.visible {
			rows = append(rows, r)
		}
	}
	return rows
}
