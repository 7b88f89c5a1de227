package dom

import (
	"github.com/Bisp1999/grading-app/internal/view"
)

// Select is an in-memory dropdown
type Select struct {
	doc      *Document
	options  []view.Option
	selected int
	disabled bool

	pending    []view.Option
	hasPending bool
	waiters    []chan struct{}
}

func (s *Select) setOptions(opts []view.Option) {
	s.options = append([]view.Option(nil), opts...)
	if len(s.options) > 0 {
		s.selected = 0
	} else {
		s.selected = -1
	}
}

func (s *Select) flush() {
	if !s.hasPending {
		return
	}
	s.setOptions(s.pending)
	s.pending = nil
	s.hasPending = false
	for _, ch := range s.waiters {
		close(ch)
	}
	s.waiters = nil
}

// Value implements view.Select
func (s *Select) Value() string {
	if s.selected < 0 || s.selected >= len(s.options) {
		return ""
	}
	return s.options[s.selected].Value
}

// SetValue implements view.Select
func (s *Select) SetValue(v string) bool {
	for i, o := range s.options {
		if o.Value == v {
			s.selected = i
			return true
		}
	}
	s.selected = -1
	return false
}

// Options implements view.Select
func (s *Select) Options() []view.Option {
	return append([]view.Option(nil), s.options...)
}

// Selected implements view.Select
func (s *Select) Selected() (view.Option, bool) {
	if s.selected < 0 || s.selected >= len(s.options) {
		return view.Option{}, false
	}
	return s.options[s.selected], true
}

// ReplaceOptions implements view.Select
func (s *Select) ReplaceOptions(opts []view.Option) <-chan struct{} {
	done := make(chan struct{})
	if s.doc != nil && s.doc.deferRebuilds {
		s.pending = append([]view.Option(nil), opts...)
		s.hasPending = true
		s.waiters = append(s.waiters, done)
		s.doc.pending = append(s.doc.pending, s)
		return done
	}
	s.setOptions(opts)
	close(done)
	return done
}

// Disabled implements view.Select
func (s *Select) Disabled() bool { return s.disabled }

// SetDisabled implements view.Select
func (s *Select) SetDisabled(disabled bool) { s.disabled = disabled }

// Values returns the option values in order
func (s *Select) Values() []string {
	out := make([]string, len(s.options))
	for i, o := range s.options {
		out[i] = o.Value
	}
	return out
}

// Input is an in-memory text field
type Input struct {
	value string
}

// Value implements view.Input
func (in *Input) Value() string { return in.value }

// SetValue implements view.Input
func (in *Input) SetValue(v string) { in.value = v }

// Button is an in-memory button
type Button struct {
	label    string
	visible  bool
	disabled bool
}

// Label implements view.Button
func (b *Button) Label() string { return b.label }

// SetLabel implements view.Button
func (b *Button) SetLabel(label string) { b.label = label }

// Visible implements view.Button
func (b *Button) Visible() bool { return b.visible }

// SetVisible implements view.Button
func (b *Button) SetVisible(visible bool) { b.visible = visible }

// Disabled implements view.Button
func (b *Button) Disabled() bool { return b.disabled }

// SetDisabled implements view.Button
func (b *Button) SetDisabled(disabled bool) { b.disabled = disabled }

// Block is an in-memory layout element
type Block struct {
	visible bool
	text    string
}

// Visible implements view.Block
func (b *Block) Visible() bool { return b.visible }

// SetVisible implements view.Block
func (b *Block) SetVisible(visible bool) { b.visible = visible }

// Text implements view.Block
func (b *Block) Text() string { return b.text }

// SetText implements view.Block
func (b *Block) SetText(text string) { b.text = text }

// Row is an in-memory .test-row
type Row struct {
	id       int64
	semester string
	class    string
	subject  string
	cells    map[string]string
	visible  bool
}

// TestID implements view.Row
func (r *Row) TestID() int64 { return r.id }

// Semester implements view.Row
func (r *Row) Semester() string { return r.semester }

// Class implements view.Row
func (r *Row) Class() string { return r.class }

// Subject implements view.Row
func (r *Row) Subject() string { return r.subject }

// Cell implements view.Row
func (r *Row) Cell(competency string) (string, bool) {
	v, ok := r.cells[competency]
	return v, ok
}

// Visible implements view.Row
func (r *Row) Visible() bool { return r.visible }

// SetVisible implements view.Row
func (r *Row) SetVisible(visible bool) { r.visible = visible }
