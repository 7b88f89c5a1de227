package dom

import (
	"testing"

	"github.com/Bisp1999/grading-app/internal/view"
)

func TestDeferredRebuild(t *testing.T) {
	d := New()
	s := d.AddSelect("class_name", view.Option{Value: "", Label: "Select Class"}, view.Option{Value: "3A", Label: "3A"})
	d.DeferRebuilds(true)

	done := s.ReplaceOptions([]view.Option{{Value: ""}, {Value: "4A"}})
	if d.PendingRebuilds() != 1 {
		t.Fatalf("expected one held rebuild, got %d", d.PendingRebuilds())
	}
	if s.SetValue("4A") {
		t.Error("held options must not be selectable yet")
	}
	select {
	case <-done:
		t.Fatal("rebuild signalled before flush")
	default:
	}

	d.FlushRebuilds()
	select {
	case <-done:
	default:
		t.Fatal("rebuild not signalled after flush")
	}
	if !s.SetValue("4A") || d.PendingRebuilds() != 0 {
		t.Error("expected new options after flush")
	}
}

func TestClickIgnoresDisabledButton(t *testing.T) {
	d := New()
	b := d.AddButton("createTestsBtn", "Create Tests")

	clicks := 0
	d.On(view.EventClick, "createTestsBtn", func(view.Event) { clicks++ })

	b.SetDisabled(true)
	d.Click("createTestsBtn")
	b.SetDisabled(false)
	d.Click("createTestsBtn")

	if clicks != 1 {
		t.Errorf("expected 1 click, got %d", clicks)
	}
}

func TestSetValueRejectsUnknown(t *testing.T) {
	d := New()
	s := d.AddSelect("grade", view.Option{Value: ""}, view.Option{Value: "3"})

	if s.SetValue("9") {
		t.Error("unknown value must be rejected")
	}
	if s.Value() != "" {
		t.Errorf("expected no selection, got %q", s.Value())
	}
}
