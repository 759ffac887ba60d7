package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type panicRecorder struct {
	values []any
	stacks [][]byte
}

func (p *panicRecorder) hook(value any, stack []byte) {
	p.values = append(p.values, value)
	p.stacks = append(p.stacks, stack)
}

func TestUpdate_PanicGoesToHook(t *testing.T) {
	m, env := sizedModel()
	rec := &panicRecorder{}
	m.onPanic = rec.hook
	env.state.panics = true

	next, cmd := m.Update(TickMsg(time.Now()))

	if len(rec.values) != 1 || rec.values[0] != "reconciler exploded" {
		t.Fatalf("hook values = %v", rec.values)
	}
	if !strings.Contains(string(rec.stacks[0]), "refresh") {
		t.Errorf("stack does not show the panicking frame:\n%s", rec.stacks[0])
	}
	if _, ok := next.(Model); !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg after a panic")
	}
}

func TestView_PanicGoesToHook(t *testing.T) {
	m, _ := sizedModel()
	rec := &panicRecorder{}
	m.onPanic = rec.hook
	m.shelf = nil

	if got := m.View(); got != "" {
		t.Errorf("View() = %q, want empty", got)
	}
	if len(rec.values) != 1 {
		t.Fatalf("hook called %d times, want 1", len(rec.values))
	}
}

func TestUpdate_PanicWithoutHookPropagates(t *testing.T) {
	m, env := sizedModel()
	env.state.panics = true

	defer func() {
		if r := recover(); r != "reconciler exploded" {
			t.Errorf("recovered %v, want the original panic", r)
		}
	}()
	m.Update(TickMsg(time.Now()))
	t.Fatal("Update should have panicked")
}
