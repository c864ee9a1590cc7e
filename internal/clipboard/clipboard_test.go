package clipboard

import (
	"errors"
	"testing"
)

func TestMemoryCopy(t *testing.T) {
	var m Memory
	if err := m.Copy("first"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if err := m.Copy("second"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if m.Text() != "second" || m.Writes() != 2 {
		t.Fatalf("text=%q writes=%d", m.Text(), m.Writes())
	}
}

func TestMemoryCopyError(t *testing.T) {
	want := errors.New("locked")
	m := Memory{Err: want}
	if err := m.Copy("x"); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if m.Writes() != 0 || m.Text() != "" {
		t.Fatalf("failed copy must not change state")
	}
}
