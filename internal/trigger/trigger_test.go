package trigger

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestConsoleFiresPerLine(t *testing.T) {
	src := &Console{In: strings.NewReader("\n\ncancel\nanything\n")}
	var got []Event
	err := src.Run(context.Background(), func(e Event) { got = append(got, e) })
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run = %v, want io.EOF", err)
	}
	want := []Event{Toggle, Toggle, Cancel, Toggle}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestConsoleStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&Console{In: pr}).Run(ctx, func(Event) {})
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("console source did not stop")
	}
}

func TestConsoleDropsInputAfterCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	fired := 0
	done := make(chan error, 1)
	go func() {
		done <- (&Console{In: pr}).Run(ctx, func(Event) {
			mu.Lock()
			fired++
			mu.Unlock()
		})
	}()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}

	// The blocked reader consumes this line and exits without firing.
	if _, err := pw.Write([]byte("\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Fatalf("fired %d events after cancel", fired)
	}
}

func TestHotkeyRejectsBadChord(t *testing.T) {
	src := &Hotkey{Toggle: "ctrl+nope"}
	if err := src.Run(context.Background(), func(Event) {}); err == nil {
		t.Fatal("expected error for invalid chord")
	}
}
