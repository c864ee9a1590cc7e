// Package trigger turns user input into session events.
package trigger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"voiceclip/internal/hotkey"
)

// Event is what the user asked for.
type Event int

const (
	Toggle Event = iota + 1
	Cancel
)

func (e Event) String() string {
	switch e {
	case Toggle:
		return "toggle"
	case Cancel:
		return "cancel"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Source delivers events to fire until ctx is cancelled or input ends.
type Source interface {
	Run(ctx context.Context, fire func(Event)) error
}

// Hotkey listens for global hotkeys.
type Hotkey struct {
	Toggle string
	Cancel string
	// Hook uses a low-level keyboard hook instead of RegisterHotKey.
	Hook   bool
	Logger *slog.Logger
}

func (h *Hotkey) Run(ctx context.Context, fire func(Event)) error {
	bindings, err := hotkey.Bindings(h.Toggle, h.Cancel)
	if err != nil {
		return err
	}
	err = hotkey.Register(ctx, bindings, h.Hook, func(a hotkey.Action) {
		switch a {
		case hotkey.ActionToggle:
			fire(Toggle)
		case hotkey.ActionCancel:
			fire(Cancel)
		}
	}, h.Logger)
	if err != nil {
		return fmt.Errorf("register hotkeys: %w", err)
	}
	<-ctx.Done()
	return nil
}

// Console reads commands from a line-oriented reader, normally stdin. An
// empty line toggles; "c" or "cancel" discards the current recording.
type Console struct {
	In io.Reader
}

// Run returns when ctx is done or the reader is exhausted. A read already in
// progress is not interrupted, so the reading goroutine stays blocked in Scan
// until In yields data or is closed; it discards anything it reads after ctx
// is done. For stdin this lasts until process exit.
func (c *Console) Run(ctx context.Context, fire func(Event)) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read console: %w", err)
			}
			return io.EOF
		case line := <-lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "c", "cancel":
				fire(Cancel)
			default:
				fire(Toggle)
			}
		}
	}
}
