// Package clipboard writes transcripts to the system clipboard and can
// optionally paste them into the focused window.
package clipboard

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// ErrUnsupported is returned when no clipboard utility is available, e.g. a
// Linux box without xclip, xsel or wl-copy.
var ErrUnsupported = errors.New("clipboard not supported on this system")

// System is the OS clipboard.
type System struct {
	// PasteDelay is the pause between the clipboard write and the simulated
	// Ctrl+V, giving the clipboard owner time to settle.
	PasteDelay time.Duration

	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

// Copy replaces the clipboard contents with text.
func (s *System) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Paste sends Ctrl+V (Cmd+V on macOS) to the focused window.
func (s *System) Paste() error {
	s.once.Do(func() {
		s.kb, s.err = keybd_event.NewKeyBonding()
		// uinput needs a moment before the first event on Linux.
		if s.err == nil && runtime.GOOS == "linux" {
			time.Sleep(2 * time.Second)
		}
	})
	if s.err != nil {
		return fmt.Errorf("keyboard: %w", s.err)
	}

	time.Sleep(s.PasteDelay)
	s.kb.Clear()
	if runtime.GOOS == "darwin" {
		s.kb.HasSuper(true)
	} else {
		s.kb.HasCTRL(true)
	}
	s.kb.SetKeys(keybd_event.VK_V)
	return s.kb.Launching()
}

// Memory is an in-process clipboard for tests and headless runs.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
	pastes int
	Err    error
}

func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.text = text
	m.writes++
	return nil
}

func (m *Memory) Paste() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pastes++
	return nil
}

// Text returns the last copied text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns how many successful copies happened.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Pastes returns how many paste requests happened.
func (m *Memory) Pastes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pastes
}
