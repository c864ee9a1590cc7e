//go:build windows

package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procRegisterHotKey      = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey    = user32.NewProc("UnregisterHotKey")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	wmHotkey      = 0x0312
	wmQuit        = 0x0012
	modNoRepeat   = 0x4000
	whKeyboardLL  = 13
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	llkhfInjected = 0x10
	vkShift       = 0x10
	vkControl     = 0x11
	vkMenu        = 0x12
	vkLWin        = 0x5B
	vkRWin        = 0x5C
)

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

// Register installs the bindings and returns once they are active. Events
// are delivered to handler until ctx is cancelled, at which point the
// hotkeys are released.
func Register(ctx context.Context, bindings []Binding, hook bool, handler func(Action), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "hotkey")
	if len(bindings) == 0 {
		return errors.New("no hotkeys to register")
	}

	ready := make(chan error, 1)
	var threadID uintptr
	run := registerLoop
	if hook {
		run = hookLoop
	}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		threadID, _, _ = procGetCurrentThreadId.Call()
		run(bindings, handler, ready, logger)
	}()

	select {
	case err := <-ready:
		if err != nil {
			return err
		}
	case <-time.After(2 * time.Second):
		// The loop may still come up; tear it down once it does so its
		// registrations do not outlive this call.
		go func() {
			if err := <-ready; err == nil {
				procPostThreadMessageW.Call(threadID, wmQuit, 0, 0)
			}
		}()
		return errors.New("timeout registering hotkeys")
	}

	go func() {
		<-ctx.Done()
		procPostThreadMessageW.Call(threadID, wmQuit, 0, 0)
	}()
	return nil
}

// pump runs the message loop until WM_QUIT or an error.
func pump(onMsg func(*winMsg), logger *slog.Logger) {
	var msg winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			logger.Error("GetMessageW failed; hotkeys disabled")
			return
		case 0:
			return
		}
		if onMsg != nil {
			onMsg(&msg)
		}
	}
}

func registerLoop(bindings []Binding, handler func(Action), ready chan<- error, logger *slog.Logger) {
	for i, b := range bindings {
		id := uintptr(b.Action)
		r, _, _ := procRegisterHotKey.Call(0, id, uintptr(uint32(b.Chord.Mods)|modNoRepeat), uintptr(b.Chord.VK))
		if r == 0 {
			for _, prev := range bindings[:i] {
				procUnregisterHotKey.Call(0, uintptr(prev.Action))
			}
			ready <- fmt.Errorf("RegisterHotKey failed for %q (already in use?)", b.Chord.Spec)
			return
		}
		logger.Debug("hotkey registered", "action", b.Action, "chord", b.Chord.Spec, "mods", fmt.Sprintf("0x%X", b.Chord.Mods), "vk", fmt.Sprintf("0x%X", b.Chord.VK))
	}
	ready <- nil

	pump(func(msg *winMsg) {
		if msg.Message == wmHotkey {
			handler(Action(msg.WParam))
		}
	}, logger)

	for _, b := range bindings {
		procUnregisterHotKey.Call(0, uintptr(b.Action))
	}
	logger.Debug("hotkeys unregistered")
}

type kbdLLHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

func keyDown(vk uint32) bool {
	st, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return st&0x8000 != 0
}

func modsHeld(required Modifier) bool {
	if required&ModCtrl != 0 && !keyDown(vkControl) {
		return false
	}
	if required&ModAlt != 0 && !keyDown(vkMenu) {
		return false
	}
	if required&ModShift != 0 && !keyDown(vkShift) {
		return false
	}
	if required&ModWin != 0 && !keyDown(vkLWin) && !keyDown(vkRWin) {
		return false
	}
	return true
}

// hookLoop installs a WH_KEYBOARD_LL hook. Matching key presses are
// swallowed, including their key-up, so the focused app never sees them.
func hookLoop(bindings []Binding, handler func(Action), ready chan<- error, logger *slog.Logger) {
	lookup := make(map[uint32][]Binding)
	for _, b := range bindings {
		lookup[b.Chord.VK] = append(lookup[b.Chord.VK], b)
	}
	swallowed := make(map[uint32]bool)

	callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) < 0 {
			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		}
		k := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		if k.flags&llkhfInjected == 0 {
			switch uint32(wParam) {
			case wmKeyDown, wmSysKeyDown:
				for _, b := range lookup[k.vkCode] {
					if modsHeld(b.Chord.Mods) {
						if swallowed[k.vkCode] {
							// auto-repeat
							return 1
						}
						swallowed[k.vkCode] = true
						go handler(b.Action)
						return 1
					}
				}
			case wmKeyUp, wmSysKeyUp:
				if swallowed[k.vkCode] {
					delete(swallowed, k.vkCode)
					return 1
				}
			}
		}
		ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})

	h, _, _ := procSetWindowsHookExW.Call(whKeyboardLL, callback, 0, 0)
	if h == 0 {
		ready <- errors.New("SetWindowsHookExW failed")
		return
	}
	logger.Debug("low-level keyboard hook installed", "bindings", len(bindings))
	ready <- nil

	pump(nil, logger)

	procUnhookWindowsHookEx.Call(h)
	logger.Debug("low-level keyboard hook removed")
}
