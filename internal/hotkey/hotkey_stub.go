//go:build !windows

package hotkey

import (
	"context"
	"log/slog"
)

// Register is not supported on non-Windows builds.
func Register(ctx context.Context, bindings []Binding, hook bool, handler func(Action), logger *slog.Logger) error {
	return ErrUnsupported
}
