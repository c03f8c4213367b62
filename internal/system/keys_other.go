//go:build !linux

package system

import "context"

func WatchKeys(ctx context.Context, logger Logger, bindings KeyBindings) {
	if logger != nil {
		logger.Infof("input", "keyboard shortcuts need linux evdev")
	}
}
