//go:build linux

package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WatchKeys reads every evdev device under /dev/input and runs the matching
// binding on key press until ctx ends. Without input devices it logs and
// returns.
func WatchKeys(ctx context.Context, logger Logger, bindings KeyBindings) {
	if len(bindings) == 0 {
		return
	}
	tvSize := binary.Size(unix.Timeval{})

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		if logger != nil {
			logger.Infof("input", "no evdev devices found, keyboard shortcuts disabled")
		}
		return
	}

	for _, path := range paths {
		go watchDevice(ctx, path, tvSize, bindings)
	}
}

func watchDevice(ctx context.Context, path string, tvSize int, bindings KeyBindings) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			// Device went away.
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		bindings.dispatch(keyPresses(buf[:n], tvSize))
	}
}
