//go:build linux

package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ResolveDisplay fills cfg.Display from $DISPLAY when unset and checks that
// a local X server socket exists for it. Remote displays (host:n) are not
// probed.
func ResolveDisplay(cfg *Config) error {
	if cfg.Display == "" {
		cfg.Display = os.Getenv("DISPLAY")
	}
	if cfg.Display == "" {
		return fmt.Errorf("no display: set --display or DISPLAY")
	}
	path, ok := x11Socket(cfg.Display)
	if !ok {
		return nil
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("display %s: %s: %w", cfg.Display, path, err)
	}
	return nil
}

// x11Socket returns the unix socket path of a local display such as ":0"
// or ":1.0".
func x11Socket(display string) (string, bool) {
	if !strings.HasPrefix(display, ":") {
		return "", false
	}
	num := display[1:]
	if i := strings.IndexByte(num, '.'); i >= 0 {
		num = num[:i]
	}
	if _, err := strconv.Atoi(num); err != nil {
		return "", false
	}
	return "/tmp/.X11-unix/X" + num, true
}

var savedTermios *unix.Termios

func SaveTermState() {
	t, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)
	if err == nil {
		savedTermios = t
	}
}

func RestoreTermState() {
	if savedTermios != nil {
		unix.IoctlSetTermios(int(os.Stdin.Fd()), unix.TCSETS, savedTermios)
	}
}
