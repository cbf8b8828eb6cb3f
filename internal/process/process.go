// Package process starts detached child programs and reaps them.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrEmptyCommand is returned by Spawn for an empty argument vector.
var ErrEmptyCommand = errors.New("empty command")

// Spawn starts argv in a new session and does not wait for it. When display
// is set it replaces DISPLAY in the child's environment. The child's
// standard streams are the null device and it inherits no other
// descriptors.
func Spawn(argv []string, display string) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return 0, ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if display != "" {
		cmd.Env = append(os.Environ(), "DISPLAY="+display)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn %q: %w", argv[0], err)
	}
	pid := cmd.Process.Pid
	// Exit status is collected by the reaper.
	_ = cmd.Process.Release()
	return pid, nil
}

// Reap collects every child that has already exited and returns how many
// there were. It never blocks.
func Reap() int {
	n := 0
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return n
		}
		n++
	}
}

// StartReaper reaps once immediately, then on every SIGCHLD until ctx is
// done.
func StartReaper(ctx context.Context, log *slog.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, unix.SIGCHLD)
	if n := Reap(); n > 0 {
		log.Debug("reaped children left from before startup", "count", n)
	}

	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				if n := Reap(); n > 0 {
					log.Debug("reaped children", "count", n)
				}
			}
		}
	}()
}
