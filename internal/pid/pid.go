// Package pid guards a sensor pin against a second logger instance.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/dhtlogger/internal/errors"
)

const filePrefix = "dhtlogger-"

// File is a PID file for one sensor pin.
type File struct {
	path string
}

// New returns the PID file for pin inside dir. An empty dir uses the system
// temp directory.
func New(dir, pin string) *File {
	if dir == "" {
		dir = os.TempDir()
	}

	name := filePrefix + strings.ToLower(strings.ReplaceAll(pin, "/", "_")) + ".pid"

	return &File{path: filepath.Join(dir, name)}
}

func (f *File) Path() string {
	return f.path
}

// Acquire writes the current process ID. It fails with already_running when
// the file names another live process; a stale or unreadable file is
// replaced.
func (f *File) Acquire() error {
	errFactory := errors.New()
	self := os.Getpid()

	if owner, ok := f.owner(); ok && owner != self && alive(owner) {
		return errFactory.WithData(errors.ErrAlreadyRunning, owner)
	}

	if err := os.WriteFile(f.path, []byte(strconv.Itoa(self)), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Release removes the PID file. A missing file is not an error.
func (f *File) Release() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func (f *File) owner() (int, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// EPERM means the process exists but belongs to another user.
	err = process.Signal(syscall.Signal(0))

	return err == nil || errors.Is(err, syscall.EPERM)
}
