// Package lockfile provides the advisory lock that keeps two scans from
// running at once. The scanner itself takes no locks; callers wrap a
// scan in Acquire and Release.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock is a held advisory lock.
type Lock struct {
	path string
}

// Acquire takes the lock at path, writing the caller's pid into it. A
// lock whose recorded pid no longer runs is stale and taken over; a
// lock with an unreadable pid is treated the same way.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		owner, readErr := readOwner(path)
		if readErr == nil && processAlive(owner) {
			return nil, fmt.Errorf("another instance is running (pid %d)", owner)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("lock at %s keeps reappearing", path)
}

// Release drops the lock. Safe on a nil lock.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	os.Remove(l.path)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func readOwner(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("no usable pid in lock file")
	}
	return pid, nil
}

// processAlive checks whether pid names a running process. Signal 0
// performs the existence check without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
