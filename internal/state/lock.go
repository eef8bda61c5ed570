package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/reloquent/schemaforge/internal/config"
)

// LockPath returns the lock file guarding the state file at path.
func LockPath(path string) string {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}
	return path + ".lock"
}

// Lock takes the lock for the state file at path by writing the current
// PID next to it. A lock left by a process that is no longer running is
// taken over. The returned function releases the lock.
func Lock(path string) (func() error, error) {
	lockPath := LockPath(path)

	held, pid, err := IsLocked(path)
	if err != nil {
		return nil, err
	}
	if held && pid != os.Getpid() {
		return nil, fmt.Errorf("state %s is locked by another schemaforge process (PID %d)", path, pid)
	}

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("writing lock: %w", err)
	}

	return func() error {
		err := os.Remove(lockPath)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}, nil
}

// IsLocked reports whether the state file at path is locked by a running
// process, and the PID found in the lock file.
func IsLocked(path string) (bool, int, error) {
	data, err := os.ReadFile(LockPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0, nil
	}
	return isProcessRunning(pid), pid, nil
}

func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
