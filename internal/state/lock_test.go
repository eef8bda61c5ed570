package state

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestLockRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	release, err := Lock(path)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	held, pid, err := IsLocked(path)
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if !held || pid != os.Getpid() {
		t.Errorf("expected lock held by %d, got held=%v pid=%d", os.Getpid(), held, pid)
	}

	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(LockPath(path)); !os.IsNotExist(err) {
		t.Error("expected lock file removed")
	}
	if err := release(); err != nil {
		t.Errorf("second release should be a no-op: %v", err)
	}
}

func TestLockHeldByOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	// The parent process (the test runner) is alive for the whole test.
	ppid := os.Getppid()
	if err := os.WriteFile(LockPath(path), []byte(strconv.Itoa(ppid)), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Lock(path)
	if err == nil {
		t.Fatal("expected error for a lock held by a running process")
	}
	if !strings.Contains(err.Error(), strconv.Itoa(ppid)) {
		t.Errorf("error should name the PID: %v", err)
	}
}

func TestLockStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(LockPath(path), []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}

	held, _, err := IsLocked(path)
	if err != nil || held {
		t.Fatalf("expected unparseable lock to be stale, held=%v err=%v", held, err)
	}

	release, err := Lock(path)
	if err != nil {
		t.Fatalf("expected stale lock to be taken over: %v", err)
	}
	defer release()

	data, _ := os.ReadFile(LockPath(path))
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock file should hold our PID, got %q", data)
	}
}

func TestIsLockedMissing(t *testing.T) {
	held, pid, err := IsLocked(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil || held || pid != 0 {
		t.Errorf("expected no lock, got held=%v pid=%d err=%v", held, pid, err)
	}
}
