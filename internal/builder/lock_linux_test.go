// SPDX-License-Identifier: MPL-2.0

//go:build linux

package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestAcquireOutputLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.phar.lock")
	lock, err := acquireOutputLock(path)
	if err != nil {
		t.Fatalf("acquireOutputLock() error = %v", err)
	}

	if _, err := acquireOutputLock(path); !errors.Is(err, ErrLocked) {
		t.Errorf("second acquireOutputLock() error = %v, want ErrLocked", err)
	}

	lock.Release()
	lock.Release()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file removed by Release(): %v", err)
	}

	again, err := acquireOutputLock(path)
	if err != nil {
		t.Fatalf("acquireOutputLock() after Release() error = %v", err)
	}
	again.Release()
}

func TestNew_ConcurrentBuildIsRejected(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "app.phar")
	first, err := New(context.Background(), Options{Output: output})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer first.Abort()

	if _, err := New(context.Background(), Options{Output: output}); !errors.Is(err, ErrLocked) {
		t.Errorf("second New() error = %v, want ErrLocked", err)
	}
}

func TestOutputLock_WaiterSeesSameFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.phar.lock")
	holder, err := acquireOutputLock(path)
	if err != nil {
		t.Fatalf("acquireOutputLock() error = %v", err)
	}

	// A build that opened the lock file before the holder finished.
	waiter, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer waiter.Close()

	holder.Release()
	if err := unix.Flock(int(waiter.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Fatalf("Flock() error = %v", err)
	}

	if _, err := acquireOutputLock(path); !errors.Is(err, ErrLocked) {
		t.Errorf("acquireOutputLock() error = %v, want ErrLocked while the waiter holds the lock", err)
	}
}
