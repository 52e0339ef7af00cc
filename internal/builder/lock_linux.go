// SPDX-License-Identifier: MPL-2.0

//go:build linux

package builder

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// outputLock holds a non-blocking exclusive flock on "<output>.lock" so that
// two builds never write the same archive. The kernel releases the flock when
// the descriptor is closed, including on a crash.
type outputLock struct {
	file *os.File
}

// acquireOutputLock fails with ErrLocked when another process holds the lock.
func acquireOutputLock(path string) (*outputLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &outputLock{file: f}, nil
}

// Release unlocks and closes the lock file. It is safe to call multiple
// times. The file itself stays: removing it would let a build that already
// opened it lock an unlinked inode while another build locks a new file.
func (l *outputLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
