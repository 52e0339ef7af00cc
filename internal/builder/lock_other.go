// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package builder

// acquireOutputLock is a no-op outside Linux; concurrent builds of the same
// output are not detected there.
func acquireOutputLock(string) (*outputLock, error) {
	return &outputLock{}, nil
}

// outputLock is the non-Linux stub.
type outputLock struct{}

// Release is a no-op on non-Linux platforms.
func (l *outputLock) Release() {}
