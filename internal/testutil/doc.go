// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers build project trees on disk (RealTempDir, WriteTree), read
// results back (MustReadFile) and pin archive timestamps (FakeClock).
package testutil
