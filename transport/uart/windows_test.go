// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package uart

import (
	"runtime"
	"testing"
	"time"
)

// TestWindowsPlatformDetection tests Windows platform detection utility
func TestWindowsPlatformDetection(t *testing.T) {
	t.Parallel()

	if isWindows() != (runtime.GOOS == "windows") {
		t.Errorf("isWindows() = %v on %s", isWindows(), runtime.GOOS)
	}
}

// TestReadTimeout tests the platform specific read timeout
func TestReadTimeout(t *testing.T) {
	t.Parallel()

	want := 50 * time.Millisecond
	if runtime.GOOS == "windows" {
		want = 100 * time.Millisecond
	}
	if got := getReadTimeout(); got != want {
		t.Errorf("getReadTimeout() = %v, want %v", got, want)
	}
}
