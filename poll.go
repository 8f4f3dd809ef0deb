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

package mfrc522

// BoundedPoll repeats a check a fixed number of times. It bounds waiting by
// iteration count rather than wall-clock time so a simulated chip produces
// the same outcome on every run.
type BoundedPoll struct {
	// Step runs between iterations. Nil means spin without pausing.
	Step func()
	// Limit is the number of checks allowed. Values <= 0 mean DefaultPollLimit.
	Limit int
}

// Run calls check until it reports done, returns an error, or the limit is
// used up. It returns the iterations left after the last check; zero means
// the poll ran out, even when the final check reported done.
func (p BoundedPoll) Run(check func() (bool, error)) (int, error) {
	remaining := p.Limit
	if remaining <= 0 {
		remaining = DefaultPollLimit
	}

	for {
		done, err := check()
		if err != nil {
			return remaining, err
		}
		remaining--
		if remaining == 0 || done {
			return remaining, nil
		}
		if p.Step != nil {
			p.Step()
		}
	}
}
