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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// UIDLen is the length of a cascade level 1 anticollision answer.
const UIDLen = 5

// UID is a single-size card UID as returned by anticollision: four
// identifier bytes followed by the BCC check byte.
type UID [UIDLen]byte

// Valid reports whether the BCC byte matches the identifier bytes.
func (u UID) Valid() bool {
	return frame.BCC(u[:4]) == u[4]
}

// Validate returns a *ChecksumError when the BCC byte does not match.
func (u UID) Validate() error {
	want := frame.BCC(u[:4])
	if want != u[4] {
		return &ChecksumError{UID: append([]byte(nil), u[:]...), Want: want, Got: u[4]}
	}
	return nil
}

// String returns the comma-joined decimal bytes, e.g. "4,210,88,12,130".
// This is the form handed to authorization and audit collaborators.
func (u UID) String() string {
	parts := make([]string, len(u))
	for i, b := range u {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ",")
}

// Hex returns the identifier bytes as colon-separated hex for logs.
func (u UID) Hex() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X", u[0], u[1], u[2], u[3])
}

// ParseUID parses the comma-joined decimal form produced by String.
func ParseUID(s string) (UID, error) {
	var uid UID
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != UIDLen {
		return uid, fmt.Errorf("%w: uid %q has %d fields, want %d", ErrInvalidParameter, s, len(parts), UIDLen)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return uid, fmt.Errorf("%w: uid %q field %d: %w", ErrInvalidParameter, s, i, err)
		}
		uid[i] = byte(v)
	}
	return uid, nil
}

// NewUID builds a UID from four identifier bytes, appending the BCC.
func NewUID(id [4]byte) UID {
	return UID{id[0], id[1], id[2], id[3], frame.BCC(id[:])}
}
