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
	"errors"
	"fmt"
)

// atqaBits is the length of a valid REQA/WUPA answer: two full bytes.
const atqaBits = 16

// Request sends a short-frame REQA/WUPA (mode is PICCReqIdl or PICCReqAll)
// and reports whether a card answered with a two-byte ATQA. It returns the
// number of bits received.
func (r *Reader) Request(mode byte) (int, error) {
	if err := r.WriteRegister(BitFramingReg, shortFrameBits); err != nil {
		return 0, err
	}

	result, err := r.ToCard(CmdTransceive, []byte{mode})
	if err != nil {
		return result.Bits, err
	}
	if result.Bits != atqaBits {
		return result.Bits, fmt.Errorf("%w: ATQA was %d bits, want %d", ErrFrameLength, result.Bits, atqaBits)
	}
	return result.Bits, nil
}

// Anticoll runs cascade level 1 anticollision and returns the card UID with
// its BCC byte verified.
func (r *Reader) Anticoll() (UID, error) {
	var uid UID

	if err := r.WriteRegister(BitFramingReg, 0x00); err != nil {
		return uid, err
	}

	result, err := r.ToCard(CmdTransceive, []byte{PICCAnticollCL1, anticollNVB})
	if err != nil {
		return uid, err
	}
	if len(result.Data) != UIDLen {
		return uid, fmt.Errorf("%w: anticollision returned %d bytes, want %d", ErrFrameLength, len(result.Data), UIDLen)
	}

	copy(uid[:], result.Data)
	if err := uid.Validate(); err != nil {
		return uid, err
	}
	return uid, nil
}

// SelectTag is a no-op that always succeeds. Only presence detection and UID
// retrieval are supported, so the card is never moved to ACTIVE.
func (*Reader) SelectTag(UID) error {
	return nil
}

// StopCrypto clears MFCrypto1On so the next card starts unauthenticated.
func (r *Reader) StopCrypto() error {
	return r.ClearBits(Status2Reg, mfCrypto1On)
}

// ReadCardUID runs Request followed by Anticoll. It returns ErrNoTag when no
// card answered the request.
func (r *Reader) ReadCardUID() (UID, error) {
	if _, err := r.Request(PICCReqIdl); err != nil {
		return UID{}, err
	}
	uid, err := r.Anticoll()
	if err != nil {
		return UID{}, fmt.Errorf("anticollision failed: %w", err)
	}
	return uid, nil
}

// IsNoCard reports whether err only means that no card was in the field.
func IsNoCard(err error) bool {
	return errors.Is(err, ErrNoTag)
}
