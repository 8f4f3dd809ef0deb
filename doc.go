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

// Package mfrc522 drives an NXP MFRC522 contactless reader chip.
//
// A Reader owns one Transport (SPI, I2C or UART host interface, see the
// transport sub-packages) and the chip's reset line. It exposes the register
// layer, the ToCard command engine and the ISO 14443A presence and
// cascade-level-1 anticollision exchange:
//
//	transport, err := spidev.New(spidev.DefaultConfig("/dev/spidev0.0"))
//	if err != nil {
//		return err
//	}
//	reader, err := mfrc522.New(transport, mfrc522.FixedResetLine{})
//	if err != nil {
//		return err
//	}
//	defer reader.Close()
//
//	uid, err := reader.ReadCardUID()
//	switch {
//	case mfrc522.IsNoCard(err):
//		// field empty
//	case err != nil:
//		return err
//	default:
//		fmt.Println(uid) // "4,210,88,12,130"
//	}
//
// Only presence and the 4-byte UID are supported; there is no sector
// authentication or multi-card selection. The polling package builds the
// access-control scan loop on top of Reader.
package mfrc522
