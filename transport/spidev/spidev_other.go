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

//go:build !linux

package spidev

import mfrc522 "github.com/ZaparooProject/go-mfrc522"

// Transport is unavailable outside linux
type Transport struct{}

// New always fails outside linux
func New(cfg Config) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return nil, mfrc522.NewTransportOpenError("open spidev", cfg.Device, ErrUnsupportedPlatform)
}

// Transfer always fails outside linux
func (*Transport) Transfer([]byte) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

// Close is a no-op outside linux
func (*Transport) Close() error {
	return nil
}
