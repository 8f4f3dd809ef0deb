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

package actuator

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// DefaultRelayBaud is the rate LCUS-type USB relay modules listen at.
const DefaultRelayBaud = 9600

const relayStart byte = 0xA0

// Relay drives one channel of a serial USB relay module. Each command is a
// four byte frame: 0xA0, channel, state, and the low byte of their sum.
type Relay struct {
	port    io.WriteCloser
	name    string
	channel byte
}

// NewRelay drives channel (1-based) over an already open port
func NewRelay(port io.WriteCloser, name string, channel byte) (*Relay, error) {
	if channel == 0 {
		return nil, fmt.Errorf("%w: relay channels start at 1", mfrc522.ErrInvalidParameter)
	}
	return &Relay{port: port, name: name, channel: channel}, nil
}

// OpenRelay opens the serial port and switches the channel off
func OpenRelay(portName string, channel byte) (*Relay, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: DefaultRelayBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, mfrc522.NewTransportOpenError("open relay", portName, err)
	}

	relay, err := NewRelay(port, portName, channel)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	if err := relay.SetOutput(false); err != nil {
		_ = port.Close()
		return nil, err
	}
	return relay, nil
}

// RelayFrame returns the command frame for channel and state
func RelayFrame(channel byte, on bool) []byte {
	var state byte
	if on {
		state = 1
	}
	return []byte{relayStart, channel, state, relayStart + channel + state}
}

// SetOutput implements Output
func (r *Relay) SetOutput(on bool) error {
	frame := RelayFrame(r.channel, on)
	n, err := r.port.Write(frame)
	if err != nil {
		return mfrc522.NewTransportWriteError("relay write", r.name, err)
	}
	if n != len(frame) {
		return mfrc522.NewTransportWriteError("relay write", r.name, mfrc522.ErrShortTransfer)
	}
	return nil
}

// Close switches the channel off and closes the port
func (r *Relay) Close() error {
	offErr := r.SetOutput(false)
	if err := r.port.Close(); err != nil {
		return fmt.Errorf("relay close failed: %w", err)
	}
	return offErr
}
