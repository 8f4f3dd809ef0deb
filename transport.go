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
	"sync"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// Transport is a full-duplex byte exchange on the bus the chip is wired to.
// The SPI backends live in transport/spi (periph.io) and transport/spidev
// (raw spidev ioctl).
type Transport interface {
	// Transfer clocks tx out and returns the len(tx) bytes clocked in
	// during the same exchange.
	Transfer(tx []byte) ([]byte, error)

	// Close releases the bus handle
	Close() error
}

// ResetLine drives the chip's NRSTPD pin. The chip is held in hard power
// down while the line is low.
type ResetLine interface {
	Write(high bool) error
	Close() error
}

// FixedResetLine is a ResetLine for boards that tie NRSTPD high. Writes are
// accepted and ignored.
type FixedResetLine struct{}

// Write implements ResetLine
func (FixedResetLine) Write(bool) error { return nil }

// Close implements ResetLine
func (FixedResetLine) Close() error { return nil }

// Frame is one recorded bus exchange.
type Frame struct {
	TX []byte
	RX []byte
}

// MockTransport provides a register-level mock implementation of Transport
// for testing. Reads are answered from a register file, optionally from a
// per-register queue first; writes update the register file.
type MockTransport struct {
	regs      map[Register]byte
	queued    map[Register][]byte
	writes    map[Register]int
	errorMap  map[Register]error
	frames    []Frame
	mu        sync.Mutex
	connected bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		connected: true,
		regs:      make(map[Register]byte),
		queued:    make(map[Register][]byte),
		writes:    make(map[Register]int),
		errorMap:  make(map[Register]error),
	}
}

// Transfer implements Transport interface
func (m *MockTransport) Transfer(tx []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, NewTransportClosedError("Transfer", "mock")
	}
	if len(tx) < frame.FrameLen {
		return nil, NewTransportWriteError("Transfer", "mock", ErrShortTransfer)
	}

	addr, read := frame.DecodeAddress(tx[0])
	reg := Register(addr)
	if err, exists := m.errorMap[reg]; exists {
		return nil, err
	}

	rx := make([]byte, len(tx))
	if read {
		if q := m.queued[reg]; len(q) > 0 {
			rx[1] = q[0]
			m.queued[reg] = q[1:]
		} else {
			rx[1] = m.regs[reg]
		}
	} else {
		m.regs[reg] = tx[1]
		m.writes[reg]++
	}

	m.frames = append(m.frames, Frame{
		TX: append([]byte(nil), tx...),
		RX: append([]byte(nil), rx...),
	})
	return rx, nil
}

// Close implements Transport interface
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

// Test helper methods

// SetRegister sets the value returned for reads of reg
func (m *MockTransport) SetRegister(reg Register, value byte) {
	m.mu.Lock()
	m.regs[reg] = value
	m.mu.Unlock()
}

// Register returns the last value written to (or set for) reg
func (m *MockTransport) Register(reg Register) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[reg]
}

// QueueReads queues values returned by the next reads of reg before the
// register file value is used again
func (m *MockTransport) QueueReads(reg Register, values ...byte) {
	m.mu.Lock()
	m.queued[reg] = append(m.queued[reg], values...)
	m.mu.Unlock()
}

// SetError configures an error to be returned for any access to reg
func (m *MockTransport) SetError(reg Register, err error) {
	m.mu.Lock()
	m.errorMap[reg] = err
	m.mu.Unlock()
}

// WriteCount returns how many times reg was written
func (m *MockTransport) WriteCount(reg Register) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[reg]
}

// Frames returns a copy of every exchange seen so far
func (m *MockTransport) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Frame, len(m.frames))
	copy(out, m.frames)
	return out
}

// Reset clears recorded frames and write counts
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.frames = nil
	m.writes = make(map[Register]int)
	m.connected = true
	m.mu.Unlock()
}

// IsConnected reports whether Close has been called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// MockResetLine records the levels driven onto a reset line.
type MockResetLine struct {
	err    error
	levels []bool
	mu     sync.Mutex
	closed bool
}

// NewMockResetLine creates a reset line mock
func NewMockResetLine() *MockResetLine {
	return &MockResetLine{}
}

// Write implements ResetLine
func (l *MockResetLine) Write(high bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("reset line closed")
	}
	if l.err != nil {
		return l.err
	}
	l.levels = append(l.levels, high)
	return nil
}

// Close implements ResetLine
func (l *MockResetLine) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

// SetError makes subsequent writes fail
func (l *MockResetLine) SetError(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// Levels returns the levels written so far
func (l *MockResetLine) Levels() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.levels...)
}

// Closed reports whether the line was released
func (l *MockResetLine) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
