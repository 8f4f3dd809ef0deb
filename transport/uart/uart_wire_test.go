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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	virt "github.com/ZaparooProject/go-mfrc522/internal/testing"
)

// errPortClosed is returned when operations are attempted on a closed port
var errPortClosed = errors.New("port is closed")

// MockSerialPort speaks the chip's UART register protocol on top of
// VirtualMFRC522.
type MockSerialPort struct {
	sim          *virt.VirtualMFRC522
	pending      []byte
	written      []byte
	readTimeout  time.Duration
	pendingWrite int // register awaiting its data byte, -1 when none
	badEcho      bool
	silent       bool
	closed       bool
}

// NewMockSerialPort creates a mock serial port backed by the chip simulator
func NewMockSerialPort(sim *virt.VirtualMFRC522) *MockSerialPort {
	return &MockSerialPort{sim: sim, pendingWrite: -1}
}

func (*MockSerialPort) SetMode(_ *serial.Mode) error {
	return nil
}

func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	if m.closed {
		return 0, errPortClosed
	}
	if len(m.pending) == 0 {
		// timeout
		return 0, nil
	}
	n = copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (n int, err error) {
	if m.closed {
		return 0, errPortClosed
	}
	m.written = append(m.written, p...)
	for _, b := range p {
		if err := m.feed(b); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *MockSerialPort) feed(b byte) error {
	if m.pendingWrite >= 0 {
		reg := byte(m.pendingWrite)
		m.pendingWrite = -1
		if _, err := m.sim.Transfer(frame.EncodeWrite(reg, b)); err != nil {
			return err
		}
		m.answer(reg ^ boolByte(m.badEcho))
		return nil
	}
	if b&uartRead == 0 {
		m.pendingWrite = int(b & uartAddress)
		return nil
	}
	rx, err := m.sim.Transfer(frame.EncodeRead(b & uartAddress))
	if err != nil {
		return err
	}
	m.answer(rx[1])
	return nil
}

func (m *MockSerialPort) answer(b byte) {
	if !m.silent {
		m.pending = append(m.pending, b)
	}
}

func boolByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0
}

func (*MockSerialPort) Drain() error {
	return nil
}

func (m *MockSerialPort) ResetInputBuffer() error {
	m.pending = nil
	return nil
}

func (*MockSerialPort) ResetOutputBuffer() error {
	return nil
}

func (*MockSerialPort) SetDTR(_ bool) error {
	return nil
}

func (*MockSerialPort) SetRTS(_ bool) error {
	return nil
}

func (*MockSerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.readTimeout = t
	return nil
}

func (m *MockSerialPort) Close() error {
	m.closed = true
	return nil
}

func (*MockSerialPort) Break(_ time.Duration) error {
	return nil
}

// Verify interface implementation
var _ serial.Port = (*MockSerialPort)(nil)

func newTestTransport(t *testing.T) (*Transport, *MockSerialPort, *virt.VirtualMFRC522) {
	t.Helper()
	sim := virt.NewVirtualMFRC522()
	port := NewMockSerialPort(sim)
	transport, err := NewWithPort(port, "mock://uart")
	require.NoError(t, err)
	return transport, port, sim
}

func TestUART_NewWithPortSetsTimeout(t *testing.T) {
	t.Parallel()

	_, port, _ := newTestTransport(t)
	assert.Equal(t, getReadTimeout(), port.readTimeout)
}

func TestUART_RegisterAccess(t *testing.T) {
	t.Parallel()

	transport, port, sim := newTestTransport(t)
	require.NoError(t, sim.ResetLine().Write(true))

	_, err := transport.Transfer(frame.EncodeWrite(0x14, 0x83))
	require.NoError(t, err)
	assert.Equal(t, byte(0x83), sim.Register(virt.RegTxControl))

	rx, err := transport.Transfer(frame.EncodeRead(0x37))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x92}, rx)

	assert.Equal(t, []byte{0x14, 0x83, 0xB7}, port.written, "unshifted UART address bytes")
}

func TestUART_ReaderDetectsCard(t *testing.T) {
	t.Parallel()

	transport, port, sim := newTestTransport(t)
	reader, err := mfrc522.New(transport, sim.ResetLine())
	require.NoError(t, err)

	sim.PlaceCard(virt.NewVirtualCard([4]byte{0x04, 0xD2, 0x58, 0x0C}))
	uid, err := reader.ReadCardUID()
	require.NoError(t, err)
	assert.Equal(t, "4,210,88,12,130", uid.String())

	require.NoError(t, reader.Close())
	assert.True(t, port.closed)
}

func TestUART_EchoMismatch(t *testing.T) {
	t.Parallel()

	transport, port, sim := newTestTransport(t)
	require.NoError(t, sim.ResetLine().Write(true))
	port.badEcho = true

	_, err := transport.Transfer(frame.EncodeWrite(0x01, 0x00))
	require.ErrorIs(t, err, ErrEchoMismatch)
	require.ErrorIs(t, err, mfrc522.ErrTransportWrite)
	assert.NotNil(t, mfrc522.GetTrace(err))
}

func TestUART_ReadTimeout(t *testing.T) {
	t.Parallel()

	transport, port, sim := newTestTransport(t)
	require.NoError(t, sim.ResetLine().Write(true))
	port.silent = true

	_, err := transport.Transfer(frame.EncodeRead(0x37))
	require.ErrorIs(t, err, mfrc522.ErrTransportRead)
	assert.True(t, mfrc522.IsRetryable(err))
	assert.False(t, mfrc522.IsFatal(err))

	trace := mfrc522.GetTrace(err)
	require.NotNil(t, trace)
	assert.Contains(t, trace.FormatTrace(), "timeout")
}

func TestUART_Close(t *testing.T) {
	t.Parallel()

	transport, port, _ := newTestTransport(t)
	require.NoError(t, transport.Close())
	assert.True(t, port.closed)
	require.NoError(t, transport.Close())

	_, err := transport.Transfer(frame.EncodeRead(0x37))
	require.ErrorIs(t, err, mfrc522.ErrTransportClosed)
	assert.Equal(t, "uart:mock://uart", transport.String())
}

func TestIsInterruptedSystemCall(t *testing.T) {
	t.Parallel()

	assert.False(t, isInterruptedSystemCall(nil))
	assert.True(t, isInterruptedSystemCall(errors.New("read /dev/ttyUSB0: interrupted system call")))
	assert.True(t, isInterruptedSystemCall(errors.New("EINTR")))
	assert.False(t, isInterruptedSystemCall(errors.New("no such device")))
}
