// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package i2c

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	virt "github.com/ZaparooProject/go-mfrc522/internal/testing"
)

var errBusFault = errors.New("arbitration lost")

// MockI2CBus implements i2c.Bus backed by VirtualMFRC522, turning I2C
// register accesses back into SPI frames for the simulator.
type MockI2CBus struct {
	sim      *virt.VirtualMFRC522
	failOn   error
	speedErr error
	speed    physic.Frequency
	txs      [][]byte
	addr     uint16
	selected byte
	closed   bool
}

// NewMockI2CBus creates a mock bus answering at addr
func NewMockI2CBus(sim *virt.VirtualMFRC522, addr uint16) *MockI2CBus {
	return &MockI2CBus{sim: sim, addr: addr}
}

// Tx implements i2c.Bus
func (m *MockI2CBus) Tx(addr uint16, w, r []byte) error {
	if m.closed {
		return errors.New("bus closed")
	}
	if m.failOn != nil {
		return m.failOn
	}
	if addr != m.addr {
		return errors.New("no ACK from address")
	}
	m.txs = append(m.txs, append([]byte(nil), w...))

	switch {
	case len(w) == 1 && len(r) == 0:
		m.selected = w[0]
	case len(w) > 1:
		for _, v := range w[1:] {
			if _, err := m.sim.Transfer(frame.EncodeWrite(w[0], v)); err != nil {
				return err
			}
		}
	case len(w) == 0:
		for i := range r {
			rx, err := m.sim.Transfer(frame.EncodeRead(m.selected))
			if err != nil {
				return err
			}
			r[i] = rx[1]
		}
	}
	return nil
}

// SetSpeed implements i2c.Bus, recording the requested frequency.
func (m *MockI2CBus) SetSpeed(f physic.Frequency) error {
	if m.speedErr != nil {
		return m.speedErr
	}
	m.speed = f
	return nil
}

// Close closes the mock bus.
func (m *MockI2CBus) Close() error {
	m.closed = true
	return nil
}

// String returns the bus name.
func (*MockI2CBus) String() string {
	return "mock://i2c"
}

var _ i2c.BusCloser = (*MockI2CBus)(nil)

func newTestI2CTransport(t *testing.T) (*Transport, *MockI2CBus, *virt.VirtualMFRC522) {
	t.Helper()
	sim := virt.NewVirtualMFRC522()
	bus := NewMockI2CBus(sim, DefaultAddress)
	return NewWithBus(bus, "mock://i2c", DefaultAddress), bus, sim
}

func TestParseI2CPath(t *testing.T) {
	t.Parallel()

	bus, addr, err := parseI2CPath("/dev/i2c-1")
	require.NoError(t, err)
	assert.Equal(t, "/dev/i2c-1", bus)
	assert.Equal(t, uint16(DefaultAddress), addr)

	bus, addr, err = parseI2CPath("/dev/i2c-1:0x2B")
	require.NoError(t, err)
	assert.Equal(t, "/dev/i2c-1", bus)
	assert.Equal(t, uint16(0x2B), addr)

	_, _, err = parseI2CPath("/dev/i2c-1:0x80")
	require.ErrorIs(t, err, mfrc522.ErrInvalidParameter)
	_, _, err = parseI2CPath("/dev/i2c-1:chip")
	require.ErrorIs(t, err, mfrc522.ErrInvalidParameter)
}

func TestI2C_RegisterAccess(t *testing.T) {
	t.Parallel()

	transport, bus, sim := newTestI2CTransport(t)
	require.NoError(t, sim.ResetLine().Write(true))

	_, err := transport.Transfer(frame.EncodeWrite(0x14, 0x83))
	require.NoError(t, err)
	assert.Equal(t, byte(0x83), sim.Register(virt.RegTxControl))
	assert.Equal(t, []byte{0x14, 0x83}, bus.txs[0], "plain register address on I2C")

	rx, err := transport.Transfer(frame.EncodeRead(0x37))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x92}, rx)
}

func TestI2C_ReaderDetectsCard(t *testing.T) {
	t.Parallel()

	transport, _, sim := newTestI2CTransport(t)
	reader, err := mfrc522.New(transport, sim.ResetLine())
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	sim.PlaceCard(virt.NewVirtualCard([4]byte{0x04, 0xD2, 0x58, 0x0C}))
	uid, err := reader.ReadCardUID()
	require.NoError(t, err)
	assert.Equal(t, "4,210,88,12,130", uid.String())
}

func TestI2C_BusErrorCarriesTrace(t *testing.T) {
	t.Parallel()

	transport, bus, sim := newTestI2CTransport(t)
	require.NoError(t, sim.ResetLine().Write(true))
	_, err := transport.Transfer(frame.EncodeRead(0x37))
	require.NoError(t, err)

	bus.failOn = errBusFault
	_, err = transport.Transfer(frame.EncodeRead(0x04))
	require.ErrorIs(t, err, errBusFault)
	require.ErrorIs(t, err, mfrc522.ErrTransportWrite)

	trace := mfrc522.GetTrace(err)
	require.NotNil(t, trace)
	assert.NotEmpty(t, trace.Trace)
}

func TestI2C_WrongAddress(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualMFRC522()
	transport := NewWithBus(NewMockI2CBus(sim, 0x2B), "mock://i2c", DefaultAddress)

	_, err := transport.Transfer(frame.EncodeRead(0x37))
	require.Error(t, err)
	assert.False(t, mfrc522.IsFatal(err))
}

func TestI2C_ShortFrame(t *testing.T) {
	t.Parallel()

	transport, _, _ := newTestI2CTransport(t)
	_, err := transport.Transfer([]byte{0x6E})
	require.ErrorIs(t, err, mfrc522.ErrShortTransfer)
}

func TestI2C_Close(t *testing.T) {
	t.Parallel()

	transport, bus, _ := newTestI2CTransport(t)
	require.NoError(t, transport.Close())
	assert.True(t, bus.closed)
	require.NoError(t, transport.Close(), "second close is a no-op")

	_, err := transport.Transfer(frame.EncodeRead(0x37))
	require.ErrorIs(t, err, mfrc522.ErrTransportClosed)
	assert.Equal(t, "i2c:mock://i2c", transport.String())
}

func TestSetBusSpeed(t *testing.T) {
	t.Parallel()

	bus := NewMockI2CBus(virt.NewVirtualMFRC522(), DefaultAddress)
	assert.True(t, setBusSpeed(bus, "mock"))
	assert.Equal(t, 400*physic.KiloHertz, bus.speed)
}

func TestSetBusSpeed_Unsupported(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualMFRC522()
	require.NoError(t, sim.ResetLine().Write(true))
	bus := NewMockI2CBus(sim, DefaultAddress)
	bus.speedErr = errors.New("speed change not supported")
	assert.False(t, setBusSpeed(bus, "mock"))
	assert.Zero(t, bus.speed)

	// The bus is still usable at its default speed.
	tr := NewWithBus(bus, "mock", DefaultAddress)
	rx, err := tr.Transfer(frame.EncodeRead(0x37))
	require.NoError(t, err)
	assert.Equal(t, mfrc522.VersionMFRC522v2, rx[1])
}
