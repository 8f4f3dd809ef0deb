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

// Package i2c provides the I2C host interface transport for the MFRC522.
//
// The driver speaks in SPI-shaped register frames; this transport decodes
// each frame and runs the equivalent I2C register access from datasheet
// section 8.1.4: a write sends the register address followed by the data
// bytes, a read selects the register with a one-byte write and then reads
// the value in a separate transaction.
package i2c

import (
	"fmt"
	"strconv"
	"strings"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the 7-bit address of breakout boards with the
	// address pins strapped to 0101000.
	DefaultAddress = 0x28

	// Max clock frequency in fast mode (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	traceDepth = 16
)

// Transport implements mfrc522.Transport on an I2C bus
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.Bus // Closed on Close when it is an i2c.BusCloser
	trace   *mfrc522.TraceBuffer
	busName string
}

// parseI2CPath splits a detection path into bus and address.
// Accepts "/dev/i2c-1:0x28" or a bare bus name, which uses DefaultAddress.
func parseI2CPath(path string) (bus string, addr uint16, err error) {
	bus, suffix, found := strings.Cut(path, ":")
	if !found {
		return bus, DefaultAddress, nil
	}
	v, err := strconv.ParseUint(suffix, 0, 7)
	if err != nil {
		return "", 0, fmt.Errorf("%w: I2C address %q: %w", mfrc522.ErrInvalidParameter, suffix, err)
	}
	return bus, uint16(v), nil
}

// New opens an I2C bus by periph name ("/dev/i2c-1", "I2C1", or "" for the
// first bus). An address may be appended as "/dev/i2c-1:0x2B".
func New(path string) (*Transport, error) {
	busName, addr, err := parseI2CPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := host.Init(); err != nil {
		return nil, mfrc522.NewTransportOpenError("periph host init", path, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, mfrc522.NewTransportOpenError("open I2C bus", path, err)
	}

	setBusSpeed(bus, path)

	mfrc522.Debugf("I2C %s opened, chip at 0x%02X", busName, addr)
	return NewWithBus(bus, path, addr), nil
}

// setBusSpeed asks for fast-mode clocking. Some adapters cannot change
// speed; the bus then stays at its default and the failure is only logged.
func setBusSpeed(bus i2c.Bus, name string) bool {
	if err := bus.SetSpeed(maxClockFreq); err != nil {
		mfrc522.Debugf("I2C %s: keeping default clock, set speed to %s failed: %v", name, maxClockFreq, err)
		return false
	}
	return true
}

// NewWithBus wraps an already opened bus. name is used in errors and traces.
func NewWithBus(bus i2c.Bus, name string, addr uint16) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		bus:     bus,
		busName: name,
		trace:   mfrc522.NewTraceBuffer("I2C", name, traceDepth),
	}
}

// Transfer runs the I2C accesses equivalent to one SPI register frame and
// returns what the SPI exchange would have clocked in: a zero byte followed
// by one value per read address.
func (t *Transport) Transfer(tx []byte) ([]byte, error) {
	if t.dev == nil {
		return nil, mfrc522.NewTransportClosedError("Transfer", t.busName)
	}
	if len(tx) < frame.FrameLen {
		return nil, mfrc522.NewTransportWriteError("Transfer", t.busName, mfrc522.ErrShortTransfer)
	}

	rx := make([]byte, len(tx))
	reg, read := frame.DecodeAddress(tx[0])
	t.trace.RecordTX(tx, "")

	if !read {
		w := append([]byte{reg}, tx[1:]...)
		if err := t.dev.Tx(w, nil); err != nil {
			return nil, t.trace.WrapError(mfrc522.NewTransportWriteError("Transfer", t.busName, err))
		}
		t.trace.RecordRX(rx, "")
		return rx, nil
	}

	// Each address byte selects the register whose value the next SPI byte
	// would carry; the trailing byte is a dummy.
	for i := 0; i < len(tx)-1; i++ {
		r, _ := frame.DecodeAddress(tx[i])
		v, err := t.readRegister(r)
		if err != nil {
			return nil, t.trace.WrapError(err)
		}
		rx[i+1] = v
	}
	t.trace.RecordRX(rx, "")
	return rx, nil
}

func (t *Transport) readRegister(reg byte) (byte, error) {
	if err := t.dev.Tx([]byte{reg}, nil); err != nil {
		return 0, mfrc522.NewTransportWriteError("select register", t.busName, err)
	}
	var v [1]byte
	if err := t.dev.Tx(nil, v[:]); err != nil {
		return 0, mfrc522.NewTransportWriteError("read register", t.busName, err)
	}
	return v[0], nil
}

// Close releases the bus when this transport opened it
func (t *Transport) Close() error {
	if t.dev == nil {
		return nil
	}
	t.dev = nil
	if closer, ok := t.bus.(i2c.BusCloser); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("I2C close failed: %w", err)
		}
	}
	return nil
}

// String returns the bus name
func (t *Transport) String() string {
	return "i2c:" + t.busName
}
