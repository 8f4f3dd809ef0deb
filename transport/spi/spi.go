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

// Package spi provides the periph.io SPI transport for the MFRC522
package spi

import (
	"fmt"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultFrequency is the clock used by common RC522 breakout wiring.
	// The chip accepts up to 10MHz.
	DefaultFrequency = 1 * physic.MegaHertz

	// MaxFrequency is the datasheet limit for the SPI clock.
	MaxFrequency = 10 * physic.MegaHertz

	// MSB first, clock idle low, sample on the rising edge
	mode = spi.Mode0

	traceDepth = 16
)

// Transport implements mfrc522.Transport on a periph.io SPI port
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	trace    *mfrc522.TraceBuffer
	portName string
}

// Option configures the transport
type Option func(*config)

type config struct {
	frequency physic.Frequency
}

// WithFrequency sets the SPI clock
func WithFrequency(f physic.Frequency) Option {
	return func(c *config) {
		c.frequency = f
	}
}

// New opens an SPI port by periph name ("/dev/spidev0.0", "SPI0.0", or ""
// for the first port).
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := &config{frequency: DefaultFrequency}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.frequency <= 0 || cfg.frequency > MaxFrequency {
		return nil, fmt.Errorf("%w: SPI frequency %s outside (0, %s]", mfrc522.ErrInvalidParameter, cfg.frequency, MaxFrequency)
	}

	if _, err := host.Init(); err != nil {
		return nil, mfrc522.NewTransportOpenError("periph host init", portName, err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, mfrc522.NewTransportOpenError("open SPI port", portName, err)
	}

	conn, err := port.Connect(cfg.frequency, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, mfrc522.NewTransportOpenError("connect SPI", portName, err)
	}

	mfrc522.Debugf("SPI %s opened at %s", portName, cfg.frequency)

	return &Transport{
		port:     port,
		conn:     conn,
		portName: portName,
		trace:    mfrc522.NewTraceBuffer("SPI", portName, traceDepth),
	}, nil
}

// Transfer performs one full-duplex exchange. A failed exchange carries the
// most recent frames as a wire trace.
func (t *Transport) Transfer(tx []byte) ([]byte, error) {
	if t.conn == nil {
		return nil, mfrc522.NewTransportClosedError("Transfer", t.portName)
	}

	rx := make([]byte, len(tx))
	t.trace.RecordTX(tx, "")
	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, t.trace.WrapError(mfrc522.NewTransportWriteError("Transfer", t.portName, err))
	}
	t.trace.RecordRX(rx, "")
	return rx, nil
}

// Close closes the SPI port
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.conn = nil
	if err != nil {
		return fmt.Errorf("SPI close failed: %w", err)
	}
	return nil
}

// String returns the port name
func (t *Transport) String() string {
	return "spi:" + t.portName
}
