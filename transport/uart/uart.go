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

// Package uart provides the UART host interface transport for the MFRC522.
//
// Register access follows datasheet section 8.1.3: the host sends an address
// byte with bit 7 set for a read, bits 5..0 holding the register. A read is
// answered with the register value. A write sends the address followed by the
// data byte and the chip acknowledges by echoing the address byte.
package uart

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the chip's baud rate after reset
	DefaultBaudRate = 9600

	uartRead    = 0x80
	uartAddress = 0x3F

	traceDepth = 16
)

// ErrEchoMismatch is returned when a write is not acknowledged with the
// address byte.
var ErrEchoMismatch = errors.New("UART write echo mismatch")

// Transport implements mfrc522.Transport over a serial port.
type Transport struct {
	port     serial.Port
	trace    *mfrc522.TraceBuffer
	portName string
}

// isWindows returns true if running on Windows
func isWindows() bool {
	return runtime.GOOS == "windows"
}

// getReadTimeout returns the per-byte read timeout. Windows drivers deliver
// bytes later than Linux/Mac.
func getReadTimeout() time.Duration {
	if isWindows() {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// New opens portName at baud (DefaultBaudRate when 0), 8N1.
func New(portName string, baud int) (*Transport, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, mfrc522.NewTransportOpenError("open UART", portName, err)
	}

	t, err := NewWithPort(port, portName)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	mfrc522.Debugf("UART %s opened at %d baud", portName, baud)
	return t, nil
}

// NewWithPort wraps an already opened port and sets its read timeout.
func NewWithPort(port serial.Port, name string) (*Transport, error) {
	if err := port.SetReadTimeout(getReadTimeout()); err != nil {
		return nil, mfrc522.NewTransportOpenError("set UART read timeout", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		return nil, mfrc522.NewTransportOpenError("flush UART input", name, err)
	}
	return &Transport{
		port:     port,
		portName: name,
		trace:    mfrc522.NewTraceBuffer("UART", name, traceDepth),
	}, nil
}

// Transfer runs the UART accesses equivalent to one SPI register frame.
func (t *Transport) Transfer(tx []byte) ([]byte, error) {
	if t.port == nil {
		return nil, mfrc522.NewTransportClosedError("Transfer", t.portName)
	}
	if len(tx) < frame.FrameLen {
		return nil, mfrc522.NewTransportWriteError("Transfer", t.portName, mfrc522.ErrShortTransfer)
	}

	rx := make([]byte, len(tx))
	reg, read := frame.DecodeAddress(tx[0])

	if !read {
		for _, v := range tx[1:] {
			if err := t.writeRegister(reg, v); err != nil {
				return nil, t.trace.WrapError(err)
			}
		}
		return rx, nil
	}

	for i := 0; i < len(tx)-1; i++ {
		r, _ := frame.DecodeAddress(tx[i])
		v, err := t.readRegister(r)
		if err != nil {
			return nil, t.trace.WrapError(err)
		}
		rx[i+1] = v
	}
	return rx, nil
}

func (t *Transport) writeRegister(reg, value byte) error {
	addr := reg & uartAddress
	if err := t.write([]byte{addr, value}); err != nil {
		return err
	}
	echo, err := t.readByte()
	if err != nil {
		return err
	}
	if echo != addr {
		return mfrc522.NewTransportWriteError("writeRegister", t.portName,
			fmt.Errorf("%w: sent 0x%02X, got 0x%02X", ErrEchoMismatch, addr, echo))
	}
	return nil
}

func (t *Transport) readRegister(reg byte) (byte, error) {
	if err := t.write([]byte{uartRead | reg&uartAddress}); err != nil {
		return 0, err
	}
	return t.readByte()
}

func (t *Transport) write(b []byte) error {
	t.trace.RecordTX(b, "")
	n, err := t.port.Write(b)
	if err != nil {
		return mfrc522.NewTransportWriteError("write", t.portName, err)
	}
	if n != len(b) {
		return mfrc522.NewTransportWriteError("write", t.portName, mfrc522.ErrShortTransfer)
	}
	return nil
}

// readByte reads one byte; go.bug.st/serial reports a timeout as (0, nil).
func (t *Transport) readByte() (byte, error) {
	var buf [1]byte
	for {
		n, err := t.port.Read(buf[:])
		if err != nil {
			if isInterruptedSystemCall(err) {
				continue
			}
			return 0, mfrc522.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %w", mfrc522.ErrTransportRead, err), mfrc522.ErrorTypeTransient)
		}
		if n == 0 {
			t.trace.RecordRX(nil, "timeout")
			return 0, mfrc522.NewTransportError("read", t.portName, mfrc522.ErrTransportRead, mfrc522.ErrorTypeTimeout)
		}
		t.trace.RecordRX(buf[:], "")
		return buf[0], nil
	}
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// Close closes the serial port
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// String returns the port name
func (t *Transport) String() string {
	return "uart:" + t.portName
}
