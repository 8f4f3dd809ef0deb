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

// Package gpio provides digital output lines backed by periph.io. The same
// Line drives the reader's NRSTPD pin and the grant indicator.
package gpio

import (
	"fmt"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Line is a GPIO pin configured as an output.
type Line struct {
	pin       gpio.PinIO
	name      string
	activeLow bool
	released  bool
}

// Option configures a Line
type Option func(*Line)

// WithActiveLow inverts the line so Write(true) drives the pin low. Many
// relay boards switch on a low input.
func WithActiveLow() Option {
	return func(l *Line) {
		l.activeLow = true
	}
}

// Open looks the pin up by name ("GPIO73", "P1_22", ...) and drives it to the
// inactive level.
func Open(name string, opts ...Option) (*Line, error) {
	if _, err := host.Init(); err != nil {
		return nil, mfrc522.NewTransportOpenError("gpio host init", name, err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, mfrc522.NewTransportOpenError("gpio open", name, fmt.Errorf("no GPIO pin named %q", name))
	}

	return NewLine(pin, name, opts...)
}

// NewLine configures an already resolved pin as an output at the inactive
// level.
func NewLine(pin gpio.PinIO, name string, opts ...Option) (*Line, error) {
	line := &Line{pin: pin, name: name}
	for _, opt := range opts {
		opt(line)
	}

	if err := line.Write(false); err != nil {
		return nil, mfrc522.NewTransportOpenError("gpio configure", name, err)
	}
	return line, nil
}

// Write drives the line to the active (true) or inactive (false) level.
func (l *Line) Write(active bool) error {
	if l.released {
		return mfrc522.NewTransportClosedError("gpio write", l.name)
	}
	level := gpio.Level(active != l.activeLow)
	if err := l.pin.Out(level); err != nil {
		return mfrc522.NewTransportWriteError("gpio write", l.name, err)
	}
	return nil
}

// Close turns the pin back into a floating input and releases it.
func (l *Line) Close() error {
	if l.released {
		return nil
	}
	l.released = true
	if err := l.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("gpio %s release: %w", l.name, err)
	}
	if err := l.pin.Halt(); err != nil {
		return fmt.Errorf("gpio %s halt: %w", l.name, err)
	}
	return nil
}

// Name returns the pin name the line was opened with.
func (l *Line) Name() string {
	return l.name
}
