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
	"github.com/ZaparooProject/go-mfrc522/transport/gpio"
)

// Line is a digital output pin, such as *gpio.Line.
type Line interface {
	Write(active bool) error
	Close() error
}

// LineOutput drives a GPIO line.
type LineOutput struct {
	line Line
}

// NewLineOutput wraps line as an Output
func NewLineOutput(line Line) *LineOutput {
	return &LineOutput{line: line}
}

// OpenGPIO opens the named pin as an Output, inactive at start
func OpenGPIO(name string, activeLow bool) (*LineOutput, error) {
	var opts []gpio.Option
	if activeLow {
		opts = append(opts, gpio.WithActiveLow())
	}
	line, err := gpio.Open(name, opts...)
	if err != nil {
		return nil, err
	}
	return NewLineOutput(line), nil
}

// SetOutput implements Output
func (o *LineOutput) SetOutput(on bool) error {
	return o.line.Write(on)
}

// Close drives the line inactive and releases it
func (o *LineOutput) Close() error {
	_ = o.line.Write(false)
	return o.line.Close()
}
