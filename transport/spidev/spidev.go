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

// Package spidev talks to the MFRC522 through the Linux spidev character
// device with raw ioctls. It covers boards whose SPI controller has no
// periph.io host driver but is exposed by the kernel as /dev/spidevB.C.
package spidev

import (
	"errors"
	"fmt"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

const (
	// DefaultSpeedHz matches the clock used by common RC522 wiring
	DefaultSpeedHz = 1_000_000

	// MaxSpeedHz is the datasheet limit for the SPI clock
	MaxSpeedHz = 10_000_000

	traceDepth = 16
)

// ErrUnsupportedPlatform is returned where spidev does not exist
var ErrUnsupportedPlatform = errors.New("spidev is only available on linux")

// Config holds the bus parameters
type Config struct {
	// Device is the character device, e.g. /dev/spidev0.0
	Device string
	// SpeedHz is the SPI clock
	SpeedHz uint32
	// Mode is the SPI mode (0-3); the MFRC522 uses mode 0
	Mode uint8
}

// DefaultConfig returns the configuration for device at the default clock
func DefaultConfig(device string) Config {
	return Config{Device: device, SpeedHz: DefaultSpeedHz}
}

func (c Config) validate() error {
	if c.Device == "" {
		return fmt.Errorf("%w: empty spidev path", mfrc522.ErrInvalidParameter)
	}
	if c.SpeedHz == 0 || c.SpeedHz > MaxSpeedHz {
		return fmt.Errorf("%w: SPI speed %dHz outside (0, %d]", mfrc522.ErrInvalidParameter, c.SpeedHz, MaxSpeedHz)
	}
	if c.Mode > 3 {
		return fmt.Errorf("%w: SPI mode %d", mfrc522.ErrInvalidParameter, c.Mode)
	}
	return nil
}
