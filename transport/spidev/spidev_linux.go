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

//go:build linux

package spidev

import (
	"fmt"
	"runtime"
	"unsafe"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"golang.org/x/sys/unix"
)

// ioctl request numbers from linux/spi/spidev.h, computed as
// _IOW(SPI_IOC_MAGIC, nr, size) with SPI_IOC_MAGIC 'k'.
const (
	spiIocWrMode        = 0x40016B01 // _IOW('k', 1, __u8)
	spiIocWrBitsPerWord = 0x40016B03 // _IOW('k', 3, __u8)
	spiIocWrMaxSpeedHz  = 0x40046B04 // _IOW('k', 4, __u32)
	spiIocMessage1      = 0x40206B00 // _IOW('k', 0, char[SPI_MSGSIZE(1)])
)

// spiIocTransfer mirrors struct spi_ioc_transfer (32 bytes).
type spiIocTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

// Transport implements mfrc522.Transport on a spidev file descriptor
type Transport struct {
	trace  *mfrc522.TraceBuffer
	config Config
	fd     int
}

// New opens and configures the spidev device
func New(cfg Config) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, mfrc522.NewTransportOpenError("open spidev", cfg.Device, err)
	}

	t := &Transport{
		fd:     fd,
		config: cfg,
		trace:  mfrc522.NewTraceBuffer("spidev", cfg.Device, traceDepth),
	}

	mode := cfg.Mode
	bits := uint8(8)
	speed := cfg.SpeedHz
	setup := []struct {
		name string
		req  uintptr
		arg  unsafe.Pointer
	}{
		{"mode", spiIocWrMode, unsafe.Pointer(&mode)},
		{"bits per word", spiIocWrBitsPerWord, unsafe.Pointer(&bits)},
		{"max speed", spiIocWrMaxSpeedHz, unsafe.Pointer(&speed)},
	}
	for _, s := range setup {
		if err := ioctl(fd, s.req, s.arg); err != nil {
			_ = unix.Close(fd)
			return nil, mfrc522.NewTransportOpenError("spidev set "+s.name, cfg.Device, err)
		}
	}

	mfrc522.Debugf("spidev %s opened: mode %d, %dHz", cfg.Device, cfg.Mode, cfg.SpeedHz)
	return t, nil
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Transfer performs one full-duplex exchange with chip select held for the
// whole frame.
func (t *Transport) Transfer(tx []byte) ([]byte, error) {
	if t.fd < 0 {
		return nil, mfrc522.NewTransportClosedError("Transfer", t.config.Device)
	}
	rx := make([]byte, len(tx))
	if len(tx) == 0 {
		return rx, nil
	}

	xfer := spiIocTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&rx[0]))),
		length:      uint32(len(tx)),
		speedHz:     t.config.SpeedHz,
		bitsPerWord: 8,
	}

	t.trace.RecordTX(tx, "")
	err := ioctl(t.fd, spiIocMessage1, unsafe.Pointer(&xfer))
	runtime.KeepAlive(tx)
	runtime.KeepAlive(rx)
	if err != nil {
		return nil, t.trace.WrapError(mfrc522.NewTransportWriteError("Transfer", t.config.Device, err))
	}
	t.trace.RecordRX(rx, "")
	return rx, nil
}

// Close closes the file descriptor
func (t *Transport) Close() error {
	if t.fd < 0 {
		return nil
	}
	err := unix.Close(t.fd)
	t.fd = -1
	if err != nil {
		return fmt.Errorf("spidev close failed: %w", err)
	}
	return nil
}

// String returns the device path
func (t *Transport) String() string {
	return "spidev:" + t.config.Device
}
