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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// ReaderConfig contains configuration options for the Reader
type ReaderConfig struct {
	// PollStep runs between completion polls in ToCard
	PollStep func()
	// PollLimit bounds the completion poll in ToCard
	PollLimit int
	// SkipInit leaves the chip registers untouched in New
	SkipInit bool
}

// DefaultReaderConfig returns default reader configuration
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		PollLimit: DefaultPollLimit,
	}
}

// Option is a functional option for configuring a Reader
type Option func(*Reader) error

// WithPollLimit sets the completion poll bound used by ToCard
func WithPollLimit(limit int) Option {
	return func(r *Reader) error {
		if limit <= 0 {
			return fmt.Errorf("%w: poll limit must be positive, got %d", ErrInvalidParameter, limit)
		}
		r.config.PollLimit = limit
		return nil
	}
}

// WithPollStep sets the function run between completion polls. Tests pass a
// counter; hardware setups may pass a short sleep to lower bus load.
func WithPollStep(step func()) Option {
	return func(r *Reader) error {
		r.config.PollStep = step
		return nil
	}
}

// WithPollInterval is WithPollStep with a fixed sleep.
func WithPollInterval(d time.Duration) Option {
	return WithPollStep(func() { time.Sleep(d) })
}

// WithoutInit skips the register init sequence. The reset line is still
// driven high.
func WithoutInit() Option {
	return func(r *Reader) error {
		r.config.SkipInit = true
		return nil
	}
}

// Reader is an MFRC522 attached through a Transport and a ResetLine.
//
// Thread Safety: Reader is NOT thread-safe. The chip FIFO and interrupt
// registers are shared state of a single command at a time, so every method
// must be called from one goroutine.
type Reader struct {
	transport Transport
	reset     ResetLine
	config    *ReaderConfig
	closed    bool
}

// New takes ownership of transport and reset, drives reset high and runs the
// chip init sequence. Any failure here is fatal: nothing is retried and both
// handles are released.
func New(transport Transport, reset ResetLine, opts ...Option) (*Reader, error) {
	if transport == nil || reset == nil {
		return nil, fmt.Errorf("%w: transport and reset line are required", ErrInvalidParameter)
	}

	reader := &Reader{
		transport: transport,
		reset:     reset,
		config:    DefaultReaderConfig(),
	}

	for _, opt := range opts {
		if err := opt(reader); err != nil {
			_ = reader.release()
			return nil, err
		}
	}

	if err := reset.Write(true); err != nil {
		_ = reader.release()
		return nil, NewTransportOpenError("reset high", "", err)
	}

	if !reader.config.SkipInit {
		if err := reader.Init(); err != nil {
			_ = reader.release()
			return nil, fmt.Errorf("reader init failed: %w", err)
		}
	}

	return reader, nil
}

// Init soft-resets the chip and programs the timer, modulation and mode
// registers, then switches the antenna on. The timer settings give the card
// about 25ms to answer before TimerIRq fires.
func (r *Reader) Init() error {
	if err := r.reset.Write(true); err != nil {
		return NewTransportWriteError("reset high", "", err)
	}

	steps := []struct {
		reg   Register
		value byte
	}{
		{CommandReg, byte(CmdSoftReset)},
		{TModeReg, 0x8D},
		{TPrescalerReg, 0x3E},
		{TReloadRegL, 30},
		{TReloadRegH, 0},
		{TxASKReg, 0x40},
		{ModeReg, 0x3D},
	}
	for _, step := range steps {
		if err := r.WriteRegister(step.reg, step.value); err != nil {
			return err
		}
	}

	return r.AntennaOn()
}

// WriteRegister writes value to reg with a two-byte frame.
func (r *Reader) WriteRegister(reg Register, value byte) error {
	if r.closed {
		return NewTransportClosedError("WriteRegister", reg.String())
	}
	if _, err := r.transport.Transfer(frame.EncodeWrite(byte(reg), value)); err != nil {
		return fmt.Errorf("write %s: %w", reg, err)
	}
	return nil
}

// ReadRegister reads reg; the value is the second byte clocked in.
func (r *Reader) ReadRegister(reg Register) (byte, error) {
	if r.closed {
		return 0, NewTransportClosedError("ReadRegister", reg.String())
	}
	rx, err := r.transport.Transfer(frame.EncodeRead(byte(reg)))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", reg, err)
	}
	if len(rx) < 2 {
		return 0, NewTransportError("ReadRegister", reg.String(), ErrShortTransfer, ErrorTypeTransient)
	}
	return rx[1], nil
}

// SetBits ORs mask into reg.
func (r *Reader) SetBits(reg Register, mask byte) error {
	v, err := r.ReadRegister(reg)
	if err != nil {
		return err
	}
	return r.WriteRegister(reg, v|mask)
}

// ClearBits clears the bits of mask in reg.
func (r *Reader) ClearBits(reg Register, mask byte) error {
	v, err := r.ReadRegister(reg)
	if err != nil {
		return err
	}
	return r.WriteRegister(reg, v&^mask)
}

// AntennaOn enables the RF field. It only writes when both driver bits are
// clear, so repeated calls cost one read each.
func (r *Reader) AntennaOn() error {
	v, err := r.ReadRegister(TxControlReg)
	if err != nil {
		return err
	}
	if v&antennaMask != 0 {
		return nil
	}
	return r.WriteRegister(TxControlReg, v|antennaMask)
}

// AntennaOff disables the RF field.
func (r *Reader) AntennaOff() error {
	return r.ClearBits(TxControlReg, antennaMask)
}

// Version returns the VersionReg value, 0x91/0x92 for genuine parts.
func (r *Reader) Version() (byte, error) {
	return r.ReadRegister(VersionReg)
}

// VersionName describes a VersionReg value.
func VersionName(v byte) string {
	switch v {
	case VersionMFRC522v1:
		return "MFRC522 v1.0"
	case VersionMFRC522v2:
		return "MFRC522 v2.0"
	case VersionFM17522:
		return "FM17522 clone"
	case 0x00, 0xFF:
		return "no chip"
	default:
		return fmt.Sprintf("unknown (0x%02X)", v)
	}
}

// Close switches the antenna off, closes the bus and holds the chip in
// reset before releasing the reset line.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	if err := r.AntennaOff(); err != nil {
		Debugf("antenna off during close failed: %v", err)
	}
	return r.release()
}

func (r *Reader) release() error {
	r.closed = true
	var errs []error
	if err := r.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	if err := r.reset.Write(false); err != nil {
		errs = append(errs, fmt.Errorf("reset low: %w", err))
	}
	if err := r.reset.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release reset line: %w", err))
	}
	return errors.Join(errs...)
}
