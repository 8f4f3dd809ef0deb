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

import "fmt"

// CommandResult is the outcome of one ToCard call.
type CommandResult struct {
	// Data holds the bytes drained from the FIFO, at most FIFOSize.
	Data []byte
	// Bits is the response length in bits as reported by the chip.
	Bits int
	// Status classifies the completion.
	Status Status
}

// irqMasks returns the ComIEnReg value and the ComIrqReg bits that signal
// completion for cmd.
func irqMasks(cmd Command) (irqEn, waitIRq byte) {
	switch cmd {
	case CmdMFAuthent:
		return authentIRqEn, authentWaitIRq
	case CmdTransceive:
		return transceiveIRqEn, transceiveWait
	default:
		return 0x00, 0x00
	}
}

// ToCard runs cmd with send loaded into the FIFO and waits, bounded by the
// configured poll limit, for the chip to signal completion.
//
// The returned Status is always meaningful. The error is nil only for
// StatusOK; otherwise it is a transport error or a *ProtocolError wrapping
// ErrNoTag, ErrProtocol or ErrProtocolTimeout. The call never retries.
func (r *Reader) ToCard(cmd Command, send []byte) (CommandResult, error) {
	result := CommandResult{Status: StatusError}

	if len(send) > FIFOSize {
		return result, fmt.Errorf("%w: %d bytes exceed the %d byte FIFO", ErrFrameLength, len(send), FIFOSize)
	}

	irqEn, waitIRq := irqMasks(cmd)

	if err := r.armCommand(irqEn); err != nil {
		return result, err
	}

	for _, b := range send {
		if err := r.WriteRegister(FIFODataReg, b); err != nil {
			return result, err
		}
	}

	if err := r.WriteRegister(CommandReg, byte(cmd)); err != nil {
		return result, err
	}
	if cmd == CmdTransceive {
		if err := r.SetBits(BitFramingReg, startSend); err != nil {
			return result, err
		}
	}

	var irq byte
	poll := BoundedPoll{Limit: r.config.PollLimit, Step: r.config.PollStep}
	remaining, err := poll.Run(func() (bool, error) {
		v, readErr := r.ReadRegister(ComIrqReg)
		if readErr != nil {
			return false, readErr
		}
		irq = v
		return irq&timerIRq != 0 || irq&waitIRq != 0, nil
	})
	if err != nil {
		return result, err
	}

	if err := r.ClearBits(BitFramingReg, startSend); err != nil {
		return result, err
	}

	if remaining == 0 {
		Debugf("%s: no completion after %d polls (ComIrqReg 0x%02X)", cmd, poll.Limit, irq)
		return result, &ProtocolError{Command: cmd, Err: ErrProtocolTimeout}
	}

	errBits, err := r.ReadRegister(ErrorReg)
	if err != nil {
		return result, err
	}
	if errBits&errorMask != 0 {
		return result, &ProtocolError{Command: cmd, Err: ErrProtocol, ErrorBits: errBits & errorMask}
	}

	result.Status = StatusOK
	if irq&irqEn&timerIRq != 0 {
		result.Status = StatusNoTag
	}

	if cmd == CmdTransceive {
		if err := r.drainFIFO(&result); err != nil {
			result.Status = StatusError
			return result, err
		}
	}

	if result.Status == StatusNoTag {
		return result, &ProtocolError{Command: cmd, Err: ErrNoTag}
	}
	return result, nil
}

// armCommand enables the interrupts for the next command, clears pending
// requests, flushes the FIFO and cancels whatever the chip was doing.
func (r *Reader) armCommand(irqEn byte) error {
	if err := r.WriteRegister(ComIEnReg, irqEn|irqSet); err != nil {
		return err
	}
	if err := r.ClearBits(ComIrqReg, irqSet); err != nil {
		return err
	}
	if err := r.SetBits(FIFOLevelReg, fifoFlush); err != nil {
		return err
	}
	return r.WriteRegister(CommandReg, byte(CmdIdle))
}

// drainFIFO reads the response length and the FIFO contents into result.
func (r *Reader) drainFIFO(result *CommandResult) error {
	level, err := r.ReadRegister(FIFOLevelReg)
	if err != nil {
		return err
	}
	control, err := r.ReadRegister(ControlReg)
	if err != nil {
		return err
	}

	n := int(level)
	result.Bits = ResponseBits(n, control&rxLastBitsMask)

	n = clampFIFOCount(n)
	result.Data = make([]byte, 0, n)
	for range n {
		b, err := r.ReadRegister(FIFODataReg)
		if err != nil {
			return err
		}
		result.Data = append(result.Data, b)
	}
	return nil
}

// ResponseBits computes the received bit count from the FIFO level and the
// number of valid bits in the last byte.
func ResponseBits(n int, lastBits byte) int {
	if lastBits != 0 {
		return (n-1)*8 + int(lastBits)
	}
	return n * 8
}

func clampFIFOCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > FIFOSize {
		return FIFOSize
	}
	return n
}
