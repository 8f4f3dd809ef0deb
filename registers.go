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

// Register is a 6-bit MFRC522 register address.
type Register uint8

// Register addresses from the MFRC522 datasheet, section 9.2.
const (
	CommandReg    Register = 0x01
	ComIEnReg     Register = 0x02
	ComIrqReg     Register = 0x04
	DivIrqReg     Register = 0x05
	ErrorReg      Register = 0x06
	Status2Reg    Register = 0x08
	FIFODataReg   Register = 0x09
	FIFOLevelReg  Register = 0x0A
	ControlReg    Register = 0x0C
	BitFramingReg Register = 0x0D
	ModeReg       Register = 0x11
	TxControlReg  Register = 0x14
	TxASKReg      Register = 0x15
	TModeReg      Register = 0x2A
	TPrescalerReg Register = 0x2B
	TReloadRegH   Register = 0x2C
	TReloadRegL   Register = 0x2D
	VersionReg    Register = 0x37
)

var registerNames = map[Register]string{
	CommandReg:    "CommandReg",
	ComIEnReg:     "ComIEnReg",
	ComIrqReg:     "ComIrqReg",
	DivIrqReg:     "DivIrqReg",
	ErrorReg:      "ErrorReg",
	Status2Reg:    "Status2Reg",
	FIFODataReg:   "FIFODataReg",
	FIFOLevelReg:  "FIFOLevelReg",
	ControlReg:    "ControlReg",
	BitFramingReg: "BitFramingReg",
	ModeReg:       "ModeReg",
	TxControlReg:  "TxControlReg",
	TxASKReg:      "TxASKReg",
	TModeReg:      "TModeReg",
	TPrescalerReg: "TPrescalerReg",
	TReloadRegH:   "TReloadRegH",
	TReloadRegL:   "TReloadRegL",
	VersionReg:    "VersionReg",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reg(0x%02X)", uint8(r))
}

// Command is a PCD command written to CommandReg.
type Command uint8

// PCD commands, datasheet section 10.3.
const (
	CmdIdle       Command = 0x00
	CmdCalcCRC    Command = 0x03
	CmdTransmit   Command = 0x04
	CmdReceive    Command = 0x08
	CmdTransceive Command = 0x0C
	CmdMFAuthent  Command = 0x0E
	CmdSoftReset  Command = 0x0F
)

func (c Command) String() string {
	switch c {
	case CmdIdle:
		return "Idle"
	case CmdCalcCRC:
		return "CalcCRC"
	case CmdTransmit:
		return "Transmit"
	case CmdReceive:
		return "Receive"
	case CmdTransceive:
		return "Transceive"
	case CmdMFAuthent:
		return "MFAuthent"
	case CmdSoftReset:
		return "SoftReset"
	default:
		return fmt.Sprintf("Cmd(0x%02X)", uint8(c))
	}
}

// PICC commands sent over the air.
const (
	// PICCReqIdl is REQA: wakes cards in the IDLE state.
	PICCReqIdl byte = 0x26
	// PICCReqAll is WUPA: wakes cards in IDLE or HALT.
	PICCReqAll byte = 0x52
	// PICCAnticollCL1 starts cascade level 1 anticollision.
	PICCAnticollCL1 byte = 0x93
	// anticollNVB is the number-of-valid-bits byte for an empty UID prefix.
	anticollNVB byte = 0x20
)

// Register bit masks used by the command engine.
const (
	irqSet          = 0x80 // ComIEnReg IRqInv / ComIrqReg Set1
	fifoFlush       = 0x80 // FIFOLevelReg FlushBuffer
	startSend       = 0x80 // BitFramingReg StartSend
	timerIRq        = 0x01 // ComIrqReg TimerIRq
	errorMask       = 0x1B // BufferOvfl | CollErr | CRCErr | ParityErr | ProtocolErr
	rxLastBitsMask  = 0x07 // ControlReg RxLastBits
	antennaMask     = 0x03 // TxControlReg Tx1RFEn | Tx2RFEn
	mfCrypto1On     = 0x08 // Status2Reg MFCrypto1On
	shortFrameBits  = 0x07 // BitFramingReg TxLastBits for a 7-bit REQA
	authentIRqEn    = 0x12
	authentWaitIRq  = 0x10
	transceiveIRqEn = 0x77
	transceiveWait  = 0x30
)

// FIFOSize is the capacity of the chip FIFO handled by this driver.
const FIFOSize = 16

// DefaultPollLimit bounds the completion poll in ToCard.
const DefaultPollLimit = 2000

// Chip identifiers reported by VersionReg.
const (
	VersionMFRC522v1 byte = 0x91
	VersionMFRC522v2 byte = 0x92
	VersionFM17522   byte = 0x88
)

// Status is the outcome of a command engine call.
type Status int

const (
	// StatusOK means the chip signalled completion without errors.
	StatusOK Status = iota
	// StatusNoTag means the receive timer expired before a card answered.
	StatusNoTag
	// StatusError means a chip error bit was set or the poll ran out.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoTag:
		return "NO_TAG"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
