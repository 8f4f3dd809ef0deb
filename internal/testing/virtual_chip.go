// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package testing provides test utilities including a register-level MFRC522
// simulator.
//
// VirtualMFRC522 answers SPI register frames the way the chip does
// (datasheet section 8.1.2) and runs enough of the Transceive command to
// answer REQA/WUPA and cascade level 1 anticollision from a VirtualCard.
// It does not import the driver package so the driver's own tests can use it.
package testing

import (
	"bytes"
	"errors"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// Register addresses, datasheet section 9.2
const (
	regCommand    = 0x01
	regComIEn     = 0x02
	regComIrq     = 0x04
	regDivIrq     = 0x05
	regError      = 0x06
	regStatus2    = 0x08
	regFIFOData   = 0x09
	regFIFOLevel  = 0x0A
	regControl    = 0x0C
	regBitFraming = 0x0D
	regMode       = 0x11
	regTxControl  = 0x14
	regVersion    = 0x37
)

// Register numbers exported for assertions in driver tests.
const (
	RegCommand    = regCommand
	RegComIrq     = regComIrq
	RegBitFraming = regBitFraming
	RegStatus2    = regStatus2
	RegTxControl  = regTxControl
)

// PCD commands, datasheet section 10.3
const (
	cmdIdle       = 0x00
	cmdCalcCRC    = 0x03
	cmdTransmit   = 0x04
	cmdTransceive = 0x0C
	cmdMFAuthent  = 0x0E
	cmdSoftReset  = 0x0F
)

// ComIrqReg bits
const (
	irqTimer = 0x01
	irqIdle  = 0x10
	irqRx    = 0x20
	irqTx    = 0x40
)

const (
	fifoCapacity = 64
	chipVersion  = 0x92
)

// ErrHeldInReset is returned for bus traffic while NRSTPD is low.
var ErrHeldInReset = errors.New("virtual mfrc522: chip held in reset")

// ErrClosed is returned for bus traffic after Close.
var ErrClosed = errors.New("virtual mfrc522: bus closed")

// VirtualCard is an ISO 14443A card in the field of the simulated antenna.
type VirtualCard struct {
	// AnticollResponse replaces the UID answer when non-nil, e.g. to send a
	// short frame or a bad BCC.
	AnticollResponse []byte
	// UID is the cascade level 1 answer including the BCC byte.
	UID [5]byte
	// ATQA is the answer to REQA/WUPA.
	ATQA [2]byte
	// ATQALastBits, when non-zero, reports the ATQA's last byte as only
	// partially valid.
	ATQALastBits byte
}

// NewVirtualCard builds a card with a valid BCC for the four id bytes.
func NewVirtualCard(id [4]byte) *VirtualCard {
	return &VirtualCard{
		UID:  [5]byte{id[0], id[1], id[2], id[3], frame.BCC(id[:])},
		ATQA: [2]byte{0x04, 0x00},
	}
}

// VirtualMFRC522 simulates the chip behind an SPI bus.
type VirtualMFRC522 struct {
	card        *VirtualCard
	writes      map[byte]int
	fifo        []byte
	executed    []byte
	regs        [frame.MaxRegister + 1]byte
	comIrqReads int
	irqDelay    int
	irqCountdn  int
	mu          syncutil.Mutex
	pendingIrq  byte
	extraIrq    byte
	errorBits   byte
	rxLastBits  byte
	hang        bool
	resetHigh   bool
	closed      bool
}

// NewVirtualMFRC522 creates a chip held in reset with no card in the field.
func NewVirtualMFRC522() *VirtualMFRC522 {
	v := &VirtualMFRC522{writes: make(map[byte]int)}
	v.softReset()
	return v
}

// softReset loads the register reset values of datasheet section 9.3.
func (v *VirtualMFRC522) softReset() {
	v.regs = [frame.MaxRegister + 1]byte{}
	v.regs[regCommand] = 0x20
	v.regs[regComIEn] = 0x80
	v.regs[regComIrq] = 0x14
	v.regs[regControl] = 0x10
	v.regs[regMode] = 0x3F
	v.regs[regTxControl] = 0x80
	v.regs[regVersion] = chipVersion
	v.fifo = nil
	v.pendingIrq = 0
	v.rxLastBits = 0
}

// Transfer implements the driver's bus contract.
func (v *VirtualMFRC522) Transfer(tx []byte) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	if !v.resetHigh {
		return nil, ErrHeldInReset
	}

	rx := make([]byte, len(tx))
	if len(tx) < frame.FrameLen {
		return rx, nil
	}

	reg, read := frame.DecodeAddress(tx[0])
	if read {
		// Each address byte selects the register whose value comes back
		// in the following byte.
		for i := 0; i < len(tx)-1; i++ {
			r, _ := frame.DecodeAddress(tx[i])
			rx[i+1] = v.readRegister(r)
		}
		return rx, nil
	}

	for _, b := range tx[1:] {
		v.writeRegister(reg, b)
	}
	return rx, nil
}

// Close implements the driver's bus contract.
func (v *VirtualMFRC522) Close() error {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	return nil
}

func (v *VirtualMFRC522) readRegister(reg byte) byte {
	switch reg {
	case regComIrq:
		v.comIrqReads++
		if v.pendingIrq != 0 {
			if v.irqCountdn == 0 {
				v.regs[regComIrq] |= v.pendingIrq
				v.pendingIrq = 0
			} else {
				v.irqCountdn--
			}
		}
		return v.regs[regComIrq]
	case regFIFOLevel:
		return byte(len(v.fifo))
	case regFIFOData:
		if len(v.fifo) == 0 {
			return 0
		}
		b := v.fifo[0]
		v.fifo = v.fifo[1:]
		return b
	case regControl:
		return (v.regs[regControl] &^ 0x07) | v.rxLastBits
	case regError:
		return v.regs[regError]
	default:
		return v.regs[reg]
	}
}

func (v *VirtualMFRC522) writeRegister(reg, value byte) {
	v.writes[reg]++

	switch reg {
	case regCommand:
		v.regs[regCommand] = (v.regs[regCommand] & 0xF0) | (value & 0x0F)
		v.execute(value & 0x0F)
	case regComIrq, regDivIrq:
		// Set1 selects whether the marked bits are set or cleared.
		if value&0x80 != 0 {
			v.regs[reg] |= value & 0x7F
		} else {
			v.regs[reg] &^= value & 0x7F
		}
	case regFIFOLevel:
		if value&0x80 != 0 {
			v.fifo = nil
			v.regs[regError] &^= 0x10
		}
	case regFIFOData:
		if len(v.fifo) < fifoCapacity {
			v.fifo = append(v.fifo, value)
		}
	case regBitFraming:
		v.regs[regBitFraming] = value
		if value&0x80 != 0 && v.regs[regCommand]&0x0F == cmdTransceive {
			v.transceive()
		}
	case regError, regVersion:
		// read-only
	default:
		v.regs[reg] = value
	}
}

func (v *VirtualMFRC522) execute(cmd byte) {
	v.executed = append(v.executed, cmd)

	switch cmd {
	case cmdSoftReset:
		v.softReset()
	case cmdMFAuthent:
		v.raise(irqIdle)
	case cmdTransmit:
		v.fifo = nil
		v.raise(irqTx | irqIdle)
	case cmdCalcCRC:
		v.regs[regDivIrq] |= 0x04
	case cmdTransceive:
		if v.regs[regBitFraming]&0x80 != 0 {
			v.transceive()
		}
	case cmdIdle:
	}
}

// transceive sends the FIFO contents to the card and loads its answer.
func (v *VirtualMFRC522) transceive() {
	tx := v.fifo
	v.fifo = nil
	v.rxLastBits = 0
	txLastBits := v.regs[regBitFraming] & 0x07

	if v.hang {
		return
	}
	if v.errorBits != 0 {
		v.regs[regError] = v.errorBits
		v.raise(irqTx | irqRx | irqIdle)
		return
	}
	if v.card == nil || v.regs[regTxControl]&0x03 == 0 {
		v.raise(irqTx | irqTimer)
		return
	}

	switch {
	case len(tx) == 1 && (tx[0] == 0x26 || tx[0] == 0x52) && txLastBits == 7:
		v.fifo = append(v.fifo, v.card.ATQA[:]...)
		v.rxLastBits = v.card.ATQALastBits
	case bytes.Equal(tx, []byte{0x93, 0x20}):
		if v.card.AnticollResponse != nil {
			v.fifo = append(v.fifo, v.card.AnticollResponse...)
		} else {
			v.fifo = append(v.fifo, v.card.UID[:]...)
		}
	default:
		v.raise(irqTx | irqTimer)
		return
	}
	v.raise(irqTx | irqRx | irqIdle)
}

func (v *VirtualMFRC522) raise(bits byte) {
	v.pendingIrq |= bits | v.extraIrq
	v.irqCountdn = v.irqDelay
}

// Test helper methods

// PlaceCard puts card into the field. Nil removes it.
func (v *VirtualMFRC522) PlaceCard(card *VirtualCard) {
	v.mu.Lock()
	v.card = card
	v.mu.Unlock()
}

// RemoveCard takes the card out of the field.
func (v *VirtualMFRC522) RemoveCard() {
	v.PlaceCard(nil)
}

// SetHang makes transceive never raise an interrupt, so the driver's poll
// has to run out.
func (v *VirtualMFRC522) SetHang(hang bool) {
	v.mu.Lock()
	v.hang = hang
	v.mu.Unlock()
}

// SetErrorBits makes the next transceives flag bits in ErrorReg.
func (v *VirtualMFRC522) SetErrorBits(bits byte) {
	v.mu.Lock()
	v.errorBits = bits
	v.mu.Unlock()
}

// SetExtraIrq ORs bits into every completion, e.g. TimerIRq together with
// RxIRq.
func (v *VirtualMFRC522) SetExtraIrq(bits byte) {
	v.mu.Lock()
	v.extraIrq = bits
	v.mu.Unlock()
}

// SetIrqDelay holds completion bits back for n ComIrqReg reads.
func (v *VirtualMFRC522) SetIrqDelay(n int) {
	v.mu.Lock()
	v.irqDelay = n
	v.mu.Unlock()
}

// Register returns the raw value of reg.
func (v *VirtualMFRC522) Register(reg byte) byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs[reg]
}

// WriteCount returns how many bus writes reg received.
func (v *VirtualMFRC522) WriteCount(reg byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes[reg]
}

// ComIrqReads returns how many times ComIrqReg was read.
func (v *VirtualMFRC522) ComIrqReads() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.comIrqReads
}

// Executed returns the command codes written to CommandReg, in order.
func (v *VirtualMFRC522) Executed() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.executed...)
}

// AntennaOn reports whether both TX drivers are enabled.
func (v *VirtualMFRC522) AntennaOn() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs[regTxControl]&0x03 == 0x03
}

// Closed reports whether the bus was closed.
func (v *VirtualMFRC522) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// ResetLine returns the NRSTPD pin of the chip.
func (v *VirtualMFRC522) ResetLine() *VirtualResetLine {
	return &VirtualResetLine{chip: v}
}

// ResetHigh reports the level of NRSTPD.
func (v *VirtualMFRC522) ResetHigh() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resetHigh
}

// VirtualResetLine drives NRSTPD of a VirtualMFRC522. A rising edge performs
// a hard reset.
type VirtualResetLine struct {
	chip     *VirtualMFRC522
	released bool
}

// Write drives the pin.
func (l *VirtualResetLine) Write(high bool) error {
	if l.released {
		return errors.New("virtual mfrc522: reset line released")
	}
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if high && !l.chip.resetHigh {
		l.chip.softReset()
	}
	l.chip.resetHigh = high
	return nil
}

// Close releases the pin.
func (l *VirtualResetLine) Close() error {
	l.released = true
	return nil
}

// Released reports whether Close was called.
func (l *VirtualResetLine) Released() bool {
	return l.released
}
