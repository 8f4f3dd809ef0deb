// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mfrc522

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transient write", err: NewTransportWriteError("Transfer", "/dev/spidev0.0", syscall.EAGAIN), want: true},
		{name: "read error", err: NewTransportReadError("Transfer", "/dev/spidev0.0"), want: true},
		{name: "closed transport", err: NewTransportClosedError("Transfer", "/dev/spidev0.0"), want: false},
		{name: "open failure", err: NewTransportOpenError("open", "/dev/spidev0.0", syscall.ENOENT), want: false},
		{name: "poll ran out", err: &ProtocolError{Command: CmdTransceive, Err: ErrProtocolTimeout}, want: true},
		{name: "chip error bits", err: &ProtocolError{Command: CmdTransceive, Err: ErrProtocol, ErrorBits: 0x08}, want: true},
		{name: "no tag", err: &ProtocolError{Command: CmdTransceive, Err: ErrNoTag}, want: true},
		{name: "bad checksum", err: &ChecksumError{Want: 0x82, Got: 0xDE}, want: true},
		{name: "external service", err: NewExternalServiceError("authorize", errors.New("db down")), want: true},
		{name: "invalid parameter", err: ErrInvalidParameter, want: false},
		{name: "generic error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "closed transport", err: NewTransportClosedError("Transfer", "spi"), want: true},
		{name: "open failure", err: NewTransportOpenError("open", "spi", syscall.EACCES), want: true},
		{name: "transient write", err: NewTransportWriteError("Transfer", "spi", syscall.EAGAIN), want: false},
		{name: "wrapped closed sentinel", err: fmt.Errorf("read VersionReg: %w", ErrTransportClosed), want: true},
		{name: "device gone", err: fmt.Errorf("ioctl: %w", syscall.ENODEV), want: true},
		{name: "io error", err: syscall.EIO, want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "protocol timeout", err: &ProtocolError{Command: CmdTransceive, Err: ErrProtocolTimeout}, want: false},
		{name: "no tag", err: &ProtocolError{Command: CmdTransceive, Err: ErrNoTag}, want: false},
		{name: "checksum", err: &ChecksumError{}, want: false},
		{name: "external service", err: NewExternalServiceError("audit", errors.New("disk full")), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	err := NewTransportWriteError("Transfer", "/dev/spidev0.0", syscall.EAGAIN)
	if !errors.Is(err, ErrTransportWrite) {
		t.Error("expected ErrTransportWrite in chain")
	}
	if !errors.Is(err, syscall.EAGAIN) {
		t.Error("expected cause in chain")
	}
	if !strings.HasPrefix(err.Error(), "Transfer /dev/spidev0.0: ") {
		t.Errorf("unexpected message %q", err.Error())
	}

	noPort := NewTransportReadError("ReadRegister", "")
	if noPort.Error() != "ReadRegister: transport read failed" {
		t.Errorf("unexpected message %q", noPort.Error())
	}
}

func TestProtocolError(t *testing.T) {
	t.Parallel()

	err := &ProtocolError{Command: CmdTransceive, Err: ErrProtocol, ErrorBits: 0x0A}
	if !errors.Is(err, ErrProtocol) {
		t.Error("expected ErrProtocol in chain")
	}
	msg := err.Error()
	for _, want := range []string{"Transceive", "0x0A", "parity", "collision"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not mention %q", msg, want)
		}
	}

	plain := &ProtocolError{Command: CmdMFAuthent, Err: ErrNoTag}
	if plain.Error() != "MFAuthent: no tag answered" {
		t.Errorf("unexpected message %q", plain.Error())
	}
	if errorBitsMeaning(0) != "none" {
		t.Errorf("errorBitsMeaning(0) = %q", errorBitsMeaning(0))
	}
}

func TestChecksumError(t *testing.T) {
	t.Parallel()

	err := NewUID([4]byte{0x04, 0xD2, 0x58, 0x0C}).Validate()
	if err != nil {
		t.Fatalf("valid UID rejected: %v", err)
	}

	bad := UID{0x04, 0xD2, 0x58, 0x0C, 0xDE}.Validate()
	var ce *ChecksumError
	if !errors.As(bad, &ce) {
		t.Fatalf("expected *ChecksumError, got %v", bad)
	}
	if ce.Want != 0x82 || ce.Got != 0xDE {
		t.Errorf("want/got = 0x%02X/0x%02X", ce.Want, ce.Got)
	}
	if !errors.Is(bad, ErrChecksum) {
		t.Error("expected ErrChecksum in chain")
	}
}

func TestExternalServiceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewExternalServiceError("authorize", cause)
	if !errors.Is(err, ErrExternalService) || !errors.Is(err, cause) {
		t.Error("expected both category and cause in chain")
	}
	if err.Error() != "authorize: external service failed: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestTraceBuffer(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("spidev", "/dev/spidev0.0", 2)
	if tb.WrapError(nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}

	tb.RecordTX([]byte{0x08, 0x26}, "")
	tb.RecordRX([]byte{0x00, 0x00}, "")
	tb.RecordTX([]byte{0x88, 0x00}, "ComIrqReg")
	if tb.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tb.Len())
	}

	wrapped := tb.WrapError(ErrTransportWrite)
	te := GetTrace(wrapped)
	if te == nil {
		t.Fatal("expected trace")
	}
	if !errors.Is(wrapped, ErrTransportWrite) {
		t.Error("expected underlying error in chain")
	}
	if te.Trace[0].Direction != TraceRX || te.Trace[1].Note != "ComIrqReg" {
		t.Errorf("oldest entry not evicted: %+v", te.Trace)
	}
	formatted := te.FormatTrace()
	if !strings.Contains(formatted, "< 00 00") || !strings.Contains(formatted, "> 88 00 (ComIrqReg)") {
		t.Errorf("unexpected trace:\n%s", formatted)
	}

	tb.Clear()
	if tb.Len() != 0 {
		t.Error("Clear left entries")
	}
	empty := tb.WrapError(ErrTransportRead)
	if !strings.Contains(GetTrace(empty).FormatTrace(), "no trace data") {
		t.Error("empty trace not reported")
	}
	if GetTrace(errors.New("plain")) != nil {
		t.Error("GetTrace on plain error should be nil")
	}
}
