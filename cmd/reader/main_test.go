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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	virt "github.com/ZaparooProject/go-mfrc522/internal/testing"
)

func newVirtualReader(t *testing.T) (*mfrc522.Reader, *virt.VirtualMFRC522) {
	t.Helper()
	chip := virt.NewVirtualMFRC522()
	reader, err := mfrc522.New(chip, chip.ResetLine(), mfrc522.WithPollLimit(50))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	return reader, chip
}

func TestRunReadMode_Once(t *testing.T) {
	t.Parallel()

	reader, chip := newVirtualReader(t)
	chip.PlaceCard(virt.NewVirtualCard([4]byte{0x04, 0xD2, 0x58, 0x0C}))

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := runReadMode(ctx, reader, &config{interval: time.Millisecond, once: true}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Card detected: UID=4,210,88,12,130 (04:D2:58:0C)")
}

func TestRunReadMode_ReportsOncePerCard(t *testing.T) {
	t.Parallel()

	reader, chip := newVirtualReader(t)
	chip.PlaceCard(virt.NewVirtualCard([4]byte{0x04, 0xD2, 0x58, 0x0C}))

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := runReadMode(ctx, reader, &config{interval: time.Millisecond}, &out)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, strings.Count(out.String(), "Card detected"))
}

func TestRunReadMode_FatalError(t *testing.T) {
	t.Parallel()

	reader, _ := newVirtualReader(t)
	require.NoError(t, reader.Close())

	err := runReadMode(context.Background(), reader, &config{interval: time.Millisecond}, &bytes.Buffer{})
	require.ErrorIs(t, err, mfrc522.ErrTransportClosed)
}

func TestNewTransport_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := newTransport("")
	require.Error(t, err)
}
