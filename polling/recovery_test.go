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

package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockReader(t *testing.T) (*mfrc522.Reader, *mfrc522.MockTransport) {
	t.Helper()
	transport := mfrc522.NewMockTransport()
	reader, err := mfrc522.New(transport, mfrc522.NewMockResetLine(), mfrc522.WithoutInit())
	require.NoError(t, err)
	return reader, transport
}

type initFunc func() error

func (f initFunc) Init() error { return f() }

func TestNewDefaultRecoverer(t *testing.T) {
	t.Parallel()

	reader, _ := createMockReader(t)

	t.Run("WithDefaults", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(reader, 0, 0)
		assert.NotNil(t, r)
		assert.Equal(t, 3, r.maxAttempts)
		assert.Equal(t, 500*time.Millisecond, r.backoff)
	})

	t.Run("WithCustomValues", func(t *testing.T) {
		t.Parallel()
		r := NewDefaultRecoverer(reader, 100*time.Millisecond, 5)
		assert.Equal(t, 5, r.maxAttempts)
		assert.Equal(t, 100*time.Millisecond, r.backoff)
	})
}

func TestDefaultRecoverer_InitSuccess(t *testing.T) {
	t.Parallel()

	reader, transport := createMockReader(t)
	r := NewDefaultRecoverer(reader, 10*time.Millisecond, 3)

	require.NoError(t, r.AttemptRecovery(context.Background()))
	assert.Equal(t, byte(mfrc522.CmdSoftReset), transport.Register(mfrc522.CommandReg))
	assert.Equal(t, byte(0x3D), transport.Register(mfrc522.ModeReg))
	assert.Equal(t, byte(0x03), transport.Register(mfrc522.TxControlReg)&0x03)
}

func TestDefaultRecoverer_AllAttemptsFail(t *testing.T) {
	t.Parallel()

	reader, transport := createMockReader(t)
	transport.SetError(mfrc522.CommandReg, errors.New("soft reset failed"))

	r := NewDefaultRecoverer(reader, time.Millisecond, 2)

	err := r.AttemptRecovery(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soft reset failed")
	assert.Zero(t, transport.WriteCount(mfrc522.ModeReg))
}

func TestDefaultRecoverer_RecoversOnLaterAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	chip := initFunc(func() error {
		calls++
		if calls < 3 {
			return errors.New("bus glitch")
		}
		return nil
	})

	r := NewDefaultRecoverer(chip, time.Millisecond, 3)
	require.NoError(t, r.AttemptRecovery(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestDefaultRecoverer_StopsOnFatal(t *testing.T) {
	t.Parallel()

	calls := 0
	chip := initFunc(func() error {
		calls++
		return mfrc522.NewTransportClosedError("Init", "mock")
	})

	r := NewDefaultRecoverer(chip, time.Millisecond, 5)
	err := r.AttemptRecovery(context.Background())
	require.ErrorIs(t, err, mfrc522.ErrTransportClosed)
	assert.Equal(t, 1, calls)
}

func TestDefaultRecoverer_ContextCancellation(t *testing.T) {
	t.Parallel()

	reader, transport := createMockReader(t)
	transport.SetError(mfrc522.CommandReg, errors.New("soft reset failed"))

	r := NewDefaultRecoverer(reader, 100*time.Millisecond, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.AttemptRecovery(ctx)
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestSleepRecoveryConfig_DetectSleep(t *testing.T) {
	t.Parallel()

	cfg := DefaultSleepRecoveryConfig()
	assert.False(t, cfg.DetectSleep(300*time.Millisecond, 200*time.Millisecond))
	assert.True(t, cfg.DetectSleep(3*time.Second, 200*time.Millisecond))

	cfg.Enabled = false
	assert.False(t, cfg.DetectSleep(time.Hour, 200*time.Millisecond))
}
