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
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// Initializer re-runs the chip init sequence. *mfrc522.Reader implements it.
type Initializer interface {
	Init() error
}

// DeviceRecoverer handles reader recovery after sleep/wake or bus errors
type DeviceRecoverer interface {
	// AttemptRecovery tries to bring the chip back to its configured state.
	// Returns nil if recovery was successful, error otherwise.
	AttemptRecovery(ctx context.Context) error
}

// DefaultRecoverer re-runs Init with a fixed backoff between attempts.
type DefaultRecoverer struct {
	chip        Initializer
	backoff     time.Duration
	maxAttempts int
	mu          syncutil.Mutex
}

// NewDefaultRecoverer creates a recoverer for chip
func NewDefaultRecoverer(chip Initializer, backoff time.Duration, maxAttempts int) *DefaultRecoverer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &DefaultRecoverer{
		chip:        chip,
		backoff:     backoff,
		maxAttempts: maxAttempts,
	}
}

// AttemptRecovery implements DeviceRecoverer
func (r *DefaultRecoverer) AttemptRecovery(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for attempt := range r.maxAttempts {
		if attempt > 0 {
			timer := time.NewTimer(r.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := r.chip.Init()
		if err == nil {
			mfrc522.Debugf("reader re-initialized on attempt %d", attempt+1)
			return nil
		}
		if mfrc522.IsFatal(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
