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

// Package actuator drives the output that signals a decision: an indicator
// LED, a door strike or a relay.
package actuator

import (
	"context"
	"errors"
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// Output is a binary output.
type Output interface {
	SetOutput(on bool) error
	Close() error
}

// Pulse switches out on, waits d and switches it off. The off write happens
// even when ctx ends during the wait; the context error is returned then.
func Pulse(ctx context.Context, out Output, d time.Duration) error {
	if err := out.SetOutput(true); err != nil {
		return errors.Join(err, out.SetOutput(false))
	}
	waitErr := sleep(ctx, d)
	return errors.Join(out.SetOutput(false), waitErr)
}

// Blink pulses out times times with the given on and off periods. It stops
// early, with the output off, when ctx ends.
func Blink(ctx context.Context, out Output, times int, on, off time.Duration) error {
	for i := range times {
		if err := Pulse(ctx, out, on); err != nil {
			return err
		}
		if i < times-1 {
			if err := sleep(ctx, off); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nop is an Output that does nothing, for readers without an indicator.
type Nop struct{}

func (Nop) SetOutput(bool) error { return nil }
func (Nop) Close() error         { return nil }

// Recorder is an Output that remembers every level it was set to.
type Recorder struct {
	err    error
	levels []bool
	mu     syncutil.Mutex
	closed bool
}

// SetOutput implements Output
func (r *Recorder) SetOutput(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, on)
	return r.err
}

// Close implements Output
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// SetError makes SetOutput return err after recording the level
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Levels returns the levels set so far
func (r *Recorder) Levels() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.levels...)
}

// Closed reports whether Close was called
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
