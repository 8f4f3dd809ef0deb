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

// Package polling runs the access-control scan loop on top of an MFRC522
// reader: detect a card, resolve its UID, ask the authorizer and drive the
// audit log, unknown-card registry and output with the answer.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/access"
	"github.com/ZaparooProject/go-mfrc522/actuator"
	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// CardReader is the part of *mfrc522.Reader the scan loop uses.
type CardReader interface {
	Request(mode byte) (int, error)
	Anticoll() (mfrc522.UID, error)
	SelectTag(uid mfrc522.UID) error
	StopCrypto() error
	Close() error
}

// Scanner drives one reader through the scan states.
type Scanner struct {
	lastPoll      time.Time
	reader        CardReader
	authorizer    access.Authorizer
	audit         access.AuditLog
	registry      access.Registry
	output        actuator.Output
	recoverer     DeviceRecoverer
	config        *Config
	now           func() time.Time
	onStateChange func(from, to State)
	onDecision    func(Decision)
	snapshot      Snapshot
	presence      presence
	failures      int
	stateMutex    syncutil.RWMutex
	closeMutex    syncutil.Mutex
	closed        bool
}

// Option configures a Scanner
type Option func(*Scanner)

// WithAuditLog sets the audit log. The default discards records.
func WithAuditLog(log access.AuditLog) Option {
	return func(s *Scanner) {
		s.audit = log
	}
}

// WithRegistry sets the unknown-card registry. The default discards entries.
func WithRegistry(reg access.Registry) Option {
	return func(s *Scanner) {
		s.registry = reg
	}
}

// WithOutput sets the grant output. The default is actuator.Nop.
func WithOutput(out actuator.Output) Option {
	return func(s *Scanner) {
		s.output = out
	}
}

// WithRecoverer sets the recovery strategy used after repeated transport
// failures or a detected host sleep.
func WithRecoverer(r DeviceRecoverer) Option {
	return func(s *Scanner) {
		s.recoverer = r
	}
}

// NewScanner creates a scanner. A nil config means DefaultConfig.
func NewScanner(reader CardReader, authorizer access.Authorizer, config *Config, opts ...Option) (*Scanner, error) {
	if reader == nil || authorizer == nil {
		return nil, fmt.Errorf("%w: scanner needs a reader and an authorizer", mfrc522.ErrInvalidParameter)
	}
	if config == nil {
		config = DefaultConfig()
	}

	s := &Scanner{
		reader:     reader,
		authorizer: authorizer,
		audit:      access.Discard,
		registry:   access.Discard,
		output:     actuator.Nop{},
		config:     config,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recoverer == nil {
		if chip, ok := reader.(Initializer); ok {
			s.recoverer = NewDefaultRecoverer(chip,
				config.SleepRecovery.RecoveryBackoff, config.SleepRecovery.MaxRecoveryAttempts)
		}
	}
	return s, nil
}

// SetOnStateChange sets the callback run after every state transition
func (s *Scanner) SetOnStateChange(callback func(from, to State)) {
	s.stateMutex.Lock()
	s.onStateChange = callback
	s.stateMutex.Unlock()
}

// SetOnDecision sets the callback run after every access decision
func (s *Scanner) SetOnDecision(callback func(Decision)) {
	s.stateMutex.Lock()
	s.onDecision = callback
	s.stateMutex.Unlock()
}

// State returns a copy of the scanner's current view
func (s *Scanner) State() Snapshot {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	snap := s.snapshot
	if snap.LastDecision != nil {
		d := *snap.LastDecision
		snap.LastDecision = &d
	}
	return snap
}

// Run polls until ctx ends or the reader fails fatally. It returns nil on
// cancellation.
func (s *Scanner) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-timer.C:
		}

		if err := s.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.shutdown()
				return nil
			}
			s.shutdown()
			return err
		}
		timer.Reset(s.config.PollInterval)
	}
}

// Step runs one scan iteration: a presence request and, if a card
// answered, anticollision, the access decision and StopCrypto. Per-card
// failures are logged and end the iteration; only fatal reader errors and
// cancellation are returned.
func (s *Scanner) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		s.setState(StateShutdown)
		return err
	}
	s.setState(StateIdleScan)
	s.checkSleep(ctx)

	s.stateMutex.Lock()
	s.snapshot.Scans++
	s.stateMutex.Unlock()

	if _, err := s.reader.Request(mfrc522.PICCReqIdl); err != nil {
		// Any failed request counts as the card having left the field.
		s.presence.clear()
		if mfrc522.IsNoCard(err) {
			s.failures = 0
			return nil
		}
		return s.readerError(ctx, "request", err)
	}
	s.failures = 0

	s.setState(StateCardDetected)
	uid, err := s.reader.Anticoll()
	if err != nil {
		mfrc522.Debugf("anticollision failed, retrying: %v", err)
		s.setState(StateIdleScan)
		return s.readerError(ctx, "anticollision", err)
	}
	_ = s.reader.SelectTag(uid)

	uidStr := uid.String()
	mfrc522.Debugf("card scanned: %s (%s)", uidStr, uid.Hex())
	s.setState(StateUIDResolved)

	if s.presence.suppress(uidStr, s.now(), s.config.Debounce) {
		mfrc522.Debugf("UID %s still in field, skipping decision", uidStr)
	} else {
		s.decide(ctx, uid, uidStr)
		s.presence.decided(uidStr, s.now())
	}

	if err := s.reader.StopCrypto(); err != nil {
		mfrc522.Debugf("stop crypto failed: %v", err)
	}
	s.setState(StateIdleScan)
	return nil
}

func (s *Scanner) decide(ctx context.Context, uid mfrc522.UID, uidStr string) {
	decision := Decision{Time: s.now(), UID: uid, UIDString: uidStr}

	authorized, err := s.authorizer.IsAuthorized(ctx, uidStr)
	if err != nil {
		if !errors.Is(err, mfrc522.ErrExternalService) {
			err = mfrc522.NewExternalServiceError("authorize", err)
		}
		mfrc522.Debugf("unable to verify UID %s, treating as unauthorized: %v", uidStr, err)
		decision.Err = err
		authorized = false
	}
	decision.Authorized = authorized

	// The grant pulse and the records finish even if shutdown was requested
	// while the card was being handled.
	bg := context.WithoutCancel(ctx)

	if authorized {
		s.setState(StateAuthorized)
		mfrc522.Debugf("access granted: %s", uidStr)
		if err := actuator.Pulse(bg, s.output, s.config.GrantDuration); err != nil {
			mfrc522.Debugf("grant output failed: %v", err)
		}
		s.logAccess(bg, uidStr, true)
	} else {
		s.setState(StateDenied)
		mfrc522.Debugf("access denied: %s", uidStr)
		s.logAccess(bg, uidStr, false)
		if s.config.RecordUnknown {
			if err := s.registry.RecordUnknown(bg, uidStr); err != nil {
				mfrc522.Debugf("failed to record unknown UID %s: %v", uidStr, err)
			}
		}
	}

	s.stateMutex.Lock()
	s.snapshot.Decisions++
	d := decision
	s.snapshot.LastDecision = &d
	cb := s.onDecision
	s.stateMutex.Unlock()
	if cb != nil {
		cb(decision)
	}
}

func (s *Scanner) logAccess(ctx context.Context, uid string, authorized bool) {
	if err := s.audit.LogAccess(ctx, uid, authorized); err != nil {
		mfrc522.Debugf("failed to log access for UID %s: %v", uid, err)
	}
}

// readerError classifies a failed chip exchange. Protocol failures end the
// iteration; repeated transport failures trigger recovery; fatal ones stop
// the loop.
func (s *Scanner) readerError(ctx context.Context, op string, err error) error {
	if mfrc522.IsFatal(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var te *mfrc522.TransportError
	if !errors.As(err, &te) {
		// The chip answered, so the bus is fine.
		s.failures = 0
		mfrc522.Debugf("%s failed: %v", op, err)
		return nil
	}

	s.failures++
	mfrc522.Debugf("%s transport failure %d: %v", op, s.failures, err)
	threshold := s.config.TransportFailureThreshold
	if threshold <= 0 || s.failures < threshold || s.recoverer == nil {
		return nil
	}

	s.failures = 0
	if rerr := s.recoverer.AttemptRecovery(ctx); rerr != nil {
		if mfrc522.IsFatal(rerr) {
			return fmt.Errorf("recovery after %s failure: %w", op, rerr)
		}
		mfrc522.Debugf("recovery failed: %v", rerr)
	}
	return nil
}

// checkSleep re-initializes the chip when the gap since the previous poll
// suggests the host was suspended.
func (s *Scanner) checkSleep(ctx context.Context) {
	now := s.now()
	last := s.lastPoll
	s.lastPoll = now
	if last.IsZero() || s.recoverer == nil {
		return
	}
	if !s.config.SleepRecovery.DetectSleep(now.Sub(last), s.config.PollInterval) {
		return
	}
	mfrc522.Debugf("poll gap of %v, re-initializing reader", now.Sub(last))
	if err := s.recoverer.AttemptRecovery(ctx); err != nil {
		mfrc522.Debugf("sleep recovery failed: %v", err)
	}
}

func (s *Scanner) setState(to State) {
	s.stateMutex.Lock()
	from := s.snapshot.State
	s.snapshot.State = to
	cb := s.onStateChange
	s.stateMutex.Unlock()

	if cb != nil && from != to {
		cb(from, to)
	}
}

// shutdown drives the output off and enters StateShutdown.
func (s *Scanner) shutdown() {
	if err := s.output.SetOutput(false); err != nil {
		mfrc522.Debugf("output off failed: %v", err)
	}
	s.setState(StateShutdown)
}

// Close stops the output and releases the output and reader. It is safe to
// call more than once.
func (s *Scanner) Close() error {
	s.closeMutex.Lock()
	defer s.closeMutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.shutdown()
	return errors.Join(s.output.Close(), s.reader.Close())
}
