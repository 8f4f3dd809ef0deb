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
	"fmt"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// State is a scan loop state.
type State int

const (
	// StateIdleScan polls for a card with REQA
	StateIdleScan State = iota
	// StateCardDetected runs anticollision on a card that answered
	StateCardDetected
	// StateUIDResolved consults the authorizer
	StateUIDResolved
	// StateAuthorized drives the grant pulse and audits the grant
	StateAuthorized
	// StateDenied audits the refusal and records the unknown card
	StateDenied
	// StateShutdown is terminal
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateIdleScan:
		return "IdleScan"
	case StateCardDetected:
		return "CardDetected"
	case StateUIDResolved:
		return "UIDResolved"
	case StateAuthorized:
		return "Authorized"
	case StateDenied:
		return "Denied"
	case StateShutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is the outcome for one scanned card.
type Decision struct {
	Time time.Time
	// Err is the authorizer failure that forced a denial, if any
	Err        error
	UIDString  string
	UID        mfrc522.UID
	Authorized bool
}

// Snapshot is a point-in-time view of the scanner.
type Snapshot struct {
	LastDecision *Decision
	State        State
	Scans        uint64
	Decisions    uint64
}

// presence tracks the card currently in the field for debouncing.
type presence struct {
	decidedAt time.Time
	uid       string
}

func (p *presence) clear() {
	p.uid = ""
	p.decidedAt = time.Time{}
}

// suppress reports whether uid was already decided within window and has
// not left the field since.
func (p *presence) suppress(uid string, now time.Time, window time.Duration) bool {
	if window <= 0 || p.uid != uid {
		return false
	}
	return now.Sub(p.decidedAt) < window
}

func (p *presence) decided(uid string, now time.Time) {
	p.uid = uid
	p.decidedAt = now
}
