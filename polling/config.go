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

import "time"

// SleepRecoveryConfig configures re-initialization of the chip after a gap in
// polling, such as a host suspend, during which the reader may have lost power.
type SleepRecoveryConfig struct {
	// Enabled enables sleep detection and recovery attempts
	Enabled bool

	// TimeDiscontinuityThreshold is the minimum elapsed time beyond the expected
	// poll interval that indicates a sleep occurred. Default: 2 seconds
	TimeDiscontinuityThreshold time.Duration

	// MaxRecoveryAttempts is the number of re-init attempts. Default: 3
	MaxRecoveryAttempts int

	// RecoveryBackoff is the delay between recovery attempts
	RecoveryBackoff time.Duration
}

// DefaultSleepRecoveryConfig returns sensible defaults for sleep recovery
func DefaultSleepRecoveryConfig() SleepRecoveryConfig {
	return SleepRecoveryConfig{
		Enabled:                    true,
		TimeDiscontinuityThreshold: 2 * time.Second,
		MaxRecoveryAttempts:        3,
		RecoveryBackoff:            500 * time.Millisecond,
	}
}

// DetectSleep checks if the elapsed time since last poll indicates a system sleep.
// Returns true if elapsed time exceeds (pollInterval + TimeDiscontinuityThreshold).
func (cfg SleepRecoveryConfig) DetectSleep(elapsed, pollInterval time.Duration) bool {
	if !cfg.Enabled {
		return false
	}
	expectedMax := pollInterval + cfg.TimeDiscontinuityThreshold
	return elapsed > expectedMax
}

// Config holds scan loop configuration options
type Config struct {
	// PollInterval is the pause between two presence requests
	PollInterval time.Duration
	// GrantDuration is how long the output stays on for an authorized card
	GrantDuration time.Duration
	// Debounce suppresses a second decision for a UID that never left the
	// field, until this much time has passed. Zero decides on every scan.
	Debounce time.Duration
	// TransportFailureThreshold is the number of consecutive transport
	// failures after which the chip is re-initialized. Zero disables it.
	TransportFailureThreshold int
	// SleepRecovery configures re-initialization after host sleep
	SleepRecovery SleepRecoveryConfig
	// RecordUnknown sends denied UIDs to the unknown-card registry
	RecordUnknown bool
}

// DefaultConfig returns the default scan loop configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:              200 * time.Millisecond,
		GrantDuration:             2 * time.Second,
		TransportFailureThreshold: 3,
		SleepRecovery:             DefaultSleepRecoveryConfig(),
		RecordUnknown:             true,
	}
}
