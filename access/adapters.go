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

package access

import (
	"context"
	"time"
)

// DefaultTimeout bounds one external lookup.
const DefaultTimeout = 10 * time.Second

type timeoutAuthorizer struct {
	next    Authorizer
	timeout time.Duration
}

// WithTimeout bounds every IsAuthorized call. A non-positive timeout means
// DefaultTimeout.
func WithTimeout(next Authorizer, timeout time.Duration) Authorizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutAuthorizer{next: next, timeout: timeout}
}

func (a *timeoutAuthorizer) IsAuthorized(ctx context.Context, uid string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type answer struct {
		err error
		ok  bool
	}
	done := make(chan answer, 1)
	go func() {
		ok, err := a.next.IsAuthorized(ctx, uid)
		done <- answer{ok: ok, err: err}
	}()

	select {
	case res := <-done:
		return res.ok, wrapService("authorize", res.err)
	case <-ctx.Done():
		return false, wrapService("authorize", ctx.Err())
	}
}

type retryAuthorizer struct {
	next   Authorizer
	config *RetryConfig
}

// WithRetry retries failed IsAuthorized calls according to config. A nil
// config means DefaultRetryConfig.
func WithRetry(next Authorizer, config *RetryConfig) Authorizer {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &retryAuthorizer{next: next, config: config}
}

func (a *retryAuthorizer) IsAuthorized(ctx context.Context, uid string) (bool, error) {
	var ok bool
	err := RetryWithConfig(ctx, a.config, func(ctx context.Context) error {
		var err error
		ok, err = a.next.IsAuthorized(ctx, uid)
		return err
	})
	if err != nil {
		return false, wrapService("authorize", err)
	}
	return ok, nil
}

type timeoutAudit struct {
	next    AuditLog
	timeout time.Duration
}

// AuditWithTimeout bounds every LogAccess call.
func AuditWithTimeout(next AuditLog, timeout time.Duration) AuditLog {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutAudit{next: next, timeout: timeout}
}

func (a *timeoutAudit) LogAccess(ctx context.Context, uid string, authorized bool) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return wrapService("log access", a.next.LogAccess(ctx, uid, authorized))
}
