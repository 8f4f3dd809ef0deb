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

// Package access holds the collaborators the scan loop consults once a card
// UID is known: the authorization oracle, the audit log and the registry of
// unknown cards. UIDs cross this boundary as the comma-joined decimal string
// produced by mfrc522.UID.String.
package access

import (
	"context"
	"fmt"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Authorizer answers whether a UID may pass.
type Authorizer interface {
	IsAuthorized(ctx context.Context, uid string) (bool, error)
}

// AuditLog records every decision.
type AuditLog interface {
	LogAccess(ctx context.Context, uid string, authorized bool) error
}

// Registry records cards that were refused.
type Registry interface {
	RecordUnknown(ctx context.Context, uid string) error
}

// AuthorizerFunc adapts a function to Authorizer
type AuthorizerFunc func(ctx context.Context, uid string) (bool, error)

// IsAuthorized implements Authorizer
func (f AuthorizerFunc) IsAuthorized(ctx context.Context, uid string) (bool, error) {
	return f(ctx, uid)
}

// AuditFunc adapts a function to AuditLog
type AuditFunc func(ctx context.Context, uid string, authorized bool) error

// LogAccess implements AuditLog
func (f AuditFunc) LogAccess(ctx context.Context, uid string, authorized bool) error {
	return f(ctx, uid, authorized)
}

// RegistryFunc adapts a function to Registry
type RegistryFunc func(ctx context.Context, uid string) error

// RecordUnknown implements Registry
func (f RegistryFunc) RecordUnknown(ctx context.Context, uid string) error {
	return f(ctx, uid)
}

// Discard is an AuditLog and Registry that drops everything.
var Discard discard

type discard struct{}

func (discard) LogAccess(context.Context, string, bool) error { return nil }
func (discard) RecordUnknown(context.Context, string) error   { return nil }

// StaticList authorizes a fixed set of UIDs.
type StaticList map[string]bool

// NewStaticList builds a StaticList from UID strings. Every entry must parse
// as a UID so typos surface at startup instead of as silent denials.
func NewStaticList(uids ...string) (StaticList, error) {
	list := make(StaticList, len(uids))
	for _, s := range uids {
		uid, err := mfrc522.ParseUID(s)
		if err != nil {
			return nil, fmt.Errorf("allow-list entry %q: %w", s, err)
		}
		list[uid.String()] = true
	}
	return list, nil
}

// IsAuthorized implements Authorizer
func (l StaticList) IsAuthorized(_ context.Context, uid string) (bool, error) {
	return l[uid], nil
}

func wrapService(op string, err error) error {
	if err == nil {
		return nil
	}
	return mfrc522.NewExternalServiceError(op, err)
}
