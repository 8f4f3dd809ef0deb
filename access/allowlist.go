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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// Member is one allow-list entry.
type Member struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
}

type allowListFile struct {
	Members []Member `json:"members"`
}

// AllowList is an Authorizer backed by a JSON file of members:
//
//	{"members": [{"uid": "4,210,88,12,130", "name": "front desk"}]}
//
// Reload re-reads the file; lookups keep using the previous contents if the
// new file is invalid.
type AllowList struct {
	members map[string]string
	path    string
	mu      syncutil.RWMutex
}

// LoadAllowList reads the allow-list at path
func LoadAllowList(path string) (*AllowList, error) {
	l := &AllowList{path: path}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the backing file
func (l *AllowList) Reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return wrapService("load allow-list", err)
	}

	var file allowListFile
	if err := json.Unmarshal(data, &file); err != nil {
		return wrapService("load allow-list", fmt.Errorf("parse %s: %w", l.path, err))
	}

	members := make(map[string]string, len(file.Members))
	var errs []error
	for _, m := range file.Members {
		uid, err := mfrc522.ParseUID(m.UID)
		if err != nil {
			errs = append(errs, fmt.Errorf("member %q: %w", m.Name, err))
			continue
		}
		members[uid.String()] = m.Name
	}
	if len(errs) > 0 {
		return wrapService("load allow-list", errors.Join(errs...))
	}

	l.mu.Lock()
	l.members = members
	l.mu.Unlock()
	mfrc522.Debugf("allow-list %s: %d members", l.path, len(members))
	return nil
}

// IsAuthorized implements Authorizer
func (l *AllowList) IsAuthorized(ctx context.Context, uid string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, wrapService("authorize", err)
	}
	l.mu.RLock()
	name, ok := l.members[uid]
	l.mu.RUnlock()
	if ok {
		mfrc522.Debugf("UID %s is authorized (member: %s)", uid, name)
	}
	return ok, nil
}

// Name returns the member name stored for uid
func (l *AllowList) Name(uid string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name, ok := l.members[uid]
	return name, ok
}

// Len returns the number of members
func (l *AllowList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.members)
}
