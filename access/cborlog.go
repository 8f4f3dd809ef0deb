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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// Record is one audit log entry.
type Record struct {
	_          struct{} `cbor:",toarray"`
	Time       time.Time
	UID        string
	Authorized bool
}

// Unknown is one refused card in the registry.
type Unknown struct {
	_    struct{} `cbor:",toarray"`
	Time time.Time
	UID  string
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// recordFile appends CBOR items to a file, one item per entry.
type recordFile struct {
	f   *os.File
	now func() time.Time
	mu  syncutil.Mutex
}

func openRecordFile(path string) (*recordFile, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &recordFile{f: f, now: time.Now}, nil
}

func (r *recordFile) append(ctx context.Context, item any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encMode.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return os.ErrClosed
	}
	if _, err := r.f.Write(b); err != nil {
		return err
	}
	return r.f.Sync()
}

func (r *recordFile) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// FileAuditLog appends Records to a CBOR file.
type FileAuditLog struct {
	file *recordFile
}

// OpenAuditLog opens or creates the audit log at path
func OpenAuditLog(path string) (*FileAuditLog, error) {
	f, err := openRecordFile(path)
	if err != nil {
		return nil, wrapService("open audit log", err)
	}
	return &FileAuditLog{file: f}, nil
}

// LogAccess implements AuditLog
func (l *FileAuditLog) LogAccess(ctx context.Context, uid string, authorized bool) error {
	rec := Record{Time: l.file.now().UTC(), UID: uid, Authorized: authorized}
	if err := l.file.append(ctx, rec); err != nil {
		return wrapService("log access", err)
	}
	mfrc522.Debugf("logged access for UID %s (authorized: %t)", uid, authorized)
	return nil
}

// Close closes the file
func (l *FileAuditLog) Close() error {
	return l.file.close()
}

// FileRegistry appends Unknown entries to a CBOR file.
type FileRegistry struct {
	file *recordFile
}

// OpenRegistry opens or creates the registry at path
func OpenRegistry(path string) (*FileRegistry, error) {
	f, err := openRecordFile(path)
	if err != nil {
		return nil, wrapService("open registry", err)
	}
	return &FileRegistry{file: f}, nil
}

// RecordUnknown implements Registry
func (r *FileRegistry) RecordUnknown(ctx context.Context, uid string) error {
	if err := r.file.append(ctx, Unknown{Time: r.file.now().UTC(), UID: uid}); err != nil {
		return wrapService("record unknown", err)
	}
	return nil
}

// Close closes the file
func (r *FileRegistry) Close() error {
	return r.file.close()
}

// ReadRecords decodes every audit Record from r
func ReadRecords(r io.Reader) ([]Record, error) {
	return readAll[Record](r)
}

// ReadUnknowns decodes every registry entry from r
func ReadUnknowns(r io.Reader) ([]Unknown, error) {
	return readAll[Unknown](r)
}

func readAll[T any](r io.Reader) ([]T, error) {
	dec := decMode.NewDecoder(r)
	var out []T
	for {
		var item T
		err := dec.Decode(&item)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("decode entry %d: %w", len(out), err)
		}
		out = append(out, item)
	}
}
