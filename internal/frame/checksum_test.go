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

package frame

import "testing"

func TestBCC(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{name: "empty data", data: []byte{}, want: 0},
		{name: "single byte", data: []byte{0x42}, want: 0x42},
		{name: "datasheet uid", data: []byte{0x04, 0xD2, 0x58, 0x0C}, want: 0x82},
		{name: "self cancelling", data: []byte{0xAA, 0xAA}, want: 0},
		{name: "all ones", data: []byte{0xFF, 0xFF, 0xFF}, want: 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BCC(tt.data); got != tt.want {
				t.Errorf("BCC(% X) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
			}
		})
	}
}

func TestBCC_FullUIDIsZero(t *testing.T) {
	t.Parallel()

	id := []byte{0x9C, 0x21, 0x7F, 0x03}
	uid := append(id, BCC(id))
	if got := BCC(uid); got != 0 {
		t.Errorf("XOR over a valid uid with its BCC = 0x%02X, want 0", got)
	}
}
