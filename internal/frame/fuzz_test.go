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

// FuzzAddressRoundTrip checks that every register survives encode/decode for
// both directions and that the reserved bit stays clear.
func FuzzAddressRoundTrip(f *testing.F) {
	f.Add(byte(0x01), byte(0x0F))
	f.Add(byte(0x37), byte(0x00))
	f.Add(byte(0x3F), byte(0xFF))
	f.Add(byte(0xFF), byte(0x80))

	f.Fuzz(func(t *testing.T, reg, value byte) {
		want := reg & MaxRegister

		w := EncodeWrite(reg, value)
		if w[0]&0x01 != 0 || w[0]&ReadFlag != 0 {
			t.Fatalf("write address byte 0x%02X has reserved or read bit set", w[0])
		}
		if got, read := DecodeAddress(w[0]); got != want || read {
			t.Fatalf("write frame decoded to 0x%02X read=%v, want 0x%02X", got, read, want)
		}
		if w[1] != value {
			t.Fatalf("write value 0x%02X, want 0x%02X", w[1], value)
		}

		r := EncodeRead(reg)
		if got, read := DecodeAddress(r[0]); got != want || !read {
			t.Fatalf("read frame decoded to 0x%02X read=%v, want 0x%02X", got, read, want)
		}
		if r[1] != 0 {
			t.Fatalf("read frame dummy byte 0x%02X", r[1])
		}
	})
}

// FuzzBCC checks that appending the BCC always makes the XOR of the frame zero.
func FuzzBCC(f *testing.F) {
	f.Add([]byte{0x04, 0xD2, 0x58, 0x0C})
	f.Add([]byte{})
	f.Add([]byte{0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		withCheck := append(append([]byte(nil), data...), BCC(data))
		if got := BCC(withCheck); got != 0 {
			t.Errorf("BCC(% X) = 0x%02X, want 0", withCheck, got)
		}
	})
}
