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

// EncodeWrite builds the bus frame that writes value to reg.
func EncodeWrite(reg, value byte) []byte {
	return []byte{(reg << 1) & AddressMask, value}
}

// EncodeRead builds the bus frame that reads reg. The second byte is a
// dummy clocked out while the value is clocked in.
func EncodeRead(reg byte) []byte {
	return []byte{((reg << 1) & AddressMask) | ReadFlag, 0}
}

// DecodeAddress splits an address byte into the register number and the
// read flag.
func DecodeAddress(b byte) (reg byte, read bool) {
	return (b & AddressMask) >> 1, b&ReadFlag != 0
}
