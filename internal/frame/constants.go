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

// SPI address byte layout, MFRC522 datasheet section 8.1.2.3
const (
	ReadFlag    = 0x80 // MSB set for a register read
	AddressMask = 0x7E // register address occupies bits 6..1
	MaxRegister = 0x3F // 6-bit register space
)

// FrameLen is the length of a single register access on the bus: one address
// byte and one data byte.
const FrameLen = 2
