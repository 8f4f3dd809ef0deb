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

package detection

import (
	"context"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/transport/spidev"
)

// probeVersion opens the spidev node and reads VersionReg without touching
// any other register. The reset pin is left alone; a chip held in power down
// reads as absent.
func probeVersion(ctx context.Context, cfg Config) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	busCfg := spidev.DefaultConfig(cfg.Device)
	if cfg.SpeedHz != 0 {
		busCfg.SpeedHz = cfg.SpeedHz
	}
	bus, err := spidev.New(busCfg)
	if err != nil {
		return 0, err
	}

	reader, err := mfrc522.New(bus, mfrc522.FixedResetLine{}, mfrc522.WithoutInit())
	if err != nil {
		return 0, err
	}
	// Reader.Close would switch the antenna off; only the bus is released.
	defer func() { _ = bus.Close() }()

	return reader.Version()
}
