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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents one configured reader
type Config struct {
	// Additional metadata
	Metadata map[string]string `json:"metadata,omitempty"`
	// Device path (e.g., "/dev/spidev0.0")
	Device string `json:"device"`
	// Human-readable name
	Name string `json:"name,omitempty"`
	// ResetPin is the GPIO name wired to NRSTPD
	ResetPin string `json:"reset_pin,omitempty"`
	// SpeedHz is the SPI clock
	SpeedHz uint32 `json:"speed_hz,omitempty"`
}

// Environment variables read by gatherConfigs.
const (
	EnvDevice   = "MFRC522_SPI_DEVICE"
	EnvResetPin = "MFRC522_RESET_PIN"
	EnvSpeedHz  = "MFRC522_SPI_SPEED_HZ"
)

// DefaultConfigPaths returns the locations searched for a device list
func DefaultConfigPaths() []string {
	paths := []string{"mfrc522-spi.json", ".mfrc522-spi.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mfrc522", "spi.json"))
	}
	return append(paths, "/etc/mfrc522/spi.json")
}

// gatherConfigs collects configurations from all sources
func gatherConfigs(opts *Options) []Config {
	var configs []Config

	paths := opts.ConfigPaths
	if paths == nil {
		paths = DefaultConfigPaths()
	}
	configs = append(configs, loadConfigFile(paths)...)

	if envConfig := loadEnvConfig(); envConfig != nil {
		configs = append(configs, *envConfig)
	}

	if opts.DeviceGlob != "" {
		configs = append(configs, globDevices(opts.DeviceGlob)...)
	}

	return deduplicateConfigs(configs)
}

// loadConfigFile loads configurations from the first readable file in paths.
// The file holds either a list of configs or a single one.
func loadConfigFile(paths []string) []Config {
	for _, path := range paths {
		// #nosec G304 -- config locations, not request input
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var configs []Config
		if err := json.Unmarshal(data, &configs); err != nil {
			var single Config
			if err := json.Unmarshal(data, &single); err == nil && single.Device != "" {
				return []Config{single}
			}
			continue
		}
		return configs
	}
	return nil
}

// loadEnvConfig loads a configuration from environment variables
func loadEnvConfig() *Config {
	device := os.Getenv(EnvDevice)
	if device == "" {
		return nil
	}

	config := Config{
		Device:   device,
		Name:     "SPI device from environment",
		ResetPin: os.Getenv(EnvResetPin),
	}
	if speed := os.Getenv(EnvSpeedHz); speed != "" {
		if hz, err := strconv.ParseUint(speed, 10, 32); err == nil {
			config.SpeedHz = uint32(hz)
		}
	}
	return &config
}

// globDevices lists the device nodes matching pattern
func globDevices(pattern string) []Config {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}

	configs := make([]Config, 0, len(matches))
	for _, path := range matches {
		if _, err := os.Stat(path); err == nil {
			configs = append(configs, Config{
				Device: path,
				Name:   fmt.Sprintf("SPI device %s", filepath.Base(path)),
			})
		}
	}
	return configs
}

// deduplicateConfigs keeps the first configuration seen for each device
func deduplicateConfigs(configs []Config) []Config {
	seen := make(map[string]bool)
	var unique []Config

	for _, config := range configs {
		if config.Device == "" || seen[config.Device] {
			continue
		}
		seen[config.Device] = true
		unique = append(unique, config)
	}
	return unique
}
