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

// Package detection finds MFRC522 readers wired to SPI buses. Candidates come
// from a JSON config file, the MFRC522_SPI_DEVICE environment variable and
// the spidev nodes present on the host; Safe mode confirms each one by
// reading VersionReg.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Mode represents the level of invasiveness for device detection
type Mode int

const (
	// Passive mode only lists candidate device nodes
	Passive Mode = iota
	// Safe mode reads VersionReg from each candidate
	Safe
)

// Confidence represents the confidence level of device detection
type Confidence int

const (
	// Low confidence - a device node exists
	Low Confidence = iota
	// High confidence - VersionReg reported an MFRC522 or a known clone
	High
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// DeviceInfo represents a detected reader
type DeviceInfo struct {
	// Additional metadata from the config file
	Metadata map[string]string
	// Connection path (e.g., "/dev/spidev0.0")
	Path string
	// Human-readable device name
	Name string
	// ResetPin is the GPIO name wired to NRSTPD, if configured
	ResetPin string
	// SpeedHz is the configured SPI clock, 0 for the default
	SpeedHz uint32
	// Detection confidence level
	Confidence Confidence
	// Version is the VersionReg value read by the probe
	Version byte
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	if d.Confidence == High {
		return fmt.Sprintf("%s at %s (confidence: %s)", mfrc522.VersionName(d.Version), d.Path, d.Confidence)
	}
	return fmt.Sprintf("spi device at %s (confidence: %s)", d.Path, d.Confidence)
}

// ProbeFunc reads VersionReg from the device at path
type ProbeFunc func(ctx context.Context, cfg Config) (byte, error)

// Options configures the detection behavior
type Options struct {
	// Probe overrides the VersionReg probe, mainly for tests
	Probe ProbeFunc
	// ConfigPaths are searched in order for a JSON device list; nil means
	// DefaultConfigPaths
	ConfigPaths []string
	// Device paths to explicitly ignore (e.g., ["/dev/spidev0.1"])
	IgnorePaths []string
	// DeviceGlob selects spidev nodes; empty disables the scan
	DeviceGlob string
	// Cache TTL duration
	CacheTTL time.Duration
	// Maximum time to wait for one probe
	ProbeTimeout time.Duration
	// Detection invasiveness level
	Mode Mode
	// Enable result caching
	EnableCache bool
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		Mode:         Safe,
		DeviceGlob:   "/dev/spidev*",
		ProbeTimeout: 2 * time.Second,
		EnableCache:  true,
		CacheTTL:     30 * time.Second,
	}
}

// Errors
var (
	// ErrNoDevicesFound indicates no reader was detected
	ErrNoDevicesFound = errors.New("no MFRC522 devices found")
	// ErrDetectionTimeout indicates detection timed out
	ErrDetectionTimeout = errors.New("detection timeout")
)

// Detect searches for readers
func Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	key := cacheKey(opts)
	if opts.EnableCache {
		if cached, found := getCached(key, opts.CacheTTL); found {
			return filterDevices(cached, opts), nil
		}
	}

	devices, err := detect(ctx, opts)

	if opts.EnableCache {
		if len(devices) > 0 {
			setCached(key, devices)
		} else {
			// A reader that was unplugged must not be served from the cache
			clearCacheEntry(key)
		}
	}
	return devices, err
}

func detect(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	configs := gatherConfigs(opts)
	if len(configs) == 0 {
		return nil, ErrNoDevicesFound
	}

	probe := opts.Probe
	if probe == nil {
		probe = probeVersion
	}

	var devices []DeviceInfo
	for _, cfg := range configs {
		select {
		case <-ctx.Done():
			return devices, ErrDetectionTimeout
		default:
		}

		if IsPathIgnored(cfg.Device, opts.IgnorePaths) {
			continue
		}

		device := createDeviceInfo(cfg)
		if opts.Mode == Passive {
			devices = append(devices, device)
			continue
		}

		if probeAndUpdateDevice(ctx, probe, cfg, &device, opts.ProbeTimeout) {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// createDeviceInfo creates a DeviceInfo from a Config
func createDeviceInfo(cfg Config) DeviceInfo {
	device := DeviceInfo{
		Path:       cfg.Device,
		Name:       cfg.Name,
		ResetPin:   cfg.ResetPin,
		SpeedHz:    cfg.SpeedHz,
		Confidence: Low,
		Metadata:   make(map[string]string, len(cfg.Metadata)),
	}
	for k, v := range cfg.Metadata {
		device.Metadata[k] = v
	}
	if device.Name == "" {
		device.Name = "SPI device at " + cfg.Device
	}
	return device
}

// probeAndUpdateDevice probes a device and raises its confidence if the chip
// answers with a known version.
func probeAndUpdateDevice(ctx context.Context, probe ProbeFunc, cfg Config, device *DeviceInfo, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	version, err := probe(probeCtx, cfg)
	if err != nil {
		mfrc522.Debugf("probe %s failed: %v", cfg.Device, err)
		return false
	}
	if !KnownVersion(version) {
		mfrc522.Debugf("probe %s: %s", cfg.Device, mfrc522.VersionName(version))
		return false
	}

	device.Version = version
	device.Confidence = High
	return true
}

// KnownVersion reports whether v is a VersionReg value of a supported chip
func KnownVersion(v byte) bool {
	switch v {
	case mfrc522.VersionMFRC522v1, mfrc522.VersionMFRC522v2, mfrc522.VersionFM17522:
		return true
	default:
		return false
	}
}

// filterDevices applies IgnorePaths to a device list so cached results
// respect the same filtering as fresh detection.
func filterDevices(devices []DeviceInfo, opts *Options) []DeviceInfo {
	if len(opts.IgnorePaths) == 0 {
		return devices
	}

	var filtered []DeviceInfo
	for _, device := range devices {
		if !IsPathIgnored(device.Path, opts.IgnorePaths) {
			filtered = append(filtered, device)
		}
	}
	return filtered
}

// ClearDetectionCache removes all cached detection results
func ClearDetectionCache() {
	clearCache()
}
