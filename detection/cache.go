// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package detection

import (
	"strings"
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/syncutil"
)

// cacheEntry holds cached detection results.
type cacheEntry struct {
	timestamp time.Time
	devices   []DeviceInfo
}

// detectionCache provides thread-safe caching of detection results.
type detectionCache struct {
	entries map[string]cacheEntry
	mu      syncutil.RWMutex
}

// global cache instance.
var cache = &detectionCache{
	entries: make(map[string]cacheEntry),
}

// cacheKey identifies the candidate sources of a detection run. Probe
// overrides are not part of the key.
func cacheKey(opts *Options) string {
	return opts.DeviceGlob + "|" + strings.Join(opts.ConfigPaths, ",")
}

// getCached returns cached devices if available and not expired
func getCached(key string, ttl time.Duration) ([]DeviceInfo, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	entry, exists := cache.entries[key]
	if !exists || time.Since(entry.timestamp) > ttl {
		return nil, false
	}

	devices := make([]DeviceInfo, len(entry.devices))
	copy(devices, entry.devices)
	return devices, true
}

// setCached stores detection results in cache
func setCached(key string, devices []DeviceInfo) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	devicesCopy := make([]DeviceInfo, len(devices))
	copy(devicesCopy, devices)
	cache.entries[key] = cacheEntry{
		devices:   devicesCopy,
		timestamp: time.Now(),
	}
}

// clearCache removes all cached entries
func clearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries = make(map[string]cacheEntry)
}

// clearCacheEntry removes the entry for key
func clearCacheEntry(key string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.entries, key)
}
