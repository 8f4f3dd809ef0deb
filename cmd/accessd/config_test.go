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

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-mfrc522/actuator"
)

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accessd.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MFRC522_RESET_PIN", envName("reset-pin"))
	assert.Equal(t, "MFRC522_ALLOW_LIST", envName("allow-list"))
	assert.Equal(t, "MFRC522_DEBUG", envName("debug"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig([]string{"-allow-list", "members.json"}, envFrom(nil), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "members.json", cfg.allowList)
	assert.Equal(t, backendSpidev, cfg.backend)
	assert.Equal(t, 200*time.Millisecond, cfg.pollInterval)
	assert.Equal(t, 2*time.Second, cfg.grantDuration)
	assert.Equal(t, 10*time.Second, cfg.authTimeout)
	assert.Equal(t, byte(1), cfg.relayChannel)
	assert.True(t, cfg.recordUnknown)
	assert.False(t, cfg.debug)
}

func TestLoadConfig_Layering(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `{
		"allow-list": "file.json",
		"device": "/dev/spidev0.0",
		"speed-hz": 2000000,
		"poll-interval": "500ms",
		"record-unknown": false,
		"reset-pin": "GPIO25"
	}`)
	env := envFrom(map[string]string{
		"MFRC522_DEVICE":        "/dev/spidev1.0",
		"MFRC522_POLL_INTERVAL": "300ms",
	})
	args := []string{"-config", path, "-poll-interval", "100ms", "-debug"}

	cfg, err := loadConfig(args, env, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "file.json", cfg.allowList, "file value kept")
	assert.Equal(t, uint32(2000000), cfg.speedHz, "numbers accepted in file")
	assert.False(t, cfg.recordUnknown, "booleans accepted in file")
	assert.Equal(t, "GPIO25", cfg.resetPin)
	assert.Equal(t, "/dev/spidev1.0", cfg.device, "env overrides file")
	assert.Equal(t, 100*time.Millisecond, cfg.pollInterval, "flag overrides env")
	assert.True(t, cfg.debug)
}

func TestLoadConfig_UARTBackend(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{"MFRC522_BACKEND": "uart", "MFRC522_BAUD": "115200"})
	cfg, err := loadConfig([]string{"-allow-list", "a", "-device", "/dev/ttyUSB0"}, env, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, backendUART, cfg.backend)
	assert.Equal(t, 115200, cfg.baud)
}

func TestLoadConfig_ConfigPathFromEnv(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `{"allow-list": "env-file.json"}`)
	cfg, err := loadConfig(nil, envFrom(map[string]string{"MFRC522_CONFIG": path}), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "env-file.json", cfg.allowList)
	assert.Equal(t, path, cfg.configPath)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  map[string]string
		name string
		file string
		args []string
	}{
		{name: "missing allow-list", args: nil},
		{name: "unknown backend", args: []string{"-allow-list", "a", "-backend", "usb"}},
		{name: "i2c without device", args: []string{"-allow-list", "a", "-backend", "i2c"}},
		{name: "uart without device", args: []string{"-allow-list", "a", "-backend", "uart"}},
		{name: "zero baud", args: []string{"-allow-list", "a", "-baud", "0"}},
		{name: "bad duration", args: []string{"-allow-list", "a", "-grant-duration", "soon"}},
		{name: "negative duration", args: []string{"-allow-list", "a", "-debounce", "-1s"}},
		{name: "zero poll interval", args: []string{"-allow-list", "a", "-poll-interval", "0s"}},
		{name: "relay channel zero", args: []string{"-allow-list", "a", "-relay-channel", "0"}},
		{name: "relay channel overflow", args: []string{"-allow-list", "a", "-relay-channel", "300"}},
		{name: "relay and led", args: []string{"-allow-list", "a", "-relay-port", "/dev/ttyUSB0", "-led-pin", "GPIO17"}},
		{name: "positional argument", args: []string{"-allow-list", "a", "extra"}},
		{name: "unknown flag", args: []string{"-allow-list", "a", "-colour", "red"}},
		{name: "bad env", args: []string{"-allow-list", "a"}, env: map[string]string{"MFRC522_SPEED_HZ": "fast"}},
		{name: "unknown file key", file: `{"allow-list": "a", "colour": "red"}`},
		{name: "malformed file", file: `{"allow-list": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args := tt.args
			if tt.file != "" {
				args = append([]string{"-config", writeConfigFile(t, tt.file)}, args...)
			}
			cfg, err := loadConfig(args, envFrom(tt.env), io.Discard)
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadConfig([]string{"-config", filepath.Join(t.TempDir(), "nope.json")}, envFrom(nil), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestPollingConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig([]string{
		"-allow-list", "a", "-poll-interval", "50ms", "-grant-duration", "1s", "-debounce", "3s", "-record-unknown=false",
	}, envFrom(nil), io.Discard)
	require.NoError(t, err)

	pc := cfg.pollingConfig()
	assert.Equal(t, 50*time.Millisecond, pc.PollInterval)
	assert.Equal(t, time.Second, pc.GrantDuration)
	assert.Equal(t, 3*time.Second, pc.Debounce)
	assert.False(t, pc.RecordUnknown)
	assert.Equal(t, 3, pc.TransportFailureThreshold)
}

func TestOpenOutput_Default(t *testing.T) {
	t.Parallel()

	out, err := openOutput(defaultConfig())
	require.NoError(t, err)
	assert.IsType(t, actuator.Nop{}, out)
}

func TestOpenStores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.auditLog = filepath.Join(dir, "audit.cbor")
	cfg.registry = filepath.Join(dir, "unknown.cbor")

	closers, opts, err := openStores(cfg)
	require.NoError(t, err)
	assert.Len(t, closers, 2)
	assert.Len(t, opts, 2)
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	cfg.registry = filepath.Join(dir, "missing", "unknown.cbor")
	_, _, err = openStores(cfg)
	require.Error(t, err)
}
