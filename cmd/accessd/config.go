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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ZaparooProject/go-mfrc522/polling"
)

// config is the resolved process configuration. Values are layered:
// defaults, then the JSON file, then MFRC522_* environment variables, then
// command line flags.
type config struct {
	device        string
	backend       string
	resetPin      string
	ledPin        string
	relayPort     string
	allowList     string
	auditLog      string
	registry      string
	sessionLogDir string
	configPath    string
	pollInterval  time.Duration
	grantDuration time.Duration
	debounce      time.Duration
	authTimeout   time.Duration
	baud          int
	speedHz       uint32
	relayChannel  byte
	ledActiveLow  bool
	recordUnknown bool
	debug         bool
}

func defaultConfig() *config {
	defaults := polling.DefaultConfig()
	return &config{
		backend:       backendSpidev,
		pollInterval:  defaults.PollInterval,
		grantDuration: defaults.GrantDuration,
		authTimeout:   10 * time.Second,
		relayChannel:  1,
		recordUnknown: defaults.RecordUnknown,
	}
}

const (
	backendSpidev = "spidev"
	backendPeriph = "periph"
	backendI2C    = "i2c"
	backendUART   = "uart"
)

// setting binds one option to its JSON key, environment variable and flag.
// The flag name doubles as the JSON key.
type setting struct {
	set    func(c *config, v string) error
	name   string
	usage  string
	isBool bool
}

func stringSetting(name, usage string, field func(*config) *string) setting {
	return setting{name: name, usage: usage, set: func(c *config, v string) error {
		*field(c) = v
		return nil
	}}
}

func durationSetting(name, usage string, field func(*config) *time.Duration) setting {
	return setting{name: name, usage: usage, set: func(c *config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if d < 0 {
			return fmt.Errorf("negative duration %s", d)
		}
		*field(c) = d
		return nil
	}}
}

func boolSetting(name, usage string, field func(*config) *bool) setting {
	return setting{name: name, usage: usage, isBool: true, set: func(c *config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}}
}

var settings = []setting{
	stringSetting("device", "SPI device path (auto-detect if empty)", func(c *config) *string { return &c.device }),
	{name: "backend", usage: "host interface: spidev, periph, i2c or uart", set: func(c *config, v string) error {
		switch v {
		case backendSpidev, backendPeriph, backendI2C, backendUART:
			c.backend = v
			return nil
		default:
			return fmt.Errorf("unknown backend %q", v)
		}
	}},
	{name: "speed-hz", usage: "SPI clock in Hz", set: func(c *config, v string) error {
		hz, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		c.speedHz = uint32(hz)
		return nil
	}},
	{name: "baud", usage: "UART baud rate of the chip", set: func(c *config, v string) error {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if baud <= 0 {
			return fmt.Errorf("baud rate must be positive, got %d", baud)
		}
		c.baud = baud
		return nil
	}},
	stringSetting("reset-pin", "GPIO wired to NRSTPD (tied high if empty)", func(c *config) *string { return &c.resetPin }),
	stringSetting("led-pin", "GPIO of the grant indicator", func(c *config) *string { return &c.ledPin }),
	boolSetting("led-active-low", "drive the indicator pin low for on", func(c *config) *bool { return &c.ledActiveLow }),
	stringSetting("relay-port", "serial port of a USB relay module", func(c *config) *string { return &c.relayPort }),
	{name: "relay-channel", usage: "relay channel, starting at 1", set: func(c *config, v string) error {
		ch, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return err
		}
		c.relayChannel = byte(ch)
		return nil
	}},
	stringSetting("allow-list", "JSON allow-list file", func(c *config) *string { return &c.allowList }),
	stringSetting("audit-log", "CBOR audit log file", func(c *config) *string { return &c.auditLog }),
	stringSetting("registry", "CBOR unknown-card registry file", func(c *config) *string { return &c.registry }),
	durationSetting("poll-interval", "pause between presence requests", func(c *config) *time.Duration { return &c.pollInterval }),
	durationSetting("grant-duration", "how long the output stays on", func(c *config) *time.Duration { return &c.grantDuration }),
	durationSetting("debounce", "suppress repeat decisions for a card left on the reader", func(c *config) *time.Duration { return &c.debounce }),
	durationSetting("auth-timeout", "timeout of one allow-list lookup", func(c *config) *time.Duration { return &c.authTimeout }),
	boolSetting("record-unknown", "record denied cards in the registry", func(c *config) *bool { return &c.recordUnknown }),
	stringSetting("session-log", "directory for a debug session log", func(c *config) *string { return &c.sessionLogDir }),
	boolSetting("debug", "enable debug output", func(c *config) *bool { return &c.debug }),
}

// envName maps a setting to its environment variable, e.g. reset-pin to
// MFRC522_RESET_PIN.
func envName(name string) string {
	b := []byte("MFRC522_" + name)
	for i, c := range b {
		switch {
		case c == '-':
			b[i] = '_'
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// flagValue records a flag so it can be applied after the file and env
// layers.
type flagValue struct {
	seen   map[string]string
	name   string
	isBool bool
}

func (f *flagValue) String() string {
	if f.seen == nil {
		return ""
	}
	return f.seen[f.name]
}

func (f *flagValue) Set(v string) error {
	f.seen[f.name] = v
	return nil
}

func (f *flagValue) IsBoolFlag() bool { return f.isBool }

// loadConfig resolves the configuration from args and the environment
func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("accessd", flag.ContinueOnError)
	fs.SetOutput(stderr)

	seen := make(map[string]string)
	configPath := fs.String("config", "", "JSON config file (env MFRC522_CONFIG)")
	for _, s := range settings {
		fs.Var(&flagValue{seen: seen, name: s.name, isBool: s.isBool}, s.name, s.usage)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := defaultConfig()
	cfg.configPath = *configPath
	if cfg.configPath == "" {
		cfg.configPath = getenv("MFRC522_CONFIG")
	}
	if cfg.configPath != "" {
		if err := applyFile(cfg, cfg.configPath); err != nil {
			return nil, err
		}
	}

	var errs []error
	for _, s := range settings {
		env := envName(s.name)
		if v := getenv(env); v != "" {
			if err := s.set(cfg, v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))
			}
		}
	}
	for _, s := range settings {
		if v, ok := seen[s.name]; ok {
			if err := s.set(cfg, v); err != nil {
				errs = append(errs, fmt.Errorf("-%s: %w", s.name, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile applies a JSON object whose keys are setting names. Values may
// be strings, numbers or booleans.
func applyFile(cfg *config, path string) error {
	// #nosec G304 -- operator supplied config path
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	known := make(map[string]setting, len(settings))
	for _, s := range settings {
		known[s.name] = s
	}

	var errs []error
	for key, value := range raw {
		s, ok := known[key]
		if !ok {
			errs = append(errs, fmt.Errorf("config %s: unknown key %q", path, key))
			continue
		}
		var str string
		if err := json.Unmarshal(value, &str); err != nil {
			str = string(value)
		}
		if err := s.set(cfg, str); err != nil {
			errs = append(errs, fmt.Errorf("config %s: %s: %w", path, key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *config) validate() error {
	if c.allowList == "" {
		return errors.New("an allow-list file is required (-allow-list or MFRC522_ALLOW_LIST)")
	}
	if c.pollInterval <= 0 {
		return errors.New("poll-interval must be positive")
	}
	if c.relayPort != "" && c.ledPin != "" {
		return errors.New("set either relay-port or led-pin, not both")
	}
	if c.device == "" && (c.backend == backendI2C || c.backend == backendUART) {
		return fmt.Errorf("backend %s needs -device, auto-detection covers spidev only", c.backend)
	}
	if c.relayChannel == 0 {
		return errors.New("relay-channel starts at 1")
	}
	return nil
}

func (c *config) pollingConfig() *polling.Config {
	pc := polling.DefaultConfig()
	pc.PollInterval = c.pollInterval
	pc.GrantDuration = c.grantDuration
	pc.Debounce = c.debounce
	pc.RecordUnknown = c.recordUnknown
	return pc
}
