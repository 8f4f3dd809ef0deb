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

// Command reader prints the chip version and the UID of every card placed on
// an MFRC522. It makes no access decisions; see cmd/accessd for that.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	"github.com/ZaparooProject/go-mfrc522/transport/gpio"
	"github.com/ZaparooProject/go-mfrc522/transport/i2c"
	"github.com/ZaparooProject/go-mfrc522/transport/spidev"
	"github.com/ZaparooProject/go-mfrc522/transport/uart"
)

type config struct {
	devicePath string
	resetPin   string
	interval   time.Duration
	once       bool
	debug      bool
}

// Package-level flag variables
var (
	flagDevicePath string
	flagResetPin   string
	flagInterval   time.Duration
	flagOnce       bool
	flagDebug      bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "", "Device path (auto-detect spidev if empty)")
	flag.StringVar(&flagResetPin, "reset-pin", "", "GPIO wired to NRSTPD (tied high if empty)")
	flag.DurationVar(&flagInterval, "interval", 200*time.Millisecond, "Pause between presence requests")
	flag.BoolVar(&flagOnce, "once", false, "Exit after the first card")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		devicePath: flagDevicePath,
		resetPin:   flagResetPin,
		interval:   flagInterval,
		once:       flagOnce,
		debug:      flagDebug,
	}

	if cfg.debug {
		mfrc522.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport picks a host interface from the device path: I2C bus names
// and spidev nodes are recognised, anything else is taken as a serial port.
func newTransport(path string) (mfrc522.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	pathLower := strings.ToLower(path)

	if strings.Contains(pathLower, "i2c") {
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport for %s: %w", path, err)
		}
		return transport, nil
	}

	if strings.Contains(pathLower, "spi") {
		transport, err := spidev.New(spidev.DefaultConfig(path))
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport for %s: %w", path, err)
		}
		return transport, nil
	}

	transport, err := uart.New(path, uart.DefaultBaudRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport for %s: %w", path, err)
	}
	return transport, nil
}

func connectToDevice(ctx context.Context, cfg *config) (*mfrc522.Reader, error) {
	path := cfg.devicePath
	if path == "" {
		if cfg.debug {
			_, _ = fmt.Println("Auto-detecting MFRC522 devices...")
		}
		opts := detection.DefaultOptions()
		devices, err := detection.Detect(ctx, &opts)
		if err != nil {
			return nil, fmt.Errorf("auto-detect: %w", err)
		}
		path = devices[0].Path
		if cfg.resetPin == "" {
			cfg.resetPin = devices[0].ResetPin
		}
	}
	if cfg.debug {
		_, _ = fmt.Printf("Opening device: %s\n", path)
	}

	transport, err := newTransport(path)
	if err != nil {
		return nil, err
	}

	var reset mfrc522.ResetLine = mfrc522.FixedResetLine{}
	if cfg.resetPin != "" {
		line, err := gpio.Open(cfg.resetPin)
		if err != nil {
			_ = transport.Close()
			return nil, err
		}
		reset = line
	}

	reader, err := mfrc522.New(transport, reset)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MFRC522 device: %w", err)
	}

	if version, versionErr := reader.Version(); versionErr == nil {
		_, _ = fmt.Printf("Chip: %s\n", mfrc522.VersionName(version))
	}
	return reader, nil
}

// uidReader is the part of *mfrc522.Reader used by the read loop
type uidReader interface {
	ReadCardUID() (mfrc522.UID, error)
	StopCrypto() error
}

// runReadMode prints each newly placed card and each removal until ctx is
// cancelled, or until the first card when once is set.
func runReadMode(ctx context.Context, reader uidReader, cfg *config, out io.Writer) error {
	_, _ = fmt.Fprintln(out, "Starting continuous card monitoring. Press Ctrl+C to stop...")

	var current *mfrc522.UID
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		uid, err := reader.ReadCardUID()
		switch {
		case err == nil:
			_ = reader.StopCrypto()
			if current == nil || *current != uid {
				_, _ = fmt.Fprintf(out, "Card detected: UID=%s (%s)\n", uid, uid.Hex())
				current = &uid
				if cfg.once {
					return nil
				}
			}
		case mfrc522.IsNoCard(err):
			if current != nil {
				_, _ = fmt.Fprintln(out, "Card removed - ready for next card...")
				current = nil
			}
		case mfrc522.IsFatal(err):
			return fmt.Errorf("reader failed: %w", err)
		default:
			mfrc522.Debugf("read failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func run(ctx context.Context, cfg *config) error {
	reader, err := connectToDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()

	return runReadMode(ctx, reader, cfg, os.Stdout)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()
	if cfg.interval <= 0 {
		_, _ = fmt.Fprintln(os.Stderr, "Error: -interval must be positive")
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
