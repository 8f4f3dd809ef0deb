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

// Command accessd runs an MFRC522 access-control reader: it scans for cards,
// checks each UID against an allow-list, pulses a relay or indicator for
// granted cards and records every decision.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/physic"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/access"
	"github.com/ZaparooProject/go-mfrc522/actuator"
	"github.com/ZaparooProject/go-mfrc522/detection"
	"github.com/ZaparooProject/go-mfrc522/polling"
	"github.com/ZaparooProject/go-mfrc522/transport/gpio"
	"github.com/ZaparooProject/go-mfrc522/transport/i2c"
	"github.com/ZaparooProject/go-mfrc522/transport/spi"
	"github.com/ZaparooProject/go-mfrc522/transport/spidev"
	"github.com/ZaparooProject/go-mfrc522/transport/uart"
)

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	cfg, err := loadConfig(args, os.Getenv, os.Stderr)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config, stdout io.Writer) error {
	if cfg.debug {
		mfrc522.SetDebugEnabled(true)
	}
	if cfg.sessionLogDir != "" {
		path, err := mfrc522.InitSessionLog(cfg.sessionLogDir)
		if err != nil {
			return fmt.Errorf("session log: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "Session log: %s\n", path)
		defer func() { _ = mfrc522.CloseSessionLog() }()
	}

	_, _ = fmt.Fprintln(stdout, "Starting RFID access control...")

	allowList, err := access.LoadAllowList(cfg.allowList)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Allow-list: %d members\n", allowList.Len())

	reader, err := openReader(ctx, cfg, stdout)
	if err != nil {
		return err
	}

	out, err := openOutput(cfg)
	if err != nil {
		_ = reader.Close()
		return err
	}

	var opts []polling.Option
	opts = append(opts, polling.WithOutput(out))
	closers, storeOpts, err := openStores(cfg)
	if err != nil {
		_ = out.Close()
		_ = reader.Close()
		return err
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	opts = append(opts, storeOpts...)

	authorizer := access.WithRetry(access.WithTimeout(allowList, cfg.authTimeout), nil)
	scanner, err := polling.NewScanner(reader, authorizer, cfg.pollingConfig(), opts...)
	if err != nil {
		_ = out.Close()
		_ = reader.Close()
		return err
	}
	defer func() {
		if err := scanner.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close reader: %v\n", err)
		}
	}()

	scanner.SetOnDecision(func(d polling.Decision) {
		switch {
		case d.Authorized:
			name, _ := allowList.Name(d.UIDString)
			_, _ = fmt.Fprintf(stdout, "ACCESS GRANTED: %s %s\n", d.UIDString, name)
		case d.Err != nil:
			_, _ = fmt.Fprintf(stdout, "ACCESS DENIED: %s (lookup failed: %v)\n", d.UIDString, d.Err)
		default:
			_, _ = fmt.Fprintf(stdout, "ACCESS DENIED: %s\n", d.UIDString)
		}
	})

	go reloadOnHangup(ctx, allowList, stdout)

	if err := actuator.Blink(ctx, out, 3, 200*time.Millisecond, 200*time.Millisecond); err != nil && ctx.Err() == nil {
		_, _ = fmt.Fprintf(os.Stderr, "Indicator blink failed: %v\n", err)
	}

	_, _ = fmt.Fprintln(stdout, "Ready, scanning for cards. Press Ctrl+C to stop...")
	if err := scanner.Run(ctx); err != nil {
		return fmt.Errorf("scan loop stopped: %w", err)
	}
	_, _ = fmt.Fprintln(stdout, "\nShutting down gracefully...")
	return nil
}

// openReader opens the bus, the reset line and the chip
func openReader(ctx context.Context, cfg *config, stdout io.Writer) (*mfrc522.Reader, error) {
	device := cfg.device
	if device == "" {
		found, err := detectDevice(ctx, cfg)
		if err != nil {
			return nil, err
		}
		device = found.Path
		if cfg.resetPin == "" {
			cfg.resetPin = found.ResetPin
		}
		_, _ = fmt.Fprintf(stdout, "Detected %s\n", found)
	}

	bus, err := openBus(cfg, device)
	if err != nil {
		return nil, err
	}

	var reset mfrc522.ResetLine = mfrc522.FixedResetLine{}
	if cfg.resetPin != "" {
		line, err := gpio.Open(cfg.resetPin)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		reset = line
	}

	reader, err := mfrc522.New(bus, reset)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MFRC522 on %s: %w", device, err)
	}

	if version, err := reader.Version(); err == nil {
		_, _ = fmt.Fprintf(stdout, "Reader: %s on %s\n", mfrc522.VersionName(version), device)
	}
	return reader, nil
}

func detectDevice(ctx context.Context, cfg *config) (detection.DeviceInfo, error) {
	opts := detection.DefaultOptions()
	opts.EnableCache = false
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	devices, err := detection.Detect(ctx, &opts)
	if err != nil {
		return detection.DeviceInfo{}, fmt.Errorf("auto-detect: %w", err)
	}
	found := devices[0]
	if cfg.speedHz == 0 {
		cfg.speedHz = found.SpeedHz
	}
	return found, nil
}

func openBus(cfg *config, device string) (mfrc522.Transport, error) {
	switch cfg.backend {
	case backendI2C:
		bus, err := i2c.New(device)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case backendUART:
		port, err := uart.New(device, cfg.baud)
		if err != nil {
			return nil, err
		}
		return port, nil
	case backendPeriph:
		var opts []spi.Option
		if cfg.speedHz != 0 {
			opts = append(opts, spi.WithFrequency(physic.Frequency(cfg.speedHz)*physic.Hertz))
		}
		bus, err := spi.New(device, opts...)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		busCfg := spidev.DefaultConfig(device)
		if cfg.speedHz != 0 {
			busCfg.SpeedHz = cfg.speedHz
		}
		bus, err := spidev.New(busCfg)
		if err != nil {
			return nil, err
		}
		return bus, nil
	}
}

func openOutput(cfg *config) (actuator.Output, error) {
	switch {
	case cfg.relayPort != "":
		relay, err := actuator.OpenRelay(cfg.relayPort, cfg.relayChannel)
		if err != nil {
			return nil, err
		}
		return relay, nil
	case cfg.ledPin != "":
		led, err := actuator.OpenGPIO(cfg.ledPin, cfg.ledActiveLow)
		if err != nil {
			return nil, err
		}
		return led, nil
	default:
		return actuator.Nop{}, nil
	}
}

func openStores(cfg *config) ([]io.Closer, []polling.Option, error) {
	var closers []io.Closer
	var opts []polling.Option

	if cfg.auditLog != "" {
		log, err := access.OpenAuditLog(cfg.auditLog)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, log)
		opts = append(opts, polling.WithAuditLog(access.AuditWithTimeout(log, cfg.authTimeout)))
	}
	if cfg.registry != "" {
		reg, err := access.OpenRegistry(cfg.registry)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, err
		}
		closers = append(closers, reg)
		opts = append(opts, polling.WithRegistry(reg))
	}
	return closers, opts, nil
}

// reloadOnHangup re-reads the allow-list on SIGHUP
func reloadOnHangup(ctx context.Context, list *access.AllowList, stdout io.Writer) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, unix.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := list.Reload(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Allow-list reload failed, keeping previous: %v\n", err)
				continue
			}
			_, _ = fmt.Fprintf(stdout, "Allow-list reloaded: %d members\n", list.Len())
		}
	}
}

