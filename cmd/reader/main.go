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

// Command reader reads and writes text on MIFARE Classic and Ultralight
// cards through a PN532 on I2C.
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

	pn532 "github.com/sabine/pxt-calliope-grove-pn532"
	_ "github.com/sabine/pxt-calliope-grove-pn532/detection/i2c"
	"github.com/sabine/pxt-calliope-grove-pn532/polling"
	"github.com/sabine/pxt-calliope-grove-pn532/transport/i2c"
)

type mode int

const (
	modeRead mode = iota
	modeUID
	modeWrite
	modeFormat
	modeDump
	modeWatch
	modeStress
)

type config struct {
	writeText string
	busPath   string
	card      string
	policy    string
	language  string
	logDir    string
	ceiling   int
	retries   int
	stress    int
	mode      mode
	debug     bool
}

// Package-level flag variables
var (
	flagWriteText string
	flagBusPath   string
	flagCard      string
	flagPolicy    string
	flagLanguage  string
	flagLogDir    string
	flagCeiling   int
	flagRetries   int
	flagStress    int
	flagUID       bool
	flagFormat    bool
	flagDump      bool
	flagWatch     bool
	flagDebug     bool
)

func init() {
	flag.StringVar(&flagWriteText, "write", "", "Text to write to the card in the field")
	flag.StringVar(&flagBusPath, "bus", "", "I2C bus path, e.g. /dev/i2c-1 (auto-detect if empty)")
	flag.StringVar(&flagCard, "card", "auto", "Card profile: classic, ultralight or auto")
	flag.StringVar(&flagPolicy, "policy", "fail-open", "Protocol error policy: fail-open or fail-fast")
	flag.StringVar(&flagLanguage, "lang", "en", "NDEF text record language code")
	flag.StringVar(&flagLogDir, "log", "", "Directory for a session log file")
	flag.IntVar(&flagCeiling, "ceiling", 40, "First Ultralight page that must never be written")
	flag.IntVar(&flagRetries, "retries", 3, "Attempts per operation")
	flag.IntVar(&flagStress, "stress", 0, "Run N write/read round trips and stop at the first mismatch")
	flag.BoolVar(&flagUID, "uid", false, "Print the UID of the card in the field and exit")
	flag.BoolVar(&flagFormat, "format", false, "Format an Ultralight card with an empty NDEF message")
	flag.BoolVar(&flagDump, "dump", false, "Dump every readable block or page")
	flag.BoolVar(&flagWatch, "watch", false, "Print the text of every card placed on the reader")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() (*config, error) {
	cfg := &config{
		writeText: flagWriteText,
		busPath:   flagBusPath,
		card:      strings.ToLower(flagCard),
		policy:    flagPolicy,
		language:  flagLanguage,
		logDir:    flagLogDir,
		ceiling:   flagCeiling,
		retries:   flagRetries,
		stress:    flagStress,
		debug:     flagDebug,
	}

	var modes []mode
	if flagUID {
		modes = append(modes, modeUID)
	}
	if cfg.writeText != "" {
		modes = append(modes, modeWrite)
	}
	if flagFormat {
		modes = append(modes, modeFormat)
	}
	if flagDump {
		modes = append(modes, modeDump)
	}
	if flagWatch {
		modes = append(modes, modeWatch)
	}
	if cfg.stress > 0 {
		modes = append(modes, modeStress)
	}
	switch len(modes) {
	case 0:
		cfg.mode = modeRead
	case 1:
		cfg.mode = modes[0]
	default:
		return nil, errors.New("-uid, -write, -format, -dump, -watch and -stress are mutually exclusive")
	}

	if cfg.retries < 1 {
		return nil, fmt.Errorf("-retries must be at least 1, got %d", cfg.retries)
	}
	return cfg, nil
}

// deviceOptions maps the command line to device options.
func deviceOptions(cfg *config) ([]pn532.Option, error) {
	policy, err := pn532.ParsePolicy(cfg.policy)
	if err != nil {
		return nil, err
	}

	opts := []pn532.Option{
		pn532.WithPolicy(policy),
		pn532.WithLanguage(cfg.language),
	}
	ultralight := pn532.UltralightWithCeiling(cfg.ceiling)

	switch cfg.card {
	case "classic":
		opts = append(opts, pn532.WithProfile(pn532.Classic))
	case "ultralight":
		opts = append(opts, pn532.WithProfile(ultralight))
	case "auto":
		opts = append(opts, pn532.WithAutoProfile())
		if cfg.ceiling != pn532.Ultralight.Ceiling {
			// auto profile keeps a same-family base profile, ceiling included
			opts = append(opts, pn532.WithProfile(ultralight))
		}
	default:
		return nil, fmt.Errorf("unknown card profile %q", cfg.card)
	}
	return opts, nil
}

func connectToDevice(ctx context.Context, cfg *config, out io.Writer) (*pn532.Device, error) {
	opts, err := deviceOptions(cfg)
	if err != nil {
		return nil, err
	}

	connectOpts := []pn532.ConnectOption{
		pn532.WithBusFactory(i2c.Open),
		pn532.WithDeviceOptions(opts...),
		pn532.WithConnectionRetries(cfg.retries),
		pn532.WithConnectTimeout(10 * time.Second),
	}
	if cfg.busPath == "" {
		connectOpts = append(connectOpts, pn532.WithAutoDetection())
		if cfg.debug {
			_, _ = fmt.Fprintln(out, "Auto-detecting PN532 devices...")
		}
	} else if cfg.debug {
		_, _ = fmt.Fprintf(out, "Opening bus: %s\n", cfg.busPath)
	}

	device, err := pn532.ConnectDevice(ctx, cfg.busPath, connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PN532 device: %w", err)
	}
	return device, nil
}

func retryConfig(cfg *config) *pn532.RetryConfig {
	rc := pn532.DefaultRetryConfig()
	rc.MaxAttempts = cfg.retries
	return rc
}

func runUIDMode(ctx context.Context, device *pn532.Device, cfg *config, out io.Writer) error {
	var uid string
	err := pn532.RetryWithConfig(ctx, retryConfig(cfg), func(ctx context.Context) error {
		var err error
		uid, err = device.UID(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to read UID: %w", err)
	}
	_, _ = fmt.Fprintln(out, uid)
	return nil
}

func runReadMode(ctx context.Context, device *pn532.Device, cfg *config, out io.Writer) error {
	text, err := device.ReadTextWithRetry(ctx, retryConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}
	session := device.Session()
	_, _ = fmt.Fprintf(out, "UID=%s Profile=%s\n", session.UIDString(), device.Profile())
	_, _ = fmt.Fprintf(out, "Text: %q\n", text)
	printDiagnostics(device, out)
	return nil
}

func runWriteMode(ctx context.Context, device *pn532.Device, cfg *config, out io.Writer) error {
	if device == nil {
		return errors.New("device cannot be nil for write mode")
	}
	if cfg.writeText == "" {
		return errors.New("writeText cannot be empty for write mode")
	}

	if err := device.WriteTextWithRetry(ctx, cfg.writeText, retryConfig(cfg)); err != nil {
		return fmt.Errorf("write operation failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Wrote %q to %s\n", cfg.writeText, device.Session().UIDString())
	printDiagnostics(device, out)
	return nil
}

func runFormatMode(ctx context.Context, device *pn532.Device, _ *config, out io.Writer) error {
	if err := device.Format(ctx); err != nil {
		return fmt.Errorf("format failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Formatted %s as %s\n", device.Session().UIDString(), device.Profile())
	printDiagnostics(device, out)
	return nil
}

func runDumpMode(ctx context.Context, device *pn532.Device, _ *config, out io.Writer) error {
	units, err := device.Dump(ctx)
	if err != nil {
		return fmt.Errorf("dump failed: %w", err)
	}
	printDump(out, device.Profile(), units)
	printDiagnostics(device, out)
	return nil
}

func runWatchMode(ctx context.Context, device *pn532.Device, _ *config, out io.Writer) error {
	session := polling.NewSession(device, polling.DefaultConfig())
	session.OnCardDetected = func(uid string) error {
		text, err := device.ReadText(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(out, "Card %s: read failed: %v\n", uid, err)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Card %s: %q\n", uid, text)
		return nil
	}
	session.OnCardChanged = session.OnCardDetected
	session.OnCardRemoved = func() {
		_, _ = fmt.Fprintln(out, "Card removed - ready for next card...")
	}

	_, _ = fmt.Fprintln(out, "Watching for cards. Press Ctrl+C to stop...")
	return session.Start(ctx)
}

func printDiagnostics(device *pn532.Device, out io.Writer) {
	for _, err := range device.Diagnostics() {
		_, _ = fmt.Fprintf(out, "warning: %v\n", err)
	}
}

func runMode(ctx context.Context, device *pn532.Device, cfg *config, out io.Writer) error {
	switch cfg.mode {
	case modeUID:
		return runUIDMode(ctx, device, cfg, out)
	case modeWrite:
		return runWriteMode(ctx, device, cfg, out)
	case modeFormat:
		return runFormatMode(ctx, device, cfg, out)
	case modeDump:
		return runDumpMode(ctx, device, cfg, out)
	case modeWatch:
		return runWatchMode(ctx, device, cfg, out)
	case modeStress:
		return runStressMode(ctx, device, cfg, out)
	default:
		return runReadMode(ctx, device, cfg, out)
	}
}

func run(ctx context.Context, cfg *config, out io.Writer) error {
	if cfg.debug {
		pn532.SetDebugEnabled(true)
	}
	if cfg.logDir != "" {
		path, err := pn532.InitSessionLog(cfg.logDir)
		if err != nil {
			return fmt.Errorf("failed to open session log: %w", err)
		}
		defer func() { _ = pn532.CloseSessionLog() }()
		_, _ = fmt.Fprintf(out, "Logging to %s\n", path)
	}

	device, err := connectToDevice(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", err)
		}
	}()

	return runMode(ctx, device, cfg, out)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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

	if err := run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
