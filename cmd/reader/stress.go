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
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	pn532 "github.com/sabine/pxt-calliope-grove-pn532"
)

// allTestChars mixes 1 to 4 byte UTF-8 sequences and control characters.
// None of them encodes to 0xFE, the NDEF terminator.
//
//nolint:gosmopolitan // Intentionally using non-Latin scripts for stress testing
var allTestChars = []rune(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()-_=+[]{}|;:',.<>?/`~ " +
		"àáâãäåæçèéêëìíîïðñòóôõöøùúûüýþÿ" +
		"αβγδεζηθικλμνξοπρστυφχψω" +
		"абвгдеёжзийклмнопрстуфхцчшщъыьэюя" +
		"中文日本語한국어" +
		"🎮📱💻🔥⚡🚀🎯🏆🎲🃏" +
		"\u0000\u001F\u007F\u0080\u00FF\u200B",
)

type testSize int

const (
	testSizeTiny testSize = iota
	testSizeMedium
	testSizeFull
)

func (s testSize) String() string {
	switch s {
	case testSizeTiny:
		return "tiny"
	case testSizeMedium:
		return "medium"
	case testSizeFull:
		return "full"
	default:
		return "unknown"
	}
}

// CrashReport contains all information for debugging a failed round trip.
type CrashReport struct {
	Timestamp   time.Time `json:"timestamp"`
	UID         string    `json:"uid"`
	Profile     string    `json:"profile"`
	Operation   string    `json:"operation"`
	Error       string    `json:"error,omitempty"`
	TestSize    string    `json:"test_size"`
	ExpectedHex string    `json:"expected_hex,omitempty"`
	ActualHex   string    `json:"actual_hex,omitempty"`
	RawDump     []string  `json:"raw_dump,omitempty"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	Iteration   int       `json:"iteration"`
}

// randomInt returns a random int in [low, high] inclusive
func randomInt(low, high int) int {
	if low >= high {
		return low
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	return low + int(binary.LittleEndian.Uint64(b[:])%uint64(high-low+1))
}

// generateRandomText creates random text from the character pool of at
// most maxBytes bytes.
func generateRandomText(maxBytes int) string {
	result := make([]rune, 0, maxBytes)
	size := 0
	for {
		char := allTestChars[randomInt(0, len(allTestChars)-1)]
		n := len(string(char))
		if size+n > maxBytes {
			break
		}
		result = append(result, char)
		size += n
	}
	return string(result)
}

// generateTestText creates random text for the given size and capacity.
func generateTestText(size testSize, capacity int) string {
	target := capacity
	switch size {
	case testSizeTiny:
		target = randomInt(1, 4)
	case testSizeMedium:
		target = capacity / 2
	case testSizeFull:
	}
	return generateRandomText(max(1, min(target, capacity)))
}

func runStressMode(ctx context.Context, device *pn532.Device, cfg *config, out io.Writer) error {
	_, _ = fmt.Fprintf(out, "Running %d write/read round trips. Keep the card on the reader...\n", cfg.stress)

	passed := 0
	started := time.Now()
	for i := range cfg.stress {
		if err := ctx.Err(); err != nil {
			return err
		}
		size := testSize(i % 3)
		report, err := stressRoundTrip(ctx, device, cfg, size)
		if err != nil {
			return err
		}
		if report != nil {
			report.Iteration = i + 1
			path, werr := writeCrashReport(report, cfg.logDir)
			if werr != nil {
				return fmt.Errorf("round trip %d failed (%s) and the crash report could not be saved: %w",
					i+1, report.Error, werr)
			}
			_, _ = fmt.Fprintf(out, "[FAIL] round trip %d (%s): %s\n  crash report: %s\n", i+1, size, report.Error, path)
			return fmt.Errorf("stress test failed after %d passes", passed)
		}
		passed++
		_, _ = fmt.Fprintf(out, "[PASS] round trip %d (%s)\n", i+1, size)
	}

	_, _ = fmt.Fprintf(out, "%d/%d round trips passed in %s\n", passed, cfg.stress, time.Since(started).Round(100*time.Millisecond))
	return nil
}

// stressRoundTrip writes and reads back one text. It returns a report for a
// protocol failure or mismatch, and an error only for cancellation.
func stressRoundTrip(ctx context.Context, device *pn532.Device, cfg *config, size testSize) (*CrashReport, error) {
	profile := device.Profile()
	expected := generateTestText(size, profile.TextCapacity(cfg.language))

	report := &CrashReport{
		Timestamp: time.Now(),
		Profile:   profile.String(),
		TestSize:  size.String(),
	}

	if err := device.WriteText(ctx, expected); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Operation = "write"
		report.Error = err.Error()
		return finishReport(ctx, device, report), nil
	}

	actual, err := device.ReadText(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Operation = "read"
		report.Error = err.Error()
		return finishReport(ctx, device, report), nil
	}

	if actual != expected {
		report.Operation = "verify"
		report.Error = fmt.Sprintf("read %d bytes, wrote %d", len(actual), len(expected))
		report.ExpectedHex = formatHexString([]byte(expected))
		report.ActualHex = formatHexString([]byte(actual))
		return finishReport(ctx, device, report), nil
	}
	return nil, nil
}

func finishReport(ctx context.Context, device *pn532.Device, report *CrashReport) *CrashReport {
	for _, err := range device.Diagnostics() {
		report.Diagnostics = append(report.Diagnostics, err.Error())
	}
	report.UID = device.Session().UIDString()
	if units, err := device.Dump(ctx); err == nil {
		report.RawDump = formatHexDump(device.Profile(), units)
	}
	return report
}

func writeCrashReport(report *CrashReport, dir string) (string, error) {
	name := fmt.Sprintf("stress_crash_%s_%s.json", report.UID, report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write crash report: %w", err)
	}
	return path, nil
}
