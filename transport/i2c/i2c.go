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

// Package i2c provides the PN532 Bus over Linux I2C using periph.io.
package i2c

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	pn532 "github.com/sabine/pxt-calliope-grove-pn532"
	"github.com/sabine/pxt-calliope-grove-pn532/internal/syncutil"
)

const (
	// PN532 7-bit I2C address (datasheet says 0x48, which is the 8-bit write
	// address including the R/W bit; periph.io and the Linux kernel expect the
	// 7-bit form: 0x48 >> 1 = 0x24).
	pn532Addr = 0x24

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz
)

// ErrClosed is returned by reads and writes after Close.
var ErrClosed = errors.New("i2c bus closed")

// Bus is a pn532.Bus talking to the chip at 0x24. Every WriteBytes is one
// write transaction and every ReadBytes one read transaction; the ready
// status byte the chip prepends to reads is passed through untouched.
type Bus struct {
	dev     *i2c.Dev
	bus     i2c.Bus
	busName string
	mu      syncutil.Mutex
}

// parseI2CPath extracts the bus path from a composite detection path.
// Accepts "/dev/i2c-1:0x24" or "/dev/i2c-1".
func parseI2CPath(path string) string {
	bus, _, _ := strings.Cut(path, ":")
	return bus
}

// New opens the named bus ("/dev/i2c-1", "1" or "" for the first one).
func New(busName string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(parseI2CPath(busName))
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	b := NewWithBus(bus)
	b.busName = busName
	return b, nil
}

// Open is New as a pn532.BusFactory.
func Open(path string) (pn532.Bus, error) {
	return New(path)
}

// NewWithBus wraps an already opened periph bus.
func NewWithBus(bus i2c.Bus) *Bus {
	if err := bus.SetSpeed(maxClockFreq); err != nil {
		pn532.Debugf("I2C bus %s keeps its default speed: %v", bus, err)
	}
	return &Bus{
		dev:     &i2c.Dev{Addr: pn532Addr, Bus: bus},
		bus:     bus,
		busName: bus.String(),
	}
}

// WriteBytes writes buf to the chip in one transaction.
func (b *Bus) WriteBytes(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return ErrClosed
	}
	if err := b.dev.Tx(buf, nil); err != nil {
		return fmt.Errorf("I2C write to %s failed: %w", b.busName, err)
	}
	return nil
}

// ReadBytes reads n bytes from the chip in one transaction.
func (b *Bus) ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return nil, ErrClosed
	}
	buf := make([]byte, n)
	if err := b.dev.Tx(nil, buf); err != nil {
		return nil, fmt.Errorf("I2C read from %s failed: %w", b.busName, err)
	}
	return buf, nil
}

// String returns the bus name.
func (b *Bus) String() string {
	return b.busName
}

// Close releases the I2C bus file descriptor. Leaking it corrupts the bus on
// rapid reopen cycles.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	closer, ok := b.bus.(i2c.BusCloser)
	b.dev = nil
	b.bus = nil
	if ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close I2C bus: %w", err)
		}
	}
	return nil
}
