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

package pn532

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sabine/pxt-calliope-grove-pn532/internal/frame"
)

// DefaultSettleDelay is the pause after every bus write before the next
// operation is issued.
const DefaultSettleDelay = 20 * time.Millisecond

// Bus is a synchronous, half-duplex byte channel to the chip at one fixed
// device address. transport/i2c provides the hardware implementation.
type Bus interface {
	// WriteBytes writes buf in a single bus transaction.
	WriteBytes(ctx context.Context, buf []byte) error
	// ReadBytes reads n bytes of whatever the chip has staged. Implementations
	// may return fewer bytes; the caller zero-pads.
	ReadBytes(ctx context.Context, n int) ([]byte, error)
}

// link wraps a Bus with the settle delay and the framing helpers every
// transaction is built from.
type link struct {
	bus    Bus
	settle time.Duration
}

// sleepCtx performs a context-aware sleep.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *link) write(ctx context.Context, buf []byte) error {
	traceBytes("TX", buf)
	if err := l.bus.WriteBytes(ctx, buf); err != nil {
		return fmt.Errorf("bus write: %w", err)
	}
	return sleepCtx(ctx, l.settle)
}

func (l *link) read(ctx context.Context, n int) ([]byte, error) {
	buf, err := l.bus.ReadBytes(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("bus read: %w", err)
	}
	if len(buf) != n {
		padded := make([]byte, n)
		copy(padded, buf)
		buf = padded
	}
	traceBytes("RX", buf)
	return buf, nil
}

// expectBytes reads len(expected) bytes and reports whether every one of
// them matches.
func (l *link) expectBytes(ctx context.Context, expected []byte) (bool, error) {
	got, err := l.read(ctx, len(expected))
	if err != nil {
		return false, err
	}
	return bytes.Equal(got, expected), nil
}

// sendCommand frames payload (TFI, command code, parameters) and writes it.
func (l *link) sendCommand(ctx context.Context, payload []byte) error {
	f, err := frame.EncodeCommand(payload)
	if err != nil {
		return fmt.Errorf("encode command 0x%02X: %w", payload[1], err)
	}
	return l.write(ctx, f.Bytes())
}
