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

package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	pn532 "github.com/sabine/pxt-calliope-grove-pn532"
	virt "github.com/sabine/pxt-calliope-grove-pn532/internal/testing"
)

var errSpeed = errors.New("speed not supported")

// mockBus implements periph's i2c.Bus on top of the virtual chip.
type mockBus struct {
	chip   *virt.VirtualChip
	addrs  []uint16
	speed  physic.Frequency
	closed bool
}

func (*mockBus) String() string { return "mock-i2c" }

func (m *mockBus) Tx(addr uint16, w, r []byte) error {
	m.addrs = append(m.addrs, addr)
	ctx := context.Background()
	if len(w) > 0 {
		if err := m.chip.WriteBytes(ctx, w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		got, err := m.chip.ReadBytes(ctx, len(r))
		if err != nil {
			return err
		}
		copy(r, got)
	}
	return nil
}

func (m *mockBus) SetSpeed(f physic.Frequency) error {
	m.speed = f
	return errSpeed
}

func (m *mockBus) Close() error {
	m.closed = true
	return nil
}

func TestParseI2CPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"/dev/i2c-1", "/dev/i2c-1"},
		{"/dev/i2c-1:0x24", "/dev/i2c-1"},
		{"1", "1"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseI2CPath(tt.in))
		})
	}
}

func TestBusAddressesPN532(t *testing.T) {
	t.Parallel()

	mock := &mockBus{chip: virt.NewVirtualChip()}
	bus := NewWithBus(mock)
	assert.Equal(t, maxClockFreq, mock.speed)
	assert.Equal(t, "mock-i2c", bus.String())

	ctx := context.Background()
	require.NoError(t, bus.WriteBytes(ctx, []byte{0x00}))
	got, err := bus.ReadBytes(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, got, 7)

	for _, addr := range mock.addrs {
		assert.Equal(t, uint16(pn532Addr), addr)
	}
}

func TestBusEndToEnd(t *testing.T) {
	t.Parallel()

	chip := virt.NewVirtualChip()
	chip.SetCard(virt.NewVirtualClassic1K(nil))

	device, err := pn532.New(NewWithBus(&mockBus{chip: chip}), pn532.WithSettleDelay(0))
	require.NoError(t, err)

	ctx := context.Background()
	uid, err := device.UID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", uid)

	require.NoError(t, device.WriteText(ctx, "over periph"))
	text, err := device.ReadText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "over periph", text)
}

func TestBusClose(t *testing.T) {
	t.Parallel()

	mock := &mockBus{chip: virt.NewVirtualChip()}
	bus := NewWithBus(mock)
	require.NoError(t, bus.Close())
	assert.True(t, mock.closed)
	require.NoError(t, bus.Close())

	ctx := context.Background()
	require.ErrorIs(t, bus.WriteBytes(ctx, []byte{0x00}), ErrClosed)
	_, err := bus.ReadBytes(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBusCancelledContext(t *testing.T) {
	t.Parallel()

	mock := &mockBus{chip: virt.NewVirtualChip()}
	bus := NewWithBus(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, bus.WriteBytes(ctx, []byte{0x00}), context.Canceled)
	assert.Empty(t, mock.addrs)
}
