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

package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabine/pxt-calliope-grove-pn532/internal/frame"
)

func send(t *testing.T, chip *VirtualChip, payload ...byte) {
	t.Helper()
	f, err := frame.EncodeCommand(payload)
	require.NoError(t, err)
	require.NoError(t, chip.WriteBytes(context.Background(), f.Bytes()))
}

func read(t *testing.T, chip *VirtualChip, n int) []byte {
	t.Helper()
	buf, err := chip.ReadBytes(context.Background(), n)
	require.NoError(t, err)
	require.Len(t, buf, n)
	return buf
}

func TestVirtualChip_Wake(t *testing.T) {
	t.Parallel()

	chip := NewVirtualChip()
	require.NoError(t, chip.WriteBytes(context.Background(), []byte{0x00}))
	send(t, chip, 0xD4, 0x14, 0x01, 0x14, 0x01)

	assert.Equal(t, frame.AckFrame, read(t, chip, 7))
	assert.Equal(t, frame.WakeConfirmFrame, read(t, chip, 9))
	assert.True(t, chip.State().Woken)
	assert.True(t, chip.State().SAMConfigured)

	// Nothing staged: not-ready read.
	assert.Equal(t, make([]byte, 4), read(t, chip, 4))
}

func TestVirtualChip_Discovery(t *testing.T) {
	t.Parallel()

	chip := NewVirtualChip()
	send(t, chip, 0xD4, 0x4A, 0x01, 0x00)
	read(t, chip, 7)
	raw := read(t, chip, 22)
	assert.Equal(t, byte(0x4B), raw[7])
	assert.Equal(t, byte(0x00), raw[8], "empty field")

	chip.SetCard(NewVirtualClassic1K(nil))
	send(t, chip, 0xD4, 0x4A, 0x01, 0x00)
	read(t, chip, 7)
	raw = read(t, chip, 22)

	f, err := frame.DecodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(12), f.Length)
	assert.Equal(t, byte(0x01), raw[8])
	assert.Equal(t, byte(0x08), raw[12])
	assert.Equal(t, TestClassicUID, raw[14:18])
	assert.Equal(t, 1, chip.State().SelectedTarget)
}

func TestVirtualChip_FaultInjection(t *testing.T) {
	t.Parallel()

	chip := NewVirtualChip()
	chip.DropNextACK()
	chip.InjectChecksumError()
	send(t, chip, 0xD4, 0x4A, 0x01, 0x00)

	assert.Equal(t, make([]byte, 7), read(t, chip, 7))
	_, err := frame.DecodeResponse(read(t, chip, 22))
	require.ErrorIs(t, err, frame.ErrDataChecksum)

	chip.BreakWakeConfirmation(true)
	send(t, chip, 0xD4, 0x14, 0x01, 0x14, 0x01)
	assert.Equal(t, frame.AckFrame, read(t, chip, 7))
	assert.NotEqual(t, frame.WakeConfirmFrame, read(t, chip, 9))
}

func TestVirtualChip_IgnoresCorruptFrames(t *testing.T) {
	t.Parallel()

	chip := NewVirtualChip()
	f, err := frame.EncodeCommand([]byte{0xD4, 0x4A, 0x01, 0x00})
	require.NoError(t, err)
	raw := f.Bytes()
	raw[len(raw)-2] ^= 0x01

	require.NoError(t, chip.WriteBytes(context.Background(), raw))
	assert.False(t, chip.Staged())
	assert.Empty(t, chip.Commands())

	require.NoError(t, chip.WriteBytes(context.Background(), []byte{0x00, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00}))
	assert.Empty(t, chip.Commands())
}

func TestVirtualChip_BusFault(t *testing.T) {
	t.Parallel()

	chip := NewVirtualChip()
	chip.FailBus(ErrBusFault)

	require.ErrorIs(t, chip.WriteBytes(context.Background(), []byte{0x00}), ErrBusFault)
	_, err := chip.ReadBytes(context.Background(), 1)
	require.ErrorIs(t, err, ErrBusFault)

	chip.Reset()
	require.NoError(t, chip.WriteBytes(context.Background(), []byte{0x00}))
}

func TestVirtualChip_CommandCount(t *testing.T) {
	t.Parallel()

	chip := NewVirtualChip()
	chip.SetCard(NewVirtualNTAG213(nil))
	send(t, chip, 0xD4, 0x4A, 0x01, 0x00)
	send(t, chip, 0xD4, 0x40, 0x01, 0x30, 0x04)
	send(t, chip, 0xD4, 0x40, 0x01, 0xA2, 0x05, 1, 2, 3, 4)

	assert.Equal(t, 2, chip.CommandCount(0x40, 0))
	assert.Equal(t, 1, chip.CommandCount(0x40, 0xA2))
	assert.Equal(t, 1, chip.CommandCount(0x4A, 0))
}
