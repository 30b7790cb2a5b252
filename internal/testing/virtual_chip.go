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

// Package testing provides a virtual PN532 that speaks the I2C framing
// protocol, plus virtual cards to put in its field.
package testing

import (
	"context"
	"errors"
	"fmt"

	"github.com/sabine/pxt-calliope-grove-pn532/internal/frame"
	"github.com/sabine/pxt-calliope-grove-pn532/internal/syncutil"
)

// ErrBusFault is returned by reads and writes after FailBus.
var ErrBusFault = errors.New("virtual bus fault")

// ChipState tracks the internal state of the simulated PN532.
type ChipState struct {
	Woken          bool
	SAMConfigured  bool
	SelectedTarget int // 0 = none
}

// VirtualChip simulates a PN532 on an I2C bus. It implements the
// WriteBytes/ReadBytes bus contract: every write is one I2C write
// transaction, every read returns the next staged reply, prefixed by the
// 0x01 ready byte and zero-padded to the requested length.
type VirtualChip struct {
	card     *VirtualCard
	staged   [][]byte
	commands [][]byte
	state    ChipState
	mu       syncutil.Mutex

	busErr              error
	dropNextACK         bool
	injectChecksumError bool
	badWakeConfirmation bool
}

// NewVirtualChip creates a chip with no card in the field.
func NewVirtualChip() *VirtualChip {
	return &VirtualChip{}
}

// SetCard places card in the field; nil empties the field.
func (v *VirtualChip) SetCard(card *VirtualCard) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.card = card
	v.state.SelectedTarget = 0
}

// Card returns the card in the field.
func (v *VirtualChip) Card() *VirtualCard {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.card
}

// State returns a snapshot of the chip state.
func (v *VirtualChip) State() ChipState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// DropNextACK replaces the next ACK with a not-ready read.
func (v *VirtualChip) DropNextACK() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropNextACK = true
}

// InjectChecksumError corrupts the data checksum of the next response.
func (v *VirtualChip) InjectChecksumError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injectChecksumError = true
}

// BreakWakeConfirmation makes every SAMConfiguration reply malformed.
func (v *VirtualChip) BreakWakeConfirmation(broken bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.badWakeConfirmation = broken
}

// FailBus makes every subsequent bus call return err; nil clears it.
func (v *VirtualChip) FailBus(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busErr = err
}

// Commands returns the payload (TFI onwards) of every valid command frame
// received.
func (v *VirtualChip) Commands() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.commands))
	for i, c := range v.commands {
		out[i] = append([]byte(nil), c...)
	}
	return out
}

// CommandCount returns how many received commands carried code cmd, and
// for InDataExchange, optionally a MIFARE op (0 matches any).
func (v *VirtualChip) CommandCount(cmd, op byte) int {
	n := 0
	for _, c := range v.Commands() {
		if len(c) < 2 || c[1] != cmd {
			continue
		}
		if op != 0 && (len(c) < 4 || c[3] != op) {
			continue
		}
		n++
	}
	return n
}

// WriteBytes receives one I2C write from the host.
func (v *VirtualChip) WriteBytes(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.busErr != nil {
		return v.busErr
	}
	v.staged = nil

	if len(buf) == 1 && buf[0] == 0x00 {
		v.state.Woken = true
		return nil
	}

	payload, err := parseCommandFrame(buf)
	if err != nil {
		// The chip silently drops frames it cannot parse.
		return nil //nolint:nilerr // a malformed frame is not a bus error
	}
	v.commands = append(v.commands, append([]byte(nil), payload...))

	if v.dropNextACK {
		v.dropNextACK = false
		v.staged = append(v.staged, nil)
	} else {
		v.staged = append(v.staged, frame.AckFrame)
	}

	resp := v.process(payload)
	if resp == nil {
		return nil
	}
	v.staged = append(v.staged, v.responseFrame(resp))
	return nil
}

// ReadBytes returns the next staged reply, or a not-ready read.
func (v *VirtualChip) ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.busErr != nil {
		return nil, v.busErr
	}

	out := make([]byte, n)
	if len(v.staged) == 0 {
		return out, nil
	}
	copy(out, v.staged[0])
	v.staged = v.staged[1:]
	return out, nil
}

func parseCommandFrame(buf []byte) ([]byte, error) {
	if len(buf) < 7 || buf[0] != frame.Preamble || buf[1] != frame.StartCode1 || buf[2] != frame.StartCode2 {
		return nil, errors.New("missing start code")
	}
	length := int(buf[3])
	if !frame.ValidateLengthChecksum(buf[3], buf[4]) {
		return nil, errors.New("bad length checksum")
	}
	if len(buf) < 7+length {
		return nil, errors.New("short frame")
	}
	payload := buf[5 : 5+length]
	if !frame.ValidateDataChecksum(payload, buf[5+length]) {
		return nil, errors.New("bad data checksum")
	}
	if length < 2 {
		return nil, errors.New("empty payload")
	}
	if payload[0] != frame.HostToPn532 {
		return nil, fmt.Errorf("unexpected TFI 0x%02X", payload[0])
	}
	return payload, nil
}

// responseFrame encodes a response payload as the host reads it.
func (v *VirtualChip) responseFrame(payload []byte) []byte {
	f, err := frame.EncodeCommand(payload)
	if err != nil {
		return nil
	}
	raw := append([]byte{frame.StatusReady}, f.Bytes()...)
	if v.injectChecksumError {
		v.injectChecksumError = false
		raw[len(raw)-2] ^= 0xFF
	}
	return raw
}

func (v *VirtualChip) process(payload []byte) []byte {
	cmd, params := payload[1], payload[2:]
	resp := []byte{frame.Pn532ToHost, cmd + 1}

	switch cmd {
	case 0x14: // SAMConfiguration
		if len(params) < 1 || params[0] != 0x01 {
			return nil
		}
		v.state.SAMConfigured = true
		if v.badWakeConfirmation {
			return []byte{frame.Pn532ToHost, 0x00}
		}
		return resp

	case 0x4A: // InListPassiveTarget
		v.state.SelectedTarget = 0
		if v.card == nil || !v.card.Present || len(params) < 2 || params[1] != 0x00 {
			return append(resp, 0x00)
		}
		v.state.SelectedTarget = 1
		resp = append(resp, 0x01, 0x01)
		resp = append(resp, v.card.SensRes()...)
		resp = append(resp, v.card.SelRes(), byte(len(v.card.UID)))
		return append(resp, v.card.UID...)

	case 0x40: // InDataExchange
		if len(params) < 1 || int(params[0]) != v.state.SelectedTarget || v.card == nil {
			return append(resp, statusTimeout)
		}
		status, data := v.card.exchange(params[1:])
		resp = append(resp, status)
		return append(resp, data...)
	}

	return nil
}

// Staged reports whether a reply is waiting to be read.
func (v *VirtualChip) Staged() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.staged) > 0
}

// Reset clears chip state, staged replies and the command log.
func (v *VirtualChip) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.staged = nil
	v.commands = nil
	v.state = ChipState{}
	v.dropNextACK = false
	v.injectChecksumError = false
	v.badWakeConfirmation = false
	v.busErr = nil
}
