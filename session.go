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
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sabine/pxt-calliope-grove-pn532/internal/frame"
)

// State is the session controller state.
type State int

// Session states. Discovery always ends in StateTargetFound or StateNoTarget.
const (
	StateAsleep State = iota
	StateWaking
	StateIdle
	StateSearching
	StateTargetFound
	StateNoTarget
)

func (s State) String() string {
	switch s {
	case StateAsleep:
		return "asleep"
	case StateWaking:
		return "waking"
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateTargetFound:
		return "target-found"
	case StateNoTarget:
		return "no-target"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Response layout of InListPassiveTarget as read over I2C, status byte included.
const (
	discoveryReadLength = 26 // room for a 7-byte UID
	offResponseCode     = 7
	offTargetCount      = 8
	offSensRes          = 10
	offSelRes           = 12
	offUIDLength        = 13
	offUID              = 14
	uidLength           = 4
	sessionTargetID     = 1
)

// Session holds what discovery learned about the card in the field.
// It is owned by one Device and reset at the start of every discovery.
type Session struct {
	UID           [uidLength]byte
	State         State
	SensRes       uint16
	Running       bool
	TargetPresent bool
	TargetID      byte
	SelRes        byte
	UIDLength     byte // as reported by the card; only the first 4 bytes are kept
}

// UIDString returns the UID as lowercase hex, or "" with no target.
func (s Session) UIDString() string {
	if !s.TargetPresent {
		return ""
	}
	return hex.EncodeToString(s.UID[:])
}

func (s *Session) reset() {
	s.TargetPresent = false
	s.TargetID = 0
	s.UID = [uidLength]byte{}
	s.SensRes = 0
	s.SelRes = 0
	s.UIDLength = 0
}

// wakeUp primes the bus with a zero byte, then disables the SAM. The running
// flag is set only when both the ACK and the confirmation frame match.
func (d *Device) wakeUp(ctx context.Context) error {
	d.session.State = StateWaking
	d.session.Running = false

	if err := d.link.write(ctx, []byte{0x00}); err != nil {
		d.session.State = StateAsleep
		return err
	}
	if err := d.link.sendCommand(ctx, samConfigurationCommand(SAMModeNormal)); err != nil {
		d.session.State = StateAsleep
		return err
	}

	ackOK, err := d.link.expectBytes(ctx, frame.AckFrame)
	if err != nil {
		d.session.State = StateAsleep
		return err
	}
	confirmOK, err := d.link.expectBytes(ctx, frame.WakeConfirmFrame)
	if err != nil {
		d.session.State = StateAsleep
		return err
	}

	if !ackOK || !confirmOK {
		d.session.State = StateAsleep
		return newProtocolError("wake", -1, KindTransport,
			fmt.Errorf("%w: %w (ack %t, confirmation %t)", ErrNotRunning, ErrTransportMismatch, ackOK, confirmOK))
	}

	d.session.Running = true
	d.session.State = StateIdle
	Debugln("PN532 awake, SAM disabled")
	return nil
}

// findPassiveTarget lists at most one 106 kbps type A target. Calling it
// again simply re-runs discovery.
func (d *Device) findPassiveTarget(ctx context.Context) error {
	d.session.reset()
	d.session.State = StateSearching

	if err := d.link.sendCommand(ctx, inListPassiveTargetCommand()); err != nil {
		return err
	}
	if err := d.expectAck(ctx, "discover", -1); err != nil {
		return err
	}

	raw, err := d.link.read(ctx, discoveryReadLength)
	if err != nil {
		return err
	}
	if _, err := d.checkFrame("discover", -1, raw); err != nil {
		return err
	}

	if raw[offResponseCode] != cmdInListPassiveTarget+1 || raw[offTargetCount] != maxTargets {
		d.session.State = StateNoTarget
		Debugln("no target in field")
		return nil
	}

	d.session.TargetPresent = true
	d.session.TargetID = sessionTargetID
	d.session.SensRes = uint16(raw[offSensRes])<<8 | uint16(raw[offSensRes+1])
	d.session.SelRes = raw[offSelRes]
	d.session.UIDLength = raw[offUIDLength]
	copy(d.session.UID[:], raw[offUID:offUID+uidLength])
	d.session.State = StateTargetFound

	Debugf("target found: UID %s (len %d), SENS_RES %04X, SEL_RES %02X",
		d.session.UIDString(), d.session.UIDLength, d.session.SensRes, d.session.SelRes)
	return nil
}
