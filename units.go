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
	"errors"
	"fmt"

	"github.com/sabine/pxt-calliope-grove-pn532/internal/frame"
)

// InDataExchange response layout as read over I2C: status at 8, data from 9.
const (
	offStatus        = 8
	offData          = 9
	statusOnlyLength = 3 // D5 41 status
)

// expectAck reads and checks the ACK frame that opens every transaction.
func (d *Device) expectAck(ctx context.Context, op string, address int) error {
	ok, err := d.link.expectBytes(ctx, frame.AckFrame)
	if err != nil {
		return err
	}
	if !ok {
		return d.tolerate(newProtocolError(op, address, KindTransport,
			fmt.Errorf("%w: no ACK", ErrTransportMismatch)))
	}
	return nil
}

// checkFrame decodes raw and routes every framing problem through the
// policy. The frame is nil only when raw is too short to hold one.
func (d *Device) checkFrame(op string, address int, raw []byte) (*frame.Frame, error) {
	f, err := frame.DecodeResponse(raw)
	if err == nil {
		return f, nil
	}

	var cause error
	switch {
	case errors.Is(err, frame.ErrLengthChecksum), errors.Is(err, frame.ErrDataChecksum):
		cause = fmt.Errorf("%w: %w", ErrChecksumMismatch, err)
	default:
		cause = fmt.Errorf("%w: %w", ErrFrameMalformed, err)
	}
	return f, d.tolerate(newProtocolError(op, address, KindMalformed, cause))
}

// exchange runs one InDataExchange transaction: command, ACK, response.
// It returns the raw response, which always holds at least the data region
// for respLen payload bytes.
func (d *Device) exchange(ctx context.Context, op string, address int, payload []byte, respLen int) ([]byte, error) {
	if err := d.link.sendCommand(ctx, payload); err != nil {
		return nil, err
	}
	if err := d.expectAck(ctx, op, address); err != nil {
		return nil, err
	}

	raw, err := d.link.read(ctx, frame.ResponseLength(respLen))
	if err != nil {
		return nil, err
	}
	if _, err := d.checkFrame(op, address, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// checkStatus reports a nonzero InDataExchange status through the policy.
func (d *Device) checkStatus(op string, address int, raw []byte) error {
	status := raw[offStatus]
	if status == 0x00 {
		return nil
	}
	return d.tolerate(newProtocolError(op, address, KindTransport,
		fmt.Errorf("%w: status 0x%02X (%s)", ErrTransportMismatch, status, statusMeaning(status))))
}

// readUnit returns ReadSize bytes starting at address. On key-gated cards
// the unit is authenticated first, every time.
func (d *Device) readUnit(ctx context.Context, address int) ([]byte, error) {
	if d.profile.RequiresAuth {
		if _, err := d.authenticate(ctx, address); err != nil {
			return nil, err
		}
	}

	raw, err := d.exchange(ctx, "read", address,
		readCommand(d.session.TargetID, byte(address)), statusOnlyLength+d.profile.ReadSize)
	if err != nil {
		return nil, err
	}
	if err := d.checkStatus("read", address, raw); err != nil {
		return nil, err
	}

	data := make([]byte, d.profile.ReadSize)
	if raw[offStatus] == 0x00 {
		copy(data, raw[offData:])
	}
	return data, nil
}

// writeUnit writes one unit. Writes to reserved addresses or at or past the
// ceiling are refused without touching the bus.
func (d *Device) writeUnit(ctx context.Context, address int, data []byte) error {
	if !d.profile.Writable(address) {
		return d.tolerate(newProtocolError("write", address, KindIllegalAddress,
			fmt.Errorf("%w: %s reserves unit %d", ErrIllegalAddress, d.profile.Name, address)))
	}

	if len(data) != d.profile.UnitSize {
		err := d.tolerate(newProtocolError("write", address, KindUnitLength,
			fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidUnitLength, len(data), d.profile.UnitSize)))
		if err != nil {
			return err
		}
		unit := make([]byte, d.profile.UnitSize)
		copy(unit, data)
		data = unit
	}

	if d.profile.RequiresAuth {
		if _, err := d.authenticate(ctx, address); err != nil {
			return err
		}
	}

	op := byte(mifareCmdWrite16)
	if d.profile.Family == FamilyUltralight {
		op = ultralightCmdWrite4
	}

	raw, err := d.exchange(ctx, "write", address,
		writeCommand(d.session.TargetID, op, byte(address), data), statusOnlyLength)
	if err != nil {
		return err
	}
	return d.checkStatus("write", address, raw)
}
