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
	"fmt"
)

// defaultKeyA is the factory key A of MIFARE Classic sectors.
var defaultKeyA = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// authenticate runs key A authentication for the sector holding address,
// using the session UID. Under FailOpen a failure is recorded and reported
// as false with a nil error so the caller proceeds.
func (d *Device) authenticate(ctx context.Context, address int) (bool, error) {
	raw, err := d.exchange(ctx, "authenticate", address,
		authKeyACommand(d.session.TargetID, byte(address), defaultKeyA, d.session.UID), statusOnlyLength)
	if err != nil {
		return false, err
	}

	status := raw[offStatus]
	if status == 0x00 {
		return true, nil
	}
	return false, d.tolerate(newProtocolError("authenticate", address, KindAuth,
		fmt.Errorf("%w: status 0x%02X (%s)", ErrAuthFailed, status, statusMeaning(status))))
}

// classicText stores text as a length byte in the header block followed by
// raw bytes across the profile's data blocks, zero-padded.
type classicText struct{}

func (classicText) encode(ctx context.Context, d *Device, text string) error {
	p := d.profile
	data := []byte(text)
	if limit := p.TextCapacity(""); len(data) > limit {
		Debugf("text of %d bytes truncated to %d", len(data), limit)
		data = data[:limit]
	}

	header := make([]byte, p.UnitSize)
	header[0] = byte(len(data))
	if err := d.writeUnit(ctx, p.HeaderUnit, header); err != nil {
		return err
	}

	for i, address := range p.DataUnits {
		start := i * p.UnitSize
		if start >= len(data) {
			break
		}
		unit := make([]byte, p.UnitSize)
		copy(unit, data[start:])
		if err := d.writeUnit(ctx, address, unit); err != nil {
			return err
		}
	}
	return nil
}

func (classicText) decode(ctx context.Context, d *Device) (string, error) {
	p := d.profile
	header, err := d.readUnit(ctx, p.HeaderUnit)
	if err != nil {
		return "", err
	}

	length := int(header[0])
	if limit := p.TextCapacity(""); length > limit {
		Debugf("header announces %d bytes, capacity is %d", length, limit)
		length = limit
	}

	out := make([]byte, 0, length)
	for _, address := range p.DataUnits {
		if len(out) >= length {
			break
		}
		unit, err := d.readUnit(ctx, address)
		if err != nil {
			return "", err
		}
		n := min(len(unit), p.UnitSize, length-len(out))
		out = append(out, unit[:n]...)
	}
	return string(out), nil
}

func (classicText) format(context.Context, *Device) error {
	return ErrNotSupported
}
