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
	"errors"
	"fmt"

	"github.com/sabine/pxt-calliope-grove-pn532/pkg/ndef"
)

// ndefPadding NULL TLVs put the text of an "en" record on a page boundary:
//
//	page 4: 00 00 00 03
//	page 5: L  D1 01 PL
//	page 6: 54 02 65 6E
//	page 7: text... FE, zero-padded
const ndefPadding = 3

// ndefScanUnits bounds how far decode looks for the record header.
const ndefScanUnits = 8

// ErrNDEFTruncated is reported when a record runs past the readable area.
var ErrNDEFTruncated = errors.New("NDEF record runs past readable area")

// ndefText stores text as a single NDEF short text record inside an NDEF
// message TLV starting at the profile's header page.
type ndefText struct{}

func (ndefText) encode(ctx context.Context, d *Device, text string) error {
	p := d.profile
	lang := d.config.Language

	if limit := p.TextCapacity(lang); len(text) > limit {
		return newProtocolError("write", -1, KindOversize,
			fmt.Errorf("%w: %d bytes, capacity %d", ErrDataTooLarge, len(text), limit))
	}

	msg, err := ndef.EncodeTextMessage(text, lang)
	if err != nil {
		return newProtocolError("write", -1, KindOversize, fmt.Errorf("%w: %w", ErrDataTooLarge, err))
	}
	stream, err := ndef.WrapTLV(msg, ndefPadding)
	if err != nil {
		return newProtocolError("write", -1, KindOversize, fmt.Errorf("%w: %w", ErrDataTooLarge, err))
	}

	return d.writeStream(ctx, p.HeaderUnit, stream)
}

// writeStream writes buf to consecutive units starting at first, zero-padding
// the last one.
func (d *Device) writeStream(ctx context.Context, first int, buf []byte) error {
	size := d.profile.UnitSize
	for offset := 0; offset < len(buf); offset += size {
		unit := make([]byte, size)
		copy(unit, buf[offset:])
		if err := d.writeUnit(ctx, first+offset/size, unit); err != nil {
			return err
		}
	}
	return nil
}

func (ndefText) decode(ctx context.Context, d *Device) (string, error) {
	p := d.profile
	step := p.UnitsPerRead()
	page := p.HeaderUnit

	var buf []byte
	readNext := func() error {
		data, err := d.readUnit(ctx, page)
		if err != nil {
			return err
		}
		buf = append(buf, data...)
		page += step
		return nil
	}

	var (
		loc   ndef.TextLocation
		found bool
	)
	for page < p.Ceiling && page-p.HeaderUnit < ndefScanUnits {
		if err := readNext(); err != nil {
			return "", err
		}
		if loc, found = ndef.FindTextRecord(buf); found {
			break
		}
	}
	if !found {
		Debugln("no NDEF text record found")
		return "", nil
	}

	end := loc.TextOffset() + loc.TextLength()
	for len(buf) < end && page < p.Ceiling {
		if err := readNext(); err != nil {
			return "", err
		}
	}

	text := buf[min(loc.TextOffset(), len(buf)):min(end, len(buf))]
	if i := bytes.IndexByte(text, ndef.TLVTerminator); i >= 0 {
		err := d.tolerate(newProtocolError("read", p.HeaderUnit, KindRecord,
			fmt.Errorf("%w: at text byte %d of %d", ErrNDEFTerminatedEarly, i, loc.TextLength())))
		if err != nil {
			return "", err
		}
		text = text[:i]
	} else if len(buf) < end {
		err := d.tolerate(newProtocolError("read", p.HeaderUnit, KindRecord,
			fmt.Errorf("%w: need %d bytes, have %d", ErrNDEFTruncated, end, len(buf))))
		if err != nil {
			return "", err
		}
	}
	return string(text), nil
}

// format writes the capability container and an empty NDEF message.
func (ndefText) format(ctx context.Context, d *Device) error {
	p := d.profile
	dataArea := p.UnitSize * (p.Ceiling - p.HeaderUnit)
	cc := []byte{0xE1, 0x10, byte(dataArea / 8), 0x00}
	if err := d.writeUnit(ctx, ndefCCPage, cc); err != nil {
		return err
	}
	return d.writeUnit(ctx, p.HeaderUnit, []byte{ndef.TLVMessage, 0x00, ndef.TLVTerminator, 0x00})
}
