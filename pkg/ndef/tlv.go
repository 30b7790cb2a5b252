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

package ndef

import (
	"errors"
	"fmt"
)

// Type 2 tag TLV block types.
const (
	TLVNull       byte = 0x00
	TLVMessage    byte = 0x03
	TLVTerminator byte = 0xFE

	// MaxTLVLength is the largest value the one-byte TLV length can hold;
	// 0xFF introduces the three-byte form, which is not produced here.
	MaxTLVLength = 0xFE
)

// ErrTLVTooLarge is returned when a message does not fit a one-byte TLV length.
var ErrTLVTooLarge = errors.New("ndef: message exceeds one-byte TLV length")

// WrapTLV returns pad NULL TLVs, a message TLV holding msg and the
// terminator TLV.
func WrapTLV(msg []byte, pad int) ([]byte, error) {
	if len(msg) > MaxTLVLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTLVTooLarge, len(msg))
	}

	out := make([]byte, 0, pad+len(msg)+3)
	for range pad {
		out = append(out, TLVNull)
	}
	out = append(out, TLVMessage, byte(len(msg)))
	out = append(out, msg...)
	out = append(out, TLVTerminator)
	return out, nil
}

// TextLocation describes a short text record found inside raw tag memory.
type TextLocation struct {
	Offset         int // index of the record header byte
	PayloadLength  int
	LanguageLength int
}

// TextOffset returns the index of the first text byte.
func (l TextLocation) TextOffset() int {
	return l.Offset + 4 + 1 + l.LanguageLength
}

// TextLength returns the number of text bytes the record announces.
func (l TextLocation) TextLength() int {
	return l.PayloadLength - 1 - l.LanguageLength
}

// FindTextRecord scans buf for the header of a single short well-known Text
// record (D1 01 PL 54) followed by its status byte.
func FindTextRecord(buf []byte) (TextLocation, bool) {
	header := flagMB | flagME | flagSR | TNFWellKnown
	for i := 0; i+4 < len(buf); i++ {
		if buf[i] != header || buf[i+1] != byte(len(TextRecordType)) || buf[i+3] != TextRecordType[0] {
			continue
		}
		loc := TextLocation{
			Offset:         i,
			PayloadLength:  int(buf[i+2]),
			LanguageLength: int(buf[i+4] & textLangCodeMask),
		}
		if loc.TextLength() < 0 {
			continue
		}
		return loc, true
	}
	return TextLocation{}, false
}

// ErrNoMessageTLV is returned when a TLV area holds no message TLV.
var ErrNoMessageTLV = errors.New("ndef: no message TLV")

// UnwrapTLV returns the value of the first message TLV in a Type 2 tag data
// area. NULL TLVs are skipped and other TLVs are stepped over by length.
func UnwrapTLV(buf []byte) ([]byte, error) {
	for i := 0; i < len(buf); {
		switch buf[i] {
		case TLVNull:
			i++
			continue
		case TLVTerminator:
			return nil, ErrNoMessageTLV
		}
		if i+1 >= len(buf) {
			break
		}

		typ := buf[i]
		length, header := int(buf[i+1]), 2
		if length == 0xFF {
			if i+3 >= len(buf) {
				break
			}
			length, header = int(buf[i+2])<<8|int(buf[i+3]), 4
		}
		start := i + header
		if start+length > len(buf) {
			return nil, fmt.Errorf("%w: TLV 0x%02X needs %d bytes, %d left", ErrTruncatedRecord, typ, length, len(buf)-start)
		}
		if typ == TLVMessage {
			return buf[start : start+length], nil
		}
		i = start + length
	}
	return nil, ErrNoMessageTLV
}
