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

package frame

import (
	"errors"
	"fmt"
)

// Frame errors.
var (
	ErrPayloadTooLarge = errors.New("frame: payload exceeds 255 bytes")
	ErrShortFrame      = errors.New("frame: raw response too short")
	ErrBadStartMarker  = errors.New("frame: unexpected start marker")
	ErrLengthChecksum  = errors.New("frame: length checksum mismatch")
	ErrDataChecksum    = errors.New("frame: data checksum mismatch")
)

// Frame is one normal information frame exchanged with the chip.
type Frame struct {
	// Raw holds the frame exactly as written or read. For a decoded response
	// it starts at the I2C status byte.
	Raw            []byte
	Payload        []byte // TFI, command code and command data
	Length         byte
	LengthChecksum byte
	DataChecksum   byte
}

// Bytes returns the frame as it appears on the wire.
func (f *Frame) Bytes() []byte {
	return f.Raw
}

// Data returns the payload after the TFI and response code.
func (f *Frame) Data() []byte {
	if len(f.Payload) < 2 {
		return nil
	}
	return f.Payload[2:]
}

// EncodeCommand wraps payload (TFI, command code, parameters) into
//
//	00 00 FF LEN LCS payload DCS 00
func EncodeCommand(payload []byte) (*Frame, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(payload))
	}

	length := byte(len(payload))
	f := &Frame{
		Length:         length,
		LengthChecksum: LengthChecksum(length),
		DataChecksum:   DataChecksum(payload),
	}

	raw := make([]byte, 0, len(payload)+Overhead-1)
	raw = append(raw, Preamble, StartCode1, StartCode2, f.Length, f.LengthChecksum)
	raw = append(raw, payload...)
	raw = append(raw, f.DataChecksum, Postamble)

	f.Raw = raw
	f.Payload = raw[5 : 5+len(payload)]
	return f, nil
}

// DecodeResponse slices one response frame out of a raw I2C read buffer.
//
// The announced length is taken from a fixed offset and exactly LEN+8 bytes
// are sliced. Malformation never stops decoding: whenever enough bytes are
// present the frame is returned together with an error describing every
// problem found, so callers can choose to continue with the payload anyway.
func DecodeResponse(raw []byte) (*Frame, error) {
	if len(raw) <= lengthOffset+1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(raw))
	}

	length := int(raw[lengthOffset])
	total := length + Overhead
	if len(raw) < total {
		return nil, fmt.Errorf("%w: need %d bytes for LEN %d, have %d", ErrShortFrame, total, length, len(raw))
	}

	sliced := raw[:total]
	f := &Frame{
		Raw:            sliced,
		Length:         sliced[lengthOffset],
		LengthChecksum: sliced[lengthOffset+1],
		Payload:        sliced[payloadOffset : payloadOffset+length],
		DataChecksum:   sliced[payloadOffset+length],
	}

	var errs []error
	if sliced[0] != StatusReady {
		errs = append(errs, fmt.Errorf("%w: 0x%02X", ErrBadStartMarker, sliced[0]))
	}
	if !ValidateLengthChecksum(f.Length, f.LengthChecksum) {
		errs = append(errs, fmt.Errorf("%w: LEN 0x%02X LCS 0x%02X", ErrLengthChecksum, f.Length, f.LengthChecksum))
	}
	if !ValidateDataChecksum(f.Payload, f.DataChecksum) {
		errs = append(errs, fmt.Errorf("%w: DCS 0x%02X", ErrDataChecksum, f.DataChecksum))
	}

	return f, errors.Join(errs...)
}
