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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommand_ReadBlock(t *testing.T) {
	t.Parallel()

	f, err := EncodeCommand([]byte{0xD4, 0x40, 0x01, 0x30, 0x04})
	require.NoError(t, err)

	want := []byte{0x00, 0x00, 0xFF, 0x05, 0xFB, 0xD4, 0x40, 0x01, 0x30, 0x04, 0xB7, 0x00}
	assert.Equal(t, want, f.Bytes())
	assert.Equal(t, byte(0x05), f.Length)
	assert.Equal(t, byte(0xFB), f.LengthChecksum)
	assert.Equal(t, byte(0xB7), f.DataChecksum)
}

func TestEncodeCommand_SAMConfiguration(t *testing.T) {
	t.Parallel()

	f, err := EncodeCommand([]byte{0xD4, 0x14, 0x01, 0x14, 0x01})
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{0x00, 0x00, 0xFF, 0x05, 0xFB, 0xD4, 0x14, 0x01, 0x14, 0x01, 0x02, 0x00},
		f.Bytes())
}

func TestEncodeCommand_ZeroLength(t *testing.T) {
	t.Parallel()

	f, err := EncodeCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00}, f.Bytes())
	assert.Empty(t, f.Payload)
}

func TestEncodeCommand_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := EncodeCommand(make([]byte, 256))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestRoundTrip_AllLengths(t *testing.T) {
	t.Parallel()

	for length := 0; length <= MaxPayloadLength; length++ {
		payload := make([]byte, length)
		for i := range payload {
			payload[i] = byte(i*7 + length)
		}

		enc, err := EncodeCommand(payload)
		require.NoError(t, err)

		raw := append([]byte{StatusReady}, enc.Bytes()...)
		raw = append(raw, 0x00, 0x00, 0x00) // trailing zero padding from the bus
		dec, err := DecodeResponse(raw)
		require.NoError(t, err, "length %d", length)
		require.Equal(t, payload, dec.Payload, "length %d", length)
		assert.True(t, ValidateLengthChecksum(dec.Length, dec.LengthChecksum))
		assert.True(t, ValidateDataChecksum(dec.Payload, dec.DataChecksum))
		assert.Len(t, dec.Raw, ResponseLength(length))
	}
}

func TestDecodeResponse_ReadBlock(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789abcdef")
	payload := append([]byte{Pn532ToHost, 0x41, 0x00}, data...)
	raw := []byte{StatusReady, 0x00, 0x00, 0xFF, byte(len(payload)), LengthChecksum(byte(len(payload)))}
	raw = append(raw, payload...)
	raw = append(raw, DataChecksum(payload), 0x00, 0x00, 0x00)

	f, err := DecodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(0x13), f.Length)
	assert.Equal(t, append([]byte{0x00}, data...), f.Data())
}

func TestDecodeResponse_Malformed(t *testing.T) {
	t.Parallel()

	good := []byte{0x01, 0x00, 0x00, 0xFF, 0x03, 0xFD, 0xD5, 0x41, 0x00, 0xEA, 0x00}

	tests := []struct {
		name    string
		mutate  func([]byte)
		wantErr error
	}{
		{name: "bad start marker", mutate: func(b []byte) { b[0] = 0x00 }, wantErr: ErrBadStartMarker},
		{name: "bad length checksum", mutate: func(b []byte) { b[5] = 0xFC }, wantErr: ErrLengthChecksum},
		{name: "bad data checksum", mutate: func(b []byte) { b[9] = 0xEB }, wantErr: ErrDataChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := append([]byte(nil), good...)
			tt.mutate(raw)

			f, err := DecodeResponse(raw)
			require.ErrorIs(t, err, tt.wantErr)
			require.NotNil(t, f, "malformed frames are still decoded")
			assert.Equal(t, []byte{0xD5, 0x41, 0x00}, f.Payload)
		})
	}

	f, err := DecodeResponse(good)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, f.Data())
}

func TestDecodeResponse_Short(t *testing.T) {
	t.Parallel()

	_, err := DecodeResponse([]byte{0x01, 0x00, 0x00})
	require.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodeResponse([]byte{0x01, 0x00, 0x00, 0xFF, 0x10, 0xF0, 0xD5})
	require.ErrorIs(t, err, ErrShortFrame)
}

func TestConstantsAreWellFormed(t *testing.T) {
	t.Parallel()

	f, err := DecodeResponse(append(append([]byte(nil), WakeConfirmFrame...), Postamble))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xD5, 0x15}, f.Payload)

	assert.Len(t, AckFrame, 7)
	assert.Equal(t, byte(StatusReady), AckFrame[0])
}
