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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapTLV(t *testing.T) {
	t.Parallel()

	msg, err := EncodeTextMessage("hi", "en")
	require.NoError(t, err)

	out, err := WrapTLV(msg, 3)
	require.NoError(t, err)

	want := []byte{
		0x00, 0x00, 0x00, 0x03,
		0x09, 0xD1, 0x01, 0x05,
		0x54, 0x02, 0x65, 0x6E,
		'h', 'i', 0xFE,
	}
	assert.Equal(t, want, out)
}

func TestWrapTLV_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := WrapTLV(make([]byte, MaxTLVLength+1), 0)
	require.ErrorIs(t, err, ErrTLVTooLarge)

	out, err := WrapTLV(make([]byte, MaxTLVLength), 0)
	require.NoError(t, err)
	assert.Len(t, out, MaxTLVLength+3)
}

func TestFindTextRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		buf          []byte
		wantOffset   int
		wantTextOff  int
		wantTextLen  int
		wantNotFound bool
	}{
		{
			name:        "after null TLVs",
			buf:         []byte{0x00, 0x00, 0x00, 0x03, 0x09, 0xD1, 0x01, 0x05, 0x54, 0x02, 0x65, 0x6E, 'h', 'i', 0xFE, 0x00},
			wantOffset:  5,
			wantTextOff: 12,
			wantTextLen: 2,
		},
		{
			name:        "directly after message TLV",
			buf:         []byte{0x03, 0x08, 0xD1, 0x01, 0x04, 0x54, 0x02, 0x65, 0x6E, 'x', 0xFE, 0x00},
			wantOffset:  2,
			wantTextOff: 9,
			wantTextLen: 1,
		},
		{
			name:        "five letter language",
			buf:         []byte{0xD1, 0x01, 0x08, 0x54, 0x05, 'e', 'n', '-', 'U', 'S', 'a', 'b'},
			wantOffset:  0,
			wantTextOff: 10,
			wantTextLen: 2,
		},
		{
			name:         "formatted empty tag",
			buf:          []byte{0x03, 0x00, 0xFE, 0x00, 0x00, 0x00, 0x00, 0x00},
			wantNotFound: true,
		},
		{
			name:         "header cut before status byte",
			buf:          []byte{0x00, 0xD1, 0x01, 0x05, 0x54},
			wantNotFound: true,
		},
		{
			name:         "negative text length",
			buf:          []byte{0xD1, 0x01, 0x01, 0x54, 0x02, 0x65, 0x6E},
			wantNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loc, ok := FindTextRecord(tt.buf)
			if tt.wantNotFound {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantOffset, loc.Offset)
			assert.Equal(t, tt.wantTextOff, loc.TextOffset())
			assert.Equal(t, tt.wantTextLen, loc.TextLength())
		})
	}
}

func TestUnwrapTLV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		buf  []byte
		want []byte
	}{
		{name: "padded message", buf: []byte{0x00, 0x00, 0x03, 0x02, 0xAA, 0xBB, 0xFE}, want: []byte{0xAA, 0xBB}},
		{name: "empty message", buf: []byte{0x03, 0x00, 0xFE, 0x00}, want: []byte{}},
		{name: "lock control skipped", buf: []byte{0x01, 0x03, 0xA0, 0x10, 0x44, 0x03, 0x01, 0x7F}, want: []byte{0x7F}},
		{name: "three-byte length", buf: append([]byte{0x03, 0xFF, 0x00, 0x02}, 0x01, 0x02), want: []byte{0x01, 0x02}},
		{name: "terminator first", buf: []byte{0x00, 0xFE, 0x03, 0x01, 0x00}, err: ErrNoMessageTLV},
		{name: "all zero", buf: make([]byte, 16), err: ErrNoMessageTLV},
		{name: "truncated", buf: []byte{0x03, 0x10, 0xD1}, err: ErrTruncatedRecord},
		{name: "dangling type", buf: []byte{0x00, 0x03}, err: ErrNoMessageTLV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := UnwrapTLV(tt.buf)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnwrapTLV_RoundTrip(t *testing.T) {
	t.Parallel()

	msg := []byte{0xD1, 0x01, 0x03, 0x54, 0x02, 'e', 'n'}
	wrapped, err := WrapTLV(msg, 3)
	require.NoError(t, err)

	got, err := UnwrapTLV(wrapped)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}
