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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: FailOpen},
		{in: "open", want: FailOpen},
		{in: "fail-open", want: FailOpen},
		{in: "fast", want: FailFast},
		{in: "fail-fast", want: FailFast},
		{in: "strict", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) Policy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}

func TestProtocolError(t *testing.T) {
	t.Parallel()

	err := newProtocolError("read", 5, KindTransport, fmt.Errorf("%w: no ACK", ErrTransportMismatch))
	assert.Equal(t, "read unit 5: transport mismatch: no ACK", err.Error())
	assert.ErrorIs(t, err, ErrTransportMismatch)

	wrapped := fmt.Errorf("operation: %w", err)
	assert.Equal(t, KindTransport, KindOf(wrapped))

	var pe *ProtocolError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, 5, pe.Address)

	unbound := newProtocolError("write", -1, KindOversize, ErrDataTooLarge)
	assert.Equal(t, "write: data too large", unbound.Error())
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorKindTolerable(t *testing.T) {
	t.Parallel()

	for _, k := range []ErrorKind{KindTransport, KindMalformed, KindAuth, KindIllegalAddress, KindUnitLength, KindRecord} {
		assert.True(t, k.tolerable(), k.String())
	}
	assert.False(t, KindOversize.tolerable())
	assert.False(t, KindUnknown.tolerable())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil},
		{name: "transport", err: newProtocolError("read", 4, KindTransport, ErrTransportMismatch), want: true},
		{name: "malformed", err: newProtocolError("read", 4, KindMalformed, ErrChecksumMismatch), want: true},
		{name: "auth", err: newProtocolError("read", 4, KindAuth, ErrAuthFailed), want: true},
		{name: "record", err: newProtocolError("read", 4, KindRecord, ErrNDEFTerminatedEarly), want: true},
		{name: "oversize", err: newProtocolError("write", -1, KindOversize, ErrDataTooLarge)},
		{name: "illegal address", err: newProtocolError("write", 3, KindIllegalAddress, ErrIllegalAddress)},
		{name: "unit length", err: newProtocolError("write", 5, KindUnitLength, ErrInvalidUnitLength)},
		{name: "no target", err: ErrNoTarget, want: true},
		{name: "not running", err: fmt.Errorf("wake: %w", ErrNotRunning), want: true},
		{name: "not supported", err: ErrNotSupported},
		{name: "plain", err: errors.New("bus gone")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStatusMeaning(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "authentication error", statusMeaning(0x14))
	assert.Equal(t, "card disappeared", statusMeaning(0x2B))
	assert.Equal(t, "unknown error", statusMeaning(0x7F))
}
