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
)

// Protocol errors. Each maps to one ErrorKind.
var (
	// ErrTransportMismatch means received bytes differ from an expected constant.
	ErrTransportMismatch = errors.New("transport mismatch")
	// ErrFrameMalformed means a response frame has a bad start marker or is cut short.
	ErrFrameMalformed = errors.New("malformed frame")
	// ErrChecksumMismatch means a response frame failed LCS or DCS validation.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrAuthFailed means key A authentication returned a nonzero status.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrDataTooLarge means the text exceeds the card's storage capacity.
	ErrDataTooLarge = errors.New("data too large")
	// ErrIllegalAddress means a write targeted a reserved or lock-risking unit.
	ErrIllegalAddress = errors.New("illegal address")
	// ErrInvalidUnitLength means unit data was not exactly one unit long.
	ErrInvalidUnitLength = errors.New("invalid unit length")
	// ErrNDEFTerminatedEarly means the terminator TLV appeared inside the text.
	ErrNDEFTerminatedEarly = errors.New("NDEF terminator inside record")
)

// Session and device errors.
var (
	ErrNoTarget     = errors.New("no target in field")
	ErrNotRunning   = errors.New("chip did not confirm wake-up")
	ErrNotSupported = errors.New("operation not supported by card profile")
	ErrNilBus       = errors.New("bus is nil")
)

// ErrorKind classifies a ProtocolError.
type ErrorKind int

const (
	// KindUnknown is the zero value.
	KindUnknown ErrorKind = iota
	// KindTransport covers ACK, confirmation and status byte mismatches.
	KindTransport
	// KindMalformed covers bad start markers and checksums.
	KindMalformed
	// KindAuth is a failed key A authentication.
	KindAuth
	// KindOversize is text that does not fit the card.
	KindOversize
	// KindIllegalAddress is a refused write to a reserved unit.
	KindIllegalAddress
	// KindUnitLength is unit data of the wrong size.
	KindUnitLength
	// KindRecord is an NDEF record that does not match its own header.
	KindRecord
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindAuth:
		return "auth"
	case KindOversize:
		return "oversize"
	case KindIllegalAddress:
		return "illegal-address"
	case KindUnitLength:
		return "unit-length"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// tolerable reports whether a kind is subject to the device Policy.
// Oversize input is handled by each codec and never tolerated.
func (k ErrorKind) tolerable() bool {
	return k != KindOversize && k != KindUnknown
}

// ProtocolError wraps a protocol error with the operation and unit address
// it occurred on.
type ProtocolError struct {
	Err     error
	Op      string
	Kind    ErrorKind
	Address int // -1 when the error is not tied to a unit
}

func (e *ProtocolError) Error() string {
	if e.Address >= 0 {
		return fmt.Sprintf("%s unit %d: %v", e.Op, e.Address, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func newProtocolError(op string, address int, kind ErrorKind, err error) *ProtocolError {
	return &ProtocolError{Op: op, Address: address, Kind: kind, Err: err}
}

// KindOf returns the ErrorKind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Policy decides what happens when a tolerable protocol error occurs.
type Policy int

const (
	// FailOpen logs and records the error, then continues with best-effort data.
	FailOpen Policy = iota
	// FailFast aborts the operation with the error.
	FailFast
)

func (p Policy) String() string {
	if p == FailFast {
		return "fail-fast"
	}
	return "fail-open"
}

// ParsePolicy accepts "fail-open" / "open" and "fail-fast" / "fast".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "fail-open", "open", "":
		return FailOpen, nil
	case "fail-fast", "fast":
		return FailFast, nil
	default:
		return FailOpen, fmt.Errorf("unknown policy %q", s)
	}
}

// statusMeaning returns a human-readable meaning for PN532 status codes
// (PN532 User Manual section 7.1).
func statusMeaning(code byte) string {
	meanings := map[byte]string{
		0x00: "success",
		0x01: "timeout",
		0x02: "CRC error",
		0x03: "parity error",
		0x05: "framing error during mifare operation",
		0x0A: "RF field not activated in time",
		0x0B: "RF protocol error",
		0x13: "dataformat does not match",
		0x14: "authentication error",
		0x27: "wrong context for command",
		0x2B: "card disappeared",
		0x81: "command not supported",
	}
	if m, ok := meanings[code]; ok {
		return m
	}
	return "unknown error"
}

// IsRetryable reports whether re-running the whole transaction may succeed.
// Transport, framing and auth failures are usually RF or timing glitches;
// oversize input and illegal addresses will fail the same way again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch KindOf(err) {
	case KindTransport, KindMalformed, KindAuth, KindRecord:
		return true
	case KindOversize, KindIllegalAddress, KindUnitLength:
		return false
	case KindUnknown:
	}

	switch {
	case errors.Is(err, ErrNoTarget),
		errors.Is(err, ErrNotRunning),
		errors.Is(err, ErrTransportMismatch),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrFrameMalformed):
		return true
	default:
		return false
	}
}
