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

// Package ndef encodes and locates the single short NDEF text record that
// page-addressed tags carry inside a Type 2 TLV container. Records are
// built and parsed with github.com/hsanjuan/go-ndef; this package adds the
// tag-side TLV framing and a byte-level scan for the record header.
package ndef

import "errors"

// Short record header bits of the single record we look for.
const (
	TNFWellKnown byte = 0x01 // NFC Forum well-known type

	flagMB byte = 0x80
	flagME byte = 0x40
	flagSR byte = 0x10
)

// MaxShortPayload is the largest payload a short record can carry.
const MaxShortPayload = 0xFF

// Common errors.
var (
	ErrInvalidRecord   = errors.New("ndef: invalid record")
	ErrTruncatedRecord = errors.New("ndef: truncated record data")
	ErrPayloadTooLarge = errors.New("ndef: payload exceeds short record limit")
)
