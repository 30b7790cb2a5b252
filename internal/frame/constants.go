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

// Frame identifiers (TFI).
const (
	HostToPn532 = 0xD4 // Commands from host to PN532
	Pn532ToHost = 0xD5 // Responses from PN532 to host
)

const (
	Preamble   = 0x00 // Frame preamble byte
	StartCode1 = 0x00 // Start code byte 1
	StartCode2 = 0xFF // Start code byte 2
	Postamble  = 0x00 // Frame postamble byte
)

// StatusReady is the status byte the chip prepends to every I2C read once
// it has data staged. It is the first byte of every raw response.
const StatusReady = 0x01

const (
	// MaxPayloadLength is the largest payload a normal information frame can carry.
	MaxPayloadLength = 0xFF

	// Overhead is the number of raw response bytes around a payload of length L:
	// status, preamble, start code (2), LEN, LCS, DCS, postamble.
	Overhead = 8

	// lengthOffset is the position of LEN inside a raw response.
	lengthOffset = 4
	// payloadOffset is the position of the TFI inside a raw response.
	payloadOffset = 6
)

var (
	// AckFrame is the acknowledgement as read over I2C, status byte included.
	AckFrame = []byte{0x01, 0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}

	// WakeConfirmFrame is the SAMConfiguration response as read over I2C.
	WakeConfirmFrame = []byte{0x01, 0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD5, 0x15, 0x16}
)
