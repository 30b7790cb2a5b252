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

// CalculateChecksum returns the modulo-256 sum of data.
func CalculateChecksum(data []byte) byte {
	chk := byte(0)
	for _, b := range data {
		chk += b
	}
	return chk
}

// LengthChecksum returns the LCS byte for a frame of the given payload length,
// (0x100 - length) mod 0x100, so that LEN + LCS wraps to zero.
func LengthChecksum(length byte) byte {
	return byte(0x100 - int(length))
}

// DataChecksum returns the DCS byte for payload,
// (0x100 - sum(payload) mod 0x100) mod 0x100.
func DataChecksum(payload []byte) byte {
	return byte(0x100 - int(CalculateChecksum(payload)))
}
