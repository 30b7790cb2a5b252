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

// ValidateLengthChecksum reports whether LEN + LCS wraps to zero.
func ValidateLengthChecksum(length, lcs byte) bool {
	return length+lcs == 0
}

// ValidateDataChecksum reports whether sum(payload) + DCS wraps to zero.
func ValidateDataChecksum(payload []byte, dcs byte) bool {
	return CalculateChecksum(payload)+dcs == 0
}

// ResponseLength returns the number of raw bytes a response with the given
// announced payload length occupies, status byte included.
func ResponseLength(payloadLen int) int {
	return payloadLen + Overhead
}
