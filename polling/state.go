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

package polling

import "time"

// CardState tracks the card on the reader.
type CardState struct {
	LastSeen time.Time
	LastUID  string
	Present  bool
}

// seen records a discovery of uid and reports whether it is a new card
// and whether it replaced another one.
func (cs *CardState) seen(uid string, now time.Time) (detected, changed bool) {
	detected = !cs.Present
	changed = cs.Present && cs.LastUID != uid
	cs.Present = true
	cs.LastUID = uid
	cs.LastSeen = now
	return detected, changed
}

// missed records a poll that found no card and reports whether the card
// has now been gone longer than timeout.
func (cs *CardState) missed(now time.Time, timeout time.Duration) (removed bool) {
	if !cs.Present || now.Sub(cs.LastSeen) < timeout {
		return false
	}
	cs.Present = false
	cs.LastUID = ""
	return true
}
