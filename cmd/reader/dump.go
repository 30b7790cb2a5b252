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

package main

import (
	"fmt"
	"io"
	"strings"

	gondef "github.com/hsanjuan/go-ndef"

	pn532 "github.com/sabine/pxt-calliope-grove-pn532"
	"github.com/sabine/pxt-calliope-grove-pn532/pkg/ndef"
)

func formatHexString(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// formatHexDump renders one line per unit.
func formatHexDump(profile pn532.Profile, units []pn532.Unit) []string {
	label := "Block"
	if profile.Family == pn532.FamilyUltralight {
		label = "Page"
	}

	lines := make([]string, 0, len(units))
	for _, u := range units {
		line := fmt.Sprintf("%s %02d: %s", label, u.Address, formatHexString(u.Data))
		if profile.Reserved(u.Address) {
			line += "  (reserved)"
		}
		lines = append(lines, line)
	}
	return lines
}

// describeNDEF decodes the NDEF message of an Ultralight data area.
func describeNDEF(profile pn532.Profile, units []pn532.Unit) []string {
	if profile.Family != pn532.FamilyUltralight {
		return nil
	}

	var area []byte
	for _, u := range units {
		if u.Address >= profile.HeaderUnit {
			area = append(area, u.Data...)
		}
	}

	raw, err := ndef.UnwrapTLV(area)
	if err != nil {
		return []string{fmt.Sprintf("NDEF: %v", err)}
	}
	if len(raw) == 0 {
		return []string{"NDEF: empty message"}
	}

	msg := &gondef.Message{}
	if _, err := msg.Unmarshal(raw); err != nil {
		return []string{fmt.Sprintf("NDEF: %d bytes, unparseable: %v", len(raw), err)}
	}

	lines := []string{fmt.Sprintf("NDEF: %d record(s)", len(msg.Records))}
	for i, rec := range msg.Records {
		payload, err := rec.Payload()
		if err != nil {
			lines = append(lines, fmt.Sprintf("  record %d: TNF %d type %q: %v", i, rec.TNF(), rec.Type(), err))
			continue
		}
		line := fmt.Sprintf("  record %d: TNF %d type %q payload %s", i, rec.TNF(), rec.Type(), formatHexString(payload.Marshal()))
		if rec.Type() == ndef.TextRecordType {
			if tr, err := ndef.ParseTextRecord(payload.Marshal()); err == nil {
				line += fmt.Sprintf(" text %q (%s)", tr.Text, tr.Language)
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func printDump(out io.Writer, profile pn532.Profile, units []pn532.Unit) {
	for _, line := range formatHexDump(profile, units) {
		_, _ = fmt.Fprintln(out, line)
	}
	for _, line := range describeNDEF(profile, units) {
		_, _ = fmt.Fprintln(out, line)
	}
}
