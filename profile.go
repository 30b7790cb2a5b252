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

import "fmt"

// Family identifies the memory model and text layout of a card.
type Family int

const (
	// FamilyClassic is MIFARE Classic: 16-byte blocks gated by key A.
	FamilyClassic Family = iota
	// FamilyUltralight is MIFARE Ultralight / NTAG21x: 4-byte pages, no auth.
	FamilyUltralight
)

func (f Family) String() string {
	switch f {
	case FamilyClassic:
		return "classic"
	case FamilyUltralight:
		return "ultralight"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Profile describes a card family to the transaction layer and selects the
// text codec.
type Profile struct {
	Name string
	// DataUnits lists, in order, the units the length-prefixed layout
	// stores text in. Classic only.
	DataUnits []int
	Family    Family
	// UnitSize is the write granule in bytes.
	UnitSize int
	// ReadSize is the number of bytes one read returns.
	ReadSize int
	// Ceiling is the first unit that must never be written.
	Ceiling int
	// HeaderUnit holds the text length (Classic) or is the first NDEF page
	// (Ultralight).
	HeaderUnit   int
	RequiresAuth bool
}

const (
	classicCeiling    = 64
	ultralightCeiling = 40 // NTAG213: pages 40-44 hold lock and config bytes
	ndefCCPage        = 3
	ndefFirstPage     = 4
)

// Classic is MIFARE Classic 1K storing text as a length byte in block 4
// followed by data blocks that skip the sector trailers.
var Classic = Profile{
	Name:         "mifare-classic-1k",
	Family:       FamilyClassic,
	UnitSize:     16,
	ReadSize:     16,
	Ceiling:      classicCeiling,
	HeaderUnit:   4,
	DataUnits:    []int{5, 6, 8, 9, 10, 12, 13, 14},
	RequiresAuth: true,
}

// Ultralight is an NTAG213-sized Type 2 tag storing one NDEF text record.
var Ultralight = UltralightWithCeiling(ultralightCeiling)

// UltralightWithCeiling returns an Ultralight profile whose writable area
// ends before page ceiling, e.g. 130 for NTAG215 or 226 for NTAG216.
func UltralightWithCeiling(ceiling int) Profile {
	return Profile{
		Name:       fmt.Sprintf("ultralight-%d", ceiling),
		Family:     FamilyUltralight,
		UnitSize:   4,
		ReadSize:   16,
		Ceiling:    ceiling,
		HeaderUnit: ndefFirstPage,
	}
}

// ProfileForSAK maps a SEL_RES (SAK) byte to a profile.
func ProfileForSAK(sak byte) (Profile, bool) {
	switch sak {
	case 0x08, 0x18:
		return Classic, true
	case 0x00:
		return Ultralight, true
	default:
		return Profile{}, false
	}
}

// Reserved reports whether address holds manufacturer, key, lock or
// configuration data.
func (p Profile) Reserved(address int) bool {
	if address < 0 || address >= p.Ceiling {
		return true
	}
	switch p.Family {
	case FamilyClassic:
		return address == 0 || address%4 == 3
	case FamilyUltralight:
		return address < ndefCCPage
	default:
		return true
	}
}

// Writable reports whether a write to address is allowed.
func (p Profile) Writable(address int) bool {
	return !p.Reserved(address)
}

// UnitsPerRead is how many units one read returns.
func (p Profile) UnitsPerRead() int {
	if p.UnitSize == 0 {
		return 1
	}
	return max(1, p.ReadSize/p.UnitSize)
}

// TextCapacity returns the longest text, in bytes, the profile can store
// with the given NDEF language code.
func (p Profile) TextCapacity(language string) int {
	switch p.Family {
	case FamilyClassic:
		// the header block records the length in one byte
		return min(p.UnitSize*len(p.DataUnits), 0xFF)
	case FamilyUltralight:
		// NULL TLVs + 03 L + D1 01 PL 54 + status + language + text + FE
		overhead := ndefPadding + 2 + 4 + 1 + len(language) + 1
		byPages := p.UnitSize*(p.Ceiling-p.HeaderUnit) - overhead
		byTLV := 0xFE - 4 - 1 - len(language)
		return max(0, min(byPages, byTLV))
	default:
		return 0
	}
}

func (p Profile) codec() textCodec {
	if p.Family == FamilyUltralight {
		return ndefText{}
	}
	return classicText{}
}

func (p Profile) validate() error {
	if p.UnitSize <= 0 || p.ReadSize < p.UnitSize || p.Ceiling <= p.HeaderUnit {
		return fmt.Errorf("invalid profile %q", p.Name)
	}
	if p.Family == FamilyClassic {
		for _, a := range p.DataUnits {
			if p.Reserved(a) {
				return fmt.Errorf("profile %q: data unit %d is reserved", p.Name, a)
			}
		}
	}
	return nil
}

func (p Profile) String() string {
	return p.Name
}
