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

package testing

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

// CardKind selects the memory model of a VirtualCard.
type CardKind string

const (
	// KindClassic1K is a MIFARE Classic 1K: 64 blocks of 16 bytes, 16 sectors.
	KindClassic1K CardKind = "MIFARE1K"
	// KindNTAG213 is an NTAG213: 45 pages of 4 bytes.
	KindNTAG213 CardKind = "NTAG213"
)

const (
	classicBlocks  = 64
	classicBlock   = 16
	ntag213Pages   = 45
	ntagPage       = 4
	readLength     = 16
	noSector       = -1
	classicSectors = classicBlocks / 4
)

// Status codes returned inside InDataExchange responses.
const (
	statusOK          = 0x00
	statusTimeout     = 0x01
	statusAuthError   = 0x14
	statusWrongCtx    = 0x27
	statusDisappeared = 0x2B
)

// DefaultKey is the factory key A and key B of MIFARE Classic sectors.
var DefaultKey = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Test UIDs.
var (
	TestClassicUID = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	TestNTAGUID    = []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0x80}
)

// Write records one accepted write to card memory.
type Write struct {
	Data    []byte
	Address int
}

// VirtualCard simulates the memory and command set of a contactless card.
type VirtualCard struct {
	keys                map[int][]byte
	Kind                CardKind
	UID                 []byte
	memory              []byte
	writes              []Write
	authenticatedSector int
	Present             bool
}

// NewVirtualClassic1K creates a blank MIFARE Classic 1K with factory keys.
func NewVirtualClassic1K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestClassicUID
	}
	c := &VirtualCard{
		Kind:                KindClassic1K,
		UID:                 append([]byte(nil), uid...),
		memory:              make([]byte, classicBlocks*classicBlock),
		keys:                make(map[int][]byte),
		authenticatedSector: noSector,
		Present:             true,
	}

	copy(c.memory, c.UID)
	for sector := range classicSectors {
		trailer := c.memory[(sector*4+3)*classicBlock:]
		copy(trailer[0:6], DefaultKey)
		copy(trailer[6:10], []byte{0xFF, 0x07, 0x80, 0x69})
		copy(trailer[10:16], DefaultKey)
		c.keys[sector] = append([]byte(nil), DefaultKey...)
	}
	return c
}

// NewVirtualNTAG213 creates a blank NTAG213 with a valid capability container
// and an empty NDEF message.
func NewVirtualNTAG213(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestNTAGUID
	}
	c := &VirtualCard{
		Kind:                KindNTAG213,
		UID:                 append([]byte(nil), uid...),
		memory:              make([]byte, ntag213Pages*ntagPage),
		authenticatedSector: noSector,
		Present:             true,
	}

	copy(c.memory, c.UID)
	copy(c.memory[3*ntagPage:], []byte{0xE1, 0x10, 0x12, 0x00})
	copy(c.memory[4*ntagPage:], []byte{0x03, 0x00, 0xFE, 0x00})
	return c
}

// UIDString returns the UID as lowercase hex.
func (c *VirtualCard) UIDString() string {
	return hex.EncodeToString(c.UID)
}

// SensRes returns the ATQA the card answers with.
func (c *VirtualCard) SensRes() []byte {
	if c.Kind == KindNTAG213 {
		return []byte{0x00, 0x44}
	}
	return []byte{0x00, 0x04}
}

// SelRes returns the SAK the card answers with.
func (c *VirtualCard) SelRes() byte {
	if c.Kind == KindNTAG213 {
		return 0x00
	}
	return 0x08
}

// Unit returns a copy of one block or page.
func (c *VirtualCard) Unit(address int) []byte {
	size := c.unitSize()
	start := address * size
	if address < 0 || start+size > len(c.memory) {
		return nil
	}
	return append([]byte(nil), c.memory[start:start+size]...)
}

// SetUnit overwrites one block or page without going through the RF layer.
func (c *VirtualCard) SetUnit(address int, data []byte) {
	size := c.unitSize()
	start := address * size
	if address < 0 || start+size > len(c.memory) {
		return
	}
	buf := make([]byte, size)
	copy(buf, data)
	copy(c.memory[start:], buf)
}

// Memory returns a copy of the whole card memory.
func (c *VirtualCard) Memory() []byte {
	return append([]byte(nil), c.memory...)
}

// Writes returns every write the card accepted, in order.
func (c *VirtualCard) Writes() []Write {
	out := make([]Write, len(c.writes))
	copy(out, c.writes)
	return out
}

// ClearWrites forgets the write history.
func (c *VirtualCard) ClearWrites() {
	c.writes = nil
}

// SetSectorKey replaces key A of a Classic sector.
func (c *VirtualCard) SetSectorKey(sector int, key []byte) error {
	if c.Kind != KindClassic1K {
		return errors.New("sector keys only apply to MIFARE Classic")
	}
	if len(key) != 6 || sector < 0 || sector >= classicSectors {
		return fmt.Errorf("invalid key or sector %d", sector)
	}
	c.keys[sector] = append([]byte(nil), key...)
	return nil
}

func (c *VirtualCard) unitSize() int {
	if c.Kind == KindNTAG213 {
		return ntagPage
	}
	return classicBlock
}

// exchange runs one InDataExchange command and returns status plus data.
func (c *VirtualCard) exchange(cmd []byte) (status byte, data []byte) {
	if !c.Present {
		return statusDisappeared, nil
	}
	if len(cmd) < 2 {
		return statusWrongCtx, nil
	}

	switch c.Kind {
	case KindClassic1K:
		return c.classicCommand(cmd)
	case KindNTAG213:
		return c.ntagCommand(cmd)
	default:
		return statusWrongCtx, nil
	}
}

func (c *VirtualCard) classicCommand(cmd []byte) (status byte, data []byte) {
	block := int(cmd[1])
	if block >= classicBlocks {
		return statusWrongCtx, nil
	}
	sector := block / 4

	switch cmd[0] {
	case 0x60: // AUTH key A: block, key(6), uid(4)
		if len(cmd) < 12 {
			return statusWrongCtx, nil
		}
		key, uid := cmd[2:8], cmd[8:12]
		if !bytes.Equal(key, c.keys[sector]) || !bytes.Equal(uid, c.UID[:4]) {
			c.authenticatedSector = noSector
			return statusAuthError, nil
		}
		c.authenticatedSector = sector
		return statusOK, nil

	case 0x30: // READ
		if c.authenticatedSector != sector {
			return statusAuthError, nil
		}
		out := c.Unit(block)
		if block%4 == 3 {
			// key A is never readable
			copy(out[0:6], make([]byte, 6))
		}
		return statusOK, out

	case 0xA0: // WRITE 16
		if c.authenticatedSector != sector {
			return statusAuthError, nil
		}
		if len(cmd) != 2+classicBlock || block == 0 {
			return statusWrongCtx, nil
		}
		c.store(block, cmd[2:])
		return statusOK, nil
	}
	return statusWrongCtx, nil
}

func (c *VirtualCard) ntagCommand(cmd []byte) (status byte, data []byte) {
	page := int(cmd[1])

	switch cmd[0] {
	case 0x30: // READ returns four pages; pages past the end read as zero
		out := make([]byte, readLength)
		start := page * ntagPage
		if start < len(c.memory) {
			copy(out, c.memory[start:])
		}
		return statusOK, out

	case 0xA2: // WRITE 4
		if len(cmd) != 2+ntagPage || page >= ntag213Pages || page < 2 {
			return statusWrongCtx, nil
		}
		c.store(page, cmd[2:])
		return statusOK, nil
	}
	return statusWrongCtx, nil
}

func (c *VirtualCard) store(address int, data []byte) {
	c.SetUnit(address, data)
	c.writes = append(c.writes, Write{Address: address, Data: append([]byte(nil), data...)})
}
