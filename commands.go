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

import "github.com/sabine/pxt-calliope-grove-pn532/internal/frame"

// PN532 command codes. The response code is always the command code + 1.
const (
	cmdSamConfiguration    = 0x14
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
)

// MIFARE commands carried inside InDataExchange.
const (
	mifareCmdAuthA       = 0x60
	mifareCmdRead        = 0x30
	mifareCmdWrite16     = 0xA0
	ultralightCmdWrite4  = 0xA2
	ultralightReadLength = 16
)

// SAMMode represents the SAM configuration mode
type SAMMode byte

const (
	// SAMModeNormal disables the security access module.
	SAMModeNormal SAMMode = 0x01
	// SAMModeVirtualCard - Virtual Card mode
	SAMModeVirtualCard SAMMode = 0x02
	// SAMModeWiredCard - Wired Card mode
	SAMModeWiredCard SAMMode = 0x03
	// SAMModeDualCard - Dual Card mode
	SAMModeDualCard SAMMode = 0x04
)

const (
	samTimeout = 0x14 // 20 x 50ms, only relevant in virtual card mode
	samUseIRQ  = 0x01

	maxTargets = 0x01
	brTypeA106 = 0x00 // 106 kbps type A (ISO/IEC14443 Type A)
)

// command prefixes the host TFI and command code to args.
func command(cmd byte, args ...byte) []byte {
	return append([]byte{frame.HostToPn532, cmd}, args...)
}

func samConfigurationCommand(mode SAMMode) []byte {
	return command(cmdSamConfiguration, byte(mode), samTimeout, samUseIRQ)
}

func inListPassiveTargetCommand() []byte {
	return command(cmdInListPassiveTarget, maxTargets, brTypeA106)
}

func authKeyACommand(target, block byte, key [6]byte, uid [4]byte) []byte {
	args := make([]byte, 0, 13)
	args = append(args, target, mifareCmdAuthA, block)
	args = append(args, key[:]...)
	args = append(args, uid[:]...)
	return command(cmdInDataExchange, args...)
}

func readCommand(target, address byte) []byte {
	return command(cmdInDataExchange, target, mifareCmdRead, address)
}

func writeCommand(target, op, address byte, data []byte) []byte {
	args := make([]byte, 0, 3+len(data))
	args = append(args, target, op, address)
	args = append(args, data...)
	return command(cmdInDataExchange, args...)
}
