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

// Package i2c detects PN532 chips on I2C buses.
package i2c

import (
	"context"

	"github.com/sabine/pxt-calliope-grove-pn532/detection"
)

// DefaultPN532Address is the standard I2C address for PN532 (0x48 >> 1)
const DefaultPN532Address = 0x24

// ready is the status byte a PN532 answers a bare read with once it has a
// response staged. An idle chip answers 0x00.
const ready = 0x01

type detector struct{}

// New creates a new I2C detector
func New() detection.Detector {
	return &detector{}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "i2c"
}

// Detect lists I2C buses and, in Safe mode, probes each for a device at
// DefaultPN532Address.
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	return detect(ctx, opts)
}

// confidence grades one probe: an ACK on the address is Medium, the ready
// byte on top of it is High.
func confidence(acked bool, status byte) (detection.Confidence, bool) {
	switch {
	case !acked:
		return detection.Low, false
	case status == ready:
		return detection.High, true
	default:
		return detection.Medium, true
	}
}
