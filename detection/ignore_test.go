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

package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		devicePath  string
		ignorePaths []string
		expected    bool
	}{
		{name: "empty ignore list", devicePath: "/dev/i2c-1", ignorePaths: []string{}, expected: false},
		{name: "empty device path", devicePath: "", ignorePaths: []string{"/dev/i2c-1"}, expected: false},
		{name: "exact match", devicePath: "/dev/i2c-1", ignorePaths: []string{"/dev/i2c-1"}, expected: true},
		{name: "case insensitive match", devicePath: "/dev/i2c-1", ignorePaths: []string{"/DEV/I2C-1"}, expected: true},
		{name: "no match", devicePath: "/dev/i2c-2", ignorePaths: []string{"/dev/i2c-1"}, expected: false},
		{
			name:        "one of several",
			devicePath:  "/dev/i2c-2",
			ignorePaths: []string{"/dev/i2c-0", "/dev/i2c-2"},
			expected:    true,
		},
		{name: "relative components", devicePath: "/dev/../dev/i2c-1", ignorePaths: []string{"/dev/i2c-1"}, expected: true},
		{name: "empty entries skipped", devicePath: "/dev/i2c-1", ignorePaths: []string{"", "/dev/i2c-1"}, expected: true},
		{name: "prefix is not a match", devicePath: "/dev/i2c-10", ignorePaths: []string{"/dev/i2c-1"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsPathIgnored(tt.devicePath, tt.ignorePaths))
		})
	}
}

func TestBusNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want int
	}{
		{"/dev/i2c-0", 0},
		{"/dev/i2c-1", 1},
		{"/dev/i2c-22", 22},
		{"i2c-3", 3},
		{"/dev/ttyUSB0", -1},
		{"/dev/i2c-", -1},
		{"/dev/i2c-x", -1},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BusNumber(tt.path))
		})
	}
}

func TestOptionsWithIgnorePaths(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	assert.Nil(t, opts.IgnorePaths)

	devices := []DeviceInfo{{Path: "/dev/i2c-1"}, {Path: "/dev/i2c-2"}}
	opts.IgnorePaths = []string{"/dev/i2c-1"}
	filtered := filterDevices(devices, &opts)
	assert.Equal(t, []DeviceInfo{{Path: "/dev/i2c-2"}}, filtered)
}
