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

//go:build linux

package i2c

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/sabine/pxt-calliope-grove-pn532/detection"
)

// ioctl requests from linux/i2c-dev.h
const (
	ioctlI2CSlave = 0x0703
	ioctlI2CFuncs = 0x0705
	funcPlainI2C  = 0x00000001
)

var devGlob = "/dev/i2c-*"

func detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	paths, err := filepath.Glob(devGlob)
	if err != nil {
		return nil, fmt.Errorf("list i2c buses: %w", err)
	}
	sort.Slice(paths, func(i, j int) bool {
		return detection.BusNumber(paths[i]) < detection.BusNumber(paths[j])
	})

	var devices []detection.DeviceInfo
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return devices, err
		}
		if detection.IsPathIgnored(path, opts.IgnorePaths) {
			continue
		}

		info := detection.DeviceInfo{
			Transport:  "i2c",
			Path:       path,
			Name:       fmt.Sprintf("PN532 on I2C bus %d", detection.BusNumber(path)),
			Address:    DefaultPN532Address,
			Confidence: detection.Low,
		}
		if opts.Mode == detection.Passive {
			devices = append(devices, info)
			continue
		}

		conf, found := probe(path, DefaultPN532Address)
		if !found {
			continue
		}
		info.Confidence = conf
		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// probe addresses the chip and reads one byte. A NACK makes the read fail.
func probe(path string, addr int) (detection.Confidence, bool) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return detection.Low, false
	}
	defer func() { _ = unix.Close(fd) }()

	funcs, err := unix.IoctlGetInt(fd, ioctlI2CFuncs)
	if err != nil || funcs&funcPlainI2C == 0 {
		return detection.Low, false
	}
	if err := unix.IoctlSetInt(fd, ioctlI2CSlave, addr); err != nil {
		return detection.Low, false
	}

	var status [1]byte
	n, err := unix.Read(fd, status[:])
	return confidence(err == nil && n == 1, status[0])
}
