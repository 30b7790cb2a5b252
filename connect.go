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

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sabine/pxt-calliope-grove-pn532/detection"
)

// BusFactory opens a Bus for a path such as "/dev/i2c-1".
type BusFactory func(path string) (Bus, error)

// DeviceDetector lists candidate buses for auto-detection.
type DeviceDetector func(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

type connectConfig struct {
	busFactory        BusFactory
	detector          DeviceDetector
	deviceOptions     []Option
	timeout           time.Duration
	connectionRetries int
	autoDetect        bool
}

// WithAutoDetection picks the first detected bus instead of a given path.
func WithAutoDetection() ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout bounds detection plus the initial wake-up.
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithBusFactory sets the function that opens a bus by path.
func WithBusFactory(factory BusFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.busFactory = factory
		return nil
	}
}

// WithConnectionRetries sets the number of wake-up attempts
func WithConnectionRetries(maxAttempts int) ConnectOption {
	return func(c *connectConfig) error {
		if maxAttempts < 1 {
			return fmt.Errorf("connection retries must be at least 1, got %d", maxAttempts)
		}
		c.connectionRetries = maxAttempts
		return nil
	}
}

// WithDeviceDetector replaces detection.DetectAll for auto-detection.
func WithDeviceDetector(detector DeviceDetector) ConnectOption {
	return func(c *connectConfig) error {
		c.detector = detector
		return nil
	}
}

func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{
		timeout:           10 * time.Second,
		connectionRetries: 3,
		detector:          detection.DetectAll,
	}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}
	if config.busFactory == nil {
		return nil, errors.New("bus factory not provided")
	}
	return config, nil
}

// ConnectDevice opens a bus, creates a Device on it and wakes the chip,
// retrying the wake-up. With an empty path or WithAutoDetection the first
// detected bus is used.
//
//	device, err := pn532.ConnectDevice(ctx, "/dev/i2c-1", pn532.WithBusFactory(i2c.Open))
func ConnectDevice(ctx context.Context, path string, opts ...ConnectOption) (*Device, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, err
	}

	if config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.timeout)
		defer cancel()
	}

	if config.autoDetect || path == "" {
		path, err = detectPath(ctx, config.detector)
		if err != nil {
			return nil, err
		}
	}

	bus, err := config.busFactory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bus %s: %w", path, err)
	}

	device, err := New(bus, config.deviceOptions...)
	if err != nil {
		closeBus(bus)
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = config.connectionRetries
	retry.InitialBackoff = 50 * time.Millisecond
	retry.RetryTimeout = 0
	if err := RetryWithConfig(ctx, retry, device.Wake); err != nil {
		closeBus(bus)
		return nil, fmt.Errorf("failed to wake PN532 on %s after %d attempts: %w", path, config.connectionRetries, err)
	}

	Debugf("connected to PN532 on %s", path)
	return device, nil
}

func detectPath(ctx context.Context, detector DeviceDetector) (string, error) {
	opts := detection.DefaultOptions()
	devices, err := detector(ctx, &opts)
	if err != nil {
		return "", fmt.Errorf("failed to detect devices: %w", err)
	}
	if len(devices) == 0 {
		return "", detection.ErrNoDevicesFound
	}
	Debugf("using detected %s", devices[0])
	return devices[0].Path, nil
}

func closeBus(bus Bus) {
	if closer, ok := bus.(io.Closer); ok {
		_ = closer.Close()
	}
}
