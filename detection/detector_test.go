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

//nolint:paralleltest // tests share the detector registry and result cache
package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		device   DeviceInfo
	}{
		{
			name:     "passive listing",
			device:   DeviceInfo{Transport: "i2c", Path: "/dev/i2c-1", Address: 0x24, Confidence: Low},
			expected: "i2c device at /dev/i2c-1 addr 0x24 (confidence: low)",
		},
		{
			name:     "address acknowledged",
			device:   DeviceInfo{Transport: "i2c", Path: "/dev/i2c-0", Address: 0x24, Confidence: Medium},
			expected: "i2c device at /dev/i2c-0 addr 0x24 (confidence: medium)",
		},
		{
			name:     "ready byte seen",
			device:   DeviceInfo{Transport: "i2c", Path: "/dev/i2c-3", Address: 0x24, Confidence: High},
			expected: "i2c device at /dev/i2c-3 addr 0x24 (confidence: high)",
		},
		{
			name:     "unknown confidence",
			device:   DeviceInfo{Transport: "i2c", Path: "/dev/i2c-1", Address: 0x24, Confidence: Confidence(7)},
			expected: "i2c device at /dev/i2c-1 addr 0x24 (confidence: unknown)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.device.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, Safe, opts.Mode)
	assert.Equal(t, "safe", opts.Mode.String())
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.True(t, opts.EnableCache)
	assert.Equal(t, 30*time.Second, opts.CacheTTL)
}

func TestCache_GetSet(t *testing.T) {
	clearCache()
	defer clearCache()

	cached, found := getCached("i2c", time.Minute)
	assert.False(t, found)
	assert.Nil(t, cached)

	setCached("i2c", []DeviceInfo{{Transport: "i2c", Path: "/dev/i2c-1", Confidence: High}})

	cached, found = getCached("i2c", time.Minute)
	require.True(t, found)
	require.Len(t, cached, 1)
	assert.Equal(t, "/dev/i2c-1", cached[0].Path)
}

func TestCache_TTLExpiry(t *testing.T) {
	clearCache()
	defer clearCache()

	setCached("i2c", []DeviceInfo{{Transport: "i2c", Path: "/dev/i2c-1"}})
	time.Sleep(time.Millisecond)

	_, found := getCached("i2c", time.Nanosecond)
	assert.False(t, found)
}

func TestCache_CopyBehavior(t *testing.T) {
	clearCache()
	defer clearCache()

	devices := []DeviceInfo{{Transport: "i2c", Path: "/dev/i2c-1"}}
	setCached("i2c", devices)
	devices[0].Path = "modified"

	cached, found := getCached("i2c", time.Minute)
	require.True(t, found)
	assert.Equal(t, "/dev/i2c-1", cached[0].Path)

	cached[0].Path = "modified again"
	again, _ := getCached("i2c", time.Minute)
	assert.Equal(t, "/dev/i2c-1", again[0].Path)
}

type stubDetector struct {
	err       error
	transport string
	devices   []DeviceInfo
	calls     int
}

func (s *stubDetector) Detect(_ context.Context, _ *Options) ([]DeviceInfo, error) {
	s.calls++
	return s.devices, s.err
}

func (s *stubDetector) Transport() string {
	return s.transport
}

type blockingDetector struct{}

func (*blockingDetector) Detect(ctx context.Context, _ *Options) ([]DeviceInfo, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (*blockingDetector) Transport() string {
	return "blocking"
}

func withRegistry(t *testing.T, detectors ...Detector) {
	t.Helper()
	original := registry
	registry = nil
	for _, d := range detectors {
		RegisterDetector(d)
	}
	clearCache()
	t.Cleanup(func() {
		registry = original
		clearCache()
	})
}

func TestGetDetectors_FilterByTransport(t *testing.T) {
	withRegistry(t,
		&stubDetector{transport: "i2c"},
		&stubDetector{transport: "spi"},
	)

	tests := []struct {
		name       string
		transports []string
		expected   int
	}{
		{"all transports", nil, 2},
		{"empty transports", []string{}, 2},
		{"single transport", []string{"i2c"}, 1},
		{"unknown transport", []string{"usb"}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, getDetectors(tc.transports), tc.expected)
		})
	}
}

func TestDetectAll_NoDetectors(t *testing.T) {
	withRegistry(t)

	opts := DefaultOptions()
	opts.Transports = []string{"nonexistent"}

	_, err := DetectAll(context.Background(), &opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no detectors available")
}

func TestDetectAll_Timeout(t *testing.T) {
	withRegistry(t, &blockingDetector{})

	opts := DefaultOptions()
	opts.Timeout = 10 * time.Millisecond
	opts.EnableCache = false

	_, err := DetectAll(context.Background(), &opts)
	assert.ErrorIs(t, err, ErrDetectionTimeout)
}

func TestDetectAll_NoDevices(t *testing.T) {
	withRegistry(t, &stubDetector{transport: "i2c", err: ErrNoDevicesFound})

	opts := DefaultOptions()
	_, err := DetectAll(context.Background(), &opts)
	assert.ErrorIs(t, err, ErrNoDevicesFound)
}

func TestDetectAll_DevicesBeatErrors(t *testing.T) {
	probeErr := errors.New("permission denied")
	withRegistry(t,
		&stubDetector{transport: "i2c", devices: []DeviceInfo{{Transport: "i2c", Path: "/dev/i2c-1"}}},
		&stubDetector{transport: "spi", err: probeErr},
	)

	opts := DefaultOptions()
	opts.EnableCache = false
	devices, err := DetectAll(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/i2c-1", devices[0].Path)
}

func TestDetectAll_UsesCache(t *testing.T) {
	stub := &stubDetector{transport: "i2c", devices: []DeviceInfo{
		{Transport: "i2c", Path: "/dev/i2c-1"},
		{Transport: "i2c", Path: "/dev/i2c-2"},
	}}
	withRegistry(t, stub)

	opts := DefaultOptions()
	_, err := DetectAll(context.Background(), &opts)
	require.NoError(t, err)

	opts.IgnorePaths = []string{"/dev/i2c-1"}
	devices, err := DetectAll(context.Background(), &opts)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/i2c-2", devices[0].Path)
}

func TestDetectAll_EmptyResultClearsCache(t *testing.T) {
	stub := &stubDetector{transport: "i2c", err: ErrNoDevicesFound}
	withRegistry(t, stub)
	setCached("i2c", []DeviceInfo{{Transport: "i2c", Path: "/dev/i2c-1"}})

	opts := DefaultOptions()
	opts.CacheTTL = time.Nanosecond
	time.Sleep(time.Millisecond)

	_, err := DetectAll(context.Background(), &opts)
	require.ErrorIs(t, err, ErrNoDevicesFound)

	_, found := getCached("i2c", time.Minute)
	assert.False(t, found)
}

func TestClearDetectionCacheForTransport(t *testing.T) {
	clearCache()
	defer clearCache()

	setCached("spi", []DeviceInfo{{Transport: "spi"}})
	setCached("i2c", []DeviceInfo{{Transport: "i2c"}})

	ClearDetectionCacheForTransport("spi")

	_, found := getCached("spi", time.Minute)
	assert.False(t, found)
	_, found = getCached("i2c", time.Minute)
	assert.True(t, found)

	ClearDetectionCache()
	_, found = getCached("i2c", time.Minute)
	assert.False(t, found)
}
