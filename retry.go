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
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// RetryConfig configures caller-side retries of whole operations. The device
// itself never retries: each attempt re-wakes, re-discovers and
// re-authenticates from scratch.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts; values below 2 run once.
	MaxAttempts int
	// InitialBackoff is the pause after the first failed attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the pause between attempts.
	MaxBackoff time.Duration
	// BackoffMultiplier grows the pause after every attempt.
	BackoffMultiplier float64
	// Jitter adds up to this fraction of the pause at random.
	Jitter float64
	// RetryTimeout bounds all attempts together; zero means no bound.
	RetryTimeout time.Duration
}

// DefaultRetryConfig returns delays sized for a card sliding into the field.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        500 * time.Millisecond,
		BackoffMultiplier: 1.5,
		Jitter:            0.1,
		RetryTimeout:      5 * time.Second,
	}
}

// RetryableFunc is one attempt of an operation.
type RetryableFunc func(ctx context.Context) error

// RetryWithConfig runs fn until it succeeds, returns an error IsRetryable
// rejects, or the attempts or the timeout run out. It returns the last error.
func RetryWithConfig(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts < 2 {
		return fn(ctx)
	}

	if config.RetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RetryTimeout)
		defer cancel()
	}

	var lastErr error
	backoff := config.InitialBackoff
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == config.MaxAttempts {
			return lastErr
		}

		pause := jittered(backoff, config.Jitter)
		Debugf("attempt %d/%d failed, retrying in %v: %v", attempt, config.MaxAttempts, pause, lastErr)
		if err := sleepCtx(ctx, pause); err != nil {
			return lastErr
		}
		backoff = min(time.Duration(float64(backoff)*config.BackoffMultiplier), config.MaxBackoff)
	}
	return lastErr
}

// jittered adds a random share of up to factor × base to base.
func jittered(base time.Duration, factor float64) time.Duration {
	if factor <= 0 || base <= 0 {
		return base
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return base
	}
	r := float64(binary.LittleEndian.Uint64(b[:])) / float64(1<<64)
	return base + time.Duration(r*factor*float64(base))
}

// ReadTextWithRetry calls ReadText under config. A read that finds no
// target is retried, covering a card still sliding into the field.
func (d *Device) ReadTextWithRetry(ctx context.Context, config *RetryConfig) (string, error) {
	var text string
	err := RetryWithConfig(ctx, config, func(ctx context.Context) error {
		var err error
		text, err = d.ReadText(ctx)
		return err
	})
	return text, err
}

// WriteTextWithRetry calls WriteText under config. Oversize text and
// illegal addresses fail on the first attempt.
func (d *Device) WriteTextWithRetry(ctx context.Context, text string, config *RetryConfig) error {
	return RetryWithConfig(ctx, config, func(ctx context.Context) error {
		return d.WriteText(ctx, text)
	})
}
