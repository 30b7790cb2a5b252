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

// Package polling watches a reader for cards arriving, changing and leaving.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	pn532 "github.com/sabine/pxt-calliope-grove-pn532"
	"github.com/sabine/pxt-calliope-grove-pn532/internal/syncutil"
)

// Reader is the part of a pn532.Device a Session polls.
type Reader interface {
	UID(ctx context.Context) (string, error)
}

// Session handles continuous card monitoring for one reader. Callbacks run
// on the polling goroutine, so a callback may use the device directly.
type Session struct {
	OnCardDetected func(uid string) error
	OnCardChanged  func(uid string) error
	OnCardRemoved  func()
	reader         Reader
	config         *Config
	now            func() time.Time
	state          CardState
	mu             syncutil.Mutex
}

// NewSession creates a new card monitoring session
func NewSession(reader Reader, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	return &Session{
		reader: reader,
		config: config,
		now:    time.Now,
	}
}

// State returns the current card state.
func (s *Session) State() CardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start polls until ctx is done or a callback fails.
func (s *Session) Start(ctx context.Context) error {
	interval := s.config.PollInterval
	if interval <= 0 {
		interval = DefaultConfig().PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Poll(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs one discovery and fires the matching callback. Reader errors
// count as a miss; only callback errors and cancellation are returned.
func (s *Session) Poll(ctx context.Context) error {
	uid, err := s.reader.UID(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if !errors.Is(err, pn532.ErrNoTarget) {
			pn532.Debugf("poll failed: %v", err)
		}
		s.handleMiss()
		return nil
	}

	s.mu.Lock()
	detected, changed := s.state.seen(uid, s.now())
	onDetected, onChanged := s.OnCardDetected, s.OnCardChanged
	s.mu.Unlock()

	switch {
	case detected && onDetected != nil:
		return safeCall("OnCardDetected", onDetected, uid)
	case changed && onChanged != nil:
		return safeCall("OnCardChanged", onChanged, uid)
	}
	return nil
}

func (s *Session) handleMiss() {
	s.mu.Lock()
	removed := s.state.missed(s.now(), s.config.CardRemovalTimeout)
	onRemoved := s.OnCardRemoved
	s.mu.Unlock()

	if removed && onRemoved != nil {
		onRemoved()
	}
}

// safeCall executes a callback with panic recovery
func safeCall(name string, callback func(string) error, uid string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s callback panicked: %v", name, r)
		}
	}()
	if err := callback(uid); err != nil {
		return fmt.Errorf("%s callback failed: %w", name, err)
	}
	return nil
}
