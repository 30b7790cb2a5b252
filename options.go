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
	"fmt"
	"time"
)

// Option configures a Device
type Option func(*Device) error

// maxLanguageLength fits the 6-bit length field of the text status byte.
const maxLanguageLength = 63

// WithProfile sets the card profile.
func WithProfile(p Profile) Option {
	return func(d *Device) error {
		if err := p.validate(); err != nil {
			return err
		}
		d.config.Profile = p
		return nil
	}
}

// WithAutoProfile selects the profile from the SEL_RES of each discovered
// card, falling back to the configured profile for unknown cards.
func WithAutoProfile() Option {
	return func(d *Device) error {
		d.config.AutoProfile = true
		return nil
	}
}

// WithPolicy sets how tolerable protocol errors are handled.
func WithPolicy(p Policy) Option {
	return func(d *Device) error {
		if p != FailOpen && p != FailFast {
			return fmt.Errorf("unknown policy %d", int(p))
		}
		d.config.Policy = p
		return nil
	}
}

// WithSettleDelay sets the pause after every bus write.
func WithSettleDelay(delay time.Duration) Option {
	return func(d *Device) error {
		if delay < 0 {
			return fmt.Errorf("settle delay must not be negative, got %v", delay)
		}
		d.config.SettleDelay = delay
		return nil
	}
}

// WithLanguage sets the NDEF text record language code.
func WithLanguage(lang string) Option {
	return func(d *Device) error {
		if lang == "" || len(lang) > maxLanguageLength {
			return fmt.Errorf("language code must be 1-%d bytes, got %q", maxLanguageLength, lang)
		}
		d.config.Language = lang
		return nil
	}
}

// WithConfig replaces the whole device configuration.
func WithConfig(cfg *DeviceConfig) Option {
	return func(d *Device) error {
		if cfg == nil {
			return fmt.Errorf("nil device config")
		}
		c := *cfg
		d.config = &c
		return nil
	}
}
