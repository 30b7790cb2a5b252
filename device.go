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

	"github.com/sabine/pxt-calliope-grove-pn532/internal/syncutil"
	"github.com/sabine/pxt-calliope-grove-pn532/pkg/ndef"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Profile is the card family text is read from and written to.
	Profile Profile
	// Language is the NDEF text record language code.
	Language string
	// SettleDelay is the pause after every bus write.
	SettleDelay time.Duration
	// Policy decides whether tolerable protocol errors abort an operation.
	Policy Policy
	// AutoProfile picks the profile from the SEL_RES of each discovered card.
	AutoProfile bool
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Profile:     Classic,
		Language:    ndef.DefaultLanguage,
		SettleDelay: DefaultSettleDelay,
		Policy:      FailOpen,
	}
}

// textCodec is the text layout strategy a Profile selects.
type textCodec interface {
	encode(ctx context.Context, d *Device, text string) error
	decode(ctx context.Context, d *Device) (string, error)
	format(ctx context.Context, d *Device) error
}

// Unit is one block or page as returned by Dump.
type Unit struct {
	Data    []byte
	Address int
}

// Device is a PN532 on a Bus together with the session of the card in its
// field. Every public operation wakes the chip when needed, re-runs
// discovery and then works on the target it found.
//
// Public methods are serialized by an internal mutex: operations on one card
// are strictly ordered.
type Device struct {
	link        *link
	config      *DeviceConfig
	diagnostics []error
	profile     Profile
	session     Session
	mu          syncutil.Mutex
}

// New creates a new PN532 device on the given bus
func New(bus Bus, opts ...Option) (*Device, error) {
	if bus == nil {
		return nil, ErrNilBus
	}

	device := &Device{
		config: DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if err := device.config.Profile.validate(); err != nil {
		return nil, err
	}
	device.profile = device.config.Profile
	device.link = &link{bus: bus, settle: device.config.SettleDelay}
	return device, nil
}

// tolerate applies the policy to a protocol error. It returns nil when the
// operation should carry on with best-effort data.
func (d *Device) tolerate(pe *ProtocolError) error {
	Debugf("%s: %v (kind %s, policy %s)", pe.Op, pe.Err, pe.Kind, d.config.Policy)
	d.diagnostics = append(d.diagnostics, pe)
	if d.config.Policy == FailFast || !pe.Kind.tolerable() {
		return pe
	}
	return nil
}

// begin prepares a public operation: it wakes the chip when it is not
// running and discovers the target in the field.
func (d *Device) begin(ctx context.Context) error {
	d.diagnostics = nil
	if !d.session.Running {
		if err := d.wake(ctx); err != nil {
			return err
		}
	}

	if err := d.findPassiveTarget(ctx); err != nil {
		return err
	}
	if !d.session.TargetPresent {
		return ErrNoTarget
	}

	if d.config.AutoProfile {
		if p, ok := ProfileForSAK(d.session.SelRes); ok {
			// A configured profile wins over the built-in one of its family.
			if p.Family == d.config.Profile.Family {
				p = d.config.Profile
			}
			if p.Family != d.profile.Family {
				Debugf("SEL_RES %02X selects profile %s", d.session.SelRes, p)
			}
			d.profile = p
		} else {
			Debugf("SEL_RES %02X matches no profile, keeping %s", d.session.SelRes, d.profile)
		}
	}
	return nil
}

// wake runs wakeUp and routes a confirmation mismatch through the policy.
func (d *Device) wake(ctx context.Context) error {
	err := d.wakeUp(ctx)
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return d.tolerate(pe)
	}
	return err
}

// end marks the chip for a fresh wake-up after a failed operation, so a
// caller retrying the operation starts the whole transaction from scratch.
func (d *Device) end(err error) error {
	if err != nil && !errors.Is(err, ErrNoTarget) {
		d.session.Running = false
	}
	return err
}

// Wake wakes the chip and disables the SAM. It fails with ErrNotRunning
// when the chip did not confirm, whatever the policy.
func (d *Device) Wake(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.diagnostics = nil
	if err := d.wake(ctx); err != nil {
		return err
	}
	if !d.session.Running {
		return fmt.Errorf("wake: %w", ErrNotRunning)
	}
	return nil
}

// UID discovers the card in the field and returns its UID as lowercase hex.
// With no card it returns "" and ErrNoTarget.
func (d *Device) UID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.end(d.begin(ctx)); err != nil {
		return "", err
	}
	return d.session.UIDString(), nil
}

// ReadText returns the text stored on the card in the field. Under FailOpen
// it returns whatever could be recovered; Diagnostics lists what went wrong.
func (d *Device) ReadText(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.end(d.begin(ctx)); err != nil {
		return "", err
	}
	text, err := d.profile.codec().decode(ctx, d)
	if err != nil {
		return "", d.end(err)
	}
	return text, nil
}

// WriteText stores text on the card in the field. Classic cards silently
// truncate text past their capacity; Ultralight cards reject it with
// ErrDataTooLarge before any page is written.
func (d *Device) WriteText(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.end(d.begin(ctx)); err != nil {
		return err
	}
	return d.end(d.profile.codec().encode(ctx, d, text))
}

// Format initializes an Ultralight card with a capability container and an
// empty NDEF message. Classic cards return ErrNotSupported.
func (d *Device) Format(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.end(d.begin(ctx)); err != nil {
		return err
	}
	return d.end(d.profile.codec().format(ctx, d))
}

// Dump reads every unit below the profile's ceiling. Classic blocks are read
// and authenticated one by one; Ultralight pages come four to a read.
func (d *Device) Dump(ctx context.Context) ([]Unit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.end(d.begin(ctx)); err != nil {
		return nil, err
	}

	p := d.profile
	units := make([]Unit, 0, p.Ceiling)
	for address := 0; address < p.Ceiling; address += p.UnitsPerRead() {
		data, err := d.readUnit(ctx, address)
		if err != nil {
			return units, d.end(err)
		}
		for i := 0; i < p.UnitsPerRead() && address+i < p.Ceiling; i++ {
			units = append(units, Unit{
				Address: address + i,
				Data:    data[i*p.UnitSize : (i+1)*p.UnitSize],
			})
		}
	}
	return units, nil
}

// Session returns a snapshot of the current session.
func (d *Device) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// Profile returns the profile in use. With auto profile on it reflects the
// last discovered card.
func (d *Device) Profile() Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile
}

// Diagnostics returns the errors tolerated during the last operation.
func (d *Device) Diagnostics() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]error, len(d.diagnostics))
	copy(out, d.diagnostics)
	return out
}

// Close closes the bus if it holds resources.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.session.Running = false
	if closer, ok := d.link.bus.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close bus: %w", err)
		}
	}
	return nil
}
