// Copyright 2026 The RoverLink Project Contributors.
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

// Package gpio drives a dual H-bridge motor board through GPIO pins.
package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// MotorPins names the four H-bridge direction inputs. Names follow the
// conventions of gpioreg (e.g. "GPIO17" or a chip-specific alias).
type MotorPins struct {
	LeftFwd  string
	LeftRev  string
	RightFwd string
	RightRev string
}

// DefaultPins matches the reference wiring on a Raspberry Pi header.
func DefaultPins() MotorPins {
	return MotorPins{
		LeftFwd:  "GPIO17",
		LeftRev:  "GPIO27",
		RightFwd: "GPIO23",
		RightRev: "GPIO24",
	}
}

// Motors implements the drive interface on top of an H-bridge. Each
// side takes a direction of -1, 0 or +1.
type Motors struct {
	leftFwd  gpio.PinOut
	leftRev  gpio.PinOut
	rightFwd gpio.PinOut
	rightRev gpio.PinOut
}

// New initializes the host GPIO subsystem and claims the four pins.
func New(pins MotorPins) (*Motors, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GPIO host: %w", err)
	}

	m := &Motors{}
	for _, p := range []struct {
		out  *gpio.PinOut
		name string
	}{
		{&m.leftFwd, pins.LeftFwd},
		{&m.leftRev, pins.LeftRev},
		{&m.rightFwd, pins.RightFwd},
		{&m.rightRev, pins.RightRev},
	} {
		pin := gpioreg.ByName(p.name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %q not found", p.name)
		}
		*p.out = pin
	}

	if err := m.Stop(); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply sets both sides of the bridge. Any value above zero runs
// forward, below zero reverse.
func (m *Motors) Apply(left, right int8) error {
	if err := m.side(m.leftFwd, m.leftRev, left); err != nil {
		return fmt.Errorf("left motor: %w", err)
	}
	if err := m.side(m.rightFwd, m.rightRev, right); err != nil {
		return fmt.Errorf("right motor: %w", err)
	}
	return nil
}

// Stop releases both sides, letting the bridge coast.
func (m *Motors) Stop() error {
	return m.Apply(roverlink.DirStop, roverlink.DirStop)
}

// side drives one half bridge. Both inputs are never high at once;
// the forward pin is dropped before the reverse pin rises.
func (m *Motors) side(fwd, rev gpio.PinOut, dir int8) error {
	fwdLevel, revLevel := gpio.Low, gpio.Low
	switch {
	case dir > 0:
		fwdLevel = gpio.High
	case dir < 0:
		revLevel = gpio.High
	}

	if err := fwd.Out(fwdLevel); err != nil {
		return fmt.Errorf("failed to set forward pin: %w", err)
	}
	if err := rev.Out(revLevel); err != nil {
		return fmt.Errorf("failed to set reverse pin: %w", err)
	}
	return nil
}
