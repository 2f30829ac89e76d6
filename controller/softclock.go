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

package controller

import (
	"fmt"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// SoftClock keeps step timestamps relative to a settable base time. The
// base can be updated from the debug console; elapsed time comes from
// the monotonic clock.
type SoftClock struct {
	base    time.Time
	setAt   time.Time
	hasBase bool
}

// NewSoftClock creates a clock following the host's wall time until a
// base is set.
func NewSoftClock() *SoftClock {
	return &SoftClock{}
}

// Now returns the current soft time.
func (c *SoftClock) Now() time.Time {
	if !c.hasBase {
		return time.Now()
	}
	return c.base.Add(time.Since(c.setAt))
}

// Set installs a new base time.
func (c *SoftClock) Set(t time.Time) {
	c.base = t
	c.setAt = time.Now()
	c.hasBase = true
}

// SetFromString parses a console time string in the telemetry timestamp
// format (dd:MM:yyyy hh:mm:ss).
func (c *SoftClock) SetFromString(s string) error {
	t, err := time.ParseInLocation(roverlink.TimestampLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	c.Set(t)
	return nil
}
