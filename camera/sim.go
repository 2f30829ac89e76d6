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

package camera

import (
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// Sim is a host-side camera producing synthetic grayscale frames. It
// drives the same FrameFlags handshake as a real capture source so the
// interrupt path stays exercised.
type Sim struct {
	flags FrameFlags
	buf   []byte
	frame uint8
}

// NewSim creates a simulated camera at the default geometry.
func NewSim() *Sim {
	return &Sim{buf: make([]byte, Width*Height)}
}

// Ready always reports true.
func (*Sim) Ready() bool {
	return true
}

// Flags exposes the handshake cell, mirroring the real capture source.
func (s *Sim) Flags() *FrameFlags {
	return &s.flags
}

// Capture renders one synthetic frame: a diagonal gradient that shifts
// every call, so consecutive frames differ.
func (s *Sim) Capture() (roverlink.ImageSnapshot, error) {
	s.flags.Arm()
	// No real interrupt source here; latch the boundary ourselves.
	s.flags.SignalFrameStart()
	if err := s.flags.AwaitFrame(time.Second); err != nil {
		return roverlink.ImageSnapshot{}, err
	}
	defer s.flags.Disarm()

	s.frame++
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			s.buf[y*Width+x] = uint8(x + y + int(s.frame)*4)
		}
	}
	return roverlink.ImageSnapshot{
		Available: true,
		Width:     Width,
		Height:    Height,
		Buffer:    s.buf,
	}, nil
}
