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
	"math/rand"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// Source produces one sensor snapshot per control-loop step.
type Source interface {
	Snapshot() (roverlink.SensorSnapshot, error)
}

// DemoSource generates plausible wandering sensor values for running the
// controller without hardware.
type DemoSource struct {
	distance float64
	light    int
}

// NewDemoSource creates a demo source starting in open, lit space.
func NewDemoSource() *DemoSource {
	return &DemoSource{distance: 150, light: 700}
}

// Snapshot returns the next simulated reading.
func (d *DemoSource) Snapshot() (roverlink.SensorSnapshot, error) {
	d.distance += (rand.Float64() - 0.5) * 30
	if d.distance < 5 {
		d.distance = 5
	}
	if d.distance > roverlink.MaxDistanceCM {
		d.distance = roverlink.MaxDistanceCM
	}
	d.light += rand.Intn(61) - 30
	if d.light < 0 {
		d.light = 0
	}
	if d.light > 1023 {
		d.light = 1023
	}

	return roverlink.SensorSnapshot{
		DistanceCM: d.distance,
		LightRaw:   d.light,
		Obstacle:   d.distance < 15,
		Dark:       d.light < 500,
		AX:         (rand.Float64() - 0.5) * 0.4,
		AY:         (rand.Float64() - 0.5) * 0.4,
		AZ:         9.81 + (rand.Float64()-0.5)*0.2,
		GX:         (rand.Float64() - 0.5) * 0.1,
		GY:         (rand.Float64() - 0.5) * 0.1,
		GZ:         (rand.Float64() - 0.5) * 0.1,
	}, nil
}
