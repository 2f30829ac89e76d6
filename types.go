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

// Package roverlink implements the control core of a small LLM-driven
// vehicle: the telemetry/command codec, the command dictionary and the
// line-oriented serial transport shared by the controller and the relay.
package roverlink

import "time"

// MaxDistanceCM is reported by the rangefinder when the echo times out
// or the obstacle is out of range.
const MaxDistanceCM = 400.0

// SensorSnapshot is one reading of every onboard sensor. It is captured
// once per control-loop step and never mutated afterwards.
type SensorSnapshot struct {
	DistanceCM float64 // ultrasonic range, cm; MaxDistanceCM on timeout
	LightRaw   int     // raw photoresistor reading
	Obstacle   bool    // IR obstacle sensor
	Dark       bool    // LightRaw below the darkness threshold

	// 6-axis IMU
	AX, AY, AZ float64 // acceleration, m/s²
	GX, GY, GZ float64 // angular rate, rad/s
}

// ImageSnapshot is one grayscale camera frame, one byte per pixel.
// The buffer is owned by the capture source; callers borrow it for the
// duration of a single transfer.
type ImageSnapshot struct {
	Buffer    []byte
	Width     int
	Height    int
	Available bool
}

// Command is a movement order received from the backend.
type Command struct {
	// Name is a case-sensitive token such as "FORWARD" or "STOP".
	Name string
	// DurationMS is the requested execution time. Zero means "use the
	// dictionary's base duration for this command".
	DurationMS uint32
}

// Motor direction values used by CommandConfig. There is no speed
// magnitude; duration is the only throttle.
const (
	DirReverse int8 = -1
	DirStop    int8 = 0
	DirForward int8 = 1
)

// CommandConfig describes how a named command drives the two motors.
type CommandConfig struct {
	Name           string `json:"name"`
	Left           int8   `json:"left"`
	Right          int8   `json:"right"`
	BaseDurationMS uint32 `json:"base_duration_ms"`
}

// StepRecord is one completed control-loop step, kept in the in-memory
// step log.
type StepRecord struct {
	Timestamp   time.Time
	CommandName string
	DurationMS  uint32
	DistanceCM  float64
	LightRaw    int
	Dark        bool
	Obstacle    bool
	ImageSent   bool
}

// Canonical command names understood by the default dictionary.
const (
	CmdForward  = "FORWARD"
	CmdBackward = "BACKWARD"
	CmdLeft     = "LEFT"
	CmdRight    = "RIGHT"
	CmdStop     = "STOP"
)
