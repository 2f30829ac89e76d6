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

import "log"

// Drive actuates the two motors. Directions are -1/0/+1 per side;
// duration is enforced by the state machine, not the drive.
type Drive interface {
	Apply(left, right int8) error
	Stop() error
}

// LogDrive is a Drive that only logs, for demo mode and tests.
type LogDrive struct {
	// Quiet suppresses the log lines.
	Quiet bool
}

// Apply logs the requested directions.
func (d *LogDrive) Apply(left, right int8) error {
	if !d.Quiet {
		log.Printf("[drive] apply left=%d right=%d", left, right)
	}
	return nil
}

// Stop logs the stop.
func (d *LogDrive) Stop() error {
	if !d.Quiet {
		log.Printf("[drive] stop")
	}
	return nil
}
