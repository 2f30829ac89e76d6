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

import "time"

// Config holds control-loop tuning.
type Config struct {
	// SettleDelay is spent in the boot state before the first step.
	SettleDelay time.Duration

	// CommandPollTimeout bounds one inbound poll inside WAIT_COMMAND so
	// the tick stays cooperative.
	CommandPollTimeout time.Duration

	// CommandWaitTimeout is the wall-clock deadline after which the
	// fail-safe STOP is synthesized.
	CommandWaitTimeout time.Duration

	// DefaultStepDuration is used by the fail-safe STOP and by commands
	// whose duration cannot be resolved any other way. Adjustable at
	// runtime from the debug console.
	DefaultStepDuration time.Duration

	// SessionID tags every telemetry message of this run.
	SessionID uint32

	// StepLogCapacity bounds the in-memory step log ring.
	StepLogCapacity int

	// SerialLogging mirrors each step to the process log. Toggled from
	// the debug console.
	SerialLogging bool
}

// DefaultConfig returns the default control-loop configuration.
func DefaultConfig() *Config {
	return &Config{
		SettleDelay:         2 * time.Second,
		CommandPollTimeout:  100 * time.Millisecond,
		CommandWaitTimeout:  5 * time.Second,
		DefaultStepDuration: 3 * time.Second,
		SessionID:           1,
		StepLogCapacity:     50,
		SerialLogging:       true,
	}
}
