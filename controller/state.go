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

// State is the finite state machine driving the control loop.
type State int

const (
	// StateInit is entered once at boot and left after a settle delay.
	StateInit State = iota
	// StateCollectSensors reads one snapshot and maybe captures a frame.
	StateCollectSensors
	// StateSendToServer ships the image transfer and the telemetry line.
	StateSendToServer
	// StateWaitCommand polls for a CMD line until the wait deadline.
	StateWaitCommand
	// StateExecuteCommand drives the motors for the resolved duration.
	StateExecuteCommand
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateCollectSensors:
		return "COLLECT_SENSORS"
	case StateSendToServer:
		return "SEND_TO_SERVER"
	case StateWaitCommand:
		return "WAIT_COMMAND"
	case StateExecuteCommand:
		return "EXECUTE_COMMAND"
	default:
		return "UNKNOWN"
	}
}
