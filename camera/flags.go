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
	"sync/atomic"
	"time"
)

// FrameFlags is the interrupt-safe cell shared between the frame
// boundary interrupt and the capture loop. The interrupt side only
// calls SignalFrameStart; the capture side arms and awaits. Each flag
// is a single-writer atomic, so a signal landing between two reads of
// the polling loop is observed on the next iteration rather than lost.
type FrameFlags struct {
	armed      atomic.Bool
	frameReady atomic.Bool
	capturing  atomic.Bool
}

// SignalFrameStart is called from the frame-boundary interrupt. It
// latches a pending frame only while the capture side is armed.
func (f *FrameFlags) SignalFrameStart() {
	if f.armed.Load() {
		f.frameReady.Store(true)
	}
}

// Arm prepares the cell for one capture.
func (f *FrameFlags) Arm() {
	f.frameReady.Store(false)
	f.capturing.Store(true)
	f.armed.Store(true)
}

// AwaitFrame polls for the latched frame boundary with a deadline.
func (f *FrameFlags) AwaitFrame(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for !f.frameReady.Load() {
		if time.Now().After(deadline) {
			f.Disarm()
			return ErrCaptureTimeout
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// Disarm ends the capture window.
func (f *FrameFlags) Disarm() {
	f.armed.Store(false)
	f.capturing.Store(false)
	f.frameReady.Store(false)
}

// Capturing reports whether a capture window is open.
func (f *FrameFlags) Capturing() bool {
	return f.capturing.Load()
}
