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

// Package camera defines the capture collaborator boundary. The control
// loop only ever sees a synchronous Capture call; the frame-boundary
// interrupt handshake stays behind FrameFlags.
package camera

import (
	"errors"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// Default capture geometry: QQVGA downscaled by two.
const (
	Width  = 80
	Height = 60
)

// ErrNotReady is returned by Capture before the camera initialized.
var ErrNotReady = errors.New("camera not initialized")

// ErrCaptureTimeout is returned when no frame boundary arrives within
// the capture window.
var ErrCaptureTimeout = errors.New("frame capture timed out")

// Camera produces grayscale snapshots on demand.
type Camera interface {
	// Ready reports whether the camera initialized successfully. A
	// false value downgrades telemetry to sensors-only; it is not an
	// error.
	Ready() bool

	// Capture blocks until one frame is latched, bounded internally.
	Capture() (roverlink.ImageSnapshot, error)
}
