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

// Package testing provides test utilities, including an in-memory duplex
// line pipe that stands in for the serial link between the controller
// and the relay. It lets the transfer sender and receiver run against
// each other without hardware.
package testing

import (
	"sync/atomic"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// pipeDepth bounds buffered lines per direction. The protocol never has
// more than one line outstanding per side, so a small buffer suffices.
const pipeDepth = 64

// Endpoint is one side of an in-memory duplex line link. It implements
// roverlink.LineTransport.
type Endpoint struct {
	// DropWrites, while set, silently discards written lines. Tests use
	// it to simulate a dead peer and exercise timeout paths.
	DropWrites atomic.Bool

	// Corrupt, when set, is applied to every written line before it
	// reaches the peer. Returning "" drops the line.
	Corrupt func(line string) string

	in     chan string
	out    chan string
	closed atomic.Bool
}

// NewPipe creates a connected pair of endpoints.
func NewPipe() (controller, relay *Endpoint) {
	toRelay := make(chan string, pipeDepth)
	toController := make(chan string, pipeDepth)
	controller = &Endpoint{in: toController, out: toRelay}
	relay = &Endpoint{in: toRelay, out: toController}
	return controller, relay
}

// ReadLine pops the next line from the peer, or times out.
func (e *Endpoint) ReadLine(timeout time.Duration) (string, error) {
	if e.closed.Load() {
		return "", roverlink.ErrTransportClosed
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line := <-e.in:
		return line, nil
	case <-timer.C:
		return "", roverlink.ErrTransportTimeout
	}
}

// WriteLine delivers a line to the peer.
func (e *Endpoint) WriteLine(line string) error {
	if e.closed.Load() {
		return roverlink.ErrTransportClosed
	}
	if e.DropWrites.Load() {
		return nil
	}
	if e.Corrupt != nil {
		line = e.Corrupt(line)
		if line == "" {
			return nil
		}
	}
	select {
	case e.out <- line:
		return nil
	default:
		return roverlink.ErrTransportWrite
	}
}

// Drain discards every buffered inbound line.
func (e *Endpoint) Drain() {
	for {
		select {
		case <-e.in:
		default:
			return
		}
	}
}

// Close marks the endpoint closed.
func (e *Endpoint) Close() error {
	e.closed.Store(true)
	return nil
}
