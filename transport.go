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

package roverlink

import (
	"sync"
	"time"
)

// MaxLineLen bounds a single protocol line. A 192-byte raw chunk encodes
// to 256 base64 characters; the prefix, index and newline fit well inside
// the remainder.
const MaxLineLen = 512

// LineTransport is a duplex channel carrying newline-terminated ASCII
// lines between the controller and the relay. Implementations strip the
// trailing newline and tolerate a preceding CR.
type LineTransport interface {
	// ReadLine blocks until a complete line arrives or the timeout
	// elapses. A timeout returns ErrTransportTimeout.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes one line followed by a newline and flushes it.
	WriteLine(line string) error

	// Drain discards any buffered inbound bytes. Used before a transfer
	// to protect against desynchronized ACKs from an aborted session.
	Drain()

	// Close closes the underlying channel.
	Close() error
}

// MockLineTransport is an in-memory LineTransport for unit tests. Inbound
// lines are scripted with QueueLine; outbound lines are recorded and may
// trigger scripted replies via RespondFunc.
type MockLineTransport struct {
	// RespondFunc, when set, is called for every written line. Returned
	// lines are queued as inbound replies.
	RespondFunc func(line string) []string

	// WriteErr, when set, is returned by every WriteLine call.
	WriteErr error

	mu       sync.Mutex
	inbound  []string
	outbound []string
	closed   bool
}

// NewMockLineTransport creates an empty mock transport.
func NewMockLineTransport() *MockLineTransport {
	return &MockLineTransport{}
}

// QueueLine schedules a line to be returned by a future ReadLine.
func (m *MockLineTransport) QueueLine(lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, lines...)
}

// Written returns a copy of every line written so far.
func (m *MockLineTransport) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.outbound))
	copy(out, m.outbound)
	return out
}

// ReadLine pops the next scripted line, or times out if none is queued.
func (m *MockLineTransport) ReadLine(_ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrTransportClosed
	}
	if len(m.inbound) == 0 {
		return "", ErrTransportTimeout
	}
	line := m.inbound[0]
	m.inbound = m.inbound[1:]
	return line, nil
}

// WriteLine records the line and queues any scripted reply.
func (m *MockLineTransport) WriteLine(line string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrTransportClosed
	}
	if m.WriteErr != nil {
		err := m.WriteErr
		m.mu.Unlock()
		return err
	}
	m.outbound = append(m.outbound, line)
	respond := m.RespondFunc
	m.mu.Unlock()

	if respond != nil {
		if replies := respond(line); len(replies) > 0 {
			m.QueueLine(replies...)
		}
	}
	return nil
}

// Drain discards all scripted inbound lines.
func (m *MockLineTransport) Drain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = nil
}

// Close marks the transport closed.
func (m *MockLineTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
