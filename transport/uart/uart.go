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

// Package uart provides a line-oriented transport over a serial port.
package uart

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// pollInterval is the hardware read timeout. Each ReadLine call loops
// in slices of this size until its own deadline expires, so short
// values keep the wall-clock timeout accurate without spinning.
const pollInterval = 50 * time.Millisecond

// Transport implements roverlink.LineTransport over a serial port.
// Lines are newline-terminated; a trailing carriage return is stripped
// so both LF and CRLF peers work.
type Transport struct {
	port     serial.Port
	portName string
	mu       sync.Mutex
	pending  []byte
	closed   bool
}

// New opens portName at the given baud rate (8N1).
func New(portName string, baudRate int) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(pollInterval); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return &Transport{
		port:     port,
		portName: portName,
	}, nil
}

// ReadLine returns the next complete line, waiting up to timeout.
// Empty lines are skipped. Partial input left by a timeout is kept and
// completed by a later call.
func (t *Transport) ReadLine(timeout time.Duration) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", t.wrapErr("readLine", roverlink.ErrTransportClosed, roverlink.ErrorTypePermanent, false)
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 256)
	for {
		if line, ok := t.takeLine(); ok {
			return line, nil
		}
		if time.Now().After(deadline) {
			return "", t.wrapErr("readLine", roverlink.ErrTransportTimeout, roverlink.ErrorTypeTimeout, true)
		}

		n, err := t.port.Read(buf)
		if err != nil {
			return "", t.wrapErr("readLine", fmt.Errorf("%w: %w", roverlink.ErrTransportRead, err),
				roverlink.ErrorTypeTransient, true)
		}
		if n > 0 {
			t.pending = append(t.pending, buf[:n]...)
			if len(t.pending) > roverlink.MaxLineLen && !hasNewline(t.pending) {
				t.pending = t.pending[:0]
				return "", t.wrapErr("readLine", roverlink.ErrLineTooLong, roverlink.ErrorTypeTransient, true)
			}
		}
	}
}

// takeLine pops the first complete line from the pending buffer.
func (t *Transport) takeLine() (string, bool) {
	for {
		idx := -1
		for i, b := range t.pending {
			if b == '\n' {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", false
		}
		line := strings.TrimRight(string(t.pending[:idx]), "\r")
		t.pending = t.pending[idx+1:]
		if line != "" {
			return line, true
		}
	}
}

func hasNewline(b []byte) bool {
	for _, c := range b {
		if c == '\n' {
			return true
		}
	}
	return false
}

// WriteLine sends line followed by a newline.
func (t *Transport) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.wrapErr("writeLine", roverlink.ErrTransportClosed, roverlink.ErrorTypePermanent, false)
	}

	data := []byte(line + "\n")
	for len(data) > 0 {
		n, err := t.port.Write(data)
		if err != nil {
			return t.wrapErr("writeLine", fmt.Errorf("%w: %w", roverlink.ErrTransportWrite, err),
				roverlink.ErrorTypeTransient, true)
		}
		data = data[n:]
	}
	if err := t.port.Drain(); err != nil {
		return t.wrapErr("writeLine", fmt.Errorf("%w: %w", roverlink.ErrTransportWrite, err),
			roverlink.ErrorTypeTransient, true)
	}
	return nil
}

// Drain discards buffered inbound data, both in the OS and in the
// partial-line buffer.
func (t *Transport) Drain() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = t.pending[:0]
	if !t.closed {
		_ = t.port.ResetInputBuffer()
	}
}

// Close shuts the port. Further calls fail with ErrTransportClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	return nil
}

func (t *Transport) wrapErr(op string, err error, typ roverlink.ErrorType, retryable bool) error {
	return &roverlink.LinkError{
		Err:       err,
		Op:        op,
		Port:      t.portName,
		Type:      typ,
		Retryable: retryable,
	}
}
