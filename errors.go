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
	"errors"
	"fmt"
)

// Error categories for retry and fallback handling.
var (
	// Transport errors - potentially retryable
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportClosed  = errors.New("transport is closed")
	ErrLineTooLong      = errors.New("line exceeds maximum length")

	// Protocol errors during a chunk exchange - retryable at the sender
	ErrNAKReceived = errors.New("NAK received")
	ErrNoAck       = errors.New("no acknowledgement received")

	// Session errors - never retried, the session must restart
	ErrNoReady          = errors.New("peer not ready for transfer")
	ErrTransferAborted  = errors.New("transfer aborted")
	ErrRetriesExhausted = errors.New("chunk retries exhausted")
	ErrNoSession        = errors.New("no transfer session active")
	ErrOutOfOrder       = errors.New("chunk index out of order")

	// Message errors - not retryable
	ErrMalformedLine  = errors.New("malformed protocol line")
	ErrEmptyCommand   = errors.New("command line carries no command name")
	ErrUnknownCommand = errors.New("unknown command name")

	// Upstream errors - degrade to the fail-safe command
	ErrUpstreamUnavailable = errors.New("upstream backend unavailable")
	ErrUpstreamRejected    = errors.New("upstream backend rejected request")
)

// ErrorType classifies an error for retry and fallback decisions.
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error (special handling)
	ErrorTypeTimeout
)

// LinkError wraps serial-link errors with the operation and port that
// produced them.
type LinkError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *LinkError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the sender may consume a retry for err
// rather than failing the session.
func IsRetryable(err error) bool {
	var linkErr *LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Retryable
	}
	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrNAKReceived),
		errors.Is(err, ErrNoAck),
		errors.Is(err, ErrMalformedLine):
		return true
	default:
		return false
	}
}

// GetErrorType returns the category of err for fallback handling.
func GetErrorType(err error) ErrorType {
	var linkErr *LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout), errors.Is(err, ErrNoAck):
		return ErrorTypeTimeout
	case errors.Is(err, ErrNAKReceived), errors.Is(err, ErrMalformedLine):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
