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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkErrorFormatting(t *testing.T) {
	t.Parallel()

	withPort := &LinkError{Err: ErrTransportRead, Op: "readLine", Port: "/dev/ttyUSB0"}
	assert.Equal(t, "readLine /dev/ttyUSB0: transport read failed", withPort.Error())

	withoutPort := &LinkError{Err: ErrTransportRead, Op: "readLine"}
	assert.Equal(t, "readLine: transport read failed", withoutPort.Error())
}

func TestLinkErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := &LinkError{Err: ErrTransportTimeout, Op: "readLine"}
	require.ErrorIs(t, err, ErrTransportTimeout)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "timeout", err: ErrTransportTimeout, want: true},
		{name: "nak", err: ErrNAKReceived, want: true},
		{name: "no ack", err: ErrNoAck, want: true},
		{name: "malformed", err: ErrMalformedLine, want: true},
		{name: "wrapped nak", err: fmt.Errorf("chunk 3: %w", ErrNAKReceived), want: true},
		{name: "aborted", err: ErrTransferAborted, want: false},
		{name: "retries exhausted", err: ErrRetriesExhausted, want: false},
		{name: "no session", err: ErrNoSession, want: false},
		{name: "link error retryable", err: &LinkError{Err: ErrTransportRead, Retryable: true}, want: true},
		{name: "link error permanent", err: &LinkError{Err: ErrTransportClosed, Retryable: false}, want: false},
		{name: "unrelated", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "timeout", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "no ack", err: ErrNoAck, want: ErrorTypeTimeout},
		{name: "nak", err: ErrNAKReceived, want: ErrorTypeTransient},
		{name: "malformed", err: ErrMalformedLine, want: ErrorTypeTransient},
		{name: "closed", err: ErrTransportClosed, want: ErrorTypePermanent},
		{name: "unrelated", err: errors.New("boom"), want: ErrorTypePermanent},
		{
			name: "link error carries its own type",
			err:  &LinkError{Err: errors.New("x"), Type: ErrorTypeTimeout},
			want: ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}
