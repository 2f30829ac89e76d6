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

package transfer

import "time"

// ChunkRawSize is the number of raw image bytes per chunk. 192 bytes
// encode to 256 base64 characters, keeping the chunk line inside the
// transport's line limit with room for the prefix and index.
const ChunkRawSize = 192

// Config holds transfer protocol tuning.
type Config struct {
	// AckTimeout is how long the sender waits for the ACK/NAK of one
	// chunk attempt, and the receiver-independent bound on every wait.
	AckTimeout time.Duration

	// ReadyTimeout is how long the sender waits for IMG_READY after
	// IMG_START. No readiness within this window fails the transfer
	// without retry.
	ReadyTimeout time.Duration

	// MaxRetries is the total number of transmissions attempted per
	// chunk before the session aborts.
	MaxRetries int

	// RetryDelay is the pause between chunk retransmissions, giving the
	// peer time to settle.
	RetryDelay time.Duration
}

// DefaultConfig returns the default transfer configuration.
func DefaultConfig() *Config {
	return &Config{
		AckTimeout:   1 * time.Second,
		ReadyTimeout: 2 * time.Second,
		MaxRetries:   3,
		RetryDelay:   50 * time.Millisecond,
	}
}
