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

import (
	"fmt"

	"github.com/RoverLinkProject/go-roverlink/internal/syncutil"
)

// Sink receives the chunks the relay accepts. The HTTP backend client
// implements it; BufferSink accumulates in memory for tests and
// standalone use.
type Sink interface {
	// Start announces a new transfer and returns an identifier that
	// correlates its chunks. An error withholds the readiness line, so
	// the sender times out and fails safely.
	Start(h StartHeader) (id string, err error)

	// Chunk forwards one accepted, in-order chunk. The receiver has
	// already acknowledged it on the line.
	Chunk(id string, idx int, data []byte) error

	// End finalizes a structurally complete transfer. crcOK reports
	// whether the received bytes matched the advertised checksum.
	End(id string, crcOK bool) error

	// Abort discards an incomplete transfer.
	Abort(id string)
}

// BufferSink accumulates a transfer into memory.
type BufferSink struct {
	mu       syncutil.Mutex
	buf      []byte
	header   StartHeader
	nextID   int
	complete bool
	crcOK    bool
}

// NewBufferSink creates an empty in-memory sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

// Start resets the buffer for a new transfer.
func (s *BufferSink) Start(h StartHeader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.header = h
	s.buf = make([]byte, 0, h.TotalChunks*ChunkRawSize)
	s.complete = false
	s.crcOK = false
	return fmt.Sprintf("mem-%d", s.nextID), nil
}

// Chunk appends the chunk's raw bytes.
func (s *BufferSink) Chunk(_ string, _ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, data...)
	return nil
}

// End marks the transfer complete.
func (s *BufferSink) End(_ string, crcOK bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = true
	s.crcOK = crcOK
	return nil
}

// Abort discards the accumulated bytes.
func (s *BufferSink) Abort(_ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	s.complete = false
}

// Image returns the accumulated bytes and whether the transfer
// completed with a matching checksum.
func (s *BufferSink) Image() (data []byte, complete, crcOK bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out, s.complete, s.crcOK
}
