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
	"encoding/base64"
	"strings"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/internal/frame"
)

// Receiver is the relay-side counterpart of the sender: it validates
// chunk order, forwards accepted chunks to a Sink, and acknowledges on
// the line. Acknowledgements are written before the sink call so the
// sender's retry timer never races a slow upstream.
type Receiver struct {
	transport   roverlink.LineTransport
	sink        Sink
	session     *receiverSession
	lastImageID string
}

// receiverSession mirrors the sender's view of one transfer.
type receiverSession struct {
	id     string
	header StartHeader
	next   int
	crc    uint16 // running checksum over accepted raw bytes
}

// NewReceiver creates a receiver writing acknowledgements to t and
// forwarding accepted chunks to sink.
func NewReceiver(t roverlink.LineTransport, sink Sink) *Receiver {
	return &Receiver{transport: t, sink: sink}
}

// Active reports whether a transfer session is in progress.
func (r *Receiver) Active() bool {
	return r.session != nil
}

// TakeImageID returns the sink identifier of the most recently completed
// transfer and clears it. The relay attaches it to the next telemetry
// message it forwards upstream.
func (r *Receiver) TakeImageID() string {
	id := r.lastImageID
	r.lastImageID = ""
	return id
}

// HandleLine processes one inbound line. It returns false for lines that
// are not part of the transfer protocol, so the relay can dispatch them
// elsewhere. Protocol errors reset the session; the next IMG_START
// begins fresh.
func (r *Receiver) HandleLine(line string) bool {
	switch {
	case strings.HasPrefix(line, PrefixStart+" "):
		r.handleStart(line)
	case strings.HasPrefix(line, PrefixChunk+" "):
		r.handleChunk(line)
	case line == PrefixEnd:
		r.handleEnd()
	case line == PrefixAbort:
		r.reset()
	default:
		return false
	}
	return true
}

// handleStart resets any stale session and opens a new one. IMG_READY is
// only emitted once the sink produced a transfer identifier; otherwise
// the sender times out and fails safely.
func (r *Receiver) handleStart(line string) {
	r.reset()

	header, err := ParseStart(line)
	if err != nil {
		roverlink.Debugf("transfer: bad start line: %v", err)
		return
	}
	id, err := r.sink.Start(header)
	if err != nil {
		roverlink.Debugf("transfer: sink refused transfer: %v", err)
		return
	}
	r.session = &receiverSession{id: id, header: header, crc: frame.Init}
	_ = r.transport.WriteLine(PrefixReady)
}

func (r *Receiver) handleChunk(line string) {
	if r.session == nil {
		_ = r.transport.WriteLine(FormatNak(NakNoSession))
		return
	}

	idx, b64, err := ParseChunk(line)
	if err != nil {
		// Structurally broken line: no index to NAK, no recovery path.
		r.reset()
		return
	}
	if idx != r.session.next {
		// Tell the sender what we saw so the desync is diagnosable.
		_ = r.transport.WriteLine(FormatNak(idx))
		return
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		// Payload corruption is recoverable: the sender resends on NAK.
		_ = r.transport.WriteLine(FormatNak(idx))
		return
	}

	r.session.next++
	r.session.crc = frame.Update(r.session.crc, data)

	// ACK before the upstream call: the sender's retry timer has been
	// running since it finished writing the chunk line.
	_ = r.transport.WriteLine(FormatAck(idx))

	if err := r.sink.Chunk(r.session.id, idx, data); err != nil {
		roverlink.Debugf("transfer: sink chunk %d failed: %v", idx, err)
		r.reset()
	}
}

// handleEnd finalizes a structurally complete transfer; an incomplete
// one is silently discarded. Session state resets unconditionally.
func (r *Receiver) handleEnd() {
	if r.session == nil {
		return
	}
	s := r.session
	r.session = nil

	if s.next != s.header.TotalChunks {
		roverlink.Debugf("transfer: end after %d/%d chunks, discarding", s.next, s.header.TotalChunks)
		r.sink.Abort(s.id)
		return
	}

	crcOK := s.crc == s.header.CRC
	if !crcOK {
		roverlink.Debugf("transfer: crc mismatch: got 0x%04X want 0x%04X", s.crc, s.header.CRC)
	}
	if err := r.sink.End(s.id, crcOK); err != nil {
		roverlink.Debugf("transfer: sink end failed: %v", err)
		return
	}
	r.lastImageID = s.id
}

func (r *Receiver) reset() {
	if r.session != nil {
		r.sink.Abort(r.session.id)
		r.session = nil
	}
}
