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
	"errors"
	"fmt"
	"strings"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/internal/frame"
)

// ErrNoImage is returned when Send is called without an available,
// non-empty image snapshot.
var ErrNoImage = errors.New("no image available to send")

// Sender drives the controller side of a chunked image transfer. At most
// one transfer is in flight; Send blocks until it completes or aborts.
type Sender struct {
	transport roverlink.LineTransport
	config    *Config
	session   *senderSession
}

// senderSession tracks one in-flight transfer.
type senderSession struct {
	width       int
	height      int
	totalChunks int
	crc         uint16
	chunkIdx    int
	attempt     int
}

// NewSender creates a sender on the given transport.
func NewSender(t roverlink.LineTransport, config *Config) *Sender {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sender{transport: t, config: config}
}

// Send fragments the image into chunks and delivers them with per-chunk
// acknowledgement. It returns nil only if every chunk was positively
// acknowledged and IMG_END was written. Any failure aborts the whole
// session; the caller restarts from the telemetry step if it wants the
// image at all.
func (s *Sender) Send(img roverlink.ImageSnapshot) error {
	if !img.Available || len(img.Buffer) == 0 {
		return ErrNoImage
	}

	// Stale ACKs from a previous aborted session would desynchronize
	// the exchange.
	s.transport.Drain()

	s.session = &senderSession{
		width:       img.Width,
		height:      img.Height,
		totalChunks: (len(img.Buffer) + ChunkRawSize - 1) / ChunkRawSize,
		crc:         frame.CRC16(img.Buffer),
	}
	defer func() { s.session = nil }()

	if err := s.handshake(); err != nil {
		return err
	}

	for idx := 0; idx < s.session.totalChunks; idx++ {
		s.session.chunkIdx = idx
		off := idx * ChunkRawSize
		end := off + ChunkRawSize
		if end > len(img.Buffer) {
			end = len(img.Buffer)
		}
		encoded := base64.StdEncoding.EncodeToString(img.Buffer[off:end])

		if err := s.deliverChunk(idx, encoded); err != nil {
			_ = s.transport.WriteLine(PrefixAbort)
			return fmt.Errorf("chunk %d/%d: %w", idx, s.session.totalChunks, err)
		}
	}

	if err := s.transport.WriteLine(PrefixEnd); err != nil {
		return fmt.Errorf("write %s: %w", PrefixEnd, err)
	}
	roverlink.Debugf("transfer: sent %dx%d in %d chunks, crc=0x%04X",
		img.Width, img.Height, s.session.totalChunks, s.session.crc)
	return nil
}

// handshake announces the transfer and waits for the peer's readiness
// line. There is no retry at this level.
func (s *Sender) handshake() error {
	start := FormatStart(StartHeader{
		Width:       s.session.width,
		Height:      s.session.height,
		TotalChunks: s.session.totalChunks,
		CRC:         s.session.crc,
	})
	if err := s.transport.WriteLine(start); err != nil {
		return fmt.Errorf("write %s: %w", PrefixStart, err)
	}

	line, err := s.transport.ReadLine(s.config.ReadyTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", roverlink.ErrNoReady, err)
	}
	if !strings.HasPrefix(line, PrefixReady) {
		return fmt.Errorf("%w: got %q", roverlink.ErrNoReady, line)
	}
	return nil
}

// deliverChunk attempts one chunk up to MaxRetries transmissions.
func (s *Sender) deliverChunk(idx int, encoded string) error {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		s.session.attempt = attempt
		if attempt > 0 {
			time.Sleep(s.config.RetryDelay)
			s.transport.Drain()
		}

		if err := s.transport.WriteLine(FormatChunk(idx, encoded)); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}

		lastErr = s.waitAck(idx)
		if lastErr == nil {
			return nil
		}
		roverlink.Debugf("transfer: chunk %d attempt %d failed: %v", idx, attempt+1, lastErr)
	}
	return fmt.Errorf("%w after %d attempts: %w", roverlink.ErrRetriesExhausted, s.config.MaxRetries, lastErr)
}

// waitAck waits for the acknowledgement of idx. Anything on the line
// that is not an ACK/NAK for the awaited index is discarded within the
// window.
func (s *Sender) waitAck(idx int) error {
	deadline := time.Now().Add(s.config.AckTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return roverlink.ErrNoAck
		}
		line, err := s.transport.ReadLine(remaining)
		if err != nil {
			if errors.Is(err, roverlink.ErrTransportTimeout) {
				return roverlink.ErrNoAck
			}
			return err
		}

		gotIdx, positive, err := ParseAckNak(line)
		if err != nil {
			continue // stray line inside the wait window
		}
		if positive && gotIdx == idx {
			return nil
		}
		if !positive {
			return fmt.Errorf("%w for chunk %d (peer saw %d)", roverlink.ErrNAKReceived, idx, gotIdx)
		}
		// ACK for a different index: stale, discard.
	}
}

// Progress reports the in-flight chunk index and total, or (0, 0) when
// no transfer is active.
func (s *Sender) Progress() (current, total int) {
	if s.session == nil {
		return 0, 0
	}
	return s.session.chunkIdx, s.session.totalChunks
}
