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

// Package transfer implements the chunked image transfer protocol that
// carries a camera frame over the line transport: the controller-side
// sender and the relay-side receiver, with per-chunk base64 encoding,
// strict ordering, CRC-16 integrity and ACK/NAK retry semantics.
package transfer

import (
	"fmt"
	"strconv"
	"strings"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// Protocol line prefixes.
const (
	PrefixStart = "IMG_START"
	PrefixChunk = "IMG_CHUNK"
	PrefixEnd   = "IMG_END"
	PrefixAbort = "IMG_ABORT"
	PrefixReady = "IMG_READY"
	PrefixAck   = "ACK"
	PrefixNak   = "NAK"
)

// NakNoSession is the sentinel index NAKed when a chunk arrives with no
// session active.
const NakNoSession = 0xFFFF

// StartHeader is the metadata carried by an IMG_START line.
type StartHeader struct {
	Width       int
	Height      int
	TotalChunks int
	CRC         uint16
}

// FormatStart renders an IMG_START line.
func FormatStart(h StartHeader) string {
	return fmt.Sprintf("%s %d %d %d 0x%X", PrefixStart, h.Width, h.Height, h.TotalChunks, h.CRC)
}

// ParseStart parses an IMG_START line.
func ParseStart(line string) (StartHeader, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 || fields[0] != PrefixStart {
		return StartHeader{}, fmt.Errorf("%w: %q", roverlink.ErrMalformedLine, line)
	}

	var h StartHeader
	var err error
	if h.Width, err = strconv.Atoi(fields[1]); err != nil || h.Width <= 0 {
		return StartHeader{}, fmt.Errorf("%w: width %q", roverlink.ErrMalformedLine, fields[1])
	}
	if h.Height, err = strconv.Atoi(fields[2]); err != nil || h.Height <= 0 {
		return StartHeader{}, fmt.Errorf("%w: height %q", roverlink.ErrMalformedLine, fields[2])
	}
	if h.TotalChunks, err = strconv.Atoi(fields[3]); err != nil || h.TotalChunks <= 0 {
		return StartHeader{}, fmt.Errorf("%w: total chunks %q", roverlink.ErrMalformedLine, fields[3])
	}
	crcStr := strings.TrimPrefix(fields[4], "0x")
	crc, err := strconv.ParseUint(crcStr, 16, 16)
	if err != nil {
		return StartHeader{}, fmt.Errorf("%w: crc %q", roverlink.ErrMalformedLine, fields[4])
	}
	h.CRC = uint16(crc)
	return h, nil
}

// FormatChunk renders an IMG_CHUNK line from an already-encoded payload.
func FormatChunk(idx int, b64 string) string {
	return fmt.Sprintf("%s %d %s", PrefixChunk, idx, b64)
}

// ParseChunk parses an IMG_CHUNK line into its index and base64 payload.
func ParseChunk(line string) (idx int, b64 string, err error) {
	rest, ok := strings.CutPrefix(line, PrefixChunk+" ")
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", roverlink.ErrMalformedLine, line)
	}
	idxStr, payload, ok := strings.Cut(rest, " ")
	if !ok || payload == "" {
		return 0, "", fmt.Errorf("%w: chunk line missing payload", roverlink.ErrMalformedLine)
	}
	idx, err = strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, "", fmt.Errorf("%w: chunk index %q", roverlink.ErrMalformedLine, idxStr)
	}
	return idx, payload, nil
}

// FormatAck renders an ACK line for idx.
func FormatAck(idx int) string {
	return fmt.Sprintf("%s %d", PrefixAck, idx)
}

// FormatNak renders a NAK line for idx.
func FormatNak(idx int) string {
	return fmt.Sprintf("%s %d", PrefixNak, idx)
}

// ParseAckNak parses an ACK or NAK line. ok reports a positive
// acknowledgement. Lines with any other prefix return ErrMalformedLine;
// the sender discards those inside its wait window.
func ParseAckNak(line string) (idx int, ok bool, err error) {
	var rest string
	var positive bool
	switch {
	case strings.HasPrefix(line, PrefixAck+" "):
		rest, positive = line[len(PrefixAck)+1:], true
	case strings.HasPrefix(line, PrefixNak+" "):
		rest, positive = line[len(PrefixNak)+1:], false
	default:
		return 0, false, fmt.Errorf("%w: %q", roverlink.ErrMalformedLine, line)
	}
	idx, err = strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false, fmt.Errorf("%w: acknowledgement index %q", roverlink.ErrMalformedLine, rest)
	}
	return idx, positive, nil
}
