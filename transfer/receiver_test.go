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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/internal/frame"
)

// startReceiver opens a session over the given payload and returns the
// receiver plus the chunk lines that deliver it.
func startReceiver(t *testing.T, payload []byte) (*Receiver, *roverlink.MockLineTransport, *BufferSink, []string) {
	t.Helper()

	mock := roverlink.NewMockLineTransport()
	sink := NewBufferSink()
	recv := NewReceiver(mock, sink)

	total := (len(payload) + ChunkRawSize - 1) / ChunkRawSize
	header := StartHeader{
		Width:       80,
		Height:      60,
		TotalChunks: total,
		CRC:         frame.CRC16(payload),
	}
	require.True(t, recv.HandleLine(FormatStart(header)))
	require.Equal(t, []string{PrefixReady}, mock.Written())

	chunks := make([]string, 0, total)
	for idx := 0; idx < total; idx++ {
		off := idx * ChunkRawSize
		end := off + ChunkRawSize
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, FormatChunk(idx, base64.StdEncoding.EncodeToString(payload[off:end])))
	}
	return recv, mock, sink, chunks
}

func testPayload(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i * 13)
	}
	return buf
}

func TestReceiverCompleteTransfer(t *testing.T) {
	t.Parallel()

	payload := testPayload(2*ChunkRawSize + 77)
	recv, mock, sink, chunks := startReceiver(t, payload)

	for _, line := range chunks {
		require.True(t, recv.HandleLine(line))
	}
	require.True(t, recv.HandleLine(PrefixEnd))

	written := mock.Written()
	require.Len(t, written, 1+len(chunks)) // IMG_READY + one ACK per chunk
	for i, line := range written[1:] {
		assert.Equal(t, FormatAck(i), line)
	}

	data, complete, crcOK := sink.Image()
	assert.Equal(t, payload, data)
	assert.True(t, complete)
	assert.True(t, crcOK)

	assert.False(t, recv.Active())
	id := recv.TakeImageID()
	assert.NotEmpty(t, id)
	assert.Empty(t, recv.TakeImageID(), "image id is consumed on first take")
}

func TestReceiverChunkWithoutSession(t *testing.T) {
	t.Parallel()

	mock := roverlink.NewMockLineTransport()
	recv := NewReceiver(mock, NewBufferSink())

	require.True(t, recv.HandleLine(FormatChunk(0, "aGVsbG8=")))
	assert.Equal(t, []string{FormatNak(NakNoSession)}, mock.Written())
	assert.False(t, recv.Active())
}

func TestReceiverOutOfOrderChunk(t *testing.T) {
	t.Parallel()

	payload := testPayload(2 * ChunkRawSize)
	recv, mock, sink, chunks := startReceiver(t, payload)

	// Deliver chunk 1 first: NAKed with the index the relay saw, and the
	// session stays open for the correct chunk.
	require.True(t, recv.HandleLine(chunks[1]))
	assert.Equal(t, FormatNak(1), mock.Written()[1])
	require.True(t, recv.Active())

	require.True(t, recv.HandleLine(chunks[0]))
	require.True(t, recv.HandleLine(chunks[1]))
	require.True(t, recv.HandleLine(PrefixEnd))

	data, complete, crcOK := sink.Image()
	assert.Equal(t, payload, data)
	assert.True(t, complete)
	assert.True(t, crcOK)
}

func TestReceiverDuplicateChunkNaked(t *testing.T) {
	t.Parallel()

	payload := testPayload(2 * ChunkRawSize)
	recv, mock, sink, chunks := startReceiver(t, payload)

	require.True(t, recv.HandleLine(chunks[0]))
	// A duplicate of an accepted chunk must not be applied twice.
	require.True(t, recv.HandleLine(chunks[0]))
	assert.Equal(t, FormatNak(0), mock.Written()[2])

	require.True(t, recv.HandleLine(chunks[1]))
	require.True(t, recv.HandleLine(PrefixEnd))

	data, _, _ := sink.Image()
	assert.Equal(t, payload, data)
}

func TestReceiverBadBase64Naked(t *testing.T) {
	t.Parallel()

	payload := testPayload(ChunkRawSize)
	recv, mock, sink, chunks := startReceiver(t, payload)

	require.True(t, recv.HandleLine(FormatChunk(0, "!!!not-base64!!!")))
	assert.Equal(t, FormatNak(0), mock.Written()[1])
	require.True(t, recv.Active(), "payload corruption is recoverable")

	require.True(t, recv.HandleLine(chunks[0]))
	require.True(t, recv.HandleLine(PrefixEnd))

	_, complete, crcOK := sink.Image()
	assert.True(t, complete)
	assert.True(t, crcOK)
}

func TestReceiverStructurallyBrokenChunkResets(t *testing.T) {
	t.Parallel()

	payload := testPayload(ChunkRawSize)
	recv, mock, _, _ := startReceiver(t, payload)

	require.True(t, recv.HandleLine("IMG_CHUNK notanumber"))
	assert.False(t, recv.Active())
	// No NAK: there is no index to point at.
	assert.Equal(t, []string{PrefixReady}, mock.Written())
}

func TestReceiverIncompleteEndDiscards(t *testing.T) {
	t.Parallel()

	payload := testPayload(2 * ChunkRawSize)
	recv, _, sink, chunks := startReceiver(t, payload)

	require.True(t, recv.HandleLine(chunks[0]))
	require.True(t, recv.HandleLine(PrefixEnd))

	data, complete, _ := sink.Image()
	assert.Empty(t, data)
	assert.False(t, complete)
	assert.False(t, recv.Active())
	assert.Empty(t, recv.TakeImageID())
}

func TestReceiverCRCMismatchStillFinalizes(t *testing.T) {
	t.Parallel()

	payload := testPayload(ChunkRawSize)
	mock := roverlink.NewMockLineTransport()
	sink := NewBufferSink()
	recv := NewReceiver(mock, sink)

	header := StartHeader{Width: 80, Height: 60, TotalChunks: 1, CRC: 0xBEEF} // wrong on purpose
	require.True(t, recv.HandleLine(FormatStart(header)))
	require.True(t, recv.HandleLine(FormatChunk(0, base64.StdEncoding.EncodeToString(payload))))
	require.True(t, recv.HandleLine(PrefixEnd))

	data, complete, crcOK := sink.Image()
	assert.Equal(t, payload, data)
	assert.True(t, complete, "mismatched image is kept, flagged")
	assert.False(t, crcOK)
	assert.NotEmpty(t, recv.TakeImageID())
}

func TestReceiverAbortResetsSession(t *testing.T) {
	t.Parallel()

	payload := testPayload(2 * ChunkRawSize)
	recv, _, sink, chunks := startReceiver(t, payload)

	require.True(t, recv.HandleLine(chunks[0]))
	require.True(t, recv.HandleLine(PrefixAbort))

	assert.False(t, recv.Active())
	data, complete, _ := sink.Image()
	assert.Empty(t, data)
	assert.False(t, complete)
}

func TestReceiverRestartSupersedesStaleSession(t *testing.T) {
	t.Parallel()

	first := testPayload(2 * ChunkRawSize)
	recv, mock, sink, chunks := startReceiver(t, first)
	require.True(t, recv.HandleLine(chunks[0]))

	// A fresh IMG_START abandons the unfinished transfer.
	second := testPayload(ChunkRawSize)
	header := StartHeader{Width: 80, Height: 60, TotalChunks: 1, CRC: frame.CRC16(second)}
	require.True(t, recv.HandleLine(FormatStart(header)))
	require.True(t, recv.HandleLine(FormatChunk(0, base64.StdEncoding.EncodeToString(second))))
	require.True(t, recv.HandleLine(PrefixEnd))

	data, complete, crcOK := sink.Image()
	assert.Equal(t, second, data)
	assert.True(t, complete)
	assert.True(t, crcOK)
	assert.Contains(t, mock.Written(), PrefixReady)
}

func TestReceiverIgnoresForeignLines(t *testing.T) {
	t.Parallel()

	recv := NewReceiver(roverlink.NewMockLineTransport(), NewBufferSink())

	assert.False(t, recv.HandleLine(`DATA {"step":1}`))
	assert.False(t, recv.HandleLine("CMD {}"))
	assert.False(t, recv.HandleLine("hello"))
	assert.False(t, recv.HandleLine(""))
}
