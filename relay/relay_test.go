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

package relay

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/internal/frame"
	"github.com/RoverLinkProject/go-roverlink/transfer"
)

func testRelayConfig() *Config {
	cfg := DefaultConfig()
	cfg.PollTimeoutMS = 1
	return cfg
}

func telemetryLine(t *testing.T, step uint32, imageAvailable bool) string {
	t.Helper()
	img := roverlink.ImageSnapshot{}
	if imageAvailable {
		img = roverlink.ImageSnapshot{Buffer: []byte{1}, Width: 1, Height: 1, Available: true}
	}
	tl := roverlink.NewTelemetry(1, step, time.Now(), roverlink.SensorSnapshot{DistanceCM: 77}, img, imageAvailable, "")
	line, err := roverlink.EncodeTelemetryLine(tl)
	require.NoError(t, err)
	return line
}

func TestRelayForwardsTelemetryAndRepliesCommand(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	mock := roverlink.NewMockLineTransport()
	r := New(testRelayConfig(), mock, backend)

	mock.QueueLine(telemetryLine(t, 5, false))
	r.Poll()

	require.Len(t, fake.commands, 1)
	assert.Equal(t, uint32(5), fake.commands[0].Step)

	written := mock.Written()
	require.Len(t, written, 1)
	cmd, err := roverlink.ParseCommandLine(written[0])
	require.NoError(t, err)
	assert.Equal(t, roverlink.Command{Name: "FORWARD", DurationMS: 2000}, cmd)
}

func TestRelayBackendDownFailsSafe(t *testing.T) {
	t.Parallel()

	mock := roverlink.NewMockLineTransport()
	backend := NewBackend("http://127.0.0.1:1", 100*time.Millisecond)
	r := New(testRelayConfig(), mock, backend)

	mock.QueueLine(telemetryLine(t, 1, false))
	r.Poll()

	written := mock.Written()
	require.Len(t, written, 1)
	cmd, err := roverlink.ParseCommandLine(written[0])
	require.NoError(t, err)
	assert.Equal(t, roverlink.CmdStop, cmd.Name)
	assert.Equal(t, uint32(3000), cmd.DurationMS, "fail-safe uses the configured default duration")
}

func TestRelayIgnoresUnknownLines(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	mock := roverlink.NewMockLineTransport()
	r := New(testRelayConfig(), mock, backend)

	mock.QueueLine("hello there", "DATA notjson", "CMDX {}")
	r.Poll()
	r.Poll()
	r.Poll()

	assert.Empty(t, mock.Written(), "nothing goes back onto the line")
	assert.Empty(t, fake.commands)
}

func TestRelayTimeoutIsQuiet(t *testing.T) {
	t.Parallel()

	_, backend := newFakeBackend(t)
	mock := roverlink.NewMockLineTransport()
	r := New(testRelayConfig(), mock, backend)

	r.Poll() // nothing queued: timeout path
	assert.Empty(t, mock.Written())
}

func TestRelayImageTransferAttachesID(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	mock := roverlink.NewMockLineTransport()
	r := New(testRelayConfig(), mock, backend)

	payload := []byte("one small frame")
	header := transfer.StartHeader{
		Width:       5,
		Height:      3,
		TotalChunks: 1,
		CRC:         frame.CRC16(payload),
	}

	mock.QueueLine(
		transfer.FormatStart(header),
		transfer.FormatChunk(0, base64.StdEncoding.EncodeToString(payload)),
		transfer.PrefixEnd,
		telemetryLine(t, 8, true),
	)
	for i := 0; i < 4; i++ {
		r.Poll()
	}

	// Serial side: IMG_READY, ACK 0, then the command reply.
	written := mock.Written()
	require.Len(t, written, 3)
	assert.Equal(t, transfer.PrefixReady, written[0])
	assert.Equal(t, transfer.FormatAck(0), written[1])
	_, err := roverlink.ParseCommandLine(written[2])
	require.NoError(t, err)

	// Upstream: the full transfer, then telemetry carrying its id.
	require.Len(t, fake.starts, 1)
	require.Len(t, fake.chunks, 1)
	require.Len(t, fake.ends, 1)
	assert.Equal(t, true, fake.ends[0]["crc_ok"])
	require.Len(t, fake.commands, 1)
	assert.Equal(t, "img-1", fake.commands[0].Image.ImageID)
}

func TestRelayImageIDNotAttachedWithoutImage(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	mock := roverlink.NewMockLineTransport()
	r := New(testRelayConfig(), mock, backend)

	payload := []byte("frame")
	header := transfer.StartHeader{Width: 5, Height: 1, TotalChunks: 1, CRC: frame.CRC16(payload)}

	// The transfer completes, but the telemetry that follows reports no
	// image (the controller downgraded it). The stale id must not leak.
	mock.QueueLine(
		transfer.FormatStart(header),
		transfer.FormatChunk(0, base64.StdEncoding.EncodeToString(payload)),
		transfer.PrefixEnd,
		telemetryLine(t, 2, false),
	)
	for i := 0; i < 4; i++ {
		r.Poll()
	}

	require.Len(t, fake.commands, 1)
	assert.Empty(t, fake.commands[0].Image.ImageID)
}
