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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/transfer"
)

// fakeBackend records every request the relay-side client makes.
type fakeBackend struct {
	mu       sync.Mutex
	starts   []map[string]any
	chunks   []map[string]any
	ends     []map[string]any
	commands []roverlink.Telemetry

	commandReply string
	durationMS   uint32
	failWith     int // non-zero: every request returns this status
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/image/start", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.starts = append(f.starts, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"image_id": "img-1"})
	})
	mux.HandleFunc("/image/chunk", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.chunks = append(f.chunks, body)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/image/end", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.ends = append(f.ends, body)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/command", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		var t roverlink.Telemetry
		_ = json.NewDecoder(r.Body).Decode(&t)
		f.commands = append(f.commands, t)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"command":     f.commandReply,
			"duration_ms": f.durationMS,
		})
	})
	return mux
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Backend) {
	t.Helper()
	fake := &fakeBackend{commandReply: "FORWARD", durationMS: 2000}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return fake, NewBackend(srv.URL, time.Second)
}

func TestBackendStart(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	id, err := backend.Start(transfer.StartHeader{Width: 80, Height: 60, TotalChunks: 25, CRC: 0x1D0F})
	require.NoError(t, err)
	assert.Equal(t, "img-1", id)

	require.Len(t, fake.starts, 1)
	assert.Equal(t, float64(80), fake.starts[0]["width"])
	assert.Equal(t, float64(25), fake.starts[0]["total_chunks"])
	assert.Equal(t, "0x1D0F", fake.starts[0]["crc"])
}

func TestBackendStartRejected(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	fake.failWith = http.StatusServiceUnavailable

	_, err := backend.Start(transfer.StartHeader{Width: 1, Height: 1, TotalChunks: 1, CRC: 0})
	require.ErrorIs(t, err, roverlink.ErrUpstreamRejected)
}

func TestBackendStartUnreachable(t *testing.T) {
	t.Parallel()

	backend := NewBackend("http://127.0.0.1:1", 100*time.Millisecond)
	_, err := backend.Start(transfer.StartHeader{Width: 1, Height: 1, TotalChunks: 1, CRC: 0})
	require.ErrorIs(t, err, roverlink.ErrUpstreamUnavailable)
}

func TestBackendChunkAndEnd(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	require.NoError(t, backend.Chunk("img-1", 3, payload))
	require.NoError(t, backend.End("img-1", true))

	require.Len(t, fake.chunks, 1)
	assert.Equal(t, "img-1", fake.chunks[0]["image_id"])
	assert.Equal(t, float64(3), fake.chunks[0]["chunk_idx"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), fake.chunks[0]["data"])

	require.Len(t, fake.ends, 1)
	assert.Equal(t, true, fake.ends[0]["crc_ok"])
}

func TestBackendCommand(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	telemetry := roverlink.NewTelemetry(1, 9, time.Now(), roverlink.SensorSnapshot{DistanceCM: 55}, roverlink.ImageSnapshot{}, false, "")

	cmd, err := backend.Command(telemetry)
	require.NoError(t, err)
	assert.Equal(t, roverlink.Command{Name: "FORWARD", DurationMS: 2000}, cmd)

	require.Len(t, fake.commands, 1)
	assert.Equal(t, uint32(9), fake.commands[0].Step)
	assert.InDelta(t, 55, fake.commands[0].Sensors.DistanceCM, 0.001)
}

func TestBackendCommandEmptyReply(t *testing.T) {
	t.Parallel()

	fake, backend := newFakeBackend(t)
	fake.commandReply = ""

	_, err := backend.Command(roverlink.Telemetry{})
	require.ErrorIs(t, err, roverlink.ErrEmptyCommand)
}
