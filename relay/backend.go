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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/transfer"
)

// Backend is the HTTP client for the decision service. It implements
// transfer.Sink for image forwarding and exposes Command for telemetry.
type Backend struct {
	client  *http.Client
	baseURL string
}

// NewBackend creates a client for the backend at baseURL.
func NewBackend(baseURL string, timeout time.Duration) *Backend {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Backend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *Backend) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	resp, err := b.client.Post(b.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", roverlink.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", roverlink.ErrUpstreamRejected, path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// Start announces a transfer upstream and returns its image id.
func (b *Backend) Start(h transfer.StartHeader) (string, error) {
	req := struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		TotalChunks int    `json:"total_chunks"`
		CRC         string `json:"crc"`
	}{h.Width, h.Height, h.TotalChunks, fmt.Sprintf("0x%04X", h.CRC)}

	var resp struct {
		ImageID string `json:"image_id"`
	}
	if err := b.post("/image/start", req, &resp); err != nil {
		return "", err
	}
	if resp.ImageID == "" {
		return "", fmt.Errorf("%w: empty image_id", roverlink.ErrUpstreamRejected)
	}
	return resp.ImageID, nil
}

// Chunk forwards one accepted chunk upstream.
func (b *Backend) Chunk(id string, idx int, data []byte) error {
	req := struct {
		ImageID  string `json:"image_id"`
		ChunkIdx int    `json:"chunk_idx"`
		Data     string `json:"data"`
	}{id, idx, base64.StdEncoding.EncodeToString(data)}
	return b.post("/image/chunk", req, nil)
}

// End finalizes a completed transfer upstream. A checksum mismatch is
// forwarded rather than rejected: the sender has already seen every
// chunk acknowledged, so the backend decides what a corrupt frame is
// worth.
func (b *Backend) End(id string, crcOK bool) error {
	req := struct {
		ImageID string `json:"image_id"`
		CRCOK   bool   `json:"crc_ok"`
	}{id, crcOK}
	return b.post("/image/end", req, nil)
}

// Abort drops an incomplete transfer. The backend expires orphaned
// transfers on its own; nothing to do here but note it.
func (b *Backend) Abort(id string) {
	roverlink.Debugf("backend: transfer %s abandoned", id)
}

// Command posts full telemetry and returns the backend's movement
// command.
func (b *Backend) Command(t roverlink.Telemetry) (roverlink.Command, error) {
	var resp struct {
		Command    string `json:"command"`
		DurationMS uint32 `json:"duration_ms"`
	}
	if err := b.post("/command", t, &resp); err != nil {
		return roverlink.Command{}, err
	}
	if resp.Command == "" {
		return roverlink.Command{}, roverlink.ErrEmptyCommand
	}
	return roverlink.Command{Name: resp.Command, DurationMS: resp.DurationMS}, nil
}
