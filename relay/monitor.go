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
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// Frame is the JSON structure pushed to monitor clients after each
// telemetry/command exchange.
type Frame struct {
	Telemetry roverlink.Telemetry `json:"telemetry"`
	Command   roverlink.Command   `json:"command"`
	Stamp     int64               `json:"stamp"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Monitor publishes relay traffic to WebSocket clients. It is a
// read-only view; clients cannot inject commands.
type Monitor struct {
	addr string

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

// NewMonitor builds a monitor listening on addr.
func NewMonitor(addr string) *Monitor {
	return &Monitor{
		addr:    addr,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Run serves the /ws endpoint until the listener fails.
func (m *Monitor) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWS)

	srv := &http.Server{
		Addr:              m.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("[monitor] listening on %s", m.addr)
	return srv.ListenAndServe()
}

// Broadcast sends the exchange to every connected client. Slow clients
// get dropped frames rather than stalling the relay loop.
func (m *Monitor) Broadcast(t roverlink.Telemetry, cmd roverlink.Command) {
	frame := Frame{
		Telemetry: t,
		Command:   cmd,
		Stamp:     time.Now().UnixMilli(),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	for client := range m.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[monitor] upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	m.clientsMu.Lock()
	m.clients[client] = struct{}{}
	total := len(m.clients)
	m.clientsMu.Unlock()

	log.Printf("[monitor] client connected (%d total)", total)

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine keeps the connection alive and detects closes.
	go func() {
		defer func() {
			m.clientsMu.Lock()
			delete(m.clients, client)
			remaining := len(m.clients)
			m.clientsMu.Unlock()
			close(client.send)
			log.Printf("[monitor] client disconnected (%d total)", remaining)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
