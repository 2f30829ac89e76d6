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
	"context"
	"errors"
	"log"
	"strings"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/transfer"
)

// Relay owns the serial side of the link in a single polling loop. Image
// transfer lines go to the chunk receiver; telemetry goes upstream and
// the resulting command is written back. Anything else is ignored
// without diagnostics, since any output on this channel would corrupt
// the protocol stream.
type Relay struct {
	config    *Config
	transport roverlink.LineTransport
	backend   *Backend
	receiver  *transfer.Receiver
	monitor   *Monitor
}

// New wires a relay on the given transport and backend.
func New(config *Config, t roverlink.LineTransport, backend *Backend) *Relay {
	if config == nil {
		config = DefaultConfig()
	}
	return &Relay{
		config:    config,
		transport: t,
		backend:   backend,
		receiver:  transfer.NewReceiver(t, backend),
	}
}

// SetMonitor attaches the optional websocket monitor.
func (r *Relay) SetMonitor(m *Monitor) {
	r.monitor = m
}

// Run polls the serial line until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	log.Printf("[relay] bridging %s to %s", r.config.Serial.Port, r.config.Backend.URL)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.Poll()
	}
}

// Poll handles at most one inbound line.
func (r *Relay) Poll() {
	line, err := r.transport.ReadLine(r.config.PollTimeout())
	if err != nil {
		if !errors.Is(err, roverlink.ErrTransportTimeout) {
			log.Printf("[relay] read failed: %v", err)
		}
		return
	}

	if r.receiver.HandleLine(line) {
		return
	}
	if strings.HasPrefix(line, roverlink.PrefixData+" ") {
		r.handleTelemetry(line)
		return
	}
	// Unrecognized prefix: dropped silently.
	roverlink.Debugf("relay: ignoring line %q", line)
}

func (r *Relay) handleTelemetry(line string) {
	telemetry, err := roverlink.ParseTelemetryLine(line)
	if err != nil {
		roverlink.Debugf("relay: bad telemetry: %v", err)
		return
	}

	// Correlate the transfer that just completed, if any.
	if id := r.receiver.TakeImageID(); id != "" && telemetry.Image.Available {
		telemetry.Image.ImageID = id
	}

	cmd, err := r.backend.Command(telemetry)
	if err != nil {
		// The vehicle always gets a safe action, network or not.
		log.Printf("[relay] backend failed (%v), sending fail-safe %s", err, roverlink.CmdStop)
		cmd = roverlink.Command{
			Name:       roverlink.CmdStop,
			DurationMS: uint32(r.config.Backend.DefaultDurationMS),
		}
	}

	cmdLine, err := roverlink.EncodeCommandLine(cmd)
	if err != nil {
		log.Printf("[relay] command encode failed: %v", err)
		return
	}
	if err := r.transport.WriteLine(cmdLine); err != nil {
		log.Printf("[relay] command write failed: %v", err)
		return
	}

	if r.monitor != nil {
		r.monitor.Broadcast(telemetry, cmd)
	}
}
