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

// Command rover-relay bridges the vehicle serial link to the HTTP
// backend, reassembling image transfers along the way.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/relay"
	"github.com/RoverLinkProject/go-roverlink/transport/uart"
)

var (
	flagConfig string
	flagDebug  bool
)

func init() {
	flag.StringVar(&flagConfig, "config", "", "YAML config file (defaults + env overrides if empty)")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func run(ctx context.Context) error {
	cfg := relay.LoadConfig(flagConfig)

	transport, err := uart.New(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	defer func() { _ = transport.Close() }()

	backend := relay.NewBackend(cfg.Backend.URL, time.Duration(cfg.Backend.TimeoutMS)*time.Millisecond)
	r := relay.New(cfg, transport, backend)

	if cfg.Monitor.Enabled {
		monitor := relay.NewMonitor(cfg.Monitor.ListenAddr)
		r.SetMonitor(monitor)
		go func() {
			if err := monitor.Run(); err != nil {
				log.Printf("[monitor] server stopped: %v", err)
			}
		}()
	}

	return r.Run(ctx)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if flagDebug {
		roverlink.SetDebugEnabled(true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
