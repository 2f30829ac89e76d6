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

// Command rover runs the vehicle-side controller: it polls sensors,
// ships telemetry and camera frames over the serial link, and executes
// the commands that come back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/camera"
	"github.com/RoverLinkProject/go-roverlink/controller"
	"github.com/RoverLinkProject/go-roverlink/driver/gpio"
	"github.com/RoverLinkProject/go-roverlink/transport/uart"
)

type config struct {
	port      string
	dictPath  string
	baud      int
	sessionID int
	demo      bool
	noCamera  bool
	console   bool
	debug     bool
}

var (
	flagPort      string
	flagBaud      int
	flagDict      string
	flagSessionID int
	flagDemo      bool
	flagNoCamera  bool
	flagConsole   bool
	flagDebug     bool
)

func init() {
	flag.StringVar(&flagPort, "port", "/dev/ttyUSB0", "Serial port connected to the relay")
	flag.IntVar(&flagBaud, "baud", 9600, "Serial baud rate")
	flag.StringVar(&flagDict, "dict", "", "Command dictionary JSON file (built-in defaults if empty)")
	flag.IntVar(&flagSessionID, "session", 1, "Session identifier attached to telemetry")
	flag.BoolVar(&flagDemo, "demo", false, "Use simulated sensors, camera and motors (no hardware)")
	flag.BoolVar(&flagNoCamera, "no-camera", false, "Run without a camera")
	flag.BoolVar(&flagConsole, "console", false, "Attach the debug console to stdin/stdout")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		port:      flagPort,
		baud:      flagBaud,
		dictPath:  flagDict,
		sessionID: flagSessionID,
		demo:      flagDemo,
		noCamera:  flagNoCamera,
		console:   flagConsole,
		debug:     flagDebug,
	}
	if cfg.debug {
		roverlink.SetDebugEnabled(true)
	}
	return cfg
}

func buildController(cfg *config) (*controller.Controller, func(), error) {
	transport, err := uart.New(cfg.port, cfg.baud)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open link: %w", err)
	}
	cleanup := func() { _ = transport.Close() }

	dict := roverlink.LoadDictionary(cfg.dictPath)

	var (
		source controller.Source
		cam    camera.Camera
		drive  controller.Drive
	)
	if cfg.demo {
		source = controller.NewDemoSource()
		cam = camera.NewSim()
		drive = &controller.LogDrive{}
	} else {
		// TODO: real MPU6050/HC-SR04 source and OV7670 capture driver
		source = controller.NewDemoSource()
		cam = camera.NewSim()
		motors, err := gpio.New(gpio.DefaultPins())
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to init motors: %w", err)
		}
		drive = motors
	}
	if cfg.noCamera {
		cam = nil
	}

	ctrlConfig := controller.DefaultConfig()
	ctrlConfig.SessionID = uint32(cfg.sessionID)

	ctrl := controller.New(ctrlConfig, transport, dict, source, cam, drive)
	if cfg.console {
		ctrl.AttachConsole(controller.NewConsole(os.Stdin, os.Stdout))
	}
	return ctrl, cleanup, nil
}

func run(ctx context.Context, cfg *config) error {
	ctrl, cleanup, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return ctrl.Run(ctx)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
		// Second signal forces exit if the loop is wedged mid-step.
		<-sigChan
		os.Exit(1)
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
