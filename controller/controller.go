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

// Package controller implements the vehicle control state machine: a
// cooperative, single-threaded polling automaton cycling through sensor
// acquisition, telemetry send, command wait and timed execution.
package controller

import (
	"context"
	"errors"
	"log"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
	"github.com/RoverLinkProject/go-roverlink/camera"
	"github.com/RoverLinkProject/go-roverlink/transfer"
)

// Controller owns one vehicle's control loop. Tick must be called from
// a single goroutine; every handler returns promptly so the console and
// the soft clock stay serviced in every iteration.
type Controller struct {
	config    *Config
	transport roverlink.LineTransport
	dict      *roverlink.Dictionary
	source    Source
	cam       camera.Camera
	drive     Drive
	sender    *transfer.Sender
	clock     *SoftClock
	stepLog   *StepLog
	console   *Console

	state      State
	stateStart time.Time
	stepID     uint32

	// current step data
	snapshot  roverlink.SensorSnapshot
	image     roverlink.ImageSnapshot
	stepTime  time.Time
	imageSent bool

	// resolved command
	command     roverlink.Command
	cmdConfig   roverlink.CommandConfig
	cmdDuration time.Duration

	cmdWaitStart time.Time
	execStart    time.Time
	execStarted  bool
}

// New wires a controller. cam may be nil when no camera is fitted;
// console may be nil when no debug terminal is attached.
func New(config *Config, t roverlink.LineTransport, dict *roverlink.Dictionary,
	source Source, cam camera.Camera, drive Drive,
) *Controller {
	if config == nil {
		config = DefaultConfig()
	}
	c := &Controller{
		config:    config,
		transport: t,
		dict:      dict,
		source:    source,
		cam:       cam,
		drive:     drive,
		sender:    transfer.NewSender(t, nil),
		clock:     NewSoftClock(),
		stepLog:   NewStepLog(config.StepLogCapacity),
		state:     StateInit,
	}
	c.stateStart = time.Now()
	return c
}

// AttachConsole plugs a debug console that Tick services every
// iteration regardless of state.
func (c *Controller) AttachConsole(console *Console) {
	c.console = console
}

// Clock exposes the soft clock, mainly for the console.
func (c *Controller) Clock() *SoftClock {
	return c.clock
}

// StepLog exposes the step log, mainly for the console.
func (c *Controller) StepLog() *StepLog {
	return c.stepLog
}

// State returns the current automaton state.
func (c *Controller) State() State {
	return c.state
}

// Run ticks the automaton until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	log.Printf("[controller] starting, session=%d", c.config.SessionID)
	for {
		select {
		case <-ctx.Done():
			_ = c.drive.Stop()
			return ctx.Err()
		default:
		}
		c.Tick()
	}
}

// Tick advances the automaton by one iteration.
func (c *Controller) Tick() {
	if c.console != nil {
		c.console.Poll(c)
	}

	switch c.state {
	case StateInit:
		c.tickInit()
	case StateCollectSensors:
		c.tickCollectSensors()
	case StateSendToServer:
		c.tickSendToServer()
	case StateWaitCommand:
		c.tickWaitCommand()
	case StateExecuteCommand:
		c.tickExecuteCommand()
	}
}

func (c *Controller) changeState(next State) {
	roverlink.Debugf("controller: %s -> %s", c.state, next)
	c.state = next
	c.stateStart = time.Now()
}

func (c *Controller) tickInit() {
	if time.Since(c.stateStart) >= c.config.SettleDelay {
		log.Printf("[controller] settle complete, entering main loop")
		c.changeState(StateCollectSensors)
	}
}

func (c *Controller) tickCollectSensors() {
	c.stepID++
	c.stepTime = c.clock.Now()
	c.imageSent = false
	c.image = roverlink.ImageSnapshot{}

	snapshot, err := c.source.Snapshot()
	if err != nil {
		// A failed read is reported as out-of-range rather than
		// stalling the loop.
		log.Printf("[controller] sensor read failed: %v", err)
		snapshot = roverlink.SensorSnapshot{DistanceCM: roverlink.MaxDistanceCM}
	}
	c.snapshot = snapshot

	if c.cam != nil && c.cam.Ready() && !snapshot.Dark {
		img, err := c.cam.Capture()
		if err != nil {
			log.Printf("[controller] capture failed: %v", err)
		} else {
			c.image = img
		}
	}

	if c.config.SerialLogging {
		log.Printf("[controller] step %d: dist=%.1fcm obst=%v dark=%v cam=%v",
			c.stepID, snapshot.DistanceCM, snapshot.Obstacle, snapshot.Dark, c.image.Available)
	}

	c.changeState(StateSendToServer)
}

func (c *Controller) tickSendToServer() {
	// A transfer only happens for an actually captured, non-empty
	// frame; a failed transfer downgrades telemetry and is never fatal
	// to the step.
	if c.image.Available && len(c.image.Buffer) > 0 {
		if err := c.sender.Send(c.image); err != nil {
			log.Printf("[controller] image transfer failed: %v", err)
		} else {
			c.imageSent = true
		}
	}

	telemetry := roverlink.NewTelemetry(c.config.SessionID, c.stepID, c.stepTime,
		c.snapshot, c.image, c.imageSent, "")
	line, err := roverlink.EncodeTelemetryLine(telemetry)
	if err != nil {
		log.Printf("[controller] telemetry encode failed: %v", err)
	} else if err := c.transport.WriteLine(line); err != nil {
		log.Printf("[controller] telemetry write failed: %v", err)
	}

	c.cmdWaitStart = time.Now()
	c.changeState(StateWaitCommand)
}

func (c *Controller) tickWaitCommand() {
	line, err := c.transport.ReadLine(c.config.CommandPollTimeout)
	if err == nil {
		cmd, perr := roverlink.ParseCommandLine(line)
		if perr != nil {
			// Not a usable command line; keep waiting within the
			// deadline. Stray transfer acknowledgements land here too.
			roverlink.Debugf("controller: ignoring line %q: %v", line, perr)
		} else {
			c.resolveCommand(cmd)
			c.beginExecute()
			return
		}
	} else if !errors.Is(err, roverlink.ErrTransportTimeout) {
		log.Printf("[controller] command read failed: %v", err)
	}

	if time.Since(c.cmdWaitStart) >= c.config.CommandWaitTimeout {
		log.Printf("[controller] command timeout, synthesizing %s", roverlink.CmdStop)
		c.failSafeStop()
		c.beginExecute()
	}
}

// resolveCommand maps a wire command onto a dictionary configuration
// and a duration. Precedence: a nonzero wire duration wins; a known
// name falls back to its base duration; an unknown name is remapped to
// STOP with the default step duration.
func (c *Controller) resolveCommand(cmd roverlink.Command) {
	cfg, err := c.dict.Lookup(cmd.Name)
	if err != nil {
		log.Printf("[controller] unknown command %q, using %s", cmd.Name, roverlink.CmdStop)
		cmd.Name = roverlink.CmdStop
	}
	c.command = cmd
	c.cmdConfig = cfg

	switch {
	case cmd.DurationMS != 0:
		c.cmdDuration = time.Duration(cmd.DurationMS) * time.Millisecond
	case err == nil:
		c.cmdDuration = time.Duration(cfg.BaseDurationMS) * time.Millisecond
	default:
		c.cmdDuration = c.config.DefaultStepDuration
	}

	if c.config.SerialLogging {
		log.Printf("[controller] command %s for %s", c.command.Name, c.cmdDuration)
	}
}

// failSafeStop synthesizes the STOP command used when no valid command
// arrived in time.
func (c *Controller) failSafeStop() {
	cfg, _ := c.dict.Lookup(roverlink.CmdStop)
	c.command = roverlink.Command{
		Name:       roverlink.CmdStop,
		DurationMS: uint32(c.config.DefaultStepDuration / time.Millisecond),
	}
	c.cmdConfig = cfg
	c.cmdDuration = c.config.DefaultStepDuration
}

func (c *Controller) beginExecute() {
	c.execStarted = false
	c.changeState(StateExecuteCommand)
}

func (c *Controller) tickExecuteCommand() {
	if !c.execStarted {
		c.execStarted = true
		c.execStart = time.Now()
		if err := c.drive.Apply(c.cmdConfig.Left, c.cmdConfig.Right); err != nil {
			log.Printf("[controller] drive apply failed: %v", err)
		}
		return
	}

	if time.Since(c.execStart) < c.cmdDuration {
		return
	}

	if err := c.drive.Stop(); err != nil {
		log.Printf("[controller] drive stop failed: %v", err)
	}

	c.stepLog.Add(roverlink.StepRecord{
		Timestamp:   c.stepTime,
		CommandName: c.command.Name,
		DurationMS:  uint32(c.cmdDuration / time.Millisecond),
		DistanceCM:  c.snapshot.DistanceCM,
		LightRaw:    c.snapshot.LightRaw,
		Dark:        c.snapshot.Dark,
		Obstacle:    c.snapshot.Obstacle,
		ImageSent:   c.imageSent,
	})
	if c.config.SerialLogging {
		log.Printf("[controller] executed %s (%s)", c.command.Name, c.cmdDuration)
	}

	c.changeState(StateCollectSensors)
}
