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

package controller

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// Console is the debug terminal serviced every tick. A reader goroutine
// feeds lines into a channel so Poll never blocks the automaton.
type Console struct {
	out   io.Writer
	lines chan string
}

// NewConsole starts reading commands from r and writing replies to w.
func NewConsole(r io.Reader, w io.Writer) *Console {
	c := &Console{out: w, lines: make(chan string, 8)}
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				c.lines <- line
			}
		}
		close(c.lines)
	}()
	return c
}

// Poll handles every pending console line without blocking.
func (c *Console) Poll(ctrl *Controller) {
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			c.dispatch(ctrl, line)
		default:
			return
		}
	}
}

func (c *Console) dispatch(ctrl *Controller, line string) {
	switch {
	case line == "help":
		c.printHelp()
	case line == "status":
		c.printStatus(ctrl)
	case line == "log":
		fmt.Fprintln(c.out, ctrl.StepLog().String())
	case line == "log clear":
		ctrl.StepLog().Clear()
		fmt.Fprintln(c.out, "Log cleared")
	case line == "dict":
		fmt.Fprintln(c.out, ctrl.dict.String())
	case line == "serial on":
		ctrl.config.SerialLogging = true
		fmt.Fprintln(c.out, "Serial logging enabled")
	case line == "serial off":
		ctrl.config.SerialLogging = false
		fmt.Fprintln(c.out, "Serial logging disabled")
	case strings.HasPrefix(line, "time "):
		if err := ctrl.Clock().SetFromString(line[len("time "):]); err != nil {
			fmt.Fprintf(c.out, "Invalid time: %v\n", err)
		} else {
			fmt.Fprintln(c.out, "Time set")
		}
	case strings.HasPrefix(line, "duration "):
		ms, err := strconv.Atoi(line[len("duration "):])
		if err != nil || ms <= 0 {
			fmt.Fprintln(c.out, "Invalid duration")
			return
		}
		ctrl.config.DefaultStepDuration = time.Duration(ms) * time.Millisecond
		fmt.Fprintf(c.out, "Step duration set to %d ms\n", ms)
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help')\n", line)
	}
}

func (c *Console) printStatus(ctrl *Controller) {
	fmt.Fprintln(c.out, "=== System Status ===")
	fmt.Fprintf(c.out, "Time: %s\n", ctrl.Clock().Now().Format(roverlink.TimestampLayout))
	fmt.Fprintf(c.out, "State: %s\n", ctrl.State())
	fmt.Fprintf(c.out, "Step: %d\n", ctrl.stepID)
	fmt.Fprintf(c.out, "Serial logging: %v\n", ctrl.config.SerialLogging)
	fmt.Fprintf(c.out, "Step duration: %s\n", ctrl.config.DefaultStepDuration)
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "=== Available Commands ===")
	fmt.Fprintln(c.out, "  help              - Show this help")
	fmt.Fprintln(c.out, "  status            - Show system status")
	fmt.Fprintln(c.out, "  log               - Print step log")
	fmt.Fprintln(c.out, "  log clear         - Clear step log")
	fmt.Fprintln(c.out, "  dict              - Print command dictionary")
	fmt.Fprintln(c.out, "  serial on|off     - Toggle step logging")
	fmt.Fprintln(c.out, "  time dd:MM:yyyy hh:mm:ss - Set soft clock")
	fmt.Fprintln(c.out, "  duration <ms>     - Set default step duration")
}
