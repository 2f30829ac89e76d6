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

package roverlink

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Line prefixes for the telemetry/command exchange. The image transfer
// prefixes live in the transfer package.
const (
	PrefixData    = "DATA"
	PrefixCommand = "CMD"
)

// TimestampLayout is the wire format of telemetry timestamps.
const TimestampLayout = "02:01:2006 15:04:05"

// PixelFormatGray8 tags the only pixel format the camera produces.
const PixelFormatGray8 = "GRAY8"

// IMUReading is the 6-axis IMU sub-object of a telemetry message.
type IMUReading struct {
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
	AZ float64 `json:"az"`
	GX float64 `json:"gx"`
	GY float64 `json:"gy"`
	GZ float64 `json:"gz"`
}

// TelemetrySensors is the sensor sub-object of a telemetry message.
type TelemetrySensors struct {
	DistanceCM float64    `json:"distance_cm"`
	Obstacle   bool       `json:"obstacle"`
	LightRaw   int        `json:"light_raw"`
	LightDark  bool       `json:"light_dark"`
	IMU        IMUReading `json:"mpu6050"`
}

// TelemetryImage is the image sub-object of a telemetry message. ImageID
// references a completed chunked transfer and is only set when one
// finished immediately before the telemetry line.
type TelemetryImage struct {
	Format    string `json:"format"`
	ImageID   string `json:"image_id,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Available bool   `json:"available"`
}

// Telemetry is the periodic report sent from the controller to the
// backend, one JSON object per DATA line.
type Telemetry struct {
	Timestamp string           `json:"timestamp"`
	Image     TelemetryImage   `json:"image"`
	Sensors   TelemetrySensors `json:"sensors"`
	SessionID uint32           `json:"session_id"`
	Step      uint32           `json:"step"`
}

// NewTelemetry assembles a telemetry message from one step's snapshots.
// sent reports whether an image transfer completed for this step; a
// failed transfer downgrades the message to sensors-only.
func NewTelemetry(sessionID, step uint32, ts time.Time, s SensorSnapshot, img ImageSnapshot, sent bool, imageID string) Telemetry {
	t := Telemetry{
		SessionID: sessionID,
		Step:      step,
		Timestamp: ts.Format(TimestampLayout),
		Sensors: TelemetrySensors{
			DistanceCM: s.DistanceCM,
			Obstacle:   s.Obstacle,
			LightRaw:   s.LightRaw,
			LightDark:  s.Dark,
			IMU: IMUReading{
				AX: s.AX, AY: s.AY, AZ: s.AZ,
				GX: s.GX, GY: s.GY, GZ: s.GZ,
			},
		},
		Image: TelemetryImage{Format: PixelFormatGray8},
	}
	if sent {
		t.Image.Available = true
		t.Image.Width = img.Width
		t.Image.Height = img.Height
		t.Image.ImageID = imageID
	}
	return t
}

// EncodeTelemetryLine serializes t into a single DATA line without the
// trailing newline.
func EncodeTelemetryLine(t Telemetry) (string, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal telemetry: %w", err)
	}
	line := PrefixData + " " + string(body)
	if len(line) > MaxLineLen {
		return "", ErrLineTooLong
	}
	return line, nil
}

// commandWire is the JSON shape of a CMD line.
type commandWire struct {
	Command    string `json:"command"`
	DurationMS uint32 `json:"duration_ms"`
}

// EncodeCommandLine serializes cmd into a single CMD line.
func EncodeCommandLine(cmd Command) (string, error) {
	body, err := json.Marshal(commandWire{Command: cmd.Name, DurationMS: cmd.DurationMS})
	if err != nil {
		return "", fmt.Errorf("marshal command: %w", err)
	}
	return PrefixCommand + " " + string(body), nil
}

// ParseCommandLine parses a CMD line into a Command. A line with a
// different prefix or an empty command name is rejected; the caller
// treats that the same as a timeout.
func ParseCommandLine(line string) (Command, error) {
	rest, ok := strings.CutPrefix(line, PrefixCommand+" ")
	if !ok {
		return Command{}, fmt.Errorf("%w: missing %s prefix", ErrMalformedLine, PrefixCommand)
	}
	var wire commandWire
	if err := json.Unmarshal([]byte(rest), &wire); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	if wire.Command == "" {
		return Command{}, ErrEmptyCommand
	}
	return Command{Name: wire.Command, DurationMS: wire.DurationMS}, nil
}

// ParseTelemetryLine parses a DATA line. The relay uses it to validate
// telemetry before forwarding it upstream.
func ParseTelemetryLine(line string) (Telemetry, error) {
	rest, ok := strings.CutPrefix(line, PrefixData+" ")
	if !ok {
		return Telemetry{}, fmt.Errorf("%w: missing %s prefix", ErrMalformedLine, PrefixData)
	}
	var t Telemetry
	if err := json.Unmarshal([]byte(rest), &t); err != nil {
		return Telemetry{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	return t, nil
}
