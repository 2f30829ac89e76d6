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

// Package relay implements the node bridging the vehicle's serial link
// to the HTTP backend: it reassembles chunked image transfers, forwards
// telemetry, and writes the backend's movement commands back onto the
// line.
package relay

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SerialConfig selects the serial port facing the vehicle.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// BackendConfig selects the HTTP backend.
type BackendConfig struct {
	URL               string `yaml:"url"`
	TimeoutMS         int    `yaml:"timeout_ms"`
	DefaultDurationMS int    `yaml:"default_duration_ms"`
}

// MonitorConfig configures the optional websocket monitor.
type MonitorConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Enabled    bool   `yaml:"enabled"`
}

// Config holds all relay configuration.
type Config struct {
	Serial        SerialConfig  `yaml:"serial"`
	Backend       BackendConfig `yaml:"backend"`
	Monitor       MonitorConfig `yaml:"monitor"`
	PollTimeoutMS int           `yaml:"poll_timeout_ms"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{Port: "/dev/ttyUSB0", Baud: 9600},
		Backend: BackendConfig{
			URL:               "http://127.0.0.1:8000",
			TimeoutMS:         4000,
			DefaultDurationMS: 3000,
		},
		Monitor:       MonitorConfig{ListenAddr: ":8070", Enabled: false},
		PollTimeoutMS: 100,
	}
}

// LoadConfig reads a YAML config file, then applies environment variable
// overrides. Falls back to defaults if the file is missing or invalid.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[config] no config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[config] error parsing %s: %v, using defaults", path, err)
		cfg = DefaultConfig()
	} else {
		log.Printf("[config] loaded from %s", path)
	}

	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides reads environment variables and overrides config
// values. Supported: RELAY_SERIAL_PORT, RELAY_SERIAL_BAUD, RELAY_BACKEND_URL,
// RELAY_LISTEN_ADDR.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RELAY_SERIAL_PORT"); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv("RELAY_SERIAL_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serial.Baud = n
		}
	}
	if v := os.Getenv("RELAY_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("RELAY_LISTEN_ADDR"); v != "" {
		c.Monitor.ListenAddr = v
		c.Monitor.Enabled = true
	}
}

// PollTimeout returns the serial poll window as a duration.
func (c *Config) PollTimeout() time.Duration {
	if c.PollTimeoutMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.PollTimeoutMS) * time.Millisecond
}
