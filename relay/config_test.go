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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.URL)
	assert.Equal(t, 3000, cfg.Backend.DefaultDurationMS)
	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, 100*time.Millisecond, cfg.PollTimeout())
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	content := `
serial:
  port: /dev/ttyACM1
  baud: 115200
backend:
  url: http://backend:9000
  timeout_ms: 1500
monitor:
  listen_addr: ":9090"
  enabled: true
poll_timeout_ms: 50
`
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := LoadConfig(path)
	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, "http://backend:9000", cfg.Backend.URL)
	assert.Equal(t, 1500, cfg.Backend.TimeoutMS)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, ":9090", cfg.Monitor.ListenAddr)
	assert.Equal(t, 50*time.Millisecond, cfg.PollTimeout())

	// Unset fields keep their defaults.
	assert.Equal(t, 3000, cfg.Backend.DefaultDurationMS)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, DefaultConfig().Serial, cfg.Serial)
}

func TestLoadConfigBrokenYAMLUsesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial: ["), 0o644))

	cfg := LoadConfig(path)
	assert.Equal(t, DefaultConfig().Serial, cfg.Serial)
}

func TestEnvOverrides(t *testing.T) {
	// Mutates the process environment: not parallel.
	t.Setenv("RELAY_SERIAL_PORT", "/dev/ttyS9")
	t.Setenv("RELAY_SERIAL_BAUD", "57600")
	t.Setenv("RELAY_BACKEND_URL", "http://env:1234")
	t.Setenv("RELAY_LISTEN_ADDR", ":7777")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, "/dev/ttyS9", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.Equal(t, "http://env:1234", cfg.Backend.URL)
	assert.Equal(t, ":7777", cfg.Monitor.ListenAddr)
	assert.True(t, cfg.Monitor.Enabled, "a listen address implies the monitor is wanted")
}

func TestEnvOverrideIgnoresBadBaud(t *testing.T) {
	t.Setenv("RELAY_SERIAL_BAUD", "fast")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, 9600, cfg.Serial.Baud)
}
