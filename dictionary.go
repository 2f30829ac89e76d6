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
	"os"
	"strings"

	"github.com/RoverLinkProject/go-roverlink/internal/syncutil"
)

// maxDictionaryEntries bounds the stored command set.
const maxDictionaryEntries = 16

// Dictionary maps command names to motor configurations. Lookups for
// unknown names fail closed to STOP. An optional backing file persists
// updates across restarts.
type Dictionary struct {
	path     string
	mu       syncutil.RWMutex
	commands []CommandConfig
}

// DefaultCommands returns the factory command set.
func DefaultCommands() []CommandConfig {
	return []CommandConfig{
		{Name: CmdForward, Left: DirForward, Right: DirForward, BaseDurationMS: 3000},
		{Name: CmdBackward, Left: DirReverse, Right: DirReverse, BaseDurationMS: 3000},
		// Pivot turns: the opposite side drives, the inner side holds.
		{Name: CmdLeft, Left: DirStop, Right: DirForward, BaseDurationMS: 3000},
		{Name: CmdRight, Left: DirForward, Right: DirStop, BaseDurationMS: 3000},
		{Name: CmdStop, Left: DirStop, Right: DirStop, BaseDurationMS: 3000},
	}
}

// NewDictionary creates a dictionary with the factory command set.
func NewDictionary() *Dictionary {
	return &Dictionary{commands: DefaultCommands()}
}

// LoadDictionary reads a dictionary from a JSON file, falling back to
// the factory set when the file is missing or invalid.
func LoadDictionary(path string) *Dictionary {
	d := NewDictionary()
	d.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		return d
	}
	var commands []CommandConfig
	if err := json.Unmarshal(data, &commands); err != nil || len(commands) == 0 {
		return d
	}
	if len(commands) > maxDictionaryEntries {
		commands = commands[:maxDictionaryEntries]
	}
	// STOP must always resolve; a stored set without it is invalid.
	if _, err := lookup(commands, CmdStop); err != nil {
		return d
	}
	d.commands = commands
	return d
}

func lookup(commands []CommandConfig, name string) (CommandConfig, error) {
	for _, c := range commands {
		if c.Name == name {
			return c, nil
		}
	}
	return CommandConfig{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Lookup returns the configuration for name. Unknown names return the
// STOP configuration along with ErrUnknownCommand so the caller can log
// the remap.
func (d *Dictionary) Lookup(name string) (CommandConfig, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cfg, err := lookup(d.commands, name)
	if err == nil {
		return cfg, nil
	}
	stop, stopErr := lookup(d.commands, CmdStop)
	if stopErr != nil {
		// The constructor and loader both guarantee STOP exists.
		stop = CommandConfig{Name: CmdStop, Left: DirStop, Right: DirStop, BaseDurationMS: 3000}
	}
	return stop, err
}

// Update replaces or appends a command configuration and persists the
// dictionary when it has a backing file.
func (d *Dictionary) Update(cfg CommandConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: empty command name", ErrMalformedLine)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	replaced := false
	for i := range d.commands {
		if d.commands[i].Name == cfg.Name {
			d.commands[i] = cfg
			replaced = true
			break
		}
	}
	if !replaced {
		if len(d.commands) >= maxDictionaryEntries {
			return fmt.Errorf("dictionary full (%d entries)", maxDictionaryEntries)
		}
		d.commands = append(d.commands, cfg)
	}
	return d.saveLocked()
}

func (d *Dictionary) saveLocked() error {
	if d.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(d.commands, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dictionary: %w", err)
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("save dictionary: %w", err)
	}
	return nil
}

// Commands returns a copy of every configured command.
func (d *Dictionary) Commands() []CommandConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]CommandConfig, len(d.commands))
	copy(out, d.commands)
	return out
}

// String renders the dictionary for the debug console.
func (d *Dictionary) String() string {
	var b strings.Builder
	b.WriteString("=== Command Dictionary ===\n")
	for _, c := range d.Commands() {
		fmt.Fprintf(&b, "  %s: L=%d R=%d dur=%dms\n", c.Name, c.Left, c.Right, c.BaseDurationMS)
	}
	b.WriteString("==========================")
	return b.String()
}
