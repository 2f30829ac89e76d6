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
	"fmt"
	"strings"

	roverlink "github.com/RoverLinkProject/go-roverlink"
)

// StepLog is a fixed-capacity ring of completed steps, newest last.
type StepLog struct {
	entries []roverlink.StepRecord
	start   int
	count   int
}

// NewStepLog creates a ring holding up to capacity records.
func NewStepLog(capacity int) *StepLog {
	if capacity <= 0 {
		capacity = 50
	}
	return &StepLog{entries: make([]roverlink.StepRecord, capacity)}
}

// Add appends a record, evicting the oldest when full.
func (l *StepLog) Add(rec roverlink.StepRecord) {
	idx := (l.start + l.count) % len(l.entries)
	l.entries[idx] = rec
	if l.count < len(l.entries) {
		l.count++
	} else {
		l.start = (l.start + 1) % len(l.entries)
	}
}

// Entries returns the records oldest-first.
func (l *StepLog) Entries() []roverlink.StepRecord {
	out := make([]roverlink.StepRecord, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.entries[(l.start+i)%len(l.entries)])
	}
	return out
}

// Len returns the number of stored records.
func (l *StepLog) Len() int {
	return l.count
}

// Clear empties the log.
func (l *StepLog) Clear() {
	l.start = 0
	l.count = 0
}

// String renders the log for the debug console.
func (l *StepLog) String() string {
	var b strings.Builder
	b.WriteString("=== Step Log ===\n")
	for _, e := range l.Entries() {
		fmt.Fprintf(&b, "  %s %s %dms dist=%.1fcm light=%d dark=%v img=%v\n",
			e.Timestamp.Format(roverlink.TimestampLayout), e.CommandName,
			e.DurationMS, e.DistanceCM, e.LightRaw, e.Dark, e.ImageSent)
	}
	fmt.Fprintf(&b, "================ (%d entries)", l.count)
	return b.String()
}
