// Copyright 2026 The Zaparoo Project Contributors.
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

package pn532

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sabine/pxt-calliope-grove-pn532/internal/syncutil"
)

// debugEnabled controls console output. The session log, when open, always
// receives every message.
var debugEnabled = false

// logMu serializes writes to the console and the session log.
var logMu syncutil.Mutex

// consoleWriter is where console debug output goes.
var consoleWriter io.Writer = os.Stdout

func init() {
	if os.Getenv("PN532_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

func emit(message string) {
	logMu.Lock()
	defer logMu.Unlock()

	if sessionLogWriter != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", timestamp, message)
	}
	if debugEnabled {
		_, _ = fmt.Fprintf(consoleWriter, "DEBUG: %s\n", message)
	}
}

// Debugf prints debug information.
// Always writes to the session log (if open) with a timestamp; prints to the
// console only when debug mode is enabled.
func Debugf(format string, args ...any) {
	emit(fmt.Sprintf(format, args...))
}

// Debugln prints debug information, formatting args like fmt.Sprint.
func Debugln(args ...any) {
	emit(fmt.Sprint(args...))
}

// SetDebugEnabled allows programmatic control of console debug output.
func SetDebugEnabled(enabled bool) {
	logMu.Lock()
	debugEnabled = enabled
	logMu.Unlock()
}

// traceBytes logs a hex dump of bytes crossing the bus.
func traceBytes(direction string, data []byte) {
	if !debugEnabled && sessionLogWriter == nil {
		return
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		_, _ = fmt.Fprintf(&sb, "%02X", b)
	}
	Debugf("%s [%d] %s", direction, len(data), sb.String())
}
