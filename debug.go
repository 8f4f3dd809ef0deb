// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package mfrc522

import (
	"fmt"
	"io"
	"os"
	"time"
)

var (
	// debugEnabled controls console output of debug messages
	debugEnabled = false
	// debugConsole receives console debug output
	debugConsole io.Writer = os.Stdout
)

func init() {
	debugEnabled = debugFromEnv()
}

// debugFromEnv reports whether MFRC522_DEBUG or DEBUG is set
func debugFromEnv() bool {
	return os.Getenv("MFRC522_DEBUG") != "" || os.Getenv("DEBUG") != ""
}

// Debugf logs a formatted debug message. Messages always go to the session
// log when one is open and to stdout when debugging is enabled.
func Debugf(format string, args ...any) {
	writeDebug(fmt.Sprintf(format, args...))
}

// Debugln logs its operands like fmt.Sprint
func Debugln(args ...any) {
	writeDebug(fmt.Sprint(args...))
}

func writeDebug(message string) {
	if sessionLogWriter != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", timestamp, message)
	}

	if debugEnabled {
		_, _ = fmt.Fprintf(debugConsole, "DEBUG: %s\n", message)
	}
}

// SetDebugEnabled enables or disables console debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports whether console debug output is on
func DebugEnabled() bool {
	return debugEnabled
}
