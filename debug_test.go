//nolint:paralleltest // Tests modify package-level debug state, cannot run in parallel
package mfrc522

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDebug routes session and console output to buffers for one test.
func captureDebug(t *testing.T, enabled bool) (session, console *bytes.Buffer) {
	t.Helper()

	origEnabled, origWriter, origConsole := debugEnabled, sessionLogWriter, debugConsole
	t.Cleanup(func() {
		debugEnabled = origEnabled
		sessionLogWriter = origWriter
		debugConsole = origConsole
	})

	session, console = &bytes.Buffer{}, &bytes.Buffer{}
	sessionLogWriter = session
	debugConsole = console
	debugEnabled = enabled
	return session, console
}

func TestDebugFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		mfrc522  string
		generic  string
		expected bool
	}{
		{name: "unset", expected: false},
		{name: "MFRC522_DEBUG", mfrc522: "1", expected: true},
		{name: "DEBUG", generic: "1", expected: true},
		{name: "both", mfrc522: "1", generic: "1", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MFRC522_DEBUG", tt.mfrc522)
			t.Setenv("DEBUG", tt.generic)
			assert.Equal(t, tt.expected, debugFromEnv())
		})
	}
}

func TestWriteDebug_Destinations(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		wantConsole bool
	}{
		{name: "session only when disabled", enabled: false, wantConsole: false},
		{name: "session and console when enabled", enabled: true, wantConsole: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, console := captureDebug(t, tt.enabled)

			writeDebug("anticollision failed")

			matched, err := regexp.MatchString(`^\d{2}:\d{2}:\d{2}\.\d{3} DEBUG: anticollision failed\n$`, session.String())
			require.NoError(t, err)
			assert.True(t, matched, "unexpected session line: %q", session.String())

			if tt.wantConsole {
				assert.Equal(t, "DEBUG: anticollision failed\n", console.String())
			} else {
				assert.Empty(t, console.String())
			}
		})
	}
}

func TestWriteDebug_NoSessionLog(t *testing.T) {
	_, console := captureDebug(t, true)
	sessionLogWriter = nil

	writeDebug("card scanned")
	assert.Equal(t, "DEBUG: card scanned\n", console.String())
}

func TestDebugf_Formats(t *testing.T) {
	_, console := captureDebug(t, true)

	Debugf("read %s: 0x%02X", VersionReg, VersionMFRC522v2)
	assert.Equal(t, "DEBUG: read VersionReg: 0x92\n", console.String())
}

func TestDebugln_JoinsLikeSprint(t *testing.T) {
	_, console := captureDebug(t, true)

	Debugln("uid", NewUID([4]byte{0x04, 0xD2, 0x58, 0x0C}))
	assert.Equal(t, "DEBUG: uid4,210,88,12,130\n", console.String())
}

func TestSetDebugEnabled(t *testing.T) {
	captureDebug(t, false)

	SetDebugEnabled(true)
	assert.True(t, DebugEnabled())

	SetDebugEnabled(false)
	assert.False(t, DebugEnabled())
}

func TestDebugEnabled_SilencesConsole(t *testing.T) {
	_, console := captureDebug(t, true)
	SetDebugEnabled(false)

	Debugf("poll %d", 1)
	assert.Empty(t, console.String())
}
