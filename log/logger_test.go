/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ssgreg/logf"
	"github.com/stretchr/testify/require"
)

// captureStd replaces os.Stdout or os.Stderr while fn runs and returns everything written there.
func captureStd(t *testing.T, output Output, fn func()) string {
	t.Helper()
	target := &os.Stdout
	if output == OutputStderr {
		target = &os.Stderr
	}
	orig := *target
	r, w, err := os.Pipe()
	require.NoError(t, err)
	*target = w
	defer func() { *target = orig }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		_ = w.Close()
	}()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	<-done
	return buf.String()
}

func TestNewLogger_StdOutputs(t *testing.T) {
	tests := []struct {
		output Output
		level  Level
		msg    string
		err    error
	}{
		{output: OutputStdout, level: LevelInfo, msg: "busy.begin"},
		{output: OutputStdout, level: LevelWarn, msg: "events dropped"},
		{output: OutputStdout, level: LevelError, msg: "listener panicked", err: errors.New("boom")},
		{output: OutputStderr, level: LevelInfo, msg: "busy.end-all"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("%s %s", tt.output, tt.level), func(t *testing.T) {
			out := captureStd(t, tt.output, func() {
				logger, closeLogger := NewLogger(&Config{Output: tt.output, Format: FormatJSON, Level: LevelInfo})
				defer closeLogger()
				switch tt.level {
				case LevelWarn:
					logger.Warn(tt.msg)
				case LevelError:
					logger.Error(tt.msg, Error(tt.err))
				default:
					logger.Info(tt.msg)
				}
			})

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &entry))
			require.Equal(t, string(tt.level), entry["level"])
			require.Equal(t, tt.msg, entry["msg"])
			require.Equal(t, float64(os.Getpid()), entry["pid"])
			if tt.err != nil {
				require.Equal(t, tt.err.Error(), entry["error"])
			}
		})
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	out := captureStd(t, OutputStderr, func() {
		logger, closeLogger := NewLogger(&Config{Output: OutputStderr, Format: FormatText, NoColor: true, Level: LevelInfo})
		defer closeLogger()
		logger.AtLevel(LevelError, func(logFunc LogFunc) {
			logFunc("listener panicked", Error(errors.New("boom")))
		})
		logger.Debug("hidden")
	})

	require.Contains(t, out, "|ERRO|")
	require.Contains(t, out, " listener panicked ")
	require.Contains(t, out, "boom")
	require.Contains(t, out, fmt.Sprintf("pid=%d", os.Getpid()))
	require.NotContains(t, out, "hidden")
}

func TestNewLogger_File(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "busymon-{{pid}}.log")
	logger, closeLogger := NewLogger(&Config{
		Output: OutputFile,
		Format: FormatJSON,
		Level:  LevelDebug,
		File: FileConfig{
			Path:     logPath,
			Rotation: RotationConfig{MaxSize: DefaultFileRotationMaxSizeBytes, MaxBackups: 1},
		},
	})
	logger.Debug("busy.begin", String("url", "/api/items"))
	logger.With(Int("remaining", 0)).Info("busy.end-one")
	closeLogger()

	data, err := os.ReadFile(strings.ReplaceAll(logPath, "{{pid}}", fmt.Sprint(os.Getpid())))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, "busy.end-one", entry["msg"])
	require.Equal(t, float64(0), entry["remaining"])
}

func TestExpandFilePath(t *testing.T) {
	startedAt := time.Date(2025, 3, 1, 14, 5, 0, 0, time.UTC)
	require.Equal(t,
		fmt.Sprintf("/var/log/busymon-%d-202503011405.log", os.Getpid()),
		expandFilePath("/var/log/busymon-{{pid}}-{{starttime}}.log", startedAt))
	require.Equal(t, "busymon.log", expandFilePath("busymon.log", startedAt))
}

type textEntryWriter struct {
	texts []string
}

//nolint:gocritic
func (w *textEntryWriter) WriteEntry(e logf.Entry) {
	w.texts = append(w.texts, e.Text)
}

func TestLogger_WithLevel(t *testing.T) {
	ew := &textEntryWriter{}
	logger := Wrap(logf.NewLogger(logf.LevelDebug, ew))

	warnLogger := logger.WithLevel(LevelWarn)
	warnLogger.Info("skipped")
	warnLogger.Warn("written")
	warnLogger.WithLevel(LevelDebug).Debug("still skipped")

	called := false
	warnLogger.AtLevel(LevelDebug, func(LogFunc) { called = true })
	require.False(t, called)

	require.Equal(t, []string{"written"}, ew.texts)
}

func TestLevelFromLogf(t *testing.T) {
	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		require.Equal(t, lvl, LevelFromLogf(lvl.logfLevel()))
	}
	require.Equal(t, logf.LevelInfo, Level("verbose").logfLevel())
}
