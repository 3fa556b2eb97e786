/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newAppender(cfg *Config) logf.Appender {
	w := openOutput(cfg)
	if cfg.Format == FormatText {
		noColor := cfg.NoColor
		return logftext.NewAppender(w, logftext.EncoderConfig{
			NoColor:    &noColor,
			EncodeTime: logf.RFC3339NanoTimeEncoder,
		})
	}
	return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
		FieldKeyTime: "time",
		EncodeTime:   logf.RFC3339NanoTimeEncoder,
	}))
}

func openOutput(cfg *Config) io.Writer {
	switch cfg.Output {
	case OutputStderr:
		return os.Stderr
	case OutputFile:
		rotation := cfg.File.Rotation
		return &lumberjack.Logger{
			Filename:   expandFilePath(cfg.File.Path, time.Now()),
			MaxSize:    int(rotation.MaxSize >> 20), // lumberjack counts megabytes
			MaxBackups: rotation.MaxBackups,
			MaxAge:     rotation.MaxAgeDays,
			Compress:   rotation.Compress,
		}
	default:
		return os.Stdout
	}
}

// expandFilePath substitutes {{pid}} and {{starttime}} placeholders,
// so several busymon processes may share one log directory.
func expandFilePath(path string, startedAt time.Time) string {
	return strings.NewReplacer(
		"{{pid}}", strconv.Itoa(os.Getpid()),
		"{{starttime}}", startedAt.Format("200601021504"),
	).Replace(path)
}
