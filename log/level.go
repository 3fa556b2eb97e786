/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import "github.com/ssgreg/logf"

// Level is a logging level name as it appears in configuration.
type Level string

// Logging levels, from the most to the least verbose.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelsToLogf = map[Level]logf.Level{
	LevelDebug: logf.LevelDebug,
	LevelInfo:  logf.LevelInfo,
	LevelWarn:  logf.LevelWarn,
	LevelError: logf.LevelError,
}

// logfLevel maps the level to logf. Unknown levels are treated as info.
func (l Level) logfLevel() logf.Level {
	if lvl, ok := levelsToLogf[l]; ok {
		return lvl
	}
	return logf.LevelInfo
}

// LevelFromLogf maps the logf level back to Level. Unknown levels are reported as info.
func LevelFromLogf(lvl logf.Level) Level {
	for l, ll := range levelsToLogf {
		if ll == lvl {
			return l
		}
	}
	return LevelInfo
}
