/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-busy/log"
)

// LoggerOpts configures the logger returned by NewLoggerWithOpts.
type LoggerOpts struct {
	// Output receives JSON lines. os.Stderr is used if it's nil.
	Output io.Writer
}

// NewLogger returns a debug-level logger writing JSON lines to stderr synchronously.
// It's slow and meant for tests and examples only.
func NewLogger() log.FieldLogger {
	return NewLoggerWithOpts(LoggerOpts{})
}

// NewLoggerWithOpts is NewLogger with options.
func NewLoggerWithOpts(opts LoggerOpts) log.FieldLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	w := &jsonLinesWriter{
		out: out,
		enc: logf.NewJSONEncoder(logf.JSONEncoderConfig{FieldKeyTime: "time", EncodeTime: logf.RFC3339NanoTimeEncoder}),
	}
	return log.Wrap(logf.NewLogger(logf.LevelDebug, w))
}

type jsonLinesWriter struct {
	mu  sync.Mutex
	out io.Writer
	enc logf.Encoder
}

//nolint:gocritic
func (w *jsonLinesWriter) WriteEntry(e logf.Entry) {
	var buf logf.Buffer
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(&buf, e); err != nil {
		_, _ = fmt.Fprintln(w.out, err)
		return
	}
	_, _ = w.out.Write(buf.Data)
}
