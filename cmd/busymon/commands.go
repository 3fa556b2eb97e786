/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/acronis/go-busy/httpserver"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/restapi"
	"github.com/acronis/go-busy/service"
)

// RunCommand runs busymon until SIGINT or SIGTERM is received.
type RunCommand struct {
	Config    string `short:"c" required:"" type:"existingfile" placeholder:"busymon.yaml" help:"Path to the configuration file."`
	EnvPrefix string `default:"BUSYMON" help:"Prefix of environment variables overriding configuration values."`
}

// Run implements the run command.
func (c *RunCommand) Run(ctx context.Context) error {
	cfg, err := LoadAppConfigFromFile(c.Config, c.EnvPrefix)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	return service.New(logger, app).StartContext(ctx)
}

// StatusCommand requests the status endpoint of a running busymon.
type StatusCommand struct {
	URL     string        `default:"http://127.0.0.1:8080" help:"Base URL of the busymon status server."`
	Timeout time.Duration `default:"5s" help:"Request timeout."`
	JSON    bool          `help:"Print the raw JSON status."`

	out io.Writer
}

// Run implements the status command.
func (c *StatusCommand) Run(ctx context.Context) error {
	statusURL := strings.TrimSuffix(c.URL, "/") +
		fmt.Sprintf("/api/%s/v%d/status", httpserver.DefaultServiceNameInURL, httpserver.BusyAPIVersion)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create status request: %w", err)
	}

	var status httpserver.StatusResponse
	if err = restapi.DoRequestAndUnmarshalJSON(http.DefaultClient, req, &status, log.NewDisabledLogger()); err != nil {
		return err
	}
	return c.print(&status)
}

func (c *StatusCommand) print(status *httpserver.StatusResponse) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	state := "idle"
	if status.Busy {
		state = "busy"
	}
	if _, err := fmt.Fprintf(out, "%s (outstanding: %d)\n", state, status.Outstanding); err != nil {
		return err
	}
	for _, name := range sortedKeys(status.Presenters) {
		st := status.Presenters[name]
		if _, err := fmt.Fprintf(out, "  %s: busy=%t disabled=%t content=%q classes=%q\n",
			name, st.Busy, st.Disabled, st.Content, strings.Join(st.Classes, " ")); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VersionCommand prints the busymon version.
type VersionCommand struct {
	out io.Writer
}

// Run implements the version command.
func (c *VersionCommand) Run() error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, "busymon", Version)
	return err
}
