/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// busymon tracks in-flight HTTP requests to the configured targets and exposes the busy state
// over HTTP: a status snapshot and a server-sent events stream of busy notifications.
package main

import (
	"context"

	"github.com/alecthomas/kong"
)

// Version is set at build time.
var Version = "dev"

// CLI is the busymon command line.
var CLI struct {
	Run     RunCommand     `cmd:"" help:"Run the status server and the prober."`
	Status  StatusCommand  `cmd:"" help:"Print the busy status of a running busymon."`
	Version VersionCommand `cmd:"" help:"Print the version."`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kongCtx := kong.Parse(
		&CLI,
		kong.Name("busymon"),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree:    true,
			Compact: true,
		}),
		kong.Description(`in-flight HTTP requests tracker

busymon periodically requests the configured targets through a tracked HTTP client
and reports whether any of them is outstanding (busy).`),
	)
	err := kongCtx.Run()
	kongCtx.FatalIfErrorf(err)
}
