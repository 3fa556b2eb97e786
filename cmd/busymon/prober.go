/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/acronis/go-busy/httpclient"
	"github.com/acronis/go-busy/log"
	"github.com/acronis/go-busy/service"
)

// Prober requests all configured targets concurrently through the tracked HTTP client.
// Every request is visible to busy tracking unless its target is marked as notBusy.
type Prober struct {
	client  *http.Client
	targets []ProbeTarget
	logger  log.FieldLogger
}

var _ service.Worker = (*Prober)(nil)

// NewProber creates a new Prober.
func NewProber(client *http.Client, targets []ProbeTarget, logger log.FieldLogger) *Prober {
	return &Prober{client: client, targets: targets, logger: logger}
}

// Run implements service.Worker interface. It performs a single probing iteration.
func (p *Prober) Run(ctx context.Context) error {
	errs := make([]error, len(p.targets))
	var wg sync.WaitGroup
	for i := range p.targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.probe(ctx, p.targets[i])
		}(i)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (p *Prober) probe(ctx context.Context, target ProbeTarget) error {
	if target.Name != "" {
		ctx = httpclient.NewContextWithRequestName(ctx, target.Name)
	}
	if target.NotBusy {
		ctx = httpclient.NewContextWithNotBusy(ctx, true)
	}
	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", target.URL, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", target.URL, err)
	}
	// Tracked request is completed when the body is read up or closed.
	_, _ = io.Copy(io.Discard, resp.Body)
	if err = resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body of %s: %w", target.URL, err)
	}
	p.logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		logFunc("target probed", log.String("url", target.URL), log.String("name", target.Name),
			log.Int("status", resp.StatusCode))
	})
	return nil
}
