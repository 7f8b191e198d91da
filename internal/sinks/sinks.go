// Package sinks publishes completed analyses to optional downstream systems.
// Publication never affects the HTTP response: it runs after the response is
// built, on its own context, and failures are only logged and counted.
package sinks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spacesedan/sentilens/internal/metrics"
	"github.com/spacesedan/sentilens/internal/models"
)

type Sink interface {
	Name() string
	Publish(ctx context.Context, record models.AnalysisRecord) error
}

type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: timeout}
}

func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.sinks) > 0
}

// Dispatch hands record to every sink in the background.
func (d *Dispatcher) Dispatch(record models.AnalysisRecord) {
	if !d.Enabled() {
		return
	}

	for _, sink := range d.sinks {
		d.wg.Add(1)
		go func(sink Sink) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			if err := sink.Publish(ctx, record); err != nil {
				metrics.SinkErrorsTotal.WithLabelValues(sink.Name()).Inc()
				slog.Warn("[Sinks] Failed to publish analysis",
					slog.String("sink", sink.Name()),
					slog.String("analysis_id", record.AnalysisID),
					slog.String("error", err.Error()))
			}
		}(sink)
	}
}

// Wait blocks until every dispatched publish has returned.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
