// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/arena-foundation/arena/lib/clock"
)

// driver turns the passage of time into match cycles. Each tick
// starts one cycle: the orchestrator advances the durable cycle
// counter and runs its bounded match loop. When archive sweeping is
// configured, every sweepCycles-th cycle also compacts finished
// sessions out of the registry.
type driver struct {
	orchestrator *Orchestrator
	clock        clock.Clock
	logger       *slog.Logger

	// interval is the time between cycles.
	interval time.Duration

	// sweepCycles triggers a compact pass every N cycles. Zero
	// disables sweeping (compact stays available on demand).
	sweepCycles int
}

// Run drives cycles until ctx is cancelled. Cycle failures are
// logged and the loop keeps going: a transient store error on one
// tick must not stop matchmaking for good.
func (d *driver) Run(ctx context.Context) {
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("driver started",
		"interval", d.interval.String(),
		"sweep_cycles", d.sweepCycles)

	for {
		select {
		case <-ticker.C:
			d.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one cycle and, on sweep cycles, a compact pass.
func (d *driver) tick(ctx context.Context) {
	if err := d.orchestrator.RunCycle(ctx); err != nil {
		d.logger.Error("cycle failed", "error", err)
		return
	}

	if d.sweepCycles <= 0 {
		return
	}
	cycle := d.orchestrator.Cycle()
	if cycle%uint64(d.sweepCycles) != 0 {
		return
	}
	result, err := d.orchestrator.Compact(ctx, cycle)
	if err != nil {
		d.logger.Error("archive sweep failed", "cycle", cycle, "error", err)
		return
	}
	if result.Archived > 0 {
		d.logger.Info("archive sweep",
			"cycle", cycle,
			"archived", result.Archived,
			"content_id", result.ContentID)
	}
}
