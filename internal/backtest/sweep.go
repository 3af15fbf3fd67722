package backtest

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pairs-backtest/internal/model"
)

// SweepResult pairs a request with its outcome; Err is per request and does not stop the sweep.
type SweepResult struct {
	Request Request
	Result  *Result
	Err     error
}

// Sweep runs independent backtests concurrently over a shared read-only panel.
// Results come back in request order. workers <= 0 uses GOMAXPROCS.
func (e *Engine) Sweep(ctx context.Context, panel *model.PricePanel, reqs []Request, workers int) ([]SweepResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]SweepResult, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.RunRequest(panel, req)
			out[i] = SweepResult{Request: req, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Sweep runs reqs with a silent engine.
func Sweep(ctx context.Context, panel *model.PricePanel, reqs []Request) ([]SweepResult, error) {
	return New(zerolog.Nop()).Sweep(ctx, panel, reqs, 0)
}
