// SPDX-License-Identifier: MIT

package maxlik

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// Target is a log-likelihood over a bounded parameter vector.
// *treelik.Engine implements it.
type Target interface {
	Params() []float64
	Bounds() [][2]float64
	Evaluate(x []float64) (float64, []float64, error)
}

// Result describes a converged run.
type Result struct {
	Params      []float64
	LogLik      float64
	Iterations  int
	Evaluations int
	Status      string
}

// evaluator caches the last target evaluation in u space, since the
// optimizer asks for the value and the gradient at one point separately.
// The optimizer polls err from another goroutine.
type evaluator struct {
	mu     sync.Mutex
	target Target
	tr     []transform
	u, x   []float64
	f      float64
	grad   []float64
	ok     bool
	err    error
}

func (ev *evaluator) value(u []float64) float64 {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.at(u)
	return ev.f
}

func (ev *evaluator) gradient(grad, u []float64) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.at(u)
	copy(grad, ev.grad)
}

func (ev *evaluator) failure() error {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.err
}

func (ev *evaluator) at(u []float64) {
	if ev.err != nil {
		return
	}
	if ev.ok && slices.Equal(ev.u, u) {
		return
	}
	ev.ok = false
	copy(ev.u, u)
	for i, t := range ev.tr {
		ev.x[i] = t.x(u[i])
	}
	ll, g, err := ev.target.Evaluate(ev.x)
	if err != nil {
		ev.err = err
		ev.f = math.Inf(1)
		for i := range ev.grad {
			ev.grad[i] = 0
		}
		return
	}
	ev.f = -ll
	for i, t := range ev.tr {
		ev.grad[i] = -g[i] * t.dx(u[i])
	}
	ev.ok = true
}

// Maximize climbs target's log-likelihood from its current parameters. On
// success the target is left evaluated at the returned point.
//
// Every point handed to the target, and every returned point, lies strictly
// inside a finite bound: by at least 1e-12 of the interval for two-sided
// bounds and by 1e-12 for one-sided ones. Pass bounds that are already safe
// to evaluate near, such as the engine's inset Bounds.
//
// A run that stops on an iteration or evaluation budget, or on a failed line
// search, returns a *Failure (matching ErrNotConverged) holding the best
// point reached. An error from the target aborts the run and is returned
// wrapped.
func Maximize(target Target, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	x0, bounds := target.Params(), target.Bounds()
	if len(x0) == 0 || len(x0) != len(bounds) {
		return nil, fmt.Errorf("%w: %d params, %d bounds", ErrDimension, len(x0), len(bounds))
	}
	n := len(x0)
	tr := make([]transform, n)
	u0 := make([]float64, n)
	for i, b := range bounds {
		if math.IsNaN(b[0]) || math.IsNaN(b[1]) || b[0] >= b[1] {
			return nil, fmt.Errorf("%w: slot %d: [%v, %v]", ErrBounds, i, b[0], b[1])
		}
		tr[i] = newTransform(b)
		u0[i] = tr[i].u(x0[i])
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ev := &evaluator{
		target: target,
		tr:     tr,
		u:      make([]float64, n),
		x:      make([]float64, n),
		grad:   make([]float64, n),
	}
	problem := optimize.Problem{
		Func: ev.value,
		Grad: ev.gradient,
		Status: func() (optimize.Status, error) {
			if err := ev.failure(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: cfg.GradientThreshold,
		MajorIterations:   cfg.MaxIterations,
		FuncEvaluations:   cfg.FuncEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   cfg.FunctionTolerance,
			Relative:   cfg.FunctionTolerance,
			Iterations: functionWindow,
		},
	}
	method := &optimize.LBFGS{Store: cfg.LBFGSStore}

	logger.Info("maximize start",
		slog.Int("params", n),
		slog.Int("max_iterations", cfg.MaxIterations),
	)
	start := time.Now()
	res, runErr := optimize.Minimize(problem, u0, settings, method)
	if err := ev.failure(); err != nil {
		logger.Warn("maximize aborted", slog.Any("err", err))
		return nil, fmt.Errorf("maxlik: evaluate target: %w", err)
	}

	best := make([]float64, n)
	for i, t := range tr {
		best[i] = t.x(u0[i])
	}
	status := optimize.Failure
	var stats optimize.Stats
	if res != nil {
		status, stats = res.Status, res.Stats
	}
	// the best location stays at +Inf until the first major iteration
	if res != nil && !math.IsInf(res.F, 1) {
		for i, t := range tr {
			best[i] = t.x(res.X[i])
		}
	}

	if runErr != nil || status.Early() || status == optimize.FunctionNegativeInfinity {
		msg := ""
		switch {
		case runErr != nil:
			msg = runErr.Error()
		case status.Err() != nil:
			msg = status.Err().Error()
		}
		logger.Warn("maximize stopped",
			slog.String("status", status.String()),
			slog.Int("iterations", stats.MajorIterations),
			slog.String("msg", msg),
		)
		return nil, &Failure{Status: status.String(), Message: msg, Params: best}
	}

	ll, _, err := target.Evaluate(best)
	if err != nil {
		return nil, fmt.Errorf("maxlik: evaluate optimum: %w", err)
	}
	logger.Info("maximize done",
		slog.String("status", status.String()),
		slog.Float64("loglik", ll),
		slog.Int("iterations", stats.MajorIterations),
		slog.Int("evaluations", stats.FuncEvaluations),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Result{
		Params:      best,
		LogLik:      ll,
		Iterations:  stats.MajorIterations,
		Evaluations: stats.FuncEvaluations,
		Status:      status.String(),
	}, nil
}
