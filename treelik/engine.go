// SPDX-License-Identifier: MIT

package treelik

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/model"
	"github.com/katalvlaran/codonlik/tree"
)

// ErrNoResult is returned by accessors after a failed recomputation.
var ErrNoResult = errors.New("treelik: last recomputation failed")

// Engine evaluates the log-likelihood of an alignment on a fixed tree and
// its gradient with respect to every free model parameter.
//
// An Engine is not safe for concurrent use. The model it wraps is owned by
// the engine: change parameters only through Update or UpdateParams.
type Engine struct {
	it *IndexedTree
	s  strategy
	o  options
	pm *paramMap

	x     []float64 // vector the model currently holds
	valid bool      // last recomputation succeeded

	tipL   []*mat.Dense // nsites × N, one-hot or all-ones for gaps
	last   *pass
	res    Result
	recomp int
}

// New builds an engine for a model without categories and computes the
// likelihood at the model's current parameters.
func New(root *tree.Node, aln []Sequence, m model.Model, opts ...Option) (*Engine, error) {
	return newEngine("New", root, aln, noMixture{m: m}, opts)
}

// NewMixture builds an engine for a category mixture.
func NewMixture(root *tree.Node, aln []Sequence, m model.MixtureModel, opts ...Option) (*Engine, error) {
	s, err := newDiscreteMixture(m)
	if err != nil {
		return nil, err
	}
	return newEngine("NewMixture", root, aln, s, opts)
}

func newEngine(op string, root *tree.Node, aln []Sequence, s strategy, opts []Option) (*Engine, error) {
	o := gatherOptions(opts)

	scale := 1.0
	if bs, ok := s.params().(model.BranchScaler); ok {
		scale = bs.BranchScale()
	}
	it, err := Index(root, aln, scale)
	if err != nil {
		return nil, err
	}
	if n := s.params().NSites(); n != it.NSites() {
		return nil, structural(op, ErrSequenceLength, "model has %d sites, alignment %d", n, it.NSites())
	}

	pm, x, err := newParamMap(s.params(), o.boundsInset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e := &Engine{it: it, s: s, o: o, pm: pm, x: x}
	e.tipL = make([]*mat.Dense, it.NTips())
	for n := range e.tipL {
		e.tipL[n] = tipPartial(it, n)
	}
	if err = e.recompute(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o.logger.Info("engine ready",
		slog.Int("tips", it.NTips()),
		slog.Int("sites", it.NSites()),
		slog.Int("cats", s.ncats()),
		slog.Any("params", pm.names),
	)
	return e, nil
}

// tipPartial encodes tip n as an nsites × N matrix.
func tipPartial(it *IndexedTree, n int) *mat.Dense {
	out := mat.NewDense(it.NSites(), model.N, nil)
	for r := 0; r < it.NSites(); r++ {
		c := it.Codon(n, r)
		if c >= 0 {
			out.Set(r, c, 1)
			continue
		}
		row := out.RawRowView(r)
		for x := range row {
			row[x] = 1
		}
	}
	return out
}

// recompute runs the likelihood pass, then every derivative task through the
// scheduler. Nothing is published unless both succeed.
func (e *Engine) recompute() error {
	start := time.Now()
	e.valid = false

	p, err := e.likelihoodPass()
	if err != nil {
		return e.fail("likelihood", err)
	}
	res, err := e.derivativePass(p)
	if err != nil {
		return e.fail("derivative", err)
	}

	e.last, e.res, e.valid = p, res, true
	e.recomp++
	d := time.Since(start)
	e.o.metrics.recomputed(d, p.nrescaled)
	e.o.logger.Debug("recomputed",
		slog.Float64("loglik", res.LogLik),
		slog.Duration("duration", d),
		slog.Int("rescaled", p.nrescaled),
	)
	return nil
}

func (e *Engine) fail(pass string, err error) error {
	if errors.Is(err, ErrNumeric) {
		e.o.metrics.failed(pass)
		e.o.logger.Warn("recomputation failed", slog.String("pass", pass), slog.Any("err", err))
	}
	return err
}

// Result returns an owned copy of the last successful evaluation.
func (e *Engine) Result() (Result, error) {
	if !e.valid {
		return Result{}, ErrNoResult
	}
	return e.res.clone(), nil
}

// RootPartial returns a copy of the rescaled root partial likelihoods of
// category k (nsites × N).
func (e *Engine) RootPartial(k int) (*mat.Dense, error) {
	if !e.valid {
		return nil, ErrNoResult
	}
	if k < 0 || k >= e.s.ncats() {
		return nil, fmt.Errorf("RootPartial: category %d of %d: %w", k, e.s.ncats(), model.ErrBadCategories)
	}
	return mat.DenseCopyOf(e.partial(e.last, k, e.it.Root())), nil
}

// LogScale returns a copy of the per-site underflow log-scale.
func (e *Engine) LogScale() ([]float64, error) {
	if !e.valid {
		return nil, ErrNoResult
	}
	return slices.Clone(e.last.logScale), nil
}

// Recomputations counts successful recomputations since construction.
func (e *Engine) Recomputations() int { return e.recomp }

// NCats returns the number of categories (1 without a mixture).
func (e *Engine) NCats() int { return e.s.ncats() }

// Tree returns a copy of the working tree with branch lengths in model time.
func (e *Engine) Tree() *tree.Node { return e.it.Tree() }
