// SPDX-License-Identifier: MIT

package treelik

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/katalvlaran/codonlik/model"
)

// slot is one entry of the flat parameter vector.
type slot struct {
	param string
	comp  int
}

// paramMap is the immutable mapping between named free parameters and the
// flat vector: scalars take one slot, vectors one slot per component, in
// FreeParams order.
type paramMap struct {
	names  []string
	vector []bool
	first  []int // first slot of each parameter
	width  []int
	pos    map[string]int // parameter -> position in names
	slots  []slot
	bounds [][2]float64
}

func newParamMap(p model.Parameterized, inset float64) (*paramMap, []float64, error) {
	names := p.FreeParams()
	pm := &paramMap{
		names:  slices.Clone(names),
		vector: make([]bool, len(names)),
		first:  make([]int, len(names)),
		width:  make([]int, len(names)),
		pos:    make(map[string]int, len(names)),
	}
	var x []float64
	for i, name := range names {
		if _, dup := pm.pos[name]; dup {
			return nil, nil, fmt.Errorf("parameter %q listed twice: %w", name, ErrUnsupportedParam)
		}
		v, err := p.ParamValue(name)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		lo, hi, err := p.ParamLimits(name)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		if !math.IsInf(lo, 0) {
			lo += inset
		}
		if !math.IsInf(hi, 0) {
			hi -= inset
		}
		if !(lo < hi) {
			return nil, nil, fmt.Errorf("parameter %q: empty bounds [%v, %v] after inset: %w", name, lo, hi, ErrUnsupportedParam)
		}

		pm.pos[name] = i
		pm.vector[i] = v.Vector
		pm.first[i] = len(pm.slots)
		pm.width[i] = v.Len()
		for j, xj := range v.X {
			pm.slots = append(pm.slots, slot{param: name, comp: j})
			pm.bounds = append(pm.bounds, [2]float64{lo, hi})
			x = append(x, xj)
		}
	}
	return pm, x, nil
}

// slotName is "kappa" for scalars and "eta[1]" for vector components.
func (pm *paramMap) slotName(i int) string {
	s := pm.slots[i]
	if !pm.vector[pm.pos[s.param]] {
		return s.param
	}
	return s.param + "[" + strconv.Itoa(s.comp) + "]"
}

// value reassembles parameter i from a flat vector.
func (pm *paramMap) value(i int, x []float64) model.Value {
	xs := x[pm.first[i] : pm.first[i]+pm.width[i]]
	if pm.vector[i] {
		return model.Vector(xs...)
	}
	return model.Scalar(xs[0])
}

// Params returns a fresh copy of the current parameter vector.
func (e *Engine) Params() []float64 {
	return slices.Clone(e.x)
}

// Bounds returns one [lo, hi] pair per slot, inset from the model limits.
func (e *Engine) Bounds() [][2]float64 {
	return slices.Clone(e.pm.bounds)
}

// SlotNames labels every slot of the parameter vector.
func (e *Engine) SlotNames() []string {
	out := make([]string, len(e.pm.slots))
	for i := range out {
		out[i] = e.pm.slotName(i)
	}
	return out
}

// ParamNames returns the free parameter names in vector order.
func (e *Engine) ParamNames() []string {
	return slices.Clone(e.pm.names)
}

// Update sets the parameter vector and recomputes the likelihood and
// gradient. Only parameters whose slots changed are forwarded to the model.
// An unchanged vector after a successful recomputation is a no-op.
func (e *Engine) Update(x []float64) error {
	if len(x) != len(e.pm.slots) {
		return fmt.Errorf("Update: got %d values for %d slots: %w", len(x), len(e.pm.slots), ErrVectorLength)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("Update: slot %s=%v: %w", e.pm.slotName(i), v, ErrNonFiniteParam)
		}
	}

	changed := make(map[string]model.Value)
	for i, name := range e.pm.names {
		lo, hi := e.pm.first[i], e.pm.first[i]+e.pm.width[i]
		if !slices.Equal(x[lo:hi], e.x[lo:hi]) {
			changed[name] = e.pm.value(i, x)
		}
	}
	if len(changed) == 0 && e.valid {
		e.o.metrics.skipped()
		return nil
	}

	if len(changed) > 0 {
		if err := e.s.params().UpdateParams(changed); err != nil {
			if errors.Is(err, model.ErrUnknownParam) {
				return fmt.Errorf("Update: %w: %w", ErrUnsupportedParam, err)
			}
			return fmt.Errorf("Update: %w", err)
		}
		e.x = slices.Clone(x)
	}

	return e.recompute()
}

// UpdateParams applies named values and recomputes. Unknown names and wrong
// lengths are rejected before anything is applied.
func (e *Engine) UpdateParams(values map[string]model.Value) error {
	x := slices.Clone(e.x)
	for name, v := range values {
		i, ok := e.pm.pos[name]
		if !ok {
			return fmt.Errorf("UpdateParams(%q): %w", name, ErrUnsupportedParam)
		}
		if v.Len() != e.pm.width[i] || v.Vector != e.pm.vector[i] {
			return fmt.Errorf("UpdateParams(%q): got %d values, want %d: %w", name, v.Len(), e.pm.width[i], ErrParamLength)
		}
		copy(x[e.pm.first[i]:], v.X)
	}
	return e.Update(x)
}

// Evaluate updates to x and returns the log-likelihood and its gradient in
// slot order.
func (e *Engine) Evaluate(x []float64) (float64, []float64, error) {
	if err := e.Update(x); err != nil {
		return 0, nil, err
	}
	return e.res.LogLik, slices.Clone(e.res.Gradient), nil
}
