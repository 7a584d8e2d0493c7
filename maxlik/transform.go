// SPDX-License-Identifier: MIT

package maxlik

import "math"

// maxExp keeps e^u finite on the half-open maps.
const maxExp = 700

// interior is the closest any point may sit to a finite bound, as a fraction
// of the interval for two-sided bounds or an absolute offset for one-sided.
const interior = 1e-12

type kind int

const (
	identity kind = iota
	logistic
	lower
	upper
)

// transform maps one unconstrained coordinate u onto the bounded x.
type transform struct {
	kind   kind
	lo, hi float64
}

func newTransform(b [2]float64) transform {
	loInf, hiInf := math.IsInf(b[0], -1), math.IsInf(b[1], 1)
	switch {
	case loInf && hiInf:
		return transform{kind: identity, lo: b[0], hi: b[1]}
	case hiInf:
		return transform{kind: lower, lo: b[0], hi: b[1]}
	case loInf:
		return transform{kind: upper, lo: b[0], hi: b[1]}
	default:
		return transform{kind: logistic, lo: b[0], hi: b[1]}
	}
}

func (t transform) x(u float64) float64 {
	switch t.kind {
	case logistic:
		return t.lo + (t.hi-t.lo)*share(u)
	case lower:
		return t.lo + offset(u)
	case upper:
		return t.hi - offset(u)
	}
	return u
}

// dx returns dx/du at u, flat where x is held off a bound.
func (t transform) dx(u float64) float64 {
	switch t.kind {
	case logistic:
		s := share(u)
		return (t.hi - t.lo) * s * (1 - s)
	case lower:
		return offset(u)
	case upper:
		return -offset(u)
	}
	return 1
}

// u inverts x, pulling points on or past a bound just inside it.
func (t transform) u(x float64) float64 {
	switch t.kind {
	case logistic:
		s := (x - t.lo) / (t.hi - t.lo)
		s = math.Min(math.Max(s, interior), 1-interior)
		return math.Log(s) - math.Log1p(-s)
	case lower:
		return math.Log(math.Max(x-t.lo, interior))
	case upper:
		return math.Log(math.Max(t.hi-x, interior))
	}
	return x
}

func sigmoid(u float64) float64 {
	if u >= 0 {
		return 1 / (1 + math.Exp(-u))
	}
	e := math.Exp(u)
	return e / (1 + e)
}

// share is sigmoid(u) kept within [interior, 1-interior], so a saturated u
// never rounds onto a bound.
func share(u float64) float64 {
	return math.Min(math.Max(sigmoid(u), interior), 1-interior)
}

// offset is e^u kept within [interior, e^maxExp].
func offset(u float64) float64 {
	return math.Max(math.Exp(math.Min(u, maxExp)), interior)
}
