package manifold

import (
	"fmt"
	"math"

	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

// Tolerance is the accepted drift from the hyperboloid constraint
// <p,p> = -1 before a point must be re-normalized.
const Tolerance = 1e-4

// Inner products of valid upper-sheet points are always <= -1. Any
// product above -(1+Tolerance) is within numeric noise of a
// coincident pair and clamps to exactly -1, so acosh stays in its
// domain and self-distance is exactly zero.
const minInner = -1e10

// Manifold maps Euclidean embedding vectors onto a hyperbolic space
// and measures geodesic distance on it.
type Manifold interface {
	Project(v []float64) ([]float64, error)
	Normalize(p []float64) []float64
	OnManifold(p []float64) bool
	Distance(p, q []float64) float64
	Dim() int
}

// Lorentz is the hyperboloid model: points live on the upper sheet of
// -x0^2 + sum(x_i^2) = -1 in (dim+1)-dimensional Minkowski space.
type Lorentz struct {
	dim int
}

func NewLorentz(dim int) (*Lorentz, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be > 0, got %d", apperrors.ErrConfig, dim)
	}
	return &Lorentz{dim: dim}, nil
}

func (l *Lorentz) Dim() int {
	return l.dim
}

// Origin returns the manifold origin (1, 0, ..., 0).
func (l *Lorentz) Origin() []float64 {
	p := make([]float64, l.dim+1)
	p[0] = 1
	return p
}

// Project applies the exponential map at the origin to the tangent
// vector (0, v) and re-normalizes the result:
//
//	expmap_o((0, v)) = cosh(||v||) * o + sinh(||v||)/||v|| * (0, v)
func (l *Lorentz) Project(v []float64) ([]float64, error) {
	if len(v) != l.dim {
		return nil, fmt.Errorf("%w: expected %d components, got %d", apperrors.ErrProjection, l.dim, len(v))
	}
	var sq float64
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: non-finite component at index %d", apperrors.ErrProjection, i)
		}
		sq += x * x
	}
	norm := math.Sqrt(sq)
	if norm == 0 {
		return l.Origin(), nil
	}

	p := make([]float64, l.dim+1)
	p[0] = math.Cosh(norm)
	scale := math.Sinh(norm) / norm
	for i, x := range v {
		p[i+1] = scale * x
	}
	if math.IsInf(p[0], 0) {
		return nil, fmt.Errorf("%w: vector norm %g overflows the exponential map", apperrors.ErrProjection, norm)
	}
	return l.Normalize(p), nil
}

// Normalize recomputes the time coordinate from the spatial part,
// x0 = sqrt(1 + ||x_{1:}||^2), cancelling accumulated drift.
func (l *Lorentz) Normalize(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	var sq float64
	for _, x := range p[1:] {
		sq += x * x
	}
	out[0] = math.Sqrt(1 + sq)
	return out
}

// OnManifold reports whether p satisfies the hyperboloid constraint
// within Tolerance and lies on the upper sheet.
func (l *Lorentz) OnManifold(p []float64) bool {
	if len(p) != l.dim+1 || p[0] <= 0 {
		return false
	}
	return math.Abs(l.Inner(p, p)+1) <= Tolerance
}

// Inner is the Lorentz (Minkowski) inner product
// -p0*q0 + sum(p_i*q_i).
func (l *Lorentz) Inner(p, q []float64) float64 {
	inner := -p[0] * q[0]
	for i := 1; i < len(p); i++ {
		inner += p[i] * q[i]
	}
	return inner
}

// Distance is the geodesic distance acosh(-<p,q>). Inner products
// within Tolerance of -1 collapse to zero distance; the far end is
// clamped at minInner.
func (l *Lorentz) Distance(p, q []float64) float64 {
	inner := l.Inner(p, q)
	if inner > -(1 + Tolerance) {
		return 0
	}
	if inner < minInner {
		inner = minInner
	}
	return math.Acosh(-inner)
}
