package manifold

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

func testLorentz(t *testing.T, dim int) *Lorentz {
	t.Helper()
	l, err := NewLorentz(dim)
	require.NoError(t, err)
	return l
}

func randomPoint(t *testing.T, l *Lorentz, rng *rand.Rand) []float64 {
	t.Helper()
	v := make([]float64, l.Dim())
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	p, err := l.Project(v)
	require.NoError(t, err)
	return p
}

func TestNewLorentzValidation(t *testing.T) {
	_, err := NewLorentz(0)
	require.ErrorIs(t, err, apperrors.ErrConfig)
	_, err = NewLorentz(-3)
	require.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestProjectZeroVectorIsOrigin(t *testing.T) {
	l := testLorentz(t, 4)
	p, err := l.Project(make([]float64, 4))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0, 0, 0, 0}, p)
}

func TestProjectSatisfiesConstraint(t *testing.T) {
	l := testLorentz(t, 16)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		p := randomPoint(t, l, rng)
		require.Len(t, p, 17)
		require.Greater(t, p[0], 0.0)
		require.InDelta(t, -1, l.Inner(p, p), Tolerance)
		require.True(t, l.OnManifold(p))

		q := l.Normalize(p)
		require.InDelta(t, -1, l.Inner(q, q), Tolerance)
	}
}

func TestProjectKnownValues(t *testing.T) {
	l := testLorentz(t, 2)
	p, err := l.Project([]float64{3, 4})
	require.NoError(t, err)
	require.InDelta(t, math.Cosh(5), p[0], 1e-9)
	require.InDelta(t, math.Sinh(5)/5*3, p[1], 1e-9)
	require.InDelta(t, math.Sinh(5)/5*4, p[2], 1e-9)
}

func TestProjectRejectsNonFinite(t *testing.T) {
	l := testLorentz(t, 3)
	for _, v := range [][]float64{
		{math.NaN(), 0, 0},
		{0, math.Inf(1), 0},
		{0, 0, math.Inf(-1)},
	} {
		_, err := l.Project(v)
		require.ErrorIs(t, err, apperrors.ErrProjection)
	}
}

func TestProjectRejectsWrongDimension(t *testing.T) {
	l := testLorentz(t, 3)
	_, err := l.Project([]float64{1, 2})
	require.ErrorIs(t, err, apperrors.ErrProjection)
}

func TestDistanceSelfIsZero(t *testing.T) {
	l := testLorentz(t, 8)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		p := randomPoint(t, l, rng)
		require.Equal(t, 0.0, l.Distance(p, p))
	}
	o := l.Origin()
	require.Equal(t, 0.0, l.Distance(o, o))
}

func TestDistanceSymmetry(t *testing.T) {
	l := testLorentz(t, 8)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		p := randomPoint(t, l, rng)
		q := randomPoint(t, l, rng)
		require.InDelta(t, l.Distance(p, q), l.Distance(q, p), 1e-9)
	}
}

func TestDistanceTriangleInequality(t *testing.T) {
	l := testLorentz(t, 8)
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		a := randomPoint(t, l, rng)
		b := randomPoint(t, l, rng)
		c := randomPoint(t, l, rng)
		require.LessOrEqual(t, l.Distance(a, c), l.Distance(a, b)+l.Distance(b, c)+1e-9)
	}
}

func TestDistanceOriginMatchesNorm(t *testing.T) {
	// expmap at the origin is a radial geodesic, so the distance from
	// the origin back to the projected point equals ||v||.
	l := testLorentz(t, 4)
	v := []float64{0.3, -0.1, 0.4, 0.2}
	p, err := l.Project(v)
	require.NoError(t, err)
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	require.InDelta(t, math.Sqrt(sq), l.Distance(l.Origin(), p), 1e-6)
}

func TestDistanceClampsOvershoot(t *testing.T) {
	l := testLorentz(t, 2)
	// Slightly off-manifold pair whose inner product lands above -1.
	p := []float64{1, 1e-8, 0}
	q := []float64{1, 0, 1e-8}
	d := l.Distance(p, q)
	require.False(t, math.IsNaN(d))
	require.Equal(t, 0.0, d)
}

func TestNormalizeRepairsDrift(t *testing.T) {
	l := testLorentz(t, 4)
	rng := rand.New(rand.NewSource(5))
	p := randomPoint(t, l, rng)
	p[0] += 0.5
	require.False(t, l.OnManifold(p))
	fixed := l.Normalize(p)
	require.True(t, l.OnManifold(fixed))
	require.Equal(t, p[1:], fixed[1:])
}
