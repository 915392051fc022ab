package gradcheck_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/gradcheck"
	"github.com/born-ml/gradtape/internal/parallel"
)

func TestCheck_Smooth(t *testing.T) {
	g, err := autodiff.Construct(3, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Mul(x[1]).Exp().Add(x[2].Cos().Mul(x[0])).Div(x[1].PowConst(2).AddConst(1)), nil
	})
	require.NoError(t, err)

	cfg := gradcheck.DefaultConfig()
	cfg.Parallel = parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	for _, p := range [][]float64{{0.1, 0.2, 0.3}, {1, -1, 2}, {-0.5, 1.5, 100}} {
		report, err := gradcheck.Check(g, p, cfg)
		require.NoError(t, err)
		assert.True(t, report.OK, report.String())
		assert.Len(t, report.Numerical, 3)
		assert.Contains(t, report.String(), "ok value=")
	}
}

// TestCheck_DetectsKink tests that a check across a non-differentiable point
// is reported as a mismatch.
func TestCheck_DetectsKink(t *testing.T) {
	g, err := autodiff.Construct(1, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Abs(), nil
	})
	require.NoError(t, err)

	report, err := gradcheck.Check(g, []float64{0}, gradcheck.Config{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Tape[0], "subgradient at the kink")
	assert.Equal(t, 0.0, report.Numerical[0])
	assert.True(t, report.OK)

	g, err = autodiff.Construct(1, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Max(x[0].MulConst(-1)).Add(x[0]), nil
	})
	require.NoError(t, err)
	report, err = gradcheck.Check(g, []float64{0}, gradcheck.Config{})
	require.NoError(t, err)
	assert.False(t, report.OK, report.String())
	assert.Contains(t, report.String(), "MISMATCH")
	assert.Equal(t, 0, report.Worst)
}

func TestNumerical_Arity(t *testing.T) {
	g, err := autodiff.Construct(2, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Add(x[1]), nil
	})
	require.NoError(t, err)

	_, err = gradcheck.Numerical(g, []float64{1}, gradcheck.DefaultConfig())
	require.ErrorIs(t, err, autodiff.ErrArity)
	_, err = gradcheck.Check(g, []float64{1, 2, 3}, gradcheck.DefaultConfig())
	require.ErrorIs(t, err, autodiff.ErrArity)
}

func TestCheck_NoVariables(t *testing.T) {
	g, err := autodiff.Construct(0, func(b *autodiff.Builder, _ []autodiff.Var) (autodiff.Var, error) {
		return b.Const(math.Pi).Sin(), nil
	})
	require.NoError(t, err)

	report, err := gradcheck.Check(g, nil, gradcheck.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, -1, report.Worst)
	assert.Contains(t, report.String(), "no variables")
}

func TestRelativeError(t *testing.T) {
	assert.Equal(t, 0.0, gradcheck.RelativeError(5, 5))
	assert.InDelta(t, 0.1, gradcheck.RelativeError(0.1, 0), 1e-15, "absolute below 1")
	assert.InDelta(t, 0.01, gradcheck.RelativeError(100, 99), 1e-15)
	assert.True(t, math.IsNaN(gradcheck.RelativeError(math.NaN(), 1)))
}
