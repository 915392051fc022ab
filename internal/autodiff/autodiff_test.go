package autodiff_test

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productPlusSine builds x0*x1 + sin(x0).
func productPlusSine(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
	return x[0].Mul(x[1]).Add(x[0].Sin()), nil
}

// recoverError runs f and returns the error it panicked with, if any.
func recoverError(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	f()
	return nil
}

// TestConstruct_ProductPlusSine tests value and gradient of x*y + sin(x).
func TestConstruct_ProductPlusSine(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	value, err := g.Evaluate([]float64{2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 6+math.Sin(2), value, 1e-12)
	assert.InDelta(t, 6.909297, value, 1e-6)

	grad, err := g.Gradient()
	require.NoError(t, err)
	require.Len(t, grad, 2)
	assert.InDelta(t, 3+math.Cos(2), grad[0], 1e-12)
	assert.InDelta(t, 2.584, grad[0], 1e-3)
	assert.InDelta(t, 2.0, grad[1], 1e-12)
}

// TestConstruct_Cube tests pow(x, 3) at x = 2.
func TestConstruct_Cube(t *testing.T) {
	g, err := autodiff.Construct(1, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Pow(b.Const(3)), nil
	})
	require.NoError(t, err)

	value, err := g.Evaluate([]float64{2})
	require.NoError(t, err)
	assert.Equal(t, 8.0, value)

	grad, err := g.Gradient()
	require.NoError(t, err)
	assert.Equal(t, []float64{12}, grad)
}

// TestGraph_EvaluateIsPure tests that repeated evaluations agree exactly.
func TestGraph_EvaluateIsPure(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	point := []float64{0.3, -1.7}
	first, err := g.EvaluateGradient(point)
	require.NoError(t, err)

	// Move the cache somewhere else before coming back.
	_, err = g.Evaluate([]float64{5, 5})
	require.NoError(t, err)

	second, err := g.EvaluateGradient(point)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestGraph_GradientBeforeEvaluate tests the evaluate-first contract.
func TestGraph_GradientBeforeEvaluate(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	grad, err := g.Gradient()
	require.ErrorIs(t, err, autodiff.ErrNotEvaluated)
	assert.Nil(t, grad)

	// A failed Evaluate does not count.
	_, err = g.Evaluate([]float64{1})
	require.Error(t, err)
	_, err = g.Gradient()
	require.ErrorIs(t, err, autodiff.ErrNotEvaluated)
}

// TestGraph_ArityError tests that a wrong-length point leaves the cache alone.
func TestGraph_ArityError(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	ws := g.NewWorkspace()
	_, err = ws.Evaluate([]float64{2, 3})
	require.NoError(t, err)

	before := make([]float64, g.Len())
	for i := range before {
		before[i] = ws.Value(i)
	}

	for _, point := range [][]float64{nil, {1}, {1, 2, 3}} {
		_, err = ws.Evaluate(point)
		require.ErrorIs(t, err, autodiff.ErrArity)

		var arityErr *autodiff.ArityError
		require.ErrorAs(t, err, &arityErr)
		assert.Equal(t, 2, arityErr.Want)
		assert.Equal(t, len(point), arityErr.Got)
	}

	for i := range before {
		assert.Equal(t, before[i], ws.Value(i), "node %d", i)
	}
	grad, err := ws.Gradient()
	require.NoError(t, err)
	assert.InDelta(t, 3+math.Cos(2), grad[0], 1e-12)
}

// TestConstruct_DiscardedExpressionsPruned tests that work the builder threw
// away does not survive construction.
func TestConstruct_DiscardedExpressionsPruned(t *testing.T) {
	build := func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		unused := x[0].Exp().Mul(x[1]) // recorded before the output
		out := x[0].Add(x[1])
		_ = out.Sin().Add(unused) // recorded after the output
		return out, nil
	}

	reachable, err := autodiff.Construct(2, build)
	require.NoError(t, err)
	assert.Equal(t, 3, reachable.Len(), "variables plus one add")
	assert.Equal(t, 2, reachable.Output())

	truncated, err := autodiff.ConstructWithConfig(2, build, autodiff.Config{Prune: autodiff.PruneTruncate, HoistConstants: true})
	require.NoError(t, err)
	assert.Equal(t, 5, truncated.Len(), "exp and mul survive truncation")
	assert.Equal(t, truncated.Len()-1, truncated.Output())

	for _, g := range []*autodiff.Graph{reachable, truncated} {
		value, err := g.Evaluate([]float64{1, 2})
		require.NoError(t, err)
		assert.Equal(t, 3.0, value)
		grad, err := g.Gradient()
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1}, grad)
	}
}

// TestConstruct_ConstantDeduplication tests that repeated constants share a node.
func TestConstruct_ConstantDeduplication(t *testing.T) {
	var lenAfterFirst int
	g, err := autodiff.Construct(1, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		y := x[0].Add(b.Const(2.0))
		lenAfterFirst = b.Len()
		z := y.AddConst(2.0)
		assert.Equal(t, lenAfterFirst+1, b.Len(), "second 2.0 reuses the root")
		return z, nil
	})
	require.NoError(t, err)

	twos := 0
	for i := g.NumVariables(); i < g.Len(); i++ {
		if n := g.Node(i); n.IsRoot() && n.Value == 2.0 {
			twos++
		}
	}
	assert.Equal(t, 1, twos)
	assert.Equal(t, 1, g.NumConstants())

	value, err := g.Evaluate([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, 5.0, value)
}

// TestConstruct_ConstantsBySignedZero tests that 0 and -0 are distinct leaves.
func TestConstruct_ConstantsBySignedZero(t *testing.T) {
	g, err := autodiff.Construct(1, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Add(b.Const(0)).Add(b.Const(math.Copysign(0, -1))), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Stats().Constants)
}

// TestConstruct_HoistConstants tests the root block layout and that hoisting
// does not change results.
func TestConstruct_HoistConstants(t *testing.T) {
	build := func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		y := x[0].MulConst(3).Add(x[1])
		y = y.Sub(b.Const(1.5)).Mul(y.DivConst(4))
		return y.Max(x[1].PowConst(2)), nil
	}

	hoisted, err := autodiff.Construct(2, build)
	require.NoError(t, err)
	plain, err := autodiff.ConstructWithConfig(2, build, autodiff.Config{Prune: autodiff.PruneReachable})
	require.NoError(t, err)

	require.Equal(t, plain.Len(), hoisted.Len())
	assert.Equal(t, 2+4, hoisted.NumRoots(), "variables then four constants")
	for i := hoisted.NumRoots(); i < hoisted.Len(); i++ {
		assert.False(t, hoisted.Node(i).IsRoot(), "node %d", i)
	}
	assert.Less(t, plain.NumRoots(), hoisted.NumRoots())

	for i := range hoisted.Len() {
		for _, p := range hoisted.Node(i).Parents {
			if p != autodiff.NoIndex {
				assert.Less(t, p, i, "parent of node %d", i)
			}
		}
	}

	for _, point := range [][]float64{{1, 2}, {-0.5, 3}, {4, -1}} {
		want, err := plain.EvaluateGradient(point)
		require.NoError(t, err)
		got, err := hoisted.EvaluateGradient(point)
		require.NoError(t, err)
		assert.Equal(t, want, got, "point %v", point)
	}
}

// TestConstruct_SharedSubexpression tests that a node used twice receives
// both contributions.
func TestConstruct_SharedSubexpression(t *testing.T) {
	g, err := autodiff.Construct(2, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		s := x[0].Add(x[1])
		return s.Mul(s), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Stats().Operations)

	res, err := g.EvaluateGradient([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 9.0, res.Value)
	assert.Equal(t, []float64{6, 6}, res.Gradient)
}

// TestConstruct_NoVariables tests a constant function of no inputs.
func TestConstruct_NoVariables(t *testing.T) {
	g, err := autodiff.Construct(0, func(b *autodiff.Builder, _ []autodiff.Var) (autodiff.Var, error) {
		return b.Const(2).Exp(), nil
	})
	require.NoError(t, err)

	value, err := g.Evaluate(nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(2), value, 1e-12)

	grad, err := g.Gradient()
	require.NoError(t, err)
	assert.Empty(t, grad)
}

// TestConstruct_OutputIsRoot tests identity and constant graphs.
func TestConstruct_OutputIsRoot(t *testing.T) {
	identity, err := autodiff.Construct(3, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		_ = x[0].Mul(x[2])
		return x[1], nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, identity.Len())

	res, err := identity.EvaluateGradient([]float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Value)
	assert.Equal(t, []float64{0, 1, 0}, res.Gradient)

	constant, err := autodiff.Construct(1, func(b *autodiff.Builder, _ []autodiff.Var) (autodiff.Var, error) {
		return b.Const(7), nil
	})
	require.NoError(t, err)
	res, err = constant.EvaluateGradient([]float64{100})
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.Value)
	assert.Equal(t, []float64{0}, res.Gradient)
}

// TestConstruct_BuilderError tests that build errors are wrapped and the
// builder is closed afterwards.
func TestConstruct_BuilderError(t *testing.T) {
	errBoom := errors.New("boom")
	var escaped autodiff.Var
	var builder *autodiff.Builder

	g, err := autodiff.Construct(1, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		builder = b
		escaped = x[0].Sin()
		return autodiff.Var{}, errBoom
	})
	require.Nil(t, g)
	require.ErrorIs(t, err, errBoom)
	var builderErr *autodiff.BuilderError
	require.ErrorAs(t, err, &builderErr)

	assert.False(t, builder.Active())
	err = recoverError(func() { escaped.Cos() })
	assert.ErrorIs(t, err, autodiff.ErrNoActiveContext)
}

// TestVar_OutsideBuilder tests that handles cannot be combined after
// construction and that the zero handle has no context.
func TestVar_OutsideBuilder(t *testing.T) {
	var escaped []autodiff.Var
	var builder *autodiff.Builder
	_, err := autodiff.Construct(2, func(b *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		builder = b
		escaped = x
		return x[0].Add(x[1]), nil
	})
	require.NoError(t, err)

	cases := map[string]func(){
		"add":   func() { escaped[0].Add(escaped[1]) },
		"exp":   func() { escaped[0].Exp() },
		"neg":   func() { escaped[1].Neg() },
		"const": func() { builder.Const(1) },
		"zero":  func() { autodiff.Var{}.Log() },
		"mixed": func() { escaped[0].AddConst(1) },
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			err := recoverError(f)
			require.ErrorIs(t, err, autodiff.ErrNoActiveContext)
		})
	}
}

// TestConstruct_ForeignHandle tests mixing handles of two builders.
func TestConstruct_ForeignHandle(t *testing.T) {
	_, err := autodiff.Construct(1, func(_ *autodiff.Builder, outer []autodiff.Var) (autodiff.Var, error) {
		_, innerErr := autodiff.Construct(1, func(_ *autodiff.Builder, inner []autodiff.Var) (autodiff.Var, error) {
			return inner[0].Mul(outer[0]), nil
		})
		require.ErrorIs(t, innerErr, autodiff.ErrForeignHandle)
		return outer[0], nil
	})
	require.NoError(t, err, "nested construction is independent")

	var leaked autodiff.Var
	_, err = autodiff.Construct(1, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		leaked = x[0]
		return x[0], nil
	})
	require.NoError(t, err)
	_, err = autodiff.Construct(1, func(_ *autodiff.Builder, _ []autodiff.Var) (autodiff.Var, error) {
		return leaked, nil
	})
	require.ErrorIs(t, err, autodiff.ErrForeignHandle)
}

// TestConstruct_InvalidOutput tests the zero handle as output.
func TestConstruct_InvalidOutput(t *testing.T) {
	_, err := autodiff.Construct(1, func(_ *autodiff.Builder, _ []autodiff.Var) (autodiff.Var, error) {
		return autodiff.Var{}, nil
	})
	require.ErrorIs(t, err, autodiff.ErrInvalidOutput)
}

// TestConstruct_NegativeVariables tests argument validation.
func TestConstruct_NegativeVariables(t *testing.T) {
	_, err := autodiff.Construct(-1, productPlusSine)
	require.ErrorIs(t, err, autodiff.ErrInvalidVariableCount)
}

// TestConstruct_OtherPanicsPropagate tests that unrelated panics are not
// swallowed, and that the builder is still closed.
func TestConstruct_OtherPanicsPropagate(t *testing.T) {
	var builder *autodiff.Builder
	assert.PanicsWithValue(t, "unexpected", func() {
		_, _ = autodiff.Construct(1, func(b *autodiff.Builder, _ []autodiff.Var) (autodiff.Var, error) {
			builder = b
			panic("unexpected")
		})
	})
	assert.False(t, builder.Active())
}

// TestGraph_FloatingPointErrorsPropagate tests that domain errors become
// NaN/Inf instead of errors.
func TestGraph_FloatingPointErrorsPropagate(t *testing.T) {
	g, err := autodiff.Construct(2, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Div(x[1]), nil
	})
	require.NoError(t, err)

	res, err := g.EvaluateGradient([]float64{1, 0})
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Value, 1))
	assert.True(t, math.IsInf(res.Gradient[0], 1))
	assert.True(t, math.IsInf(res.Gradient[1], -1))

	logGraph, err := autodiff.Construct(1, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		return x[0].Log(), nil
	})
	require.NoError(t, err)
	value, err := logGraph.Evaluate([]float64{-1})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(value))
}

// TestGraph_ConcurrentWorkspaces tests that workspaces and clones of one
// graph can be used from many goroutines.
func TestGraph_ConcurrentWorkspaces(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	points := make([][]float64, 64)
	want := make([]autodiff.Result, len(points))
	for i := range points {
		points[i] = []float64{float64(i) * 0.1, 1 - float64(i)*0.05}
		want[i], err = g.EvaluateGradient(points[i])
		require.NoError(t, err)
	}

	got := make([]autodiff.Result, len(points))
	var wg sync.WaitGroup
	for i := range points {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var res autodiff.Result
			var err error
			if i%2 == 0 {
				res, err = g.NewWorkspace().EvaluateGradient(points[i])
			} else {
				res, err = g.Clone().EvaluateGradient(points[i])
			}
			if err == nil {
				got[i] = res
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, want, got)
}

// TestWorkspace_GradientInto tests writing into a caller buffer.
func TestWorkspace_GradientInto(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)
	ws := g.NewWorkspace()
	assert.Same(t, g, ws.Graph())
	assert.False(t, ws.Evaluated())

	_, err = ws.Evaluate([]float64{2, 3})
	require.NoError(t, err)
	assert.True(t, ws.Evaluated())

	dst := make([]float64, 2)
	require.NoError(t, ws.GradientInto(dst))
	assert.Equal(t, 2.0, dst[1])

	require.ErrorIs(t, ws.GradientInto(make([]float64, 3)), autodiff.ErrArity)
}

// TestGraph_WriteTo tests the tape listing.
func TestGraph_WriteTo(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "%0 = var x0\n%1 = var x1\n%2 = mul %0 %1\n%3 = sin %0\n%4 = add %2 %3  <- output\n", buf.String())

	stats := g.Stats()
	assert.Equal(t, autodiff.Stats{Nodes: 5, Variables: 2, Constants: 0, Operations: 3, Edges: 5}, stats)
}

// TestFromNodes tests that a graph rebuilt from its own nodes behaves the same.
func TestFromNodes(t *testing.T) {
	g, err := autodiff.Construct(2, productPlusSine)
	require.NoError(t, err)

	nodes := make([]autodiff.Node, g.Len())
	for i := range nodes {
		nodes[i] = g.Node(i)
	}
	h, err := autodiff.FromNodes(nodes, g.NumVariables(), g.Output())
	require.NoError(t, err)
	assert.Equal(t, g.Stats(), h.Stats())
	assert.Equal(t, g.NumRoots(), h.NumRoots())

	want, err := g.EvaluateGradient([]float64{2, 3})
	require.NoError(t, err)
	got, err := h.EvaluateGradient([]float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFromNodes_Invalid(t *testing.T) {
	root := autodiff.Node{Op: ops.Root, Parents: [2]int{autodiff.NoIndex, autodiff.NoIndex}}
	tests := []struct {
		name    string
		nodes   []autodiff.Node
		numVars int
		output  int
	}{
		{"empty", nil, 0, 0},
		{"too many variables", []autodiff.Node{root}, 2, 0},
		{"output out of range", []autodiff.Node{root}, 1, 1},
		{"forward reference", []autodiff.Node{root, {Op: ops.Add, Parents: [2]int{0, 1}}}, 1, 1},
		{"missing parent", []autodiff.Node{root, {Op: ops.Mul, Parents: [2]int{0, autodiff.NoIndex}}}, 1, 1},
		{"extra parent", []autodiff.Node{root, {Op: ops.Exp, Parents: [2]int{0, 0}}}, 1, 1},
		{"unknown op", []autodiff.Node{root, {Op: ops.Kind(200), Parents: [2]int{0, autodiff.NoIndex}}}, 1, 1},
		{"operation in variable slot", []autodiff.Node{root, {Op: ops.Exp, Parents: [2]int{0, autodiff.NoIndex}}}, 2, 1},
		{"root with parent", []autodiff.Node{root, {Op: ops.Root, Parents: [2]int{0, autodiff.NoIndex}}}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := autodiff.FromNodes(tt.nodes, tt.numVars, tt.output)
			assert.ErrorIs(t, err, autodiff.ErrInvalidGraph)
		})
	}
}

// TestTape_Record tests the bounds checks done when nodes are appended.
func TestTape_Record(t *testing.T) {
	tape := autodiff.NewTape(2)
	assert.Equal(t, 2, tape.NumVariables())

	idx := tape.Record(ops.Add, 0, 1)
	assert.Equal(t, 2, idx)
	assert.Equal(t, [2]int{0, 1}, tape.Node(idx).Parents)

	c := tape.Constant(1.5)
	assert.Equal(t, c, tape.Constant(1.5))
	assert.True(t, tape.IsConstant(c))
	assert.False(t, tape.IsConstant(0))
	assert.Equal(t, "root 1.5", tape.Node(c).String())

	assert.Panics(t, func() { tape.Record(ops.Mul, 0, 10) }, "parent after node")
	assert.Panics(t, func() { tape.Record(ops.Exp, -1, autodiff.NoIndex) }, "negative parent")
	assert.Panics(t, func() { tape.Record(ops.Exp, 0, 1) }, "unary with two parents")
	assert.Panics(t, func() { tape.Record(ops.Root, 0, 1) }, "roots are not recorded")
	assert.Equal(t, 4, tape.Len())
}

func TestPruneMode_Parse(t *testing.T) {
	for _, m := range []autodiff.PruneMode{autodiff.PruneReachable, autodiff.PruneTruncate} {
		parsed, err := autodiff.ParsePruneMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := autodiff.ParsePruneMode("sweep")
	require.Error(t, err)
}

func BenchmarkEvaluateGradient(b *testing.B) {
	const n = 16
	g, err := autodiff.Construct(n, func(_ *autodiff.Builder, x []autodiff.Var) (autodiff.Var, error) {
		// Rosenbrock: sum 100*(x[i+1]-x[i]^2)^2 + (1-x[i])^2
		var sum autodiff.Var
		for i := 0; i < n-1; i++ {
			a := x[i+1].Sub(x[i].Mul(x[i]))
			c := x[i].Neg().AddConst(1)
			term := a.Mul(a).MulConst(100).Add(c.Mul(c))
			if i == 0 {
				sum = term
			} else {
				sum = sum.Add(term)
			}
		}
		return sum, nil
	})
	if err != nil {
		b.Fatal(err)
	}
	point := make([]float64, n)
	grad := make([]float64, n)
	ws := g.NewWorkspace()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ws.Evaluate(point); err != nil {
			b.Fatal(err)
		}
		if err := ws.GradientInto(grad); err != nil {
			b.Fatal(err)
		}
	}
}
