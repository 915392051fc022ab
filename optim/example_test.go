package optim_test

import (
	"context"
	"fmt"

	"github.com/born-ml/gradtape/autodiff"
	"github.com/born-ml/gradtape/optim"
)

func ExampleMinimize() {
	// (x-3)^2 + (y+1)^2
	g, _ := autodiff.Construct(2, func(_ *autodiff.Builder, v []autodiff.Var) (autodiff.Var, error) {
		dx := v[0].SubConst(3)
		dy := v[1].AddConst(1)
		return dx.Mul(dx).Add(dy.Mul(dy)), nil
	})

	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	res, err := optim.Minimize(context.Background(), g, []float64{0, 0}, opt,
		optim.MinimizeConfig{Tolerance: 1e-9})
	if err != nil {
		panic(err)
	}
	fmt.Printf("x=%.4f y=%.4f converged=%t\n", res.X[0], res.X[1], res.Converged)
	// Output: x=3.0000 y=-1.0000 converged=true
}
