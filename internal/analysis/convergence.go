// Package analysis offers solver diagnostics built on top of the
// integrator, such as empirical convergence-order estimation.
package analysis

import (
	"context"
	"math"

	"github.com/odelab/odeflow/internal/ode"
	"github.com/odelab/odeflow/internal/tensor"
)

// ConvergencePoint is one (dt, global error) sample of a refinement study.
type ConvergencePoint struct {
	Dt    float64
	Error float64
}

// ConvergenceStudy holds the samples and the fitted order.
type ConvergenceStudy struct {
	Points []ConvergencePoint
	Order  float64
}

// EstimateOrder runs fixed-step integrations of field over [t0, t1] at each
// dt, measures the max-norm error against the exact endpoint and fits the
// slope of log(error) against log(dt) by least squares. For a method of
// order p the fitted slope approaches p as dt shrinks.
func EstimateOrder(ctx context.Context, tb *ode.Tableau, field ode.Field, y0 *tensor.Tensor, t0, t1 float64, dts []float64, exact *tensor.Tensor) (*ConvergenceStudy, error) {
	integ := ode.New(tb, ode.DefaultStepControl())

	study := &ConvergenceStudy{Points: make([]ConvergencePoint, 0, len(dts))}
	for _, dt := range dts {
		cfg := ode.Config{T0: t0, T1: t1, Dt: dt, MaxSteps: int(math.Ceil((t1-t0)/dt)) + 2}
		res, err := integ.Integrate(ctx, field, y0, cfg)
		if err != nil {
			return nil, err
		}

		errMax := 0.0
		got := res.Y.Data()
		want := exact.Data()
		for i := range got {
			if d := math.Abs(got[i] - want[i]); d > errMax {
				errMax = d
			}
		}
		study.Points = append(study.Points, ConvergencePoint{Dt: dt, Error: errMax})
	}

	study.Order = fitSlope(study.Points)
	return study, nil
}

// fitSlope least-squares fits log(error) = p*log(dt) + c and returns p.
// Samples at floating-point error floor (zero error) are skipped.
func fitSlope(points []ConvergencePoint) float64 {
	var xs, ys []float64
	for _, pt := range points {
		if pt.Error <= 0 {
			continue
		}
		xs = append(xs, math.Log(pt.Dt))
		ys = append(ys, math.Log(pt.Error))
	}
	if len(xs) < 2 {
		return 0
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	return (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
}
