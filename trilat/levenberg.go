package trilat

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMaxIterations = 1000
	DefaultTolerance     = 1e-10

	initialLambda = 1e-3
	maxLambda     = 1e16
)

// NonLinear fits the circle residuals ‖p − sᵢ‖ − dᵢ with Levenberg-Marquardt,
// starting from the centroid of the scanner positions.
type NonLinear struct {
	MaxIterations int
	Tolerance     float64
}

func NewNonLinear() NonLinear {
	return NonLinear{MaxIterations: DefaultMaxIterations, Tolerance: DefaultTolerance}
}

func (NonLinear) Name() string { return "NonLinear" }

func (s NonLinear) Solve(positions [][]float64, distances []float64) (Solution, error) {
	if err := checkInput(positions, distances); err != nil {
		return Solution{}, err
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	n := len(positions)
	x, y := centroid(positions)
	r := make([]float64, n)
	trial := make([]float64, n)
	cost := residuals(positions, distances, x, y, r)
	lambda := initialLambda

	jac := mat.NewDense(n, 2, nil)
	var jtj mat.Dense
	var grad, step mat.VecDense
	rv := mat.NewVecDense(n, r)

	for iter := 1; iter <= maxIter; iter++ {
		if cost == 0 {
			return s.solution(positions, distances, x, y, iter-1), nil
		}
		for i, p := range positions {
			dx, dy := x-p[0], y-p[1]
			d := math.Hypot(dx, dy)
			if d == 0 {
				// The gradient of the distance is undefined at the scanner itself.
				jac.Set(i, 0, 0)
				jac.Set(i, 1, 0)
				continue
			}
			jac.Set(i, 0, dx/d)
			jac.Set(i, 1, dy/d)
		}
		jtj.Mul(jac.T(), jac)
		grad.MulVec(jac.T(), rv)
		if grad.AtVec(0) == 0 && grad.AtVec(1) == 0 {
			return s.solution(positions, distances, x, y, iter), nil
		}

		for {
			damped := mat.NewDense(2, 2, []float64{
				jtj.At(0, 0) * (1 + lambda), jtj.At(0, 1),
				jtj.At(1, 0), jtj.At(1, 1) * (1 + lambda),
			})
			if err := step.SolveVec(damped, &grad); err != nil {
				lambda *= 10
				if lambda > maxLambda {
					return Solution{}, errors.Wrap(ErrDegenerateGeometry, "damped normal equations are singular")
				}
				continue
			}
			nx, ny := x-step.AtVec(0), y-step.AtVec(1)
			newCost := residuals(positions, distances, nx, ny, trial)
			if newCost < cost {
				stepSize := math.Hypot(step.AtVec(0), step.AtVec(1))
				relChange := (cost - newCost) / cost
				x, y, cost = nx, ny, newCost
				copy(r, trial)
				lambda /= 10
				if relChange < tol || stepSize < tol*(1+math.Hypot(x, y)) {
					return s.solution(positions, distances, x, y, iter), nil
				}
				break
			}
			lambda *= 10
			if lambda > maxLambda {
				// No descent direction left: local minimum.
				return s.solution(positions, distances, x, y, iter), nil
			}
		}
	}
	return Solution{}, errors.Wrapf(ErrNoConvergence, "after %d iterations", maxIter)
}

func (s NonLinear) solution(positions [][]float64, distances []float64, x, y float64, iterations int) Solution {
	return Solution{X: x, Y: y, Residual: rmsResidual(positions, distances, x, y), Iterations: iterations}
}
