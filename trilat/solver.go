package trilat

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"locator-go/model"
)

var (
	// ErrDegenerateGeometry reports scanner layouts that cannot pin down a 2-D point:
	// coincident or collinear positions, a singular system or a diverging optimizer.
	ErrDegenerateGeometry = errors.New("degenerate scanner geometry")
	// ErrNoConvergence is returned by the iterative solver when it hits its iteration bound.
	ErrNoConvergence = errors.Wrap(ErrDegenerateGeometry, "least squares did not converge")
	ErrInvalidInput  = errors.New("invalid trilateration input")
)

// condLimit is the largest 2-norm condition number accepted for the linear system.
const condLimit = 1e12

// Solution is a real-valued 2-D fix.
type Solution struct {
	X, Y       float64
	Residual   float64 // RMS of |p - s_i| - d_i
	Iterations int
}

// Point truncates the solution toward zero into integer coordinate space.
func (s Solution) Point() model.Point {
	return model.Point{X: int(s.X), Y: int(s.Y)}
}

// Solver computes the most likely point given scanner positions (N x 2) and distances.
type Solver interface {
	Name() string
	Solve(positions [][]float64, distances []float64) (Solution, error)
}

// ParseSolver maps a configured name to its solver with default settings.
func ParseSolver(name string) (Solver, error) {
	switch name {
	case LinearLeastSquares{}.Name():
		return LinearLeastSquares{}, nil
	case NewNonLinear().Name():
		return NewNonLinear(), nil
	}
	return nil, errors.Errorf("unknown least squares algorithm %q", name)
}

// LinearLeastSquares linearises the circle equations by subtracting the first one from
// the others and solves A·p = b in the least squares sense.
type LinearLeastSquares struct{}

func (LinearLeastSquares) Name() string { return "Linear" }

func (LinearLeastSquares) Solve(positions [][]float64, distances []float64) (Solution, error) {
	if err := checkInput(positions, distances); err != nil {
		return Solution{}, err
	}
	n := len(positions)
	if n < 3 {
		return Solution{}, errors.Wrapf(ErrDegenerateGeometry, "%d equations cannot fix two unknowns", n-1)
	}

	x1, y1, d1 := positions[0][0], positions[0][1], distances[0]
	A := mat.NewDense(n-1, 2, nil)
	b := mat.NewVecDense(n-1, nil)
	for i := 1; i < n; i++ {
		xi, yi, di := positions[i][0], positions[i][1], distances[i]
		A.Set(i-1, 0, 2*(xi-x1))
		A.Set(i-1, 1, 2*(yi-y1))
		b.SetVec(i-1, d1*d1-di*di+xi*xi-x1*x1+yi*yi-y1*y1)
	}

	if c := mat.Cond(A, 2); math.IsInf(c, 1) || math.IsNaN(c) || c > condLimit {
		return Solution{}, errors.Wrapf(ErrDegenerateGeometry, "linear system condition %g", c)
	}

	var qr mat.QR
	qr.Factorize(A)
	var p mat.VecDense
	if err := qr.SolveVecTo(&p, false, b); err != nil {
		return Solution{}, errors.Wrap(ErrDegenerateGeometry, err.Error())
	}

	x, y := p.AtVec(0), p.AtVec(1)
	return Solution{X: x, Y: y, Residual: rmsResidual(positions, distances, x, y)}, nil
}

func checkInput(positions [][]float64, distances []float64) error {
	if len(positions) != len(distances) {
		return errors.Wrapf(ErrInvalidInput, "%d positions for %d distances", len(positions), len(distances))
	}
	if len(positions) < 2 {
		return errors.Wrapf(ErrInvalidInput, "need at least 2 positions, got %d", len(positions))
	}
	for i, p := range positions {
		if len(p) < 2 {
			return errors.Wrapf(ErrInvalidInput, "position %d has %d coordinates", i, len(p))
		}
	}
	return nil
}

// residuals fills r with |p - s_i| - d_i and returns the sum of squares.
func residuals(positions [][]float64, distances []float64, x, y float64, r []float64) float64 {
	var cost float64
	for i, s := range positions {
		r[i] = math.Hypot(x-s[0], y-s[1]) - distances[i]
		cost += r[i] * r[i]
	}
	return cost
}

func rmsResidual(positions [][]float64, distances []float64, x, y float64) float64 {
	r := make([]float64, len(positions))
	return math.Sqrt(residuals(positions, distances, x, y, r) / float64(len(positions)))
}
