package trilat

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const rankTolerance = 1e-9

// CheckGeometry rejects layouts that cannot determine a 2-D point: fewer than three
// distinct positions, or all positions on one line.
func CheckGeometry(positions [][]float64) error {
	distinct := make(map[[2]float64]struct{}, len(positions))
	for i, p := range positions {
		if len(p) < 2 {
			return errors.Wrapf(ErrInvalidInput, "position %d has %d coordinates", i, len(p))
		}
		distinct[[2]float64{p[0], p[1]}] = struct{}{}
	}
	if len(distinct) < 3 {
		return errors.Wrapf(ErrDegenerateGeometry, "%d distinct scanner positions", len(distinct))
	}

	cx, cy := centroid(positions)
	centred := mat.NewDense(len(positions), 2, nil)
	for i, p := range positions {
		centred.Set(i, 0, p[0]-cx)
		centred.Set(i, 1, p[1]-cy)
	}

	var svd mat.SVD
	if ok := svd.Factorize(centred, mat.SVDNone); !ok {
		return errors.Wrap(ErrDegenerateGeometry, "svd factorization failed")
	}
	sv := svd.Values(nil)
	if len(sv) < 2 || sv[0] == 0 || sv[1] <= rankTolerance*sv[0] {
		return errors.Wrap(ErrDegenerateGeometry, "scanner positions are collinear")
	}
	return nil
}

func centroid(positions [][]float64) (float64, float64) {
	var x, y float64
	for _, p := range positions {
		x += p[0]
		y += p[1]
	}
	n := float64(len(positions))
	return x / n, y / n
}
