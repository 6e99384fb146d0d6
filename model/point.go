package model

import (
	"fmt"
	"math"
)

// Point is a planar coordinate in millimetres. It doubles as the dataset key
// of a ground-truth grid position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Less orders points by X, then Y.
func (p Point) Less(o Point) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// Distance returns the Euclidean distance to o in the same units as the coordinates.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(float64(p.X-o.X), float64(p.Y-o.Y))
}

// String renders the point the way dataset files are named, e.g. x1200y3400.
func (p Point) String() string {
	return fmt.Sprintf("x%dy%d", p.X, p.Y)
}
