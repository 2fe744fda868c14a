package placement

import "math"

// Angles throughout this package are degrees measured from "up" (the
// positive Y axis), increasing counterclockwise. The seed arc is centered on
// up, so the convention keeps the first structure visually upright.

// Point is a 2D coordinate relative to the diagram origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromPolar converts a radius and an up-referenced angle in degrees to a
// cartesian point.
func FromPolar(radius, angle float64) Point {
	rad := (angle + 90) * math.Pi / 180
	return Point{X: radius * math.Cos(rad), Y: radius * math.Sin(rad)}
}

// Radius returns the distance from the origin.
func (p Point) Radius() float64 {
	return math.Hypot(p.X, p.Y)
}

// Angle returns the up-referenced angle in degrees, normalized to
// (-180, 180].
func (p Point) Angle() float64 {
	a := math.Atan2(p.Y, p.X)*180/math.Pi - 90
	return normalizeAngle(a)
}

// Rotate rotates the point around the origin by the given degrees.
func (p Point) Rotate(by float64) Point {
	rad := by * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a <= -180 {
		a += 360
	}
	return a
}
