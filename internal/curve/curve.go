package curve

import (
	"fmt"
	"math"

	"github.com/fanforge/fanforged/internal/util"
)

const (
	// MinPoints is the minimum number of points a valid curve must have.
	MinPoints = 2

	// epsilon floors denominators in the interpolation math. Point
	// temperatures are strictly increasing, so this is purely a
	// numerical guard, never a semantic one.
	epsilon = 1e-6
)

type SmoothingMode string

const (
	SmoothingLinear SmoothingMode = "linear"
	SmoothingSmooth SmoothingMode = "smooth"
)

// Point is a single (temperature, duty) pair of a fan curve.
// Duty is a PWM percentage in [0..100].
type Point struct {
	Temp float64 `json:"t"`
	Duty float64 `json:"p"`
}

// Curve is an ordered set of points with strictly increasing temperatures.
// A Curve is immutable once built; config changes construct a new one.
type Curve struct {
	points []Point
}

// New builds a Curve from the given points. The points must already be
// ordered by strictly increasing temperature, with duties in [0..100].
func New(points []Point) (Curve, error) {
	if len(points) < MinPoints {
		return Curve{}, fmt.Errorf("curve needs at least %d points, got %d", MinPoints, len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Temp <= points[i-1].Temp {
			return Curve{}, fmt.Errorf("curve temperatures must be strictly increasing (point %d)", i)
		}
	}
	copied := make([]Point, len(points))
	copy(copied, points)
	return Curve{points: copied}, nil
}

// Points returns a copy of the curve points.
func (c Curve) Points() []Point {
	copied := make([]Point, len(c.points))
	copy(copied, c.points)
	return copied
}

func (c Curve) Len() int {
	return len(c.points)
}

// Evaluate returns the duty for the given temperature in [0..100].
// Temperatures outside the curve domain saturate to the nearest
// endpoint duty, there is no extrapolation.
func (c Curve) Evaluate(temp float64, mode SmoothingMode) float64 {
	switch mode {
	case SmoothingSmooth:
		return c.evaluateSmooth(temp)
	default:
		return c.evaluateLinear(temp)
	}
}

func (c Curve) evaluateLinear(temp float64) float64 {
	pts := c.points
	n := len(pts)
	if n <= 0 {
		return 0
	}
	if n == 1 || temp <= pts[0].Temp {
		return pts[0].Duty
	}
	if temp >= pts[n-1].Temp {
		return pts[n-1].Duty
	}

	for i := 0; i < n-1; i++ {
		a := pts[i]
		b := pts[i+1]
		if temp >= a.Temp && temp <= b.Temp {
			u := (temp - a.Temp) / math.Max(epsilon, b.Temp-a.Temp)
			return a.Duty + (b.Duty-a.Duty)*u
		}
	}
	return pts[n-1].Duty
}

// evaluateSmooth implements monotone cubic Hermite interpolation
// (Fritsch-Carlson). Tangents are chosen so that the interpolant never
// overshoots the duty range spanned by any two consecutive points,
// which a naive cubic spline does not guarantee.
func (c Curve) evaluateSmooth(temp float64) float64 {
	pts := c.points
	n := len(pts)
	if n <= 0 {
		return 0
	}
	if n == 1 || temp <= pts[0].Temp {
		return pts[0].Duty
	}
	if temp >= pts[n-1].Temp {
		return pts[n-1].Duty
	}

	// secant slopes between consecutive points
	m := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx := pts[i+1].Temp - pts[i].Temp
		dy := pts[i+1].Duty - pts[i].Duty
		m[i] = dy / math.Max(epsilon, dx)
	}

	// initial tangents: endpoint tangents equal their single adjacent
	// secant, interior tangents average the adjacent secants but become
	// zero at local extrema (opposite-sign secants)
	tg := make([]float64, n)
	tg[0] = m[0]
	tg[n-1] = m[n-2]
	for i := 1; i < n-1; i++ {
		if m[i-1]*m[i] <= 0 {
			tg[i] = 0
		} else {
			tg[i] = (m[i-1] + m[i]) * 0.5
		}
	}

	// rescale tangents per segment to preserve monotonicity
	for i := 0; i < n-1; i++ {
		if math.Abs(m[i]) < epsilon {
			// flat segment, force both tangents flat
			tg[i] = 0
			tg[i+1] = 0
			continue
		}
		a := tg[i] / m[i]
		b := tg[i+1] / m[i]
		s := a*a + b*b
		if s > 9 {
			k := 3 / math.Sqrt(s)
			tg[i] = k * a * m[i]
			tg[i+1] = k * b * m[i]
		}
	}

	seg := 0
	for ; seg < n-1; seg++ {
		if temp >= pts[seg].Temp && temp <= pts[seg+1].Temp {
			break
		}
	}

	x0 := pts[seg].Temp
	x1 := pts[seg+1].Temp
	y0 := pts[seg].Duty
	y1 := pts[seg+1].Duty
	h := x1 - x0
	u := (temp - x0) / math.Max(epsilon, h)

	// cubic Hermite basis
	h00 := 2*u*u*u - 3*u*u + 1
	h10 := u*u*u - 2*u*u + u
	h01 := -2*u*u*u + 3*u*u
	h11 := u*u*u - u*u

	return h00*y0 + h10*h*tg[seg] + h01*y1 + h11*h*tg[seg+1]
}

// Sample evaluates the curve at every integral temperature between the
// first and last point and returns the resulting duties. Used by the
// preview surfaces, which are required to match the control path exactly.
func (c Curve) Sample(mode SmoothingMode) []float64 {
	if len(c.points) < 1 {
		return nil
	}
	start := int(math.Floor(c.points[0].Temp))
	stop := int(math.Ceil(c.points[len(c.points)-1].Temp))

	values := make([]float64, 0, stop-start+1)
	for t := start; t <= stop; t++ {
		values = append(values, util.Coerce(c.Evaluate(float64(t), mode), 0, 100))
	}
	return values
}
