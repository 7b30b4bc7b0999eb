package calibration

import (
	"fmt"
	"math"
)

// MaxDegree is the highest polynomial degree fitted to calibration points.
const MaxDegree = 3

// Point is one calibration pair.
type Point struct {
	Raw        float64
	Calibrated float64
}

// Curve is a least-squares polynomial mapping raw to calibrated values.
//
// x is centred and scaled before fitting so tightly clustered SG values
// (1.000..1.004) do not produce an ill-conditioned system.
type Curve struct {
	coeffs []float64 // ascending powers of the normalised x
	center float64
	scale  float64
}

// Fit fits a polynomial of degree min(MaxDegree, distinct-1) to points.
func Fit(points []Point) (*Curve, error) {
	distinct := make(map[float64]struct{}, len(points))
	var sum float64
	for _, p := range points {
		distinct[p.Raw] = struct{}{}
		sum += p.Raw
	}
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: %d distinct", ErrTooFewPoints, len(distinct))
	}
	degree := min(MaxDegree, len(distinct)-1)

	center := sum / float64(len(points))
	scale := 0.0
	for _, p := range points {
		scale = math.Max(scale, math.Abs(p.Raw-center))
	}
	if scale == 0 {
		scale = 1
	}

	// Normal equations: (VᵀV) c = Vᵀy
	n := degree + 1
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n+1)
	}
	for _, p := range points {
		x := (p.Raw - center) / scale
		pows := make([]float64, 2*n)
		pows[0] = 1
		for k := 1; k < len(pows); k++ {
			pows[k] = pows[k-1] * x
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a[i][j] += pows[i+j]
			}
			a[i][n] += pows[i] * p.Calibrated
		}
	}

	coeffs, err := solve(a)
	if err != nil {
		return nil, err
	}
	return &Curve{coeffs: coeffs, center: center, scale: scale}, nil
}

// solve runs Gaussian elimination with partial pivoting on an augmented matrix.
func solve(a [][]float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	out := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		v := a[r][n]
		for c := r + 1; c < n; c++ {
			v -= a[r][c] * out[c]
		}
		out[r] = v / a[r][r]
	}
	return out, nil
}

// Degree returns the polynomial degree of the curve.
func (c *Curve) Degree() int {
	return len(c.coeffs) - 1
}

// Eval evaluates the curve at raw.
func (c *Curve) Eval(raw float64) float64 {
	x := (raw - c.center) / c.scale
	var y float64
	for i := len(c.coeffs) - 1; i >= 0; i-- {
		y = y*x + c.coeffs[i]
	}
	return y
}

// Round rounds v to the given number of decimal digits, half to even.
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.RoundToEven(v*p) / p
}
