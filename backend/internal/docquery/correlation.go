package docquery

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// pearson returns the correlation coefficient of x and y and its two-sided p-value
// under the Student t distribution with n-2 degrees of freedom.
// ok is false with fewer than two points or a constant series.
func pearson(x, y []float64) (r, p float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, 0, false
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0, 0, false
	}

	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 0, false
	}
	r = math.Max(-1, math.Min(1, r))

	// Two points always lie on a line
	if n == 2 {
		return r, 1, true
	}
	if math.Abs(r) == 1 {
		return r, 0, true
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/((1-r)*(1+r)))
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * tdist.Survival(math.Abs(t))
	return r, math.Min(1, p), true
}

// runtimeRevenuePoints keeps films where both values are present
func runtimeRevenuePoints(movies Films) []Point {
	var points []Point
	for _, m := range movies {
		if m.Runtime == nil || m.Revenue == nil {
			continue
		}
		points = append(points, Point{Title: m.Title, Runtime: *m.Runtime, Revenue: *m.Revenue})
	}
	return points
}

func correlate(points []Point) (Correlation, bool) {
	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, pt := range points {
		x[i] = pt.Runtime
		y[i] = pt.Revenue
	}
	r, p, ok := pearson(x, y)
	if !ok {
		return Correlation{}, false
	}
	return Correlation{Coefficient: r, PValue: p, N: len(points), Points: points}, true
}
