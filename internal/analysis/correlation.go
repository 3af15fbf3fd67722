package analysis

import "math"

// pearson returns the correlation of x and y over the rows where both are present (non-NaN).
// ok is false when fewer than two rows overlap or either side is constant on the overlap.
func pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	cnt := 0
	sx, sy := 0.0, 0.0
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		sx += x[i]
		sy += y[i]
		cnt++
	}
	if cnt < 2 {
		return 0, false
	}
	mx, my := sx/float64(cnt), sy/float64(cnt)

	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r = sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

// usable reports whether a column has at least two prices and is not constant.
func usable(col []float64) bool {
	cnt := 0
	first := math.NaN()
	varies := false
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if cnt == 0 {
			first = v
		} else if v != first {
			varies = true
		}
		cnt++
	}
	return cnt >= 2 && varies
}
