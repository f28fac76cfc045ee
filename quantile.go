package threadcore

import "time"

// quantileEstimator tracks a single running quantile with the P-Square
// algorithm (Jain and Chlamtac, "The P² Algorithm for Dynamic Calculation of
// Quantiles and Histograms Without Storing Observations", CACM 28(10), 1985).
// Five markers converge on the minimum, the target quantile, two
// intermediate points, and the maximum, giving O(1) updates and O(1)
// retrieval without retaining observations.
//
// Thread Safety: NOT thread-safe. [LatencyMetrics] guards it with a mutex.
type quantileEstimator struct {
	// p is the target quantile in [0.0, 1.0].
	p float64

	// q holds the five marker heights.
	q [5]float64

	// n holds the five actual marker positions.
	n [5]int

	// np holds the five desired marker positions.
	np [5]float64

	// dn holds the per-observation increments for desired positions.
	dn [5]float64

	// count is the number of observations folded in so far.
	count int

	// seed buffers the first five observations before the markers exist.
	seed [5]float64
}

// newQuantileEstimator returns an estimator for quantile p, clamped to
// [0.0, 1.0] (e.g. 0.50 for the median, 0.99 for P99).
func newQuantileEstimator(p float64) quantileEstimator {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	return quantileEstimator{
		p:  p,
		dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

// observe folds one observation into the marker state in O(1).
func (e *quantileEstimator) observe(x float64) {
	e.count++

	// The first five observations place the markers directly.
	if e.count <= 5 {
		e.seed[e.count-1] = x
		if e.count == 5 {
			e.placeMarkers()
		}
		return
	}

	// Find the cell k with q[k] <= x < q[k+1], extending an extreme marker
	// when x falls outside the current range.
	var k int
	if x < e.q[0] {
		e.q[0] = x
	} else if x >= e.q[4] {
		e.q[4] = x
		k = 3
	} else {
		for k = 0; k < 4; k++ {
			if e.q[k] <= x && x < e.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		e.n[i]++
	}
	for i := 0; i < 5; i++ {
		e.np[i] += e.dn[i]
	}

	// Nudge interior markers toward their desired positions. The parabolic
	// fit applies unless it would cross a neighboring marker, in which case
	// the linear form keeps the heights ordered.
	for i := 1; i < 4; i++ {
		d := e.np[i] - float64(e.n[i])
		if (d >= 1 && e.n[i+1]-e.n[i] > 1) || (d <= -1 && e.n[i-1]-e.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}

			if h := e.parabolic(i, sign); e.q[i-1] < h && h < e.q[i+1] {
				e.q[i] = h
			} else {
				e.q[i] = e.linear(i, sign)
			}
			e.n[i] += sign
		}
	}
}

// placeMarkers sorts the seed buffer and initializes the five markers on it.
func (e *quantileEstimator) placeMarkers() {
	sortFloats5(e.seed[:])

	for i := 0; i < 5; i++ {
		e.q[i] = e.seed[i]
		e.n[i] = i
	}
	e.np = [5]float64{0, 2 * e.p, 4 * e.p, 2 + 2*e.p, 4}
}

// parabolic computes the P-Square parabolic marker adjustment.
func (e *quantileEstimator) parabolic(i, sign int) float64 {
	d := float64(sign)
	ni := float64(e.n[i])
	prev := float64(e.n[i-1])
	next := float64(e.n[i+1])

	t1 := d / (next - prev)
	t2 := (ni - prev + d) * (e.q[i+1] - e.q[i]) / (next - ni)
	t3 := (next - ni - d) * (e.q[i] - e.q[i-1]) / (ni - prev)

	return e.q[i] + t1*(t2+t3)
}

// linear computes the P-Square linear marker adjustment.
func (e *quantileEstimator) linear(i, sign int) float64 {
	if sign == 1 {
		return e.q[i] + (e.q[i+1]-e.q[i])/float64(e.n[i+1]-e.n[i])
	}
	return e.q[i] - (e.q[i]-e.q[i-1])/float64(e.n[i]-e.n[i-1])
}

// estimate returns the current quantile estimate in O(1). With fewer than
// five observations it indexes the sorted seed buffer instead.
func (e *quantileEstimator) estimate() float64 {
	if e.count == 0 {
		return 0
	}

	if e.count < 5 {
		var sorted [5]float64
		copy(sorted[:], e.seed[:e.count])
		sortFloats5(sorted[:e.count])
		idx := int(float64(e.count-1) * e.p)
		if idx >= e.count {
			idx = e.count - 1
		}
		return sorted[idx]
	}

	// Marker 2 targets the requested quantile.
	return e.q[2]
}

// sortFloats5 insertion-sorts a slice of at most five elements.
func sortFloats5(s []float64) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j] > key {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}

// latencyDigest summarizes a duration distribution: exact count, sum, and
// maximum, plus streaming estimates for the 50th, 90th, and 99th
// percentiles. The zero value is ready to use.
//
// Thread Safety: NOT thread-safe. [LatencyMetrics] guards it with a mutex.
type latencyDigest struct {
	armed bool
	count int
	sum   float64
	max   float64
	p50   quantileEstimator
	p90   quantileEstimator
	p99   quantileEstimator
}

// observe folds one duration sample into the digest.
func (g *latencyDigest) observe(d time.Duration) {
	if !g.armed {
		g.p50 = newQuantileEstimator(0.50)
		g.p90 = newQuantileEstimator(0.90)
		g.p99 = newQuantileEstimator(0.99)
		g.armed = true
	}

	x := float64(d)
	g.count++
	g.sum += x
	if x > g.max {
		g.max = x
	}
	g.p50.observe(x)
	g.p90.observe(x)
	g.p99.observe(x)
}

// snapshot converts the digest state to a [LatencySnapshot].
func (g *latencyDigest) snapshot() LatencySnapshot {
	if g.count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: g.count,
		P50:   time.Duration(g.p50.estimate()),
		P90:   time.Duration(g.p90.estimate()),
		P99:   time.Duration(g.p99.estimate()),
		Max:   time.Duration(g.max),
		Mean:  time.Duration(g.sum / float64(g.count)),
	}
}
