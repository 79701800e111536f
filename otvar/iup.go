package otvar

import (
	"math"

	"github.com/npillmayer/varfont/ot"
)

// Interpolation of untouched points (IUP): glyph variation data may omit
// deltas for points whose movement can be inferred from their neighbors
// on the same contour. This file implements both directions, the
// inference a consumer performs when reading deltas, and the optimization
// a compiler performs to drop inferable deltas before writing.

// iupSegment infers deltas for the points strictly between two reference
// points, per axis. rc1/rc2 are the reference coordinates, rd1/rd2 their
// deltas.
func iupSegment(coords []ot.Point, rc1 ot.Point, rd1 deltaXY, rc2 ot.Point, rd2 deltaXY) []deltaXY {
	out := make([]deltaXY, len(coords))
	for axis := 0; axis < 2; axis++ {
		x1, x2 := axisCoord(rc1, axis), axisCoord(rc2, axis)
		d1, d2 := axisDelta(rd1, axis), axisDelta(rd2, axis)
		if x1 == x2 {
			v := 0.0
			if d1 == d2 {
				v = d1
			}
			for i := range coords {
				setAxisDelta(&out[i], axis, v)
			}
			continue
		}
		if x1 > x2 {
			x1, x2 = x2, x1
			d1, d2 = d2, d1
		}
		scale := (d2 - d1) / (x2 - x1)
		for i, c := range coords {
			x := axisCoord(c, axis)
			var v float64
			switch {
			case x <= x1:
				v = d1
			case x >= x2:
				v = d2
			default:
				v = d1 + (x-x1)*scale
			}
			setAxisDelta(&out[i], axis, v)
		}
	}
	return out
}

// deltaXY is a point delta in float precision, as used during
// interpolation before rounding back to font units.
type deltaXY struct {
	X float64
	Y float64
}

func axisCoord(p ot.Point, axis int) float64 {
	if axis == 0 {
		return float64(p.X)
	}
	return float64(p.Y)
}

func axisDelta(d deltaXY, axis int) float64 {
	if axis == 0 {
		return d.X
	}
	return d.Y
}

func setAxisDelta(d *deltaXY, axis int, v float64) {
	if axis == 0 {
		d.X = v
	} else {
		d.Y = v
	}
}

// IupContour fills in the omitted deltas of one contour. deltas and
// coords run in parallel; a None entry is an untouched point whose delta
// is inferred from the nearest explicit neighbors, wrapping around the
// contour. A contour with no explicit deltas at all gets zeros.
func IupContour(deltas []ot.Option[ot.Delta], coords []ot.Point) []ot.Delta {
	n := len(deltas)
	out := make([]ot.Delta, n)
	f := make([]deltaXY, n)
	anchors := make([]int, 0, n)
	for i, d := range deltas {
		if d.IsSome() {
			dd := d.MustUnwrap()
			f[i] = deltaXY{X: float64(dd.X), Y: float64(dd.Y)}
			anchors = append(anchors, i)
		}
	}
	if len(anchors) == 0 {
		return out
	}
	if len(anchors) == n {
		for i := range f {
			out[i] = ot.Delta{X: int16(otRound(f[i].X)), Y: int16(otRound(f[i].Y))}
		}
		return out
	}
	for a := 0; a < len(anchors); a++ {
		i1 := anchors[a]
		i2 := anchors[(a+1)%len(anchors)]
		// points strictly between i1 and i2, wrapping
		var idxs []int
		for j := (i1 + 1) % n; j != i2; j = (j + 1) % n {
			idxs = append(idxs, j)
		}
		if len(idxs) == 0 {
			continue
		}
		seg := make([]ot.Point, len(idxs))
		for k, j := range idxs {
			seg[k] = coords[j]
		}
		inferred := iupSegment(seg, coords[i1], f[i1], coords[i2], f[i2])
		for k, j := range idxs {
			f[j] = inferred[k]
		}
	}
	for i := range f {
		out[i] = ot.Delta{X: int16(otRound(f[i].X)), Y: int16(otRound(f[i].Y))}
	}
	return out
}

// canIupBetween reports whether dropping the deltas between two anchor
// points keeps every interpolated position within tolerance of where the
// explicit deltas would have put it. Distance is Euclidean per point.
func canIupBetween(deltas []deltaXY, coords []ot.Point, i, j int, tolerance float64) bool {
	n := len(deltas)
	i = ((i % n) + n) % n // anchors may be given as -1 for "last point"
	j = ((j % n) + n) % n
	var idxs []int
	for k := (i + 1) % n; k != j; k = (k + 1) % n {
		idxs = append(idxs, k)
	}
	if len(idxs) == 0 {
		return true
	}
	seg := make([]ot.Point, len(idxs))
	for k, idx := range idxs {
		seg[k] = coords[idx]
	}
	interp := iupSegment(seg, coords[i], deltas[i], coords[j], deltas[j])
	for k, idx := range idxs {
		dx := deltas[idx].X - interp[k].X
		dy := deltas[idx].Y - interp[k].Y
		if dx*dx+dy*dy > tolerance*tolerance {
			return false
		}
	}
	return true
}

// iupForcedSet finds the points whose delta can never be dropped: those
// where the inference from the neighbors cannot stay within tolerance
// regardless of which other points keep their deltas.
func iupForcedSet(deltas []deltaXY, coords []ot.Point, tolerance float64) map[int]bool {
	forced := make(map[int]bool)
	n := len(deltas)
	if n == 0 {
		return forced
	}
	nd, nc := deltas[n-1], coords[n-1]
	for i := n - 1; i >= 0; i-- {
		var ld deltaXY
		var lc ot.Point
		if i == 0 {
			ld, lc = deltas[n-1], coords[n-1]
		} else {
			ld, lc = deltas[i-1], coords[i-1]
		}
		d, c := deltas[i], coords[i]
		for axis := 0; axis < 2; axis++ {
			cj := axisCoord(c, axis)
			dj := axisDelta(d, axis)
			lcj, ldj := axisCoord(lc, axis), axisDelta(ld, axis)
			ncj, ndj := axisCoord(nc, axis), axisDelta(nd, axis)
			c1, c2 := lcj, ncj
			d1, d2 := ldj, ndj
			if lcj > ncj {
				c1, c2 = ncj, lcj
				d1, d2 = ndj, ldj
			}
			force := false
			switch {
			case c1 == c2:
				// equal neighbor coordinates interpolate to the shared
				// delta, or to zero when the deltas differ
				if math.Abs(d1-d2) > tolerance && math.Abs(dj) > tolerance {
					force = true
				}
			case c1 <= cj && cj <= c2:
				// in range but delta outside the interpolation band
				if !(math.Min(d1, d2)-tolerance <= dj && dj <= math.Max(d1, d2)+tolerance) {
					force = true
				}
			default:
				// out of range; the inferred value snaps to an edge
				if d1 != d2 {
					if cj < c1 {
						if math.Abs(dj) > tolerance &&
							math.Abs(dj-d1) > tolerance &&
							((dj-tolerance < d1) != (d1 < d2)) {
							force = true
						}
					} else {
						if math.Abs(dj) > tolerance &&
							math.Abs(dj-d2) > tolerance &&
							((d2 < dj+tolerance) != (d1 < d2)) {
							force = true
						}
					}
				}
			}
			if force {
				forced[i] = true
				break
			}
		}
		nd, nc = d, c
	}
	return forced
}

// iupContourOptimizeDP solves, by dynamic programming, the cheapest set
// of points whose deltas must stay explicit so every other point
// interpolates within tolerance. lookback bounds how far a chain of
// dropped points may reach.
func iupContourOptimizeDP(deltas []deltaXY, coords []ot.Point, tolerance float64, forced map[int]bool, lookback int) ([]float64, []int) {
	n := len(deltas)
	if lookback <= 0 {
		lookback = n
	}
	costs := make([]float64, n+1)
	chain := make([]int, n+1)
	costs[0] = 0
	chain[0] = -1
	for i := 0; i < n; i++ {
		best := costs[i] + 1
		bestChain := i - 1
		if i > 0 && forced[i-1] {
			costs[i+1] = best
			chain[i+1] = bestChain
			continue
		}
		for j := i - 2; j >= i-lookback && j >= -1; j-- {
			var cost float64
			if j >= 0 {
				cost = costs[j+1] + 1
			} else {
				cost = 1
			}
			if cost < best && canIupBetween(deltas, coords, (j+n)%n, i, tolerance) {
				best = cost
				bestChain = j
			}
			if j >= 0 && forced[j] {
				break
			}
		}
		costs[i+1] = best
		chain[i+1] = bestChain
	}
	return costs, chain
}

func rotatePoints(pts []ot.Point, k int) []ot.Point {
	n := len(pts)
	k %= n
	out := make([]ot.Point, 0, n)
	out = append(out, pts[n-k:]...)
	out = append(out, pts[:n-k]...)
	return out
}

func rotateDeltas(ds []deltaXY, k int) []deltaXY {
	n := len(ds)
	k %= n
	out := make([]deltaXY, 0, n)
	out = append(out, ds[n-k:]...)
	out = append(out, ds[:n-k]...)
	return out
}

// iupContourOptimize decides, for one contour, which point deltas to keep
// explicit. The result runs parallel to the contour: Some entries keep
// their delta, None entries are dropped for the consumer to infer.
func iupContourOptimize(deltas []ot.Delta, coords []ot.Point, tolerance float64) []ot.Option[ot.Delta] {
	n := len(deltas)
	out := make([]ot.Option[ot.Delta], n)

	f := make([]deltaXY, n)
	allZero := true
	for i, d := range deltas {
		f[i] = deltaXY{X: float64(d.X), Y: float64(d.Y)}
		if math.Abs(f[i].X) > tolerance || math.Abs(f[i].Y) > tolerance {
			allZero = false
		}
	}
	// all deltas within tolerance of zero: drop everything
	if allZero {
		return out
	}
	if n == 1 {
		out[0] = ot.Some(deltas[0])
		return out
	}
	// all deltas equal: a single anchor carries the whole contour
	same := true
	for i := 1; i < n; i++ {
		if deltas[i] != deltas[0] {
			same = false
			break
		}
	}
	if same {
		out[0] = ot.Some(deltas[0])
		return out
	}

	forced := iupForcedSet(f, coords, tolerance)
	if len(forced) > 0 {
		// rotate so the highest forced index becomes the last point, then
		// a single DP pass suffices
		maxForced := -1
		for i := range forced {
			if i > maxForced {
				maxForced = i
			}
		}
		k := (n - 1 - maxForced) % n
		rf := rotateDeltas(f, k)
		rc := rotatePoints(coords, k)
		rforced := make(map[int]bool, len(forced))
		for i := range forced {
			rforced[(i+k)%n] = true
		}
		_, chain := iupContourOptimizeDP(rf, rc, tolerance, rforced, n)
		keep := make(map[int]bool)
		for i := n - 1; i > -1; i = chain[i+1] {
			keep[i] = true
		}
		for i := range out {
			if keep[(i+k)%n] {
				out[i] = ot.Some(deltas[i])
			}
		}
		return out
	}

	// no forced points: double the contour so every wraparound chain is
	// representable, then pick the cheapest solution whose kept set has a
	// period of n
	df := append(append([]deltaXY{}, f...), f...)
	dc := append(append([]ot.Point{}, coords...), coords...)
	costs, chain := iupContourOptimizeDP(df, dc, tolerance, map[int]bool{}, n)
	best := -1
	bestCost := math.Inf(1)
	for start := n - 1; start < 2*n-1; start++ {
		// cost of the solution ending at start, minus the part before the
		// period window
		cost := costs[start+1] - costs[start+1-n]
		if cost > bestCost {
			continue
		}
		// verify the chain is periodic over the window
		keep := make(map[int]bool)
		i := start
		for i > start-n && i > -1 {
			keep[i%n] = true
			i = chain[i+1]
		}
		if i == start-n {
			bestCost = cost
			best = start
			for j := range out {
				out[j] = ot.None[ot.Delta]()
			}
			for j := range keep {
				out[j] = ot.Some(deltas[j])
			}
		}
	}
	if best == -1 {
		// fall back to keeping everything
		for i := range out {
			out[i] = ot.Some(deltas[i])
		}
	}
	return out
}

// OptimizeDeltas drops inferable point deltas for a whole glyph. deltas
// runs over all points including the four phantom points; ends holds the
// inclusive last point index of each contour, the phantoms counting as
// four single-point contours appended by the caller. Tolerance is in
// font units; 0.5 keeps every rounded coordinate exact.
func OptimizeDeltas(deltas []ot.Delta, coords []ot.Point, ends []int, tolerance float64) []ot.Option[ot.Delta] {
	out := make([]ot.Option[ot.Delta], 0, len(deltas))
	start := 0
	for _, end := range ends {
		if end < start || end >= len(deltas) {
			break
		}
		contour := iupContourOptimize(deltas[start:end+1], coords[start:end+1], tolerance)
		out = append(out, contour...)
		start = end + 1
	}
	for len(out) < len(deltas) {
		// trailing points outside any contour stay explicit
		out = append(out, ot.Some(deltas[len(out)]))
	}
	return out
}
