package otvar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/varfont/ot"
)

func pts(xy ...int16) []ot.Point {
	out := make([]ot.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, ot.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func ds(xy ...int16) []ot.Delta {
	out := make([]ot.Delta, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, ot.Delta{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func xys(deltas []ot.Delta) []deltaXY {
	out := make([]deltaXY, len(deltas))
	for i, d := range deltas {
		out[i] = deltaXY{X: float64(d.X), Y: float64(d.Y)}
	}
	return out
}

func TestCanIupBetween(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	coords := pts(261, 611, 261, 113, 108, 113, 108, 611)
	deltas := xys(ds(38, 125, 38, -125, -38, -125, -38, 125))
	// points 0 and 2 are recoverable from their explicit neighbors
	if !canIupBetween(deltas, coords, 1, 3, 0.5) {
		t.Error("point 2 should be interpolatable between points 1 and 3")
	}
	if !canIupBetween(deltas, coords, -1, 1, 0.5) {
		t.Error("point 0 should be interpolatable with a wrapped reference")
	}
}

func TestIupContourAllRecoverable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	// a horizontal shear: the last point duplicates the first and can be
	// left implicit
	optimized := []ot.Option[ot.Delta]{
		ot.Some(ot.Delta{X: 155}),
		ot.Some(ot.Delta{X: 123}),
		ot.Some(ot.Delta{X: 32}),
		ot.Some(ot.Delta{X: 64}),
		ot.None[ot.Delta](),
	}
	coords := pts(751, 0, 433, 700, 323, 700, 641, 0, 751, 0)
	full := ds(155, 0, 123, 0, 32, 0, 64, 0, 155, 0)

	reconstructed := IupContour(optimized, coords)
	if diff := cmp.Diff(full, reconstructed); diff != "" {
		t.Errorf("reconstruction mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(optimized, iupContourOptimize(full, coords, 0.5), cmp.AllowUnexported(ot.Option[ot.Delta]{})); diff != "" {
		t.Errorf("optimization mismatch (-want +got):\n%s", diff)
	}
}

func TestIupContourRectangle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	// axis-aligned rectangle: two opposite corners pin down the rest
	optimized := []ot.Option[ot.Delta]{
		ot.Some(ot.Delta{X: 38, Y: 27}),
		ot.None[ot.Delta](),
		ot.Some(ot.Delta{X: 73, Y: -13}),
		ot.None[ot.Delta](),
		ot.None[ot.Delta](),
	}
	coords := pts(152, 284, 152, 204, 567, 204, 567, 284, 152, 284)
	full := ds(38, 27, 38, -13, 73, -13, 73, 27, 38, 27)

	reconstructed := IupContour(optimized, coords)
	if diff := cmp.Diff(full, reconstructed); diff != "" {
		t.Errorf("reconstruction mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(optimized, iupContourOptimize(full, coords, 0.5), cmp.AllowUnexported(ot.Option[ot.Delta]{})); diff != "" {
		t.Errorf("optimization mismatch (-want +got):\n%s", diff)
	}
}

func TestIupContourMidpointInference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	// a point halfway between its neighbors gets the averaged delta
	coords := pts(0, 0, 50, 0, 100, 0)
	explicit := []ot.Option[ot.Delta]{
		ot.Some(ot.Delta{X: 5}),
		ot.None[ot.Delta](),
		ot.Some(ot.Delta{X: 15}),
	}
	got := IupContour(explicit, coords)
	want := ds(5, 0, 10, 0, 15, 0)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("midpoint inference (-want +got):\n%s", diff)
	}
}

func TestIupContourClampAndEqualAnchors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	// x of point 1 lies beyond both anchors, so its delta clamps to the
	// nearer anchor; both anchors share y=0 with agreeing y deltas, so the
	// y delta follows them
	coords := pts(0, 0, 30, 50, 20, 0)
	explicit := []ot.Option[ot.Delta]{
		ot.Some(ot.Delta{X: 7, Y: 3}),
		ot.None[ot.Delta](),
		ot.Some(ot.Delta{X: 9, Y: 3}),
	}
	got := IupContour(explicit, coords)
	if got[1].X != 9 {
		t.Errorf("x delta should clamp to the anchor with the larger x, got %d", got[1].X)
	}
	if got[1].Y != 3 {
		t.Errorf("y delta should follow agreeing anchors, got %d", got[1].Y)
	}

	// equal anchor coordinates with disagreeing deltas pin the point
	explicit[2] = ot.Some(ot.Delta{X: 9, Y: 5})
	got = IupContour(explicit, coords)
	if got[1].Y != 0 {
		t.Errorf("y delta should drop to zero for disagreeing anchors, got %d", got[1].Y)
	}
}

func TestIupContourOptimizeDegenerate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	// all deltas within tolerance of zero: nothing needs storing
	coords := pts(0, 0, 100, 0, 100, 100)
	all := iupContourOptimize(ds(0, 0, 0, 0, 0, 0), coords, 0.5)
	for i, d := range all {
		if d.IsSome() {
			t.Errorf("point %d: zero contour should store no deltas", i)
		}
	}
	// identical nonzero deltas: a single explicit point carries the contour
	same := iupContourOptimize(ds(7, -4, 7, -4, 7, -4), coords, 0.5)
	count := 0
	for _, d := range same {
		if d.IsSome() {
			count++
		}
	}
	if count != 1 || !same[0].IsSome() {
		t.Errorf("uniform contour should keep exactly the first delta, got %v", same)
	}
	// single-point contour
	one := iupContourOptimize(ds(3, 3), pts(10, 10), 0.5)
	if len(one) != 1 || !one[0].IsSome() {
		t.Errorf("single point must stay explicit, got %v", one)
	}
}

func TestOptimizeDeltasRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.otvar")
	defer teardown()
	//
	coords := append(pts(152, 284, 152, 204, 567, 204, 567, 284, 152, 284),
		pts(751, 0, 433, 700, 323, 700, 641, 0, 751, 0)...)
	ends := []int{4, 9}
	full := append(ds(38, 27, 38, -13, 73, -13, 73, 27, 38, 27),
		ds(155, 0, 123, 0, 32, 0, 64, 0, 155, 0)...)

	optimized := OptimizeDeltas(full, coords, ends, 0.5)
	if len(optimized) != len(full) {
		t.Fatalf("optimized length %d, want %d", len(optimized), len(full))
	}
	// reconstruct per contour and compare against the full set
	var rebuilt []ot.Delta
	start := 0
	for _, end := range ends {
		rebuilt = append(rebuilt, IupContour(optimized[start:end+1], coords[start:end+1])...)
		start = end + 1
	}
	if diff := cmp.Diff(full, rebuilt); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	// and it must actually have dropped some deltas
	kept := 0
	for _, d := range optimized {
		if d.IsSome() {
			kept++
		}
	}
	if kept >= len(full) {
		t.Error("optimization kept every delta")
	}
}
