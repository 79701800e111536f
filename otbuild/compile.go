package otbuild

import (
	"fmt"
	"math"

	"github.com/npillmayer/varfont/ot"
	"github.com/npillmayer/varfont/otvar"
)

// iupTolerance is the error budget, in font units, for dropping a point
// delta in favor of interpolation. Half a unit keeps every rounded
// coordinate exact.
const iupTolerance = 0.5

// Master is one interpolation master: a complete glyph set at one
// design-space location.
type Master struct {
	// Location positions the master, in user-space coordinates.
	Location otvar.Location
	// Glyphs is indexed by glyph ID. A nil entry marks a sparse master
	// that does not define the glyph; the default master must define
	// every glyph.
	Glyphs []*ot.Glyph
	// Advances holds the per-glyph advance widths, parallel to Glyphs.
	Advances []uint16
}

func otRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

// checkTopology verifies point compatibility of a master glyph against
// the default master's glyph. The returned kind/message describe the
// first mismatch found.
func checkTopology(def, g *ot.Glyph) (IncompatibilityKind, string, bool) {
	if def.IsComposite() != g.IsComposite() {
		return KindMixedOutline, "simple vs composite", false
	}
	if len(def.Components) != len(g.Components) {
		return KindComponents,
			fmt.Sprintf("%d vs %d components", len(def.Components), len(g.Components)),
			false
	}
	for i := range def.Components {
		if def.Components[i].GlyphRef != g.Components[i].GlyphRef {
			return KindComponents,
				fmt.Sprintf("component %d references glyph %d vs %d",
					i, def.Components[i].GlyphRef, g.Components[i].GlyphRef),
				false
		}
	}
	if len(def.Contours) != len(g.Contours) {
		return KindContourCount,
			fmt.Sprintf("%d vs %d contours", len(def.Contours), len(g.Contours)),
			false
	}
	for ci := range def.Contours {
		if len(def.Contours[ci]) != len(g.Contours[ci]) {
			return KindPointCount,
				fmt.Sprintf("contour %d has %d vs %d points",
					ci, len(def.Contours[ci]), len(g.Contours[ci])),
				false
		}
		for pi := range def.Contours[ci] {
			if def.Contours[ci][pi].OnCurve != g.Contours[ci][pi].OnCurve {
				return KindOnCurve,
					fmt.Sprintf("contour %d point %d", ci, pi),
					false
			}
		}
	}
	return 0, "", true
}

// gvarCoords flattens a glyph into the point list the variation store
// covers: all contour points, one pseudo-point per component carrying its
// placement offset, and the four phantom points. ends holds the inclusive
// last index of each contour, with components and phantoms counting as
// single-point contours.
func gvarCoords(g *ot.Glyph, advance uint16) (coords []ot.Point, ends []int) {
	for _, contour := range g.Contours {
		coords = append(coords, contour...)
		ends = append(ends, len(coords)-1)
	}
	for _, comp := range g.Components {
		coords = append(coords, ot.Point{X: comp.DX, Y: comp.DY})
		ends = append(ends, len(coords)-1)
	}
	coords = append(coords,
		ot.Point{},                  // left side
		ot.Point{X: int16(advance)}, // right side
		ot.Point{},                  // top
		ot.Point{},                  // bottom
	)
	for i := 0; i < 4; i++ {
		ends = append(ends, len(coords)-4+i)
	}
	return coords, ends
}

// coordVector interleaves a point list into the flat (x0,y0,x1,y1,…)
// vector the variation model operates on.
func coordVector(coords []ot.Point) []float64 {
	v := make([]float64, 2*len(coords))
	for i, p := range coords {
		v[2*i] = float64(p.X)
		v[2*i+1] = float64(p.Y)
	}
	return v
}

// compileGlyph turns one glyph's masters into the default outline plus
// its delta sets. A topology mismatch yields an Incompatibility and no
// variation data.
func compileGlyph(gid int, name string, masters []Master, defaultIx int,
	model *otvar.VariationModel) (*ot.Glyph, []ot.DeltaSet, *Incompatibility) {
	//
	def := masters[defaultIx].Glyphs[gid]
	if def == nil {
		return nil, nil, &Incompatibility{
			Kind:    KindMissingDefault,
			Glyph:   name,
			GlyphID: gid,
			Masters: []otvar.Location{masters[defaultIx].Location},
			Message: "no outline in the default master",
		}
	}
	for mi, m := range masters {
		if mi == defaultIx || m.Glyphs[gid] == nil {
			continue
		}
		if kind, msg, ok := checkTopology(def, m.Glyphs[gid]); !ok {
			return def, nil, &Incompatibility{
				Kind:    kind,
				Glyph:   name,
				GlyphID: gid,
				Masters: []otvar.Location{masters[defaultIx].Location, m.Location},
				Message: msg,
			}
		}
	}

	defCoords, ends := gvarCoords(def, masters[defaultIx].Advances[gid])
	masterValues := make([][]float64, len(masters))
	for mi, m := range masters {
		g := m.Glyphs[gid]
		if g == nil {
			continue
		}
		coords, _ := gvarCoords(g, m.Advances[gid])
		masterValues[mi] = coordVector(coords)
	}
	deltas, regions, err := model.Deltas(masterValues)
	if err != nil {
		return def, nil, &Incompatibility{
			Kind:    KindPointCount,
			Glyph:   name,
			GlyphID: gid,
			Masters: []otvar.Location{masters[defaultIx].Location},
			Message: err.Error(),
		}
	}

	var deltaSets []ot.DeltaSet
	for di, delta := range deltas {
		region := regions[di]
		if len(region) == 0 { // the default master's own deltas
			continue
		}
		ds := regionDeltaSet(region, model.AxisOrder, delta, defCoords, ends)
		deltaSets = append(deltaSets, ds)
	}
	return def, deltaSets, nil
}

// regionDeltaSet rounds one region's deltas to font units and decides,
// per glyph, between the explicit and the IUP-optimized serialization,
// keeping whichever encodes smaller.
func regionDeltaSet(region otvar.Region, axisOrder []ot.Tag, delta []float64,
	coords []ot.Point, ends []int) ot.DeltaSet {
	//
	n := len(delta) / 2
	rounded := make([]ot.Delta, n)
	explicit := make([]ot.Option[ot.Delta], n)
	for i := 0; i < n; i++ {
		rounded[i] = ot.Delta{
			X: int16(otRound(delta[2*i])),
			Y: int16(otRound(delta[2*i+1])),
		}
		explicit[i] = ot.Some(rounded[i])
	}

	peak := make(ot.Tuple, len(axisOrder))
	start := make(ot.Tuple, len(axisOrder))
	end := make(ot.Tuple, len(axisOrder))
	for ai, tag := range axisOrder {
		tent := region[tag] // zero tent for unconstrained axes
		peak[ai] = ot.F2Dot14FromFloat(tent.Peak)
		start[ai] = ot.F2Dot14FromFloat(tent.Lower)
		end[ai] = ot.F2Dot14FromFloat(tent.Upper)
	}
	ds := ot.DeltaSet{Peak: peak, Start: start, End: end, Deltas: explicit}

	optimized := otvar.OptimizeDeltas(rounded, coords, ends, iupTolerance)
	kept := 0
	for _, d := range optimized {
		if d.IsSome() {
			kept++
		}
	}
	if kept == 0 {
		// a variation with zero explicit points round-trips badly;
		// keep the explicit form
		return ds
	}
	dsOpt := ds
	dsOpt.Deltas = optimized
	if ot.TupleStoreSize([]ot.DeltaSet{dsOpt}) < ot.TupleStoreSize([]ot.DeltaSet{ds}) {
		return dsOpt
	}
	return ds
}
