package otvar

import (
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/varfont/ot"
)

// Tent is the per-axis support of a variation region: the contribution
// ramps from 0 at Lower to 1 at Peak and back to 0 at Upper.
type Tent struct {
	Lower float64
	Peak  float64
	Upper float64
}

// Region is the sub-region of the design space over which one master's
// deltas apply: one tent per axis the master constrains. Axes absent from
// the region are unconstrained.
type Region map[ot.Tag]Tent

// axisTags returns the region's tags in ascending order.
func (r Region) axisTags() []ot.Tag {
	tags := make([]ot.Tag, 0, len(r))
	for tag := range r {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SupportScalar returns the contribution of a region at a location: the
// product of the per-axis tent factors. A peak of 0 on an axis means the
// axis imposes no constraint. Outside [Lower, Upper] the factor saturates
// to 0, never negative.
func SupportScalar(loc Location, region Region) float64 {
	scalar := 1.0
	for _, axis := range region.axisTags() {
		tent := region[axis]
		lower, peak, upper := tent.Lower, tent.Peak, tent.Upper
		if peak == 0 {
			continue
		}
		if lower > peak || peak > upper {
			continue
		}
		if lower < 0 && upper > 0 {
			continue
		}
		v := loc[axis]
		if v == peak {
			continue
		}
		if v <= lower || upper <= v {
			return 0
		}
		if v < peak {
			scalar *= (v - lower) / (peak - lower)
		} else {
			scalar *= (v - upper) / (peak - upper)
		}
	}
	return scalar
}

// VariationModel determines the supports and delta weights for a set of
// master locations, including intermediate masters. Locations must be
// provided in normalized coordinates.
type VariationModel struct {
	// Locations is the canonically sorted list of master locations, with
	// zero coordinates dropped. The default master (empty location) sorts
	// first.
	Locations []Location
	// Supports holds the region computed for each sorted location.
	Supports []Region
	// AxisOrder is the axis priority provided by the caller.
	AxisOrder []ot.Tag
	// OriginalLocations is the unsorted input.
	OriginalLocations []Location

	sortOrder    []int // sorted position → original index
	deltaWeights []map[int]float64
}

// NewVariationModel creates a variation model for a list of normalized
// master locations. The list must contain the default location (all
// zeros, or empty).
func NewVariationModel(locations []Location, axisOrder []ot.Tag) (*VariationModel, error) {
	original := make([]Location, len(locations))
	stripped := make([]Location, len(locations))
	hasDefault := false
	for i, loc := range locations {
		original[i] = loc.Copy()
		l2 := make(Location, len(loc))
		for tag, v := range loc {
			if v != 0 {
				l2[tag] = v
			}
		}
		stripped[i] = l2
		if len(l2) == 0 {
			hasDefault = true
		}
	}
	if !hasDefault {
		return nil, fmt.Errorf("master locations do not include the default location")
	}

	// axes pinned by single-axis masters; those values sort as "on-point"
	axisPoints := make(map[ot.Tag]map[int]bool)
	for _, loc := range stripped {
		if len(loc) != 1 {
			continue
		}
		for tag, v := range loc {
			if axisPoints[tag] == nil {
				axisPoints[tag] = map[int]bool{0: true}
			}
			axisPoints[tag][otRound(v*16384.0)] = true
		}
	}
	onPointCount := func(loc Location) int {
		n := 0
		for tag, v := range loc {
			if pts := axisPoints[tag]; pts != nil && pts[otRound(v*16384.0)] {
				n++
			}
		}
		return n
	}

	order := make([]int, len(stripped))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := stripped[order[x]], stripped[order[y]]
		if c := compareLocations(a, b, axisOrder, onPointCount); c != 0 {
			return c < 0
		}
		return false
	})

	m := &VariationModel{
		Locations:         make([]Location, len(order)),
		AxisOrder:         axisOrder,
		OriginalLocations: original,
		sortOrder:         order,
	}
	for i, origIdx := range order {
		m.Locations[i] = stripped[origIdx]
	}
	m.computeMasterSupports()
	m.computeDeltaWeights()
	tracer().Debugf("variation model over %d masters, %d axes", len(m.Locations), len(axisOrder))
	return m, nil
}

// compareLocations is the canonical master ordering: fewer axes first,
// then more on-point axes, then axes ranked by the caller's axis order
// (axes not listed there sort last, by tag), then sign, then magnitude.
func compareLocations(a, b Location, axisOrder []ot.Tag, onPointCount func(Location) int) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	if pa, pb := onPointCount(a), onPointCount(b); pa != pb {
		if pa > pb { // more on-point axes sort earlier
			return -1
		}
		return 1
	}
	aAxes := rankedAxisTags(a, axisOrder)
	bAxes := rankedAxisTags(b, axisOrder)
	for i := range aAxes {
		ai, aok := axisOrderIndex(axisOrder, aAxes[i])
		bi, bok := axisOrderIndex(axisOrder, bAxes[i])
		switch {
		case aok && !bok:
			return -1
		case bok && !aok:
			return 1
		case aok && bok && ai != bi:
			if ai < bi {
				return -1
			}
			return 1
		}
	}
	for i := range aAxes {
		if aAxes[i] != bAxes[i] {
			if aAxes[i] < bAxes[i] {
				return -1
			}
			return 1
		}
	}
	for _, tag := range aAxes {
		sa, sb := math.Signbit(a[tag]), math.Signbit(b[tag])
		if sa != sb {
			if sa { // negative sorts before positive
				return -1
			}
			return 1
		}
	}
	for _, tag := range aAxes {
		aa, ab := math.Abs(a[tag]), math.Abs(b[tag])
		if aa != ab {
			if aa < ab {
				return -1
			}
			return 1
		}
	}
	return 0
}

// rankedAxisTags lists a location's axes with the ranked ones (those
// appearing in axisOrder) first, each group sorted by tag.
func rankedAxisTags(loc Location, axisOrder []ot.Tag) []ot.Tag {
	tags := loc.axisTags()
	sort.Slice(tags, func(i, j int) bool {
		_, iRanked := axisOrderIndex(axisOrder, tags[i])
		_, jRanked := axisOrderIndex(axisOrder, tags[j])
		if iRanked != jRanked {
			return iRanked
		}
		return tags[i] < tags[j]
	})
	return tags
}

func axisOrderIndex(axisOrder []ot.Tag, tag ot.Tag) (int, bool) {
	for i, t := range axisOrder {
		if t == tag {
			return i, true
		}
	}
	return 0, false
}

// locationsToRegions derives the initial region for each location: per
// axis, a tent with the master's own coordinate as peak and the axis
// extreme on the peak's side of zero as the outer edge.
func locationsToRegions(locations []Location) []Region {
	axisMin := make(map[ot.Tag]float64)
	axisMax := make(map[ot.Tag]float64)
	for _, loc := range locations {
		for tag, v := range loc {
			if cur, ok := axisMin[tag]; !ok || v < cur {
				axisMin[tag] = v
			}
			if cur, ok := axisMax[tag]; !ok || v > cur {
				axisMax[tag] = v
			}
		}
	}
	regions := make([]Region, len(locations))
	for i, loc := range locations {
		region := make(Region, len(loc))
		for tag, v := range loc {
			if v > 0 {
				region[tag] = Tent{Lower: 0, Peak: v, Upper: axisMax[tag]}
			} else {
				region[tag] = Tent{Lower: axisMin[tag], Peak: v, Upper: 0}
			}
		}
		regions[i] = region
	}
	return regions
}

// computeMasterSupports narrows each master's region against the earlier
// masters, so that an intermediate master's tent ends where its neighbor
// peaks.
func (m *VariationModel) computeMasterSupports() {
	regions := locationsToRegions(m.Locations)
	m.Supports = make([]Region, 0, len(regions))
	for i, region := range regions {
		narrowed := make(Region, len(region))
		for tag, tent := range region {
			narrowed[tag] = tent
		}
		for _, prev := range regions[:i] {
			// only earlier regions over a subset of this region's axes matter
			subset := true
			for tag := range prev {
				if _, ok := region[tag]; !ok {
					subset = false
					break
				}
			}
			if !subset {
				continue
			}
			relevant := true
			for tag, tent := range region {
				prevTent, ok := prev[tag]
				if !ok {
					relevant = false
					break
				}
				if !(prevTent.Peak == tent.Peak || (tent.Lower < prevTent.Peak && prevTent.Peak < tent.Upper)) {
					relevant = false
					break
				}
			}
			if !relevant {
				continue
			}
			// narrow the axis (or axes) where the earlier peak cuts away
			// the smallest fraction of this region
			bestAxes := make(Region)
			bestRatio := -1.0
			for _, tag := range prev.axisTags() {
				val := prev[tag].Peak
				tent := region[tag]
				lower, locV, upper := tent.Lower, tent.Peak, tent.Upper
				newLower, newUpper := lower, upper
				var ratio float64
				switch {
				case val < locV:
					newLower = val
					ratio = (val - locV) / (lower - locV)
				case locV < val:
					newUpper = val
					ratio = (val - locV) / (upper - locV)
				default:
					continue
				}
				if ratio > bestRatio {
					bestRatio = ratio
					bestAxes = make(Region)
				}
				if ratio == bestRatio {
					bestAxes[tag] = Tent{Lower: newLower, Peak: locV, Upper: newUpper}
				}
			}
			for tag, tent := range bestAxes {
				narrowed[tag] = tent
			}
		}
		m.Supports = append(m.Supports, narrowed)
	}
}

// computeDeltaWeights records, for each master, how much the earlier
// masters' regions contribute at its location.
func (m *VariationModel) computeDeltaWeights() {
	m.deltaWeights = make([]map[int]float64, len(m.Locations))
	for i, loc := range m.Locations {
		weights := make(map[int]float64)
		for j, support := range m.Supports[:i] {
			if scalar := SupportScalar(loc, support); scalar != 0 {
				weights[j] = scalar
			}
		}
		m.deltaWeights[i] = weights
	}
}

// Deltas computes the regional deltas for one value vector per master.
// masterValues is indexed like OriginalLocations; a nil vector means the
// master defines no value for this quantity and is skipped (the default
// master's vector is mandatory). All non-nil vectors must have the same
// length.
//
// The returned deltas and regions are parallel slices: the value at a
// location reconstructs as Σ SupportScalar(loc, region_i) × delta_i.
func (m *VariationModel) Deltas(masterValues [][]float64) ([][]float64, []Region, error) {
	present := make([]Location, 0, len(masterValues))
	values := make([][]float64, 0, len(masterValues))
	for i, v := range masterValues {
		if v == nil {
			continue
		}
		if i >= len(m.OriginalLocations) {
			return nil, nil, fmt.Errorf("master value %d has no location", i)
		}
		present = append(present, m.OriginalLocations[i])
		values = append(values, v)
	}
	sub, err := NewVariationModel(present, m.AxisOrder)
	if err != nil {
		return nil, nil, err
	}
	deltas := make([][]float64, len(values))
	regions := make([]Region, len(values))
	for ix, weights := range sub.deltaWeights {
		value := values[sub.sortOrder[ix]]
		delta := make([]float64, len(value))
		copy(delta, value)
		idxs := make([]int, 0, len(weights))
		for j := range weights {
			idxs = append(idxs, j)
		}
		sort.Ints(idxs)
		for _, j := range idxs {
			weight := weights[j]
			prev := deltas[j]
			if len(prev) != len(delta) {
				return nil, nil, fmt.Errorf("master value vectors disagree in length (%d vs %d)", len(prev), len(delta))
			}
			for k := range delta {
				delta[k] -= prev[k] * weight
			}
		}
		deltas[ix] = delta
		regions[ix] = sub.Supports[ix]
	}
	return deltas, regions, nil
}

// Interpolate reconstructs a value vector at a normalized location from
// regional deltas, as produced by Deltas.
func Interpolate(loc Location, deltas [][]float64, regions []Region) []float64 {
	if len(deltas) == 0 {
		return nil
	}
	out := make([]float64, len(deltas[0]))
	for i, delta := range deltas {
		scalar := SupportScalar(loc, regions[i])
		if scalar == 0 {
			continue
		}
		for k := range out {
			out[k] += scalar * delta[k]
		}
	}
	return out
}
