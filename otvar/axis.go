package otvar

import (
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/varfont/ot"
)

// Axis is one variation axis of a design space, in user-space units
// (e.g. 100…900 for a weight axis).
type Axis struct {
	Tag     ot.Tag
	Name    string
	Minimum float64
	Default float64
	Maximum float64
	Map     []AxisMapping // optional user → normalized remapping
	NameID  uint16
}

// AxisMapping is one pair of a piecewise-linear axis mapping: a user-space
// input and the normalized value it maps to. A well-formed mapping is
// monotonic and includes mappings for the axis minimum, default and
// maximum.
type AxisMapping struct {
	From float64
	To   float64
}

// Location positions a master or an instance in the design space: one
// coordinate per axis the location participates in. Whether values are in
// user space or normalized depends on context; the variation model
// operates exclusively on normalized locations.
type Location map[ot.Tag]float64

// Copy returns a shallow copy of the location.
func (loc Location) Copy() Location {
	l2 := make(Location, len(loc))
	for tag, v := range loc {
		l2[tag] = v
	}
	return l2
}

// axisTags returns the location's tags in ascending order, for
// deterministic iteration.
func (loc Location) axisTags() []ot.Tag {
	tags := make([]ot.Tag, 0, len(loc))
	for tag := range loc {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Validate checks an axis for structural consistency.
func (ax Axis) Validate() error {
	if !(ax.Minimum <= ax.Default && ax.Default <= ax.Maximum) {
		return fmt.Errorf("axis %s: minimum/default/maximum not ordered (%g/%g/%g)",
			ax.Tag, ax.Minimum, ax.Default, ax.Maximum)
	}
	for i := 1; i < len(ax.Map); i++ {
		if ax.Map[i].From < ax.Map[i-1].From || ax.Map[i].To < ax.Map[i-1].To {
			return fmt.Errorf("axis %s: mapping not monotonic at pair %d", ax.Tag, i)
		}
	}
	return nil
}

// Normalize converts a user-space coordinate to the normalized [-1,1]
// range: through the axis's piecewise-linear map if present, otherwise by
// linear scaling through (minimum, default, maximum) → (-1, 0, 1), with
// clamping outside the axis range.
func (ax Axis) Normalize(u float64) float64 {
	if len(ax.Map) > 0 {
		return piecewiseLinearMap(ax.Map, u)
	}
	return normalizeValue(u, ax.Minimum, ax.Default, ax.Maximum)
}

// NormalizeLocation converts a user-space location to normalized
// coordinates, axis by axis. Axes absent from the location default to 0.
func NormalizeLocation(axes []Axis, loc Location) Location {
	normalized := make(Location, len(axes))
	for _, ax := range axes {
		u, ok := loc[ax.Tag]
		if !ok {
			u = ax.Default
		}
		normalized[ax.Tag] = ax.Normalize(u)
	}
	return normalized
}

// ValidateLocation checks a user-space location against the declared axis
// list: every referenced axis must exist and every coordinate must lie
// within the axis's declared range. These are configuration errors,
// reported before any interpolation work.
func ValidateLocation(axes []Axis, loc Location) error {
	byTag := make(map[ot.Tag]Axis, len(axes))
	for _, ax := range axes {
		byTag[ax.Tag] = ax
	}
	for _, tag := range loc.axisTags() {
		ax, ok := byTag[tag]
		if !ok {
			return fmt.Errorf("location references undeclared axis %s", tag)
		}
		v := loc[tag]
		if v < ax.Minimum || v > ax.Maximum {
			return fmt.Errorf("axis %s: coordinate %g outside declared range [%g, %g]",
				tag, v, ax.Minimum, ax.Maximum)
		}
	}
	return nil
}

// otRound rounds the way OpenType mandates: floor(x + 0.5).
func otRound(value float64) int {
	return int(math.Floor(value + 0.5))
}

// otCmp compares two values in their 2.14 fixed-point representation, so
// that values indistinguishable after packing count as equal.
func otCmp(a, b float64) int {
	ra, rb := otRound(a*16384.0), otRound(b*16384.0)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// piecewiseLinearMap remaps a value through a list of mapping pairs:
// exact matches (in 2.14 precision) short-circuit, values beyond the
// mapped range are extended linearly with slope 1, values in between are
// interpolated between the bracketing pairs.
func piecewiseLinearMap(mapping []AxisMapping, value float64) float64 {
	for _, m := range mapping {
		if otCmp(m.From, value) == 0 {
			return m.To
		}
	}
	if len(mapping) == 0 {
		return value
	}
	first := mapping[0]
	if otCmp(value, first.From) < 0 {
		return value + first.To - first.From
	}
	last := mapping[len(mapping)-1]
	if otCmp(value, last.From) > 0 {
		return value + last.To - last.From
	}
	// bracketing pairs: greatest below, smallest above
	var a, b AxisMapping
	haveA, haveB := false, false
	for _, m := range mapping {
		if otCmp(m.From, value) < 0 && (!haveA || otCmp(m.From, a.From) > 0) {
			a, haveA = m, true
		}
		if otCmp(m.From, value) > 0 && (!haveB || otCmp(m.From, b.From) < 0) {
			b, haveB = m, true
		}
	}
	return a.To + (b.To-a.To)*(value-a.From)/(b.From-a.From)
}

// normalizeValue scales a value along a min/default/max triple to the
// range -1/0/1, clamping outside [min, max].
func normalizeValue(v, min, def, max float64) float64 {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	switch {
	case v < def:
		return -(def - v) / (def - min)
	case v > def:
		return (v - def) / (max - def)
	}
	return 0
}

// FvarAxes converts the axis list to fvar axis records.
func FvarAxes(axes []Axis) []ot.VariationAxis {
	out := make([]ot.VariationAxis, len(axes))
	for i, ax := range axes {
		nameID := ax.NameID
		if nameID == 0 {
			nameID = uint16(256 + i)
		}
		out[i] = ot.VariationAxis{
			Tag:     ax.Tag,
			Minimum: ot.FixedFromFloat(ax.Minimum),
			Default: ot.FixedFromFloat(ax.Default),
			Maximum: ot.FixedFromFloat(ax.Maximum),
			NameID:  nameID,
		}
	}
	return out
}

// AvarMaps converts the axes' piecewise-linear mappings to avar segment
// maps, one per axis in axis order. Axes without a mapping get an empty
// segment map. The second return is false when no axis carries a mapping,
// in which case the font needs no avar table.
func AvarMaps(axes []Axis) ([]ot.SegmentMap, bool) {
	maps := make([]ot.SegmentMap, len(axes))
	any := false
	for i, ax := range axes {
		if len(ax.Map) == 0 {
			continue
		}
		any = true
		sm := make(ot.SegmentMap, 0, len(ax.Map)+3)
		seen := map[ot.F2Dot14]bool{}
		add := func(from, to float64) {
			f := ot.F2Dot14FromFloat(from)
			if !seen[f] {
				seen[f] = true
				sm = append(sm, ot.AxisValueMap{From: f, To: ot.F2Dot14FromFloat(to)})
			}
		}
		// anchor points, then the axis's own pairs in normalized space
		add(-1, -1)
		add(0, 0)
		add(1, 1)
		for _, m := range ax.Map {
			add(normalizeValue(m.From, ax.Minimum, ax.Default, ax.Maximum), m.To)
		}
		sort.Slice(sm, func(a, b int) bool { return int16(sm[a].From) < int16(sm[b].From) })
		maps[i] = sm
	}
	return maps, any
}
