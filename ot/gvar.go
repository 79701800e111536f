package ot

import (
	"fmt"
	"sort"
)

// --- Gvar table ------------------------------------------------------------

// Tuple variation header flags. The low 12 bits of the tupleIndex word
// hold the shared tuple index.
const (
	embeddedPeakTuple   = 0x8000
	intermediateRegion  = 0x4000
	privatePointNumbers = 0x2000
	tupleIndexMask      = 0x0fff
)

// In the tupleVariationCount word, signifies that shared point numbers
// precede the per-tuple variation data.
const sharedPointNumbers = 0x8000

// Tuple is a design-space position in normalized 2.14 coordinates, one
// value per variation axis, in fvar axis order.
type Tuple []F2Dot14

// Delta is the movement of one outline point at the peak of a variation
// region, in font units.
type Delta struct {
	X, Y int16
}

// DeltaSet describes how a glyph's points move over one region of the
// design space: the region's peak/start/end tuples plus one entry per
// point, including the four phantom points. A None entry means the delta
// is not stored and gets inferred from neighboring points on the contour.
type DeltaSet struct {
	Peak   Tuple
	Start  Tuple
	End    Tuple
	Deltas []Option[Delta]
}

// IsIntermediate returns true if the region's start/end differ from the
// implicit region spanned by the peak alone.
func (ds DeltaSet) IsIntermediate() bool {
	for i, p := range ds.Peak {
		start, end := p, p
		if start > 0 {
			start = 0
		}
		if end < 0 {
			end = 0
		}
		if i < len(ds.Start) && ds.Start[i] != start {
			return true
		}
		if i < len(ds.End) && ds.End[i] != end {
			return true
		}
	}
	return false
}

// GvarTable contains the glyph variation data of a variable font: for
// each glyph a list of delta sets. The per-glyph tuple variation stores
// are decoded on demand (they need the glyph's point count, which lives
// in the glyf table).
type GvarTable struct {
	tableBase
	axisCnt      uint16
	SharedTuples []Tuple
	glyphCnt     int
	dataOffsets  []uint32 // glyphCnt+1 entries, relative to data start
	dataStart    uint32
	variations   [][]DeltaSet // set on the assembly path
}

func newGvarTable(tag Tag, b binarySegm, offset, size uint32) *GvarTable {
	t := &GvarTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.self = t
	return t
}

func parseGvar(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 20 {
		return nil, tableError(tag, "Size", fmt.Sprintf("gvar table too small: %d bytes (need 20)", size), offset)
	}
	t := newGvarTable(tag, b, offset, size)
	if major := b.U16(0); major != 1 {
		return nil, tableError(tag, "Version", fmt.Sprintf("unsupported gvar version %d", major), offset)
	}
	t.axisCnt = b.U16(4)
	sharedTupleCount := int(b.U16(6))
	sharedTuplesOffset := b.U32(8)
	t.glyphCnt = int(b.U16(12))
	flags := b.U16(14)
	t.dataStart = b.U32(16)

	// glyph variation data offsets; u16 offsets are halved
	t.dataOffsets = make([]uint32, t.glyphCnt+1)
	if flags&1 == 0 {
		if 20+2*(t.glyphCnt+1) > len(b) {
			return nil, tableError(tag, "Offsets", "glyph variation data offsets truncated", offset+20)
		}
		for i := range t.dataOffsets {
			t.dataOffsets[i] = uint32(b.U16(20+2*i)) * 2
		}
	} else {
		if 20+4*(t.glyphCnt+1) > len(b) {
			return nil, tableError(tag, "Offsets", "glyph variation data offsets truncated", offset+20)
		}
		for i := range t.dataOffsets {
			t.dataOffsets[i] = b.U32(20 + 4*i)
		}
	}

	tuplesSize, err := checkedMulInt(sharedTupleCount, int(t.axisCnt)*2)
	if err != nil || int(sharedTuplesOffset)+tuplesSize > len(b) {
		return nil, tableError(tag, "SharedTuples", "shared tuples truncated", offset+sharedTuplesOffset)
	}
	t.SharedTuples = make([]Tuple, sharedTupleCount)
	for i := range t.SharedTuples {
		tuple := make(Tuple, t.axisCnt)
		for a := range tuple {
			tuple[a] = F2Dot14(b.U16(int(sharedTuplesOffset) + (i*int(t.axisCnt)+a)*2))
		}
		t.SharedTuples[i] = tuple
	}
	return t, nil
}

// VariationsFor decodes the delta sets of a single glyph. pointCount is
// the glyph's outline point count plus the four phantom points; it
// determines how "all points" point-number lists expand and how many
// entries each returned delta slice carries.
func (t *GvarTable) VariationsFor(gid GlyphIndex, pointCount int) ([]DeltaSet, error) {
	if t.variations != nil {
		if int(gid) >= len(t.variations) {
			return nil, fmt.Errorf("glyph %d out of range", gid)
		}
		return t.variations[gid], nil
	}
	if int(gid) >= t.glyphCnt {
		return nil, fmt.Errorf("glyph %d out of range (gvar glyphCount=%d)", gid, t.glyphCnt)
	}
	from := t.dataStart + t.dataOffsets[gid]
	to := t.dataStart + t.dataOffsets[gid+1]
	if from > to || to > uint32(len(t.data)) {
		return nil, tableError(t.name, "GlyphVariationData",
			fmt.Sprintf("glyph %d byte range [%d:%d] invalid", gid, from, to), t.offset+from)
	}
	if from == to {
		return nil, nil // no variation data for this glyph
	}
	return t.decodeTupleStore(t.data[from:to], pointCount)
}

// decodeTupleStore decodes one glyph's tuple variation store.
func (t *GvarTable) decodeTupleStore(b binarySegm, pointCount int) ([]DeltaSet, error) {
	if len(b) < 4 {
		return nil, errFontFormat("tuple variation store truncated")
	}
	packedCount := b.U16(0)
	count := int(packedCount & tupleIndexMask)
	dataOffset := int(b.U16(2))
	if dataOffset > len(b) {
		return nil, errFontFormat("tuple variation data offset out of range")
	}

	type tvh struct {
		size       int
		flags      uint16
		tupleIndex int
		peak       Tuple
		start      Tuple
		end        Tuple
	}
	headers := make([]tvh, count)
	pos := 4
	readTuple := func() (Tuple, error) {
		tuple := make(Tuple, t.axisCnt)
		for a := range tuple {
			v, err := b.u16(pos)
			if err != nil {
				return nil, errFontFormat("tuple variation header truncated")
			}
			tuple[a] = F2Dot14(v)
			pos += 2
		}
		return tuple, nil
	}
	for i := range headers {
		size, err1 := b.u16(pos)
		index, err2 := b.u16(pos + 2)
		if err1 != nil || err2 != nil {
			return nil, errFontFormat("tuple variation header truncated")
		}
		pos += 4
		h := tvh{size: int(size), flags: index &^ tupleIndexMask, tupleIndex: int(index & tupleIndexMask)}
		if h.flags&embeddedPeakTuple != 0 {
			if h.peak, err1 = readTuple(); err1 != nil {
				return nil, err1
			}
		} else {
			if h.tupleIndex >= len(t.SharedTuples) {
				return nil, errFontFormat(fmt.Sprintf("invalid shared tuple index %d", h.tupleIndex))
			}
			h.peak = t.SharedTuples[h.tupleIndex]
		}
		if h.flags&intermediateRegion != 0 {
			if h.start, err1 = readTuple(); err1 != nil {
				return nil, err1
			}
			if h.end, err1 = readTuple(); err1 != nil {
				return nil, err1
			}
		} else {
			h.start, h.end = implicitRegion(h.peak)
		}
		headers[i] = h
	}

	// serialized data: optional shared point numbers, then per-tuple data
	pos = dataOffset
	var sharedPoints []uint16
	sharedAll := false
	if packedCount&sharedPointNumbers != 0 {
		var err error
		sharedPoints, pos, err = decodePackedPoints(b, pos)
		if err != nil {
			return nil, err
		}
		sharedAll = sharedPoints == nil
	}

	deltaSets := make([]DeltaSet, 0, count)
	for _, h := range headers {
		points := sharedPoints
		allPoints := sharedAll || (packedCount&sharedPointNumbers == 0 && h.flags&privatePointNumbers == 0)
		next := pos + h.size
		if h.flags&privatePointNumbers != 0 {
			var err error
			points, pos, err = decodePackedPoints(b, pos)
			if err != nil {
				return nil, err
			}
			allPoints = points == nil
		}
		n := len(points)
		if allPoints {
			n = pointCount
		}
		xs, pos2, err := decodePackedDeltas(b, pos, n)
		if err != nil {
			return nil, err
		}
		ys, _, err := decodePackedDeltas(b, pos2, n)
		if err != nil {
			return nil, err
		}
		deltas := make([]Option[Delta], pointCount)
		if allPoints {
			for i := 0; i < pointCount && i < n; i++ {
				deltas[i] = Some(Delta{X: xs[i], Y: ys[i]})
			}
		} else {
			for i, p := range points {
				if int(p) < pointCount {
					deltas[p] = Some(Delta{X: xs[i], Y: ys[i]})
				}
			}
		}
		deltaSets = append(deltaSets, DeltaSet{
			Peak:   h.peak,
			Start:  h.start,
			End:    h.end,
			Deltas: deltas,
		})
		pos = next
	}
	return deltaSets, nil
}

// implicitRegion is the region spanned by a peak tuple alone:
// start = min(peak, 0), end = max(peak, 0) per axis.
func implicitRegion(peak Tuple) (Tuple, Tuple) {
	start := make(Tuple, len(peak))
	end := make(Tuple, len(peak))
	for i, p := range peak {
		if p < 0 {
			start[i] = p
		} else {
			end[i] = p
		}
	}
	return start, end
}

// NewGvarTable creates a gvar table from per-glyph delta sets, for the
// font assembly path. variations carries one entry per glyph (which may
// be empty).
func NewGvarTable(axisCount int, variations [][]DeltaSet) *GvarTable {
	t := newGvarTable(T("gvar"), nil, 0, 0)
	t.axisCnt = uint16(axisCount)
	t.glyphCnt = len(variations)
	t.variations = variations
	return t
}

func encodeGvar(table Table) ([]byte, error) {
	t := table.Self().AsGvar()
	if t == nil {
		return nil, errFontFormat("gvar: not a gvar table")
	}
	if t.variations == nil {
		return t.data, nil
	}
	// Collect the peak tuples of all delta sets and share them through
	// the shared tuple array, most frequent first.
	type tupleCount struct {
		key   string
		count int
		seen  int
	}
	counts := make(map[string]*tupleCount)
	order := 0
	for _, glyph := range t.variations {
		for _, ds := range glyph {
			key := tupleKey(ds.Peak)
			if tc, ok := counts[key]; ok {
				tc.count++
			} else {
				counts[key] = &tupleCount{key: key, count: 1, seen: order}
				order++
			}
		}
	}
	sorted := make([]*tupleCount, 0, len(counts))
	for _, tc := range counts {
		sorted = append(sorted, tc)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].seen < sorted[j].seen
	})
	// the tuple index field holds 12 bits; peaks beyond that stay embedded
	if len(sorted) > tupleIndexMask {
		sorted = sorted[:tupleIndexMask]
	}
	sharedIndex := make(map[string]int, len(sorted))
	sharedTuples := newBuffer()
	for i, tc := range sorted {
		sharedIndex[tc.key] = i
		sharedTuples.PutBytes([]byte(tc.key))
	}

	// serialize each glyph's tuple variation store
	offsets := newBuffer()
	tvsData := newBuffer()
	for _, glyph := range t.variations {
		offsets.PutU32(uint32(tvsData.Len()))
		if len(glyph) == 0 {
			continue
		}
		encodeTupleStore(tvsData, glyph, sharedIndex)
		tvsData.PadToEven()
	}
	offsets.PutU32(uint32(tvsData.Len()))

	buf := newBuffer()
	buf.PutU16(1) // majorVersion
	buf.PutU16(0) // minorVersion
	buf.PutU16(t.axisCnt)
	buf.PutU16(uint16(len(sorted)))
	buf.PutU32(uint32(20 + offsets.Len()))
	buf.PutU16(uint16(t.glyphCnt))
	buf.PutU16(1) // flags: long offsets
	buf.PutU32(uint32(20 + offsets.Len() + sharedTuples.Len()))
	buf.PutBytes(offsets.Bytes())
	buf.PutBytes(sharedTuples.Bytes())
	buf.PutBytes(tvsData.Bytes())
	return buf.Bytes(), nil
}

// TupleStoreSize returns the serialized size of a tuple variation store
// holding the given delta sets, with all peaks embedded. Glyph compilers
// use it to compare candidate serializations before committing to one.
func TupleStoreSize(deltaSets []DeltaSet) int {
	buf := newBuffer()
	encodeTupleStore(buf, deltaSets, nil)
	return buf.Len()
}

func tupleKey(t Tuple) string {
	b := make([]byte, 2*len(t))
	for i, v := range t {
		b[2*i] = byte(uint16(v) >> 8)
		b[2*i+1] = byte(uint16(v))
	}
	return string(b)
}

// encodeTupleStore serializes one glyph's delta sets. Every tuple
// variation carries private point numbers; delta sets with all entries
// explicit use the one-byte "all points" form.
func encodeTupleStore(buf *buffer, deltaSets []DeltaSet, sharedIndex map[string]int) {
	headers := newBuffer()
	data := newBuffer()
	for _, ds := range deltaSets {
		points, xs, ys := splitDeltas(ds.Deltas)
		tvData := newBuffer()
		encodePackedPoints(tvData, points)
		encodePackedDeltas(tvData, xs)
		encodePackedDeltas(tvData, ys)

		flags := uint16(privatePointNumbers)
		index := 0
		if i, ok := sharedIndex[tupleKey(ds.Peak)]; ok {
			index = i
		} else {
			flags |= embeddedPeakTuple
		}
		if ds.IsIntermediate() {
			flags |= intermediateRegion
		}
		headers.PutU16(uint16(tvData.Len()))
		headers.PutU16(flags | uint16(index))
		if flags&embeddedPeakTuple != 0 {
			for _, v := range ds.Peak {
				headers.PutF2Dot14(v)
			}
		}
		if flags&intermediateRegion != 0 {
			for _, v := range ds.Start {
				headers.PutF2Dot14(v)
			}
			for _, v := range ds.End {
				headers.PutF2Dot14(v)
			}
		}
		data.PutBytes(tvData.Bytes())
	}
	buf.PutU16(uint16(len(deltaSets)))
	buf.PutU16(uint16(4 + headers.Len()))
	buf.PutBytes(headers.Bytes())
	buf.PutBytes(data.Bytes())
}

// splitDeltas separates a delta list into the explicit point numbers and
// their x/y values. All-explicit lists yield a nil point list ("all
// points").
func splitDeltas(deltas []Option[Delta]) ([]uint16, []int16, []int16) {
	explicit := 0
	for _, d := range deltas {
		if d.IsSome() {
			explicit++
		}
	}
	if explicit == len(deltas) {
		xs := make([]int16, len(deltas))
		ys := make([]int16, len(deltas))
		for i, d := range deltas {
			v := d.MustUnwrap()
			xs[i], ys[i] = v.X, v.Y
		}
		return nil, xs, ys
	}
	points := make([]uint16, 0, explicit)
	xs := make([]int16, 0, explicit)
	ys := make([]int16, 0, explicit)
	for i, d := range deltas {
		if d.IsSome() {
			v := d.MustUnwrap()
			points = append(points, uint16(i))
			xs = append(xs, v.X)
			ys = append(ys, v.Y)
		}
	}
	return points, xs, ys
}
