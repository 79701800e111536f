package ot

import "fmt"

// --- HMtx table ------------------------------------------------------------

// HMtxTable contains metric information for the horizontal layout of each
// glyph in the font. Each element in the contained metrics array has two
// parts: the advance width and left side bearing. The value
// NumberOfHMetrics is taken from the `hhea` table; glyphs beyond that
// count share the advance width of the last long record and carry only a
// left side bearing. Both counts are copied into the HMtxTable during font
// consistency wiring, which is why the record arrays are materialized
// on first access rather than at parse time.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	glyphCnt         int
	longMetrics      []HMetricRecord
	leftSideBearings []int16
}

// HMetricRecord is one long horizontal metric record from table hmtx.
type HMetricRecord struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
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

// NewHMtxTable creates an hmtx table from per-glyph metric records, for
// the font assembly path. Every glyph gets a long record; the write path
// does not compress trailing equal advances.
func NewHMtxTable(metrics []HMetricRecord) *HMtxTable {
	t := newHMtxTable(T("hmtx"), nil, 0, 0)
	t.longMetrics = metrics
	t.NumberOfHMetrics = len(metrics)
	t.glyphCnt = len(metrics)
	return t
}

func parseHMtx(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size == 0 {
		return nil, tableError(tag, "Size", "hmtx table empty", offset)
	}
	// record arrays need counts from hhea and maxp; see materialize
	return newHMtxTable(tag, b, offset, size), nil
}

// materialize decodes the metric records. Requires NumberOfHMetrics and
// glyphCnt to have been wired from hhea and maxp.
func (t *HMtxTable) materialize() error {
	if t.longMetrics != nil {
		return nil
	}
	n, g := t.NumberOfHMetrics, t.glyphCnt
	if n < 0 || n > g {
		return fmt.Errorf("invalid numberOfHMetrics %d (numGlyphs=%d)", n, g)
	}
	required := n*4 + (g-n)*2
	if required > len(t.data) {
		return fmt.Errorf("hmtx table too small: need %d bytes, have %d", required, len(t.data))
	}
	longMetrics := make([]HMetricRecord, n)
	for i := 0; i < n; i++ {
		longMetrics[i] = HMetricRecord{
			AdvanceWidth:    t.data.U16(i * 4),
			LeftSideBearing: int16(t.data.U16(i*4 + 2)),
		}
	}
	leftSideBearings := make([]int16, g-n)
	base := n * 4
	for i := range leftSideBearings {
		leftSideBearings[i] = int16(t.data.U16(base + i*2))
	}
	t.longMetrics = longMetrics
	t.leftSideBearings = leftSideBearings
	return nil
}

// Metrics returns advance width and left side bearing for a glyph. Glyphs
// past NumberOfHMetrics share the last long record's advance width.
func (t *HMtxTable) Metrics(gid GlyphIndex) (HMetricRecord, error) {
	if err := t.materialize(); err != nil {
		return HMetricRecord{}, err
	}
	if int(gid) >= t.glyphCnt {
		return HMetricRecord{}, fmt.Errorf("glyph %d out of range (numGlyphs=%d)", gid, t.glyphCnt)
	}
	if int(gid) < len(t.longMetrics) {
		return t.longMetrics[gid], nil
	}
	rec := HMetricRecord{LeftSideBearing: t.leftSideBearings[int(gid)-len(t.longMetrics)]}
	if len(t.longMetrics) > 0 {
		rec.AdvanceWidth = t.longMetrics[len(t.longMetrics)-1].AdvanceWidth
	}
	return rec, nil
}

func encodeHMtx(table Table) ([]byte, error) {
	t := table.Self().AsHMtx()
	if t == nil {
		return nil, errFontFormat("hmtx: not a hmtx table")
	}
	if err := t.materialize(); err != nil {
		return nil, err
	}
	buf := newBuffer()
	for _, m := range t.longMetrics {
		buf.PutU16(m.AdvanceWidth)
		buf.PutI16(m.LeftSideBearing)
	}
	for _, lsb := range t.leftSideBearings {
		buf.PutI16(lsb)
	}
	return buf.Bytes(), nil
}
