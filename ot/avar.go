package ot

import "fmt"

// --- Avar table ------------------------------------------------------------

// AxisValueMap is one (fromCoordinate, toCoordinate) pair of an avar
// segment map, both in normalized 2.14 coordinates.
type AxisValueMap struct {
	From F2Dot14
	To   F2Dot14
}

// SegmentMap is the piecewise-linear remapping for one axis. A valid map
// carries the three anchor mappings -1→-1, 0→0 and 1→1 (possibly among
// others); an empty map means the axis is not remapped.
type SegmentMap []AxisValueMap

// AvarTable modifies the normalized coordinates of the design space: after
// the default normalization from fvar axis extents, each coordinate is run
// through its axis's segment map.
type AvarTable struct {
	tableBase
	Maps []SegmentMap // one per axis, in fvar axis order
}

func newAvarTable(tag Tag, b binarySegm, offset, size uint32) *AvarTable {
	t := &AvarTable{}
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

// NewAvarTable creates an avar table for the font assembly path.
func NewAvarTable(maps []SegmentMap) *AvarTable {
	t := newAvarTable(T("avar"), nil, 0, 0)
	t.Maps = maps
	return t
}

func parseAvar(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 8 {
		return nil, tableError(tag, "Size", fmt.Sprintf("avar table too small: %d bytes (need 8)", size), offset)
	}
	if major := b.U16(0); major != 1 {
		return nil, tableError(tag, "Version", fmt.Sprintf("unsupported avar version %d", major), offset)
	}
	t := newAvarTable(tag, b, offset, size)
	axisCount := int(b.U16(6))
	pos := 8
	t.Maps = make([]SegmentMap, axisCount)
	for a := 0; a < axisCount; a++ {
		cnt, err := b.u16(pos)
		if err != nil {
			return nil, tableError(tag, "SegmentMaps", fmt.Sprintf("segment map %d truncated", a), offset+uint32(pos))
		}
		pos += 2
		if pos+int(cnt)*4 > len(b) {
			return nil, tableError(tag, "SegmentMaps", fmt.Sprintf("segment map %d truncated", a), offset+uint32(pos))
		}
		m := make(SegmentMap, cnt)
		for i := range m {
			m[i] = AxisValueMap{
				From: F2Dot14(b.U16(pos)),
				To:   F2Dot14(b.U16(pos + 2)),
			}
			pos += 4
		}
		if err := m.checkAnchors(); err != nil {
			return nil, tableError(tag, "SegmentMaps",
				fmt.Sprintf("segment map %d: %v", a, err), offset+uint32(pos))
		}
		t.Maps[a] = m
	}
	return t, nil
}

// checkAnchors verifies the three anchor mappings -1→-1, 0→0 and 1→1
// which every non-empty segment map must carry.
func (m SegmentMap) checkAnchors() error {
	if len(m) == 0 {
		return nil
	}
	const one = F2Dot14(16384)
	anchors := make(map[F2Dot14]bool, 3)
	for _, pair := range m {
		if pair.To == pair.From {
			anchors[pair.From] = true
		}
	}
	if !anchors[-one] || !anchors[0] || !anchors[one] {
		return fmt.Errorf("anchor mappings -1, 0, 1 incomplete")
	}
	return nil
}

func encodeAvar(table Table) ([]byte, error) {
	t := table.Self().AsAvar()
	if t == nil {
		return nil, errFontFormat("avar: not an avar table")
	}
	buf := newBuffer()
	buf.PutU16(1) // majorVersion
	buf.PutU16(0) // minorVersion
	buf.PutU16(0) // reserved
	buf.PutU16(uint16(len(t.Maps)))
	for _, m := range t.Maps {
		buf.PutU16(uint16(len(m)))
		for _, pair := range m {
			buf.PutF2Dot14(pair.From)
			buf.PutF2Dot14(pair.To)
		}
	}
	return buf.Bytes(), nil
}
