package ot

import "fmt"

// --- HHea table ------------------------------------------------------------

// HHeaTable contains information for horizontal layout. NumberOfHMetrics
// determines how many long metric records the hmtx table carries and is
// copied there during font consistency wiring.
type HHeaTable struct {
	tableBase
	MajorVersion        uint16
	MinorVersion        uint16
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	MetricDataFormat    int16
	NumberOfHMetrics    int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
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

// NewHHeaTable creates an empty hhea table for the font assembly path.
func NewHHeaTable() *HHeaTable {
	t := newHHeaTable(T("hhea"), nil, 0, 0)
	t.MajorVersion = 1
	t.CaretSlopeRise = 1
	return t
}

func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 36 {
		return nil, tableError(tag, "Size", fmt.Sprintf("hhea table too small: %d bytes (need 36)", size), offset)
	}
	t := newHHeaTable(tag, b, offset, size)
	t.MajorVersion = b.U16(0)
	t.MinorVersion = b.U16(2)
	t.Ascender, _ = b.i16(4)
	t.Descender, _ = b.i16(6)
	t.LineGap, _ = b.i16(8)
	t.AdvanceWidthMax = b.U16(10)
	t.MinLeftSideBearing, _ = b.i16(12)
	t.MinRightSideBearing, _ = b.i16(14)
	t.XMaxExtent, _ = b.i16(16)
	t.CaretSlopeRise, _ = b.i16(18)
	t.CaretSlopeRun, _ = b.i16(20)
	t.CaretOffset, _ = b.i16(22)
	// bytes 24–31 are reserved and must be zero
	t.MetricDataFormat, _ = b.i16(32)
	t.NumberOfHMetrics = int(b.U16(34))
	return t, nil
}

func encodeHHea(table Table) ([]byte, error) {
	t := table.Self().AsHHea()
	if t == nil {
		return nil, errFontFormat("hhea: not a hhea table")
	}
	buf := newBuffer()
	buf.PutU16(t.MajorVersion)
	buf.PutU16(t.MinorVersion)
	buf.PutI16(t.Ascender)
	buf.PutI16(t.Descender)
	buf.PutI16(t.LineGap)
	buf.PutU16(t.AdvanceWidthMax)
	buf.PutI16(t.MinLeftSideBearing)
	buf.PutI16(t.MinRightSideBearing)
	buf.PutI16(t.XMaxExtent)
	buf.PutI16(t.CaretSlopeRise)
	buf.PutI16(t.CaretSlopeRun)
	buf.PutI16(t.CaretOffset)
	for i := 0; i < 4; i++ { // reserved
		buf.PutI16(0)
	}
	buf.PutI16(t.MetricDataFormat)
	buf.PutU16(uint16(t.NumberOfHMetrics))
	return buf.Bytes(), nil
}
