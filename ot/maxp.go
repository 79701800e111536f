package ot

import "fmt"

// --- MaxP table ------------------------------------------------------------

// MaxPTable establishes the memory requirements for this font.
// Fonts with CFF data use version 0.5 of this table, specifying only the
// NumGlyphs field. Fonts with TrueType outlines use version 1.0, where all
// fields are required. Whenever NumGlyphs changes, other tables which
// depend on it (loca, hmtx, gvar) have to be updated as well.
type MaxPTable struct {
	tableBase
	Version               Fixed
	NumGlyphs             int
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

const (
	maxpVersion05 = Fixed(0x00005000)
	maxpVersion10 = Fixed(0x00010000)
)

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
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

// NewMaxPTable creates an empty version 1.0 maxp table for the font
// assembly path.
func NewMaxPTable() *MaxPTable {
	t := newMaxPTable(T("maxp"), nil, 0, 0)
	t.Version = maxpVersion10
	t.MaxZones = 1
	return t
}

func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, tableError(tag, "Size", fmt.Sprintf("maxp table too small: %d bytes (need 6)", size), offset)
	}
	t := newMaxPTable(tag, b, offset, size)
	t.Version = Fixed(b.U32(0))
	t.NumGlyphs = int(b.U16(4))
	if t.Version == maxpVersion05 {
		return t, nil
	}
	if t.Version != maxpVersion10 {
		return nil, tableError(tag, "Version", fmt.Sprintf("unsupported maxp version %08x", uint32(t.Version)), offset)
	}
	if size < 32 {
		return nil, tableError(tag, "Size", fmt.Sprintf("maxp 1.0 table too small: %d bytes (need 32)", size), offset)
	}
	t.MaxPoints = b.U16(6)
	t.MaxContours = b.U16(8)
	t.MaxCompositePoints = b.U16(10)
	t.MaxCompositeContours = b.U16(12)
	t.MaxZones = b.U16(14)
	t.MaxTwilightPoints = b.U16(16)
	t.MaxStorage = b.U16(18)
	t.MaxFunctionDefs = b.U16(20)
	t.MaxInstructionDefs = b.U16(22)
	t.MaxStackElements = b.U16(24)
	t.MaxSizeOfInstructions = b.U16(26)
	t.MaxComponentElements = b.U16(28)
	t.MaxComponentDepth = b.U16(30)
	return t, nil
}

func encodeMaxP(table Table) ([]byte, error) {
	t := table.Self().AsMaxP()
	if t == nil {
		return nil, errFontFormat("maxp: not a maxp table")
	}
	buf := newBuffer()
	buf.PutU32(uint32(t.Version))
	buf.PutU16(uint16(t.NumGlyphs))
	if t.Version == maxpVersion05 {
		return buf.Bytes(), nil
	}
	buf.PutU16(t.MaxPoints)
	buf.PutU16(t.MaxContours)
	buf.PutU16(t.MaxCompositePoints)
	buf.PutU16(t.MaxCompositeContours)
	buf.PutU16(t.MaxZones)
	buf.PutU16(t.MaxTwilightPoints)
	buf.PutU16(t.MaxStorage)
	buf.PutU16(t.MaxFunctionDefs)
	buf.PutU16(t.MaxInstructionDefs)
	buf.PutU16(t.MaxStackElements)
	buf.PutU16(t.MaxSizeOfInstructions)
	buf.PutU16(t.MaxComponentElements)
	buf.PutU16(t.MaxComponentDepth)
	return buf.Bytes(), nil
}
