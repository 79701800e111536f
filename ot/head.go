package ot

import "fmt"

// --- Head table ------------------------------------------------------------

// HeadTable gives global information about the font. All fields are
// decoded eagerly, as the write path has to re-emit every one of them.
// CheckSumAdjustment is recomputed during writing (see Write) and its
// decoded value is therefore informational only.
type HeadTable struct {
	tableBase
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       Fixed
	CheckSumAdjustment uint32
	Flags              uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm         uint16 // values 16 … 16384 are valid
	Created            int64  // seconds since 1904-01-01, LONGDATETIME
	Modified           int64
	XMin               int16
	YMin               int16
	XMax               int16
	YMax               int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   uint16 // needed to interpret the loca table; 0 short, 1 long
	GlyphDataFormat    int16
}

// headMagic is the magic number every head table carries at offset 12.
const headMagic = 0x5F0F3CF5

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
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

// NewHeadTable creates an empty head table for the font assembly path.
// Callers fill in the public fields and hand the table to a Font; Write
// serializes from the fields.
func NewHeadTable() *HeadTable {
	t := newHeadTable(T("head"), nil, 0, 0)
	t.MajorVersion = 1
	t.FontRevision = FixedFromFloat(1.0)
	t.UnitsPerEm = 1000
	t.LowestRecPPEM = 6
	t.FontDirectionHint = 2
	return t
}

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, tableError(tag, "Size", fmt.Sprintf("head table too small: %d bytes (need 54)", size), offset)
	}
	t := newHeadTable(tag, b, offset, size)
	t.MajorVersion = b.U16(0)
	t.MinorVersion = b.U16(2)
	t.FontRevision = Fixed(b.U32(4))
	t.CheckSumAdjustment = b.U32(8)
	if magic := b.U32(12); magic != headMagic {
		return nil, tableError(tag, "MagicNumber", fmt.Sprintf("expected %08x, found %08x", uint32(headMagic), magic), offset+12)
	}
	t.Flags = b.U16(16)
	t.UnitsPerEm = b.U16(18)
	t.Created = int64(b.U32(20))<<32 | int64(b.U32(24))
	t.Modified = int64(b.U32(28))<<32 | int64(b.U32(32))
	t.XMin, _ = b.i16(36)
	t.YMin, _ = b.i16(38)
	t.XMax, _ = b.i16(40)
	t.YMax, _ = b.i16(42)
	t.MacStyle = b.U16(44)
	t.LowestRecPPEM = b.U16(46)
	t.FontDirectionHint, _ = b.i16(48)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat = b.U16(50)
	t.GlyphDataFormat, _ = b.i16(52)
	return t, nil
}

func encodeHead(table Table) ([]byte, error) {
	t := table.Self().AsHead()
	if t == nil {
		return nil, errFontFormat("head: not a head table")
	}
	buf := newBuffer()
	buf.PutU16(t.MajorVersion)
	buf.PutU16(t.MinorVersion)
	buf.PutFixed(t.FontRevision)
	buf.PutU32(t.CheckSumAdjustment)
	buf.PutU32(headMagic)
	buf.PutU16(t.Flags)
	buf.PutU16(t.UnitsPerEm)
	buf.PutI64(t.Created)
	buf.PutI64(t.Modified)
	buf.PutI16(t.XMin)
	buf.PutI16(t.YMin)
	buf.PutI16(t.XMax)
	buf.PutI16(t.YMax)
	buf.PutU16(t.MacStyle)
	buf.PutU16(t.LowestRecPPEM)
	buf.PutI16(t.FontDirectionHint)
	buf.PutU16(t.IndexToLocFormat)
	buf.PutI16(t.GlyphDataFormat)
	return buf.Bytes(), nil
}
