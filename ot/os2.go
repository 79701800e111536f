package ot

import "fmt"

// --- OS/2 table ------------------------------------------------------------

// OS2Table carries the OS/2 and Windows metrics. The codec reads and
// writes version 4, which is what current font compilers emit; older
// versions parse with their trailing fields left zero.
type OS2Table struct {
	tableBase
	Version            uint16
	XAvgCharWidth      int16
	WeightClass        uint16
	WidthClass         uint16
	FsType             uint16
	SubscriptXSize     int16
	SubscriptYSize     int16
	SubscriptXOffset   int16
	SubscriptYOffset   int16
	SuperscriptXSize   int16
	SuperscriptYSize   int16
	SuperscriptXOffset int16
	SuperscriptYOffset int16
	StrikeoutSize      int16
	StrikeoutPosition  int16
	FamilyClass        int16
	Panose             [10]byte
	UnicodeRange       [4]uint32
	VendID             Tag
	FsSelection        uint16
	FirstCharIndex     uint16
	LastCharIndex      uint16
	TypoAscender       int16
	TypoDescender      int16
	TypoLineGap        int16
	WinAscent          uint16
	WinDescent         uint16
	CodePageRange      [2]uint32
	XHeight            int16
	CapHeight          int16
	DefaultChar        uint16
	BreakChar          uint16
	MaxContext         uint16
}

// fsSelection flag for an upright regular style.
const fsSelectionRegular = 0x0040

func newOS2Table(tag Tag, b binarySegm, offset, size uint32) *OS2Table {
	t := &OS2Table{}
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

// NewOS2Table creates an OS/2 table with the defaults the assembly path
// fills in: version 4, vendor "NONE", regular selection.
func NewOS2Table() *OS2Table {
	t := newOS2Table(T("OS/2"), nil, 0, 0)
	t.Version = 4
	t.WeightClass = 400
	t.WidthClass = 5
	t.VendID = T("NONE")
	t.FsSelection = fsSelectionRegular
	t.BreakChar = 32
	return t
}

func parseOS2(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 78 {
		return nil, tableError(tag, "Size", fmt.Sprintf("OS/2 table too small: %d bytes (need 78)", size), offset)
	}
	t := newOS2Table(tag, b, offset, size)
	t.Version = b.U16(0)
	t.XAvgCharWidth, _ = b.i16(2)
	t.WeightClass = b.U16(4)
	t.WidthClass = b.U16(6)
	t.FsType = b.U16(8)
	t.SubscriptXSize, _ = b.i16(10)
	t.SubscriptYSize, _ = b.i16(12)
	t.SubscriptXOffset, _ = b.i16(14)
	t.SubscriptYOffset, _ = b.i16(16)
	t.SuperscriptXSize, _ = b.i16(18)
	t.SuperscriptYSize, _ = b.i16(20)
	t.SuperscriptXOffset, _ = b.i16(22)
	t.SuperscriptYOffset, _ = b.i16(24)
	t.StrikeoutSize, _ = b.i16(26)
	t.StrikeoutPosition, _ = b.i16(28)
	t.FamilyClass, _ = b.i16(30)
	for i := 0; i < 10; i++ {
		pan, _ := b.u8(32 + i)
		t.Panose[i] = pan
	}
	for i := range t.UnicodeRange {
		t.UnicodeRange[i] = b.U32(42 + 4*i)
	}
	t.VendID = Tag(b.U32(58))
	t.FsSelection = b.U16(62)
	t.FirstCharIndex = b.U16(64)
	t.LastCharIndex = b.U16(66)
	t.TypoAscender, _ = b.i16(68)
	t.TypoDescender, _ = b.i16(70)
	t.TypoLineGap, _ = b.i16(72)
	t.WinAscent = b.U16(74)
	t.WinDescent = b.U16(76)
	if t.Version >= 1 && size >= 86 {
		t.CodePageRange[0] = b.U32(78)
		t.CodePageRange[1] = b.U32(82)
	}
	if t.Version >= 2 && size >= 96 {
		t.XHeight, _ = b.i16(86)
		t.CapHeight, _ = b.i16(88)
		t.DefaultChar = b.U16(90)
		t.BreakChar = b.U16(92)
		t.MaxContext = b.U16(94)
	}
	return t, nil
}

func encodeOS2(table Table) ([]byte, error) {
	t := table.Self().AsOS2()
	if t == nil {
		return nil, errFontFormat("OS/2: not an OS/2 table")
	}
	buf := newBuffer()
	buf.PutU16(t.Version)
	buf.PutI16(t.XAvgCharWidth)
	buf.PutU16(t.WeightClass)
	buf.PutU16(t.WidthClass)
	buf.PutU16(t.FsType)
	buf.PutI16(t.SubscriptXSize)
	buf.PutI16(t.SubscriptYSize)
	buf.PutI16(t.SubscriptXOffset)
	buf.PutI16(t.SubscriptYOffset)
	buf.PutI16(t.SuperscriptXSize)
	buf.PutI16(t.SuperscriptYSize)
	buf.PutI16(t.SuperscriptXOffset)
	buf.PutI16(t.SuperscriptYOffset)
	buf.PutI16(t.StrikeoutSize)
	buf.PutI16(t.StrikeoutPosition)
	buf.PutI16(t.FamilyClass)
	buf.PutBytes(t.Panose[:])
	for _, r := range t.UnicodeRange {
		buf.PutU32(r)
	}
	buf.PutTag(t.VendID)
	buf.PutU16(t.FsSelection)
	buf.PutU16(t.FirstCharIndex)
	buf.PutU16(t.LastCharIndex)
	buf.PutI16(t.TypoAscender)
	buf.PutI16(t.TypoDescender)
	buf.PutI16(t.TypoLineGap)
	buf.PutU16(t.WinAscent)
	buf.PutU16(t.WinDescent)
	buf.PutU32(t.CodePageRange[0])
	buf.PutU32(t.CodePageRange[1])
	buf.PutI16(t.XHeight)
	buf.PutI16(t.CapHeight)
	buf.PutU16(t.DefaultChar)
	buf.PutU16(t.BreakChar)
	buf.PutU16(t.MaxContext)
	return buf.Bytes(), nil
}
