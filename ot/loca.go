package ot

// --- Loca table ------------------------------------------------------------

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table. A font with N glyphs
// carries N+1 entries; the byte range of glyph i is [loca[i], loca[i+1]).
// By definition, index zero points to the “missing character”.
//
// The offset format (short/long) is stated in head.indexToLocFormat and is
// wired into the LocaTable during font consistency checking.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid GlyphIndex) uint32 // returns glyph location for glyph gid
	locCnt  int                                       // number of location entries (numGlyphs + 1)
	offsets []uint32                                  // set on the assembly path
	long    bool                                      // offset format for encoding
}

// IndexToLocation offsets, indexed by glyph IDs, which provide the location
// of each glyph data block within the 'glyf' table.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) uint32 {
	return t.inx2loc(t, gid)
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.inx2loc = shortLocaVersion // may get changed by font consistency check
	t.locCnt = 0                 // has to be set during consistency check
	t.self = t
	return t
}

// NewLocaTable creates a loca table from glyph data offsets (numGlyphs+1
// entries, ascending, relative to the start of the glyf table), for the
// font assembly path. long selects the 32-bit offset format; the short
// format halves each offset and requires all offsets to be even and below
// 0x20000.
func NewLocaTable(offsets []uint32, long bool) *LocaTable {
	t := newLocaTable(T("loca"), nil, 0, 0)
	t.offsets = offsets
	t.locCnt = len(offsets)
	t.long = long
	t.inx2loc = builtLocaVersion
	return t
}

func parseLoca(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	return newLocaTable(tag, b, offset, size), nil
}

func shortLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	// in case of error link to 'missing character' at location 0
	if gid >= GlyphIndex(t.locCnt) {
		return 0
	}
	loc, err := t.data.u16(int(gid) * 2)
	if err != nil {
		return 0
	}
	return uint32(loc) * 2
}

func longLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	// in case of error link to 'missing character' at location 0
	if gid >= GlyphIndex(t.locCnt) {
		return 0
	}
	loc, err := t.data.u32(int(gid) * 4)
	if err != nil {
		return 0
	}
	return loc
}

func builtLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	if int(gid) >= len(t.offsets) {
		return 0
	}
	return t.offsets[gid]
}

func encodeLoca(table Table) ([]byte, error) {
	t := table.Self().AsLoca()
	if t == nil {
		return nil, errFontFormat("loca: not a loca table")
	}
	if t.offsets == nil {
		// parsed table, never rebuilt: emit verbatim
		return t.data, nil
	}
	buf := newBuffer()
	for _, off := range t.offsets {
		if t.long {
			buf.PutU32(off)
		} else {
			buf.PutU16(uint16(off / 2))
		}
	}
	return buf.Bytes(), nil
}
