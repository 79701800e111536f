package ot

import (
	"fmt"
	"sort"
)

// --- Cmap table ------------------------------------------------------------

// CmapTable maps character codes to glyph indices. Parsing interprets the
// Unicode subtable formats 4 and 12 and flattens them into a single map;
// other formats and legacy platform encodings are skipped. Writing emits a
// format 4 subtable when every mapped code point fits the BMP, a format 12
// subtable otherwise, each announced under both the Unicode and the
// Windows platform IDs.
type CmapTable struct {
	tableBase
	Map map[rune]GlyphIndex
}

func newCmapTable(tag Tag, b binarySegm, offset, size uint32) *CmapTable {
	t := &CmapTable{}
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

// NewCmapTable creates a cmap table from a code-point mapping for the font
// assembly path. The map may be empty; the table then still carries a
// well-formed subtable, which some font consumers require.
func NewCmapTable(m map[rune]GlyphIndex) *CmapTable {
	t := newCmapTable(T("cmap"), nil, 0, 0)
	t.Map = make(map[rune]GlyphIndex, len(m))
	for r, gid := range m {
		t.Map[r] = gid
	}
	return t
}

// Lookup returns the glyph index for a code point, or 0 (.notdef) if the
// code point is unmapped.
func (t *CmapTable) Lookup(r rune) GlyphIndex {
	return t.Map[r]
}

func parseCmap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 4 {
		return nil, tableError(tag, "Size", fmt.Sprintf("cmap table too small: %d bytes", size), offset)
	}
	t := newCmapTable(tag, b, offset, size)
	t.Map = make(map[rune]GlyphIndex)
	numTables := int(b.U16(2))
	if size < uint32(4+numTables*8) {
		return nil, tableError(tag, "NumTables", "encoding records exceed table size", offset)
	}
	// prefer a full-repertoire format 12 subtable over a BMP format 4
	best, bestFormat := -1, 0
	for i := 0; i < numTables; i++ {
		rec := 4 + i*8
		platform, encoding := b.U16(rec), b.U16(rec+2)
		subOffset := int(b.U32(rec + 4))
		if !isUnicodeEncoding(platform, encoding) {
			continue
		}
		if subOffset+2 > int(size) {
			return nil, tableError(tag, "SubtableOffset", "subtable outside cmap", offset)
		}
		switch format := int(b.U16(subOffset)); format {
		case 12:
			if bestFormat < 12 {
				best, bestFormat = subOffset, 12
			}
		case 4:
			if bestFormat < 4 {
				best, bestFormat = subOffset, 4
			}
		}
	}
	if best < 0 {
		return nil, tableError(tag, "Subtables", "no supported Unicode subtable", offset)
	}
	var err error
	switch bestFormat {
	case 4:
		err = t.decodeFormat4(b, best)
	case 12:
		err = t.decodeFormat12(b, best)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func isUnicodeEncoding(platform, encoding uint16) bool {
	switch platform {
	case 0: // Unicode platform, any encoding
		return true
	case 3: // Windows platform: Unicode BMP or full repertoire
		return encoding == 1 || encoding == 10
	}
	return false
}

func (t *CmapTable) decodeFormat4(b binarySegm, at int) error {
	segCountX2 := int(b.U16(at + 6))
	segCount := segCountX2 / 2
	endCodes := at + 14
	startCodes := endCodes + segCountX2 + 2 // skips reservedPad
	idDeltas := startCodes + segCountX2
	idRangeOffsets := idDeltas + segCountX2
	if idRangeOffsets+segCountX2 > b.Size() {
		return errFontFormat("cmap: format 4 subtable truncated")
	}
	for seg := 0; seg < segCount; seg++ {
		start := int(b.U16(startCodes + seg*2))
		end := int(b.U16(endCodes + seg*2))
		delta := int(int16(b.U16(idDeltas + seg*2)))
		rangeOffset := int(b.U16(idRangeOffsets + seg*2))
		for c := start; c <= end && c != 0xffff; c++ {
			var gid int
			if rangeOffset == 0 {
				gid = (c + delta) & 0xffff
			} else {
				// rangeOffset counts bytes from its own location into
				// the trailing glyph ID array
				idx := idRangeOffsets + seg*2 + rangeOffset + (c-start)*2
				if idx+2 > b.Size() {
					return errFontFormat("cmap: glyph ID array index out of range")
				}
				gid = int(b.U16(idx))
				if gid != 0 {
					gid = (gid + delta) & 0xffff
				}
			}
			if gid != 0 {
				t.Map[rune(c)] = GlyphIndex(gid)
			}
		}
	}
	return nil
}

func (t *CmapTable) decodeFormat12(b binarySegm, at int) error {
	numGroups := int(b.U32(at + 12))
	groups := at + 16
	if groups+numGroups*12 > b.Size() {
		return errFontFormat("cmap: format 12 subtable truncated")
	}
	for i := 0; i < numGroups; i++ {
		g := groups + i*12
		start, end := int(b.U32(g)), int(b.U32(g+4))
		gid := int(b.U32(g + 8))
		for c := start; c <= end; c++ {
			t.Map[rune(c)] = GlyphIndex(gid + (c - start))
		}
	}
	return nil
}

func encodeCmap(table Table) ([]byte, error) {
	t := table.Self().AsCmap()
	if t == nil {
		return nil, errFontFormat("cmap: not a cmap table")
	}
	runes := make([]rune, 0, len(t.Map))
	bmpOnly := true
	for r := range t.Map {
		runes = append(runes, r)
		if r > 0xffff {
			bmpOnly = false
		}
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	var sub []byte
	var encodings [][2]uint16
	if bmpOnly {
		sub = encodeCmapFormat4(runes, t.Map)
		encodings = [][2]uint16{{0, 3}, {3, 1}}
	} else {
		sub = encodeCmapFormat12(runes, t.Map)
		encodings = [][2]uint16{{0, 4}, {3, 10}}
	}
	buf := newBuffer()
	buf.PutU16(0) // version
	buf.PutU16(uint16(len(encodings)))
	subOffset := uint32(4 + len(encodings)*8)
	for _, enc := range encodings {
		buf.PutU16(enc[0])
		buf.PutU16(enc[1])
		buf.PutU32(subOffset) // both records share one subtable
	}
	buf.PutBytes(sub)
	return buf.Bytes(), nil
}

// cmapSegment is a run of consecutive code points mapping to consecutive
// glyph indices.
type cmapSegment struct {
	start, end rune
	gid        GlyphIndex
}

func cmapSegments(runes []rune, m map[rune]GlyphIndex) []cmapSegment {
	var segs []cmapSegment
	for _, r := range runes {
		gid := m[r]
		if n := len(segs); n > 0 && r == segs[n-1].end+1 &&
			gid == segs[n-1].gid+GlyphIndex(r-segs[n-1].start) {
			segs[n-1].end = r
			continue
		}
		segs = append(segs, cmapSegment{start: r, end: r, gid: gid})
	}
	return segs
}

func encodeCmapFormat4(runes []rune, m map[rune]GlyphIndex) []byte {
	segs := cmapSegments(runes, m)
	segCount := len(segs) + 1 // plus the required 0xffff terminator
	searchRange := 2
	entrySelector := 0
	for searchRange*2 <= segCount*2 {
		searchRange *= 2
		entrySelector++
	}
	buf := newBuffer()
	buf.PutU16(4)
	lengthAt := buf.Len()
	buf.PutU16(0) // length, patched below
	buf.PutU16(0) // language
	buf.PutU16(uint16(segCount * 2))
	buf.PutU16(uint16(searchRange))
	buf.PutU16(uint16(entrySelector))
	buf.PutU16(uint16(segCount*2 - searchRange))
	for _, seg := range segs {
		buf.PutU16(uint16(seg.end))
	}
	buf.PutU16(0xffff)
	buf.PutU16(0) // reservedPad
	for _, seg := range segs {
		buf.PutU16(uint16(seg.start))
	}
	buf.PutU16(0xffff)
	for _, seg := range segs {
		buf.PutU16(uint16(int(seg.gid)-int(seg.start)) & 0xffff)
	}
	buf.PutU16(1) // idDelta of the terminator
	for i := 0; i <= len(segs); i++ {
		buf.PutU16(0) // idRangeOffset, deltas cover every segment
	}
	buf.PatchU16(lengthAt, uint16(buf.Len()))
	return buf.Bytes()
}

func encodeCmapFormat12(runes []rune, m map[rune]GlyphIndex) []byte {
	segs := cmapSegments(runes, m)
	buf := newBuffer()
	buf.PutU16(12)
	buf.PutU16(0) // reserved
	lengthAt := buf.Len()
	buf.PutU32(0) // length, patched below
	buf.PutU32(0) // language
	buf.PutU32(uint32(len(segs)))
	for _, seg := range segs {
		buf.PutU32(uint32(seg.start))
		buf.PutU32(uint32(seg.end))
		buf.PutU32(uint32(seg.gid))
	}
	buf.PatchU32(lengthAt, uint32(buf.Len()))
	return buf.Bytes()
}
