package ot

import (
	"sort"
)

// Font represents the internal structure of an OpenType font: an ordered
// directory of tables, keyed by their 4-byte tag.
//
// A Font is created either by parsing a font file (see Parse) or by
// assembling tables for a font yet to be written (see NewFont and the
// package otbuild). Tables stay raw byte ranges until typed access is
// requested; a once-decoded table is read-only thereafter.
type Font struct {
	Header      *FontHeader
	tables      map[Tag]Table
	parseErrors []FontError // errors accumulated during parsing (best-effort mode)
}

// FontHeader is a directory of the top-level tables in a font.
//
// OpenType fonts that contain TrueType outlines use the value 0x00010000
// for FontType. OpenType fonts containing CFF data (version 1 or 2) use
// 0x4F54544F ('OTTO', when re-interpreted as a Tag). The Apple
// specification for TrueType fonts additionally allows 'true'.
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// NewFont creates an empty font with a TrueType-flavoured header, ready to
// receive tables.
func NewFont() *Font {
	return &Font{
		Header: &FontHeader{FontType: 0x00010000},
		tables: make(map[Tag]Table),
	}
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// Table tag names are case-sensitive, following the names in the OpenType
// specification.
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// SetTable inserts or replaces the table for tag. A nil table removes the
// entry.
func (otf *Font) SetTable(tag Tag, t Table) {
	if t == nil {
		delete(otf.tables, tag)
		return
	}
	otf.tables[tag] = t
	otf.Header.TableCount = uint16(len(otf.tables))
}

// TableTags returns the list of tags, one for each table contained in the
// font, in ascending tag order. Ascending tag order is the order of the
// table directory in the binary file and keeps every downstream operation
// deterministic.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Errors returns all errors encountered during font parsing. These
// represent issues that were found but did not prevent parsing from
// completing (best-effort mode). Clients can inspect them to determine
// whether the font is suitable for their use case.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// HasCriticalErrors returns true if any critical errors were encountered
// during parsing. Fonts with critical errors may be unreliable.
func (otf *Font) HasCriticalErrors() bool {
	for _, err := range otf.parseErrors {
		if err.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the OpenType spec as: array of four uint8s (length =
// 32 bits) used to identify a table, design-variation axis, script,
// language system, feature, or baseline.
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("glyf"))
//
// If b is shorter or longer, it will be silently extended or cut as
// appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as
// appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
//
// Every table is backed by a byte range; tables which this package can
// interpret additionally provide a typed view, reachable through Self().
// A table's bytes are a window into the font's binary data and should be
// treated as read-only by clients.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

// genericTable is a table this package does not interpret: an opaque byte
// range, passed through verbatim on write.
type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   any
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting a
// generic table to a concrete table flavour, and for reproducing the name
// tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) any {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable {
	if k, ok := safeSelf(tself).(*NameTable); ok {
		return k
	}
	return nil
}

// AsCmap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCmap() *CmapTable {
	if k, ok := safeSelf(tself).(*CmapTable); ok {
		return k
	}
	return nil
}

// AsPost returns this table as a post table, or nil.
func (tself TableSelf) AsPost() *PostTable {
	if k, ok := safeSelf(tself).(*PostTable); ok {
		return k
	}
	return nil
}

// AsOS2 returns this table as an OS/2 table, or nil.
func (tself TableSelf) AsOS2() *OS2Table {
	if k, ok := safeSelf(tself).(*OS2Table); ok {
		return k
	}
	return nil
}

// AsFvar returns this table as an fvar table, or nil.
func (tself TableSelf) AsFvar() *FvarTable {
	if k, ok := safeSelf(tself).(*FvarTable); ok {
		return k
	}
	return nil
}

// AsAvar returns this table as an avar table, or nil.
func (tself TableSelf) AsAvar() *AvarTable {
	if k, ok := safeSelf(tself).(*AvarTable); ok {
		return k
	}
	return nil
}

// AsGvar returns this table as a gvar table, or nil.
func (tself TableSelf) AsGvar() *GvarTable {
	if k, ok := safeSelf(tself).(*GvarTable); ok {
		return k
	}
	return nil
}
