package ot

import "fmt"

// --- Post table ------------------------------------------------------------

// PostTable holds PostScript-related font metadata. Only the 32-byte
// header is interpreted; version 2.0 glyph name data is carried through
// opaquely on parse and never written (new tables use version 3.0, which
// stores no names).
type PostTable struct {
	tableBase
	Version            Fixed
	ItalicAngle        Fixed
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       uint32
}

const postVersion30 = Fixed(0x00030000)

func newPostTable(tag Tag, b binarySegm, offset, size uint32) *PostTable {
	t := &PostTable{}
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

// NewPostTable creates a version 3.0 post table for the font assembly
// path.
func NewPostTable() *PostTable {
	t := newPostTable(T("post"), nil, 0, 0)
	t.Version = postVersion30
	return t
}

func parsePost(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 32 {
		return nil, tableError(tag, "Size", fmt.Sprintf("post table too small: %d bytes (need 32)", size), offset)
	}
	t := newPostTable(tag, b, offset, size)
	t.Version = Fixed(b.U32(0))
	t.ItalicAngle = Fixed(b.U32(4))
	t.UnderlinePosition, _ = b.i16(8)
	t.UnderlineThickness, _ = b.i16(10)
	t.IsFixedPitch = b.U32(12)
	return t, nil
}

func encodePost(table Table) ([]byte, error) {
	t := table.Self().AsPost()
	if t == nil {
		return nil, errFontFormat("post: not a post table")
	}
	if t.Version != postVersion30 && len(t.Binary()) >= 32 {
		// version 2.0 name data is not modeled; re-emit verbatim
		return t.Binary(), nil
	}
	buf := newBuffer()
	buf.PutFixed(t.Version)
	buf.PutFixed(t.ItalicAngle)
	buf.PutI16(t.UnderlinePosition)
	buf.PutI16(t.UnderlineThickness)
	buf.PutU32(t.IsFixedPitch)
	for i := 0; i < 4; i++ {
		buf.PutU32(0) // min/max memory usage hints
	}
	return buf.Bytes(), nil
}
