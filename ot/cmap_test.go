package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestCmapFormat4RoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	m := map[rune]GlyphIndex{
		'A': 1, 'B': 2, 'C': 3, // one consecutive segment
		'a': 7,
		'!': 12,
	}
	data, err := encodeCmap(NewCmapTable(m))
	if err != nil {
		t.Fatal(err)
	}
	b := binarySegm(data)
	if b.U16(0) != 0 || b.U16(2) != 2 {
		t.Errorf("cmap header: version %d, %d records", b.U16(0), b.U16(2))
	}
	subOffset := int(b.U32(8))
	if format := b.U16(subOffset); format != 4 {
		t.Fatalf("expected a format 4 subtable for BMP input, got %d", format)
	}
	reparsed, err := parseCmap(T("cmap"), data, 0, uint32(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	c2 := reparsed.Self().AsCmap()
	if c2 == nil {
		t.Fatal("cannot promote reparsed table to cmap")
	}
	if len(c2.Map) != len(m) {
		t.Errorf("mapping size changed: got %d, want %d", len(c2.Map), len(m))
	}
	for r, gid := range m {
		if got := c2.Lookup(r); got != gid {
			t.Errorf("lookup %q: got %d, want %d", r, got, gid)
		}
	}
	if got := c2.Lookup('z'); got != 0 {
		t.Errorf("unmapped code point should yield .notdef, got %d", got)
	}
}

func TestCmapFormat12RoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	m := map[rune]GlyphIndex{
		'A':     1,
		0x1F600: 2, // forces the full-repertoire format
		0x1F601: 3,
	}
	data, err := encodeCmap(NewCmapTable(m))
	if err != nil {
		t.Fatal(err)
	}
	b := binarySegm(data)
	subOffset := int(b.U32(8))
	if format := b.U16(subOffset); format != 12 {
		t.Fatalf("expected a format 12 subtable beyond the BMP, got %d", format)
	}
	reparsed, err := parseCmap(T("cmap"), data, 0, uint32(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	c2 := reparsed.Self().AsCmap()
	for r, gid := range m {
		if got := c2.Lookup(r); got != gid {
			t.Errorf("lookup %#x: got %d, want %d", r, got, gid)
		}
	}
}

func TestCmapEmptyMap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	data, err := encodeCmap(NewCmapTable(nil))
	if err != nil {
		t.Fatal(err)
	}
	reparsed, err := parseCmap(T("cmap"), data, 0, uint32(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if c2 := reparsed.Self().AsCmap(); len(c2.Map) != 0 {
		t.Errorf("empty mapping round-tripped to %d entries", len(c2.Map))
	}
}

func TestPostRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	post := NewPostTable()
	post.ItalicAngle = FixedFromFloat(-12.5)
	post.UnderlinePosition = -100
	post.UnderlineThickness = 50
	data, err := encodePost(post)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 32 {
		t.Errorf("expected post to encode to 32 bytes, got %d", len(data))
	}
	reparsed, err := parsePost(T("post"), data, 0, uint32(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	p2 := reparsed.Self().AsPost()
	if p2 == nil {
		t.Fatal("cannot promote reparsed table to post")
	}
	if p2.Version != postVersion30 {
		t.Errorf("post version corrupted: %08x", uint32(p2.Version))
	}
	if p2.ItalicAngle != FixedFromFloat(-12.5) || p2.UnderlinePosition != -100 {
		t.Errorf("post fields corrupted: angle %08x, position %d",
			uint32(p2.ItalicAngle), p2.UnderlinePosition)
	}
}

func TestOS2RoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	os2 := NewOS2Table()
	os2.XAvgCharWidth = 512
	os2.TypoAscender = 750
	os2.TypoDescender = -250
	os2.WinAscent = 750
	os2.WinDescent = 250
	os2.FirstCharIndex = 'A'
	os2.LastCharIndex = 'z'
	os2.XHeight = 500
	os2.CapHeight = 700
	data, err := encodeOS2(os2)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 96 {
		t.Errorf("expected OS/2 version 4 to encode to 96 bytes, got %d", len(data))
	}
	reparsed, err := parseOS2(T("OS/2"), data, 0, uint32(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	o2 := reparsed.Self().AsOS2()
	if o2 == nil {
		t.Fatal("cannot promote reparsed table to OS/2")
	}
	if o2.Version != 4 || o2.VendID != T("NONE") {
		t.Errorf("OS/2 header corrupted: version %d, vendor %s", o2.Version, o2.VendID)
	}
	if o2.XAvgCharWidth != 512 || o2.TypoAscender != 750 || o2.TypoDescender != -250 {
		t.Errorf("OS/2 metrics corrupted: %d/%d/%d",
			o2.XAvgCharWidth, o2.TypoAscender, o2.TypoDescender)
	}
	if o2.FirstCharIndex != 'A' || o2.LastCharIndex != 'z' {
		t.Errorf("OS/2 char range corrupted: %04x..%04x", o2.FirstCharIndex, o2.LastCharIndex)
	}
	if o2.XHeight != 500 || o2.CapHeight != 700 || o2.BreakChar != 32 {
		t.Errorf("OS/2 version 2 fields corrupted: %d/%d/%d",
			o2.XHeight, o2.CapHeight, o2.BreakChar)
	}
}
