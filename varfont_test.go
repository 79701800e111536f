package varfont

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/varfont/ot"
	"github.com/npillmayer/varfont/otbuild"
	"github.com/npillmayer/varfont/otvar"
)

func testSource() *otbuild.Source {
	box := &ot.Glyph{
		Contours: [][]ot.Point{
			{
				{X: 40, Y: 0, OnCurve: true},
				{X: 40, Y: 700, OnCurve: true},
				{X: 460, Y: 700, OnCurve: true},
				{X: 460, Y: 0, OnCurve: true},
			},
		},
	}
	wideBox := &ot.Glyph{
		Contours: [][]ot.Point{
			{
				{X: 20, Y: 0, OnCurve: true},
				{X: 20, Y: 700, OnCurve: true},
				{X: 580, Y: 700, OnCurve: true},
				{X: 580, Y: 0, OnCurve: true},
			},
		},
	}
	return &otbuild.Source{
		Info: otbuild.FontInfo{FamilyName: "Boxy", StyleName: "Regular"},
		Axes: []otvar.Axis{
			{Tag: ot.T("wdth"), Name: "Width", Minimum: 100, Default: 100, Maximum: 200},
		},
		Masters: []otbuild.Master{
			{
				Location: otvar.Location{ot.T("wdth"): 100},
				Glyphs:   []*ot.Glyph{{}, box},
				Advances: []uint16{250, 500},
			},
			{
				Location: otvar.Location{ot.T("wdth"): 200},
				Glyphs:   []*ot.Glyph{{}, wideBox},
				Advances: []uint16{250, 600},
			},
		},
		DefaultMaster: 0,
		CharMap:       map[rune]ot.GlyphIndex{'B': 1},
	}
}

func TestCompileAndReload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont")
	defer teardown()
	//
	data, report, err := Compile(testSource())
	if err != nil {
		t.Fatal(err)
	}
	if report.HasErrors() {
		t.Fatalf("unexpected incompatibilities: %s", report.Error())
	}
	otf, err := FromBinary(data)
	if err != nil {
		t.Fatal(err)
	}
	family, subfamily := FamilyName(otf)
	if family != "Boxy" || subfamily != "Regular" {
		t.Errorf("font names: got %q/%q", family, subfamily)
	}
	for _, tag := range []string{"fvar", "gvar", "glyf", "cmap"} {
		if otf.Table(ot.T(tag)) == nil {
			t.Errorf("compiled font misses a %s table", tag)
		}
	}
}

func TestCompileIncompatibleMasters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont")
	defer teardown()
	//
	src := testSource()
	src.Masters[1].Glyphs[1] = &ot.Glyph{
		Contours: [][]ot.Point{
			{
				{X: 0, Y: 0, OnCurve: true},
				{X: 0, Y: 700, OnCurve: true},
				{X: 500, Y: 700, OnCurve: true},
			},
		},
	}
	data, report, err := Compile(src)
	if err == nil {
		t.Fatal("incompatible masters should fail the build")
	}
	if data != nil {
		t.Error("no bytes should be emitted for a failed build")
	}
	if report == nil || !report.HasErrors() {
		t.Fatal("failed build must carry a report")
	}
}

func TestFamilyNameWithoutNameTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont")
	defer teardown()
	//
	family, subfamily := FamilyName(ot.NewFont())
	if family != "" || subfamily != "" {
		t.Errorf("expected empty names, got %q/%q", family, subfamily)
	}
}
