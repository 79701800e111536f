package ot

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A two-axis (wght/wdth) gvar table covering four glyphs: two empty, one
// with all-points delta sets, one with sparse point lists whose remaining
// deltas a consumer infers by interpolation.
var gvarFixture = []byte{
	0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x02, 0x00, 0x00, 0x00, 0x1e, 0x00, 0x04,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x26, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0d,
	0x00, 0x24, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x80, 0x02, 0x00, 0x0c,
	0x00, 0x06, 0x00, 0x00, 0x00, 0x06, 0x00, 0x01, 0x00, 0x86, 0x02, 0xd2, 0xd2, 0x2e,
	0x83, 0x02, 0x52, 0xae, 0xf7, 0x83, 0x86, 0x00, 0x80, 0x03, 0x00, 0x14, 0x00, 0x0a,
	0x20, 0x00, 0x00, 0x07, 0x00, 0x01, 0x00, 0x07, 0x80, 0x00, 0x40, 0x00, 0x40, 0x00,
	0x00, 0x02, 0x01, 0x01, 0x02, 0x01, 0x26, 0xda, 0x01, 0x83, 0x7d, 0x03, 0x26, 0x26,
	0xda, 0xda, 0x83, 0x87, 0x03, 0x13, 0x13, 0xed, 0xed, 0x83, 0x87, 0x00,
}

func parseGvarFixture(t *testing.T) *GvarTable {
	table, err := parseGvar(T("gvar"), gvarFixture, 0, uint32(len(gvarFixture)))
	require.NoError(t, err)
	gvar := table.Self().AsGvar()
	require.NotNil(t, gvar)
	return gvar
}

func TestGvarParseHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	gvar := parseGvarFixture(t)
	assert.Equal(t, uint16(2), gvar.axisCnt)
	require.Len(t, gvar.SharedTuples, 2)
	assert.Equal(t, Tuple{F2Dot14FromFloat(1), 0}, gvar.SharedTuples[0])
	assert.Equal(t, Tuple{0, F2Dot14FromFloat(1)}, gvar.SharedTuples[1])
}

func TestGvarEmptyGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	gvar := parseGvarFixture(t)
	for gid := GlyphIndex(0); gid < 2; gid++ {
		dsets, err := gvar.VariationsFor(gid, 4)
		require.NoError(t, err)
		assert.Empty(t, dsets, "glyph %d should have no variation data", gid)
	}
}

func TestGvarAllPointsGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	gvar := parseGvarFixture(t)
	// 3 outline points + 4 phantoms
	dsets, err := gvar.VariationsFor(2, 7)
	require.NoError(t, err)
	require.Len(t, dsets, 2)

	wght := dsets[0]
	assert.Equal(t, Tuple{F2Dot14FromFloat(1), 0}, wght.Peak)
	expectWght := []Delta{{0, -46}, {0, -46}, {0, 46}, {}, {}, {}, {}}
	require.Len(t, wght.Deltas, 7)
	for i, want := range expectWght {
		require.True(t, wght.Deltas[i].IsSome(), "point %d should be explicit", i)
		assert.Equal(t, want, wght.Deltas[i].MustUnwrap(), "point %d", i)
	}

	wdth := dsets[1]
	assert.Equal(t, Tuple{0, F2Dot14FromFloat(1)}, wdth.Peak)
	expectWdth := []Delta{{82, 0}, {-82, 0}, {-9, 0}, {}, {}, {}, {}}
	for i, want := range expectWdth {
		require.True(t, wdth.Deltas[i].IsSome(), "point %d should be explicit", i)
		assert.Equal(t, want, wdth.Deltas[i].MustUnwrap(), "point %d", i)
	}
}

func TestGvarSparsePointsGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	gvar := parseGvarFixture(t)
	// 4 outline points + 4 phantoms
	dsets, err := gvar.VariationsFor(3, 8)
	require.NoError(t, err)
	require.Len(t, dsets, 3)

	// first tuple variation: private points 1 and 3, rest inferred
	first := dsets[0]
	assert.Equal(t, Tuple{F2Dot14FromFloat(1), 0}, first.Peak)
	require.Len(t, first.Deltas, 8)
	explicit := map[int]Delta{1: {38, -125}, 3: {-38, 125}}
	for i, d := range first.Deltas {
		if want, ok := explicit[i]; ok {
			require.True(t, d.IsSome(), "point %d should be explicit", i)
			assert.Equal(t, want, d.MustUnwrap(), "point %d", i)
		} else {
			assert.True(t, d.IsNone(), "point %d should be inferred", i)
		}
	}

	// third tuple variation: embedded peak at the design-space corner
	corner := dsets[2]
	assert.Equal(t, Tuple{F2Dot14FromFloat(1), F2Dot14FromFloat(1)}, corner.Peak)
	require.True(t, corner.Deltas[1].IsSome())
	assert.Equal(t, Delta{19, 0}, corner.Deltas[1].MustUnwrap())
	require.True(t, corner.Deltas[3].IsSome())
	assert.Equal(t, Delta{-19, 0}, corner.Deltas[3].MustUnwrap())
}

func TestGvarRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	someDelta := func(x, y int16) Option[Delta] { return Some(Delta{X: x, Y: y}) }
	variations := [][]DeltaSet{
		nil, // .notdef
		{
			{
				Peak:  Tuple{F2Dot14FromFloat(1)},
				Start: Tuple{0},
				End:   Tuple{F2Dot14FromFloat(1)},
				Deltas: []Option[Delta]{
					someDelta(10, 0), someDelta(0, -20), someDelta(-10, 5),
					someDelta(0, 0), someDelta(30, 0), someDelta(0, 0), someDelta(0, 0),
				},
			},
			{
				Peak:  Tuple{F2Dot14FromFloat(-1)},
				Start: Tuple{F2Dot14FromFloat(-1)},
				End:   Tuple{0},
				Deltas: []Option[Delta]{
					None[Delta](), someDelta(4, 4), None[Delta](),
					someDelta(-4, -4), None[Delta](), None[Delta](), None[Delta](),
				},
			},
		},
	}
	built := NewGvarTable(1, variations)
	data, err := encodeGvar(built)
	require.NoError(t, err)

	reparsed, err := parseGvar(T("gvar"), data, 0, uint32(len(data)))
	require.NoError(t, err)
	gvar := reparsed.Self().AsGvar()
	require.NotNil(t, gvar)

	dsets, err := gvar.VariationsFor(0, 7)
	require.NoError(t, err)
	assert.Empty(t, dsets)

	dsets, err = gvar.VariationsFor(1, 7)
	require.NoError(t, err)
	require.Len(t, dsets, 2)
	for si, orig := range variations[1] {
		got := dsets[si]
		assert.Equal(t, orig.Peak, got.Peak, "deltaset %d peak", si)
		assert.Equal(t, orig.Start, got.Start, "deltaset %d start", si)
		assert.Equal(t, orig.End, got.End, "deltaset %d end", si)
		require.Len(t, got.Deltas, len(orig.Deltas))
		for i := range orig.Deltas {
			assert.Equal(t, orig.Deltas[i].IsSome(), got.Deltas[i].IsSome(),
				"deltaset %d point %d presence", si, i)
			if orig.Deltas[i].IsSome() && got.Deltas[i].IsSome() {
				assert.Equal(t, orig.Deltas[i].MustUnwrap(), got.Deltas[i].MustUnwrap(),
					"deltaset %d point %d", si, i)
			}
		}
	}
}

func TestGvarSharedTupleOverflow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	// more distinct peaks than the 12-bit tuple index can address; the
	// surplus must fall back to embedded peaks
	const glyphs = tupleIndexMask + 50
	someDelta := func(x, y int16) Option[Delta] { return Some(Delta{X: x, Y: y}) }
	variations := make([][]DeltaSet, glyphs)
	for i := range variations {
		variations[i] = []DeltaSet{{
			Peak:   Tuple{F2Dot14(i + 1)},
			Deltas: []Option[Delta]{someDelta(1, 0)},
		}}
	}
	built := NewGvarTable(1, variations)
	data, err := encodeGvar(built)
	require.NoError(t, err)

	shared := int(binarySegm(data).U16(6))
	assert.LessOrEqual(t, shared, tupleIndexMask)

	reparsed, err := parseGvar(T("gvar"), data, 0, uint32(len(data)))
	require.NoError(t, err)
	gvar := reparsed.Self().AsGvar()
	require.NotNil(t, gvar)
	for _, gid := range []GlyphIndex{0, tupleIndexMask + 10} {
		dsets, err := gvar.VariationsFor(gid, 1)
		require.NoError(t, err)
		require.Len(t, dsets, 1)
		assert.Equal(t, variations[gid][0].Peak, dsets[0].Peak, "glyph %d", gid)
	}
}
