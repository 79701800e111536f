package ot

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestPackedDeltasDecode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	packed := []byte{0x03, 0x0a, 0x97, 0x00, 0xc6, 0x87, 0x41, 0x10, 0x22, 0xfb, 0x34}
	expected := []int16{10, -105, 0, -58, 0, 0, 0, 0, 0, 0, 0, 0, 4130, -1228}
	deltas, pos, err := decodePackedDeltas(packed, 0, 14)
	if err != nil {
		t.Fatal(err)
	}
	if pos != len(packed) {
		t.Errorf("expected decoder to consume %d bytes, consumed %d", len(packed), pos)
	}
	if diff := cmp.Diff(expected, deltas); diff != "" {
		t.Errorf("packed deltas decode mismatch (-want +got):\n%s", diff)
	}
}

func TestPackedDeltasEncode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	cases := []struct {
		name   string
		deltas []int16
		packed []byte
	}{
		{
			name:   "mixed runs",
			deltas: []int16{10, -105, 0, -58, 0, 0, 0, 0, 0, 0, 0, 0, 4130, -1228},
			packed: []byte{0x03, 0x0a, 0x97, 0x00, 0xc6, 0x87, 0x41, 0x10, 0x22, 0xfb, 0x34},
		},
		{
			name:   "66 zeros",
			deltas: repeatDeltas(0, 66),
			packed: []byte{0xbf, 0x81},
		},
		{
			name:   "long byte run with zero tail",
			deltas: []int16{-9, -17, 7, 32, 13, 12, 13, 32, 15, -10, -17, -3, 34, 15, 14, 15, 34, 5, -11, -16, -11, 8, 32, 28, 34, -28, -33, -29, -10, 14, 10, 15, 3, -32, -12, -12, -12, -32, -5, 9, 16, 3, -34, -14, -14, -14, -34, -5, 11, 16, 12, -7, -30, -27, -33, 28, 34, 30, 11, -14, -9, -27, -35, 28, 36, -27, 0, 0, 0, 0},
			packed: []byte{0x3f, 0xf7, 0xef, 0x07, 0x20, 0x0d, 0x0c, 0x0d, 0x20, 0x0f, 0xf6, 0xef, 0xfd, 0x22, 0x0f, 0x0e, 0x0f, 0x22, 0x05, 0xf5, 0xf0, 0xf5, 0x08, 0x20, 0x1c, 0x22, 0xe4, 0xdf, 0xe3, 0xf6, 0x0e, 0x0a, 0x0f, 0x03, 0xe0, 0xf4, 0xf4, 0xf4, 0xe0, 0xfb, 0x09, 0x10, 0x03, 0xde, 0xf2, 0xf2, 0xf2, 0xde, 0xfb, 0x0b, 0x10, 0x0c, 0xf9, 0xe2, 0xe5, 0xdf, 0x1c, 0x22, 0x1e, 0x0b, 0xf2, 0xf7, 0xe5, 0xdd, 0x1c, 0x01, 0x24, 0xe5, 0x83},
		},
	}
	for _, c := range cases {
		buf := newBuffer()
		encodePackedDeltas(buf, c.deltas)
		if !bytes.Equal(buf.Bytes(), c.packed) {
			t.Errorf("%s: encoded % x, want % x", c.name, buf.Bytes(), c.packed)
		}
	}
}

func TestPackedDeltas66Words(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	// 66 copies of 400 need two word runs: one full run of 64, one of 2
	buf := newBuffer()
	encodePackedDeltas(buf, repeatDeltas(400, 66))
	b := buf.Bytes()
	if b[0] != 0x7f {
		t.Errorf("expected first control byte 0x7f, got %#x", b[0])
	}
	if b[129] != 0x41 {
		t.Errorf("expected second control byte 0x41, got %#x", b[129])
	}
	if len(b) != 2+66*2 {
		t.Errorf("expected %d bytes, got %d", 2+66*2, len(b))
	}
	decoded, _, err := decodePackedDeltas(b, 0, 66)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(repeatDeltas(400, 66), decoded); diff != "" {
		t.Errorf("word run round trip mismatch (-want +got):\n%s", diff)
	}
}

func repeatDeltas(v int16, n int) []int16 {
	d := make([]int16, n)
	for i := range d {
		d[i] = v
	}
	return d
}

func TestPackedPointsDecode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	packed := []byte{0x0b, 0x0a, 0x00, 0x03, 0x01, 0x03, 0x01, 0x03, 0x01, 0x03, 0x02, 0x02, 0x02}
	expected := []uint16{0, 3, 4, 7, 8, 11, 12, 15, 17, 19, 21}
	points, pos, err := decodePackedPoints(packed, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pos != len(packed) {
		t.Errorf("expected decoder to consume %d bytes, consumed %d", len(packed), pos)
	}
	if diff := cmp.Diff(expected, points); diff != "" {
		t.Errorf("packed points decode mismatch (-want +got):\n%s", diff)
	}
}

func TestPackedPointsEncode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	cases := []struct {
		name   string
		points []uint16
		packed []byte
	}{
		{
			name:   "eleven points",
			points: []uint16{0, 3, 4, 7, 8, 11, 12, 15, 17, 19, 21},
			packed: []byte{0x0b, 0x0a, 0x00, 0x03, 0x01, 0x03, 0x01, 0x03, 0x01, 0x03, 0x02, 0x02, 0x02},
		},
		{
			name:   "single point zero",
			points: []uint16{0},
			packed: []byte{0x01, 0x00, 0x00},
		},
		{
			name:   "all points",
			points: nil,
			packed: []byte{0x00},
		},
	}
	for _, c := range cases {
		buf := newBuffer()
		encodePackedPoints(buf, c.points)
		if !bytes.Equal(buf.Bytes(), c.packed) {
			t.Errorf("%s: encoded % x, want % x", c.name, buf.Bytes(), c.packed)
		}
	}
}

func TestPackedPointsAllDecode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "varfont.ot")
	defer teardown()
	//
	points, pos, err := decodePackedPoints([]byte{0x00}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if points != nil {
		t.Errorf("expected nil point list for the all-points form, got %v", points)
	}
	if pos != 1 {
		t.Errorf("expected decoder to consume 1 byte, consumed %d", pos)
	}
}
