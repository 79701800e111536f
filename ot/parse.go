package ot

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Code comments often cite passages from the OpenType specification
// version 1.9; see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ParseOption configures the behavior of Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	bestEffort bool
}

// WithBestEffort lets Parse keep going when an individual table fails to
// decode. The failing table stays in the font as an opaque byte range and
// the decode error is collected on the Font (see Font.Errors). Container
// level errors (bad magic, broken table directory) remain fatal.
//
// Default mode is fail-fast: the first malformed table aborts the load.
func WithBestEffort() ParseOption {
	return func(cfg *parseConfig) {
		cfg.bestEffort = true
	}
}

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the font's byte-data after the Parse
// function returns. Its elements are assumed immutable while the ot.Font
// remains in use.
func Parse(font []byte, opts ...ParseOption) (*Font, error) {
	cfg := parseConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	r := bytes.NewReader(font)
	h := fileHeader{}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())

	ec := &errorCollector{}

	if !(h.FontType == 0x4f54544f || // OTTO
		h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565) { // true
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	otf := &Font{
		Header: &FontHeader{FontType: h.FontType, TableCount: h.TableCount},
		tables: make(map[Tag]Table),
	}
	src := binarySegm(font)
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	tableRecordsSize, err := checkedMulInt(16, int(h.TableCount))
	if err != nil {
		return nil, errFontFormat(fmt.Sprintf("table count too large: %v", err))
	}
	buf, err := src.view(12, tableRecordsSize)
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			return nil, errFontFormat("table order")
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // ignore checksums, but "all tables must begin on four byte boundries".
			return nil, errFontFormat("invalid table offset")
		}
		// Validate table bounds before slicing to prevent panic
		tableEnd, err := checkedAddUint32(off, size)
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s: size calculation overflow: %v", tag, err))
		}
		if off > uint32(len(src)) || tableEnd > uint32(len(src)) {
			return nil, errFontFormat(fmt.Sprintf("table %s: bounds [%d:%d] exceed font size %d",
				tag, off, tableEnd, len(src)))
		}
		t, err := parseTable(tag, src[off:tableEnd], off, size)
		if err != nil {
			if !cfg.bestEffort {
				return nil, err
			}
			// keep the undecodable table as opaque bytes and remember why
			if fe, ok := err.(FontError); ok {
				ec.addError(fe.Table, fe.Section, fe.Issue, fe.Severity, fe.Offset)
			} else {
				ec.addError(tag, "decode", err.Error(), SeverityCritical, off)
			}
			t = newTable(tag, src[off:tableEnd], off, size)
		}
		otf.tables[tag] = t
	}
	connectTables(otf)
	if ec.hasErrors() {
		tracer().Infof("font parsed with %d issues, %d critical",
			len(ec.errors), len(ec.criticalErrors()))
	}
	otf.parseErrors = ec.errors
	return otf, nil
}

// fileHeader mirrors the binary layout of the offset table for use with
// binary.Read.
type fileHeader struct {
	FontType    uint32
	TableCount  uint16
	SearchRange uint16
	EntrySel    uint16
	RangeShift  uint16
}

// connectTables distributes cross-table information which single tables
// need for interpretation but which lives elsewhere in the font:
// hmtx needs the metrics count from hhea and the glyph count from maxp,
// loca needs the offset format from head and the glyph count from maxp,
// glyf needs loca for per-glyph byte ranges, and gvar needs the axis
// count from fvar.
func connectTables(otf *Font) {
	var numGlyphs int
	if ma := otf.Table(T("maxp")); ma != nil {
		if maxp := ma.Self().AsMaxP(); maxp != nil {
			numGlyphs = maxp.NumGlyphs
		}
	}
	if hh := otf.Table(T("hhea")); hh != nil {
		if hhea := hh.Self().AsHHea(); hhea != nil {
			if mx := otf.Table(T("hmtx")); mx != nil {
				if hmtx := mx.Self().AsHMtx(); hmtx != nil {
					hmtx.NumberOfHMetrics = hhea.NumberOfHMetrics
					hmtx.glyphCnt = numGlyphs
				}
			}
		}
	}
	if he := otf.Table(T("head")); he != nil {
		if head := he.Self().AsHead(); head != nil {
			if lo := otf.Table(T("loca")); lo != nil {
				if loca := lo.Self().AsLoca(); loca != nil {
					if head.IndexToLocFormat == 1 {
						loca.inx2loc = longLocaVersion
					}
					loca.locCnt = numGlyphs + 1
				}
			}
		}
	}
	if gl := otf.Table(T("glyf")); gl != nil {
		if glyf := gl.Self().AsGlyf(); glyf != nil {
			if lo := otf.Table(T("loca")); lo != nil {
				glyf.loca = lo.Self().AsLoca()
			}
		}
	}
	if gv := otf.Table(T("gvar")); gv != nil {
		if gvar := gv.Self().AsGvar(); gvar != nil {
			if fv := otf.Table(T("fvar")); fv != nil {
				if fvar := fv.Self().AsFvar(); fvar != nil {
					gvar.axisCnt = uint16(len(fvar.Axes))
				}
			}
		}
	}
}
