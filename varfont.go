/*
Package varfont builds and decodes variable OpenType fonts with TrueType
outlines.

The heavy lifting is done by the sub-packages: ot implements the binary
SFNT codec (reading and writing), otvar the design-space mathematics
(normalization, variation model, IUP), and otbuild the compilation of
interpolation masters into a finished font. This package ties them
together into a small convenience API.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package varfont

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/varfont/ot"
	"github.com/npillmayer/varfont/otbuild"
)

// tracer traces with key 'varfont'.
func tracer() tracing.Trace {
	return tracing.Select("varfont")
}

// FromBinary parses raw OpenType bytes and returns a decoded font.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the font to be usable.
func FromBinary(data []byte) (*ot.Font, error) {
	return ot.Parse(data)
}

// FamilyName extracts family and subfamily names from a font's `name`
// table. Returned values are empty if no matching records exist.
func FamilyName(otf *ot.Font) (family, subfamily string) {
	table := otf.Table(ot.T("name"))
	if table == nil {
		return "", ""
	}
	name := table.Self().AsName()
	if name == nil {
		return "", ""
	}
	family = name.Get(ot.NameFamily)
	subfamily = name.Get(ot.NameSubfamily)
	return
}

// Compile builds a variable font from a set of interpolation masters and
// returns the binary font file. On incompatible masters the report
// carries the per-glyph details.
func Compile(src *otbuild.Source) ([]byte, *otbuild.Report, error) {
	otf, report, err := otbuild.Build(src)
	if err != nil {
		return nil, report, err
	}
	data, err := ot.Encode(otf)
	if err != nil {
		return nil, report, err
	}
	tracer().Infof("compiled variable font, %d bytes", len(data))
	return data, report, nil
}
