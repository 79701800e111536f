/*
Package ot reads and writes the binary container format underlying
OpenType and TrueType fonts (often called sfnt).

Package `ot` exposes a font as a directory of tables. A table is kept as a
raw slice of the font's binary data until a client asks for a typed view,
at which point it is decoded once and is read-only thereafter. Clients
receive typed access through conversion methods, e.g.

	head := otf.Table(ot.T("head")).Self().AsHead()
	loca := otf.Table(ot.T("loca")).Self().AsLoca()

Tables this package does not interpret are still carried along as opaque
byte ranges and are re-emitted verbatim when the font is written, i.e. no
table information is ever dropped.

The write half of the package lays out tables with OpenType padding and
alignment rules, computes per-table and whole-file checksums, and patches
the checksum adjustment in table `head` so that the file sums to the
magic constant required by the OpenType specification.

Beyond the static tables, `ot` implements the binary format of the font
variations tables (fvar, avar, gvar), including packed point numbers,
packed deltas and tuple variation stores. The design-space mathematics
that produce variation data live in the sister packages `otvar` and
`otbuild`; package `ot` is only concerned with bytes.

# Status

Work in progress. Handling fonts is fiddly and fonts have become complex
software applications in their own right. Font collections (ttc) are not
supported.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'varfont.ot'
func tracer() tracing.Trace {
	return tracing.Select("varfont.ot")
}
