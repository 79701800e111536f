/*
Package otbuild compiles a set of interpolation masters into a binary
variable font: the default master's outlines become the glyf table, the
other masters become gvar variation data, and the supporting tables
(head, hhea, hmtx, maxp, loca, name, fvar, avar) are derived from the
glyph set and the design space.

Masters must be point-compatible with the default master: same contour
count, same point count per contour, matching on/off-curve flags and
matching component references. Incompatible glyphs are reported, never
silently skipped, and a font with incompatible glyphs is never emitted.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otbuild

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'varfont.otbuild'.
func tracer() tracing.Trace {
	return tracing.Select("varfont.otbuild")
}
