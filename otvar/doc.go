/*
Package otvar implements the design-space mathematics of OpenType font
variations: axis normalization, variation regions and their support
scalars, the variation model which turns master values into regional
deltas, and interpolation of unreferenced points (IUP).

A design space is spanned by variation axes (package ot's fvar table is
their binary form). Masters live at locations in this space; the
VariationModel computes, for each non-default master, the region over
which its deltas apply and the delta values themselves, such that the
value at any location reconstructs additively:

	value(loc) = Σ supportScalar(loc, region_i) × delta_i

where the default master's region is empty and always contributes with
scalar 1.

# Status

Scalar and vector interpolation are complete. Extrapolation beyond a
region's extent saturates to zero contribution.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otvar

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'varfont.otvar'.
func tracer() tracing.Trace {
	return tracing.Select("varfont.otvar")
}
