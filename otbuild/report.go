package otbuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/varfont/ot"
	"github.com/npillmayer/varfont/otvar"
)

// IncompatibilityKind classifies why a glyph could not be compiled as a
// variable glyph.
type IncompatibilityKind int

const (
	// KindMissingDefault: the default master has no outline for the glyph.
	KindMissingDefault IncompatibilityKind = iota
	// KindContourCount: masters disagree on the number of contours.
	KindContourCount
	// KindPointCount: a contour has different point counts across masters.
	KindPointCount
	// KindOnCurve: on/off-curve flags differ at the same point index.
	KindOnCurve
	// KindComponents: composite glyphs reference different components.
	KindComponents
	// KindMixedOutline: a glyph is simple in one master and composite in
	// another.
	KindMixedOutline
)

func (k IncompatibilityKind) String() string {
	switch k {
	case KindMissingDefault:
		return "missing default master"
	case KindContourCount:
		return "contour count mismatch"
	case KindPointCount:
		return "point count mismatch"
	case KindOnCurve:
		return "on-curve flag mismatch"
	case KindComponents:
		return "component mismatch"
	case KindMixedOutline:
		return "mixed simple/composite outline"
	}
	return "unknown incompatibility"
}

// Incompatibility describes one glyph that could not be compiled: which
// glyph, which masters disagree, and a human-readable detail line.
type Incompatibility struct {
	Kind    IncompatibilityKind
	Glyph   string // glyph name, or "gid<N>" if unnamed
	GlyphID int
	Masters []otvar.Location // locations of the disagreeing masters
	Message string
}

func (inc Incompatibility) Error() string {
	locs := make([]string, len(inc.Masters))
	for i, loc := range inc.Masters {
		locs[i] = formatLocation(loc)
	}
	return fmt.Sprintf("glyph %s: %s (%s) at masters %s",
		inc.Glyph, inc.Kind, inc.Message, strings.Join(locs, ", "))
}

func formatLocation(loc otvar.Location) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, tag := range locationTags(loc) {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%g", tag.String(), loc[tag])
	}
	sb.WriteByte('}')
	return sb.String()
}

func locationTags(loc otvar.Location) []ot.Tag {
	tags := make([]ot.Tag, 0, len(loc))
	for tag := range loc {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Report collects the incompatibilities found during a compile run.
// Assembly refuses to emit a font while the report is non-empty.
type Report struct {
	Incompatibilities []Incompatibility
}

func (r *Report) add(inc Incompatibility) {
	r.Incompatibilities = append(r.Incompatibilities, inc)
}

// HasErrors returns true if any glyph failed to compile.
func (r *Report) HasErrors() bool {
	return len(r.Incompatibilities) > 0
}

func (r *Report) Error() string {
	if !r.HasErrors() {
		return "no incompatibilities"
	}
	lines := make([]string, len(r.Incompatibilities))
	for i, inc := range r.Incompatibilities {
		lines[i] = inc.Error()
	}
	return fmt.Sprintf("%d incompatible glyphs:\n%s",
		len(r.Incompatibilities), strings.Join(lines, "\n"))
}
