package ot

import "fmt"

// --- Glyf table ------------------------------------------------------------

// Simple glyph flags, see
// https://docs.microsoft.com/en-us/typography/opentype/spec/glyf
const (
	flagOnCurve      = 0x01
	flagXShort       = 0x02
	flagYShort       = 0x04
	flagRepeat       = 0x08
	flagXSameOrPos   = 0x10
	flagYSameOrPos   = 0x20
	flagOverlapFirst = 0x40
)

// Composite glyph component flags.
const (
	flagArg1And2AreWords    = 0x0001
	flagArgsAreXYValues     = 0x0002
	flagWeHaveAScale        = 0x0008
	flagMoreComponents      = 0x0020
	flagWeHaveXAndYScale    = 0x0040
	flagWeHaveATwoByTwo     = 0x0080
	flagWeHaveInstructions  = 0x0100
	flagUseMyMetrics        = 0x0200
	flagScaledComponentOffs = 0x0800
)

// Point is one outline point of a glyph contour, in font units.
type Point struct {
	X, Y    int16
	OnCurve bool
}

// Component is one component reference of a composite glyph: a glyph index
// plus an affine placement. Transform entries are in 2.14 precision row
// order (xx, xy, yx, yy); for components without a transform flag the
// identity is stored.
type Component struct {
	GlyphRef  GlyphIndex
	Flags     uint16
	DX, DY    int16
	Transform [4]F2Dot14
}

// Glyph is the decoded form of one entry in the glyf table: either a
// sequence of contours (simple glyph) or a list of component references
// (composite glyph). Empty glyphs (e.g. space) have neither.
type Glyph struct {
	Contours     [][]Point
	Components   []Component
	Instructions []byte
	XMin, YMin   int16
	XMax, YMax   int16
}

// IsComposite returns true if the glyph references component glyphs.
func (g *Glyph) IsComposite() bool {
	return len(g.Components) > 0
}

// PointCount returns the number of outline points over all contours.
func (g *Glyph) PointCount() int {
	n := 0
	for _, c := range g.Contours {
		n += len(c)
	}
	return n
}

// GlyfTable contains the glyph outline data. Individual glyphs are decoded
// on demand using the loca table for their byte ranges; a decoded glyph is
// cached and read-only thereafter.
type GlyfTable struct {
	tableBase
	loca   *LocaTable // wired during font consistency check
	glyphs []*Glyph   // set on the assembly path
	cache  map[GlyphIndex]*Glyph
}

func newGlyfTable(tag Tag, b binarySegm, offset, size uint32) *GlyfTable {
	t := &GlyfTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.cache = make(map[GlyphIndex]*Glyph)
	t.self = t
	return t
}

// NewGlyfTable creates a glyf table from decoded glyphs, for the font
// assembly path.
func NewGlyfTable(glyphs []*Glyph) *GlyfTable {
	t := newGlyfTable(T("glyf"), nil, 0, 0)
	t.glyphs = glyphs
	return t
}

func parseGlyf(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	// glyph outlines are decoded lazily per glyph; see GlyfTable.Glyph
	return newGlyfTable(tag, b, offset, size), nil
}

// Glyph decodes the outline of a single glyph. Glyphs with an empty byte
// range (no outline, e.g. space) yield an empty Glyph.
func (t *GlyfTable) Glyph(gid GlyphIndex) (*Glyph, error) {
	if t.glyphs != nil {
		if int(gid) >= len(t.glyphs) {
			return nil, fmt.Errorf("glyph %d out of range", gid)
		}
		return t.glyphs[gid], nil
	}
	if g, ok := t.cache[gid]; ok {
		return g, nil
	}
	if t.loca == nil {
		return nil, errFontFormat("glyf: no loca table wired")
	}
	from, to := t.loca.IndexToLocation(gid), t.loca.IndexToLocation(gid+1)
	if from > to || to > uint32(len(t.data)) {
		return nil, tableError(t.name, "GlyphRange",
			fmt.Sprintf("glyph %d byte range [%d:%d] invalid", gid, from, to), t.offset+from)
	}
	g := &Glyph{}
	if from < to {
		var err error
		if g, err = decodeGlyph(t.data[from:to]); err != nil {
			return nil, err
		}
	}
	t.cache[gid] = g
	return g, nil
}

func decodeGlyph(b binarySegm) (*Glyph, error) {
	if len(b) < 10 {
		return nil, errFontFormat("glyph header truncated")
	}
	numContours, _ := b.i16(0)
	g := &Glyph{}
	g.XMin, _ = b.i16(2)
	g.YMin, _ = b.i16(4)
	g.XMax, _ = b.i16(6)
	g.YMax, _ = b.i16(8)
	if numContours < 0 {
		return decodeCompositeGlyph(g, b[10:])
	}
	return decodeSimpleGlyph(g, int(numContours), b[10:])
}

func decodeSimpleGlyph(g *Glyph, numContours int, b binarySegm) (*Glyph, error) {
	endPts := make([]int, numContours)
	if len(b) < numContours*2+2 {
		return nil, errFontFormat("glyph contour ends truncated")
	}
	for i := 0; i < numContours; i++ {
		endPts[i] = int(b.U16(i * 2))
	}
	numPoints := 0
	if numContours > 0 {
		numPoints = endPts[numContours-1] + 1
	}
	pos := numContours * 2
	instrLen := int(b.U16(pos))
	pos += 2
	if len(b) < pos+instrLen {
		return nil, errFontFormat("glyph instructions truncated")
	}
	g.Instructions = b[pos : pos+instrLen]
	pos += instrLen

	// flags, with repeat compression
	flags := make([]uint8, numPoints)
	for i := 0; i < numPoints; {
		f, err := b.u8(pos)
		if err != nil {
			return nil, errFontFormat("glyph flags truncated")
		}
		pos++
		flags[i] = f
		i++
		if f&flagRepeat != 0 {
			rep, err := b.u8(pos)
			if err != nil {
				return nil, errFontFormat("glyph flag repeat truncated")
			}
			pos++
			for r := 0; r < int(rep) && i < numPoints; r++ {
				flags[i] = f
				i++
			}
		}
	}
	// x coordinates, cumulative deltas
	xs := make([]int16, numPoints)
	x := int16(0)
	for i, f := range flags {
		switch {
		case f&flagXShort != 0:
			d, err := b.u8(pos)
			if err != nil {
				return nil, errFontFormat("glyph x coordinates truncated")
			}
			pos++
			if f&flagXSameOrPos != 0 {
				x += int16(d)
			} else {
				x -= int16(d)
			}
		case f&flagXSameOrPos == 0:
			d, err := b.i16(pos)
			if err != nil {
				return nil, errFontFormat("glyph x coordinates truncated")
			}
			pos += 2
			x += d
		}
		xs[i] = x
	}
	// y coordinates
	ys := make([]int16, numPoints)
	y := int16(0)
	for i, f := range flags {
		switch {
		case f&flagYShort != 0:
			d, err := b.u8(pos)
			if err != nil {
				return nil, errFontFormat("glyph y coordinates truncated")
			}
			pos++
			if f&flagYSameOrPos != 0 {
				y += int16(d)
			} else {
				y -= int16(d)
			}
		case f&flagYSameOrPos == 0:
			d, err := b.i16(pos)
			if err != nil {
				return nil, errFontFormat("glyph y coordinates truncated")
			}
			pos += 2
			y += d
		}
		ys[i] = y
	}
	// split into contours
	g.Contours = make([][]Point, numContours)
	start := 0
	for i, end := range endPts {
		if end+1 < start || end >= numPoints {
			return nil, errFontFormat("glyph contour ends inconsistent")
		}
		contour := make([]Point, 0, end+1-start)
		for p := start; p <= end; p++ {
			contour = append(contour, Point{X: xs[p], Y: ys[p], OnCurve: flags[p]&flagOnCurve != 0})
		}
		g.Contours[i] = contour
		start = end + 1
	}
	return g, nil
}

func decodeCompositeGlyph(g *Glyph, b binarySegm) (*Glyph, error) {
	pos := 0
	for {
		if len(b) < pos+4 {
			return nil, errFontFormat("composite glyph truncated")
		}
		flags := b.U16(pos)
		comp := Component{
			GlyphRef:  GlyphIndex(b.U16(pos + 2)),
			Flags:     flags,
			Transform: [4]F2Dot14{f2dot14One, 0, 0, f2dot14One},
		}
		pos += 4
		if flags&flagArgsAreXYValues == 0 {
			return nil, errFontFormat("composite glyph with point-number arguments not supported")
		}
		if flags&flagArg1And2AreWords != 0 {
			if len(b) < pos+4 {
				return nil, errFontFormat("composite glyph arguments truncated")
			}
			comp.DX, _ = b.i16(pos)
			comp.DY, _ = b.i16(pos + 2)
			pos += 4
		} else {
			if len(b) < pos+2 {
				return nil, errFontFormat("composite glyph arguments truncated")
			}
			d1, _ := b.u8(pos)
			d2, _ := b.u8(pos + 1)
			comp.DX, comp.DY = int16(int8(d1)), int16(int8(d2))
			pos += 2
		}
		switch {
		case flags&flagWeHaveAScale != 0:
			if len(b) < pos+2 {
				return nil, errFontFormat("composite glyph scale truncated")
			}
			s := F2Dot14(b.U16(pos))
			comp.Transform = [4]F2Dot14{s, 0, 0, s}
			pos += 2
		case flags&flagWeHaveXAndYScale != 0:
			if len(b) < pos+4 {
				return nil, errFontFormat("composite glyph scale truncated")
			}
			comp.Transform = [4]F2Dot14{F2Dot14(b.U16(pos)), 0, 0, F2Dot14(b.U16(pos + 2))}
			pos += 4
		case flags&flagWeHaveATwoByTwo != 0:
			if len(b) < pos+8 {
				return nil, errFontFormat("composite glyph transform truncated")
			}
			comp.Transform = [4]F2Dot14{
				F2Dot14(b.U16(pos)), F2Dot14(b.U16(pos + 2)),
				F2Dot14(b.U16(pos + 4)), F2Dot14(b.U16(pos + 6)),
			}
			pos += 8
		}
		g.Components = append(g.Components, comp)
		if flags&flagMoreComponents == 0 {
			if flags&flagWeHaveInstructions != 0 {
				if len(b) < pos+2 {
					return nil, errFontFormat("composite glyph instructions truncated")
				}
				instrLen := int(b.U16(pos))
				pos += 2
				if len(b) < pos+instrLen {
					return nil, errFontFormat("composite glyph instructions truncated")
				}
				g.Instructions = b[pos : pos+instrLen]
			}
			break
		}
	}
	return g, nil
}

const f2dot14One = F2Dot14(0x4000)

// EncodeGlyphs serializes glyphs into glyf table bytes plus the matching
// loca offsets (len(glyphs)+1 entries). Each glyph record is padded to an
// even byte boundary so that the offsets stay representable in the short
// loca format.
func EncodeGlyphs(glyphs []*Glyph) ([]byte, []uint32, error) {
	buf := newBuffer()
	offsets := make([]uint32, 0, len(glyphs)+1)
	for gid, g := range glyphs {
		offsets = append(offsets, uint32(buf.Len()))
		if g == nil || (len(g.Contours) == 0 && len(g.Components) == 0) {
			continue // empty glyph: zero-length record
		}
		if err := encodeGlyph(buf, g); err != nil {
			return nil, nil, fmt.Errorf("glyph %d: %w", gid, err)
		}
		buf.PadToEven()
	}
	offsets = append(offsets, uint32(buf.Len()))
	return buf.Bytes(), offsets, nil
}

func encodeGlyph(buf *buffer, g *Glyph) error {
	if g.IsComposite() {
		encodeCompositeGlyph(buf, g)
		return nil
	}
	return encodeSimpleGlyph(buf, g)
}

func encodeSimpleGlyph(buf *buffer, g *Glyph) error {
	xMin, yMin, xMax, yMax := g.Bounds()
	buf.PutI16(int16(len(g.Contours)))
	buf.PutI16(xMin)
	buf.PutI16(yMin)
	buf.PutI16(xMax)
	buf.PutI16(yMax)
	end := -1
	for _, c := range g.Contours {
		if len(c) == 0 {
			return errFontFormat("empty contour")
		}
		end += len(c)
		buf.PutU16(uint16(end))
	}
	buf.PutU16(uint16(len(g.Instructions)))
	buf.PutBytes(g.Instructions)

	// flags and coordinate deltas; short/same-value compression per point
	var flags []uint8
	var xCoords, yCoords []byte
	x, y := int16(0), int16(0)
	for _, c := range g.Contours {
		for _, p := range c {
			f := uint8(0)
			if p.OnCurve {
				f |= flagOnCurve
			}
			dx, dy := p.X-x, p.Y-y
			x, y = p.X, p.Y
			f, xCoords = encodeCoord(f, dx, flagXShort, flagXSameOrPos, xCoords)
			yf, yb := encodeCoord(0, dy, flagYShort, flagYSameOrPos, yCoords)
			f |= yf
			yCoords = yb
			flags = append(flags, f)
		}
	}
	for _, f := range flags {
		buf.PutU8(f)
	}
	buf.PutBytes(xCoords)
	buf.PutBytes(yCoords)
	return nil
}

// encodeCoord appends the encoding of one coordinate delta and returns the
// updated flag byte and coordinate buffer.
func encodeCoord(f uint8, d int16, shortFlag, sameOrPosFlag uint8, coords []byte) (uint8, []byte) {
	switch {
	case d == 0:
		f |= sameOrPosFlag
	case d >= -255 && d <= 255:
		f |= shortFlag
		if d >= 0 {
			f |= sameOrPosFlag
			coords = append(coords, byte(d))
		} else {
			coords = append(coords, byte(-d))
		}
	default:
		coords = append(coords, byte(uint16(d)>>8), byte(uint16(d)))
	}
	return f, coords
}

func encodeCompositeGlyph(buf *buffer, g *Glyph) {
	buf.PutI16(-1)
	buf.PutI16(g.XMin)
	buf.PutI16(g.YMin)
	buf.PutI16(g.XMax)
	buf.PutI16(g.YMax)
	for i, comp := range g.Components {
		flags := comp.Flags &^ (flagMoreComponents | flagArg1And2AreWords | flagWeHaveInstructions)
		flags |= flagArgsAreXYValues
		if i < len(g.Components)-1 {
			flags |= flagMoreComponents
		} else if len(g.Instructions) > 0 {
			flags |= flagWeHaveInstructions
		}
		wordArgs := comp.DX < -128 || comp.DX > 127 || comp.DY < -128 || comp.DY > 127
		if wordArgs {
			flags |= flagArg1And2AreWords
		}
		// transform flags are kept as decoded/built
		buf.PutU16(flags)
		buf.PutU16(uint16(comp.GlyphRef))
		if wordArgs {
			buf.PutI16(comp.DX)
			buf.PutI16(comp.DY)
		} else {
			buf.PutU8(uint8(int8(comp.DX)))
			buf.PutU8(uint8(int8(comp.DY)))
		}
		switch {
		case flags&flagWeHaveAScale != 0:
			buf.PutF2Dot14(comp.Transform[0])
		case flags&flagWeHaveXAndYScale != 0:
			buf.PutF2Dot14(comp.Transform[0])
			buf.PutF2Dot14(comp.Transform[3])
		case flags&flagWeHaveATwoByTwo != 0:
			for _, v := range comp.Transform {
				buf.PutF2Dot14(v)
			}
		}
	}
	if len(g.Instructions) > 0 {
		buf.PutU16(uint16(len(g.Instructions)))
		buf.PutBytes(g.Instructions)
	}
}

// Bounds computes the bounding box of a simple glyph's outline points.
// For composite glyphs (no own points) it returns the stored box.
func (g *Glyph) Bounds() (xMin, yMin, xMax, yMax int16) {
	if len(g.Contours) == 0 {
		return g.XMin, g.YMin, g.XMax, g.YMax
	}
	first := true
	for _, c := range g.Contours {
		for _, p := range c {
			if first {
				xMin, xMax, yMin, yMax = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			if p.X < xMin {
				xMin = p.X
			}
			if p.X > xMax {
				xMax = p.X
			}
			if p.Y < yMin {
				yMin = p.Y
			}
			if p.Y > yMax {
				yMax = p.Y
			}
		}
	}
	return
}

func encodeGlyf(table Table) ([]byte, error) {
	t := table.Self().AsGlyf()
	if t == nil {
		return nil, errFontFormat("glyf: not a glyf table")
	}
	if t.glyphs == nil {
		return t.data, nil
	}
	data, _, err := EncodeGlyphs(t.glyphs)
	return data, err
}
