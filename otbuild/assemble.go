package otbuild

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/npillmayer/varfont/ot"
	"github.com/npillmayer/varfont/otvar"
)

// FontInfo carries the font-wide metadata the supporting tables need.
type FontInfo struct {
	FamilyName string
	StyleName  string
	UnitsPerEm uint16 // 0 defaults to 1000
	Ascender   int16
	Descender  int16
	LineGap    int16
	// Created/Modified are seconds since 1904-01-01, as head stores them.
	// Zero values stay zero, keeping output reproducible.
	Created  int64
	Modified int64
}

// Instance is a named instance of the design space, written to fvar.
type Instance struct {
	Name     string
	Location otvar.Location // user-space coordinates
}

// Source is the in-memory input of a font build: the design space, the
// masters, and the font-wide metadata.
type Source struct {
	Info          FontInfo
	Axes          []otvar.Axis
	Masters       []Master
	DefaultMaster int // index into Masters
	Instances     []Instance
	// CharMap assigns code points to glyph IDs for the cmap table. It may
	// be empty; the font then maps no characters but stays loadable.
	CharMap map[rune]ot.GlyphIndex
	// GlyphNames is optional and only used in diagnostics; missing names
	// render as "gid<N>".
	GlyphNames []string
	// Workers bounds the parallel glyph compilation; 0 means GOMAXPROCS,
	// 1 compiles sequentially.
	Workers int
}

func (src *Source) glyphName(gid int) string {
	if gid < len(src.GlyphNames) && src.GlyphNames[gid] != "" {
		return src.GlyphNames[gid]
	}
	return fmt.Sprintf("gid%d", gid)
}

// Build compiles the masters into a variable font. Compilation stops at
// the first incompatible glyph (glyphs already in flight still finish,
// and their findings all land in the report); if any glyph failed, no
// font is emitted and the report doubles as the error.
func Build(src *Source) (*ot.Font, *Report, error) {
	if err := validateSource(src); err != nil {
		return nil, nil, err
	}
	axisOrder := make([]ot.Tag, len(src.Axes))
	for i, ax := range src.Axes {
		axisOrder[i] = ax.Tag
	}
	normLocs := make([]otvar.Location, len(src.Masters))
	for i, m := range src.Masters {
		normLocs[i] = otvar.NormalizeLocation(src.Axes, m.Location)
	}
	model, err := otvar.NewVariationModel(normLocs, axisOrder)
	if err != nil {
		return nil, nil, err
	}
	// the model wants normalized locations; masters keep user space for
	// diagnostics, so compile against a normalized copy
	masters := make([]Master, len(src.Masters))
	copy(masters, src.Masters)
	for i := range masters {
		masters[i].Location = normLocs[i]
	}

	numGlyphs := len(masters[src.DefaultMaster].Glyphs)
	glyphs, variations, report := compileAll(src, masters, numGlyphs, model)
	if report.HasErrors() {
		tracer().Errorf("font build aborted: %s", report.Error())
		return nil, report, fmt.Errorf("%d incompatible glyphs", len(report.Incompatibilities))
	}
	otf, err := assemble(src, glyphs, variations)
	if err != nil {
		return nil, report, err
	}
	return otf, report, nil
}

func validateSource(src *Source) error {
	if len(src.Axes) == 0 {
		return fmt.Errorf("no variation axes declared")
	}
	for _, ax := range src.Axes {
		if err := ax.Validate(); err != nil {
			return err
		}
	}
	if len(src.Masters) == 0 {
		return fmt.Errorf("no masters")
	}
	if src.DefaultMaster < 0 || src.DefaultMaster >= len(src.Masters) {
		return fmt.Errorf("default master index %d out of range", src.DefaultMaster)
	}
	numGlyphs := len(src.Masters[src.DefaultMaster].Glyphs)
	for i, m := range src.Masters {
		if err := otvar.ValidateLocation(src.Axes, m.Location); err != nil {
			return fmt.Errorf("master %d: %w", i, err)
		}
		if len(m.Glyphs) != numGlyphs {
			return fmt.Errorf("master %d has %d glyphs, default master has %d",
				i, len(m.Glyphs), numGlyphs)
		}
		if len(m.Advances) != numGlyphs {
			return fmt.Errorf("master %d has %d advances for %d glyphs",
				i, len(m.Advances), numGlyphs)
		}
	}
	for i, inst := range src.Instances {
		if err := otvar.ValidateLocation(src.Axes, inst.Location); err != nil {
			return fmt.Errorf("instance %d (%s): %w", i, inst.Name, err)
		}
	}
	return nil
}

// compileAll runs compileGlyph over every glyph ID, optionally on a
// worker pool. Results land in slices indexed by glyph ID, so output
// order never depends on scheduling.
func compileAll(src *Source, masters []Master, numGlyphs int,
	model *otvar.VariationModel) ([]*ot.Glyph, [][]ot.DeltaSet, *Report) {
	//
	glyphs := make([]*ot.Glyph, numGlyphs)
	variations := make([][]ot.DeltaSet, numGlyphs)
	incompats := make([]*Incompatibility, numGlyphs)

	workers := src.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numGlyphs {
		workers = numGlyphs
	}
	tracer().Debugf("compiling %d glyphs on %d workers", numGlyphs, workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gids := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gid := range gids {
				g, dsets, inc := compileGlyph(gid, src.glyphName(gid),
					masters, src.DefaultMaster, model)
				glyphs[gid] = g
				variations[gid] = dsets
				incompats[gid] = inc
				if inc != nil {
					cancel() // fail fast; glyphs already queued still finish
				}
			}
		}()
	}
feed:
	for gid := 0; gid < numGlyphs; gid++ {
		select {
		case gids <- gid:
		case <-ctx.Done():
			break feed
		}
	}
	close(gids)
	wg.Wait()

	report := &Report{}
	for _, inc := range incompats {
		if inc != nil {
			report.add(*inc)
		}
	}
	return glyphs, variations, report
}

// assemble derives the binary tables from the compiled glyph set.
func assemble(src *Source, glyphs []*ot.Glyph, variations [][]ot.DeltaSet) (*ot.Font, error) {
	for gid, g := range glyphs {
		if g == nil {
			glyphs[gid] = &ot.Glyph{}
		}
	}
	// serialize once up front: the loca offsets and the loca format
	// decision depend on the encoded glyph sizes
	_, locaOffsets, err := ot.EncodeGlyphs(glyphs)
	if err != nil {
		return nil, err
	}
	// short loca stores offset/2 in a u16
	longLoca := locaOffsets[len(locaOffsets)-1] > 2*0xffff

	otf := ot.NewFont()
	def := src.Masters[src.DefaultMaster]

	head := ot.NewHeadTable()
	if src.Info.UnitsPerEm != 0 {
		head.UnitsPerEm = src.Info.UnitsPerEm
	}
	head.Created = src.Info.Created
	head.Modified = src.Info.Modified
	head.XMin, head.YMin, head.XMax, head.YMax = glyphBounds(glyphs)
	if longLoca {
		head.IndexToLocFormat = 1
	}
	otf.SetTable(ot.T("head"), head)

	maxp := buildMaxP(glyphs)
	otf.SetTable(ot.T("maxp"), maxp)

	hhea, hmtx := buildHorizontal(src.Info, glyphs, def.Advances)
	otf.SetTable(ot.T("hhea"), hhea)
	otf.SetTable(ot.T("hmtx"), hmtx)

	otf.SetTable(ot.T("loca"), ot.NewLocaTable(locaOffsets, longLoca))
	otf.SetTable(ot.T("glyf"), ot.NewGlyfTable(glyphs))
	otf.SetTable(ot.T("name"), buildName(src))
	otf.SetTable(ot.T("cmap"), ot.NewCmapTable(src.CharMap))
	otf.SetTable(ot.T("post"), ot.NewPostTable())
	otf.SetTable(ot.T("OS/2"), buildOS2(src, def.Advances))

	fvar := ot.NewFvarTable(otvar.FvarAxes(src.Axes), buildInstances(src))
	otf.SetTable(ot.T("fvar"), fvar)
	if maps, nontrivial := otvar.AvarMaps(src.Axes); nontrivial {
		otf.SetTable(ot.T("avar"), ot.NewAvarTable(maps))
	}
	otf.SetTable(ot.T("gvar"), ot.NewGvarTable(len(src.Axes), variations))
	return otf, nil
}

func glyphBounds(glyphs []*ot.Glyph) (xmin, ymin, xmax, ymax int16) {
	first := true
	for _, g := range glyphs {
		if g.PointCount() == 0 {
			continue
		}
		gx0, gy0, gx1, gy1 := g.Bounds()
		if first {
			xmin, ymin, xmax, ymax = gx0, gy0, gx1, gy1
			first = false
			continue
		}
		if gx0 < xmin {
			xmin = gx0
		}
		if gy0 < ymin {
			ymin = gy0
		}
		if gx1 > xmax {
			xmax = gx1
		}
		if gy1 > ymax {
			ymax = gy1
		}
	}
	return xmin, ymin, xmax, ymax
}

func buildMaxP(glyphs []*ot.Glyph) *ot.MaxPTable {
	maxp := ot.NewMaxPTable()
	maxp.NumGlyphs = len(glyphs)
	for _, g := range glyphs {
		if g.IsComposite() {
			if n := uint16(len(g.Components)); n > maxp.MaxComponentElements {
				maxp.MaxComponentElements = n
			}
			cp, cc, depth := compositeExtent(g, glyphs, 0)
			if cp > maxp.MaxCompositePoints {
				maxp.MaxCompositePoints = cp
			}
			if cc > maxp.MaxCompositeContours {
				maxp.MaxCompositeContours = cc
			}
			if depth > maxp.MaxComponentDepth {
				maxp.MaxComponentDepth = depth
			}
			continue
		}
		if n := uint16(g.PointCount()); n > maxp.MaxPoints {
			maxp.MaxPoints = n
		}
		if n := uint16(len(g.Contours)); n > maxp.MaxContours {
			maxp.MaxContours = n
		}
		if n := uint16(len(g.Instructions)); n > maxp.MaxSizeOfInstructions {
			maxp.MaxSizeOfInstructions = n
		}
	}
	return maxp
}

// compositeExtent resolves a composite glyph's flattened point and
// contour counts and its nesting depth. Reference cycles are cut off by
// the depth guard.
func compositeExtent(g *ot.Glyph, glyphs []*ot.Glyph, depth int) (points, contours, maxDepth uint16) {
	if depth > 8 {
		return 0, 0, uint16(depth)
	}
	maxDepth = uint16(depth + 1)
	for _, comp := range g.Components {
		ref := int(comp.GlyphRef)
		if ref >= len(glyphs) || glyphs[ref] == nil {
			continue
		}
		rg := glyphs[ref]
		if rg.IsComposite() {
			p, c, d := compositeExtent(rg, glyphs, depth+1)
			points += p
			contours += c
			if d > maxDepth {
				maxDepth = d
			}
		} else {
			points += uint16(rg.PointCount())
			contours += uint16(len(rg.Contours))
		}
	}
	return points, contours, maxDepth
}

func buildHorizontal(info FontInfo, glyphs []*ot.Glyph, advances []uint16) (*ot.HHeaTable, *ot.HMtxTable) {
	hhea := ot.NewHHeaTable()
	hhea.Ascender = info.Ascender
	hhea.Descender = info.Descender
	hhea.LineGap = info.LineGap
	hhea.NumberOfHMetrics = len(glyphs)

	metrics := make([]ot.HMetricRecord, len(glyphs))
	first := true
	for gid, g := range glyphs {
		adv := advances[gid]
		if adv > hhea.AdvanceWidthMax {
			hhea.AdvanceWidthMax = adv
		}
		if g.PointCount() == 0 && !g.IsComposite() {
			metrics[gid] = ot.HMetricRecord{AdvanceWidth: adv}
			continue
		}
		xMin, _, xMax, _ := g.Bounds()
		metrics[gid] = ot.HMetricRecord{AdvanceWidth: adv, LeftSideBearing: xMin}
		rsb := int16(adv) - xMax
		if first {
			hhea.MinLeftSideBearing = xMin
			hhea.MinRightSideBearing = rsb
			hhea.XMaxExtent = xMax
			first = false
			continue
		}
		if xMin < hhea.MinLeftSideBearing {
			hhea.MinLeftSideBearing = xMin
		}
		if rsb < hhea.MinRightSideBearing {
			hhea.MinRightSideBearing = rsb
		}
		if xMax > hhea.XMaxExtent {
			hhea.XMaxExtent = xMax
		}
	}
	return hhea, ot.NewHMtxTable(metrics)
}

// buildName collects the standard name records plus the records the fvar
// table points at: one per axis (the same IDs FvarAxes assigns) and one
// per named instance.
func buildName(src *Source) *ot.NameTable {
	info := src.Info
	family := info.FamilyName
	if family == "" {
		family = "Untitled"
	}
	style := info.StyleName
	if style == "" {
		style = "Regular"
	}
	names := map[uint16]string{
		ot.NameFamily:         family,
		ot.NameSubfamily:      style,
		ot.NameUniqueID:       family + " " + style,
		ot.NameFullName:       family + " " + style,
		ot.NamePostScriptName: postscriptName(family, style),
	}
	for i, ax := range src.Axes {
		id := ax.NameID
		if id == 0 {
			id = uint16(256 + i)
		}
		name := ax.Name
		if name == "" {
			name = ax.Tag.String()
		}
		names[id] = name
	}
	base := instanceNameIDBase(src)
	for i, inst := range src.Instances {
		names[base+uint16(i)] = inst.Name
	}
	return ot.NewNameTable(names)
}

func postscriptName(family, style string) string {
	strip := func(s string) string {
		out := make([]rune, 0, len(s))
		for _, r := range s {
			if r > 0x20 && r < 0x7f {
				out = append(out, r)
			}
		}
		return string(out)
	}
	return strip(family) + "-" + strip(style)
}

// buildOS2 derives the OS/2 metrics: the average width from the default
// master's advances, sub- and superscript boxes as conventional fractions
// of the em, and the character range from the cmap input. Metrics the
// source does not carry fall back to the same em-relative defaults font
// compilers use.
func buildOS2(src *Source, advances []uint16) *ot.OS2Table {
	upm := float64(src.Info.UnitsPerEm)
	if upm == 0 {
		upm = 1000
	}
	os2 := ot.NewOS2Table()
	var sum, n int
	for _, adv := range advances {
		if adv != 0 {
			sum += int(adv)
			n++
		}
	}
	if n > 0 {
		os2.XAvgCharWidth = int16(math.Round(float64(sum) / float64(n)))
	}
	os2.FsType = 1 << 2 // embedding: preview & print
	os2.SubscriptXSize = int16(math.Round(upm * 0.65))
	os2.SubscriptYSize = int16(math.Round(upm * 0.6))
	os2.SubscriptYOffset = int16(math.Round(upm * 0.075))
	os2.SuperscriptXSize = int16(math.Round(upm * 0.65))
	os2.SuperscriptYSize = int16(math.Round(upm * 0.6))
	os2.SuperscriptYOffset = int16(math.Round(upm * 0.35))
	os2.StrikeoutSize = int16(math.Round(upm * 0.05))
	os2.XHeight = int16(upm * 0.5)
	os2.StrikeoutPosition = int16(float64(os2.XHeight) * 0.22)
	os2.CapHeight = int16(upm * 0.7)
	os2.TypoAscender = src.Info.Ascender
	os2.TypoDescender = src.Info.Descender
	os2.TypoLineGap = src.Info.LineGap
	if win := int(src.Info.Ascender) + int(src.Info.LineGap); win > 0 {
		os2.WinAscent = uint16(win)
	}
	if src.Info.Descender < 0 {
		os2.WinDescent = uint16(-src.Info.Descender)
	}
	first, last := uint16(0xffff), uint16(0xffff)
	for r := range src.CharMap {
		c := uint16(0xffff) // code points beyond the BMP clamp
		if r <= 0xffff {
			c = uint16(r)
		}
		if first == 0xffff || c < first {
			first = c
		}
		if last == 0xffff || c > last {
			last = c
		}
	}
	os2.FirstCharIndex = first
	os2.LastCharIndex = last
	return os2
}

// buildInstances converts the named instances to fvar records. Instance
// coordinates are written in user space, one per declared axis; axes the
// instance leaves open default.
func buildInstances(src *Source) []ot.VariationInstance {
	if len(src.Instances) == 0 {
		return nil
	}
	nameID := instanceNameIDBase(src)
	insts := make([]ot.VariationInstance, len(src.Instances))
	for i, inst := range src.Instances {
		coords := make([]ot.Fixed, len(src.Axes))
		for ai, ax := range src.Axes {
			v, ok := inst.Location[ax.Tag]
			if !ok {
				v = ax.Default
			}
			coords[ai] = ot.FixedFromFloat(v)
		}
		insts[i] = ot.VariationInstance{
			SubfamilyNameID: nameID + uint16(i),
			Coordinates:     coords,
		}
	}
	return insts
}

// instanceNameIDBase picks the first name ID after the axis name block.
func instanceNameIDBase(src *Source) uint16 {
	base := uint16(256)
	ids := make([]uint16, 0, len(src.Axes))
	for i, ax := range src.Axes {
		id := ax.NameID
		if id == 0 {
			id = 256 + uint16(i)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if n := len(ids); n > 0 && ids[n-1] >= base {
		base = ids[n-1] + 1
	}
	return base
}
