package ot

// Packed point numbers and packed deltas, the two run-length encodings
// used inside a tuple variation store (gvar, cvar). See
// https://docs.microsoft.com/en-us/typography/opentype/spec/otvarcommonformats

// Packed delta run control bytes: the high two bits select the run kind,
// the low 6 bits hold the run length minus one.
const (
	deltasAreZero     = 0x80
	deltasAreWords    = 0x40
	deltaRunCountMask = 0x3f
)

// decodePackedDeltas reads numDeltas packed delta values starting at pos
// and returns them together with the position after the last run.
func decodePackedDeltas(b binarySegm, pos int, numDeltas int) ([]int16, int, error) {
	deltas := make([]int16, 0, numDeltas)
	for len(deltas) < numDeltas {
		control, err := b.u8(pos)
		if err != nil {
			return nil, 0, errFontFormat("packed deltas truncated")
		}
		pos++
		runCount := int(control&deltaRunCountMask) + 1
		switch {
		case control&deltasAreZero != 0:
			for i := 0; i < runCount; i++ {
				deltas = append(deltas, 0)
			}
		case control&deltasAreWords != 0:
			for i := 0; i < runCount; i++ {
				d, err := b.i16(pos)
				if err != nil {
					return nil, 0, errFontFormat("packed deltas truncated")
				}
				pos += 2
				deltas = append(deltas, d)
			}
		default:
			for i := 0; i < runCount; i++ {
				d, err := b.u8(pos)
				if err != nil {
					return nil, 0, errFontFormat("packed deltas truncated")
				}
				pos++
				deltas = append(deltas, int16(int8(d)))
			}
		}
	}
	return deltas, pos, nil
}

// encodePackedDeltas appends the run-length encoding of deltas.
// Run selection avoids a lone zero inside a word run and a zero pair
// inside a byte run, so that zeros of length ≥ 2 always land in a
// zero-run.
func encodePackedDeltas(buf *buffer, deltas []int16) {
	pos := 0
	for pos < len(deltas) {
		value := deltas[pos]
		switch {
		case value == 0:
			runLength := 0
			for pos < len(deltas) && deltas[pos] == 0 {
				runLength++
				pos++
			}
			for runLength >= 64 {
				buf.PutU8(deltasAreZero | 63)
				runLength -= 64
			}
			if runLength > 0 {
				buf.PutU8(deltasAreZero | uint8(runLength-1))
			}
		case value >= -128 && value <= 127:
			start := pos
			for pos < len(deltas) {
				value = deltas[pos]
				if value < -128 || value > 127 {
					break
				}
				if value == 0 && pos+1 < len(deltas) && deltas[pos+1] == 0 {
					break
				}
				pos++
			}
			for start < pos {
				n := pos - start
				if n > 64 {
					n = 64
				}
				buf.PutU8(uint8(n - 1))
				for _, d := range deltas[start : start+n] {
					buf.PutU8(uint8(int8(d)))
				}
				start += n
			}
		default:
			start := pos
			for pos < len(deltas) {
				value = deltas[pos]
				if value == 0 {
					break
				}
				if value >= -128 && value <= 127 && pos+1 < len(deltas) &&
					deltas[pos+1] >= -128 && deltas[pos+1] <= 127 {
					break
				}
				pos++
			}
			for start < pos {
				n := pos - start
				if n > 64 {
					n = 64
				}
				buf.PutU8(deltasAreWords | uint8(n-1))
				for _, d := range deltas[start : start+n] {
					buf.PutI16(d)
				}
				start += n
			}
		}
	}
}

// Packed point number run control: high bit selects 16-bit point number
// deltas, the low 7 bits hold the run length minus one.
const (
	pointsAreWords    = 0x80
	pointRunCountMask = 0x7f
)

// decodePackedPoints reads a packed point number list starting at pos.
// A nil slice (with ok result) means "all points in the glyph".
// Point numbers are stored as cumulative deltas.
func decodePackedPoints(b binarySegm, pos int) ([]uint16, int, error) {
	c1, err := b.u8(pos)
	if err != nil {
		return nil, 0, errFontFormat("packed points truncated")
	}
	pos++
	count := int(c1)
	if c1&0x80 != 0 {
		c2, err := b.u8(pos)
		if err != nil {
			return nil, 0, errFontFormat("packed points truncated")
		}
		pos++
		count = int(c1&0x7f)<<8 | int(c2)
	}
	if count == 0 {
		return nil, pos, nil // all points
	}
	points := make([]uint16, 0, count)
	last := uint16(0)
	for len(points) < count {
		control, err := b.u8(pos)
		if err != nil {
			return nil, 0, errFontFormat("packed points truncated")
		}
		pos++
		runCount := int(control&pointRunCountMask) + 1
		for i := 0; i < runCount && len(points) < count; i++ {
			var d uint16
			if control&pointsAreWords != 0 {
				v, err := b.u16(pos)
				if err != nil {
					return nil, 0, errFontFormat("packed points truncated")
				}
				pos += 2
				d = v
			} else {
				v, err := b.u8(pos)
				if err != nil {
					return nil, 0, errFontFormat("packed points truncated")
				}
				pos++
				d = uint16(v)
			}
			last += d
			points = append(points, last)
		}
	}
	return points, pos, nil
}

// encodePackedPoints appends the encoding of a point number list; nil
// means "all points".
func encodePackedPoints(buf *buffer, points []uint16) {
	if points == nil {
		buf.PutU8(0)
		return
	}
	if len(points) < 128 {
		buf.PutU8(uint8(len(points)))
	} else {
		buf.PutU16(uint16(len(points)) | 0x8000)
	}
	pos := 0
	last := uint16(0)
	for pos < len(points) {
		// collect a run of uniform width, at most 128 point numbers
		words := points[pos]-last > 0xff
		deltas := make([]uint16, 0, 128)
		for pos < len(points) && len(deltas) < 128 {
			d := points[pos] - last
			if (d > 0xff) != words {
				break
			}
			deltas = append(deltas, d)
			last = points[pos]
			pos++
		}
		control := uint8(len(deltas) - 1)
		if words {
			control |= pointsAreWords
		}
		buf.PutU8(control)
		for _, d := range deltas {
			if words {
				buf.PutU16(d)
			} else {
				buf.PutU8(uint8(d))
			}
		}
	}
}
