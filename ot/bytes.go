package ot

import (
	"errors"
	"fmt"
	"math"
)

// Reading and writing bytes of a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

func i16(b []byte) int16 {
	return int16(u16(b))
}

// --- Locations, i.e. byte segments/slices ----------------------------------

// binarySegm is a segment of byte data. We use it throughout this package to
// navigate the font's binary data. All multi-byte reads are bounds-checked;
// a read beyond the segment is an error, never a panic.
type binarySegm []byte

func (b binarySegm) Size() int {
	return len(b)
}

func (b binarySegm) Bytes() []byte {
	return b
}

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n <= 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// i16 returns the int16 in b at the relative offset i.
func (b binarySegm) i16(i int) (int16, error) {
	n, err := b.u16(i)
	return int16(n), err
}

func (b binarySegm) u8(i int) (uint8, error) {
	buf, err := b.view(i, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// U16 is convenience access to 16 bit data at byte index, returning 0 on
// out-of-bounds access.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 is convenience access to 32 bit data at byte index, returning 0 on
// out-of-bounds access.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// --- Fixed point numbers ---------------------------------------------------

// Fixed is a 32-bit signed fixed-point number (16.16).
type Fixed int32

// FixedFromFloat converts a float to 16.16 fixed point, using OpenType
// rounding (fractions of 0.5 and higher round towards positive infinity).
func FixedFromFloat(f float64) Fixed {
	return Fixed(otRound(f * 65536))
}

// Float returns x as a floating point number.
func (x Fixed) Float() float64 {
	return float64(x) / 65536
}

// F2Dot14 is a 16-bit signed fixed-point number with 14 fractional bits,
// used for normalized design-space coordinates in the range [-2, 2).
type F2Dot14 int16

// F2Dot14FromFloat converts a float to 2.14 fixed point with OpenType
// rounding.
func F2Dot14FromFloat(f float64) F2Dot14 {
	return F2Dot14(otRound(f * 16384))
}

// Float returns x as a floating point number.
func (x F2Dot14) Float() float64 {
	return float64(x) / 16384
}

// otRound rounds a value the way the OpenType specification requires for
// conversion to fixed point: fractional values of 0.5 and higher take the
// next higher integer, all other fractional values truncate.
func otRound(value float64) int32 {
	return int32(math.Floor(value + 0.5))
}

// --- Links, i.e. offset-indirected records ---------------------------------

// link16 is a 16-bit offset to a destination segment within a base segment.
// An offset of 0 is a NULL link: the destination is absent and is never
// dereferenced.
type link16 struct {
	err    error
	target string
	base   binarySegm
	offset uint16
}

// parseLink16 interprets a `uint16` value at b[offset] as a navigation link
// into base. An out-of-bounds non-zero offset is an error; offset 0 is a
// valid NULL link.
func parseLink16(b binarySegm, offset int, base binarySegm, target string) (link16, error) {
	if len(b) < offset+2 {
		return link16{}, errBufferBounds
	}
	n, _ := b.u16(offset)
	if n > 0 && int(n) > len(base) {
		return link16{}, fmt.Errorf("offset16 to %s out of bounds: %d > %d", target, n, len(base))
	}
	return link16{
		target: target,
		base:   base,
		offset: n,
	}, nil
}

// IsNull is true for links with offset 0 or an empty base.
func (l link16) IsNull() bool {
	return l.err != nil || l.offset == 0 || len(l.base) == 0
}

// Jump returns the destination segment of the link, or an empty segment for
// NULL or out-of-bounds links.
func (l link16) Jump() binarySegm {
	if l.IsNull() {
		return binarySegm{}
	}
	if int(l.offset) > len(l.base) {
		tracer().Debugf("offset16 location out of table bounds")
		return binarySegm{}
	}
	return l.base[l.offset:]
}

// --- Writing ---------------------------------------------------------------

// buffer is the writer half of the binary codec: an append-only byte buffer
// with big-endian emitters for the primitive types of the OpenType format.
type buffer struct {
	data []byte
}

func newBuffer() *buffer {
	return &buffer{data: make([]byte, 0, 256)}
}

func (buf *buffer) Len() int {
	return len(buf.data)
}

func (buf *buffer) Bytes() []byte {
	return buf.data
}

func (buf *buffer) PutU8(n uint8) {
	buf.data = append(buf.data, n)
}

func (buf *buffer) PutU16(n uint16) {
	buf.data = append(buf.data, byte(n>>8), byte(n))
}

func (buf *buffer) PutI16(n int16) {
	buf.PutU16(uint16(n))
}

func (buf *buffer) PutU32(n uint32) {
	buf.data = append(buf.data, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

func (buf *buffer) PutI64(n int64) {
	buf.PutU32(uint32(uint64(n) >> 32))
	buf.PutU32(uint32(uint64(n)))
}

func (buf *buffer) PutTag(t Tag) {
	buf.PutU32(uint32(t))
}

func (buf *buffer) PutFixed(x Fixed) {
	buf.PutU32(uint32(x))
}

func (buf *buffer) PutF2Dot14(x F2Dot14) {
	buf.PutU16(uint16(x))
}

func (buf *buffer) PutBytes(b []byte) {
	buf.data = append(buf.data, b...)
}

// PatchU16 overwrites a previously written uint16 at byte position pos.
// Used for offset fields whose value is only known after the record
// following them has been serialized.
func (buf *buffer) PatchU16(pos int, n uint16) {
	buf.data[pos] = byte(n >> 8)
	buf.data[pos+1] = byte(n)
}

func (buf *buffer) PatchU32(pos int, n uint32) {
	buf.data[pos] = byte(n >> 24)
	buf.data[pos+1] = byte(n >> 16)
	buf.data[pos+2] = byte(n >> 8)
	buf.data[pos+3] = byte(n)
}

// PadToEven pads the buffer to an even byte boundary with zero bytes and
// reports the pad count, so that callers can record unpadded lengths in
// directory entries while placing records at padded positions.
func (buf *buffer) PadToEven() int {
	if len(buf.data)&0x1 == 0 {
		return 0
	}
	buf.data = append(buf.data, 0)
	return 1
}

// PadTo4 pads the buffer to a 4-byte boundary with zero bytes, returning
// the pad count. Table records in an sfnt file must begin on 4-byte
// boundaries.
func (buf *buffer) PadTo4() int {
	pad := (4 - len(buf.data)&0x3) & 0x3
	for i := 0; i < pad; i++ {
		buf.data = append(buf.data, 0)
	}
	return pad
}

// --- Checked arithmetic ----------------------------------------------------

// Checked arithmetic operations to prevent integer overflow when handling
// counts and offsets from untrusted font data.

func checkedMulInt(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > 0 && b > 0 && a > math.MaxInt/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	if a < 0 && b < 0 && a < math.MaxInt/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	if (a < 0 && b > 0 && a < math.MinInt/b) || (a > 0 && b < 0 && b < math.MinInt/a) {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	return a * b, nil
}

func checkedAddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}
