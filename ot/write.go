package ot

import (
	"encoding/binary"
	"io"
	"math/bits"
	"sort"
)

// --- SFNT writer -----------------------------------------------------------

// Write serializes a font to an sfnt binary. Decoded tables are re-encoded
// through the table codec registry; tables this package does not interpret
// are emitted verbatim. The table directory is sorted ascending by tag,
// table data is laid out in the recommended physical order and padded to
// 4-byte boundaries, and head.checkSumAdjustment is recomputed so that the
// whole-file checksum reconstructs to 0xB1B0AFBA.
//
// Output is deterministic: the same font yields byte-identical files.
func Write(w io.Writer, otf *Font) (int64, error) {
	data, err := Encode(otf)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Encode serializes a font to an sfnt binary; see Write.
func Encode(otf *Font) ([]byte, error) {
	tags := otf.TableTags()
	numTables := len(tags)

	encoded := make(map[Tag][]byte, numTables)
	for _, tag := range tags {
		data, err := encodeTable(otf.tables[tag])
		if err != nil {
			return nil, err
		}
		encoded[tag] = data
	}

	// physical layout in the recommended order, directory sorted by tag
	layout := make([]Tag, numTables)
	copy(layout, tags)
	sort.SliceStable(layout, func(i, j int) bool {
		iPrio := tableOrder[layout[i]]
		jPrio := tableOrder[layout[j]]
		if iPrio != jPrio {
			return iPrio > jPrio
		}
		return layout[i] < layout[j]
	})

	entrySelector := 0
	if numTables > 0 {
		entrySelector = bits.Len(uint(numTables)) - 1
	}
	header := fileHeader{
		FontType:    otf.Header.FontType,
		TableCount:  uint16(numTables),
		SearchRange: uint16(16 << entrySelector),
		EntrySel:    uint16(entrySelector),
		RangeShift:  uint16(16 * (numTables - 1<<entrySelector)),
	}

	// head.checkSumAdjustment is zero while summing
	if headData, ok := encoded[T("head")]; ok && len(headData) >= 12 {
		binary.BigEndian.PutUint32(headData[8:12], 0)
	}

	var totalSum uint32
	offset := uint32(12 + 16*numTables)
	type dirRecord struct {
		tag      Tag
		checksum uint32
		offset   uint32
		length   uint32
	}
	records := make([]dirRecord, numTables)
	for i, tag := range layout {
		body := encoded[tag]
		length := uint32(len(body))
		sum := tableChecksum(body)
		records[i] = dirRecord{tag: tag, checksum: sum, offset: offset, length: length}
		totalSum += sum
		offset += 4 * ((length + 3) / 4)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].tag < records[j].tag })

	head := newBuffer()
	head.PutU32(header.FontType)
	head.PutU16(header.TableCount)
	head.PutU16(header.SearchRange)
	head.PutU16(header.EntrySel)
	head.PutU16(header.RangeShift)
	for _, rec := range records {
		head.PutTag(rec.tag)
		head.PutU32(rec.checksum)
		head.PutU32(rec.offset)
		head.PutU32(rec.length)
	}
	totalSum += tableChecksum(head.Bytes())

	if headData, ok := encoded[T("head")]; ok && len(headData) >= 12 {
		binary.BigEndian.PutUint32(headData[8:12], 0xB1B0AFBA-totalSum)
	}

	out := newBuffer()
	out.PutBytes(head.Bytes())
	for _, tag := range layout {
		out.PutBytes(encoded[tag])
		out.PadTo4()
	}
	return out.Bytes(), nil
}

// tableChecksum sums a table's bytes as big-endian u32 words, with an
// implicit zero-padded tail.
func tableChecksum(data []byte) uint32 {
	var sum uint32
	for len(data) >= 4 {
		sum += binary.BigEndian.Uint32(data)
		data = data[4:]
	}
	if len(data) > 0 {
		var tail [4]byte
		copy(tail[:], data)
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}

// https://docs.microsoft.com/en-us/typography/opentype/spec/recom#optimized-table-ordering
var tableOrder = map[Tag]int{}

func init() {
	for name, prio := range map[string]int{
		"head": 95,
		"hhea": 90,
		"maxp": 85,
		"OS/2": 80,
		"hmtx": 75,
		"cmap": 55,
		"fvar": 52,
		"avar": 51,
		"fpgm": 50,
		"prep": 45,
		"cvt ": 40,
		"loca": 35,
		"glyf": 30,
		"gvar": 28,
		"kern": 25,
		"name": 20,
		"post": 15,
	} {
		tableOrder[T(name)] = prio
	}
}
