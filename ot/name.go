package ot

import (
	"fmt"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// --- Name table ------------------------------------------------------------

// Well-known name IDs.
const (
	NameFamily         = 1
	NameSubfamily      = 2
	NameUniqueID       = 3
	NameFullName       = 4
	NameVersion        = 5
	NamePostScriptName = 6
)

// NameRecord is one entry of the name table: an identification string in a
// specific platform/encoding/language. Raw holds the undecoded string
// bytes; Value decodes them.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Raw        []byte
}

// Value decodes the record's string bytes. Unicode and Windows platform
// strings are UTF-16BE; Macintosh platform strings are treated as ASCII
// compatible (true for Mac Roman in the range fonts use).
func (r NameRecord) Value() string {
	if r.PlatformID == 0 || r.PlatformID == 3 {
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		if s, err := dec.Bytes(r.Raw); err == nil {
			return string(s)
		}
	}
	return string(r.Raw)
}

// NameTable contains human-readable identification strings (family name,
// version, …), in possibly several platform encodings and languages.
type NameTable struct {
	tableBase
	Records []NameRecord
}

func newNameTable(tag Tag, b binarySegm, offset, size uint32) *NameTable {
	t := &NameTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.self = t
	return t
}

// NewNameTable creates a name table from nameID → string pairs for the
// font assembly path. Each string is stored once for the Windows platform
// (UTF-16BE, encoding 1, US English).
func NewNameTable(names map[uint16]string) *NameTable {
	t := newNameTable(T("name"), nil, 0, 0)
	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	for _, id := range ids {
		raw, err := enc.Bytes([]byte(names[uint16(id)]))
		if err != nil {
			continue
		}
		t.Records = append(t.Records, NameRecord{
			PlatformID: 3,
			EncodingID: 1,
			LanguageID: 0x0409,
			NameID:     uint16(id),
			Raw:        raw,
		})
	}
	return t
}

// Get returns the decoded string for a name ID, preferring Windows
// platform records, or "" if the font carries none.
func (t *NameTable) Get(nameID uint16) string {
	var fallback string
	for _, r := range t.Records {
		if r.NameID != nameID {
			continue
		}
		if r.PlatformID == 3 {
			return r.Value()
		}
		if fallback == "" {
			fallback = r.Value()
		}
	}
	return fallback
}

func parseName(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, tableError(tag, "Size", "name table too small", offset)
	}
	t := newNameTable(tag, b, offset, size)
	count := int(b.U16(2))
	storage, err := parseLink16(b, 4, b, "name string storage")
	if err != nil {
		return nil, tableError(tag, "StorageOffset", err.Error(), offset+4)
	}
	recsSize, err := checkedMulInt(12, count)
	if err != nil || 6+recsSize > len(b) {
		return nil, tableError(tag, "NameRecords", "name record entries truncated", offset+6)
	}
	strbuf := storage.Jump()
	t.Records = make([]NameRecord, 0, count)
	for i := 0; i < count; i++ {
		rec := b[6+i*12:]
		length, strOff := int(rec.U16(8)), int(rec.U16(10))
		if strOff+length > len(strbuf) {
			return nil, tableError(tag, "NameRecords",
				fmt.Sprintf("string %d bounds [%d:%d] exceed storage size %d", i, strOff, strOff+length, len(strbuf)),
				offset+uint32(6+i*12))
		}
		t.Records = append(t.Records, NameRecord{
			PlatformID: rec.U16(0),
			EncodingID: rec.U16(2),
			LanguageID: rec.U16(4),
			NameID:     rec.U16(6),
			Raw:        strbuf[strOff : strOff+length],
		})
	}
	return t, nil
}

func encodeName(table Table) ([]byte, error) {
	t := table.Self().AsName()
	if t == nil {
		return nil, errFontFormat("name: not a name table")
	}
	buf := newBuffer()
	buf.PutU16(0) // format 0
	buf.PutU16(uint16(len(t.Records)))
	buf.PutU16(uint16(6 + 12*len(t.Records)))
	storage := newBuffer()
	for _, r := range t.Records {
		buf.PutU16(r.PlatformID)
		buf.PutU16(r.EncodingID)
		buf.PutU16(r.LanguageID)
		buf.PutU16(r.NameID)
		buf.PutU16(uint16(len(r.Raw)))
		buf.PutU16(uint16(storage.Len()))
		storage.PutBytes(r.Raw)
	}
	buf.PutBytes(storage.Bytes())
	return buf.Bytes(), nil
}
