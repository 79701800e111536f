package ot

// The table codec registry maps table tags to their decode and encode
// halves. It is plain data, populated once at process start; adding
// support for another table means adding an entry here plus the two
// functions.
//
// Tables without an entry are carried as opaque byte ranges and re-emitted
// verbatim on write.

type decodeFunc func(tag Tag, b binarySegm, offset, size uint32) (Table, error)
type encodeFunc func(t Table) ([]byte, error)

type tableCodec struct {
	decode decodeFunc
	encode encodeFunc
}

var tableCodecs map[Tag]tableCodec

func init() {
	tableCodecs = map[Tag]tableCodec{
		T("avar"): {decode: parseAvar, encode: encodeAvar},
		T("cmap"): {decode: parseCmap, encode: encodeCmap},
		T("fvar"): {decode: parseFvar, encode: encodeFvar},
		T("glyf"): {decode: parseGlyf, encode: encodeGlyf},
		T("gvar"): {decode: parseGvar, encode: encodeGvar},
		T("head"): {decode: parseHead, encode: encodeHead},
		T("hhea"): {decode: parseHHea, encode: encodeHHea},
		T("hmtx"): {decode: parseHMtx, encode: encodeHMtx},
		T("loca"): {decode: parseLoca, encode: encodeLoca},
		T("maxp"): {decode: parseMaxP, encode: encodeMaxP},
		T("name"): {decode: parseName, encode: encodeName},
		T("OS/2"): {decode: parseOS2, encode: encodeOS2},
		T("post"): {decode: parsePost, encode: encodePost},
	}
}

// parseTable decodes a single table, dispatching on the tag. Unrecognized
// tags yield the raw bytes unchanged as a pass-through table.
func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	if codec, ok := tableCodecs[t]; ok {
		return codec.decode(t, b, offset, size)
	}
	tracer().Infof("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// encodeTable re-serializes a table to bytes. Tables without a registered
// encoder, and tables that were never promoted from their raw form, are
// emitted verbatim.
func encodeTable(t Table) ([]byte, error) {
	tag := t.Self().NameTag()
	if codec, ok := tableCodecs[tag]; ok && codec.encode != nil {
		if _, generic := safeSelf(t.Self()).(*genericTable); !generic {
			return codec.encode(t)
		}
	}
	return t.Binary(), nil
}
