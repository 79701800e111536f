// Package fontload loads fonts through an independent SFNT reader
// (golang.org/x/image/font/sfnt). Tests use it to cross-check that fonts
// assembled by this module are readable by a parser we did not write.
package fontload

import (
	"os"

	"golang.org/x/image/font/sfnt"
)

// Font is a font parsed by the external reader, alongside its raw bytes.
type Font struct {
	Name   string
	Binary []byte
	SFNT   *sfnt.Font
}

// FromFile reads and parses an OpenType font file.
func FromFile(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(data)
}

// FromBytes parses an OpenType font from memory. The byte slice must not
// change afterwards.
func FromBytes(data []byte) (*Font, error) {
	f := &Font{Binary: data}
	var err error
	f.SFNT, err = sfnt.Parse(data)
	if err != nil {
		return nil, err
	}
	f.Name, err = f.SFNT.Name(nil, sfnt.NameIDFull)
	if err != nil {
		// fonts without a full-name record are still usable
		f.Name = ""
	}
	return f, nil
}

// NumGlyphs returns the glyph count the external reader sees.
func (f *Font) NumGlyphs() int {
	return f.SFNT.NumGlyphs()
}
