package pe

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Synthetic PE32 fixture: three sections, image base 0x400000, a .reloc
// table with two blocks. Built byte by byte so every header offset in
// the parser is exercised against a known layout.

const (
	testImageBase = 0x400000
	testPEOffset  = 0x80
	testOptSize   = 0xE0
	testImageSize = 0xC00
)

type testSection struct {
	name  string
	va    uint32
	size  uint32
	raw   uint32
	chars uint32
}

func defaultSections() []testSection {
	return []testSection{
		{".text", 0x1000, 0x500, 0x400, 0x60000020},
		{".data", 0x2000, 0x200, 0x900, 0xC0000040},
		{".reloc", 0x3000, 0x100, 0xB00, 0x42000040},
	}
}

// defaultContent fills the section bodies: known bytes at the start and
// end of .text, three 4-byte absolute pointers at fixup sites, and two
// relocation blocks (each padded with zero entries) followed by a
// zero-size terminator.
func defaultContent(img []byte) {
	le := binary.LittleEndian

	copy(img[0x400:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	le.PutUint32(img[0x410:], 0x00402000) // site VA 0x401010
	le.PutUint32(img[0x420:], 0x00402004) // site VA 0x401020
	img[0x8FF] = 0x5A                     // last byte of .text

	le.PutUint32(img[0x908:], 0x00401000) // site VA 0x402008

	// Block for page 0x1000: two entries plus two padding entries.
	le.PutUint32(img[0xB00:], 0x1000)
	le.PutUint32(img[0xB04:], 16)
	le.PutUint16(img[0xB08:], 0x3010)
	le.PutUint16(img[0xB0A:], 0x3020)

	// Block for page 0x2000: one entry plus one padding entry.
	le.PutUint32(img[0xB10:], 0x2000)
	le.PutUint32(img[0xB14:], 12)
	le.PutUint16(img[0xB18:], 0x3008)
}

func buildImage(t *testing.T, sections []testSection, patch func([]byte)) string {
	t.Helper()

	img := make([]byte, testImageSize)
	le := binary.LittleEndian

	copy(img, "MZ")
	le.PutUint32(img[0x3C:], testPEOffset)

	copy(img[testPEOffset:], "PE\x00\x00")
	le.PutUint16(img[testPEOffset+4:], 0x014C) // i386
	le.PutUint16(img[testPEOffset+6:], uint16(len(sections)))
	le.PutUint32(img[testPEOffset+8:], 0x43231EC5)
	le.PutUint16(img[testPEOffset+20:], testOptSize)
	le.PutUint16(img[testPEOffset+22:], 0x0102)

	opt := testPEOffset + 24
	le.PutUint16(img[opt:], 0x010B) // PE32 magic, opaque to the parser
	le.PutUint32(img[opt+imageBaseOffset:], testImageBase)

	table := opt + testOptSize
	for i, s := range sections {
		base := table + i*SectionHeaderSize
		copy(img[base:base+8], s.name)
		le.PutUint32(img[base+8:], s.size) // Misc
		le.PutUint32(img[base+12:], s.va)
		le.PutUint32(img[base+16:], s.size)
		le.PutUint32(img[base+20:], s.raw)
		le.PutUint32(img[base+36:], s.chars)
	}

	if patch != nil {
		patch(img)
	}

	name := filepath.Join(t.TempDir(), "fixture.exe")
	if err := os.WriteFile(name, img, 0o600); err != nil {
		t.Fatal(err)
	}
	return name
}

func buildTestPE(t *testing.T) string {
	t.Helper()
	return buildImage(t, defaultSections(), defaultContent)
}
