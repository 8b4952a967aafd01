package pe

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// SectionHeader is the raw 0x28-byte section table record.
type SectionHeader struct {
	Name                 [8]uint8
	Misc                 uint32 // union of PhysicalAddress and VirtualSize, kept opaque
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// NameString returns the section name with trailing NUL padding removed.
func (sh *SectionHeader) NameString() string {
	return cString(sh.Name[:])
}

// nameMatches compares the raw name field against name as an exact
// 8-byte NUL-padded ASCII match. No case folding, no prefix match.
func (sh *SectionHeader) nameMatches(name string) bool {
	if len(name) > len(sh.Name) {
		return false
	}
	var padded [8]uint8
	copy(padded[:], name)
	return sh.Name == padded
}

// contains reports whether vaddr falls in the section's
// [VirtualAddress, VirtualAddress+SizeOfRawData) range, with vaddr
// expressed as imagebase + relative offset.
func (sh *SectionHeader) contains(imagebase int32, vaddr uint32) bool {
	ofs := int64(vaddr) - int64(imagebase) - int64(sh.VirtualAddress)
	return 0 <= ofs && ofs < int64(sh.SizeOfRawData)
}

type Section struct {
	SectionHeader

	io.ReaderAt
	sr *io.SectionReader
}

// Data reads and returns the raw on-disk contents of the section.
func (s *Section) Data() ([]byte, error) {
	dat := make([]byte, s.sr.Size())
	n, err := s.sr.ReadAt(dat, 0)
	if n == len(dat) {
		err = nil
	}
	return dat[0:n], err
}

// Open returns a new ReadSeeker reading the section's raw contents.
func (s *Section) Open() io.ReadSeeker {
	return io.NewSectionReader(s.sr, 0, 1<<63-1)
}

func (s *Section) MD5() string {
	hasher := md5.New()
	_, _ = io.Copy(hasher, s.Open())
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (s *Section) Entropy() float64 {
	var e EntropyCalculator
	_, _ = io.Copy(&e, s.Open())
	return e.Sum()
}

func (s *Section) Flags() (flags string) {
	if (ImageScnMemRead & s.Characteristics) == ImageScnMemRead {
		flags += "r"
	}
	if (ImageScnMemExecute & s.Characteristics) == ImageScnMemExecute {
		flags += "x"
	}
	if (ImageScnMemWrite & s.Characteristics) == ImageScnMemWrite {
		flags += "w"
	}
	return flags
}

// readSections parses NumberOfSections records following the optional
// header. The cursor is already positioned there by readImageBase. Table
// order is preserved: index lookups are 1-based into this order, and the
// address translator scans it first-match.
func (f *File) readSections() error {
	f.Sections = make([]*Section, f.PEHeader.NumberOfSections)
	for i := 0; i < int(f.PEHeader.NumberOfSections); i++ {
		s := new(Section)
		if err := binary.Read(f.sr, binary.LittleEndian, &s.SectionHeader); err != nil {
			return errors.Wrapf(err, "failure to read section header %d", i)
		}

		var r io.ReaderAt
		if s.PointerToRawData == 0 { // .bss must have all 0s
			r = zeroReaderAt{}
		} else {
			r = f.sr
		}
		s.sr = io.NewSectionReader(r, int64(s.PointerToRawData), int64(s.SizeOfRawData))
		s.ReaderAt = s.sr
		f.Sections[i] = s
	}
	return nil
}

// zeroReaderAt is ReaderAt that reads 0s.
type zeroReaderAt struct{}

// ReadAt writes len(p) 0s into p.
func (w zeroReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
