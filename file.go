package pe

import (
	"bytes"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// File parses a PE32 image once at open time and answers all later
// queries (reads, containment probes, relocation membership) by virtual
// address. A File is not safe for concurrent use: address lookups
// update an internal last-section cache.
type File struct {
	DOSHeader
	PEHeader
	ImageBase int32
	Sections  []*Section

	relocated       map[uint32]struct{}
	relocatedSorted []uint32

	lastSection *Section

	size uint32
	f    *os.File
	data mmap.MMap
	sr   *io.SectionReader
}

// NewFile opens and parses the PE file at filename. On any parse
// failure the underlying handle is released before returning.
func NewFile(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	file := &File{f: f, size: uint32(stat.Size())}
	file.sr = io.NewSectionReader(f, 0, stat.Size())

	if err := file.parse(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return file, nil
}

// NewFileMapped is NewFile over a read-only memory mapping of the file.
// The file handle is closed as soon as the mapping exists; Close
// releases the mapping.
func NewFileMapped(filename string) (*File, error) {
	handle, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = handle.Close()
	}()

	m, err := mmap.Map(handle, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.WithMessage(err, "failure to map file")
	}

	file := &File{data: m, size: uint32(len(m))}
	file.sr = io.NewSectionReader(bytes.NewReader(m), 0, int64(len(m)))

	if err := file.parse(); err != nil {
		_ = m.Unmap()
		return nil, err
	}
	return file, nil
}

// parse runs the single open-time pass: headers, section table,
// relocation set, then the .text section seeds the lookup cache.
func (f *File) parse() error {
	if f.size < MinFileSize {
		return ErrInvalidPESize
	}

	if err := f.readDOSHeader(); err != nil {
		return err
	}
	if err := f.readPEHeader(); err != nil {
		return err
	}
	if err := f.readImageBase(); err != nil {
		return err
	}
	if err := f.readSections(); err != nil {
		return err
	}
	if err := f.populateRelocations(); err != nil {
		return err
	}

	text, err := f.sectionByName(".text")
	if err != nil {
		return err
	}
	f.lastSection = text
	return nil
}

// Close releases the mapping or file handle. Calling Close more than
// once is harmless.
func (f *File) Close() error {
	if f.data != nil {
		data := f.data
		f.data = nil
		return data.Unmap()
	}
	if f.f != nil {
		handle := f.f
		f.f = nil
		return handle.Close()
	}
	return nil
}

func (f *File) GetSize() uint32 {
	return f.size
}

// ReadVirtual reads up to size bytes starting at the given virtual
// address. The start address must fall inside a section; the length is
// then clamped to that section's raw extent, so an over-length request
// truncates rather than fails. Reading past the section end would
// misattribute bytes to the wrong virtual addresses.
func (f *File) ReadVirtual(vaddr, size uint32) ([]byte, error) {
	s, err := f.sectionFor(vaddr)
	if err != nil {
		return nil, err
	}

	rawAddr := uint32(int64(vaddr) - int64(f.ImageBase) - int64(s.VirtualAddress) + int64(s.PointerToRawData))

	if remaining := s.PointerToRawData + s.SizeOfRawData - rawAddr; size > remaining {
		size = remaining
	}

	data := make([]byte, size)
	n, err := f.sr.ReadAt(data, int64(rawAddr))
	if n == len(data) {
		err = nil
	}
	return data[:n], err
}

// readVirtualFull is ReadVirtual for internal fixed-layout parsing: a
// clamped or short result is an error rather than a truncation.
func (f *File) readVirtualFull(vaddr, size uint32) ([]byte, error) {
	data, err := f.ReadVirtual(vaddr, size)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < size {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "%d byte read at vaddr 0x%08X", size, vaddr)
	}
	return data, nil
}
