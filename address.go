package pe

import (
	"github.com/pkg/errors"
)

// sectionFor resolves the section containing vaddr. The section that
// satisfied the previous lookup is probed first; on a miss the section
// table is scanned in order and the first containing section wins.
// Either way the winner becomes the new cache entry. Containment is
// re-verified on every call, so the cache is a hint, never an answer.
func (f *File) sectionFor(vaddr uint32) (*Section, error) {
	if s := f.lastSection; s != nil && s.contains(f.ImageBase, vaddr) {
		return s, nil
	}

	for _, s := range f.Sections {
		if s.contains(f.ImageBase, vaddr) {
			f.lastSection = s
			return s, nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidVirtualAddress, "vaddr 0x%08X", vaddr)
}

// RawOffset translates a virtual address to its byte offset in the file
// on disk.
func (f *File) RawOffset(vaddr uint32) (uint32, error) {
	s, err := f.sectionFor(vaddr)
	if err != nil {
		return 0, err
	}
	return uint32(int64(vaddr) - int64(f.ImageBase) - int64(s.VirtualAddress) + int64(s.PointerToRawData)), nil
}

// Section returns the section with the given name, or nil.
func (f *File) Section(name string) *Section {
	for _, s := range f.Sections {
		if s.nameMatches(name) {
			return s
		}
	}
	return nil
}

func (f *File) sectionByName(name string) (*Section, error) {
	if s := f.Section(name); s != nil {
		return s, nil
	}
	return nil, errors.Wrapf(ErrSectionNotFound, "no section named %q", name)
}

// SectionOffsetByIndex returns the virtual address of the start of the
// section at the given 1-based table index. Symbol dumps encode
// addresses as AAAA.BBBBBBBB where A is this index and B a local offset;
// adding B to the returned address yields the symbol's virtual address.
func (f *File) SectionOffsetByIndex(index int) (uint32, error) {
	if index < 1 || index > len(f.Sections) {
		return 0, errors.Wrapf(ErrSectionNotFound, "section index %d out of range", index)
	}
	return uint32(f.ImageBase) + f.Sections[index-1].VirtualAddress, nil
}

// SectionOffsetByName is SectionOffsetByIndex with a name lookup.
func (f *File) SectionOffsetByName(name string) (uint32, error) {
	s, err := f.sectionByName(name)
	if err != nil {
		return 0, err
	}
	return uint32(f.ImageBase) + s.VirtualAddress, nil
}

// IsValidVaddr reports whether the virtual address points at anything in
// the file. It is a pure probe: the section cache is left alone.
func (f *File) IsValidVaddr(vaddr uint32) bool {
	for _, s := range f.Sections {
		if s.contains(f.ImageBase, vaddr) {
			return true
		}
	}
	return false
}
