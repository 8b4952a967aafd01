package pe

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

// The base relocation table lists every virtual address whose 4-byte
// contents the loader patches when the image is rebased. Each such site
// holds an absolute pointer, so the values stored there tell us which
// numbers embedded in the binary are genuine virtual addresses rather
// than immediates. The set built here records those values.
//
// Blocks start with a page base (a multiple of 0x1000, relative to the
// image base) and a total block size including the 8-byte header; a
// size of 0 terminates the table. Entries are 2 bytes: low 12 bits are
// the offset within the page, the top 4 bits hold the relocation type,
// which is deliberately ignored. Zero entries are alignment padding.
func (f *File) populateRelocations() error {
	ofs, err := f.SectionOffsetByName(".reloc")
	if err != nil {
		return err
	}

	var sites []uint32
	for {
		hdr, err := f.readVirtualFull(ofs, relocBlockHeaderSize)
		if err != nil {
			return errors.WithMessage(err, "failure to read relocation block header")
		}
		pageBase := binary.LittleEndian.Uint32(hdr[0:4])
		blockSize := binary.LittleEndian.Uint32(hdr[4:8])
		if blockSize == 0 {
			break
		}
		if blockSize < relocBlockHeaderSize {
			return errors.Errorf("relocation block size(%d) smaller than its header", blockSize)
		}

		entries, err := f.readVirtualFull(ofs+relocBlockHeaderSize, blockSize-relocBlockHeaderSize)
		if err != nil {
			return errors.WithMessage(err, "failure to read relocation block entries")
		}
		for i := 0; i+1 < len(entries); i += 2 {
			entry := binary.LittleEndian.Uint16(entries[i : i+2])
			if entry == 0 {
				continue
			}
			sites = append(sites, uint32(f.ImageBase)+pageBase+uint32(entry&relocOffsetMask))
		}

		ofs += blockSize
	}

	// Sorting the fixup sites groups the second pass into mostly
	// sequential file reads.
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })

	f.relocated = make(map[uint32]struct{}, len(sites))
	for _, site := range sites {
		data, err := f.readVirtualFull(site, 4)
		if err != nil {
			return errors.Wrapf(err, "failure to read relocated value at 0x%08X", site)
		}
		f.relocated[binary.LittleEndian.Uint32(data)] = struct{}{}
	}

	f.relocatedSorted = make([]uint32, 0, len(f.relocated))
	for addr := range f.relocated {
		f.relocatedSorted = append(f.relocatedSorted, addr)
	}
	sort.Slice(f.relocatedSorted, func(i, j int) bool {
		return f.relocatedSorted[i] < f.relocatedSorted[j]
	})
	return nil
}

// IsRelocatedAddr reports whether vaddr is the target of a load-time
// fixup, i.e. appears as the 4-byte value of some relocation site.
func (f *File) IsRelocatedAddr(vaddr uint32) bool {
	_, ok := f.relocated[vaddr]
	return ok
}

// RelocatedAddresses returns every relocated address in ascending order
// with no duplicates. The caller owns the returned slice.
func (f *File) RelocatedAddresses() []uint32 {
	addrs := make([]uint32, len(f.relocatedSorted))
	copy(addrs, f.relocatedSorted)
	return addrs
}
