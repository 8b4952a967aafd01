package pe

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// PEHeader is the fixed 0x18-byte record at the offset the DOS header
// points to. The 2-byte "PE" signature and the 2 reserved bytes after it
// are consumed during parsing and not stored.
type PEHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32 // deprecated
	NumberOfSymbols      uint32 // deprecated
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

func (f *File) readPEHeader() error {
	if _, err := f.sr.Seek(int64(f.DOSHeader.AddressOfNewEXEHeader), io.SeekStart); err != nil {
		return errors.WithMessage(err, "failure to seek to PE header")
	}

	var signature uint16
	if err := binary.Read(f.sr, binary.LittleEndian, &signature); err != nil {
		return errors.WithMessage(err, "failure to read PE signature")
	}
	if signature != ImagePESignature {
		return ErrMissingPEHeader
	}

	// Two reserved bytes follow the signature.
	if _, err := f.sr.Seek(2, io.SeekCurrent); err != nil {
		return err
	}

	if err := binary.Read(f.sr, binary.LittleEndian, &f.PEHeader); err != nil {
		return errors.WithMessage(err, "failure to read PE header")
	}
	return nil
}

// readImageBase consumes the optional header, keeping only ImageBase.
// The rest of the optional header is opaque to this package; in
// particular the PE32/PE32+ magic is never inspected, so PE32+ inputs
// are read as if their image base were at the PE32 position.
func (f *File) readImageBase() error {
	if int(f.PEHeader.SizeOfOptionalHeader) < imageBaseOffset+4 {
		return errors.Errorf("optional header size(%d) too small to hold an image base",
			f.PEHeader.SizeOfOptionalHeader)
	}

	optional := make([]byte, f.PEHeader.SizeOfOptionalHeader)
	if _, err := io.ReadFull(f.sr, optional); err != nil {
		return errors.WithMessage(err, "failure to read optional header")
	}

	f.ImageBase = int32(binary.LittleEndian.Uint32(optional[imageBaseOffset : imageBaseOffset+4]))
	return nil
}
