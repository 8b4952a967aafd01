package pe

// MinFileSize On Windows XP (x32) the smallest PE executable is 97 bytes.
const MinFileSize = 97

const (
	ImageDOSSignature = 0x5A4D // MZ
)

// ImagePESignature is the 2-byte "PE" magic. The two reserved bytes that
// follow it on disk are skipped, not checked.
const ImagePESignature = 0x4550

const (
	ImageScnMemExecute = 0x20000000
	ImageScnMemRead    = 0x40000000
	ImageScnMemWrite   = 0x80000000
)

const (
	// imageBaseOffset is the position of ImageBase within the PE32
	// optional header.
	imageBaseOffset = 0x1C

	// relocBlockHeaderSize covers the page base and block size dwords
	// at the start of every base relocation block.
	relocBlockHeaderSize = 8

	// relocOffsetMask extracts the page offset from a relocation entry;
	// the top 4 bits hold the relocation type and are ignored here.
	relocOffsetMask = 0x0FFF
)

var (
	DOSHeaderSize     = 64
	PEHeaderSize      = 24
	SectionHeaderSize = 40
)
