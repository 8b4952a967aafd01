package pe

import "github.com/pkg/errors"

var (
	ErrInvalidPESize = errors.New("not a PE file, smaller than tiny PE")
)

var (
	// ErrMissingDOSHeader means the "MZ" magic was not found at offset 0.
	ErrMissingDOSHeader = errors.New("no MZ magic at start of file")

	// ErrMissingPEHeader means the "PE" magic was not found at the offset
	// given by the DOS header.
	ErrMissingPEHeader = errors.New("no PE magic at offset given by DOS header")

	// ErrSectionNotFound means a section name or index lookup missed.
	ErrSectionNotFound = errors.New("section not found")

	// ErrInvalidVirtualAddress means no section contains the queried address.
	ErrInvalidVirtualAddress = errors.New("virtual address outside all sections")
)
