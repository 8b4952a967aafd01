package pe

import (
	"testing"
)

func TestSectionFlags(t *testing.T) {
	f, err := NewFile(buildTestPE(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tests := []struct {
		name string
		want string
	}{
		{".text", "rx"},
		{".data", "rw"},
		{".reloc", "r"},
	}
	for _, tt := range tests {
		s := f.Section(tt.name)
		if s == nil {
			t.Fatalf("Section(%q) = nil", tt.name)
		}
		if got := s.Flags(); got != tt.want {
			t.Errorf("Section(%q).Flags() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSectionData(t *testing.T) {
	f, err := NewFile(buildTestPE(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	s := f.Section(".text")
	if s == nil {
		t.Fatal("Section(.text) = nil")
	}

	data, err := s.Data()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0x500 {
		t.Fatalf("len(Data()) = 0x%X, want 0x500", len(data))
	}
	if data[0] != 0xDE || data[0x4FF] != 0x5A {
		t.Errorf("Data() boundaries = 0x%02X..0x%02X, want 0xDE..0x5A", data[0], data[0x4FF])
	}

	if got := s.Entropy(); got <= 0 {
		t.Errorf("Entropy() = %v, want > 0", got)
	}
	if got := s.MD5(); len(got) != 32 {
		t.Errorf("MD5() = %q, want 32 hex chars", got)
	}
}
