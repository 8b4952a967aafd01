package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	pebin "github.com/binspect/pebin"
	"github.com/fatih/color"
	"github.com/h2non/filetype"
)

var (
	filename   string
	asJSON     bool
	showRelocs bool
)

func init() {
	flag.StringVar(&filename, "filename", "", "Please enter the file path")
	flag.BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	flag.BoolVar(&showRelocs, "relocs", false, "List every relocated address")
	flag.Parse()
}

type Info struct {
	FileType        string
	MachineType     uint16
	CompilationTime uint32
	ImageBase       int32
	Sections        []*Section
	RelocatedCount  int
	RelocatedAddrs  []string `json:",omitempty"`
}

type Section struct {
	Name           string
	MD5            string
	Flags          string
	RawSize        uint32
	RawOffset      uint32
	VirtualAddress uint32
	Entropy        float64
}

func getSections(f *pebin.File) []*Section {
	sections := make([]*Section, 0, f.PEHeader.NumberOfSections)
	for _, s := range f.Sections {
		sections = append(sections, &Section{
			Name:           s.NameString(),
			MD5:            s.MD5(),
			Flags:          s.Flags(),
			RawSize:        s.SizeOfRawData,
			RawOffset:      s.PointerToRawData,
			VirtualAddress: uint32(f.ImageBase) + s.VirtualAddress,
			Entropy:        s.Entropy(),
		})
	}
	return sections
}

func getFileType(filename string) string {
	fh, err := os.Open(filename)
	if err != nil {
		return "Data"
	}
	defer fh.Close()

	data := make([]byte, 1024)
	n, _ := fh.Read(data)
	kind, _ := filetype.Match(data[:n])
	if kind == filetype.Unknown {
		return "Data"
	}
	return kind.MIME.Value
}

func main() {
	f, err := pebin.NewFile(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	relocated := f.RelocatedAddresses()

	info := Info{
		FileType:        getFileType(filename),
		MachineType:     f.PEHeader.Machine,
		CompilationTime: f.PEHeader.TimeDateStamp,
		ImageBase:       f.ImageBase,
		Sections:        getSections(f),
		RelocatedCount:  len(relocated),
	}
	if showRelocs {
		for _, addr := range relocated {
			info.RelocatedAddrs = append(info.RelocatedAddrs, fmt.Sprintf("0x%08X", addr))
		}
	}

	if asJSON {
		data, _ := json.MarshalIndent(&info, "", "    ")
		fmt.Printf("%s\n", data)
		return
	}
	report(&info)
}

func report(info *Info) {
	title := color.New(color.FgCyan, color.Bold)
	key := color.New(color.FgWhite, color.Bold)

	title.Println("PE Image")
	key.Print("  File type:    ")
	fmt.Println(info.FileType)
	key.Print("  Machine:      ")
	fmt.Printf("0x%04X\n", info.MachineType)
	key.Print("  Image base:   ")
	fmt.Printf("0x%08X\n", info.ImageBase)
	key.Print("  Compiled:     ")
	fmt.Printf("%d\n", info.CompilationTime)

	title.Println("Sections")
	for _, s := range info.Sections {
		name := color.GreenString("%-8s", s.Name)
		if s.Flags == "rx" || s.Flags == "rxw" {
			name = color.RedString("%-8s", s.Name)
		}
		fmt.Printf("  %s va=0x%08X raw=0x%06X+0x%06X %-3s entropy=%.2f md5=%s\n",
			name, s.VirtualAddress, s.RawOffset, s.RawSize, s.Flags, s.Entropy, s.MD5)
	}

	title.Println("Relocations")
	key.Print("  Relocated addresses: ")
	fmt.Printf("%d\n", info.RelocatedCount)
	for _, addr := range info.RelocatedAddrs {
		fmt.Printf("    %s\n", addr)
	}
}
