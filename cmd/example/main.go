package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aligator/vexfat"
	"github.com/spf13/afero"
)

// main is just a example main to play with vexfat.
func main() {
	serial := uint32(0x12345678)
	if len(os.Args) > 1 {
		s, err := strconv.ParseUint(os.Args[1], 16, 32)
		if err != nil {
			fmt.Println("Please provide the serial number in hex.", err)
			os.Exit(1)
		}
		serial = uint32(s)
	}

	opts := vexfat.DefaultOptions(serial)
	opts.VolumeGUID = true
	opts.Files = []vexfat.FileSpec{
		{
			Name:       "README.md",
			Content:    vexfat.Bytes("# vexfat\n\nThis volume is generated while it is read.\n"),
			Attributes: vexfat.AttrReadOnly | vexfat.AttrArchive,
			Modified:   time.Now(),
		},
	}

	vol, err := vexfat.NewVolume(opts)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("Assembled volume with serial %08X and boot checksum %08X\n\n", vol.Serial(), vol.Checksum())

	fs := vexfat.NewFs(vol, "volume.img", time.Now())
	afero.Walk(fs, "", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size())
		return nil
	})

	file, err := fs.Open("volume.img")
	if err != nil {
		fmt.Println("could not open the image", err)
		os.Exit(1)
	}
	defer file.Close()

	// The checksum sector is the 12th sector.
	buffer := make([]byte, 16)
	offset, err := file.Seek(11*512, io.SeekStart)
	if err != nil {
		fmt.Println("could not seek", err)
		os.Exit(1)
	}
	n, err := file.Read(buffer)
	if err != nil {
		fmt.Println("could not read the image", err)
		os.Exit(1)
	}
	fmt.Printf("\n%d bytes at %d: % X\n", n, offset, buffer)

	info, err := vexfat.Verify(vol)
	if err != nil {
		fmt.Println("verification failed", err)
		os.Exit(1)
	}
	fmt.Printf("\nLabel %q, %d root directory entries\n", info.Label, len(info.Entries))
}
