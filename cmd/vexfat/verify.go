package main

import (
	"fmt"
	"io"

	"github.com/aligator/vexfat"
	"github.com/diskfs/go-diskfs/partition/mbr"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// imageSource returns the volume inside f. A file not starting with an exFAT
// boot sector is read as a disk with an MBR and the first partition is used.
func imageSource(f afero.File) (io.ReaderAt, error) {
	header := make([]byte, 512)
	if _, err := f.ReadAt(header, 0); err != nil && err != io.EOF {
		return nil, err
	}
	if _, err := vexfat.ParseBootSector(header); err == nil {
		return f, nil
	}

	table, err := mbr.Read(f, 512, 512)
	if err != nil {
		log.Debugf("No partition table: %v", err)
		return f, nil
	}
	for i, p := range table.Partitions {
		if p.Type == mbr.Empty || p.Size == 0 {
			continue
		}
		log.Debugf("Checking partition %d at sector %d", i+1, p.Start)
		return io.NewSectionReader(f, p.GetStart(), p.GetSize()), nil
	}
	return f, nil
}

func verifyCmd(volume *volumeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [image]",
		Short: "check the boot region and root directory of a volume",
		Long: `Check the boot region and root directory of a volume.

Without an argument the configured volume is assembled and read back. With an
argument the given image file is checked instead. The file may hold the raw
volume or a disk image written by "dump --mbr".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()

			var source io.ReaderAt
			if len(args) == 1 {
				f, err := fs.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				if source, err = imageSource(f); err != nil {
					return err
				}
			} else {
				vol, _, err := volume.load(fs)
				if err != nil {
					return err
				}
				source = vol
			}

			info, err := vexfat.Verify(source)
			if err != nil {
				return err
			}

			log.Infof("Label %q, serial %08X, checksum %08X", info.Label, info.Boot.VolumeSerialNumber, info.Checksum)
			for _, e := range info.Entries {
				switch r := e.(type) {
				case *vexfat.FileEntry:
					log.Infof("File entry set, %d secondary entries, modified %s", r.SecondaryCount,
						vexfat.ParseTimestamp(r.LastModifiedTimestamp, r.LastModified10msIncrement))
				case *vexfat.StreamExtensionEntry:
					log.Infof("  %d bytes at cluster %d", r.DataLength, r.FirstCluster)
				case *vexfat.VolumeGUIDEntry:
					log.Infof("Volume GUID % X", r.VolumeGUID)
				default:
					log.Debugf("Entry %T", e)
				}
			}
			fmt.Println("OK")
			return nil
		},
	}

	return cmd
}
