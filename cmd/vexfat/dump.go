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

// defaultPartitionStart is where the volume is placed in an MBR image unless
// the configuration names a partition offset.
const defaultPartitionStart = 2048

func dumpCmd(volume *volumeFlags) *cobra.Command {
	var (
		output  string
		withMBR bool
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "write the volume to an image file",
		Long: `Write the volume to an image file.

With --mbr the volume is wrapped into a disk image with an MBR partition table,
as a device would present it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			vol, cfg, err := volume.load(fs)
			if err != nil {
				return err
			}

			if withMBR && vol.Geometry().PartitionOffset == 0 {
				// The boot sector has to know where its partition starts.
				opts, err := cfg.Options(fs)
				if err != nil {
					return err
				}
				opts.PartitionOffset = defaultPartitionStart
				if vol, err = vexfat.NewVolume(opts); err != nil {
					return err
				}
			}

			f, err := fs.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if withMBR {
				err = writeMBRImage(f, vol)
			} else {
				_, err = io.Copy(f, io.NewSectionReader(vol, 0, vol.Size()))
			}
			if err != nil {
				return fmt.Errorf("writing %s: %v", output, err)
			}

			log.Infof("Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "volume.img", "Image file to write")
	cmd.Flags().BoolVar(&withMBR, "mbr", false, "Wrap the volume into a disk image with an MBR partition table")

	return cmd
}

// writeMBRImage writes a partition table with a single partition holding
// the volume, followed by the volume itself.
func writeMBRImage(f afero.File, vol *vexfat.Volume) error {
	g := vol.Geometry()
	if g.SectorSize() != 512 {
		return fmt.Errorf("MBR images need 512 byte sectors, the volume has %d", g.SectorSize())
	}
	if g.PartitionOffset > uint64(^uint32(0)) {
		return fmt.Errorf("partition offset %d does not fit into an MBR", g.PartitionOffset)
	}

	partition := &mbr.Partition{
		Type:  mbr.NTFS,
		Start: uint32(g.PartitionOffset),
		Size:  g.VolumeLength,
	}
	table := &mbr.Table{
		Partitions:         []*mbr.Partition{partition},
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
	}

	diskSize := (int64(partition.Start) + int64(partition.Size)) * 512
	if err := table.Write(f, diskSize); err != nil {
		return err
	}

	written, err := partition.WriteContents(f, io.NewSectionReader(vol, 0, vol.Size()))
	if err != nil {
		return err
	}
	log.Debugf("Wrote %d bytes into the partition at sector %d", written, partition.Start)
	return nil
}
