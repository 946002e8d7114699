package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func infoCmd(volume *volumeFlags) *cobra.Command {
	var regions bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "print the layout of the volume",
		Long:  `Print the geometry, serial number, boot checksum and files of the volume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, _, err := volume.load(afero.NewOsFs())
			if err != nil {
				return err
			}

			g := vol.Geometry()
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "Serial\t%08X\n", vol.Serial())
			fmt.Fprintf(w, "Boot checksum\t%08X\n", vol.Checksum())
			fmt.Fprintf(w, "Composer\tprefix %08X, rotation %d\n", vol.Image().Composer.Prefix, vol.Image().Composer.SuffixRot)
			if guid, ok := vol.GUID(); ok {
				fmt.Fprintf(w, "Volume GUID\t%s\n", guid)
			}
			fmt.Fprintf(w, "Sector size\t%d\n", g.SectorSize())
			fmt.Fprintf(w, "Cluster size\t%d\n", g.ClusterSize())
			fmt.Fprintf(w, "Volume length\t%d sectors\n", g.VolumeLength)
			fmt.Fprintf(w, "Partition offset\t%d\n", g.PartitionOffset)
			fmt.Fprintf(w, "FAT\t%d + %d sectors\n", g.FatOffset, g.FatLength)
			fmt.Fprintf(w, "Cluster heap\t%d, %d clusters\n", g.ClusterHeapOffset, g.ClusterCount)
			for _, f := range vol.Files() {
				fmt.Fprintf(w, "File %s\t%d bytes at cluster %d\n", f.Name, f.Size, f.FirstCluster)
			}
			if regions {
				for _, r := range vol.Regions() {
					fmt.Fprintf(w, "Region\t%v\n", r)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&regions, "regions", false, "Also print the region table")

	return cmd
}
