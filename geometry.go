package vexfat

import (
	"fmt"

	"github.com/aligator/vexfat/checkpoint"
)

// Fixed cluster layout of the heap.
const (
	firstHeapCluster    = 2
	BitmapCluster       = 2
	UpcaseCluster       = 3
	RootDirCluster      = 4
	firstFileCluster    = 5
	maxClusterCount     = 0xFFFFFFF5
	backupBootRegion    = mainBootRegionSectors
	defaultFatOffset    = 2 * mainBootRegionSectors
	minVolumeBytes      = 1 << 20
	fatEntrySize        = 4
	maxSectorShift      = 12
	minSectorShift      = 9
	maxClusterSizeShift = 25
)

// Geometry describes where the regions of the volume lie. All values are in
// sectors unless the name says otherwise.
type Geometry struct {
	BytesPerSectorShift    uint8
	SectorsPerClusterShift uint8
	VolumeLength           uint32
	PartitionOffset        uint64
	FatOffset              uint32
	FatLength              uint32
	ClusterHeapOffset      uint32
	ClusterCount           uint32
}

// NewGeometry lays out a volume of volumeLength sectors. The FAT is placed
// right after the backup boot region and the cluster heap starts at the first
// cluster-aligned sector after the FAT.
func NewGeometry(sectorShift, clusterShift uint8, volumeLength uint32) (Geometry, error) {
	g := Geometry{
		BytesPerSectorShift:    sectorShift,
		SectorsPerClusterShift: clusterShift,
		VolumeLength:           volumeLength,
		FatOffset:              defaultFatOffset,
	}

	if sectorShift < minSectorShift || sectorShift > maxSectorShift {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("bytes per sector shift %d not in [%d, %d]", sectorShift, minSectorShift, maxSectorShift), ErrGeometry)
	}
	if int(clusterShift) > maxClusterSizeShift-int(sectorShift) {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("sectors per cluster shift %d too large", clusterShift), ErrGeometry)
	}
	if uint64(volumeLength)<<sectorShift < minVolumeBytes {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("volume of %d sectors is smaller than 1 MiB", volumeLength), ErrGeometry)
	}

	// FatLength depends on ClusterCount which depends on where the heap starts.
	// Shrinking the heap never grows the FAT, so this settles after a few rounds.
	g.ClusterHeapOffset = g.alignToCluster(g.FatOffset + 1)
	for i := 0; i < 16; i++ {
		if g.ClusterHeapOffset >= volumeLength {
			return Geometry{}, checkpoint.Wrap(fmt.Errorf("no room for a cluster heap"), ErrGeometry)
		}
		g.ClusterCount = (volumeLength - g.ClusterHeapOffset) >> clusterShift
		if g.ClusterCount > maxClusterCount {
			g.ClusterCount = maxClusterCount
		}
		fatBytes := uint64(g.ClusterCount+2) * fatEntrySize
		g.FatLength = uint32((fatBytes + uint64(g.SectorSize()) - 1) >> sectorShift)

		next := g.alignToCluster(g.FatOffset + g.FatLength)
		if next == g.ClusterHeapOffset {
			break
		}
		g.ClusterHeapOffset = next
	}

	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// Validate checks the invariants between the fields.
func (g Geometry) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return checkpoint.Wrap(fmt.Errorf(format, args...), ErrGeometry)
	}

	switch {
	case g.BytesPerSectorShift < minSectorShift || g.BytesPerSectorShift > maxSectorShift:
		return fail("bytes per sector shift %d", g.BytesPerSectorShift)
	case int(g.SectorsPerClusterShift) > maxClusterSizeShift-int(g.BytesPerSectorShift):
		return fail("sectors per cluster shift %d", g.SectorsPerClusterShift)
	case g.FatOffset < defaultFatOffset:
		return fail("FAT offset %d overlaps the boot regions", g.FatOffset)
	case uint64(g.ClusterCount+2)*fatEntrySize > uint64(g.FatLength)<<g.BytesPerSectorShift:
		return fail("FAT of %d sectors cannot describe %d clusters", g.FatLength, g.ClusterCount)
	case g.ClusterHeapOffset < g.FatOffset+g.FatLength:
		return fail("cluster heap at %d overlaps the FAT", g.ClusterHeapOffset)
	case uint64(g.ClusterHeapOffset)+uint64(g.ClusterCount)<<g.SectorsPerClusterShift > uint64(g.VolumeLength):
		return fail("cluster heap exceeds the volume")
	case g.ClusterCount < firstFileCluster-firstHeapCluster:
		return fail("only %d clusters, need at least %d", g.ClusterCount, firstFileCluster-firstHeapCluster)
	case g.ClusterCount > maxClusterCount:
		return fail("%d clusters", g.ClusterCount)
	case g.BitmapLength() > g.ClusterSize():
		return fail("allocation bitmap of %d bytes does not fit into one cluster", g.BitmapLength())
	}
	return nil
}

// SectorSize in bytes.
func (g Geometry) SectorSize() uint32 {
	return 1 << g.BytesPerSectorShift
}

// SectorsPerCluster is the number of sectors of one cluster.
func (g Geometry) SectorsPerCluster() uint32 {
	return 1 << g.SectorsPerClusterShift
}

// ClusterSize in bytes.
func (g Geometry) ClusterSize() uint32 {
	return g.SectorSize() << g.SectorsPerClusterShift
}

func (g Geometry) alignToCluster(sector uint32) uint32 {
	mask := g.SectorsPerCluster() - 1
	return (sector + mask) &^ mask
}

// ValidCluster reports whether cluster lies inside the cluster heap.
func (g Geometry) ValidCluster(cluster uint32) bool {
	return cluster >= firstHeapCluster && cluster-firstHeapCluster < g.ClusterCount
}

// ClusterToBlock returns the first sector of cluster. The cluster must lie in
// [2, 2+ClusterCount); anything else is a programming error and panics.
func (g Geometry) ClusterToBlock(cluster uint32) uint32 {
	if !g.ValidCluster(cluster) {
		panic(fmt.Sprintf("vexfat: cluster %d outside of [%d, %d)", cluster, firstHeapCluster, uint64(g.ClusterCount)+firstHeapCluster))
	}
	return g.ClusterHeapOffset + (cluster-firstHeapCluster)<<g.SectorsPerClusterShift
}

// BlockToCluster returns the cluster containing block. The block must lie in
// the cluster heap; anything else is a programming error and panics.
func (g Geometry) BlockToCluster(block uint32) uint32 {
	if block < g.ClusterHeapOffset || (block-g.ClusterHeapOffset)>>g.SectorsPerClusterShift >= g.ClusterCount {
		panic(fmt.Sprintf("vexfat: block %d outside of the cluster heap", block))
	}
	return (block-g.ClusterHeapOffset)>>g.SectorsPerClusterShift + firstHeapCluster
}

// BitmapLength is the size of the allocation bitmap in bytes.
func (g Geometry) BitmapLength() uint32 {
	return (g.ClusterCount + 7) / 8
}
