package vexfat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/aligator/vexfat/checkpoint"
)

var (
	jumpBoot       = [3]byte{0xEB, 0x76, 0x90}
	fileSystemName = [8]byte{'E', 'X', 'F', 'A', 'T', ' ', ' ', ' '}
)

// FAT entry values.
const (
	fatMediaDescriptor = 0xFFFFFFF8
	fatEndOfChain      = 0xFFFFFFFF
)

// Image contains the constant parts of the volume. It is built once and
// never modified afterwards.
type Image struct {
	Geometry Geometry

	// BootSector is the full first sector with the serial number left zero.
	BootSector []byte
	// FAT0 is the first sector of the FAT.
	FAT0 []byte
	// RootHead are the first four root directory records.
	RootHead [4 * RecordSize]byte
	// Composer combines the boot checksum with the runtime serial number.
	Composer Composer
	// Label is the volume label as stored in the label record.
	Label []uint16

	allocated uint32
}

// BuildImage assembles the boot sector template, the first FAT sector and the
// root directory head for the given geometry. allocatedClusters is the
// number of heap clusters in use, starting with the allocation bitmap.
func BuildImage(g Geometry, label string, allocatedClusters uint32) (*Image, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if allocatedClusters < firstFileCluster-firstHeapCluster || allocatedClusters > g.ClusterCount {
		return nil, checkpoint.Wrap(fmt.Errorf("%d allocated clusters in a heap of %d", allocatedClusters, g.ClusterCount), ErrGeometry)
	}

	labelUnits, err := encodeLabel(label)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Geometry:  g,
		Label:     labelUnits,
		allocated: allocatedClusters,
	}

	if img.BootSector, err = buildBootSector(g, allocatedClusters); err != nil {
		return nil, err
	}
	img.FAT0 = buildFAT0(g)
	if img.RootHead, err = buildRootHead(g, labelUnits); err != nil {
		return nil, err
	}

	if img.Composer, err = NewComposer(img.BootRegion(0)); err != nil {
		return nil, err
	}

	return img, nil
}

// BootRegion returns the sectors 0 to 10 of the boot region with serial
// inserted, the input of the reference checksum scan.
func (img *Image) BootRegion(serial uint32) []byte {
	ss := img.Geometry.SectorSize()
	region := make([]byte, bootChecksumSector*ss)
	for sector := uint32(0); sector < bootChecksumSector; sector++ {
		img.fillBootSector(sector, region[sector*ss:(sector+1)*ss])
	}
	binary.LittleEndian.PutUint32(region[offsetVolumeSerial:], serial)
	return region
}

// fillBootSector writes one of the sectors 0 to 10 of the boot region.
func (img *Image) fillBootSector(sector uint32, dst []byte) {
	switch {
	case sector == 0:
		copy(dst, img.BootSector)
	case sector <= 8:
		fillExtendedBootSector(dst, 0, uint32(len(dst)))
	default:
		for i := range dst {
			dst[i] = 0
		}
	}
}

func encodeLabel(label string) ([]uint16, error) {
	units := utf16.Encode([]rune(label))
	if len(units) > 11 {
		return nil, checkpoint.Wrap(fmt.Errorf("label %q has %d UTF-16 code units, at most 11 allowed", label, len(units)), ErrLabel)
	}
	for _, u := range units {
		if u < 0x20 {
			return nil, checkpoint.Wrap(fmt.Errorf("label %q contains a control character", label), ErrLabel)
		}
	}
	return units, nil
}

func buildBootSector(g Geometry, allocatedClusters uint32) ([]byte, error) {
	bs := BootSector{
		JumpBoot:                    jumpBoot,
		FileSystemName:              fileSystemName,
		PartitionOffset:             g.PartitionOffset,
		VolumeLength:                uint64(g.VolumeLength),
		FatOffset:                   g.FatOffset,
		FatLength:                   g.FatLength,
		ClusterHeapOffset:           g.ClusterHeapOffset,
		ClusterCount:                g.ClusterCount,
		FirstClusterOfRootDirectory: RootDirCluster,
		FileSystemRevision:          fileSystemRevision,
		BytesPerSectorShift:         g.BytesPerSectorShift,
		SectorsPerClusterShift:      g.SectorsPerClusterShift,
		NumberOfFats:                1,
		DriveSelect:                 driveSelectFixedDisk,
		PercentInUse:                uint8(uint64(allocatedClusters) * 100 / uint64(g.ClusterCount)),
		BootSignature:               bootSignature,
	}

	if size := binary.Size(bs); size != bootSectorHeaderSize {
		return nil, checkpoint.Wrap(fmt.Errorf("boot sector has %d bytes", size), ErrRecordSize)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &bs); err != nil {
		return nil, checkpoint.From(err)
	}

	sector := make([]byte, g.SectorSize())
	copy(sector, buf.Bytes())
	return sector, nil
}

func buildFAT0(g Geometry) []byte {
	sector := make([]byte, g.SectorSize())
	entries := []uint32{fatMediaDescriptor, fatEndOfChain}
	// Bitmap, up-case table and root directory each fit into a single cluster.
	for cluster := firstHeapCluster; cluster < firstFileCluster; cluster++ {
		entries = append(entries, fatEndOfChain)
	}
	for i, e := range entries {
		binary.LittleEndian.PutUint32(sector[i*fatEntrySize:], e)
	}
	return sector
}

func buildRootHead(g Geometry, label []uint16) ([4 * RecordSize]byte, error) {
	var head [4 * RecordSize]byte

	volumeLabel := VolumeLabelEntry{
		EntryType:      EntryVolumeLabel,
		CharacterCount: uint8(len(label)),
	}
	copy(volumeLabel.VolumeLabel[:], label)

	records := []interface{}{
		&volumeLabel,
		&AllocationBitmapEntry{
			EntryType:    EntryAllocationBitmap,
			FirstCluster: BitmapCluster,
			DataLength:   uint64(g.BitmapLength()),
		},
		&UpcaseTableEntry{
			EntryType:     EntryUpcaseTable,
			TableChecksum: UpcaseTableChecksum,
			FirstCluster:  UpcaseCluster,
			DataLength:    uint64(len(UpcaseTable)),
		},
		&GenericEntry{EntryType: EntryEndOfDirectory},
	}

	for i, r := range records {
		b, err := buildRecord(r)
		if err != nil {
			return head, err
		}
		copy(head[i*RecordSize:], b[:])
	}
	return head, nil
}
