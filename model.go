// File model contains the structs which match the direct structures of the exFAT filesystem.

package vexfat

// RecordSize is the size of every exFAT directory entry.
const RecordSize = 32

// EntryType is the first byte of a directory entry.
type EntryType uint8

const (
	EntryEndOfDirectory   EntryType = 0x00
	EntryAllocationBitmap EntryType = 0x81
	EntryUpcaseTable      EntryType = 0x82
	EntryVolumeLabel      EntryType = 0x83
	EntryFileDirectory    EntryType = 0x85
	EntryVolumeGUID       EntryType = 0xA0
	EntryStreamExtension  EntryType = 0xC0
	EntryFileName         EntryType = 0xC1
)

// File attributes (FileAttributes field of the file directory entry).
const (
	AttrReadOnly  uint16 = 0x0001
	AttrHidden    uint16 = 0x0002
	AttrSystem    uint16 = 0x0004
	AttrDirectory uint16 = 0x0010
	AttrArchive   uint16 = 0x0020

	attrMask = AttrReadOnly | AttrHidden | AttrSystem | AttrDirectory | AttrArchive
)

// UTCOffsetUTC is the only UtcOffset value produced: OffsetValid set, zero minutes.
const UTCOffsetUTC uint8 = 0x80

// GeneralSecondaryFlags bits.
const (
	FlagAllocationPossible uint8 = 0x01
	FlagNoFatChain         uint8 = 0x02
)

// Boot sector layout.
const (
	bootSectorHeaderSize  = 512
	offsetVolumeSerial    = 100
	offsetVolumeFlags     = 106
	offsetPercentInUse    = 112
	extendedBootSignature = 0xAA550000
	bootSignature         = 0xAA55
	mainBootRegionSectors = 12
	bootChecksumSector    = 11
	fileSystemRevision    = 0x0100
	driveSelectFixedDisk  = 0x80
)

type BootSector struct {
	JumpBoot                    [3]byte
	FileSystemName              [8]byte
	MustBeZero                  [53]byte
	PartitionOffset             uint64
	VolumeLength                uint64
	FatOffset                   uint32
	FatLength                   uint32
	ClusterHeapOffset           uint32
	ClusterCount                uint32
	FirstClusterOfRootDirectory uint32
	VolumeSerialNumber          uint32
	FileSystemRevision          uint16
	VolumeFlags                 uint16
	BytesPerSectorShift         uint8
	SectorsPerClusterShift      uint8
	NumberOfFats                uint8
	DriveSelect                 uint8
	PercentInUse                uint8
	Reserved                    [7]byte
	BootCode                    [390]byte
	BootSignature               uint16
}

// GenericEntry is the template every directory entry follows.
// With all fields zero it is the end-of-directory marker.
type GenericEntry struct {
	EntryType     EntryType
	EntrySpecific [19]byte
	FirstCluster  uint32
	DataLength    uint64
}

type AllocationBitmapEntry struct {
	EntryType    EntryType
	BitmapFlags  uint8
	Reserved     [18]byte
	FirstCluster uint32
	DataLength   uint64
}

type UpcaseTableEntry struct {
	EntryType     EntryType
	Reserved1     [3]byte
	TableChecksum uint32
	Reserved2     [12]byte
	FirstCluster  uint32
	DataLength    uint64
}

type VolumeLabelEntry struct {
	EntryType      EntryType
	CharacterCount uint8
	VolumeLabel    [11]uint16
	Reserved       [8]byte
}

type FileEntry struct {
	EntryType                 EntryType
	SecondaryCount            uint8
	SetChecksum               uint16
	FileAttributes            uint16
	Reserved1                 uint16
	CreateTimestamp           uint32
	LastModifiedTimestamp     uint32
	LastAccessedTimestamp     uint32
	Create10msIncrement       uint8
	LastModified10msIncrement uint8
	CreateUTCOffset           uint8
	LastModifiedUTCOffset     uint8
	LastAccessedUTCOffset     uint8
	Reserved2                 [7]byte
}

type VolumeGUIDEntry struct {
	EntryType           EntryType
	SecondaryCount      uint8
	SetChecksum         uint16
	GeneralPrimaryFlags uint16
	VolumeGUID          [16]byte
	Reserved            [10]byte
}

type StreamExtensionEntry struct {
	EntryType             EntryType
	GeneralSecondaryFlags uint8
	Reserved1             uint8
	NameLength            uint8
	NameHash              uint16
	Reserved2             uint16
	ValidDataLength       uint64
	Reserved3             uint32
	FirstCluster          uint32
	DataLength            uint64
}

type FileNameEntry struct {
	EntryType             EntryType
	GeneralSecondaryFlags uint8
	FileName              [15]uint16
}

// RootHead holds the four records every root directory starts with, in the
// order they are served.
type RootHead struct {
	VolumeLabel      VolumeLabelEntry
	AllocationBitmap AllocationBitmapEntry
	UpcaseTable      UpcaseTableEntry
	EndOfDirectory   GenericEntry
}
