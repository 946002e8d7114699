package vexfat

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/aligator/vexfat/checkpoint"
	"github.com/google/uuid"
)

const (
	maxNameLength       = 255
	fileNameEntryLength = 15
	invalidNameChars    = "\"*/:<>?\\|"
)

// volumeGUIDNamespace scopes the GUIDs derived from serial numbers.
var volumeGUIDNamespace = uuid.MustParse("6f1d4f38-2b5c-4c47-9a0e-7d9a1e2f3c41")

// VolumeGUID derives the volume GUID from the serial number, so a device
// always presents the same GUID.
func VolumeGUID(serial uint32) uuid.UUID {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], serial)
	return uuid.NewSHA1(volumeGUIDNamespace, b[:])
}

// encodeName converts a file name to UTF-16 and checks the exFAT naming rules.
func encodeName(name string) ([]uint16, error) {
	units := utf16.Encode([]rune(name))
	switch {
	case len(units) == 0:
		return nil, checkpoint.Wrap(fmt.Errorf("empty name"), ErrInvalidName)
	case len(units) > maxNameLength:
		return nil, checkpoint.Wrap(fmt.Errorf("name %q has %d UTF-16 code units", name, len(units)), ErrInvalidName)
	case name == "." || name == "..":
		return nil, checkpoint.Wrap(fmt.Errorf("name %q is reserved", name), ErrInvalidName)
	case strings.ContainsAny(name, invalidNameChars):
		return nil, checkpoint.Wrap(fmt.Errorf("name %q contains one of %s", name, invalidNameChars), ErrInvalidName)
	}
	for _, u := range units {
		if u < 0x20 {
			return nil, checkpoint.Wrap(fmt.Errorf("name %q contains a control character", name), ErrInvalidName)
		}
	}
	return units, nil
}

// clustersFor returns how many clusters size bytes occupy.
func clustersFor(size uint64, clusterSize uint32) uint64 {
	return (size + uint64(clusterSize) - 1) / uint64(clusterSize)
}

// buildFileEntrySet builds the file, stream extension and file name records
// of one file whose data starts at firstCluster. Empty files get no cluster.
func buildFileEntrySet(spec FileSpec, firstCluster uint32) ([]byte, error) {
	name, err := encodeName(spec.Name)
	if err != nil {
		return nil, err
	}
	if spec.Attributes&AttrDirectory != 0 {
		return nil, checkpoint.Wrap(fmt.Errorf("%s: directories are not supported", spec.Name), ErrInvalidRecord)
	}

	nameRecords := (len(name) + fileNameEntryLength - 1) / fileNameEntryLength
	timestamp, increment := Timestamp(spec.Modified)

	records := []interface{}{
		&FileEntry{
			EntryType:                 EntryFileDirectory,
			SecondaryCount:            uint8(1 + nameRecords),
			FileAttributes:            spec.Attributes,
			CreateTimestamp:           timestamp,
			LastModifiedTimestamp:     timestamp,
			LastAccessedTimestamp:     timestamp,
			Create10msIncrement:       increment,
			LastModified10msIncrement: increment,
			CreateUTCOffset:           UTCOffsetUTC,
			LastModifiedUTCOffset:     UTCOffsetUTC,
			LastAccessedUTCOffset:     UTCOffsetUTC,
		},
	}

	stream := &StreamExtensionEntry{
		EntryType:             EntryStreamExtension,
		GeneralSecondaryFlags: FlagAllocationPossible,
		NameLength:            uint8(len(name)),
		NameHash:              NameHash(name),
	}
	if size := spec.Content.Size(); size > 0 {
		stream.GeneralSecondaryFlags |= FlagNoFatChain
		stream.FirstCluster = firstCluster
		stream.ValidDataLength = size
		stream.DataLength = size
	}
	records = append(records, stream)

	for i := 0; i < nameRecords; i++ {
		entry := &FileNameEntry{EntryType: EntryFileName}
		copy(entry.FileName[:], name[i*fileNameEntryLength:])
		records = append(records, entry)
	}

	set := make([]byte, 0, len(records)*RecordSize)
	for _, r := range records {
		b, err := buildRecord(r)
		if err != nil {
			return nil, err
		}
		set = append(set, b[:]...)
	}
	binary.LittleEndian.PutUint16(set[2:], EntrySetChecksum(set))
	return set, nil
}

// buildVolumeGUIDEntry builds the volume GUID record, a primary entry
// without secondaries.
func buildVolumeGUIDEntry(guid uuid.UUID) ([]byte, error) {
	entry := VolumeGUIDEntry{EntryType: EntryVolumeGUID}
	copy(entry.VolumeGUID[:], guid[:])

	b, err := buildRecord(&entry)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint16(b[2:], EntrySetChecksum(b[:]))
	return b[:], nil
}
