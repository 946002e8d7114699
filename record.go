package vexfat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aligator/vexfat/checkpoint"
)

// These errors describe a volume that cannot be assembled. They are detected
// while building the image, never while serving reads. ErrCorrupt is
// reported by Verify for a volume read back from somewhere.
var (
	ErrRecordSize         = errors.New("directory record is not 32 bytes")
	ErrReservedField      = errors.New("reserved field is not zero")
	ErrInvalidRecord      = errors.New("invalid directory record field")
	ErrChecksumDerivation = errors.New("boot checksum derivation does not match the reference scan")
	ErrGeometry           = errors.New("invalid volume geometry")
	ErrRegionTiling       = errors.New("regions do not tile the volume")
	ErrRootDirFull        = errors.New("root directory does not fit into one cluster")
	ErrInvalidName        = errors.New("invalid file name")
	ErrLabel              = errors.New("invalid volume label")
	ErrConfig             = errors.New("invalid configuration")
	ErrCorrupt            = errors.New("volume structure is inconsistent")
)

// encodeRecord serializes a directory record and checks that it occupies
// exactly one directory entry.
func encodeRecord(record interface{}) ([RecordSize]byte, error) {
	var out [RecordSize]byte

	if size := binary.Size(record); size != RecordSize {
		return out, checkpoint.Wrap(fmt.Errorf("%T has %d bytes", record, size), ErrRecordSize)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, record); err != nil {
		return out, checkpoint.From(err)
	}
	copy(out[:], buf.Bytes())
	return out, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func reservedError(record string, field string) error {
	return checkpoint.Wrap(fmt.Errorf("%s.%s", record, field), ErrReservedField)
}

func invalidField(record string, format string, args ...interface{}) error {
	return checkpoint.Wrap(fmt.Errorf(record+": "+format, args...), ErrInvalidRecord)
}

// validateRecord checks the field constraints of a single record before it is
// ever served.
func validateRecord(record interface{}) error {
	switch r := record.(type) {
	case *GenericEntry:
		if r.EntryType == EntryEndOfDirectory && (!allZero(r.EntrySpecific[:]) || r.FirstCluster != 0 || r.DataLength != 0) {
			return reservedError("GenericEntry", "EndOfDirectory")
		}
	case *AllocationBitmapEntry:
		if r.EntryType != EntryAllocationBitmap {
			return invalidField("AllocationBitmapEntry", "type %#x", r.EntryType)
		}
		if r.BitmapFlags&^0x01 != 0 {
			return invalidField("AllocationBitmapEntry", "bitmap flags %#x", r.BitmapFlags)
		}
		if !allZero(r.Reserved[:]) {
			return reservedError("AllocationBitmapEntry", "Reserved")
		}
	case *UpcaseTableEntry:
		if r.EntryType != EntryUpcaseTable {
			return invalidField("UpcaseTableEntry", "type %#x", r.EntryType)
		}
		if !allZero(r.Reserved1[:]) {
			return reservedError("UpcaseTableEntry", "Reserved1")
		}
		if !allZero(r.Reserved2[:]) {
			return reservedError("UpcaseTableEntry", "Reserved2")
		}
	case *VolumeLabelEntry:
		if r.EntryType != EntryVolumeLabel {
			return invalidField("VolumeLabelEntry", "type %#x", r.EntryType)
		}
		if r.CharacterCount > 11 {
			return invalidField("VolumeLabelEntry", "character count %d", r.CharacterCount)
		}
		for _, c := range r.VolumeLabel[r.CharacterCount:] {
			if c != 0 {
				return invalidField("VolumeLabelEntry", "label padding is not zero")
			}
		}
		if !allZero(r.Reserved[:]) {
			return reservedError("VolumeLabelEntry", "Reserved")
		}
	case *FileEntry:
		if r.EntryType != EntryFileDirectory {
			return invalidField("FileEntry", "type %#x", r.EntryType)
		}
		if r.SecondaryCount < 2 || r.SecondaryCount > 18 {
			return invalidField("FileEntry", "secondary count %d", r.SecondaryCount)
		}
		if r.FileAttributes&^attrMask != 0 {
			return invalidField("FileEntry", "attributes %#x", r.FileAttributes)
		}
		if r.Create10msIncrement > 199 || r.LastModified10msIncrement > 199 {
			return invalidField("FileEntry", "10ms increment out of range")
		}
		if r.CreateUTCOffset != UTCOffsetUTC || r.LastModifiedUTCOffset != UTCOffsetUTC || r.LastAccessedUTCOffset != UTCOffsetUTC {
			return invalidField("FileEntry", "only the UTC offset %#x is supported", UTCOffsetUTC)
		}
		if r.Reserved1 != 0 {
			return reservedError("FileEntry", "Reserved1")
		}
		if !allZero(r.Reserved2[:]) {
			return reservedError("FileEntry", "Reserved2")
		}
	case *VolumeGUIDEntry:
		if r.EntryType != EntryVolumeGUID {
			return invalidField("VolumeGUIDEntry", "type %#x", r.EntryType)
		}
		if r.SecondaryCount != 0 || r.GeneralPrimaryFlags != 0 {
			return invalidField("VolumeGUIDEntry", "secondary count and primary flags must be zero")
		}
		if allZero(r.VolumeGUID[:]) {
			return invalidField("VolumeGUIDEntry", "null GUID")
		}
		if !allZero(r.Reserved[:]) {
			return reservedError("VolumeGUIDEntry", "Reserved")
		}
	case *StreamExtensionEntry:
		if r.EntryType != EntryStreamExtension {
			return invalidField("StreamExtensionEntry", "type %#x", r.EntryType)
		}
		if r.GeneralSecondaryFlags&FlagAllocationPossible == 0 {
			return invalidField("StreamExtensionEntry", "AllocationPossible must be set")
		}
		if r.NameLength == 0 {
			return invalidField("StreamExtensionEntry", "empty name")
		}
		if r.ValidDataLength > r.DataLength {
			return invalidField("StreamExtensionEntry", "valid data length %d exceeds data length %d", r.ValidDataLength, r.DataLength)
		}
		if r.Reserved1 != 0 || r.Reserved2 != 0 || r.Reserved3 != 0 {
			return reservedError("StreamExtensionEntry", "Reserved")
		}
	case *FileNameEntry:
		if r.EntryType != EntryFileName {
			return invalidField("FileNameEntry", "type %#x", r.EntryType)
		}
		if r.GeneralSecondaryFlags&FlagAllocationPossible != 0 {
			return invalidField("FileNameEntry", "AllocationPossible must be clear")
		}
	default:
		return invalidField(fmt.Sprintf("%T", record), "unknown record type")
	}
	return nil
}

// buildRecord validates and encodes a record.
func buildRecord(record interface{}) ([RecordSize]byte, error) {
	if err := validateRecord(record); err != nil {
		var out [RecordSize]byte
		return out, err
	}
	return encodeRecord(record)
}
