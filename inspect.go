package vexfat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/aligator/vexfat/checkpoint"
	"github.com/go-restruct/restruct"
)

// ParseBootSector decodes the boot sector header at the start of b and checks
// its signatures.
func ParseBootSector(b []byte) (BootSector, error) {
	var bs BootSector
	if len(b) < bootSectorHeaderSize {
		return bs, checkpoint.Wrap(fmt.Errorf("boot sector has only %d bytes", len(b)), ErrCorrupt)
	}
	if err := restruct.Unpack(b[:bootSectorHeaderSize], binary.LittleEndian, &bs); err != nil {
		return bs, checkpoint.Wrap(err, ErrCorrupt)
	}

	switch {
	case bs.JumpBoot != jumpBoot:
		return bs, checkpoint.Wrap(fmt.Errorf("jump boot % X", bs.JumpBoot), ErrCorrupt)
	case bs.FileSystemName != fileSystemName:
		return bs, checkpoint.Wrap(fmt.Errorf("file system name %q", bs.FileSystemName[:]), ErrCorrupt)
	case bs.BootSignature != bootSignature:
		return bs, checkpoint.Wrap(fmt.Errorf("boot signature %#04x", bs.BootSignature), ErrCorrupt)
	case !allZero(bs.MustBeZero[:]):
		return bs, checkpoint.Wrap(fmt.Errorf("MustBeZero contains data"), ErrCorrupt)
	case bs.BytesPerSectorShift < minSectorShift || bs.BytesPerSectorShift > maxSectorShift:
		return bs, checkpoint.Wrap(fmt.Errorf("bytes per sector shift %d", bs.BytesPerSectorShift), ErrCorrupt)
	case bs.SectorsPerClusterShift > maxClusterSizeShift-bs.BytesPerSectorShift:
		return bs, checkpoint.Wrap(fmt.Errorf("sectors per cluster shift %d", bs.SectorsPerClusterShift), ErrCorrupt)
	}
	return bs, nil
}

// DecodeRecord decodes one directory entry into the record type its entry
// type names. Unknown types are returned as *GenericEntry.
func DecodeRecord(b []byte) (interface{}, error) {
	if len(b) < RecordSize {
		return nil, checkpoint.Wrap(fmt.Errorf("record has only %d bytes", len(b)), ErrRecordSize)
	}

	var record interface{}
	switch EntryType(b[0]) {
	case EntryAllocationBitmap:
		record = &AllocationBitmapEntry{}
	case EntryUpcaseTable:
		record = &UpcaseTableEntry{}
	case EntryVolumeLabel:
		record = &VolumeLabelEntry{}
	case EntryFileDirectory:
		record = &FileEntry{}
	case EntryVolumeGUID:
		record = &VolumeGUIDEntry{}
	case EntryStreamExtension:
		record = &StreamExtensionEntry{}
	case EntryFileName:
		record = &FileNameEntry{}
	default:
		record = &GenericEntry{}
	}

	if err := restruct.Unpack(b[:RecordSize], binary.LittleEndian, record); err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidRecord)
	}
	return record, nil
}

// DecodeRootHead decodes the four records a root directory built without
// runtime entries starts with.
func DecodeRootHead(b []byte) (RootHead, error) {
	var head RootHead
	if len(b) < 4*RecordSize {
		return head, checkpoint.Wrap(fmt.Errorf("root head has only %d bytes", len(b)), ErrRecordSize)
	}
	if err := restruct.Unpack(b[:4*RecordSize], binary.LittleEndian, &head); err != nil {
		return head, checkpoint.Wrap(err, ErrInvalidRecord)
	}
	return head, nil
}

// readFull reads len(p) bytes at off. Short reads are ErrCorrupt.
func readFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	switch {
	case n == len(p):
		return nil
	case err == nil || err == io.EOF:
		return checkpoint.Wrap(fmt.Errorf("read %d of %d bytes at %d: %w", n, len(p), off, io.ErrUnexpectedEOF), ErrCorrupt)
	default:
		return checkpoint.Wrap(err, ErrCorrupt)
	}
}

// VolumeInfo is what Verify learned about a volume.
type VolumeInfo struct {
	Boot     BootSector
	Checksum uint32
	Label    string
	// Entries are the decoded root directory records up to the end marker.
	Entries []interface{}
}

// Verify reads a volume through r and checks the structures a driver looks at
// when mounting it: boot sector, boot checksum, backup boot region and the
// entry set checksums of the root directory.
func Verify(r io.ReaderAt) (*VolumeInfo, error) {
	header := make([]byte, bootSectorHeaderSize)
	if err := readFull(r, header, 0); err != nil {
		return nil, err
	}

	info := &VolumeInfo{}
	var err error
	if info.Boot, err = ParseBootSector(header); err != nil {
		return nil, err
	}

	ss := int64(1) << info.Boot.BytesPerSectorShift
	regionSize := mainBootRegionSectors * ss
	region := make([]byte, 2*regionSize)
	if err := readFull(r, region, 0); err != nil {
		return nil, err
	}
	primary, backup := region[:regionSize], region[regionSize:]

	info.Checksum = BootChecksum(primary[:bootChecksumSector*ss])
	checksumSector := primary[bootChecksumSector*ss:]
	for i := int64(0); i < ss; i += 4 {
		if got := binary.LittleEndian.Uint32(checksumSector[i:]); got != info.Checksum {
			return nil, checkpoint.Wrap(fmt.Errorf("checksum sector holds %08X at %d, boot sectors sum up to %08X", got, i, info.Checksum), ErrCorrupt)
		}
	}
	for sector := int64(1); sector <= 8; sector++ {
		if got := binary.LittleEndian.Uint32(primary[(sector+1)*ss-4:]); got != extendedBootSignature {
			return nil, checkpoint.Wrap(fmt.Errorf("extended boot sector %d signature %08X", sector, got), ErrCorrupt)
		}
	}
	if !bytes.Equal(primary, backup) {
		return nil, checkpoint.Wrap(fmt.Errorf("backup boot region differs"), ErrCorrupt)
	}

	if info.Entries, err = readRootDir(r, info.Boot); err != nil {
		return nil, err
	}
	for _, e := range info.Entries {
		if label, ok := e.(*VolumeLabelEntry); ok {
			info.Label = string(utf16.Decode(label.VolumeLabel[:min(label.CharacterCount, 11)]))
		}
	}
	return info, nil
}

// readRootDir decodes the root directory cluster up to its end marker and
// checks the checksum of every entry set.
func readRootDir(r io.ReaderAt, bs BootSector) ([]interface{}, error) {
	if bs.FirstClusterOfRootDirectory < firstHeapCluster || bs.FirstClusterOfRootDirectory-firstHeapCluster >= bs.ClusterCount {
		return nil, checkpoint.Wrap(fmt.Errorf("root directory cluster %d", bs.FirstClusterOfRootDirectory), ErrCorrupt)
	}

	clusterSize := int64(1) << (bs.BytesPerSectorShift + bs.SectorsPerClusterShift)
	block := int64(bs.ClusterHeapOffset) + int64(bs.FirstClusterOfRootDirectory-firstHeapCluster)<<bs.SectorsPerClusterShift
	dir := make([]byte, clusterSize)
	if err := readFull(r, dir, block<<bs.BytesPerSectorShift); err != nil {
		return nil, err
	}

	var entries []interface{}
	for off := 0; off+RecordSize <= len(dir); off += RecordSize {
		if EntryType(dir[off]) == EntryEndOfDirectory {
			return entries, nil
		}

		record, err := DecodeRecord(dir[off:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, record)

		var secondary int
		switch e := record.(type) {
		case *FileEntry:
			secondary = int(e.SecondaryCount)
		case *VolumeGUIDEntry:
			secondary = int(e.SecondaryCount)
		default:
			continue
		}

		end := off + (1+secondary)*RecordSize
		if end > len(dir) {
			return nil, checkpoint.Wrap(fmt.Errorf("entry set at %d exceeds the directory", off), ErrCorrupt)
		}
		set := dir[off:end]
		if want, got := binary.LittleEndian.Uint16(set[2:]), EntrySetChecksum(set); want != got {
			return nil, checkpoint.Wrap(fmt.Errorf("entry set at %d: checksum %04X, computed %04X", off, want, got), ErrCorrupt)
		}
	}
	return entries, nil
}
