package vexfat

import (
	"errors"
	"testing"
)

func TestEncodeRecord(t *testing.T) {
	type tooLarge struct {
		EntryType EntryType
		Data      [32]byte
	}

	tests := []struct {
		name    string
		record  interface{}
		wantErr error
	}{
		{name: "generic entry", record: &GenericEntry{}},
		{name: "allocation bitmap", record: &AllocationBitmapEntry{}},
		{name: "up-case table", record: &UpcaseTableEntry{}},
		{name: "volume label", record: &VolumeLabelEntry{}},
		{name: "file", record: &FileEntry{}},
		{name: "volume GUID", record: &VolumeGUIDEntry{}},
		{name: "stream extension", record: &StreamExtensionEntry{}},
		{name: "file name", record: &FileNameEntry{}},
		{name: "wrong size", record: &tooLarge{}, wantErr: ErrRecordSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encodeRecord(tt.record)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("encodeRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeRecord_layout(t *testing.T) {
	got, err := encodeRecord(&StreamExtensionEntry{
		EntryType:             EntryStreamExtension,
		GeneralSecondaryFlags: FlagAllocationPossible | FlagNoFatChain,
		NameLength:            9,
		NameHash:              0xCBE8,
		ValidDataLength:       0x0102,
		FirstCluster:          5,
		DataLength:            0x0102,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := [RecordSize]byte{
		0xC0, 0x03, 0x00, 0x09, 0xE8, 0xCB, 0x00, 0x00,
		0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00,
		0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	if got != want {
		t.Errorf("encodeRecord() = % X, want % X", got, want)
	}
}

func validFileEntry() *FileEntry {
	return &FileEntry{
		EntryType:             EntryFileDirectory,
		SecondaryCount:        2,
		FileAttributes:        AttrArchive,
		CreateUTCOffset:       UTCOffsetUTC,
		LastModifiedUTCOffset: UTCOffsetUTC,
		LastAccessedUTCOffset: UTCOffsetUTC,
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  func() interface{}
		wantErr error
	}{
		{
			name:   "valid file entry",
			record: func() interface{} { return validFileEntry() },
		},
		{
			name: "reserved byte in file entry",
			record: func() interface{} {
				e := validFileEntry()
				e.Reserved2[3] = 1
				return e
			},
			wantErr: ErrReservedField,
		},
		{
			name: "unknown attribute",
			record: func() interface{} {
				e := validFileEntry()
				e.FileAttributes = 0x40
				return e
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "10ms increment out of range",
			record: func() interface{} {
				e := validFileEntry()
				e.Create10msIncrement = 200
				return e
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "UTC offset other than UTC",
			record: func() interface{} {
				e := validFileEntry()
				e.LastModifiedUTCOffset = 0x84
				return e
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "too few secondary entries",
			record: func() interface{} {
				e := validFileEntry()
				e.SecondaryCount = 1
				return e
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "reserved bytes in end of directory",
			record: func() interface{} {
				return &GenericEntry{DataLength: 1}
			},
			wantErr: ErrReservedField,
		},
		{
			name: "label longer than 11 characters",
			record: func() interface{} {
				return &VolumeLabelEntry{EntryType: EntryVolumeLabel, CharacterCount: 12}
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "label padding not zero",
			record: func() interface{} {
				e := &VolumeLabelEntry{EntryType: EntryVolumeLabel, CharacterCount: 1}
				e.VolumeLabel[5] = 'X'
				return e
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "reserved bytes in up-case table entry",
			record: func() interface{} {
				e := &UpcaseTableEntry{EntryType: EntryUpcaseTable}
				e.Reserved2[0] = 1
				return e
			},
			wantErr: ErrReservedField,
		},
		{
			name: "null volume GUID",
			record: func() interface{} {
				return &VolumeGUIDEntry{EntryType: EntryVolumeGUID}
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "stream extension without allocation",
			record: func() interface{} {
				return &StreamExtensionEntry{EntryType: EntryStreamExtension, NameLength: 1}
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "valid data beyond the data length",
			record: func() interface{} {
				return &StreamExtensionEntry{
					EntryType:             EntryStreamExtension,
					GeneralSecondaryFlags: FlagAllocationPossible,
					NameLength:            1,
					ValidDataLength:       2,
					DataLength:            1,
				}
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "file name with allocation",
			record: func() interface{} {
				return &FileNameEntry{EntryType: EntryFileName, GeneralSecondaryFlags: FlagAllocationPossible}
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "wrong entry type",
			record: func() interface{} {
				return &AllocationBitmapEntry{EntryType: EntryUpcaseTable}
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "unknown record",
			record: func() interface{} {
				return &BootSector{}
			},
			wantErr: ErrInvalidRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateRecord(tt.record()); !errors.Is(err, tt.wantErr) {
				t.Errorf("validateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
