package vexfat

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestImage(t *testing.T, sectorShift, clusterShift uint8, volumeLength uint32) *Image {
	t.Helper()
	g, err := NewGeometry(sectorShift, clusterShift, volumeLength)
	require.NoError(t, err)
	img, err := BuildImage(g, "TEST", firstFileCluster-firstHeapCluster)
	require.NoError(t, err)
	return img
}

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name string
		acc  uint32
		data []byte
		want uint32
	}{
		{name: "nothing", acc: 0x1234, data: nil, want: 0x1234},
		{name: "single byte", acc: 0, data: []byte{0xAB}, want: 0xAB},
		{name: "rotates left before the XOR", acc: 0x80000001, data: []byte{0x01}, want: 0x00000002},
		{name: "several bytes", acc: 0, data: []byte{0x01, 0x02, 0x03}, want: 0x01<<2 ^ 0x02<<1 ^ 0x03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accumulate(tt.acc, tt.data); got != tt.want {
				t.Errorf("Accumulate() = %#08x, want %#08x", got, tt.want)
			}
		})
	}
}

func TestBootChecksum_skipsVolatileFields(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)
	region := img.BootRegion(0x12345678)
	want := BootChecksum(region)

	region[offsetVolumeFlags] = 0x02
	region[offsetVolumeFlags+1] = 0xFF
	region[offsetPercentInUse] = 99
	assert.Equal(t, want, BootChecksum(region))

	region[offsetVolumeSerial] ^= 0x01
	assert.NotEqual(t, want, BootChecksum(region))
}

// The values were recorded once with the reference scan over the default
// volume.
func TestComposer_defaultVolume(t *testing.T) {
	img := buildTestImage(t, DefaultSectorShift, DefaultClusterShift, DefaultVolumeLength)

	assert.Equal(t, Composer{Prefix: 0x104BEB41, SuffixRot: 21}, img.Composer)
	assert.Equal(t, uint32(0x6822097D), img.Composer.Compose(0))
	assert.Equal(t, uint32(0x3462097D), img.Composer.Compose(0x12345678))
	assert.Equal(t, uint32(0xCAC2097D), img.Composer.Compose(0xA5C30F81))
	assert.Equal(t, uint32(0xC882097D), img.Composer.Compose(0xFFFFFFFF))
}

func TestComposer_matchesReferenceScan(t *testing.T) {
	tests := []struct {
		name         string
		sectorShift  uint8
		clusterShift uint8
		volumeLength uint32
	}{
		{name: "default", sectorShift: 9, clusterShift: 3, volumeLength: DefaultVolumeLength},
		{name: "small", sectorShift: 9, clusterShift: 3, volumeLength: 4096},
		{name: "one sector clusters", sectorShift: 9, clusterShift: 0, volumeLength: 4096},
		{name: "1 KiB sectors", sectorShift: 10, clusterShift: 2, volumeLength: 4096},
		{name: "4 KiB sectors", sectorShift: 12, clusterShift: 0, volumeLength: 1024},
	}

	rnd := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := buildTestImage(t, tt.sectorShift, tt.clusterShift, tt.volumeLength)

			serials := []uint32{0, 1, 0x80000000, 0xFFFFFFFF, 0x12345678}
			for i := 0; i < 32; i++ {
				serials = append(serials, rnd.Uint32())
			}

			for _, serial := range serials {
				want := BootChecksum(img.BootRegion(serial))
				if got := img.Composer.Compose(serial); got != want {
					t.Errorf("Compose(%#08x) = %#08x, want %#08x", serial, got, want)
				}
			}
		})
	}
}

func TestNewComposer(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)

	tests := []struct {
		name    string
		region  []byte
		wantErr error
	}{
		{name: "boot region", region: img.BootRegion(0)},
		{name: "region too short", region: make([]byte, 100), wantErr: ErrChecksumDerivation},
		{name: "serial not zero", region: img.BootRegion(1), wantErr: ErrChecksumDerivation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewComposer(tt.region)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewComposer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != img.Composer {
				t.Errorf("NewComposer() = %v, want %v", got, img.Composer)
			}
		})
	}
}

func TestComposer_Compose_doesNotAllocate(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)
	allocs := testing.AllocsPerRun(100, func() {
		img.Composer.Compose(0xDEADBEEF)
	})
	assert.Zero(t, allocs)
}

func TestEntrySetChecksum(t *testing.T) {
	set := make([]byte, 2*RecordSize)
	set[0] = byte(EntryFileDirectory)
	set[1] = 1
	set[RecordSize] = byte(EntryStreamExtension)
	want := EntrySetChecksum(set)

	// The checksum field itself does not take part.
	binary.LittleEndian.PutUint16(set[2:], 0xBEEF)
	assert.Equal(t, want, EntrySetChecksum(set))

	set[RecordSize+1] = 0x01
	assert.NotEqual(t, want, EntrySetChecksum(set))

	assert.Equal(t, uint16(0x41), EntrySetChecksum([]byte{0x41}))
	assert.Equal(t, uint16(0x8000), EntrySetChecksum([]byte{0x01, 0x00, 0xFF, 0xFF}))
}
