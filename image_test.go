package vexfat

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildImage_bootSector(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)
	bs := img.BootSector

	require.Len(t, bs, 512)
	assert.Equal(t, []byte{0xEB, 0x76, 0x90}, bs[0:3])
	assert.Equal(t, "EXFAT   ", string(bs[3:11]))
	assert.True(t, allZero(bs[11:64]), "MustBeZero")
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(bs[64:]))
	assert.Equal(t, uint64(4096), binary.LittleEndian.Uint64(bs[72:]))
	assert.Equal(t, uint32(24), binary.LittleEndian.Uint32(bs[80:]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(bs[84:]))
	assert.Equal(t, uint32(32), binary.LittleEndian.Uint32(bs[88:]))
	assert.Equal(t, uint32(508), binary.LittleEndian.Uint32(bs[92:]))
	assert.Equal(t, uint32(RootDirCluster), binary.LittleEndian.Uint32(bs[96:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(bs[100:]), "serial is spliced in later")
	assert.Equal(t, uint16(0x0100), binary.LittleEndian.Uint16(bs[104:]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(bs[106:]))
	assert.Equal(t, byte(9), bs[108])
	assert.Equal(t, byte(3), bs[109])
	assert.Equal(t, byte(1), bs[110])
	assert.Equal(t, byte(0x80), bs[111])
	assert.Equal(t, byte(0), bs[112])
	assert.True(t, allZero(bs[113:510]), "reserved and boot code")
	assert.Equal(t, []byte{0x55, 0xAA}, bs[510:512])
}

func TestBuildImage_largeSectors(t *testing.T) {
	img := buildTestImage(t, 12, 0, 1024)
	require.Len(t, img.BootSector, 4096)
	assert.Equal(t, []byte{0x55, 0xAA}, img.BootSector[510:512])
	assert.True(t, allZero(img.BootSector[512:]), "bytes after the boot sector header")
	assert.Len(t, img.FAT0, 4096)
}

func TestBuildImage_percentInUse(t *testing.T) {
	g, err := NewGeometry(9, 3, 4096)
	require.NoError(t, err)

	img, err := BuildImage(g, "", 254)
	require.NoError(t, err)
	assert.Equal(t, byte(50), img.BootSector[offsetPercentInUse])
}

func TestBuildImage_FAT0(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)

	want := []uint32{0xFFFFFFF8, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}
	for i, w := range want {
		assert.Equal(t, w, binary.LittleEndian.Uint32(img.FAT0[i*4:]), "FAT[%d]", i)
	}
	assert.True(t, allZero(img.FAT0[len(want)*4:]), "rest of the first FAT sector")
}

func TestBuildImage_rootHead(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)
	head := img.RootHead[:]

	// Volume label "TEST".
	assert.Equal(t, byte(0x83), head[0])
	assert.Equal(t, byte(4), head[1])
	assert.Equal(t, []byte{'T', 0, 'E', 0, 'S', 0, 'T', 0}, head[2:10])
	assert.True(t, allZero(head[10:32]))

	// Allocation bitmap.
	assert.Equal(t, byte(0x81), head[32])
	assert.Equal(t, uint32(BitmapCluster), binary.LittleEndian.Uint32(head[32+20:]))
	assert.Equal(t, uint64(64), binary.LittleEndian.Uint64(head[32+24:]))

	// Up-case table.
	assert.Equal(t, byte(0x82), head[64])
	assert.Equal(t, UpcaseTableChecksum, binary.LittleEndian.Uint32(head[64+4:]))
	assert.Equal(t, uint32(UpcaseCluster), binary.LittleEndian.Uint32(head[64+20:]))
	assert.Equal(t, uint64(60), binary.LittleEndian.Uint64(head[64+24:]))

	// End of directory.
	assert.True(t, allZero(head[96:128]))
}

func TestBuildImage_errors(t *testing.T) {
	g, err := NewGeometry(9, 3, 4096)
	require.NoError(t, err)

	tests := []struct {
		name      string
		geometry  Geometry
		label     string
		allocated uint32
		wantErr   error
	}{
		{name: "label too long", geometry: g, label: strings.Repeat("L", 12), allocated: 3, wantErr: ErrLabel},
		{name: "label with control character", geometry: g, label: "A\tB", allocated: 3, wantErr: ErrLabel},
		{name: "fewer clusters than the fixed ones", geometry: g, allocated: 2, wantErr: ErrGeometry},
		{name: "more clusters than the heap", geometry: g, allocated: 509, wantErr: ErrGeometry},
		{name: "invalid geometry", geometry: Geometry{}, allocated: 3, wantErr: ErrGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildImage(tt.geometry, tt.label, tt.allocated)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildImage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImage_BootRegion(t *testing.T) {
	img := buildTestImage(t, 9, 3, 4096)
	region := img.BootRegion(0xA1B2C3D4)

	require.Len(t, region, 11*512)
	assert.Equal(t, []byte{0xD4, 0xC3, 0xB2, 0xA1}, region[100:104])
	for sector := 1; sector <= 8; sector++ {
		s := region[sector*512 : (sector+1)*512]
		assert.True(t, allZero(s[:508]), "extended boot sector %d", sector)
		assert.Equal(t, []byte{0x00, 0x00, 0x55, 0xAA}, s[508:], "extended boot sector %d", sector)
	}
	assert.True(t, allZero(region[9*512:]), "OEM parameters and reserved sector")
}
