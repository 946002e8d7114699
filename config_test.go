package vexfat

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
label: DEVICE
unique_id: "0102030405060708090a0b0c"
volume_sectors: 4096
guid: true
files:
  - name: README.md
    content: hello
  - name: firmware.bin
    path: /data/firmware.bin
    read_only: true
  - name: .hidden
    content: secret
    hidden: true
`

func testingFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/vexfat.yaml", []byte(testConfig), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/firmware.bin", []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0644))
	return fs
}

func TestLoadConfig(t *testing.T) {
	fs := testingFs(t)

	cfg, err := LoadConfig(fs, "/etc/vexfat.yaml")
	require.NoError(t, err)

	want := DefaultConfig()
	want.Label = "DEVICE"
	want.UniqueID = "0102030405060708090a0b0c"
	want.VolumeSectors = 4096
	want.GUID = true
	want.Files = []FileConfig{
		{Name: "README.md", Content: "hello"},
		{Name: "firmware.bin", Path: "/data/firmware.bin", ReadOnly: true},
		{Name: ".hidden", Content: "secret", Hidden: true},
	}
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/unknown.yaml", []byte("sectors: 12\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/broken.yaml", []byte("label: [\n"), 0644))

	for _, path := range []string{"/missing.yaml", "/unknown.yaml", "/broken.yaml"} {
		t.Run(path, func(t *testing.T) {
			_, err := LoadConfig(fs, path)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestSerialFromUniqueID(t *testing.T) {
	tests := []struct {
		name string
		id   []byte
		want uint32
	}{
		{name: "empty", id: nil, want: 0},
		{name: "one word", id: []byte{0x78, 0x56, 0x34, 0x12}, want: 0x12345678},
		{name: "partial word", id: []byte{0x01, 0x02}, want: 0x0201},
		{name: "three words", id: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, want: 0x04030201 ^ 0x08070605 ^ 0x0C0B0A09},
		{name: "equal words cancel", id: []byte{1, 2, 3, 4, 1, 2, 3, 4}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SerialFromUniqueID(tt.id); got != tt.want {
				t.Errorf("SerialFromUniqueID() = %#08x, want %#08x", got, tt.want)
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	fs := testingFs(t)
	cfg, err := LoadConfig(fs, "/etc/vexfat.yaml")
	require.NoError(t, err)

	opts, err := cfg.Options(fs)
	require.NoError(t, err)

	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Options{
		Label:        "DEVICE",
		Serial:       0x04030201 ^ 0x08070605 ^ 0x0C0B0A09,
		SectorShift:  DefaultSectorShift,
		ClusterShift: DefaultClusterShift,
		VolumeLength: 4096,
		VolumeGUID:   true,
		Files: []FileSpec{
			{Name: "README.md", Content: Bytes("hello"), Attributes: AttrArchive, Modified: modified},
			{Name: "firmware.bin", Content: Bytes{0xDE, 0xAD, 0xBE, 0xEF}, Attributes: AttrArchive | AttrReadOnly, Modified: modified},
			{Name: ".hidden", Content: Bytes("secret"), Attributes: AttrArchive | AttrHidden, Modified: modified},
		},
	}, opts)

	vol, err := NewVolume(opts)
	require.NoError(t, err)
	info, err := Verify(vol)
	require.NoError(t, err)
	assert.Equal(t, "DEVICE", info.Label)
}

func TestConfig_Options_errors(t *testing.T) {
	fs := testingFs(t)

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "unique id is not hex", modify: func(c *Config) { c.UniqueID = "xyz" }},
		{name: "invalid timestamp", modify: func(c *Config) { c.Timestamp = "yesterday" }},
		{name: "content and path", modify: func(c *Config) {
			c.Files = []FileConfig{{Name: "a", Content: "x", Path: "/data/firmware.bin"}}
		}},
		{name: "missing path", modify: func(c *Config) {
			c.Files = []FileConfig{{Name: "a", Path: "/data/missing.bin"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := cfg.Options(fs)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}
