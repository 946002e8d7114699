package vexfat

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aligator/vexfat/checkpoint"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Config is the yaml form of Options.
type Config struct {
	Label string `yaml:"label"`
	// Serial is used unless UniqueID is set.
	Serial uint32 `yaml:"serial"`
	// UniqueID is a hex encoded device ID which is folded into the serial.
	UniqueID        string       `yaml:"unique_id"`
	SectorShift     uint8        `yaml:"sector_shift"`
	ClusterShift    uint8        `yaml:"cluster_shift"`
	VolumeSectors   uint32       `yaml:"volume_sectors"`
	PartitionOffset uint64       `yaml:"partition_offset"`
	GUID            bool         `yaml:"guid"`
	ImageName       string       `yaml:"image_name"`
	Timestamp       string       `yaml:"timestamp"`
	Files           []FileConfig `yaml:"files"`
}

// FileConfig describes one file. Exactly one of Content and Path is set.
type FileConfig struct {
	Name     string `yaml:"name"`
	Content  string `yaml:"content"`
	Path     string `yaml:"path"`
	Hidden   bool   `yaml:"hidden"`
	ReadOnly bool   `yaml:"read_only"`
}

// DefaultConfig returns the configuration of the default volume.
func DefaultConfig() Config {
	return Config{
		Label:         DefaultLabel,
		SectorShift:   DefaultSectorShift,
		ClusterShift:  DefaultClusterShift,
		VolumeSectors: DefaultVolumeLength,
		ImageName:     "volume.img",
		Timestamp:     "2024-01-01T00:00:00Z",
	}
}

// LoadConfig reads a yaml configuration from fs. Missing keys keep their
// default value.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, checkpoint.Wrap(err, ErrConfig)
	}
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return cfg, checkpoint.Wrap(err, ErrConfig)
	}
	return cfg, nil
}

// SerialFromUniqueID folds a device unique ID into a 32 bit serial number by
// XORing its little-endian 32 bit words. A trailing partial word is zero padded.
func SerialFromUniqueID(id []byte) uint32 {
	var serial uint32
	for len(id) > 0 {
		var word [4]byte
		n := copy(word[:], id)
		serial ^= binary.LittleEndian.Uint32(word[:])
		id = id[n:]
	}
	return serial
}

// Options resolves the configuration into volume options. File paths are
// read from fs.
func (c Config) Options(fs afero.Fs) (Options, error) {
	opts := Options{
		Label:           c.Label,
		Serial:          c.Serial,
		SectorShift:     c.SectorShift,
		ClusterShift:    c.ClusterShift,
		VolumeLength:    c.VolumeSectors,
		PartitionOffset: c.PartitionOffset,
		VolumeGUID:      c.GUID,
	}

	if c.UniqueID != "" {
		id, err := hex.DecodeString(c.UniqueID)
		if err != nil {
			return opts, checkpoint.Wrap(err, ErrConfig)
		}
		opts.Serial = SerialFromUniqueID(id)
	}

	var modified time.Time
	if c.Timestamp != "" {
		var err error
		if modified, err = time.Parse(time.RFC3339, c.Timestamp); err != nil {
			return opts, checkpoint.Wrap(err, ErrConfig)
		}
	}

	for _, f := range c.Files {
		spec := FileSpec{
			Name:       f.Name,
			Attributes: AttrArchive,
			Modified:   modified,
		}
		if f.Hidden {
			spec.Attributes |= AttrHidden
		}
		if f.ReadOnly {
			spec.Attributes |= AttrReadOnly
		}

		switch {
		case f.Path != "" && f.Content != "":
			return opts, checkpoint.Wrap(fmt.Errorf("file %s has both content and path", f.Name), ErrConfig)
		case f.Path != "":
			b, err := afero.ReadFile(fs, f.Path)
			if err != nil {
				return opts, checkpoint.Wrap(err, ErrConfig)
			}
			spec.Content = Bytes(b)
		default:
			spec.Content = Bytes(f.Content)
		}
		opts.Files = append(opts.Files, spec)
	}

	return opts, nil
}
