package vexfat

import (
	"errors"
	"fmt"
	"io"

	"github.com/aligator/vexfat/checkpoint"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Defaults of a volume: 64 MiB of 512 byte sectors in 4 KiB clusters.
const (
	DefaultSectorShift  = 9
	DefaultClusterShift = 3
	DefaultVolumeLength = 131072
	DefaultLabel        = "VEXFAT"
)

// Options describe the volume to assemble.
type Options struct {
	Label           string
	Serial          uint32
	SectorShift     uint8
	ClusterShift    uint8
	VolumeLength    uint32
	PartitionOffset uint64

	// VolumeGUID adds a volume GUID record derived from the serial number.
	VolumeGUID bool
	// Files are placed in the root directory in the given order.
	Files []FileSpec
}

// DefaultOptions returns the options of the default volume with the given
// serial number.
func DefaultOptions(serial uint32) Options {
	return Options{
		Label:        DefaultLabel,
		Serial:       serial,
		SectorShift:  DefaultSectorShift,
		ClusterShift: DefaultClusterShift,
		VolumeLength: DefaultVolumeLength,
	}
}

// FileExtent tells where the data of a file lies on the volume.
type FileExtent struct {
	Name         string
	Size         uint64
	FirstCluster uint32
	Clusters     uint32
}

// Volume is an assembled read-only exFAT volume. After NewVolume returns it
// is never modified, so it can be read from any number of goroutines.
type Volume struct {
	image    *Image
	serial   uint32
	checksum uint32
	guid     uuid.UUID
	hasGUID  bool
	extents  []FileExtent
	regions  regionTable
}

// NewVolume lays out the volume, builds the static image, composes the boot
// checksum for the serial number and binds every block to a synthesizer.
func NewVolume(opts Options) (*Volume, error) {
	g, err := NewGeometry(opts.SectorShift, opts.ClusterShift, opts.VolumeLength)
	if err != nil {
		return nil, err
	}
	g.PartitionOffset = opts.PartitionOffset

	v := &Volume{serial: opts.Serial}

	// Files are stored contiguously after the root directory.
	cluster := uint64(firstFileCluster)
	heapEnd := uint64(firstHeapCluster) + uint64(g.ClusterCount)
	for _, f := range opts.Files {
		if f.Content == nil {
			return nil, checkpoint.Wrap(fmt.Errorf("%s has no content", f.Name), ErrInvalidRecord)
		}
		n := clustersFor(f.Content.Size(), g.ClusterSize())
		if cluster+n > heapEnd {
			return nil, checkpoint.Wrap(fmt.Errorf("%s needs %d clusters, only %d left", f.Name, n, heapEnd-cluster), ErrGeometry)
		}
		extent := FileExtent{Name: f.Name, Size: f.Content.Size(), Clusters: uint32(n)}
		if n > 0 {
			extent.FirstCluster = uint32(cluster)
		}
		v.extents = append(v.extents, extent)
		cluster += n
	}

	v.image, err = BuildImage(g, opts.Label, uint32(cluster-firstHeapCluster))
	if err != nil {
		return nil, err
	}
	v.checksum = v.image.Composer.Compose(opts.Serial)

	root, err := v.rootDir(opts)
	if err != nil {
		return nil, err
	}

	v.regions, err = newRegionTable(v.layout(root, opts.Files), g.VolumeLength)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"serial":   fmt.Sprintf("%08X", v.serial),
		"checksum": fmt.Sprintf("%08X", v.checksum),
		"sectors":  g.VolumeLength,
		"clusters": g.ClusterCount,
		"files":    len(v.extents),
	}).Debug("Assembled exFAT volume")
	if log.IsLevelEnabled(log.TraceLevel) {
		for _, r := range v.regions {
			log.Tracef("Region %v", r)
		}
	}

	return v, nil
}

// MustNewVolume is like NewVolume but panics if the volume cannot be built.
func MustNewVolume(opts Options) *Volume {
	v, err := NewVolume(opts)
	if err != nil {
		panic(err)
	}
	return v
}

// rootDir selects the root directory synthesizer. Without runtime entries the
// static head is served as built.
func (v *Volume) rootDir(opts Options) (Synthesizer, error) {
	var entries []byte

	if opts.VolumeGUID {
		v.guid, v.hasGUID = VolumeGUID(opts.Serial), true
		record, err := buildVolumeGUIDEntry(v.guid)
		if err != nil {
			return nil, err
		}
		entries = append(entries, record...)
	}

	for i, f := range opts.Files {
		set, err := buildFileEntrySet(f, v.extents[i].FirstCluster)
		if err != nil {
			return nil, err
		}
		entries = append(entries, set...)
	}

	if len(entries) == 0 {
		return NewFixedRootDir(v.image), nil
	}
	return NewDynamicRootDir(v.image, entries)
}

// layout lists the regions of the volume in block order.
func (v *Volume) layout(root Synthesizer, files []FileSpec) []Region {
	g := v.image.Geometry
	ss := g.SectorSize()
	spc := g.SectorsPerCluster()

	var regions []Region
	add := func(name string, start, length uint32, s Synthesizer) {
		regions = append(regions, Region{Start: start, Length: length, Synth: s, Name: name})
	}

	for _, base := range []uint32{0, backupBootRegion} {
		add("boot sector", base, 1, newBootSectorSynth(v.image.BootSector, v.serial))
		add("extended boot sectors", base+1, 8, extendedBootSynth{sectorSize: ss})
		add("oem parameters", base+9, 2, zeroSynth{})
		add("boot checksum", base+bootChecksumSector, 1, checksumSynth{checksum: v.checksum})
	}

	fatEnd := g.FatOffset + g.FatLength
	add("reserved", defaultFatOffset, g.FatOffset-defaultFatOffset, zeroSynth{})
	add("fat", g.FatOffset, 1, &bytesSynth{sectorSize: ss, data: v.image.FAT0})
	add("fat", g.FatOffset+1, g.FatLength-1, zeroSynth{})
	add("fat alignment", fatEnd, g.ClusterHeapOffset-fatEnd, zeroSynth{})

	add("allocation bitmap", g.ClusterToBlock(BitmapCluster), spc, bitmapSynth{sectorSize: ss, allocated: v.image.allocated})
	add("up-case table", g.ClusterToBlock(UpcaseCluster), spc, &bytesSynth{sectorSize: ss, data: UpcaseTable})
	add("root directory", g.ClusterToBlock(RootDirCluster), spc, root)

	next := g.ClusterToBlock(RootDirCluster) + spc
	for i, e := range v.extents {
		if e.Clusters == 0 {
			continue
		}
		add("file "+e.Name, g.ClusterToBlock(e.FirstCluster), e.Clusters*spc, NewFileData(ss, files[i].Content))
		next = g.ClusterToBlock(e.FirstCluster) + e.Clusters*spc
	}
	add("free", next, g.VolumeLength-next, zeroSynth{})

	return regions
}

// Read fills buf[:length] with the volume bytes starting at byte offset of
// block lba. offset may exceed a sector and the range may cross any number of
// regions. Bytes beyond the end of the volume read as zero.
func (v *Volume) Read(lba uint32, buf []byte, offset uint32, length uint32) {
	buf = buf[:length]
	ss := uint64(v.image.Geometry.SectorSize())
	pos := uint64(lba)*ss + uint64(offset)
	end := uint64(v.image.Geometry.VolumeLength) * ss

	for len(buf) > 0 {
		if pos >= end {
			v.outOfRange(pos, buf)
			return
		}

		block := uint32(pos / ss)
		r := v.regions.find(block)
		n := min(uint64(len(buf)), r.End()*ss-pos)
		r.Synth.Fill(block-r.Start, buf[:n], uint32(pos%ss))

		buf = buf[n:]
		pos += n
	}
}

func (v *Volume) outOfRange(pos uint64, buf []byte) {
	zero(buf)
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithFields(log.Fields{
			"offset": pos,
			"length": len(buf),
		}).Debug("Read beyond the end of the volume")
	}
}

// ReadAt implements io.ReaderAt over the whole volume.
func (v *Volume) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, checkpoint.From(errors.New("negative offset"))
	}
	size := v.Size()
	if off >= size {
		return 0, io.EOF
	}

	var err error
	n := len(p)
	if int64(n) > size-off {
		n = int(size - off)
		err = io.EOF
	}

	ss := int64(v.image.Geometry.SectorSize())
	v.Read(uint32(off/ss), p, uint32(off%ss), uint32(n))
	return n, err
}

// Size of the volume in bytes.
func (v *Volume) Size() int64 {
	return int64(v.image.Geometry.VolumeLength) << v.image.Geometry.BytesPerSectorShift
}

func (v *Volume) Geometry() Geometry {
	return v.image.Geometry
}

func (v *Volume) Image() *Image {
	return v.image
}

func (v *Volume) Serial() uint32 {
	return v.serial
}

// Checksum is the boot checksum served in sector 11 and 23.
func (v *Volume) Checksum() uint32 {
	return v.checksum
}

// GUID returns the volume GUID, if the volume has one.
func (v *Volume) GUID() (uuid.UUID, bool) {
	return v.guid, v.hasGUID
}

// Files returns where the files of the volume are stored.
func (v *Volume) Files() []FileExtent {
	return append([]FileExtent(nil), v.extents...)
}

// Regions returns the region table in block order.
func (v *Volume) Regions() []Region {
	return append([]Region(nil), v.regions...)
}
