package vexfat

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/vexfat/checkpoint"
)

//go:generate mockgen -source=synth.go -destination=synth_mock.go -package=vexfat

// Synthesizer generates the bytes of one region of the volume.
//
// Fill writes len(buf) bytes starting at byte offset of the block with the
// given index relative to the region start. offset is always smaller than a
// sector but buf may extend over following blocks of the same region.
// Implementations must not block, allocate or fail.
type Synthesizer interface {
	Fill(block uint32, buf []byte, offset uint32)
}

// position converts a region relative block and offset into a byte position.
func position(sectorSize uint32, block uint32, offset uint32) uint64 {
	return uint64(block)*uint64(sectorSize) + uint64(offset)
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// overlay copies the part of src, placed at byte srcStart of a region, which
// falls into the window dst that starts at byte pos of the same region.
func overlay(dst []byte, pos uint64, src []byte, srcStart uint64) {
	end := pos + uint64(len(dst))
	srcEnd := srcStart + uint64(len(src))
	if srcEnd <= pos || srcStart >= end {
		return
	}
	from := max(pos, srcStart)
	to := min(end, srcEnd)
	copy(dst[from-pos:to-pos], src[from-srcStart:to-srcStart])
}

// fillExtendedBootSector writes extended boot sector bytes. pos is the byte
// position of dst[0] relative to any sector boundary.
func fillExtendedBootSector(dst []byte, pos uint32, sectorSize uint32) {
	signatureStart := sectorSize - 4
	for i := range dst {
		q := (pos + uint32(i)) % sectorSize
		if q < signatureStart {
			dst[i] = 0
			continue
		}
		dst[i] = byte(uint32(extendedBootSignature) >> (8 * (q - signatureStart)))
	}
}

type zeroSynth struct{}

func (zeroSynth) Fill(_ uint32, buf []byte, _ uint32) {
	zero(buf)
}

// bytesSynth serves data at the start of the region followed by zeros.
type bytesSynth struct {
	sectorSize uint32
	data       []byte
}

func (s *bytesSynth) Fill(block uint32, buf []byte, offset uint32) {
	zero(buf)
	overlay(buf, position(s.sectorSize, block, offset), s.data, 0)
}

// bootSectorSynth serves the boot sector template with the serial number
// spliced in.
type bootSectorSynth struct {
	template []byte
	serial   [4]byte
}

func newBootSectorSynth(template []byte, serial uint32) *bootSectorSynth {
	s := &bootSectorSynth{template: template}
	binary.LittleEndian.PutUint32(s.serial[:], serial)
	return s
}

func (s *bootSectorSynth) Fill(block uint32, buf []byte, offset uint32) {
	pos := position(uint32(len(s.template)), block, offset)
	zero(buf)
	overlay(buf, pos, s.template, 0)
	overlay(buf, pos, s.serial[:], offsetVolumeSerial)
}

type extendedBootSynth struct {
	sectorSize uint32
}

func (s extendedBootSynth) Fill(_ uint32, buf []byte, offset uint32) {
	fillExtendedBootSector(buf, offset, s.sectorSize)
}

// checksumSynth repeats the boot checksum over the whole sector.
type checksumSynth struct {
	checksum uint32
}

func (s checksumSynth) Fill(_ uint32, buf []byte, offset uint32) {
	for i := range buf {
		buf[i] = byte(s.checksum >> (8 * ((offset + uint32(i)) % 4)))
	}
}

// bitmapSynth serves the allocation bitmap. The first allocated clusters of
// the heap are in use, everything after them is free.
type bitmapSynth struct {
	sectorSize uint32
	allocated  uint32
}

func (s bitmapSynth) Fill(block uint32, buf []byte, offset uint32) {
	pos := position(s.sectorSize, block, offset)
	for i := range buf {
		used := int64(s.allocated) - int64(pos+uint64(i))*8
		switch {
		case used >= 8:
			buf[i] = 0xFF
		case used <= 0:
			buf[i] = 0
		default:
			buf[i] = byte(1<<used - 1)
		}
	}
}

// FixedRootDir serves the root directory head built with the image: volume
// label, allocation bitmap, up-case table and end of directory.
type FixedRootDir struct {
	sectorSize uint32
	head       []byte
}

func NewFixedRootDir(img *Image) *FixedRootDir {
	return &FixedRootDir{
		sectorSize: img.Geometry.SectorSize(),
		head:       img.RootHead[:],
	}
}

func (d *FixedRootDir) Fill(block uint32, buf []byte, offset uint32) {
	zero(buf)
	overlay(buf, position(d.sectorSize, block, offset), d.head, 0)
}

// DynamicRootDir serves the first three records of the root head followed by
// entries generated when the volume is assembled. The end of directory
// record is implied by the zeros after the entries.
type DynamicRootDir struct {
	sectorSize uint32
	head       []byte
	entries    []byte
}

const staticRootRecords = 3

func NewDynamicRootDir(img *Image, entries []byte) (*DynamicRootDir, error) {
	head := img.RootHead[:staticRootRecords*RecordSize]
	if size := uint64(len(head)) + uint64(len(entries)) + RecordSize; size > uint64(img.Geometry.ClusterSize()) {
		return nil, checkpoint.Wrap(fmt.Errorf("%d bytes of entries in a cluster of %d bytes", size, img.Geometry.ClusterSize()), ErrRootDirFull)
	}
	return &DynamicRootDir{
		sectorSize: img.Geometry.SectorSize(),
		head:       head,
		entries:    entries,
	}, nil
}

func (d *DynamicRootDir) Fill(block uint32, buf []byte, offset uint32) {
	pos := position(d.sectorSize, block, offset)
	zero(buf)
	overlay(buf, pos, d.head, 0)
	overlay(buf, pos, d.entries, uint64(len(d.head)))
}

// FileData serves the clusters of one file. Bytes after the end of the file
// up to the end of its last cluster are zero.
type FileData struct {
	sectorSize uint32
	content    Content
}

func NewFileData(sectorSize uint32, content Content) *FileData {
	return &FileData{sectorSize: sectorSize, content: content}
}

func (f *FileData) Fill(block uint32, buf []byte, offset uint32) {
	pos := position(f.sectorSize, block, offset)
	size := f.content.Size()
	n := uint64(0)
	if pos < size {
		n = min(uint64(len(buf)), size-pos)
		f.content.Fill(buf[:n], pos)
	}
	zero(buf[n:])
}
