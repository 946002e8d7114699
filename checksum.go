package vexfat

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/aligator/vexfat/checkpoint"
)

// Accumulate folds data into acc with the boot checksum rule:
// rotate the accumulator left by one, then XOR the next byte.
func Accumulate(acc uint32, data []byte) uint32 {
	for _, b := range data {
		acc = bits.RotateLeft32(acc, 1) ^ uint32(b)
	}
	return acc
}

// bootChecksumSkipped reports the bytes of the boot sector which never take
// part in the checksum because they may change while the volume is mounted.
func bootChecksumSkipped(i int) bool {
	return i == offsetVolumeFlags || i == offsetVolumeFlags+1 || i == offsetPercentInUse
}

// BootChecksum runs the reference scan over the boot sectors preceding the
// checksum sector (sectors 0 to 10 of the boot region).
func BootChecksum(region []byte) uint32 {
	var acc uint32
	for i, b := range region {
		if bootChecksumSkipped(i) {
			continue
		}
		acc = bits.RotateLeft32(acc, 1) ^ uint32(b)
	}
	return acc
}

// Composer combines the precomputed checksum of the static boot sectors with
// a serial number only known at runtime.
//
// Every byte contributes to the scan as its value rotated left by the number
// of bytes processed after it, so the serial number bytes contribute
// Accumulate(0, serial) rotated by SuffixRot. Prefix is the checksum of the
// region with a zero serial, rotated back by SuffixRot so both parts share
// the serial's position:
//  Compose(serial) = rotl(Prefix XOR Accumulate(0, serial), SuffixRot)
type Composer struct {
	Prefix    uint32
	SuffixRot int
}

// NewComposer derives the composer from the boot sectors 0 to 10. The serial
// number field must be zero. The derivation is checked against the reference
// scan and any mismatch is reported as ErrChecksumDerivation.
func NewComposer(region []byte) (Composer, error) {
	if len(region) < bootSectorHeaderSize {
		return Composer{}, checkpoint.Wrap(fmt.Errorf("boot region has only %d bytes", len(region)), ErrChecksumDerivation)
	}
	if !allZero(region[offsetVolumeSerial : offsetVolumeSerial+4]) {
		return Composer{}, checkpoint.Wrap(fmt.Errorf("serial number field is not zero"), ErrChecksumDerivation)
	}

	processedAfter := 0
	for i := offsetVolumeSerial + 4; i < len(region); i++ {
		if !bootChecksumSkipped(i) {
			processedAfter++
		}
	}

	rot := processedAfter % 32
	c := Composer{
		Prefix:    bits.RotateLeft32(BootChecksum(region), -rot),
		SuffixRot: rot,
	}

	if err := c.verify(region); err != nil {
		return Composer{}, err
	}
	return c, nil
}

// Compose returns the boot checksum for the given serial number.
// It runs in constant time and does not allocate.
func (c Composer) Compose(serial uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], serial)
	return bits.RotateLeft32(c.Prefix^Accumulate(0, b[:]), c.SuffixRot)
}

func (c Composer) verify(region []byte) error {
	probe := make([]byte, len(region))
	copy(probe, region)

	for _, serial := range []uint32{0, 0xA5C3_0F81} {
		binary.LittleEndian.PutUint32(probe[offsetVolumeSerial:], serial)
		if want, got := BootChecksum(probe), c.Compose(serial); want != got {
			return checkpoint.Wrap(fmt.Errorf("serial %#08x: composed %#08x, scanned %#08x", serial, got, want), ErrChecksumDerivation)
		}
	}
	return nil
}

// EntrySetChecksum computes the SetChecksum of a directory entry set
// (exFAT 6.3.3). The checksum field of the first entry is skipped.
func EntrySetChecksum(set []byte) uint16 {
	var checksum uint16
	for i, b := range set {
		if i == 2 || i == 3 {
			continue
		}
		checksum = (checksum>>1 | checksum<<15) + uint16(b)
	}
	return checksum
}
