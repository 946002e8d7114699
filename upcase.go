package vexfat

import (
	"encoding/binary"
)

// upcaseIdentityMark starts a compressed run of identity mappings; the entry
// after it holds the length of the run.
const upcaseIdentityMark = 0xFFFF

// upcaseEntries is the smallest up-case table this volume needs: everything
// maps to itself except 'a' to 'z'.
var upcaseEntries = func() []uint16 {
	entries := []uint16{upcaseIdentityMark, 'a'}
	for c := uint16('A'); c <= 'Z'; c++ {
		entries = append(entries, c)
	}
	return append(entries, upcaseIdentityMark, 0x10000-('z'+1))
}()

// UpcaseTable holds the raw up-case table as it is stored in its cluster.
// It must not be modified.
var UpcaseTable = func() []byte {
	b := make([]byte, len(upcaseEntries)*2)
	for i, e := range upcaseEntries {
		binary.LittleEndian.PutUint16(b[i*2:], e)
	}
	return b
}()

// UpcaseTableChecksum is the TableChecksum of UpcaseTable.
var UpcaseTableChecksum = TableChecksum(UpcaseTable)

// upcaseMap is the expanded form of the compressed table. Only non-identity
// mappings are stored.
var upcaseMap = expandUpcase(upcaseEntries)

func expandUpcase(entries []uint16) map[uint16]uint16 {
	m := make(map[uint16]uint16)
	var next uint32
	for i := 0; i < len(entries) && next <= 0xFFFF; i++ {
		if entries[i] == upcaseIdentityMark && i+1 < len(entries) {
			next += uint32(entries[i+1])
			i++
			continue
		}
		if uint16(next) != entries[i] {
			m[uint16(next)] = entries[i]
		}
		next++
	}
	return m
}

// Upcase maps a UTF-16 code unit through the up-case table.
func Upcase(c uint16) uint16 {
	if u, ok := upcaseMap[c]; ok {
		return u
	}
	return c
}

// TableChecksum computes the up-case table checksum (exFAT 7.2.2).
func TableChecksum(table []byte) uint32 {
	var checksum uint32
	for _, b := range table {
		checksum = (checksum>>1 | checksum<<31) + uint32(b)
	}
	return checksum
}

// NameHash computes the stream extension NameHash over the up-cased name
// (exFAT 7.6.4).
func NameHash(name []uint16) uint16 {
	var hash uint16
	for _, c := range name {
		u := Upcase(c)
		hash = (hash>>1 | hash<<15) + u&0xFF
		hash = (hash>>1 | hash<<15) + u>>8
	}
	return hash
}
