package vexfat

import (
	"time"
)

// Content is the data of a file served from the volume.
//
// Fill is called on the read path: it must write exactly len(buf) bytes
// starting at off, where off+len(buf) never exceeds Size(). It must not
// block, fail or depend on earlier calls.
type Content interface {
	Size() uint64
	Fill(buf []byte, off uint64)
}

// Bytes is Content held in memory.
type Bytes []byte

func (b Bytes) Size() uint64 {
	return uint64(len(b))
}

func (b Bytes) Fill(buf []byte, off uint64) {
	copy(buf, b[off:])
}

// FileSpec describes a file placed in the root directory.
type FileSpec struct {
	Name    string
	Content Content
	// Attributes are written as given; AttrDirectory is not allowed.
	Attributes uint16
	// Modified is used for all three timestamps of the file.
	Modified time.Time
}
