package vexfat

import (
	"os"
	"time"
)

type fileInfo struct {
	name    string
	size    int64
	dir     bool
	modTime time.Time
}

func (i fileInfo) Name() string {
	return i.name
}

func (i fileInfo) Size() int64 {
	return i.size
}

// Mode is read-only for everyone as nothing can be written.
func (i fileInfo) Mode() os.FileMode {
	if i.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

func (i fileInfo) ModTime() time.Time {
	return i.modTime
}

func (i fileInfo) IsDir() bool {
	return i.dir
}

func (i fileInfo) Sys() interface{} {
	return nil
}
