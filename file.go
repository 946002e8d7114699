package vexfat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/vexfat/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// ImageSource provides the bytes of an image file. *Volume implements it.
// It mainly exists to be able to mock the volume in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package vexfat
type ImageSource interface {
	io.ReaderAt
	Size() int64
}

// File is an open file or directory of an Fs.
type File struct {
	source ImageSource
	path   string

	isDirectory bool
	entries     []os.FileInfo

	stat   os.FileInfo
	offset int64
}

func (f *File) Close() error {
	f.source = nil
	f.path = ""
	f.isDirectory = false
	f.entries = nil
	f.stat = nil
	f.offset = 0

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.stat == nil {
		return 0, os.ErrClosed
	}
	if f.isDirectory {
		return 0, &os.PathError{Op: "read", Path: f.path, Err: syscall.EISDIR}
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Reading a file if the size has been already reached, makes no sense.
	if f.stat.Size() <= f.offset {
		return 0, io.EOF
	}

	if remaining := f.stat.Size() - f.offset; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = f.source.ReadAt(p, f.offset)
	f.offset += int64(n)

	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	return n, nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if f.stat == nil {
		return 0, os.ErrClosed
	}
	if f.isDirectory {
		return 0, &os.PathError{Op: "read", Path: f.path, Err: syscall.EISDIR}
	}
	if off < 0 {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v", ErrReadFile, off))
	}

	// Reading over the end makes no sense.
	if f.stat.Size() <= off {
		return 0, io.EOF
	}

	size := len(p)
	if remaining := f.stat.Size() - off; int64(size) > remaining {
		p = p[:remaining]
	}

	n, err = f.source.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}

	if n < size {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.stat == nil {
		return 0, os.ErrClosed
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.stat.Size() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > f.stat.Size() {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	return 0, readOnly("write", f.path)
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, readOnly("write", f.path)
}

func (f *File) Name() string {
	return f.path
}

// Readdir reads the contents of a directory.
// With count > 0 at most count entries are returned and io.EOF once there are
// none left. Otherwise all remaining entries are returned.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	remaining := f.entries[f.offset:]
	if count <= 0 {
		f.offset += int64(len(remaining))
		return append([]os.FileInfo{}, remaining...), nil
	}

	if len(remaining) == 0 {
		return nil, io.EOF
	}

	if count > len(remaining) {
		count = len(remaining)
	}
	f.offset += int64(count)
	return append([]os.FileInfo{}, remaining[:count]...), nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.stat == nil {
		return nil, os.ErrClosed
	}
	return f.stat, nil
}

// Sync has nothing to flush.
func (f *File) Sync() error {
	return nil
}

func (f *File) Truncate(size int64) error {
	return readOnly("truncate", f.path)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
