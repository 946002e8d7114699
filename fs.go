package vexfat

import (
	"os"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// Fs is a read-only afero.Fs with a single file in its root directory: the
// raw image of a volume. It allows serving a volume through everything that
// understands afero or, using afero.IOFS, io/fs.
type Fs struct {
	source    ImageSource
	imageName string
	modTime   time.Time
}

// NewFs presents source as the file imageName. modTime is reported for the
// image and the root directory.
func NewFs(source ImageSource, imageName string, modTime time.Time) *Fs {
	return &Fs{
		source:    source,
		imageName: imageName,
		modTime:   modTime,
	}
}

func readOnly(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: syscall.EROFS}
}

// clean maps every spelling of a path to its absolute slash separated form.
// "", "." and "/" all name the root directory.
func clean(name string) string {
	return path.Clean("/" + filepath.ToSlash(name))
}

func (fs *Fs) rootInfo() os.FileInfo {
	return fileInfo{name: "/", dir: true, modTime: fs.modTime}
}

func (fs *Fs) imageInfo() os.FileInfo {
	return fileInfo{name: fs.imageName, size: fs.source.Size(), modTime: fs.modTime}
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, readOnly("create", name)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return readOnly("mkdir", name)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return readOnly("mkdir", path)
}

func (fs *Fs) Open(name string) (afero.File, error) {
	switch clean(name) {
	case "/":
		return &File{
			path:        "/",
			isDirectory: true,
			entries:     []os.FileInfo{fs.imageInfo()},
			stat:        fs.rootInfo(),
		}, nil
	case "/" + fs.imageName:
		return &File{
			source: fs.source,
			path:   "/" + fs.imageName,
			stat:   fs.imageInfo(),
		}, nil
	}
	return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

// OpenFile opens name read-only. Any flag which could modify the file is
// rejected with syscall.EROFS.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, readOnly("open", name)
	}
	return fs.Open(name)
}

func (fs *Fs) Remove(name string) error {
	return readOnly("remove", name)
}

func (fs *Fs) RemoveAll(path string) error {
	return readOnly("remove", path)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EROFS}
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return f.Stat()
}

func (fs *Fs) Name() string {
	return "vexfat"
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return readOnly("chmod", name)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return readOnly("chown", name)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnly("chtimes", name)
}
