package engine

import (
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// VFS is the engine instance's in-memory virtual filesystem. It
// implements fs.FS so wazero can mount it at the instance root, and it
// exposes the write-side operations the bootstrapper needs.
//
// Paths are accepted with or without a leading separator.
type VFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

// PathInfo reports the outcome of an existence check.
type PathInfo struct {
	Exists bool
	IsDir  bool
}

// NewVFS creates an empty virtual filesystem containing only the root
// directory.
func NewVFS() *VFS {
	return &VFS{
		files: make(map[string][]byte),
		dirs:  map[string]struct{}{".": {}},
	}
}

func normalize(name string) string {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// AnalyzePath reports whether a file or directory exists at the path.
func (v *VFS) AnalyzePath(name string) PathInfo {
	name = normalize(name)
	v.mu.RLock()
	defer v.mu.RUnlock()
	if _, ok := v.dirs[name]; ok {
		return PathInfo{Exists: true, IsDir: true}
	}
	if _, ok := v.files[name]; ok {
		return PathInfo{Exists: true}
	}
	return PathInfo{}
}

// Mkdir creates a directory, including missing parents. Creating an
// existing directory is a no-op.
func (v *VFS) Mkdir(name string) error {
	name = normalize(name)
	v.mu.Lock()
	defer v.mu.Unlock()
	for p := name; p != "." && p != "/"; p = path.Dir(p) {
		v.dirs[p] = struct{}{}
	}
	return nil
}

// WriteFile stores data at the path, creating parent directories as
// needed and replacing any prior content.
func (v *VFS) WriteFile(name string, data []byte) error {
	name = normalize(name)
	v.mu.Lock()
	defer v.mu.Unlock()
	for p := path.Dir(name); p != "." && p != "/"; p = path.Dir(p) {
		v.dirs[p] = struct{}{}
	}
	v.files[name] = append([]byte(nil), data...)
	return nil
}

// ReadFile returns a copy of the file's content.
func (v *VFS) ReadFile(name string) ([]byte, error) {
	name = normalize(name)
	v.mu.RLock()
	defer v.mu.RUnlock()
	data, ok := v.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Open implements fs.FS.
func (v *VFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	name = normalize(name)

	v.mu.RLock()
	defer v.mu.RUnlock()

	if data, ok := v.files[name]; ok {
		return &vfsFile{name: path.Base(name), data: append([]byte(nil), data...)}, nil
	}
	if _, ok := v.dirs[name]; ok {
		return &vfsDir{name: path.Base(name), entries: v.entriesLocked(name)}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (v *VFS) entriesLocked(dir string) []fs.DirEntry {
	var entries []fs.DirEntry
	for name := range v.files {
		if path.Dir(name) == dir {
			entries = append(entries, vfsEntry{name: path.Base(name)})
		}
	}
	for name := range v.dirs {
		if name != "." && path.Dir(name) == dir {
			entries = append(entries, vfsEntry{name: path.Base(name), dir: true})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries
}

type vfsFile struct {
	name string
	data []byte
	off  int
}

func (f *vfsFile) Stat() (fs.FileInfo, error) {
	return vfsInfo{name: f.name, size: int64(len(f.data))}, nil
}

func (f *vfsFile) Read(p []byte) (int, error) {
	if f.off >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.off:])
	f.off += n
	return n, nil
}

func (f *vfsFile) Close() error { return nil }

type vfsDir struct {
	name    string
	entries []fs.DirEntry
	off     int
}

func (d *vfsDir) Stat() (fs.FileInfo, error) {
	return vfsInfo{name: d.name, dir: true}, nil
}

func (d *vfsDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *vfsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if n <= 0 {
		out := d.entries[d.off:]
		d.off = len(d.entries)
		return out, nil
	}
	if d.off >= len(d.entries) {
		return nil, io.EOF
	}
	end := d.off + n
	if end > len(d.entries) {
		end = len(d.entries)
	}
	out := d.entries[d.off:end]
	d.off = end
	return out, nil
}

func (d *vfsDir) Close() error { return nil }

type vfsEntry struct {
	name string
	dir  bool
}

func (e vfsEntry) Name() string { return e.name }
func (e vfsEntry) IsDir() bool  { return e.dir }
func (e vfsEntry) Type() fs.FileMode {
	if e.dir {
		return fs.ModeDir
	}
	return 0
}
func (e vfsEntry) Info() (fs.FileInfo, error) {
	return vfsInfo{name: e.name, dir: e.dir}, nil
}

type vfsInfo struct {
	name string
	size int64
	dir  bool
}

func (i vfsInfo) Name() string { return i.name }
func (i vfsInfo) Size() int64  { return i.size }
func (i vfsInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (i vfsInfo) ModTime() time.Time { return time.Time{} }
func (i vfsInfo) IsDir() bool        { return i.dir }
func (i vfsInfo) Sys() any           { return nil }
