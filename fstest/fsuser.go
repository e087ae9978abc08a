/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar 13 15:39:36 2019 mstenber
 * Last modified: Thu Mar 14 18:02:11 2019 mstenber
 * Edit time:     41 min
 *
 */

// fstest drives the raw fuse adapter with ~os module functionality,
// path by path, the way the kernel would.
//
// This does NOT really mount the filesystem, so the tests can run in
// parallel and without fuse support on the host.
package fstest

import (
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	myfuse "github.com/fingon/go-blockfs/fuse"
	"github.com/hanwen/go-fuse/fuse"
)

// s2e keeps the errno so that callers can tell failures apart.
func s2e(status fuse.Status) error {
	if !status.Ok() {
		return syscall.Errno(status)
	}
	return nil
}

type FSUser struct {
	fuse.InHeader
	ops *myfuse.Ops
}

type fileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	mtime time.Time
	ino   uint64
	nlink uint32
}

func (self *fileInfo) Name() string {
	return self.name
}

func (self *fileInfo) Size() int64 {
	return self.size
}

func (self *fileInfo) Mode() os.FileMode {
	return self.mode
}

func (self *fileInfo) ModTime() time.Time {
	return self.mtime
}

func (self *fileInfo) IsDir() bool {
	return self.Mode().IsDir()
}

// Sys returns the fuse attributes.
func (self *fileInfo) Sys() interface{} {
	return self
}

func newFileInfo(name string, attr *fuse.Attr) *fileInfo {
	mode := os.FileMode(attr.Mode & 0777)
	if attr.Mode&syscall.S_IFMT == syscall.S_IFDIR {
		mode |= os.ModeDir
	}
	return &fileInfo{name: name,
		size:  int64(attr.Size),
		mode:  mode,
		mtime: time.Unix(int64(attr.Mtime), int64(attr.Mtimensec)),
		ino:   attr.Ino,
		nlink: attr.Nlink}
}

func NewFSUser(ops *myfuse.Ops) *FSUser {
	return &FSUser{ops: ops}
}

func (self *FSUser) lookup(p string, eo *fuse.EntryOut) (err error) {
	inode := uint64(fuse.FUSE_ROOT_ID)
	for _, name := range strings.Split(p, "/") {
		if name == "" {
			continue
		}
		self.NodeId = inode
		err = s2e(self.ops.Lookup(&self.InHeader, name, eo))
		if err != nil {
			return
		}
		inode = eo.Ino
	}
	self.NodeId = inode
	err = s2e(self.ops.Lookup(&self.InHeader, ".", eo))
	return
}

// parent looks up the directory of p, leaving NodeId at it.
func (self *FSUser) parent(p string) (name string, err error) {
	var eo fuse.EntryOut
	dir, name := path.Split(path.Clean(p))
	err = self.lookup(dir, &eo)
	return
}

func (self *FSUser) ListDir(name string) (ret []string, err error) {
	var eo fuse.EntryOut
	err = self.lookup(name, &eo)
	if err != nil {
		return
	}
	var oo fuse.OpenOut
	err = s2e(self.ops.OpenDir(&fuse.OpenIn{InHeader: self.InHeader}, &oo))
	if err != nil {
		return
	}
	del := fuse.NewDirEntryList(make([]byte, 1000), 0)
	err = s2e(self.ops.ReadDir(&fuse.ReadIn{Fh: oo.Fh,
		InHeader: self.InHeader}, del))
	if err != nil {
		return
	}
	// The list is encoded for the kernel; take the names from the
	// backdoor instead.
	ret, err = self.ops.ListDir(eo.Ino)
	self.ops.ReleaseDir(&fuse.ReleaseIn{Fh: oo.Fh, InHeader: self.InHeader})
	return
}

func (self *FSUser) ReadDir(dirname string) (ret []os.FileInfo, err error) {
	l, err := self.ListDir(dirname)
	if err != nil {
		return
	}
	ret = make([]os.FileInfo, len(l))
	for i, n := range l {
		var eo fuse.EntryOut
		err = self.lookup(path.Join(dirname, n), &eo)
		if err != nil {
			return
		}
		ret[i] = newFileInfo(n, &eo.Attr)
	}
	return
}

func (self *FSUser) Stat(p string) (os.FileInfo, error) {
	var eo fuse.EntryOut
	if err := self.lookup(p, &eo); err != nil {
		return nil, err
	}
	var ao fuse.AttrOut
	if err := s2e(self.ops.GetAttr(&fuse.GetAttrIn{InHeader: fuse.InHeader{NodeId: eo.Ino}}, &ao)); err != nil {
		return nil, err
	}
	return newFileInfo(path.Base(p), &ao.Attr), nil
}

func (self *FSUser) Mkdir(p string) error {
	name, err := self.parent(p)
	if err != nil {
		return err
	}
	var eo fuse.EntryOut
	return s2e(self.ops.Mkdir(&fuse.MkdirIn{InHeader: self.InHeader, Mode: 0755}, name, &eo))
}

// Create makes an empty file.
func (self *FSUser) Create(p string) error {
	name, err := self.parent(p)
	if err != nil {
		return err
	}
	var co fuse.CreateOut
	return s2e(self.ops.Create(&fuse.CreateIn{InHeader: self.InHeader, Mode: 0444}, name, &co))
}

func (self *FSUser) Link(oldpath, newpath string) error {
	var eo fuse.EntryOut
	if err := self.lookup(oldpath, &eo); err != nil {
		return err
	}
	old := eo.Ino
	name, err := self.parent(newpath)
	if err != nil {
		return err
	}
	return s2e(self.ops.Link(&fuse.LinkIn{InHeader: self.InHeader, Oldnodeid: old}, name, &eo))
}

// Remove is os.Remove: files are unlinked and empty directories
// removed.
func (self *FSUser) Remove(p string) error {
	fi, err := self.Stat(p)
	if err != nil {
		return err
	}
	name, err := self.parent(p)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return s2e(self.ops.Rmdir(&self.InHeader, name))
	}
	return s2e(self.ops.Unlink(&self.InHeader, name))
}

func (self *FSUser) ReadFile(p string) (ret []byte, err error) {
	var eo fuse.EntryOut
	err = self.lookup(p, &eo)
	if err != nil {
		return
	}
	var oo fuse.OpenOut
	err = s2e(self.ops.Open(&fuse.OpenIn{InHeader: self.InHeader}, &oo))
	if err != nil {
		return
	}
	defer self.ops.Release(&fuse.ReleaseIn{Fh: oo.Fh, InHeader: self.InHeader})
	buf := make([]byte, 1000)
	for {
		rr, code := self.ops.Read(&fuse.ReadIn{InHeader: self.InHeader,
			Offset: uint64(len(ret)), Size: uint32(len(buf))}, buf)
		if err = s2e(code); err != nil {
			return
		}
		var b []byte
		b, code = rr.Bytes(buf)
		if err = s2e(code); err != nil {
			return
		}
		if len(b) == 0 {
			return
		}
		ret = append(ret, b...)
	}
}
