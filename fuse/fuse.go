/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar 11 10:12:04 2019 mstenber
 * Last modified: Thu Mar 14 15:40:31 2019 mstenber
 * Edit time:     74 min
 *
 */

// fuse exposes a blockfs image through the go-fuse raw filesystem
// API. Node ids are inode ids plus one, so that the root directory
// is FUSE_ROOT_ID. File content is fixed at creation; writes are not
// supported.
package fuse

import (
	"os"
	"path"
	"syscall"

	"github.com/fingon/go-blockfs/fs"
	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/util"
	. "github.com/hanwen/go-fuse/fuse"
)

const (
	entryValidity = 1
	attrValidity  = 1
)

// Ops serializes every call to the underlying fs.Fs, as the fuse
// server calls it from many goroutines.
type Ops struct {
	RawFileSystem
	lock util.MutexLocked
	fs   *fs.Fs
}

var _ RawFileSystem = &Ops{}

func NewOps(f *fs.Fs) *Ops {
	mlog.DumpGids = true
	return &Ops{RawFileSystem: NewDefaultRawFileSystem(), fs: f}
}

func (self *Ops) String() string {
	return os.Args[0]
}

func inodeId(nodeId uint64) fs.InodeId {
	return fs.InodeId(nodeId - 1)
}

func nodeId(id fs.InodeId) uint64 {
	return uint64(id) + 1
}

func toStatus(err error) Status {
	if err == nil {
		return OK
	}
	e, ok := err.(*fs.Error)
	if !ok {
		return EIO
	}
	switch e.Kind {
	case fs.NotFound:
		return ENOENT
	case fs.AlreadyExists:
		return Status(syscall.EEXIST)
	case fs.NotADirectory:
		return Status(syscall.ENOTDIR)
	case fs.IsADirectory:
		return Status(syscall.EISDIR)
	case fs.ResourceExhausted:
		return Status(syscall.ENOSPC)
	case fs.ProtectedPath:
		return EPERM
	case fs.FileTooLarge:
		return Status(syscall.EFBIG)
	case fs.PathInvalid:
		return EINVAL
	case fs.TooManyLinks:
		return Status(syscall.EMLINK)
	}
	return EIO
}

func fillAttr(inode *fs.Inode, out *Attr) {
	out.Ino = nodeId(inode.Id)
	out.Size = uint64(inode.Size)
	out.Blocks = (uint64(inode.Size) + 511) / 512
	out.Blksize = fs.BlockSize
	out.Atime = uint64(inode.ModifiedAt)
	out.Mtime = uint64(inode.ModifiedAt)
	out.Ctime = uint64(inode.CreatedAt)
	out.Nlink = uint32(inode.LinkCount)
	if inode.IsDir() {
		out.Mode = S_IFDIR | 0755
	} else {
		out.Mode = S_IFREG | 0444
	}
}

func fillEntryOut(inode *fs.Inode, out *EntryOut) {
	// Link may provide nil out
	if out == nil {
		return
	}
	out.NodeId = nodeId(inode.Id)
	out.EntryValid = entryValidity
	out.AttrValid = attrValidity
	fillAttr(inode, &out.Attr)
}

// childPath returns the path of name within directory node.
func (self *Ops) childPath(node uint64, name string) (string, Status) {
	dir, err := self.fs.DirectoryPath(inodeId(node))
	if err != nil {
		return "", toStatus(err)
	}
	return path.Join(dir, name), OK
}

// entry fills out for name within node. "." is node itself, whatever
// its type.
func (self *Ops) entry(node uint64, name string, out *EntryOut) Status {
	id := inodeId(node)
	if name != "." {
		var err error
		id, err = self.fs.Lookup(id, name)
		if err != nil {
			return toStatus(err)
		}
	}
	inode, err := self.fs.GetInode(id)
	if err != nil {
		return toStatus(err)
	}
	fillEntryOut(&inode, out)
	return OK
}

func (self *Ops) Lookup(input *InHeader, name string, out *EntryOut) (code Status) {
	defer self.lock.Locked()()
	mlog.Printf2("fuse/fuse", "Lookup %d %s", input.NodeId, name)
	return self.entry(input.NodeId, name, out)
}

func (self *Ops) GetAttr(input *GetAttrIn, out *AttrOut) (code Status) {
	defer self.lock.Locked()()
	inode, err := self.fs.GetInode(inodeId(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	out.AttrValid = attrValidity
	fillAttr(&inode, &out.Attr)
	return OK
}

func (self *Ops) StatFs(input *InHeader, out *StatfsOut) Status {
	defer self.lock.Locked()()
	sb := self.fs.Superblock()
	out.Bsize = fs.BlockSize
	out.Frsize = fs.BlockSize
	out.Blocks = uint64(sb.TotalBlocks)
	out.Bfree = uint64(sb.AvailableBlocks)
	out.Bavail = uint64(sb.AvailableBlocks)
	out.Files = uint64(sb.TotalInodes)
	out.Ffree = uint64(sb.AvailableInodes)
	out.NameLen = fs.MaxNameLength
	return OK
}

func (self *Ops) OpenDir(input *OpenIn, out *OpenOut) (code Status) {
	defer self.lock.Locked()()
	inode, err := self.fs.GetInode(inodeId(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	if !inode.IsDir() {
		return Status(syscall.ENOTDIR)
	}
	return OK
}

func (self *Ops) ReleaseDir(input *ReleaseIn) {
}

func (self *Ops) readDir(input *ReadIn, cb func(e *fs.Dentry, inode *fs.Inode) bool) Status {
	entries, err := self.fs.LoadEntries(inodeId(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	for i := int(input.Offset); i < len(entries); i++ {
		e := &entries[i]
		inode, err := self.fs.GetInode(e.Inode)
		if err != nil {
			return toStatus(err)
		}
		if !cb(e, &inode) {
			break
		}
	}
	return OK
}

// ListDir returns the names in directory node, . and .. included.
func (self *Ops) ListDir(node uint64) (ret []string, err error) {
	defer self.lock.Locked()()
	entries, err := self.fs.LoadEntries(inodeId(node))
	if err != nil {
		return
	}
	for _, e := range entries {
		ret = append(ret, e.Name)
	}
	return
}

func dirEntry(e *fs.Dentry, inode *fs.Inode) DirEntry {
	var attr Attr
	fillAttr(inode, &attr)
	return DirEntry{Mode: attr.Mode, Name: e.Name, Ino: attr.Ino}
}

func (self *Ops) ReadDir(input *ReadIn, l *DirEntryList) Status {
	defer self.lock.Locked()()
	return self.readDir(input, func(e *fs.Dentry, inode *fs.Inode) bool {
		ok, _ := l.AddDirEntry(dirEntry(e, inode))
		return ok
	})
}

func (self *Ops) ReadDirPlus(input *ReadIn, l *DirEntryList) Status {
	defer self.lock.Locked()()
	return self.readDir(input, func(e *fs.Dentry, inode *fs.Inode) bool {
		out, _ := l.AddDirLookupEntry(dirEntry(e, inode))
		if out == nil {
			return false
		}
		*out = EntryOut{}
		fillEntryOut(inode, out)
		return true
	})
}

func (self *Ops) Open(input *OpenIn, out *OpenOut) (code Status) {
	defer self.lock.Locked()()
	inode, err := self.fs.GetInode(inodeId(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	if inode.IsDir() {
		return Status(syscall.EISDIR)
	}
	if input.Flags&uint32(os.O_WRONLY|os.O_RDWR|os.O_TRUNC) != 0 {
		return Status(syscall.EROFS)
	}
	return OK
}

func (self *Ops) Release(input *ReleaseIn) {
}

func (self *Ops) Read(input *ReadIn, buf []byte) (ReadResult, Status) {
	defer self.lock.Locked()()
	b, err := self.fs.ReadInode(inodeId(input.NodeId))
	if err != nil {
		return nil, toStatus(err)
	}
	if input.Offset >= uint64(len(b)) {
		return ReadResultData(nil), OK
	}
	b = b[input.Offset:]
	if len(b) > len(buf) {
		b = b[:len(buf)]
	}
	return ReadResultData(b), OK
}

func (self *Ops) Mkdir(input *MkdirIn, name string, out *EntryOut) (code Status) {
	defer self.lock.Locked()()
	mlog.Printf2("fuse/fuse", "Mkdir %d %s", input.NodeId, name)
	p, code := self.childPath(input.NodeId, name)
	if !code.Ok() {
		return
	}
	if code = toStatus(self.fs.CreateDir(p, false)); !code.Ok() {
		return
	}
	return self.entry(input.NodeId, name, out)
}

// Create makes an empty file; content cannot be written afterwards.
func (self *Ops) Create(input *CreateIn, name string, out *CreateOut) (code Status) {
	defer self.lock.Locked()()
	mlog.Printf2("fuse/fuse", "Create %d %s", input.NodeId, name)
	p, code := self.childPath(input.NodeId, name)
	if !code.Ok() {
		return
	}
	if code = toStatus(self.fs.CreateFile(p, 0)); !code.Ok() {
		return
	}
	return self.entry(input.NodeId, name, &out.EntryOut)
}

func (self *Ops) Unlink(input *InHeader, name string) (code Status) {
	defer self.lock.Locked()()
	mlog.Printf2("fuse/fuse", "Unlink %d %s", input.NodeId, name)
	p, code := self.childPath(input.NodeId, name)
	if !code.Ok() {
		return
	}
	return toStatus(self.fs.Remove(p, false))
}

func (self *Ops) Rmdir(input *InHeader, name string) (code Status) {
	defer self.lock.Locked()()
	mlog.Printf2("fuse/fuse", "Rmdir %d %s", input.NodeId, name)
	p, code := self.childPath(input.NodeId, name)
	if !code.Ok() {
		return
	}
	entries, err := self.fs.List(p)
	if err != nil {
		return toStatus(err)
	}
	if len(entries) > 2 {
		return Status(syscall.ENOTEMPTY)
	}
	return toStatus(self.fs.Remove(p, true))
}

func (self *Ops) Link(input *LinkIn, name string, out *EntryOut) (code Status) {
	defer self.lock.Locked()()
	mlog.Printf2("fuse/fuse", "Link %d %d %s", input.Oldnodeid, input.NodeId, name)
	p, code := self.childPath(input.NodeId, name)
	if !code.Ok() {
		return
	}
	if code = toStatus(self.fs.LinkInode(inodeId(input.Oldnodeid), p)); !code.Ok() {
		return
	}
	return self.entry(input.NodeId, name, out)
}
