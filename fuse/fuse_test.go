/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar 11 12:30:50 2019 mstenber
 * Last modified: Thu Mar 14 15:52:09 2019 mstenber
 * Edit time:     31 min
 *
 */

package fuse

import (
	"syscall"
	"testing"
	"time"

	"github.com/fingon/go-blockfs/fs"
	"github.com/fingon/go-blockfs/storage"
	"github.com/fingon/go-blockfs/storage/inmemory"
	"github.com/fingon/go-blockfs/util"
	. "github.com/hanwen/go-fuse/fuse"
	"github.com/stvp/assert"
)

const rootNode = 1

func newTestOps(t *testing.T) *Ops {
	dev := inmemory.NewInMemoryDevice()
	err := dev.Init(storage.DeviceConfiguration{Size: 1 << 20})
	assert.Nil(t, err)
	f, err := fs.NewFs(dev, fs.Configuration{
		Now:  func() time.Time { return time.Unix(1552000000, 0) },
		Rand: util.NewRandWithSeed(42),
	})
	assert.Nil(t, err)
	return NewOps(f)
}

func header(node uint64) InHeader {
	return InHeader{NodeId: node}
}

func TestLookupRoot(t *testing.T) {
	t.Parallel()
	ops := newTestOps(t)
	var out EntryOut
	h := header(rootNode)
	assert.Equal(t, ops.Lookup(&h, ".", &out), OK)
	assert.Equal(t, out.NodeId, uint64(rootNode))
	assert.Equal(t, out.Attr.Mode&S_IFDIR, uint32(S_IFDIR))
	assert.Equal(t, out.Attr.Nlink, uint32(2))

	assert.Equal(t, ops.Lookup(&h, "nope", &out), ENOENT)
}

func TestMkdirCreateRead(t *testing.T) {
	t.Parallel()
	ops := newTestOps(t)

	var dir EntryOut
	assert.Equal(t, ops.Mkdir(&MkdirIn{InHeader: header(rootNode)}, "d", &dir), OK)
	assert.Equal(t, ops.Mkdir(&MkdirIn{InHeader: header(rootNode)}, "d", &dir), Status(syscall.EEXIST))

	var created CreateOut
	assert.Equal(t, ops.Create(&CreateIn{InHeader: header(dir.NodeId)}, "f", &created), OK)
	assert.Equal(t, created.EntryOut.Attr.Size, uint64(0))
	assert.Equal(t, created.EntryOut.Attr.Mode&S_IFREG, uint32(S_IFREG))

	p, _, err := ops.fs.Stat("/d/f")
	assert.Nil(t, err)
	assert.Equal(t, nodeId(p.Id), created.EntryOut.NodeId)

	// Content is provided by the engine
	assert.Nil(t, ops.fs.CreateFile("/d/g", 2))
	var g EntryOut
	h := header(dir.NodeId)
	assert.Equal(t, ops.Lookup(&h, "g", &g), OK)
	assert.Equal(t, g.Attr.Size, uint64(2048))

	var dot EntryOut
	gh := header(g.NodeId)
	assert.Equal(t, ops.Lookup(&gh, ".", &dot), OK)
	assert.Equal(t, dot.NodeId, g.NodeId)
	assert.Equal(t, dot.Attr.Size, uint64(2048))
	assert.Equal(t, ops.Lookup(&gh, "x", &dot), Status(syscall.ENOTDIR))
	gone := header(400)
	assert.Equal(t, ops.Lookup(&gone, ".", &dot), ENOENT)

	assert.Equal(t, ops.Open(&OpenIn{InHeader: header(g.NodeId)}, &OpenOut{}), OK)
	assert.Equal(t, ops.Open(&OpenIn{InHeader: header(dir.NodeId)}, &OpenOut{}), Status(syscall.EISDIR))
	assert.Equal(t, ops.Open(&OpenIn{InHeader: header(g.NodeId), Flags: uint32(syscall.O_RDWR)}, &OpenOut{}), Status(syscall.EROFS))

	want, err := ops.fs.ReadFile("/d/g")
	assert.Nil(t, err)
	buf := make([]byte, 100)
	rr, code := ops.Read(&ReadIn{InHeader: header(g.NodeId), Offset: 2000}, buf)
	assert.Equal(t, code, OK)
	got, code := rr.Bytes(buf)
	assert.Equal(t, code, OK)
	assert.Equal(t, string(got), string(want[2000:]))

	rr, code = ops.Read(&ReadIn{InHeader: header(g.NodeId), Offset: 4096}, buf)
	assert.Equal(t, code, OK)
	got, _ = rr.Bytes(buf)
	assert.Equal(t, len(got), 0)

	var attr AttrOut
	assert.Equal(t, ops.GetAttr(&GetAttrIn{InHeader: header(g.NodeId)}, &attr), OK)
	assert.Equal(t, attr.Attr.Size, uint64(2048))
	assert.Equal(t, ops.GetAttr(&GetAttrIn{InHeader: header(400)}, &attr), ENOENT)
}

func TestUnlinkRmdirLink(t *testing.T) {
	t.Parallel()
	ops := newTestOps(t)
	assert.Nil(t, ops.fs.CreateDir("/d/e", true))
	assert.Nil(t, ops.fs.CreateFile("/d/f", 1))

	var d EntryOut
	root := header(rootNode)
	assert.Equal(t, ops.Lookup(&root, "d", &d), OK)
	dh := header(d.NodeId)
	var f EntryOut
	assert.Equal(t, ops.Lookup(&dh, "f", &f), OK)

	var l EntryOut
	assert.Equal(t, ops.Link(&LinkIn{InHeader: root, Oldnodeid: f.NodeId}, "l", &l), OK)
	assert.Equal(t, l.NodeId, f.NodeId)
	assert.Equal(t, l.Attr.Nlink, uint32(2))
	assert.Equal(t, ops.Link(&LinkIn{InHeader: root, Oldnodeid: d.NodeId}, "dl", &l), Status(syscall.EISDIR))

	assert.Equal(t, ops.Rmdir(&root, "d"), Status(syscall.ENOTEMPTY))
	assert.Equal(t, ops.Unlink(&dh, "f"), OK)
	assert.Equal(t, ops.Unlink(&dh, "f"), ENOENT)
	assert.Equal(t, ops.Rmdir(&dh, "e"), OK)
	assert.Equal(t, ops.Rmdir(&root, "d"), OK)

	inode, err := ops.fs.GetInode(inodeId(l.NodeId))
	assert.Nil(t, err)
	assert.Equal(t, inode.LinkCount, uint16(1))
	assert.Nil(t, ops.fs.Check())
}

func TestReadDir(t *testing.T) {
	t.Parallel()
	ops := newTestOps(t)
	assert.Nil(t, ops.fs.CreateFile("/f", 1))
	in := &ReadIn{InHeader: header(rootNode), Size: 4096}

	l := NewDirEntryList(make([]byte, 4096), 0)
	assert.Equal(t, ops.ReadDir(in, l), OK)
	l = NewDirEntryList(make([]byte, 4096), 0)
	assert.Equal(t, ops.ReadDirPlus(in, l), OK)

	var f EntryOut
	root := header(rootNode)
	assert.Equal(t, ops.Lookup(&root, "f", &f), OK)
	assert.Equal(t, ops.OpenDir(&OpenIn{InHeader: header(f.NodeId)}, &OpenOut{}), Status(syscall.ENOTDIR))
	assert.Equal(t, ops.ReadDir(&ReadIn{InHeader: header(f.NodeId)}, l), Status(syscall.ENOTDIR))
}

func TestStatFs(t *testing.T) {
	t.Parallel()
	ops := newTestOps(t)
	var out StatfsOut
	h := header(rootNode)
	assert.Equal(t, ops.StatFs(&h, &out), OK)
	sb := ops.fs.Superblock()
	assert.Equal(t, out.Blocks, uint64(sb.TotalBlocks))
	assert.Equal(t, out.Files, uint64(512))
	assert.Equal(t, out.Ffree, uint64(511))
	assert.Equal(t, out.Bsize, uint32(fs.BlockSize))
}

func TestToStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, toStatus(nil), OK)
	assert.Equal(t, toStatus(fs.ErrNoBlocks), Status(syscall.ENOSPC))
	assert.Equal(t, toStatus(fs.ErrProtectedPath), EPERM)
	assert.Equal(t, toStatus(fs.ErrCorrupt), EIO)
	assert.Equal(t, toStatus(fs.ErrTooManyLinks), Status(syscall.EMLINK))
}
