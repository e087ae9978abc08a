/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Mar  8 11:30:40 2019 mstenber
 * Last modified: Thu Mar 14 11:02:19 2019 mstenber
 * Edit time:     92 min
 *
 */

package fs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fingon/go-blockfs/storage"
	"github.com/stvp/assert"
)

func stat(t *testing.T, fs *Fs, path string) Inode {
	inode, _, err := fs.Stat(path)
	assert.Nil(t, err, path)
	return inode
}

func TestCreateRemoveRestoresCounters(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, storage.DefaultImageSize)
	assert.Nil(t, fs.CreateDir("/d", false))
	before := fs.Superblock()
	for _, size := range []uint32{0, 1, 10, 11, 600, 1100} {
		path := fmt.Sprintf("/d/f%d", size)
		assert.Nil(t, fs.CreateFile(path, size))
		assert.Nil(t, fs.Check())
		sb := fs.Superblock()
		assert.Equal(t, int(before.AvailableBlocks-sb.AvailableBlocks), blocksForFile(int(size)))
		assert.Equal(t, before.AvailableInodes-sb.AvailableInodes, uint32(1))
		inode := stat(t, fs, path)
		assert.Equal(t, inode.Size, size*BlockSize)
		assert.Equal(t, inode.LinkCount, uint16(1))
		assert.Equal(t, inode.Type, TypeFile)
		content, err := fs.ReadFile(path)
		assert.Nil(t, err)
		assert.Equal(t, len(content), int(size)*BlockSize)
		for _, c := range content {
			if c < 'a' || c > 'z' {
				t.Fatalf("unexpected filler %v", c)
			}
		}
		assert.Nil(t, fs.Remove(path, false))
		assert.Equal(t, fs.Superblock(), before)
		assert.Nil(t, fs.Check())
	}
}

func TestCreateFileErrors(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateFile("/f", 1))

	err := fs.CreateFile("/f", 1)
	assert.Equal(t, err.Error(), "touch: cannot touch '/f': File exists")
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	err = fs.CreateFile("/nope/f", 1)
	assert.Equal(t, err.Error(), "touch: cannot touch '/nope/f': No such file or directory")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = fs.CreateFile("/f/g", 1)
	assert.True(t, errors.Is(err, ErrNotADirectory))

	err = fs.CreateFile("/", 1)
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	blocks := fs.AllocatedBlocks()
	inodes := fs.AllocatedInodes()
	sb := fs.Superblock()

	err = fs.CreateFile("/huge", MaxFileBlocks+1)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Equal(t, err.Error(), "touch: cannot touch '/huge': File too large")

	err = fs.CreateFile("/big", sb.AvailableBlocks)
	assert.Equal(t, err.Error(), "touch: cannot touch '/big': No available block")
	assert.True(t, errors.Is(err, ErrNoBlocks))
	assert.True(t, errors.Is(err, ErrResourceExhausted))
	assert.True(t, !errors.Is(err, ErrNoInodes))

	assert.Equal(t, fs.AllocatedBlocks(), blocks)
	assert.Equal(t, fs.AllocatedInodes(), inodes)
	assert.Equal(t, fs.Superblock(), sb)

	// Largest file that fits: data, indirect, double indirect top
	// and one second level table.
	n := sb.AvailableBlocks - 3
	assert.Nil(t, fs.CreateFile("/big", n))
	assert.Equal(t, fs.Superblock().AvailableBlocks, uint32(0))
	assert.Nil(t, fs.Check())
}

func TestInodeExhaustion(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 64<<10)
	total := int(fs.Superblock().TotalInodes)
	for i := 1; i < total; i++ {
		assert.Nil(t, fs.CreateFile(fmtName("f", i), 0))
	}
	sb := fs.Superblock()
	err := fs.CreateFile("/last", 0)
	assert.Equal(t, err.Error(), "touch: cannot touch '/last': No available inode")
	err = fs.CreateDir("/last", false)
	assert.Equal(t, err.Error(), "mkdir: cannot create directory '/last': No available inode")
	assert.Equal(t, fs.Superblock(), sb)
	assert.Nil(t, fs.Check())
}

func TestDirectoryGrowth(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateDir("/d", false))
	n := 2*DentriesPerBlock + 5
	for i := 0; i < n; i++ {
		assert.Nil(t, fs.CreateFile(fmt.Sprintf("/d/f%d", i), 0))
	}
	d := stat(t, fs, "/d")
	assert.Equal(t, d.Size, uint32(3*BlockSize))
	assert.Equal(t, len(fs.BlockList(&d)), 3)
	entries, err := fs.List("/d")
	assert.Nil(t, err)
	assert.Equal(t, len(entries), n+2)
	assert.Equal(t, entries[2].Name, "f0")
	assert.Nil(t, fs.Check())

	// Freed slots are reused; directories do not shrink.
	assert.Nil(t, fs.Remove("/d/f3", false))
	assert.Nil(t, fs.CreateFile("/d/new", 0))
	entries, err = fs.List("/d")
	assert.Nil(t, err)
	assert.Equal(t, entries[5].Name, "new")
	assert.Equal(t, stat(t, fs, "/d").Size, uint32(3*BlockSize))
	assert.Nil(t, fs.Check())
}

func TestDirectoryGrowthIndirect(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	// Fill the direct blocks exactly; the next entry needs the
	// indirect block.
	n := DirectBlocks*DentriesPerBlock - 2
	for i := 0; i < n; i++ {
		assert.Nil(t, fs.CreateFile(fmtName("f", i), 0))
	}
	root := fs.getInode(RootInode)
	assert.Equal(t, root.Indirect, BlockId(NoId))
	assert.Nil(t, fs.CreateDir("/x", false))
	root = fs.getInode(RootInode)
	assert.True(t, root.Indirect != NoId)
	assert.Equal(t, len(fs.BlockList(&root)), DirectBlocks+1)
	assert.Nil(t, fs.Check())
	assert.Nil(t, fs.Remove(fmtName("f", 7), false))
	assert.Nil(t, fs.Check())
}

func TestCreateDir(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	inodes := fs.AllocatedInodes()
	assert.Nil(t, fs.CreateDir("/a", true))
	assert.Equal(t, len(fs.AllocatedInodes()), len(inodes)+1)
	assert.Equal(t, stat(t, fs, "/").LinkCount, uint16(3))
	a := stat(t, fs, "/a")
	assert.Equal(t, a.LinkCount, uint16(2))
	assert.Equal(t, a.Type, TypeDirectory)
	entries, err := fs.List("/a")
	assert.Nil(t, err)
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].Name, ".")
	assert.Equal(t, entries[0].Inode.Id, a.Id)
	assert.Equal(t, entries[1].Name, "..")
	assert.Equal(t, entries[1].Inode.Id, RootInode)

	err = fs.CreateDir("/a", false)
	assert.Equal(t, err.Error(), "mkdir: cannot create directory '/a': File exists")
	assert.Nil(t, fs.CreateDir("/a", true))

	err = fs.CreateDir("/x/y", false)
	assert.Equal(t, err.Error(), "mkdir: cannot create directory '/x/y': No such file or directory")

	sb := fs.Superblock()
	assert.Nil(t, fs.CreateDir("/x/y/z", true))
	assert.Equal(t, sb.AvailableInodes-fs.Superblock().AvailableInodes, uint32(3))
	assert.Equal(t, stat(t, fs, "/x/y").LinkCount, uint16(3))
	assert.Equal(t, stat(t, fs, "/x/y/z").LinkCount, uint16(2))

	assert.Nil(t, fs.CreateFile("/a/f", 0))
	assert.True(t, errors.Is(fs.CreateDir("/a/f", true), ErrAlreadyExists))
	assert.True(t, errors.Is(fs.CreateDir("/a/f/g", true), ErrNotADirectory))
	assert.True(t, errors.Is(fs.CreateDir("/a/f/g", false), ErrNotADirectory))
	assert.Nil(t, fs.CreateDir("/", true))
	assert.Nil(t, fs.Check())
}

func TestCreateDirExhausted(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 64<<10)
	avail := fs.Superblock().AvailableBlocks
	assert.Nil(t, fs.CreateFile("/f", avail-2))
	sb := fs.Superblock()
	assert.Equal(t, sb.AvailableBlocks, uint32(1))
	err := fs.CreateDir("/a/b", true)
	assert.Equal(t, err.Error(), "mkdir: cannot create directory '/a/b': No available block")
	assert.Equal(t, fs.Superblock(), sb)
	assert.Nil(t, fs.CreateDir("/a", true))
	assert.Nil(t, fs.Check())
}

func TestNameTruncation(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	long := "abcdefghijklmnopqrstuvwxyz0123456789"
	assert.Nil(t, fs.CreateFile("/"+long, 1))
	entries, err := fs.List("/")
	assert.Nil(t, err)
	assert.Equal(t, entries[2].Name, long[:MaxNameLength])
	_, err = fs.ReadFile("/" + long)
	assert.Nil(t, err)
	_, err = fs.ReadFile("/" + long[:MaxNameLength])
	assert.Nil(t, err)
	assert.True(t, errors.Is(fs.CreateFile("/"+long[:MaxNameLength]+"X", 1), ErrAlreadyExists))
}

func TestHardLink(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateFile("/a", 3))
	content, err := fs.ReadFile("/a")
	assert.Nil(t, err)
	sb := fs.Superblock()
	assert.Nil(t, fs.HardLink("/a", "/b"))
	assert.Equal(t, fs.Superblock(), sb)
	assert.Equal(t, stat(t, fs, "/a").LinkCount, uint16(2))
	assert.Equal(t, stat(t, fs, "/b").Id, stat(t, fs, "/a").Id)
	assert.Nil(t, fs.Check())

	assert.Nil(t, fs.Remove("/a", false))
	b := stat(t, fs, "/b")
	assert.Equal(t, b.LinkCount, uint16(1))
	content2, err := fs.ReadFile("/b")
	assert.Nil(t, err)
	assert.Equal(t, content2, content)
	assert.Equal(t, fs.Superblock(), sb)
	assert.Nil(t, fs.Check())

	err = fs.HardLink("/missing", "/c")
	assert.Equal(t, err.Error(), "ln: cannot create link '/c': No such file or directory")
	err = fs.HardLink("/b", "/b")
	assert.Equal(t, err.Error(), "ln: cannot create link '/b': File exists")
	assert.Nil(t, fs.CreateDir("/d", false))
	assert.True(t, errors.Is(fs.HardLink("/d", "/e"), ErrIsADirectory))

	// Two names for one inode in the same directory.
	assert.Nil(t, fs.HardLink("/b", "/d/x"))
	assert.Nil(t, fs.HardLink("/b", "/d/y"))
	assert.Nil(t, fs.Remove("/d/x", false))
	_, err = fs.ReadFile("/d/y")
	assert.Nil(t, err)
	assert.Equal(t, stat(t, fs, "/b").LinkCount, uint16(2))
	assert.Nil(t, fs.Check())
}

func TestHardLinkLimit(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateFile("/a", 1))
	id, err := fs.Lookup(RootInode, "a")
	assert.Nil(t, err)
	setLinks := func(n uint16) {
		inode := fs.getInode(id)
		inode.LinkCount = n
		fs.putInode(&inode)
	}

	setLinks(MaxLinkCount - 1)
	assert.Nil(t, fs.HardLink("/a", "/b"))
	assert.Equal(t, stat(t, fs, "/a").LinkCount, uint16(MaxLinkCount))

	sb := fs.Superblock()
	err = fs.HardLink("/a", "/c")
	assert.True(t, errors.Is(err, ErrTooManyLinks))
	assert.Equal(t, err.Error(), "ln: cannot create link '/c': Too many links")
	assert.True(t, errors.Is(fs.AddEntry(RootInode, id, "c"), ErrTooManyLinks))
	assert.True(t, errors.Is(fs.LinkInode(id, "/c"), ErrTooManyLinks))
	assert.Equal(t, fs.Superblock(), sb)
	_, _, err = fs.Stat("/c")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, stat(t, fs, "/a").LinkCount, uint16(MaxLinkCount))

	assert.Nil(t, fs.Remove("/b", false))
	assert.Equal(t, stat(t, fs, "/a").LinkCount, uint16(MaxLinkCount-1))
	setLinks(1)
	assert.Nil(t, fs.Check())
}

func TestRemoveProtected(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateDir("/a/b", true))
	assert.Nil(t, fs.ChangeDir("/a/b"))

	cases := []struct{ path, msg string }{
		{"/", "rm: cannot remove root directory"},
		{"..", "rm: cannot remove '.' or '..'"},
		{".", "rm: cannot remove '.' or '..'"},
		{"/a/b/.", "rm: cannot remove '.' or '..'"},
		{"/a/b", "rm: cannot remove current working directory"},
		{"/a", "rm: cannot remove current working directory"},
		{"../../..", "rm: cannot remove '.' or '..'"},
	}
	for _, c := range cases {
		err := fs.Remove(c.path, true)
		assert.Equal(t, err.Error(), c.msg, c.path)
		assert.True(t, errors.Is(err, ErrProtectedPath), c.path)
	}
	err := fs.Remove("/zz", true)
	assert.Equal(t, err.Error(), "rm: cannot remove '/zz': No such file or directory")
	assert.Nil(t, fs.ChangeDir("/"))
	err = fs.Remove("/a", false)
	assert.Equal(t, err.Error(), "rm: cannot remove '/a': Is a directory")
	assert.Nil(t, fs.Remove("/a", true))
	assert.Nil(t, fs.Check())
}

func TestRemoveTrailingSlash(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateFile("/f", 1))
	assert.Nil(t, fs.CreateDir("/d", false))
	err := fs.Remove("/f/", false)
	assert.True(t, errors.Is(err, ErrNotADirectory))
	assert.Equal(t, err.Error(), "rm: cannot remove '/f/': Not a directory")
	assert.Equal(t, stat(t, fs, "/f").LinkCount, uint16(1))
	assert.Nil(t, fs.Remove("/d/", true))
	assert.Nil(t, fs.Remove("/f", false))
	assert.Nil(t, fs.Check())
}

func TestRemoveRecursive(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateFile("/keep", 2))
	content, err := fs.ReadFile("/keep")
	assert.Nil(t, err)
	before := fs.Superblock()
	rootLinks := stat(t, fs, "/").LinkCount

	assert.Nil(t, fs.CreateDir("/t/a/b/c", true))
	assert.Nil(t, fs.CreateDir("/t/x", false))
	for i := 0; i < 40; i++ {
		assert.Nil(t, fs.CreateFile(fmt.Sprintf("/t/a/f%d", i), uint32(i%5)))
	}
	assert.Nil(t, fs.CreateFile("/t/a/b/c/big", 600))
	assert.Nil(t, fs.HardLink("/keep", "/t/a/b/k"))
	assert.Nil(t, fs.HardLink("/t/a/f3", "/t/x/f3"))
	assert.Nil(t, fs.Check())

	assert.Nil(t, fs.Remove("/t", true))
	assert.Nil(t, fs.Check())
	k := stat(t, fs, "/keep")
	assert.Equal(t, k.LinkCount, uint16(1))
	content2, err := fs.ReadFile("/keep")
	assert.Nil(t, err)
	assert.Equal(t, content2, content)
	assert.Equal(t, stat(t, fs, "/").LinkCount, rootLinks)
	sb := fs.Superblock()
	assert.Equal(t, sb.AvailableInodes, before.AvailableInodes)
	assert.Equal(t, sb.AvailableBlocks, before.AvailableBlocks)
}

func TestCopyRecursive(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	n := 5
	assert.Nil(t, fs.CreateDir("/d/sub", true))
	for i := 0; i < n; i++ {
		assert.Nil(t, fs.CreateFile(fmt.Sprintf("/d/f%d", i), uint32(i*5)))
	}
	assert.Nil(t, fs.CreateFile("/d/sub/g", 12))
	sb := fs.Superblock()
	inodes, blocks := fs.copyNeeds(stat(t, fs, "/d").Id)

	assert.True(t, errors.Is(fs.Copy("/d", "/e", false), ErrIsADirectory))
	assert.Nil(t, fs.Copy("/d", "/e", true))
	assert.Nil(t, fs.Check())
	sb2 := fs.Superblock()
	assert.Equal(t, int(sb.AvailableInodes-sb2.AvailableInodes), inodes)
	assert.Equal(t, int(sb.AvailableBlocks-sb2.AvailableBlocks), blocks)
	assert.Equal(t, inodes, n+3)

	for _, name := range []string{"f0", "f1", "f2", "f3", "f4", "sub/g"} {
		a, b := "/d/"+name, "/e/"+name
		assert.NotEqual(t, stat(t, fs, a).Id, stat(t, fs, b).Id)
		ca, err := fs.ReadFile(a)
		assert.Nil(t, err)
		cb, err := fs.ReadFile(b)
		assert.Nil(t, err)
		assert.Equal(t, ca, cb, name)
	}
	ld, err := fs.List("/d")
	assert.Nil(t, err)
	le, err := fs.List("/e")
	assert.Nil(t, err)
	assert.Equal(t, len(ld), len(le))
	for i := range ld {
		assert.Equal(t, ld[i].Name, le[i].Name)
	}
	assert.Equal(t, stat(t, fs, "/e").LinkCount, uint16(3))

	// Mutating the copy leaves the original alone.
	orig, err := fs.ReadFile("/d/f2")
	assert.Nil(t, err)
	assert.Nil(t, fs.Remove("/e/f2", false))
	assert.Nil(t, fs.CreateFile("/e/f2", 1))
	assert.Nil(t, fs.Remove("/e/sub", true))
	c, err := fs.ReadFile("/d/f2")
	assert.Nil(t, err)
	assert.Equal(t, c, orig)
	_, err = fs.ReadFile("/d/sub/g")
	assert.Nil(t, err)
	assert.Nil(t, fs.Check())
}

func TestCopyTargets(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateDir("/d", false))
	assert.Nil(t, fs.CreateDir("/t", false))
	assert.Nil(t, fs.CreateFile("/d/f", 3))
	assert.Nil(t, fs.CreateFile("/g", 1))

	// into existing directory
	assert.Nil(t, fs.Copy("/d/f", "/t", false))
	_, err := fs.ReadFile("/t/f")
	assert.Nil(t, err)
	err = fs.Copy("/d/f", "/t", false)
	assert.Equal(t, err.Error(), "cp: cannot copy into '/t/f': File exists")
	assert.Nil(t, fs.Copy("/d", "/t", true))
	_, err = fs.ReadFile("/t/d/f")
	assert.Nil(t, err)
	assert.Nil(t, fs.Copy("/d/f", "/", false))
	_, err = fs.ReadFile("/f")
	assert.Nil(t, err)

	err = fs.Copy("/d/f", "/g", false)
	assert.Equal(t, err.Error(), "cp: cannot copy into '/g': File exists")
	err = fs.Copy("/missing", "/x", false)
	assert.Equal(t, err.Error(), "cp: cannot copy '/missing': No such file or directory")
	err = fs.Copy("/g", "/no/x", false)
	assert.Equal(t, err.Error(), "cp: cannot copy into '/no/x': No such file or directory")

	// into itself
	assert.True(t, errors.Is(fs.Copy("/d", "/d/sub", true), ErrPathInvalid))
	assert.True(t, errors.Is(fs.Copy("/d", "/d", true), ErrPathInvalid))
	assert.True(t, errors.Is(fs.Copy("/", "/x", true), ErrPathInvalid))
	assert.Nil(t, fs.Copy("/d", "/d2", true))
	assert.Nil(t, fs.Check())
}

func TestCopyPreservesHardLinks(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateDir("/d", false))
	assert.Nil(t, fs.CreateFile("/d/a", 4))
	assert.Nil(t, fs.HardLink("/d/a", "/d/b"))
	sb := fs.Superblock()
	assert.Nil(t, fs.Copy("/d", "/e", true))
	assert.Equal(t, sb.AvailableInodes-fs.Superblock().AvailableInodes, uint32(2))
	a := stat(t, fs, "/e/a")
	assert.Equal(t, stat(t, fs, "/e/b").Id, a.Id)
	assert.Equal(t, a.LinkCount, uint16(2))
	assert.NotEqual(t, a.Id, stat(t, fs, "/d/a").Id)
	assert.Nil(t, fs.Check())
}

func TestCopyExhausted(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 64<<10)
	assert.Nil(t, fs.CreateDir("/d", false))
	assert.Nil(t, fs.CreateFile("/d/f", 30))
	sb := fs.Superblock()
	err := fs.Copy("/d", "/e", true)
	assert.Equal(t, err.Error(), "cp: cannot copy '/d': No available block")
	assert.Equal(t, fs.Superblock(), sb)
	assert.Nil(t, fs.Check())
}

func TestChangeDir(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Equal(t, fs.Cwd(), "/")
	assert.Nil(t, fs.CreateDir("/a/b", true))
	assert.Nil(t, fs.CreateFile("/a/f", 1))
	assert.Nil(t, fs.ChangeDir("a"))
	assert.Equal(t, fs.Cwd(), "/a")
	assert.Nil(t, fs.CreateFile("g", 1))
	_, err := fs.ReadFile("/a/g")
	assert.Nil(t, err)
	assert.Nil(t, fs.ChangeDir("b/.."))
	assert.Equal(t, fs.Cwd(), "/a")
	assert.Nil(t, fs.ChangeDir("/.."))
	assert.Equal(t, fs.Cwd(), "/")

	err = fs.ChangeDir("/a/f")
	assert.Equal(t, err.Error(), "cd: /a/f: Not a directory")
	err = fs.ChangeDir("/zz")
	assert.Equal(t, err.Error(), "cd: /zz: No such file or directory")
	assert.Equal(t, fs.Cwd(), "/")
}

func TestListAndRead(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, 1<<20)
	assert.Nil(t, fs.CreateFile("/f", 2))
	_, err := fs.List("/f")
	assert.Equal(t, err.Error(), "ls: cannot access '/f': Not a directory")
	_, err = fs.List("/zz")
	assert.Equal(t, err.Error(), "ls: cannot access '/zz': No such file or directory")
	_, err = fs.ReadFile("/")
	assert.Equal(t, err.Error(), "cat: /: Is a directory")
	_, err = fs.ReadFile("/zz")
	assert.Equal(t, err.Error(), "cat: /zz: No such file or directory")
	_, _, err = fs.Stat("/zz")
	assert.Equal(t, err.Error(), "stat: cannot stat '/zz': No such file or directory")
	inode, path, err := fs.Stat("f")
	assert.Nil(t, err)
	assert.Equal(t, path, "/f")
	assert.Equal(t, inode.CreatedAt, int64(testTime))
}

func TestUsageSummary(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, storage.DefaultImageSize)
	u := fs.UsageSummary()
	assert.Equal(t, u.ImageBlocks, 16384)
	assert.Equal(t, u.DataBlocks, 15868)
	assert.Equal(t, u.TotalInodes, 8192)
	assert.Equal(t, u.AvailableBlocks, 15867)
	assert.Equal(t, u.UsedBlocks, 16384-15867)
	assert.Equal(t, u.UsedInodes, 1)

	assert.Nil(t, fs.CreateFile("/f", 3))
	u2 := fs.UsageSummary()
	assert.Equal(t, u2.AvailableBlocks, u.AvailableBlocks-3)
	assert.Equal(t, u2.UsedSpace(), u.UsedSpace()+3*BlockSize)
	assert.Equal(t, u2.AvailableSpace(), int64(u2.AvailableBlocks)*BlockSize)
	assert.Equal(t, u2.AvailableInodes, 8190)
}

func BenchmarkCreateRemove(b *testing.B) {
	dev := newBenchDevice(b)
	fs, err := NewFs(dev, testConfiguration())
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := fs.CreateFile("/f", 20); err != nil {
			b.Fatal(err)
		}
		if err := fs.Remove("/f", false); err != nil {
			b.Fatal(err)
		}
	}
}
