/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Mar  7 13:30:12 2019 mstenber
 * Last modified: Wed Mar 13 14:22:40 2019 mstenber
 * Edit time:     52 min
 *
 */

// fs is an ext2-style filesystem engine on top of a fixed-size
// storage.Device. The image holds a superblock, block and inode
// bitmaps, an inode table and data blocks; see layout.go.
//
// Fs is not safe for concurrent use; callers serialize access.
package fs

import (
	"math/rand"
	"time"

	"github.com/bluele/gcache"
	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/storage"
	"github.com/fingon/go-blockfs/util"
	"github.com/google/uuid"
)

const DefaultInodeCacheSize = 1024

type Configuration struct {
	// InodeCacheSize is the number of decoded inodes kept in
	// memory; negative disables the cache, zero means default.
	InodeCacheSize int

	// Now is the clock used for timestamps; time.Now if unset.
	Now func() time.Time

	// Rand produces the filler content of new files; seeded from
	// SEED environment variable or time if unset.
	Rand *rand.Rand
}

type Fs struct {
	dev         storage.Device
	layout      layout
	sb          Superblock
	blockBitmap bitmap
	inodeBitmap bitmap
	inodeCache  gcache.Cache
	now         func() time.Time
	rng         *rand.Rand
	cwd         string
}

// NewFs opens the filesystem on dev, formatting it first if it does
// not contain one yet.
func NewFs(dev storage.Device, config Configuration) (*Fs, error) {
	l, err := newLayout(dev.Size())
	if err != nil {
		return nil, err
	}
	fs := &Fs{dev: dev, layout: l, now: config.Now, rng: config.Rand, cwd: "/"}
	if fs.now == nil {
		fs.now = time.Now
	}
	if fs.rng == nil {
		fs.rng = util.GetSeededRng()
	}
	cacheSize := config.InodeCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultInodeCacheSize
	}
	if cacheSize > 0 {
		fs.inodeCache = gcache.New(cacheSize).
			ARC().
			Build()
	}
	err = fs.sb.decode(dev.ReadData(0, superblockEncodedSize))
	switch err {
	case nil:
		if err = fs.sb.matches(&fs.layout); err != nil {
			return nil, err
		}
		fs.loadBitmaps()
		mlog.Printf2("fs/fs", "NewFs: opened %v", fs.sb.Uuid)
	case errNoSuperblock:
		fs.format()
		mlog.Printf2("fs/fs", "NewFs: formatted %v", fs.sb.Uuid)
	default:
		return nil, err
	}
	return fs, nil
}

func (self *Fs) newBitmaps() {
	self.blockBitmap = bitmap{
		bits:   make([]byte, (self.layout.totalBlocks+7)/8),
		offset: self.layout.blockBitmapOffset,
		limit:  self.layout.totalBlocks,
	}
	self.inodeBitmap = bitmap{
		bits:   make([]byte, (self.layout.totalInodes+7)/8),
		offset: self.layout.inodeBitmapOffset,
		limit:  self.layout.totalInodes,
	}
}

func (self *Fs) loadBitmaps() {
	self.newBitmaps()
	for _, bm := range []*bitmap{&self.blockBitmap, &self.inodeBitmap} {
		copy(bm.bits, self.dev.ReadData(bm.offset, len(bm.bits)))
	}
}

func (self *Fs) writeSuperblock() {
	self.dev.WriteData(0, self.sb.encode())
}

// format writes an empty filesystem with only the root directory.
func (self *Fs) format() {
	l := &self.layout
	self.dev.WriteData(0, make([]byte, l.dataOffset))
	self.sb = Superblock{
		ImageSize:       l.imageSize,
		BlockSize:       BlockSize,
		InodeSize:       InodeSize,
		TotalBlocks:     uint32(l.totalBlocks),
		TotalInodes:     uint32(l.totalInodes),
		AvailableBlocks: uint32(l.totalBlocks),
		AvailableInodes: uint32(l.totalInodes),
		Uuid:            uuid.New(),
		CreatedAt:       self.now().Unix(),
	}
	self.newBitmaps()
	if self.inodeCache != nil {
		self.inodeCache.Purge()
	}
	self.writeSuperblock()
	id, err := self.makeDirectory(NoId)
	if err != nil || id != RootInode {
		mlog.Panicf("format: root directory creation failed: %d %v", id, err)
	}
	self.cwd = "/"
}

// makeDirectory creates a directory inode with . and .. entries, but
// does not add it to parent. NoId parent makes the directory its own
// parent, as the root is.
func (self *Fs) makeDirectory(parent InodeId) (InodeId, error) {
	if self.sb.AvailableInodes < 1 {
		return NoId, ErrNoInodes
	}
	if self.sb.AvailableBlocks < 1 {
		return NoId, ErrNoBlocks
	}
	id := self.mustAllocateInode()
	bid := self.mustAllocateBlock()
	self.writeBlock(bid, emptyDirectoryBlock())
	t := self.now().Unix()
	inode := Inode{Id: id, Type: TypeDirectory, Size: BlockSize, CreatedAt: t, ModifiedAt: t}
	inode.clearAddresses()
	inode.Direct[0] = bid
	self.putInode(&inode)
	if parent == NoId {
		parent = id
	}
	// Both fit the first block; neither can fail.
	self.mustAddEntry(id, id, ".")
	self.mustAddEntry(id, parent, "..")
	return id, nil
}

func (self *Fs) mustAllocateInode() InodeId {
	id, err := self.allocateInode()
	if err != nil {
		mlog.Panicf("inode allocation failed after check: %v", err)
	}
	return id
}

func (self *Fs) mustAddEntry(dir, child InodeId, name string) {
	if err := self.AddEntry(dir, child, name); err != nil {
		mlog.Panicf("AddEntry %d/%s failed after check: %v", dir, name, err)
	}
}

// Erase formats the image in place, discarding everything on it.
func (self *Fs) Erase() {
	mlog.Printf2("fs/fs", "Erase")
	self.format()
}

// Superblock returns a copy of the current superblock.
func (self *Fs) Superblock() Superblock {
	return self.sb
}

func (self *Fs) Close() {
	mlog.Printf2("fs/fs", "Close")
	self.dev.Close()
	self.dev = nil
}
