/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 10:30:51 2019 mstenber
 * Last modified: Wed Mar 13 11:40:02 2019 mstenber
 * Edit time:     41 min
 *
 */

package fs

import (
	"github.com/fingon/go-blockfs/mlog"
)

// Every grant and release persists the touched bitmap byte and the
// superblock immediately, so that superblock counters always equal
// total minus bitmap population on disk.

func (self *Fs) writeBitmapBit(bm *bitmap, i int) {
	ofs, b := bm.byteAt(i)
	self.dev.WriteData(ofs, b)
}

func (self *Fs) allocateBlock() (BlockId, error) {
	i := self.blockBitmap.findZero()
	if i < 0 {
		mlog.Printf2("fs/allocator", "allocateBlock - exhausted")
		return NoId, ErrNoBlocks
	}
	self.blockBitmap.set(i, true)
	self.writeBitmapBit(&self.blockBitmap, i)
	self.sb.AvailableBlocks--
	self.writeSuperblock()
	mlog.Printf2("fs/allocator", "allocateBlock %d", i)
	return BlockId(i), nil
}

func (self *Fs) allocateInode() (InodeId, error) {
	i := self.inodeBitmap.findZero()
	if i < 0 {
		mlog.Printf2("fs/allocator", "allocateInode - exhausted")
		return NoId, ErrNoInodes
	}
	self.inodeBitmap.set(i, true)
	self.writeBitmapBit(&self.inodeBitmap, i)
	self.sb.AvailableInodes--
	self.writeSuperblock()
	mlog.Printf2("fs/allocator", "allocateInode %d", i)
	return InodeId(i), nil
}

func (self *Fs) freeBlock(id BlockId) {
	mlog.Printf2("fs/allocator", "freeBlock %d", id)
	if int(id) >= self.layout.totalBlocks || !self.blockBitmap.get(int(id)) {
		mlog.Panicf("freeBlock of unallocated block %d", id)
	}
	self.blockBitmap.set(int(id), false)
	self.writeBitmapBit(&self.blockBitmap, int(id))
	self.sb.AvailableBlocks++
	self.writeSuperblock()
}

func (self *Fs) freeBlocks(ids []BlockId) {
	for _, id := range ids {
		self.freeBlock(id)
	}
}

func (self *Fs) freeInode(id InodeId) {
	mlog.Printf2("fs/allocator", "freeInode %d", id)
	if int(id) >= self.layout.totalInodes || !self.inodeBitmap.get(int(id)) {
		mlog.Panicf("freeInode of unallocated inode %d", id)
	}
	self.inodeBitmap.set(int(id), false)
	self.writeBitmapBit(&self.inodeBitmap, int(id))
	self.sb.AvailableInodes++
	self.writeSuperblock()
	self.forgetInode(id)
}

// allocation tracks what one operation has been granted, so that it
// can be given back if the operation cannot complete.
type allocation struct {
	fs     *Fs
	blocks []BlockId
	inodes []InodeId
}

func (self *allocation) block() (BlockId, error) {
	id, err := self.fs.allocateBlock()
	if err == nil {
		self.blocks = append(self.blocks, id)
	}
	return id, err
}

func (self *allocation) inode() (InodeId, error) {
	id, err := self.fs.allocateInode()
	if err == nil {
		self.inodes = append(self.inodes, id)
	}
	return id, err
}

func (self *allocation) rollback() {
	mlog.Printf2("fs/allocator", "rollback %d blocks %d inodes", len(self.blocks), len(self.inodes))
	self.fs.freeBlocks(self.blocks)
	for _, id := range self.inodes {
		self.fs.freeInode(id)
	}
	self.blocks = nil
	self.inodes = nil
}
