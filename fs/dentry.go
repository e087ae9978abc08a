/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Mar  7 09:20:33 2019 mstenber
 * Last modified: Wed Mar 13 13:15:40 2019 mstenber
 * Edit time:     66 min
 *
 */

package fs

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/fingon/go-blockfs/mlog"
)

// Dentry maps a name to an inode within a directory. On disk it is
// the 16-bit inode id followed by the NUL-padded name; an id of NoId
// marks a free slot.
type Dentry struct {
	Inode InodeId
	Name  string
}

func (self *Dentry) encode() []byte {
	b := make([]byte, DentrySize)
	binary.LittleEndian.PutUint16(b, uint16(self.Inode))
	copy(b[2:2+MaxNameLength], self.Name)
	return b
}

func (self *Dentry) decode(b []byte) {
	self.Inode = InodeId(binary.LittleEndian.Uint16(b))
	name := b[2:DentrySize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	self.Name = string(name)
}

var freeDentry = Dentry{Inode: NoId}

// emptyDirectoryBlock is a block in which every slot is free.
func emptyDirectoryBlock() []byte {
	b := make([]byte, 0, BlockSize)
	e := freeDentry.encode()
	for i := 0; i < DentriesPerBlock; i++ {
		b = append(b, e...)
	}
	return b
}

// truncateName cuts name to MaxNameLength bytes without splitting a
// UTF-8 sequence.
func truncateName(name string) string {
	if len(name) <= MaxNameLength {
		return name
	}
	n := MaxNameLength
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

// slot is the location of one dentry on disk.
type slot struct {
	block BlockId
	index int
}

// iterateEntries calls cb for every slot of the directory, free ones
// included, until cb returns false.
func (self *Fs) iterateEntries(dir *Inode, cb func(s slot, e Dentry) bool) {
	for _, bid := range self.BlockList(dir) {
		b := self.readBlock(bid)
		for i := 0; i < DentriesPerBlock; i++ {
			var e Dentry
			e.decode(b[i*DentrySize:])
			if !cb(slot{bid, i}, e) {
				return
			}
		}
	}
}

func (self *Fs) writeDentry(s slot, e *Dentry) {
	self.dev.WriteData(self.layout.blockOffset(s.block)+int64(s.index*DentrySize), e.encode())
}

func (self *Fs) getDirectory(id InodeId) (Inode, error) {
	inode := self.getInode(id)
	if !inode.IsDir() {
		return inode, ErrNotADirectory
	}
	return inode, nil
}

// LoadEntries returns the used entries of the directory in
// block-then-slot order, . and .. included.
func (self *Fs) LoadEntries(dir InodeId) (ret []Dentry, err error) {
	inode, err := self.getDirectory(dir)
	if err != nil {
		return
	}
	self.iterateEntries(&inode, func(s slot, e Dentry) bool {
		if e.Inode == NoId {
			return true
		}
		if int(e.Inode) >= self.layout.totalInodes {
			err = &Error{Kind: Corrupt, Detail: "dentry refers to invalid inode"}
			return false
		}
		ret = append(ret, e)
		return true
	})
	return
}

// lookup returns the inode the name refers to in dir, or NoId.
func (self *Fs) lookup(dir InodeId, name string) (InodeId, error) {
	entries, err := self.LoadEntries(dir)
	if err != nil {
		return NoId, err
	}
	name = truncateName(name)
	for _, e := range entries {
		if e.Name == name {
			return e.Inode, nil
		}
	}
	return NoId, nil
}

// findFreeSlot returns the first free slot of the directory.
func (self *Fs) findFreeSlot(dir *Inode) (found slot, ok bool) {
	self.iterateEntries(dir, func(s slot, e Dentry) bool {
		if e.Inode == NoId {
			found = s
			ok = true
			return false
		}
		return true
	})
	return
}

// entryGrowth returns the number of blocks adding one entry to dir
// would allocate.
func (self *Fs) entryGrowth(dir InodeId) int {
	inode := self.getInode(dir)
	if _, ok := self.findFreeSlot(&inode); ok {
		return 0
	}
	n := len(self.BlockList(&inode))
	return blocksForFile(n+1) - blocksForFile(n)
}

// AddEntry adds name referring to child to dir, and increments the
// link count of child. If the directory is full it is grown by one
// block.
func (self *Fs) AddEntry(dir, child InodeId, name string) error {
	inode, err := self.getDirectory(dir)
	if err != nil {
		return err
	}
	if self.getInode(child).LinkCount == MaxLinkCount {
		return ErrTooManyLinks
	}
	if len(name) > MaxNameLength {
		mlog.Warnf("name '%s' truncated to %d characters", name, MaxNameLength)
		name = truncateName(name)
	}
	s, ok := self.findFreeSlot(&inode)
	if !ok {
		blocks := self.BlockList(&inode)
		n := len(blocks)
		if n+1 > MaxFileBlocks {
			return ErrFileTooLarge
		}
		grow := blocksForFile(n+1) - blocksForFile(n)
		if int(self.sb.AvailableBlocks) < grow {
			return ErrNoBlocks
		}
		bid := self.mustAllocateBlock()
		self.writeBlock(bid, emptyDirectoryBlock())
		if err := self.SetBlockList(&inode, append(blocks, bid)); err != nil {
			self.freeBlock(bid)
			return err
		}
		inode.Size += BlockSize
		s = slot{bid, 0}
		mlog.Printf2("fs/dentry", "AddEntry grew directory %d to %d blocks", dir, n+1)
	}
	e := Dentry{Inode: child, Name: name}
	self.writeDentry(s, &e)
	inode.ModifiedAt = self.now().Unix()
	self.putInode(&inode)
	self.adjustLinks(child, 1)
	mlog.Printf2("fs/dentry", "AddEntry %d: %s -> %d", dir, name, child)
	return nil
}

// RemoveEntry clears the entry name referring to child from dir, and
// decrements the link count of child. If child is a directory, dir
// loses the link of its .. as well. The storage of child is not
// touched.
func (self *Fs) RemoveEntry(dir, child InodeId, name string) error {
	inode, err := self.getDirectory(dir)
	if err != nil {
		return err
	}
	name = truncateName(name)
	var found slot
	ok := false
	self.iterateEntries(&inode, func(s slot, e Dentry) bool {
		if e.Inode == child && e.Name == name {
			found = s
			ok = true
			return false
		}
		return true
	})
	if !ok {
		return ErrNotFound
	}
	self.writeDentry(found, &freeDentry)
	inode.ModifiedAt = self.now().Unix()
	self.putInode(&inode)
	self.adjustLinks(child, -1)
	if child != dir && self.getInode(child).IsDir() {
		self.adjustLinks(dir, -1)
	}
	mlog.Printf2("fs/dentry", "RemoveEntry %d: %s -> %d", dir, name, child)
	return nil
}
