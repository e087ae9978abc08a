/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 11:12:40 2019 mstenber
 * Last modified: Wed Mar 13 12:02:11 2019 mstenber
 * Edit time:     38 min
 *
 */

package fs

import (
	"encoding/binary"
	"fmt"
)

type InodeType uint16

const (
	TypeFile InodeType = iota + 1
	TypeDirectory
)

func (self InodeType) String() string {
	switch self {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "dir"
	}
	return fmt.Sprintf("InodeType(%d)", uint16(self))
}

// Inode is the fixed-size metadata record of a file or a directory.
//
// On disk (little-endian, InodeSize bytes):
//
//  0 id         2 type        4 size
//  8 created   16 modified   24 link count
// 26 direct[10]              46 indirect   48 double indirect
//
// Unused address slots hold NoId.
type Inode struct {
	Id             InodeId
	Type           InodeType
	Size           uint32
	CreatedAt      int64
	ModifiedAt     int64
	LinkCount      uint16
	Direct         [DirectBlocks]BlockId
	Indirect       BlockId
	DoubleIndirect BlockId
}

func (self Inode) IsDir() bool {
	return self.Type == TypeDirectory
}

// clearAddresses marks every address slot unused.
func (self *Inode) clearAddresses() {
	for i := range self.Direct {
		self.Direct[i] = NoId
	}
	self.Indirect = NoId
	self.DoubleIndirect = NoId
}

func (self *Inode) encode() []byte {
	b := make([]byte, InodeSize)
	le := binary.LittleEndian
	le.PutUint16(b[0:], uint16(self.Id))
	le.PutUint16(b[2:], uint16(self.Type))
	le.PutUint32(b[4:], self.Size)
	le.PutUint64(b[8:], uint64(self.CreatedAt))
	le.PutUint64(b[16:], uint64(self.ModifiedAt))
	le.PutUint16(b[24:], self.LinkCount)
	for i, id := range self.Direct {
		le.PutUint16(b[26+2*i:], uint16(id))
	}
	le.PutUint16(b[46:], uint16(self.Indirect))
	le.PutUint16(b[48:], uint16(self.DoubleIndirect))
	return b
}

func (self *Inode) decode(b []byte) {
	le := binary.LittleEndian
	self.Id = InodeId(le.Uint16(b[0:]))
	self.Type = InodeType(le.Uint16(b[2:]))
	self.Size = le.Uint32(b[4:])
	self.CreatedAt = int64(le.Uint64(b[8:]))
	self.ModifiedAt = int64(le.Uint64(b[16:]))
	self.LinkCount = le.Uint16(b[24:])
	for i := range self.Direct {
		self.Direct[i] = BlockId(le.Uint16(b[26+2*i:]))
	}
	self.Indirect = BlockId(le.Uint16(b[46:]))
	self.DoubleIndirect = BlockId(le.Uint16(b[48:]))
}

// getInode returns a copy of the inode; changes are persisted only by
// putInode.
func (self *Fs) getInode(id InodeId) Inode {
	if self.inodeCache != nil {
		if v, err := self.inodeCache.Get(id); err == nil {
			return v.(Inode)
		}
	}
	var inode Inode
	inode.decode(self.dev.ReadData(self.layout.inodeOffset(id), InodeSize))
	if inode.Id != id {
		// Slot never written (or torn); keep the id so that
		// callers can still report on it.
		inode.Id = id
	}
	if self.inodeCache != nil {
		self.inodeCache.Set(id, inode)
	}
	return inode
}

func (self *Fs) putInode(inode *Inode) {
	self.dev.WriteData(self.layout.inodeOffset(inode.Id), inode.encode())
	if self.inodeCache != nil {
		self.inodeCache.Set(inode.Id, *inode)
	}
}

func (self *Fs) forgetInode(id InodeId) {
	if self.inodeCache != nil {
		self.inodeCache.Remove(id)
	}
}

// adjustLinks changes the link count of an inode by delta.
func (self *Fs) adjustLinks(id InodeId, delta int) {
	inode := self.getInode(id)
	n := int(inode.LinkCount) + delta
	if n < 0 || n > MaxLinkCount {
		panic(fmt.Sprintf("inode %d link count %d out of range", id, n))
	}
	inode.LinkCount = uint16(n)
	self.putInode(&inode)
}
