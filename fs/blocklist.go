/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 13:05:10 2019 mstenber
 * Last modified: Wed Mar 13 12:40:55 2019 mstenber
 * Edit time:     57 min
 *
 */

package fs

import (
	"encoding/binary"

	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/util"
)

func (self *Fs) readBlock(id BlockId) []byte {
	return self.dev.ReadData(self.layout.blockOffset(id), BlockSize)
}

func (self *Fs) writeBlock(id BlockId, data []byte) {
	if len(data) != BlockSize {
		mlog.Panicf("writeBlock %d with %d bytes", id, len(data))
	}
	self.dev.WriteData(self.layout.blockOffset(id), data)
}

// readIds returns the address table stored in block id, sentinels
// included.
func (self *Fs) readIds(id BlockId) []BlockId {
	b := self.readBlock(id)
	ids := make([]BlockId, IdsPerBlock)
	for i := range ids {
		ids[i] = BlockId(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return ids
}

// writeIds stores up to IdsPerBlock ids in block id; the rest of the
// table is filled with NoId.
func (self *Fs) writeIds(id BlockId, ids []BlockId) {
	b := make([]byte, BlockSize)
	for i := 0; i < IdsPerBlock; i++ {
		v := BlockId(NoId)
		if i < len(ids) {
			v = ids[i]
		}
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	self.writeBlock(id, b)
}

func appendValid(ret []BlockId, ids ...BlockId) []BlockId {
	for _, id := range ids {
		if id != NoId {
			ret = append(ret, id)
		}
	}
	return ret
}

// BlockList returns the data blocks of the inode in logical order;
// entry i covers bytes [i*BlockSize, (i+1)*BlockSize).
func (self *Fs) BlockList(inode *Inode) []BlockId {
	ret := appendValid(nil, inode.Direct[:]...)
	if inode.Indirect != NoId {
		ret = appendValid(ret, self.readIds(inode.Indirect)...)
	}
	if inode.DoubleIndirect != NoId {
		for _, table := range self.readIds(inode.DoubleIndirect) {
			if table != NoId {
				ret = appendValid(ret, self.readIds(table)...)
			}
		}
	}
	return ret
}

// AddressBlockIds returns the blocks holding the address tables of
// the inode (indirect, double indirect top and second level).
func (self *Fs) AddressBlockIds(inode *Inode) []BlockId {
	ret := make([]BlockId, 0, 2)
	ret = appendValid(ret, inode.Indirect)
	if inode.DoubleIndirect != NoId {
		ret = append(ret, inode.DoubleIndirect)
		ret = appendValid(ret, self.readIds(inode.DoubleIndirect)...)
	}
	return ret
}

// SetBlockList replaces the whole address structure of the inode with
// ids, which must already be allocated. Previous address blocks are
// freed and new ones allocated; the inode is persisted.
func (self *Fs) SetBlockList(inode *Inode, ids []BlockId) error {
	n := len(ids)
	if n > MaxFileBlocks {
		return ErrFileTooLarge
	}
	old := self.AddressBlockIds(inode)
	if int(self.sb.AvailableBlocks)+len(old) < addressBlocksFor(n) {
		return ErrNoBlocks
	}
	mlog.Printf2("fs/blocklist", "SetBlockList %d: %d blocks, %d address blocks (was %d)",
		inode.Id, n, addressBlocksFor(n), len(old))
	self.freeBlocks(old)
	inode.clearAddresses()
	copy(inode.Direct[:], ids)
	ids = ids[util.IMin(n, DirectBlocks):]
	if len(ids) > 0 {
		inode.Indirect = self.mustAllocateBlock()
		chunk := ids[:util.IMin(len(ids), IdsPerBlock)]
		self.writeIds(inode.Indirect, chunk)
		ids = ids[len(chunk):]
	}
	if len(ids) > 0 {
		inode.DoubleIndirect = self.mustAllocateBlock()
		var tables []BlockId
		for len(ids) > 0 {
			chunk := ids[:util.IMin(len(ids), IdsPerBlock)]
			table := self.mustAllocateBlock()
			self.writeIds(table, chunk)
			tables = append(tables, table)
			ids = ids[len(chunk):]
		}
		self.writeIds(inode.DoubleIndirect, tables)
	}
	self.putInode(inode)
	return nil
}

// mustAllocateBlock is for callers that have already verified
// availability.
func (self *Fs) mustAllocateBlock() BlockId {
	id, err := self.allocateBlock()
	if err != nil {
		mlog.Panicf("block allocation failed after check: %v", err)
	}
	return id
}

// releaseInode frees the data and address blocks of the inode and
// the inode itself.
func (self *Fs) releaseInode(inode *Inode) {
	mlog.Printf2("fs/blocklist", "releaseInode %d", inode.Id)
	self.freeBlocks(self.BlockList(inode))
	self.freeBlocks(self.AddressBlockIds(inode))
	self.freeInode(inode.Id)
}
