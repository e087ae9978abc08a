/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 09:10:42 2019 mstenber
 * Last modified: Wed Mar 13 11:24:30 2019 mstenber
 * Edit time:     31 min
 *
 */

package fs

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

const superblockMagic = 0x424c4b46 // BLKF

const superblockVersion = 1

// Superblock is the aggregate filesystem metadata at the start of the
// image. It is stored little-endian:
//
//  0 magic          4 version
//  8 image size    16 block size   20 inode size
// 24 total blocks  28 total inodes
// 32 avail blocks  36 avail inodes
// 40 uuid (16)     56 created (unix seconds)
type Superblock struct {
	ImageSize       int64
	BlockSize       uint32
	InodeSize       uint32
	TotalBlocks     uint32
	TotalInodes     uint32
	AvailableBlocks uint32
	AvailableInodes uint32
	Uuid            uuid.UUID
	CreatedAt       int64
}

const superblockEncodedSize = 64

func (self *Superblock) encode() []byte {
	b := make([]byte, superblockEncodedSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], superblockMagic)
	le.PutUint32(b[4:], superblockVersion)
	le.PutUint64(b[8:], uint64(self.ImageSize))
	le.PutUint32(b[16:], self.BlockSize)
	le.PutUint32(b[20:], self.InodeSize)
	le.PutUint32(b[24:], self.TotalBlocks)
	le.PutUint32(b[28:], self.TotalInodes)
	le.PutUint32(b[32:], self.AvailableBlocks)
	le.PutUint32(b[36:], self.AvailableInodes)
	copy(b[40:56], self.Uuid[:])
	le.PutUint64(b[56:], uint64(self.CreatedAt))
	return b
}

// errNoSuperblock is returned by decode for images that have never
// been formatted.
var errNoSuperblock = fmt.Errorf("no superblock")

func (self *Superblock) decode(b []byte) error {
	le := binary.LittleEndian
	if le.Uint32(b[0:]) != superblockMagic {
		return errNoSuperblock
	}
	if v := le.Uint32(b[4:]); v != superblockVersion {
		return fmt.Errorf("unsupported superblock version %d", v)
	}
	self.ImageSize = int64(le.Uint64(b[8:]))
	self.BlockSize = le.Uint32(b[16:])
	self.InodeSize = le.Uint32(b[20:])
	self.TotalBlocks = le.Uint32(b[24:])
	self.TotalInodes = le.Uint32(b[28:])
	self.AvailableBlocks = le.Uint32(b[32:])
	self.AvailableInodes = le.Uint32(b[36:])
	copy(self.Uuid[:], b[40:56])
	self.CreatedAt = int64(le.Uint64(b[56:]))
	return nil
}

// matches checks that the superblock describes the given layout.
func (self *Superblock) matches(l *layout) error {
	switch {
	case self.ImageSize != l.imageSize:
		return fmt.Errorf("superblock image size %d, device has %d", self.ImageSize, l.imageSize)
	case self.BlockSize != BlockSize || self.InodeSize != InodeSize:
		return fmt.Errorf("unsupported block/inode size %d/%d", self.BlockSize, self.InodeSize)
	case int(self.TotalBlocks) != l.totalBlocks || int(self.TotalInodes) != l.totalInodes:
		return fmt.Errorf("superblock counts %d/%d do not match layout %d/%d",
			self.TotalBlocks, self.TotalInodes, l.totalBlocks, l.totalInodes)
	case self.AvailableBlocks > self.TotalBlocks || self.AvailableInodes > self.TotalInodes:
		return fmt.Errorf("superblock available counts exceed totals")
	}
	return nil
}
