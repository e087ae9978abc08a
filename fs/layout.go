/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 08:12:30 2019 mstenber
 * Last modified: Wed Mar 13 11:20:04 2019 mstenber
 * Edit time:     48 min
 *
 */

package fs

import (
	"fmt"
)

const (
	BlockSize  = 1024
	InodeSize  = 64
	DentrySize = 32

	// SuperblockSize is the space reserved for the superblock at
	// the start of the image.
	SuperblockSize = BlockSize

	DentriesPerBlock = BlockSize / DentrySize

	// IdsPerBlock is the number of 16-bit block ids that fit in an
	// address block.
	IdsPerBlock = BlockSize / 2

	DirectBlocks = 10

	// MaxFileBlocks is the largest number of data blocks a single
	// inode can address.
	MaxFileBlocks = DirectBlocks + IdsPerBlock + IdsPerBlock*IdsPerBlock

	MaxNameLength = DentrySize - 2 - 1

	// NoId marks an unused address, dentry or inode slot.
	NoId = 0xFFFF

	RootInode InodeId = 0

	MaxLinkCount = 0xFFFF
)

type BlockId uint16

type InodeId uint16

// layout describes where each region lives within an image. Every
// region starts at a block boundary.
type layout struct {
	imageSize   int64
	imageBlocks int

	blockBitmapOffset int64
	inodeBitmapOffset int64
	inodeTableOffset  int64
	dataOffset        int64

	totalBlocks int
	totalInodes int
}

func roundToBlock(n int64) int64 {
	return (n + BlockSize - 1) / BlockSize * BlockSize
}

func newLayout(imageSize int64) (l layout, err error) {
	if imageSize%BlockSize != 0 {
		err = fmt.Errorf("image size %d is not multiple of %d", imageSize, BlockSize)
		return
	}
	l.imageSize = imageSize
	l.imageBlocks = int(imageSize / BlockSize)
	l.totalInodes = l.imageBlocks / 2
	l.blockBitmapOffset = SuperblockSize
	l.inodeBitmapOffset = l.blockBitmapOffset + roundToBlock(int64(l.imageBlocks+7)/8)
	l.inodeTableOffset = l.inodeBitmapOffset + roundToBlock(int64(l.totalInodes+7)/8)
	l.dataOffset = l.inodeTableOffset + roundToBlock(int64(l.totalInodes)*InodeSize)
	if l.dataOffset >= imageSize {
		err = fmt.Errorf("image size %d too small", imageSize)
		return
	}
	l.totalBlocks = int((imageSize - l.dataOffset) / BlockSize)
	if l.totalBlocks >= NoId || l.totalInodes >= NoId {
		err = fmt.Errorf("image size %d too large for 16-bit ids", imageSize)
		return
	}
	if l.totalInodes < 2 || l.totalBlocks < 2 {
		err = fmt.Errorf("image size %d too small", imageSize)
	}
	return
}

func (self *layout) blockOffset(id BlockId) int64 {
	return self.dataOffset + int64(id)*BlockSize
}

func (self *layout) inodeOffset(id InodeId) int64 {
	return self.inodeTableOffset + int64(id)*InodeSize
}

// addressBlocksFor returns the number of address blocks needed to
// address n data blocks.
func addressBlocksFor(n int) int {
	if n <= DirectBlocks {
		return 0
	}
	n -= DirectBlocks
	if n <= IdsPerBlock {
		return 1
	}
	n -= IdsPerBlock
	return 1 + 1 + (n+IdsPerBlock-1)/IdsPerBlock
}

// blocksForFile returns the total number of blocks a file of n data
// blocks occupies.
func blocksForFile(n int) int {
	return n + addressBlocksFor(n)
}

// blocksForDirectory returns the total number of blocks a directory
// with the given number of entries (including . and ..) occupies.
func blocksForDirectory(entries int) int {
	return blocksForFile((entries + DentriesPerBlock - 1) / DentriesPerBlock)
}
