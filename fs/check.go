/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Mar  8 15:40:02 2019 mstenber
 * Last modified: Thu Mar 14 09:12:30 2019 mstenber
 * Edit time:     44 min
 *
 */

package fs

import (
	"bytes"
	"fmt"

	"github.com/fingon/go-blockfs/mlog"
)

func corruptf(format string, args ...interface{}) error {
	return &Error{Kind: Corrupt, Detail: fmt.Sprintf(format, args...)}
}

// Check verifies the consistency of the whole image: superblock
// counters against bitmaps, reachability and ownership of inodes and
// blocks, and link counts against referencing entries.
func (self *Fs) Check() error {
	if err := self.checkCounters(); err != nil {
		return err
	}
	refs := make(map[InodeId]int)
	dirs := []InodeId{RootInode}
	seenDir := map[InodeId]bool{RootInode: true}
	for len(dirs) > 0 {
		dir := dirs[len(dirs)-1]
		dirs = dirs[:len(dirs)-1]
		entries, err := self.LoadEntries(dir)
		if err != nil {
			return corruptf("directory %d: %v", dir, err)
		}
		for _, e := range entries {
			if !self.inodeBitmap.get(int(e.Inode)) {
				return corruptf("entry %d/%s refers to free inode %d", dir, e.Name, e.Inode)
			}
			refs[e.Inode]++
			switch e.Name {
			case ".":
				if e.Inode != dir {
					return corruptf("directory %d . refers to %d", dir, e.Inode)
				}
				continue
			case "..":
				continue
			}
			if self.getInode(e.Inode).IsDir() {
				if seenDir[e.Inode] {
					return corruptf("directory %d linked twice", e.Inode)
				}
				seenDir[e.Inode] = true
				dirs = append(dirs, e.Inode)
			}
		}
	}

	owner := make(map[BlockId]InodeId)
	for id, n := range refs {
		inode := self.getInode(id)
		if int(inode.LinkCount) != n {
			return corruptf("inode %d link count %d, referenced %d times", id, inode.LinkCount, n)
		}
		data := self.BlockList(&inode)
		if int64(len(data))*BlockSize < int64(inode.Size) {
			return corruptf("inode %d size %d not covered by %d blocks", id, inode.Size, len(data))
		}
		for _, bid := range append(data, self.AddressBlockIds(&inode)...) {
			if int(bid) >= self.layout.totalBlocks || !self.blockBitmap.get(int(bid)) {
				return corruptf("inode %d uses free block %d", id, bid)
			}
			if o, ok := owner[bid]; ok {
				return corruptf("block %d used by both %d and %d", bid, o, id)
			}
			owner[bid] = id
		}
	}
	if n := self.inodeBitmap.count(); n != len(refs) {
		return corruptf("%d inodes allocated, %d reachable", n, len(refs))
	}
	if n := self.blockBitmap.count(); n != len(owner) {
		return corruptf("%d blocks allocated, %d in use", n, len(owner))
	}
	mlog.Printf2("fs/check", "Check ok: %d inodes, %d blocks", len(refs), len(owner))
	return nil
}

func (self *Fs) checkCounters() error {
	sb := self.sb
	if int(sb.AvailableBlocks)+self.blockBitmap.count() != int(sb.TotalBlocks) {
		return corruptf("available blocks %d + allocated %d != %d",
			sb.AvailableBlocks, self.blockBitmap.count(), sb.TotalBlocks)
	}
	if int(sb.AvailableInodes)+self.inodeBitmap.count() != int(sb.TotalInodes) {
		return corruptf("available inodes %d + allocated %d != %d",
			sb.AvailableInodes, self.inodeBitmap.count(), sb.TotalInodes)
	}
	if !bytes.Equal(self.dev.ReadData(0, superblockEncodedSize), sb.encode()) {
		return corruptf("superblock on disk differs")
	}
	for _, bm := range []*bitmap{&self.blockBitmap, &self.inodeBitmap} {
		if !bytes.Equal(self.dev.ReadData(bm.offset, len(bm.bits)), bm.bits) {
			return corruptf("bitmap at %d on disk differs", bm.offset)
		}
	}
	return nil
}

func (self *Fs) AllocatedBlocks() []BlockId {
	ones := self.blockBitmap.ones()
	ret := make([]BlockId, len(ones))
	for i, v := range ones {
		ret[i] = BlockId(v)
	}
	return ret
}

func (self *Fs) AllocatedInodes() []InodeId {
	ones := self.inodeBitmap.ones()
	ret := make([]InodeId, len(ones))
	for i, v := range ones {
		ret[i] = InodeId(v)
	}
	return ret
}
