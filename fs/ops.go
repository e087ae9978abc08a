/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Mar  8 09:11:27 2019 mstenber
 * Last modified: Thu Mar 14 10:48:03 2019 mstenber
 * Edit time:     163 min
 *
 */

package fs

import (
	"strings"

	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/util"
)

// Entry is one line of a directory listing.
type Entry struct {
	Name  string
	Inode Inode
}

// Usage is the space accounting of the image.
type Usage struct {
	ImageSize       int64
	BlockSize       int
	ImageBlocks     int
	DataBlocks      int
	InodeSize       int
	TotalInodes     int
	UsedBlocks      int
	AvailableBlocks int
	UsedInodes      int
	AvailableInodes int
}

func (self *Usage) UsedSpace() int64 {
	return int64(self.UsedBlocks) * int64(self.BlockSize)
}

func (self *Usage) AvailableSpace() int64 {
	return int64(self.AvailableBlocks) * int64(self.BlockSize)
}

// resolved is a path looked up for an operation.
type resolved struct {
	path   string
	parent InodeId
	target InodeId
}

func (self *resolved) name() string {
	return basename(self.path)
}

func (self *Fs) resolve(op, path string) (r resolved, err error) {
	r.path, err = Canonicalize(path, self.cwd)
	if err != nil {
		err = withOp(err, op, path)
		return
	}
	r.parent, r.target, err = self.Resolve(r.path)
	err = withOp(err, op, r.path)
	return
}

// resolveExisting is resolve that also requires the target to exist.
func (self *Fs) resolveExisting(op, path string) (r resolved, err error) {
	r, err = self.resolve(op, path)
	if err == nil && r.target == NoId {
		err = newError(op, r.path, NotFound)
	}
	return
}

// CreateFile creates a file of sizeKB blocks of filler content.
// Resources are checked before anything is allocated.
func (self *Fs) CreateFile(path string, sizeKB uint32) error {
	const op = "touch"
	mlog.Printf2("fs/ops", "CreateFile %s %dK", path, sizeKB)
	r, err := self.resolve(op, path)
	if err != nil {
		return err
	}
	if r.target != NoId {
		return newError(op, r.path, AlreadyExists)
	}
	if sizeKB > MaxFileBlocks {
		return newError(op, r.path, FileTooLarge)
	}
	n := int(sizeKB)
	if self.sb.AvailableInodes < 1 {
		return exhausted(op, r.path, Inodes)
	}
	if int(self.sb.AvailableBlocks) < blocksForFile(n)+self.entryGrowth(r.parent) {
		return exhausted(op, r.path, Blocks)
	}
	a := allocation{fs: self}
	id, err := a.inode()
	if err != nil {
		return withOp(err, op, r.path)
	}
	blocks := make([]BlockId, n)
	data := make([]byte, BlockSize)
	for i := range blocks {
		if blocks[i], err = a.block(); err != nil {
			a.rollback()
			return withOp(err, op, r.path)
		}
		util.FillLetters(self.rng, data)
		self.writeBlock(blocks[i], data)
	}
	t := self.now().Unix()
	inode := Inode{Id: id, Type: TypeFile, Size: uint32(n) * BlockSize, CreatedAt: t, ModifiedAt: t}
	inode.clearAddresses()
	if err = self.SetBlockList(&inode, blocks); err != nil {
		mlog.Panicf("CreateFile SetBlockList failed after check: %v", err)
	}
	self.mustAddEntry(r.parent, id, r.name())
	return nil
}

// CreateDir creates a directory. With makeParents, missing ancestors
// are created too and an existing directory is not an error.
func (self *Fs) CreateDir(path string, makeParents bool) error {
	const op = "mkdir"
	mlog.Printf2("fs/ops", "CreateDir %s %v", path, makeParents)
	cpath, err := Canonicalize(path, self.cwd)
	if err != nil {
		return withOp(err, op, path)
	}
	if !makeParents {
		r, err := self.resolve(op, cpath)
		if err != nil {
			return err
		}
		if r.target != NoId {
			return newError(op, r.path, AlreadyExists)
		}
		return self.createDirs(op, r.path, r.parent, []string{r.name()})
	}

	segments := splitPath(cpath)
	if len(segments) == 0 {
		return nil
	}
	cur := RootInode
	for i, name := range segments {
		id, err := self.lookup(cur, name)
		if err != nil {
			return withOp(err, op, cpath)
		}
		if id == NoId {
			return self.createDirs(op, cpath, cur, segments[i:])
		}
		if !self.getInode(id).IsDir() {
			if i == len(segments)-1 {
				return newError(op, cpath, AlreadyExists)
			}
			return newError(op, cpath, NotADirectory)
		}
		cur = id
	}
	return nil
}

// createDirs creates the chain of directories names below parent.
func (self *Fs) createDirs(op, path string, parent InodeId, names []string) error {
	k := len(names)
	if int(self.sb.AvailableInodes) < k {
		return exhausted(op, path, Inodes)
	}
	if int(self.sb.AvailableBlocks) < k+self.entryGrowth(parent) {
		return exhausted(op, path, Blocks)
	}
	for _, name := range names {
		id, err := self.makeDirectory(parent)
		if err != nil {
			mlog.Panicf("createDirs failed after check: %v", err)
		}
		self.mustAddEntry(parent, id, name)
		parent = id
	}
	return nil
}

func isAncestorOrSelf(ancestor, path string) bool {
	return ancestor == "/" || path == ancestor || strings.HasPrefix(path, ancestor+"/")
}

// Remove removes a file, or with recursive a whole directory tree.
// Inodes are reclaimed when their last link goes away.
func (self *Fs) Remove(path string, recursive bool) error {
	const op = "rm"
	mlog.Printf2("fs/ops", "Remove %s %v", path, recursive)
	if seg := lastSegment(path); seg == "." || seg == ".." {
		return &Error{Op: op, Path: path, Kind: ProtectedPath, Detail: "'.' or '..'"}
	}
	r, err := self.resolve(op, path)
	if err != nil {
		return err
	}
	if r.path == "/" {
		return &Error{Op: op, Path: r.path, Kind: ProtectedPath, Detail: "root directory"}
	}
	if isAncestorOrSelf(r.path, self.cwd) {
		return &Error{Op: op, Path: r.path, Kind: ProtectedPath, Detail: "current working directory"}
	}
	if r.target == NoId {
		return newError(op, r.path, NotFound)
	}
	if !self.getInode(r.target).IsDir() {
		if strings.HasSuffix(path, "/") {
			return newError(op, path, NotADirectory)
		}
		self.unlink(r.parent, r.target, r.name())
		return nil
	}
	if !recursive {
		return newError(op, r.path, IsADirectory)
	}
	self.removeTree(r.parent, r.target, r.name())
	return nil
}

// unlink removes one name of a file, releasing it if it was the last.
func (self *Fs) unlink(dir, id InodeId, name string) {
	if err := self.RemoveEntry(dir, id, name); err != nil {
		mlog.Panicf("unlink %d/%s: %v", dir, name, err)
	}
	inode := self.getInode(id)
	if inode.LinkCount == 0 {
		self.releaseInode(&inode)
	}
}

// removeTree removes directory id (known as name in parent) and
// everything below it, depth first.
func (self *Fs) removeTree(parent, id InodeId, name string) {
	type frame struct {
		parent, dir InodeId
		name        string
		expanded    bool
	}
	stack := []frame{{parent: parent, dir: id, name: name}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if !top.expanded {
			top.expanded = true
			dir := top.dir
			entries, err := self.LoadEntries(dir)
			if err != nil {
				mlog.Panicf("removeTree %d: %v", dir, err)
			}
			for _, e := range entries {
				if e.Name == "." || e.Name == ".." {
					continue
				}
				if self.getInode(e.Inode).IsDir() {
					stack = append(stack, frame{parent: dir, dir: e.Inode, name: e.Name})
				} else {
					self.unlink(dir, e.Inode, e.Name)
				}
			}
			continue
		}
		f := *top
		stack = stack[:len(stack)-1]
		mlog.Printf2("fs/ops", " removing directory %d (%s)", f.dir, f.name)
		if err := self.RemoveEntry(f.parent, f.dir, f.name); err != nil {
			mlog.Panicf("removeTree %d/%s: %v", f.parent, f.name, err)
		}
		inode := self.getInode(f.dir)
		self.releaseInode(&inode)
	}
}

// copyNeeds returns the inodes and blocks a copy of the tree rooted
// at id would take. Inodes linked more than once within the tree are
// counted once, as the copy preserves the links.
func (self *Fs) copyNeeds(id InodeId) (inodes, blocks int) {
	seen := make(map[InodeId]bool)
	work := []InodeId{id}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		inodes++
		inode := self.getInode(id)
		if !inode.IsDir() {
			blocks += blocksForFile(len(self.BlockList(&inode)))
			continue
		}
		entries, err := self.LoadEntries(id)
		if err != nil {
			mlog.Panicf("copyNeeds %d: %v", id, err)
		}
		children := 0
		for _, e := range entries {
			if e.Name == "." || e.Name == ".." {
				continue
			}
			children++
			work = append(work, e.Inode)
		}
		blocks += blocksForDirectory(children + 2)
	}
	return
}

// Copy copies src to dst. If dst is an existing directory, the copy
// is placed within it under the name of src. Directories need
// recursive. Everything is checked before the first allocation.
func (self *Fs) Copy(src, dst string, recursive bool) error {
	const op = "cp"
	mlog.Printf2("fs/ops", "Copy %s %s %v", src, dst, recursive)
	s, err := self.resolveExisting(op, src)
	if err != nil {
		return err
	}
	d, err := self.resolve("cpdst", dst)
	if err != nil {
		return err
	}
	destDir, destDirPath, name := d.parent, d.path[:strings.LastIndexByte(d.path, '/')], d.name()
	if d.target != NoId {
		if !self.getInode(d.target).IsDir() {
			return newError("cpdst", d.path, AlreadyExists)
		}
		destDir, destDirPath, name = d.target, d.path, s.name()
		existing, err := self.lookup(destDir, name)
		if err != nil {
			return withOp(err, "cpdst", d.path)
		}
		if existing != NoId {
			return newError("cpdst", strings.TrimSuffix(d.path, "/")+"/"+name, AlreadyExists)
		}
	}
	if destDirPath == "" {
		destDirPath = "/"
	}
	srcInode := self.getInode(s.target)
	if srcInode.IsDir() {
		if !recursive {
			return newError(op, s.path, IsADirectory)
		}
		if isAncestorOrSelf(s.path, destDirPath) {
			return &Error{Op: op, Path: s.path, Kind: PathInvalid,
				Detail: "cannot copy a directory into itself"}
		}
	}
	inodes, blocks := self.copyNeeds(s.target)
	if int(self.sb.AvailableInodes) < inodes {
		return exhausted(op, s.path, Inodes)
	}
	if int(self.sb.AvailableBlocks) < blocks+self.entryGrowth(destDir) {
		return exhausted(op, s.path, Blocks)
	}
	self.copyTree(s.target, destDir, name)
	return nil
}

func (self *Fs) copyTree(id, parent InodeId, name string) {
	type item struct {
		src, parent InodeId
		name        string
	}
	copied := make(map[InodeId]InodeId)
	work := []item{{id, parent, name}}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]
		if nid, ok := copied[it.src]; ok {
			self.mustAddEntry(it.parent, nid, it.name)
			continue
		}
		inode := self.getInode(it.src)
		if !inode.IsDir() {
			nid := self.copyFile(&inode)
			copied[it.src] = nid
			self.mustAddEntry(it.parent, nid, it.name)
			continue
		}
		nid, err := self.makeDirectory(it.parent)
		if err != nil {
			mlog.Panicf("copyTree failed after check: %v", err)
		}
		copied[it.src] = nid
		self.mustAddEntry(it.parent, nid, it.name)
		entries, err := self.LoadEntries(it.src)
		if err != nil {
			mlog.Panicf("copyTree %d: %v", it.src, err)
		}
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if e.Name == "." || e.Name == ".." {
				continue
			}
			work = append(work, item{e.Inode, nid, e.Name})
		}
	}
}

func (self *Fs) copyFile(src *Inode) InodeId {
	id := self.mustAllocateInode()
	old := self.BlockList(src)
	blocks := make([]BlockId, len(old))
	for i, bid := range old {
		blocks[i] = self.mustAllocateBlock()
		self.writeBlock(blocks[i], self.readBlock(bid))
	}
	t := self.now().Unix()
	inode := Inode{Id: id, Type: TypeFile, Size: src.Size, CreatedAt: t, ModifiedAt: t}
	inode.clearAddresses()
	if err := self.SetBlockList(&inode, blocks); err != nil {
		mlog.Panicf("copyFile SetBlockList failed after check: %v", err)
	}
	mlog.Printf2("fs/ops", " copied file %d to %d", src.Id, id)
	return id
}

// HardLink adds dst as another name of file src.
func (self *Fs) HardLink(src, dst string) error {
	const op = "ln"
	mlog.Printf2("fs/ops", "HardLink %s %s", src, dst)
	d, err := self.resolve(op, dst)
	if err != nil {
		return err
	}
	s, err := self.resolve(op, src)
	if err != nil {
		return withOp(err, op, d.path)
	}
	if s.target == NoId {
		return newError(op, d.path, NotFound)
	}
	return self.link(s.target, s.path, &d)
}

// LinkInode adds dst as another name of file id.
func (self *Fs) LinkInode(id InodeId, dst string) error {
	const op = "ln"
	if !self.isAllocated(id) {
		return newError(op, dst, NotFound)
	}
	d, err := self.resolve(op, dst)
	if err != nil {
		return err
	}
	return self.link(id, d.path, &d)
}

func (self *Fs) link(id InodeId, srcPath string, d *resolved) error {
	const op = "ln"
	if d.target != NoId {
		return newError(op, d.path, AlreadyExists)
	}
	inode := self.getInode(id)
	if inode.IsDir() {
		return newError(op, srcPath, IsADirectory)
	}
	if inode.LinkCount == MaxLinkCount {
		return newError(op, d.path, TooManyLinks)
	}
	if int(self.sb.AvailableBlocks) < self.entryGrowth(d.parent) {
		return exhausted(op, d.path, Blocks)
	}
	self.mustAddEntry(d.parent, id, d.name())
	return nil
}

// ChangeDir sets the directory relative paths are resolved against.
func (self *Fs) ChangeDir(path string) error {
	const op = "cd"
	r, err := self.resolveExisting(op, path)
	if err != nil {
		return err
	}
	if !self.getInode(r.target).IsDir() {
		return newError(op, r.path, NotADirectory)
	}
	mlog.Printf2("fs/ops", "ChangeDir %s -> %s", self.cwd, r.path)
	self.cwd = r.path
	return nil
}

func (self *Fs) Cwd() string {
	return self.cwd
}

// List returns the entries of a directory, . and .. included.
func (self *Fs) List(path string) ([]Entry, error) {
	const op = "ls"
	r, err := self.resolveExisting(op, path)
	if err != nil {
		return nil, err
	}
	entries, err := self.LoadEntries(r.target)
	if err != nil {
		return nil, withOp(err, op, r.path)
	}
	ret := make([]Entry, len(entries))
	for i, e := range entries {
		ret[i] = Entry{Name: e.Name, Inode: self.getInode(e.Inode)}
	}
	return ret, nil
}

// ReadFile returns the content of a file.
func (self *Fs) ReadFile(path string) ([]byte, error) {
	const op = "cat"
	r, err := self.resolveExisting(op, path)
	if err != nil {
		return nil, err
	}
	b, err := self.ReadInode(r.target)
	return b, withOp(err, op, r.path)
}

// ReadInode returns the content of file id.
func (self *Fs) ReadInode(id InodeId) ([]byte, error) {
	inode, err := self.GetInode(id)
	if err != nil {
		return nil, err
	}
	if inode.IsDir() {
		return nil, ErrIsADirectory
	}
	ret := make([]byte, 0, inode.Size)
	for _, bid := range self.BlockList(&inode) {
		ret = append(ret, self.readBlock(bid)...)
	}
	if len(ret) < int(inode.Size) {
		return nil, &Error{Kind: Corrupt, Detail: "blocks do not cover file size"}
	}
	return ret[:inode.Size], nil
}

func (self *Fs) isAllocated(id InodeId) bool {
	return int(id) < self.layout.totalInodes && self.inodeBitmap.get(int(id))
}

// GetInode returns a copy of inode id.
func (self *Fs) GetInode(id InodeId) (Inode, error) {
	if !self.isAllocated(id) {
		return Inode{}, ErrNotFound
	}
	return self.getInode(id), nil
}

// Lookup returns the inode name refers to within directory dir.
func (self *Fs) Lookup(dir InodeId, name string) (InodeId, error) {
	if !self.isAllocated(dir) {
		return NoId, ErrNotFound
	}
	id, err := self.lookup(dir, name)
	if err == nil && id == NoId {
		err = ErrNotFound
	}
	return id, err
}

// Stat returns the inode path refers to, and the canonical path.
func (self *Fs) Stat(path string) (Inode, string, error) {
	r, err := self.resolveExisting("stat", path)
	if err != nil {
		return Inode{}, "", err
	}
	return self.getInode(r.target), r.path, nil
}

func (self *Fs) UsageSummary() Usage {
	l := &self.layout
	return Usage{
		ImageSize:       l.imageSize,
		BlockSize:       BlockSize,
		ImageBlocks:     l.imageBlocks,
		DataBlocks:      l.totalBlocks,
		InodeSize:       InodeSize,
		TotalInodes:     l.totalInodes,
		UsedBlocks:      l.imageBlocks - int(self.sb.AvailableBlocks),
		AvailableBlocks: int(self.sb.AvailableBlocks),
		UsedInodes:      l.totalInodes - int(self.sb.AvailableInodes),
		AvailableInodes: int(self.sb.AvailableInodes),
	}
}
