/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Mar  7 11:02:50 2019 mstenber
 * Last modified: Tue Mar 12 10:10:21 2019 mstenber
 * Edit time:     29 min
 *
 */

package fs

import (
	"strings"

	"github.com/fingon/go-blockfs/mlog"
)

// Canonicalize turns path into an absolute one with no ., .. or
// redundant separators. Relative paths are relative to cwd; an empty
// path is cwd itself. .. at the root stays at the root.
func Canonicalize(path, cwd string) (string, error) {
	if !strings.HasPrefix(cwd, "/") || strings.IndexByte(path, 0) >= 0 {
		return "", ErrPathInvalid
	}
	if !strings.HasPrefix(path, "/") {
		path = cwd + "/" + path
	}
	var segments []string
	for _, s := range strings.Split(path, "/") {
		switch s {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, s)
		}
	}
	return "/" + strings.Join(segments, "/"), nil
}

// splitPath returns the segments of a canonical path.
func splitPath(path string) []string {
	if path == "/" {
		return nil
	}
	return strings.Split(path[1:], "/")
}

func basename(path string) string {
	return path[strings.LastIndexByte(path, '/')+1:]
}

// lastSegment returns the final textual segment of an uncanonicalized
// path, ignoring trailing separators.
func lastSegment(path string) string {
	return basename(strings.TrimRight(path, "/"))
}

// Resolve walks path from the root. It returns the directory holding
// the final segment and the inode the segment refers to, or NoId if
// there is no such entry. The root resolves to itself as both.
func (self *Fs) Resolve(path string) (parent, target InodeId, err error) {
	parent, target = NoId, NoId
	cpath, err := Canonicalize(path, self.cwd)
	if err != nil {
		return
	}
	segments := splitPath(cpath)
	cur := RootInode
	for i, name := range segments {
		var id InodeId
		id, err = self.lookup(cur, name)
		if err != nil {
			return
		}
		if i == len(segments)-1 {
			mlog.Printf2("fs/path", "Resolve %s: %d/%d", cpath, cur, id)
			return cur, id, nil
		}
		if id == NoId {
			err = ErrNotFound
			return
		}
		if !self.getInode(id).IsDir() {
			err = ErrNotADirectory
			return
		}
		cur = id
	}
	return RootInode, RootInode, nil
}

// DirectoryPath returns the canonical path of directory id, found by
// walking .. entries up to the root.
func (self *Fs) DirectoryPath(id InodeId) (string, error) {
	var names []string
	for id != RootInode {
		if !self.isAllocated(id) {
			return "", ErrNotFound
		}
		parent, err := self.lookup(id, "..")
		if err != nil {
			return "", err
		}
		entries, err := self.LoadEntries(parent)
		if err != nil {
			return "", err
		}
		name := ""
		for _, e := range entries {
			if e.Inode == id && e.Name != "." && e.Name != ".." {
				name = e.Name
				break
			}
		}
		if name == "" {
			return "", ErrCorrupt
		}
		names = append(names, name)
		id = parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/"), nil
}
