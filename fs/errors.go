/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 09:40:03 2019 mstenber
 * Last modified: Wed Mar 13 11:31:12 2019 mstenber
 * Edit time:     36 min
 *
 */

package fs

import (
	"fmt"
)

type Kind int

const (
	PathInvalid Kind = iota + 1
	NotFound
	AlreadyExists
	NotADirectory
	IsADirectory
	ResourceExhausted
	ProtectedPath
	FileTooLarge
	Corrupt
	TooManyLinks
)

var kindMessages = map[Kind]string{
	PathInvalid:       "Invalid path",
	NotFound:          "No such file or directory",
	AlreadyExists:     "File exists",
	NotADirectory:     "Not a directory",
	IsADirectory:      "Is a directory",
	ResourceExhausted: "No available resource",
	ProtectedPath:     "Operation not permitted",
	FileTooLarge:      "File too large",
	Corrupt:           "Filesystem corrupt",
	TooManyLinks:      "Too many links",
}

func (self Kind) String() string {
	if s, ok := kindMessages[self]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(self))
}

type Resource int

const (
	NoResource Resource = iota
	Inodes
	Blocks
)

func (self Resource) String() string {
	switch self {
	case Inodes:
		return "inode"
	case Blocks:
		return "block"
	}
	return ""
}

// Error is what every failing operation returns. Its Error() is the
// diagnostic a shell would print, e.g. "touch: cannot touch '/a':
// File exists".
type Error struct {
	Op       string
	Path     string
	Kind     Kind
	Resource Resource

	// Detail replaces the Kind message if set.
	Detail string
}

// Sentinels usable with errors.Is; they match any Error of the same
// Kind (and Resource, if set).
var (
	ErrPathInvalid       = &Error{Kind: PathInvalid}
	ErrNotFound          = &Error{Kind: NotFound}
	ErrAlreadyExists     = &Error{Kind: AlreadyExists}
	ErrNotADirectory     = &Error{Kind: NotADirectory}
	ErrIsADirectory      = &Error{Kind: IsADirectory}
	ErrResourceExhausted = &Error{Kind: ResourceExhausted}
	ErrNoInodes          = &Error{Kind: ResourceExhausted, Resource: Inodes}
	ErrNoBlocks          = &Error{Kind: ResourceExhausted, Resource: Blocks}
	ErrProtectedPath     = &Error{Kind: ProtectedPath}
	ErrFileTooLarge      = &Error{Kind: FileTooLarge}
	ErrCorrupt           = &Error{Kind: Corrupt}
	ErrTooManyLinks      = &Error{Kind: TooManyLinks}
)

var opFormats = map[string]string{
	"touch": "touch: cannot touch '%s': %s",
	"mkdir": "mkdir: cannot create directory '%s': %s",
	"rm":    "rm: cannot remove '%s': %s",
	"cp":    "cp: cannot copy '%s': %s",
	"cpdst": "cp: cannot copy into '%s': %s",
	"ln":    "ln: cannot create link '%s': %s",
	"cd":    "cd: %s: %s",
	"ls":    "ls: cannot access '%s': %s",
	"cat":   "cat: %s: %s",
	"stat":  "stat: cannot stat '%s': %s",
}

func (self *Error) reason() string {
	switch {
	case self.Detail != "":
		return self.Detail
	case self.Kind == ResourceExhausted && self.Resource != NoResource:
		return fmt.Sprintf("No available %s", self.Resource)
	}
	return self.Kind.String()
}

func (self *Error) Error() string {
	if self.Kind == ProtectedPath && self.Op == "rm" && self.Detail != "" {
		return "rm: cannot remove " + self.Detail
	}
	if f, ok := opFormats[self.Op]; ok {
		return fmt.Sprintf(f, self.Path, self.reason())
	}
	if self.Op == "" && self.Path == "" {
		return self.reason()
	}
	return fmt.Sprintf("%s %s: %s", self.Op, self.Path, self.reason())
}

func (self *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == self.Kind && (t.Resource == NoResource || t.Resource == self.Resource) &&
		(t.Op == "" || t.Op == self.Op) && (t.Path == "" || t.Path == self.Path)
}

func newError(op, path string, kind Kind) *Error {
	return &Error{Op: op, Path: path, Kind: kind}
}

func exhausted(op, path string, r Resource) *Error {
	return &Error{Op: op, Path: path, Kind: ResourceExhausted, Resource: r}
}

// withOp fills in the operation and path of errors produced by the
// lower layers, which do not know them.
func withOp(err error, op, path string) error {
	if e, ok := err.(*Error); ok && e.Op == "" {
		c := *e
		c.Op = op
		if c.Path == "" {
			c.Path = path
		}
		return &c
	}
	return err
}
