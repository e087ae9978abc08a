/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar  4 20:11:02 2019 mstenber
 * Last modified: Wed Mar 13 08:55:31 2019 mstenber
 * Edit time:     74 min
 *
 */

// storage provides the backing store of the filesystem image: a
// fixed-size byte array with positioned reads and writes. How the
// bytes end up persisted (plain file, memory, chunks in a key-value
// database) is up to the Device implementation.
//
// Device I/O errors after a successful Init are not reported to the
// caller; they panic, as a half-written image cannot be reasoned
// about anyway.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/fingon/go-blockfs/codec"
)

const (
	DefaultName      = "blockfs.img"
	DefaultImageSize = 16 << 20
	DefaultChunkSize = 64 << 10
)

// Device is the backing store. All calls are synchronous, and the
// image is authoritative once they return.
type Device interface {
	// Init opens the image, or creates zero-filled one of
	// config.Size bytes if it does not exist yet.
	Init(config DeviceConfiguration) error

	// Close the device; no calls are allowed after this.
	Close()

	// ReadData returns length bytes starting at offset.
	ReadData(offset int64, length int) []byte

	// Size returns the image size in bytes; it never changes.
	Size() int64

	// WriteData writes data at offset.
	WriteData(offset int64, data []byte)
}

type DeviceConfiguration struct {
	// Directory the image (or database) lives in.
	Directory string

	// Name of the image within Directory; DefaultName if unset.
	Name string

	// Size of the image in bytes. Zero means whatever existing
	// image has, or DefaultImageSize for new one.
	Size int64

	// ChunkSize is used by devices that store the image in
	// pieces; DefaultChunkSize if unset.
	ChunkSize int

	// Codec transforms chunks of chunked devices. CodecName is
	// stored in the image header so that opening the image with
	// different codec fails early.
	Codec     codec.Codec
	CodecName string
}

// Path returns the location of the image.
func (self *DeviceConfiguration) Path() string {
	name := self.Name
	if name == "" {
		name = DefaultName
	}
	return filepath.Join(self.Directory, name)
}

// SizeOr returns configured size, existing, or default size in that
// order of preference. Nonzero configured size that disagrees with
// existing one is an error.
func (self *DeviceConfiguration) SizeOr(existing int64) (int64, error) {
	switch {
	case self.Size > 0 && existing > 0 && self.Size != existing:
		return 0, fmt.Errorf("image size mismatch: configured %d, existing %d", self.Size, existing)
	case existing > 0:
		return existing, nil
	case self.Size > 0:
		return self.Size, nil
	}
	return DefaultImageSize, nil
}

func (self *DeviceConfiguration) GetChunkSize() int {
	if self.ChunkSize > 0 {
		return self.ChunkSize
	}
	return DefaultChunkSize
}

// DeviceBase provides bounds checking shared by the devices.
type DeviceBase struct {
	size int64
}

func (self *DeviceBase) SetSize(size int64) {
	self.size = size
}

func (self *DeviceBase) Size() int64 {
	return self.size
}

// CheckRange panics if [offset, offset+length) is not within the
// image.
func (self *DeviceBase) CheckRange(offset int64, length int) {
	if offset < 0 || length < 0 || offset+int64(length) > self.size {
		panic(fmt.Sprintf("storage: range [%d,+%d) outside image of %d bytes", offset, length, self.size))
	}
}
