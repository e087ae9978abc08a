/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar  5 08:40:12 2019 mstenber
 * Last modified: Wed Mar 13 09:40:21 2019 mstenber
 * Edit time:     27 min
 *
 */

package file

import (
	"fmt"
	"log"
	"os"

	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/storage"
)

// fileDevice stores the image as a single flat file, which is what a
// raw disk would look like. Codec is not applied.
type fileDevice struct {
	storage.DeviceBase
	f    *os.File
	path string
}

var _ storage.Device = &fileDevice{}

func NewFileDevice() storage.Device {
	return &fileDevice{}
}

func (self *fileDevice) Init(config storage.DeviceConfiguration) error {
	self.path = config.Path()
	if config.Directory != "" {
		if err := os.MkdirAll(config.Directory, 0700); err != nil {
			return fmt.Errorf("unable to create %s: %w", config.Directory, err)
		}
	}
	f, err := os.OpenFile(self.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", self.path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("unable to stat %s: %w", self.path, err)
	}
	size, err := config.SizeOr(fi.Size())
	if err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", self.path, err)
	}
	if fi.Size() == 0 {
		mlog.Printf2("storage/file/file", "fd.Init creating %s (%d bytes)", self.path, size)
		// Truncate extends with zeros
		if err = f.Truncate(size); err != nil {
			f.Close()
			return fmt.Errorf("unable to size %s: %w", self.path, err)
		}
	}
	self.f = f
	self.SetSize(size)
	return nil
}

func (self *fileDevice) Close() {
	if err := self.f.Close(); err != nil {
		log.Panic(err)
	}
}

func (self *fileDevice) ReadData(offset int64, length int) []byte {
	self.CheckRange(offset, length)
	b := make([]byte, length)
	if _, err := self.f.ReadAt(b, offset); err != nil {
		mlog.Panicf("read %s at %d: %s", self.path, offset, err)
	}
	return b
}

func (self *fileDevice) WriteData(offset int64, data []byte) {
	self.CheckRange(offset, len(data))
	if _, err := self.f.WriteAt(data, offset); err != nil {
		mlog.Panicf("write %s at %d: %s", self.path, offset, err)
	}
}
