/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar  5 09:02:33 2019 mstenber
 * Last modified: Tue Mar  5 09:15:20 2019 mstenber
 * Edit time:     6 min
 *
 */

package inmemory

import (
	"github.com/fingon/go-blockfs/storage"
)

// inMemoryDevice keeps the image in a byte slice; everything is lost
// on Close.
type inMemoryDevice struct {
	storage.DeviceBase
	b []byte
}

var _ storage.Device = &inMemoryDevice{}

func NewInMemoryDevice() storage.Device {
	return &inMemoryDevice{}
}

func (self *inMemoryDevice) Init(config storage.DeviceConfiguration) error {
	size, err := config.SizeOr(0)
	if err != nil {
		return err
	}
	self.b = make([]byte, size)
	self.SetSize(size)
	return nil
}

func (self *inMemoryDevice) Close() {
	self.b = nil
}

func (self *inMemoryDevice) ReadData(offset int64, length int) []byte {
	self.CheckRange(offset, length)
	b := make([]byte, length)
	copy(b, self.b[offset:])
	return b
}

func (self *inMemoryDevice) WriteData(offset int64, data []byte) {
	self.CheckRange(offset, len(data))
	copy(self.b[offset:], data)
}
