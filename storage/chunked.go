/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar  4 21:30:40 2019 mstenber
 * Last modified: Wed Mar 13 09:20:03 2019 mstenber
 * Edit time:     102 min
 *
 */

package storage

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"

	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/pb"
)

// KeyValueStore is what a database needs to provide for
// ChunkedDevice. Errors are fatal (see package documentation).
type KeyValueStore interface {
	// Get returns value of key, or nil if it is not set.
	Get(key []byte) []byte

	// Set sets (all of) the given key/value pairs at once.
	Set(kvs ...KeyValue)

	Close()
}

type KeyValue struct {
	Key, Value []byte
}

var headerKey = []byte("h")

const chunkKeyPrefix = 'c'

// ChunkedDevice splits the image into ChunkSize sized chunks, which
// are stored (through the configured codec) in a KeyValueStore.
// Chunks that have never been written read as zeros, so creating a
// large image costs nothing.
type ChunkedDevice struct {
	DeviceBase
	store     KeyValueStore
	chunkSize int
	config    DeviceConfiguration
	header    pb.ImageHeader
}

func chunkKey(index int64) []byte {
	k := make([]byte, 9)
	k[0] = chunkKeyPrefix
	binary.BigEndian.PutUint64(k[1:], uint64(index))
	return k
}

// Open reads (or creates) the image header from store. The
// ChunkedDevice takes ownership of the store.
func (self *ChunkedDevice) Open(store KeyValueStore, config DeviceConfiguration) error {
	self.store = store
	self.config = config
	want := pb.ImageHeader{Version: pb.ImageHeaderVersion,
		ChunkSize: uint32(config.GetChunkSize()),
		Codec:     config.CodecName}
	if b := store.Get(headerKey); b != nil {
		var have pb.ImageHeader
		if err := proto.Unmarshal(b, &have); err != nil {
			return fmt.Errorf("image header: %w", err)
		}
		size, err := config.SizeOr(int64(have.ImageSize))
		if err != nil {
			return err
		}
		want.ImageSize = uint64(size)
		if err := have.Compatible(&want); err != nil {
			return fmt.Errorf("incompatible image %s: %w", config.Path(), err)
		}
		self.header = have
	} else {
		size, err := config.SizeOr(0)
		if err != nil {
			return err
		}
		want.ImageSize = uint64(size)
		id := uuid.New()
		want.Uuid = id[:]
		b, err := proto.Marshal(&want)
		if err != nil {
			return err
		}
		store.Set(KeyValue{headerKey, b})
		self.header = want
		mlog.Printf2("storage/chunked", "cd.Open created %v", &want)
	}
	self.chunkSize = int(self.header.ChunkSize)
	self.SetSize(int64(self.header.ImageSize))
	return nil
}

// Header returns the image header; Uuid identifies the image.
func (self *ChunkedDevice) Header() *pb.ImageHeader {
	return &self.header
}

func (self *ChunkedDevice) Close() {
	self.store.Close()
}

func (self *ChunkedDevice) getChunk(index int64) []byte {
	k := chunkKey(index)
	b := self.store.Get(k)
	if b == nil {
		return make([]byte, self.chunkSize)
	}
	if self.config.Codec != nil {
		var err error
		b, err = self.config.Codec.DecodeBytes(b, k)
		if err != nil {
			log.Panicf("chunk %d: %v", index, err)
		}
	}
	if len(b) != self.chunkSize {
		log.Panicf("chunk %d: %d bytes, expected %d", index, len(b), self.chunkSize)
	}
	return b
}

func (self *ChunkedDevice) encodeChunk(index int64, b []byte) KeyValue {
	k := chunkKey(index)
	if self.config.Codec != nil {
		var err error
		b, err = self.config.Codec.EncodeBytes(b, k)
		if err != nil {
			log.Panicf("chunk %d: %v", index, err)
		}
	}
	return KeyValue{k, b}
}

// chunkRange calls cb for each chunk overlapping [offset,
// offset+length), with the chunk-relative range and the position
// within the caller's buffer.
func (self *ChunkedDevice) chunkRange(offset int64, length int, cb func(index int64, start, end, pos int)) {
	cs := int64(self.chunkSize)
	pos := 0
	for pos < length {
		at := offset + int64(pos)
		index := at / cs
		start := int(at % cs)
		end := self.chunkSize
		if rest := start + length - pos; rest < end {
			end = rest
		}
		cb(index, start, end, pos)
		pos += end - start
	}
}

func (self *ChunkedDevice) ReadData(offset int64, length int) []byte {
	self.CheckRange(offset, length)
	mlog.Printf2("storage/chunked", "cd.ReadData %d+%d", offset, length)
	ret := make([]byte, length)
	self.chunkRange(offset, length, func(index int64, start, end, pos int) {
		copy(ret[pos:], self.getChunk(index)[start:end])
	})
	return ret
}

func (self *ChunkedDevice) WriteData(offset int64, data []byte) {
	self.CheckRange(offset, len(data))
	mlog.Printf2("storage/chunked", "cd.WriteData %d+%d", offset, len(data))
	var kvs []KeyValue
	self.chunkRange(offset, len(data), func(index int64, start, end, pos int) {
		var chunk []byte
		if start == 0 && end == self.chunkSize {
			chunk = append([]byte(nil), data[pos:pos+self.chunkSize]...)
		} else {
			chunk = self.getChunk(index)
			copy(chunk[start:end], data[pos:])
		}
		kvs = append(kvs, self.encodeChunk(index, chunk))
	})
	if len(kvs) > 0 {
		self.store.Set(kvs...)
	}
}
