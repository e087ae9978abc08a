/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar  4 19:02:13 2019 mstenber
 * Last modified: Mon Mar  4 19:40:55 2019 mstenber
 * Edit time:     21 min
 *
 */

// pb contains the protobuf messages stored alongside chunked images.
// blockfs.proto is the source of truth; the Go side is kept minimal
// and relies on reflection based (un)marshaling of golang/protobuf.
package pb

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

const ImageHeaderVersion = 1

type ImageHeader struct {
	Version   uint32 `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	ImageSize uint64 `protobuf:"varint,2,opt,name=image_size,json=imageSize,proto3" json:"image_size,omitempty"`
	ChunkSize uint32 `protobuf:"varint,3,opt,name=chunk_size,json=chunkSize,proto3" json:"chunk_size,omitempty"`
	Codec     string `protobuf:"bytes,4,opt,name=codec,proto3" json:"codec,omitempty"`
	Uuid      []byte `protobuf:"bytes,5,opt,name=uuid,proto3" json:"uuid,omitempty"`
}

func (m *ImageHeader) Reset()         { *m = ImageHeader{} }
func (m *ImageHeader) String() string { return proto.CompactTextString(m) }
func (*ImageHeader) ProtoMessage()    {}

// Compatible returns error describing the first difference that
// prevents an image written with self to be read as other.
func (m *ImageHeader) Compatible(other *ImageHeader) error {
	switch {
	case m.Version != other.Version:
		return fmt.Errorf("version %d != %d", m.Version, other.Version)
	case m.ImageSize != other.ImageSize:
		return fmt.Errorf("image size %d != %d", m.ImageSize, other.ImageSize)
	case m.ChunkSize != other.ChunkSize:
		return fmt.Errorf("chunk size %d != %d", m.ChunkSize, other.ChunkSize)
	case m.Codec != other.Codec:
		return fmt.Errorf("codec %q != %q", m.Codec, other.Codec)
	}
	return nil
}

func init() {
	proto.RegisterType((*ImageHeader)(nil), "blockfs.proto.ImageHeader")
}
