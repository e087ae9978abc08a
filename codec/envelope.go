/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Mar  3 10:02:11 2019 mstenber
 * Last modified: Sun Mar  3 10:31:56 2019 mstenber
 * Edit time:     12 min
 *
 */

package codec

import (
	ucodec "github.com/ugorji/go/codec"
)

// Codec outputs are msgpack envelopes; keys are kept short as they
// are stored with every chunk.

type compressionType uint8

const (
	compressionTypePlain compressionType = iota
	compressionTypeSnappy
)

type compressedData struct {
	CompressionType compressionType `codec:"t"`
	RawData         []byte          `codec:"d"`
}

type encryptedData struct {
	Nonce         []byte `codec:"n"`
	EncryptedData []byte `codec:"d"`
}

type authenticatedData struct {
	Mac  []byte `codec:"m"`
	Data []byte `codec:"d"`
}

var msgpackHandle ucodec.MsgpackHandle

func marshal(v interface{}) (ret []byte, err error) {
	err = ucodec.NewEncoderBytes(&ret, &msgpackHandle).Encode(v)
	return
}

func unmarshal(data []byte, v interface{}) error {
	return ucodec.NewDecoderBytes(data, &msgpackHandle).Decode(v)
}
