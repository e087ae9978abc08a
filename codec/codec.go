/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Mar  3 09:12:40 2019 mstenber
 * Last modified: Tue Mar 12 21:40:17 2019 mstenber
 * Edit time:     96 min
 *
 */

// codec library is responsible for transforming image chunks (+
// additionalData, which is the chunk key) to what is actually stored
// by the chunked devices. In practise this means compressing,
// encrypting and/or authenticating on case-by-case basis.
//
// CodecChain makes it possible to combine multiple Codecs that do the
// particular sub-EncodeBytes/DecodeBytes steps.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"hash"
	"log"

	"github.com/golang/snappy"
	"github.com/jacobsa/crypto/cmac"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/pbkdf2"
)

var ErrAuthentication = errors.New("codec: authentication failed")

// Codec
//
// Single transformation of byte slices.
type Codec interface {
	DecodeBytes(data, additionalData []byte) (ret []byte, err error)
	EncodeBytes(data, additionalData []byte) (ret []byte, err error)
}

func deriveKey(password, salt []byte, iter int) []byte {
	return pbkdf2.Key(password, salt, iter, 32, sha256.New)
}

// EncryptingCodec
//
// AES GCM based encrypting/decrypting (+authenticating) Codec.
type EncryptingCodec struct {
	gcm cipher.AEAD
	// Main key
	mk []byte
}

func (self EncryptingCodec) Init(password, salt []byte, iter int) *EncryptingCodec {
	self.mk = deriveKey(password, salt, iter)
	block, err := aes.NewCipher(self.mk)
	if err != nil {
		log.Panic(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		log.Panic(err)
	}
	self.gcm = gcm
	return &self
}

func (self *EncryptingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var ed encryptedData
	if err = unmarshal(data, &ed); err != nil {
		return
	}
	ret, err = self.gcm.Open(nil, ed.Nonce, ed.EncryptedData, additionalData)
	return
}

func (self *EncryptingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	nonce := make([]byte, self.gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return
	}
	ciphertext := self.gcm.Seal(nil, nonce, data, additionalData)
	return marshal(&encryptedData{Nonce: nonce, EncryptedData: ciphertext})
}

// AuthenticatingCodec
//
// AES-CMAC over additionalData and data. Data itself is stored in
// plaintext; this is for images where tampering matters but secrecy
// does not.
type AuthenticatingCodec struct {
	mac hash.Hash
}

func (self AuthenticatingCodec) Init(password, salt []byte, iter int) *AuthenticatingCodec {
	mac, err := cmac.New(deriveKey(password, salt, iter))
	if err != nil {
		log.Panic(err)
	}
	self.mac = mac
	return &self
}

func (self *AuthenticatingCodec) sum(data, additionalData []byte) []byte {
	self.mac.Reset()
	self.mac.Write(additionalData)
	self.mac.Write(data)
	return self.mac.Sum(nil)
}

func (self *AuthenticatingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var ad authenticatedData
	if err = unmarshal(data, &ad); err != nil {
		return
	}
	if subtle.ConstantTimeCompare(ad.Mac, self.sum(ad.Data, additionalData)) != 1 {
		err = ErrAuthentication
		return
	}
	ret = ad.Data
	return
}

func (self *AuthenticatingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	return marshal(&authenticatedData{Mac: self.sum(data, additionalData), Data: data})
}

// CompressingCodec
//
// On-the-fly snappy compressing Codec. If the result does not
// improve, the result is marked to be plaintext and passed as-is.
type CompressingCodec struct {
}

func (self *CompressingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var cd compressedData
	if err = unmarshal(data, &cd); err != nil {
		return
	}
	switch cd.CompressionType {
	case compressionTypePlain:
		ret = cd.RawData
	case compressionTypeSnappy:
		ret, err = snappy.Decode(nil, cd.RawData)
	default:
		err = errors.New("codec: unknown compression type")
	}
	return
}

func (self *CompressingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	cd := compressedData{CompressionType: compressionTypeSnappy,
		RawData: snappy.Encode(nil, data)}
	if len(cd.RawData) >= len(data) {
		cd = compressedData{CompressionType: compressionTypePlain,
			RawData: data}
	}
	return marshal(&cd)
}

type CodecChain struct {
	codecs, reverseCodecs []Codec
}

// Init method initializes the codec chain.
//
// codecs are given in decryption order, so e.g.
// encrypting one should be given before compressing one.
func (self CodecChain) Init(codecs ...Codec) *CodecChain {
	self.codecs = codecs
	rc := make([]Codec, len(codecs))
	for i, c := range codecs {
		rc[len(codecs)-i-1] = c
	}
	self.reverseCodecs = rc
	return &self
}

func (self *CodecChain) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	ret = data
	for _, c := range self.codecs {
		ret, err = c.DecodeBytes(ret, additionalData)
		if err != nil {
			return
		}
	}
	return
}

func (self *CodecChain) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	ret = data
	for _, c := range self.reverseCodecs {
		ret, err = c.EncodeBytes(ret, additionalData)
		if err != nil {
			return
		}
	}
	return
}
