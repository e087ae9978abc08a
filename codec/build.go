/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Mar  3 11:20:45 2019 mstenber
 * Last modified: Tue Mar 12 21:44:02 2019 mstenber
 * Edit time:     18 min
 *
 */

package codec

import (
	"fmt"
	"strings"
)

// Names of codecs understood by New. They are given in decryption
// order, separated by '+', e.g. "aes+snappy".
const (
	NameCompress     = "snappy"
	NameEncrypt      = "aes"
	NameAuthenticate = "cmac"
)

const DefaultIterations = 4096

// Parameters are the secret inputs of encrypting and authenticating
// codecs.
type Parameters struct {
	Password   []byte
	Salt       []byte
	Iterations int
}

// New builds a Codec from the '+'-separated list of codec names. An
// empty spec results in nil Codec, meaning data is stored as-is.
func New(spec string, p Parameters) (Codec, error) {
	if spec == "" {
		return nil, nil
	}
	iter := p.Iterations
	if iter <= 0 {
		iter = DefaultIterations
	}
	var codecs []Codec
	for _, name := range strings.Split(spec, "+") {
		switch name {
		case NameCompress:
			codecs = append(codecs, &CompressingCodec{})
		case NameEncrypt, NameAuthenticate:
			if len(p.Password) == 0 {
				return nil, fmt.Errorf("codec %s requires password", name)
			}
			if name == NameEncrypt {
				codecs = append(codecs, EncryptingCodec{}.Init(p.Password, p.Salt, iter))
			} else {
				codecs = append(codecs, AuthenticatingCodec{}.Init(p.Password, p.Salt, iter))
			}
		default:
			return nil, fmt.Errorf("unknown codec %q", name)
		}
	}
	if len(codecs) == 1 {
		return codecs[0], nil
	}
	return CodecChain{}.Init(codecs...), nil
}
