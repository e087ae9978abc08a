/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar  5 11:02:40 2019 mstenber
 * Last modified: Wed Mar 13 10:02:12 2019 mstenber
 * Edit time:     31 min
 *
 */

package factory

import (
	"fmt"
	"sort"

	"github.com/fingon/go-blockfs/codec"
	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/storage"
	"github.com/fingon/go-blockfs/storage/badger"
	"github.com/fingon/go-blockfs/storage/bolt"
	"github.com/fingon/go-blockfs/storage/file"
	"github.com/fingon/go-blockfs/storage/inmemory"
)

const DefaultDevice = "file"

type factoryCallback func() storage.Device

var deviceFactories = map[string]factoryCallback{
	"inmemory": func() storage.Device {
		return inmemory.NewInMemoryDevice()
	},
	"badger": func() storage.Device {
		return badger.NewBadgerDevice()
	},
	"bolt": func() storage.Device {
		return bolt.NewBoltDevice()
	},
	"file": func() storage.Device {
		return file.NewFileDevice()
	}}

// chunked devices are the ones that apply codecs
var chunkedDevices = map[string]bool{"badger": true, "bolt": true}

func List() []string {
	keys := make([]string, 0, len(deviceFactories))
	for k := range deviceFactories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// New opens (or creates) image of the named device type in dir.
func New(name, dir string) (storage.Device, error) {
	var config storage.DeviceConfiguration
	config.Directory = dir
	return NewWithConfig(name, config)
}

func NewWithConfig(name string, config storage.DeviceConfiguration) (storage.Device, error) {
	mlog.Printf2("storage/factory/factory", "f.NewWithConfig %v %v", name, config)
	if name == "" {
		name = DefaultDevice
	}
	cb, ok := deviceFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown device %q (available: %v)", name, List())
	}
	dev := cb()
	if err := dev.Init(config); err != nil {
		return nil, err
	}
	return dev, nil
}

type CodecDeviceConfiguration struct {
	storage.DeviceConfiguration
	DeviceName string

	// CodecName is '+' separated list of codecs, see codec.New.
	CodecName      string
	Password, Salt string
	Iterations     int
}

// NewCodecDevice is NewWithConfig with the codec chain assembled
// from names and password. Codecs are only applied by chunked
// devices; asking for one with other devices is an error.
func NewCodecDevice(config CodecDeviceConfiguration) (storage.Device, error) {
	mlog.Printf2("storage/factory/factory", "f.NewCodecDevice %v %v", config.DeviceName, config.CodecName)
	dconfig := config.DeviceConfiguration
	if config.CodecName != "" {
		if !chunkedDevices[config.DeviceName] {
			return nil, fmt.Errorf("device %q does not support codecs", config.DeviceName)
		}
		salt := config.Salt
		if salt == "" {
			salt = "blockfs"
		}
		c, err := codec.New(config.CodecName, codec.Parameters{
			Password:   []byte(config.Password),
			Salt:       []byte(salt),
			Iterations: config.Iterations})
		if err != nil {
			return nil, err
		}
		dconfig.Codec = c
		dconfig.CodecName = config.CodecName
	}
	return NewWithConfig(config.DeviceName, dconfig)
}
