/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar 12 09:20:11 2019 mstenber
 * Last modified: Thu Mar 14 16:31:40 2019 mstenber
 * Edit time:     22 min
 *
 */

package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/fingon/go-blockfs/fs"
	"github.com/fingon/go-blockfs/storage"
	"github.com/fingon/go-blockfs/storage/factory"
	"github.com/fingon/go-blockfs/util"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envVarPrefix = "BLOCKFS"

// Config is read from the yaml file first, then from BLOCKFS_*
// environment variables, and finally from command line flags.
type Config struct {
	Directory  string `envconfig:"DIR"         yaml:"dir"`
	Name       string `envconfig:"NAME"        yaml:"name"`
	Size       int64  `envconfig:"SIZE"        yaml:"size"`
	Device     string `envconfig:"DEVICE"      yaml:"device"`
	Codec      string `envconfig:"CODEC"       yaml:"codec"`
	Password   string `envconfig:"PASSWORD"    yaml:"password"`
	Salt       string `envconfig:"SALT"        yaml:"salt"`
	Iterations int    `envconfig:"ITERATIONS"  yaml:"iterations"`
	InodeCache int    `envconfig:"INODE_CACHE" yaml:"inodeCache"`
}

// LoadConfig reads the configuration; missing file is not an error.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}
	var c Config
	if configFile != "" {
		data, err := ioutil.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	c.Directory = util.SOr(c.Directory, ".")
	c.Device = util.SOr(c.Device, factory.DefaultDevice)
	return &c, nil
}

func (self *Config) deviceConfiguration() factory.CodecDeviceConfiguration {
	return factory.CodecDeviceConfiguration{
		DeviceConfiguration: storage.DeviceConfiguration{
			Directory: self.Directory,
			Name:      self.Name,
			Size:      self.Size,
		},
		DeviceName: self.Device,
		CodecName:  self.Codec,
		Password:   self.Password,
		Salt:       self.Salt,
		Iterations: self.Iterations,
	}
}

// Open returns the engine on top of the configured device; the image
// is formatted if it has not been yet.
func (self *Config) Open() (*fs.Fs, error) {
	dev, err := factory.NewCodecDevice(self.deviceConfiguration())
	if err != nil {
		return nil, err
	}
	f, err := fs.NewFs(dev, fs.Configuration{InodeCacheSize: self.InodeCache})
	if err != nil {
		dev.Close()
		return nil, err
	}
	return f, nil
}
