/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar 11 16:40:12 2019 mstenber
 * Last modified: Thu Mar 14 16:02:45 2019 mstenber
 * Edit time:     19 min
 *
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/fingon/go-blockfs/fs"
	myfuse "github.com/fingon/go-blockfs/fuse"
	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/storage"
	"github.com/fingon/go-blockfs/storage/factory"
	"github.com/hanwen/go-fuse/fuse"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n\n%s MOUNTDIR IMAGEDIR\n", os.Args[0])
		flag.PrintDefaults()
	}
	name := flag.String("name", "", "Name of the image within IMAGEDIR")
	size := flag.Int64("size", 0, "Size of a new image in bytes")
	devicep := flag.String("device", factory.DefaultDevice,
		fmt.Sprintf("Device to use (possible: %v)", factory.List()))
	codec := flag.String("codec", "", "Codec for chunked devices")
	password := flag.String("password", "siikret", "Password")
	salt := flag.String("salt", "salt", "Salt")
	cachesize := flag.Int("cachesize", fs.DefaultInodeCacheSize, "Number of inodes to cache")
	cpuprofile := flag.String("cpuprofile", "", "CPU profile file")
	allowOther := flag.Bool("allow-other", false, "Allow other users to access the mount")

	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}
	mountpoint := flag.Arg(0)
	imagedir := flag.Arg(1)
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	dconf := storage.DeviceConfiguration{Directory: imagedir, Name: *name, Size: *size}
	conf := factory.CodecDeviceConfiguration{DeviceConfiguration: dconf,
		DeviceName: *devicep, CodecName: *codec, Password: *password, Salt: *salt}
	dev, err := factory.NewCodecDevice(conf)
	if err != nil {
		log.Fatal(err)
	}
	myfs, err := fs.NewFs(dev, fs.Configuration{InodeCacheSize: *cachesize})
	if err != nil {
		log.Fatal(err)
	}
	opts := &fuse.MountOptions{AllowOther: *allowOther, Name: "blockfs"}
	if mlog.IsEnabled() {
		opts.Debug = true
	}

	fuseServer, err := fuse.NewServer(myfuse.NewOps(myfs), mountpoint, opts)
	if err != nil {
		log.Panic(err)
	}

	// loop is here
	fuseServer.Serve()

	myfs.Close()
}
