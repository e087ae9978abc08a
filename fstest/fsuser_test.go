/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar 13 16:43:45 2019 mstenber
 * Last modified: Thu Mar 14 18:10:37 2019 mstenber
 * Edit time:     24 min
 *
 */

package fstest

import (
	"io/ioutil"
	"os"
	"syscall"
	"testing"

	"github.com/fingon/go-blockfs/fs"
	myfuse "github.com/fingon/go-blockfs/fuse"
	"github.com/fingon/go-blockfs/storage/factory"
	"github.com/stvp/assert"
)

// ProdFs exercises filesystem through the fuse adapter, and checks
// the engine view matches after every step.
//
// NOTE: The filesystem HAS to be empty to start with.
func ProdFs(t *testing.T, myfs *fs.Fs) {
	u := NewFSUser(myfuse.NewOps(myfs))
	arr, err := u.ReadDir("/")
	assert.Nil(t, err)
	assert.Equal(t, len(arr), 2)
	assert.True(t, arr[0].IsDir())

	assert.Nil(t, u.Mkdir("/a"))
	assert.Nil(t, u.Mkdir("/a/b"))
	assert.Equal(t, u.Mkdir("/a/b"), syscall.EEXIST)
	assert.Equal(t, u.Mkdir("/nope/b"), syscall.ENOENT)
	assert.Nil(t, u.Create("/a/b/empty"))

	assert.Nil(t, myfs.CreateFile("/a/f", 3))
	want, err := myfs.ReadFile("/a/f")
	assert.Nil(t, err)
	got, err := u.ReadFile("/a/f")
	assert.Nil(t, err)
	assert.Equal(t, string(got), string(want))

	names, err := u.ListDir("/a")
	assert.Nil(t, err)
	assert.Equal(t, names, []string{".", "..", "b", "f"})

	assert.Nil(t, u.Link("/a/f", "/g"))
	fi, err := u.Stat("/g")
	assert.Nil(t, err)
	assert.Equal(t, fi.Size(), int64(3*fs.BlockSize))
	assert.Equal(t, fi.Sys().(*fileInfo).nlink, uint32(2))

	assert.Equal(t, u.Remove("/a/b"), syscall.ENOTEMPTY)
	assert.Nil(t, u.Remove("/a/b/empty"))
	assert.Nil(t, u.Remove("/a/b"))
	assert.Nil(t, u.Remove("/a/f"))
	assert.Nil(t, u.Remove("/g"))
	assert.Nil(t, u.Remove("/a"))
	assert.Nil(t, myfs.Check())

	entries, err := myfs.List("/")
	assert.Nil(t, err)
	assert.Equal(t, len(entries), 2)
	usage := myfs.UsageSummary()
	assert.Equal(t, usage.UsedInodes, 1)
}

func TestFs(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"inmemory", "file"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir, err := ioutil.TempDir("", "fstest")
			assert.Nil(t, err)
			defer os.RemoveAll(dir)
			dev, err := factory.New(name, dir)
			assert.Nil(t, err)
			myfs, err := fs.NewFs(dev, fs.Configuration{})
			assert.Nil(t, err)
			defer myfs.Close()
			ProdFs(t, myfs)
		})
	}
}
