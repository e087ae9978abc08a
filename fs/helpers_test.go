/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Mar  8 10:05:11 2019 mstenber
 * Last modified: Tue Mar 12 09:40:12 2019 mstenber
 * Edit time:     4 min
 *
 */

package fs

import (
	"fmt"
	"testing"

	"github.com/fingon/go-blockfs/storage"
	"github.com/fingon/go-blockfs/storage/inmemory"
)

func fmtName(prefix string, i int) string {
	return fmt.Sprintf("/%s%d", prefix, i)
}

func isKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func newBenchDevice(b *testing.B) storage.Device {
	dev := inmemory.NewInMemoryDevice()
	if err := dev.Init(storage.DeviceConfiguration{Size: storage.DefaultImageSize}); err != nil {
		b.Fatal(err)
	}
	return dev
}
