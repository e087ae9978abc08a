/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Mar 11 10:40:31 2019 mstenber
 * Last modified: Fri Mar 15 09:12:47 2019 mstenber
 * Edit time:     6 min
 *
 */

// gid identifies the calling goroutine, so that interleaved trace
// lines of the fuse server threads can be told apart.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

var stackPrefix = []byte("goroutine ")

// GetGoroutineID parses the id out of the first line of the stack
// trace ("goroutine 42 [running]:"). Zero means it could not be
// parsed.
func GetGoroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	if !bytes.HasPrefix(b, stackPrefix) {
		return 0
	}
	b = b[len(stackPrefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
