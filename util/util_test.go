/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Mar  2 12:10:02 2019 mstenber
 * Last modified: Mon Mar 11 09:33:40 2019 mstenber
 * Edit time:     6 min
 *
 */

package util

import (
	"testing"

	"github.com/stvp/assert"
)

func TestCeilDiv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CeilDiv(0, 1024), int64(0))
	assert.Equal(t, CeilDiv(1, 1024), int64(1))
	assert.Equal(t, CeilDiv(1024, 1024), int64(1))
	assert.Equal(t, CeilDiv(1025, 1024), int64(2))
}

func TestMinOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, IMin(3, 7, 1, 5), 1)
	assert.Equal(t, SOr("", "x", "y"), "x")
	assert.Equal(t, SOr("", ""), "")
}

func TestReadableSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ReadableSize(0), "0")
	assert.Equal(t, ReadableSize(999), "999")
	assert.Equal(t, ReadableSize(1000), "1.0K")
	assert.Equal(t, ReadableSize(1024), "1.0K")
	assert.Equal(t, ReadableSize(1536), "1.5K")
	assert.Equal(t, ReadableSize(20*1024), "20K")
	assert.Equal(t, ReadableSize(16*1024*1024), "16M")
	assert.Equal(t, ReadableSize(2*1024*1024), "2.0M")
}

func TestFillLetters(t *testing.T) {
	t.Parallel()

	b := make([]byte, 100)
	FillLetters(NewRandWithSeed(42), b)
	for _, c := range b {
		assert.True(t, c >= 'a' && c <= 'z')
	}
}
