/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Mar  6 10:02:18 2019 mstenber
 * Last modified: Mon Mar 11 17:40:26 2019 mstenber
 * Edit time:     22 min
 *
 */

package fs

import "math/bits"

// bitmap is one bit per id, 1 = allocated. Bit i lives in byte i/8
// at position i%8. Only the first limit bits are usable; the rest of
// the on-disk region is padding.
type bitmap struct {
	bits   []byte
	offset int64
	limit  int
}

func (self *bitmap) get(i int) bool {
	return self.bits[i/8]&(1<<uint(i%8)) != 0
}

func (self *bitmap) set(i int, value bool) {
	if value {
		self.bits[i/8] |= 1 << uint(i%8)
	} else {
		self.bits[i/8] &^= 1 << uint(i%8)
	}
}

// findZero returns the lowest clear bit, or -1 if there is none.
func (self *bitmap) findZero() int {
	for bi, b := range self.bits {
		if b == 0xff {
			continue
		}
		i := bi*8 + bits.TrailingZeros8(^b)
		if i >= self.limit {
			break
		}
		return i
	}
	return -1
}

func (self *bitmap) count() (n int) {
	for i := 0; i < self.limit; i++ {
		if self.get(i) {
			n++
		}
	}
	return
}

func (self *bitmap) ones() (ret []int) {
	for i := 0; i < self.limit; i++ {
		if self.get(i) {
			ret = append(ret, i)
		}
	}
	return
}

// byteAt returns the on-disk position and content of the byte
// holding bit i.
func (self *bitmap) byteAt(i int) (int64, []byte) {
	return self.offset + int64(i/8), self.bits[i/8 : i/8+1]
}
