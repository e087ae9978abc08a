/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Mar  2 12:14:51 2019 mstenber
 * Last modified: Sat Mar  2 12:16:20 2019 mstenber
 * Edit time:     1 min
 *
 */

package util

import "sync"

// MutexLocked is sync.Mutex with convenience feature: just defer
// x.Locked()() to hold it for the rest of the function.
type MutexLocked sync.Mutex

func (self *MutexLocked) Locked() (unlock func()) {
	mut := (*sync.Mutex)(self)
	mut.Lock()
	return func() {
		mut.Unlock()
	}
}
