/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Mar  2 12:19:12 2019 mstenber
 * Last modified: Mon Mar 11 10:02:44 2019 mstenber
 * Edit time:     4 min
 *
 */

package util

import (
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/fingon/go-blockfs/mlog"
)

func NewRandWithSeed(seedvalue int64) *rand.Rand {
	mlog.Printf2("util/random", "NewRandWithSeed %v", seedvalue)
	return rand.New(rand.NewSource(seedvalue))
}

// GetSeededRng returns rng seeded from SEED environment variable, or
// from current time if it is not set.
func GetSeededRng() *rand.Rand {
	seed := os.Getenv("SEED")
	seedvalue := time.Now().UnixNano()
	if seed != "" {
		v, err := strconv.Atoi(seed)
		if err != nil {
			log.Panic(err)
		}
		seedvalue = int64(v)
	}
	mlog.Printf2("util/random", "Seed: %v (use SEED= to fix)", seedvalue)
	return NewRandWithSeed(seedvalue)
}

// FillLetters fills b with random lowercase letters.
func FillLetters(rng *rand.Rand, b []byte) {
	for i := range b {
		b[i] = byte('a' + rng.Intn(26))
	}
}
