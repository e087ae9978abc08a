/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Mar  2 12:03:40 2019 mstenber
 * Last modified: Mon Mar 11 09:31:12 2019 mstenber
 * Edit time:     12 min
 *
 */

package util

import (
	"fmt"
)

// CeilDiv returns a/b rounded up; b must be positive.
func CeilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func IMin(i int, ints ...int) int {
	for _, v := range ints {
		if v < i {
			i = v
		}
	}
	return i
}

func SOr(strings ...string) string {
	for _, v := range strings {
		if v != "" {
			return v
		}
	}
	return ""
}

// ReadableSize renders byte count the way ls -h does: values above
// 999 move to the next unit (K, M), and below 10 one decimal is shown.
func ReadableSize(n int64) string {
	units := []string{"", "K", "M"}
	v := float64(n)
	i := 0
	for v > 999 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d", n)
	}
	if v < 10 {
		return fmt.Sprintf("%.1f%s", v, units[i])
	}
	return fmt.Sprintf("%.0f%s", v, units[i])
}
