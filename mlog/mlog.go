/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Mar  2 10:41:33 2019 mstenber
 * Last modified: Sun Mar 10 18:12:40 2019 mstenber
 * Edit time:     41 min
 *
 */

// mlog is maybe-log. It is a small wrapper of standard 'log' which
// prints only what the MLOG environment variable (or -mlog flag)
// pattern matches against the calling file name. What is not printed
// costs next to nothing, so the engine can trace every allocation.
//
// Call stack depth is used to indent the output, so nested operations
// (e.g. recursive copy) read as a tree.
package mlog

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fingon/go-blockfs/util/gid"
)

const (
	stateUninitialized int32 = iota
	stateInitializing
	stateDisabled
	stateEnabled
)

const maxDepth = 100

var (
	logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)

	// status is accessed atomically; everything below it only
	// with mutex held.
	status int32 = stateUninitialized

	mutex       sync.Mutex
	flagPattern *string
	pattern     string
	matcher     *regexp.Regexp
	fileMatches map[string]bool
	minDepth    int
	callers     []uintptr

	// DumpGids prefixes each line with the goroutine id. The engine
	// is single-threaded, so it is off by default; the fuse adapter
	// turns it on.
	DumpGids = false
)

func init() {
	flagPattern = flag.String("mlog", "", "Enable logging based on the given file/line regular expression")
	Reset()
}

// Reset returns the module to its default state; the next Printf
// call will read the pattern from the environment again.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	atomic.StoreInt32(&status, stateUninitialized)
	minDepth = maxDepth
	callers = make([]uintptr, maxDepth)
}

// IsEnabled can be used to check if mlog is in use at all before
// doing something expensive.
func IsEnabled() bool {
	return atomic.LoadInt32(&status) != stateDisabled
}

// SetLogger overrides the output logger. The returned function
// restores the previous one.
func SetLogger(l *log.Logger) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	old := logger
	logger = l
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = old
	}
}

// SetPattern sets the file pattern by hand, overriding the
// environment. The returned function restores the previous pattern.
func SetPattern(p string) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	old := pattern
	usePattern(p)
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		usePattern(old)
	}
}

func usePattern(p string) {
	pattern = p
	if p == "" {
		atomic.StoreInt32(&status, stateDisabled)
		return
	}
	matcher = regexp.MustCompile(p)
	fileMatches = make(map[string]bool)
	atomic.StoreInt32(&status, stateEnabled)
}

func initialize() {
	if !atomic.CompareAndSwapInt32(&status, stateUninitialized, stateInitializing) {
		return
	}
	p := os.Getenv("MLOG")
	if *flagPattern != "" {
		p = *flagPattern
	}
	usePattern(p)
}

// Printf is drop-in replacement of log.Printf. It calls
// runtime.Caller to find the file name if mlog is enabled at all;
// Printf2 avoids that.
func Printf(format string, args ...interface{}) {
	if atomic.LoadInt32(&status) == stateDisabled {
		return
	}
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	Printf2(file, format, args...)
}

// Printf2 is supplied with the (partial) name of the file, and has no
// runtime penalty to speak of when the pattern does not match.
func Printf2(file string, format string, args ...interface{}) {
	st := atomic.LoadInt32(&status)
	if st == stateDisabled {
		return
	}
	mutex.Lock()
	defer mutex.Unlock()
	if st < stateDisabled {
		initialize()
		if atomic.LoadInt32(&status) != stateEnabled {
			return
		}
	}
	matched, seen := fileMatches[file]
	if !seen {
		matched = matcher.MatchString(file)
		fileMatches[file] = matched
	}
	if !matched {
		return
	}
	depth := runtime.Callers(1, callers)
	if depth < minDepth {
		minDepth = depth
	}
	depth -= minDepth
	if depth > 0 {
		format = strings.Repeat(".", depth) + format
	}
	if DumpGids {
		format = fmt.Sprintf("%8d %s", gid.GetGoroutineID(), format)
	}
	logger.Printf(format, args...)
}

// Warnf is always printed, regardless of the pattern; it is used for
// conditions the user should see even without tracing (e.g. a name
// being truncated).
func Warnf(format string, args ...interface{}) {
	mutex.Lock()
	defer mutex.Unlock()
	logger.Printf("warning: "+format, args...)
}

// Panicf logs and panics. It is used for device I/O failures after the
// image has been opened; nothing sensible can be done about those.
func Panicf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	mutex.Lock()
	logger.Output(2, s)
	mutex.Unlock()
	panic(s)
}
