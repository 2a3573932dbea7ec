/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct  5 10:02:17 2026 mstenber
 * Last modified: Fri Oct 16 09:12:44 2026 mstenber
 * Edit time:     47 min
 *
 */

// mlog is maybe-log. It wraps the standard 'log' package with a
// pattern that decides which call sites actually produce output:
//
// - the MLOG environment variable (or -mlog flag) is a regular
// expression matched against the tag given to Printf2 (or the source
// file name with Printf); by default nothing is printed, and a
// disabled mlog costs one atomic load per call
//
// - output is indented by call stack depth relative to the shallowest
// logged call, so nested engine operations read like a trace
package mlog

import (
	"flag"
	"log"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	stateUninitialized int32 = iota
	stateDisabled
	stateEnabled
)

const maxDepth = 100

var status = stateUninitialized

// everything below is protected by mutex
var (
	mutex       sync.Mutex
	logger      = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	flagPattern *string
	pattern     string
	patternRe   *regexp.Regexp
	tagEnabled  map[string]bool
	minDepth    int
	callers     []uintptr
)

func init() {
	flagPattern = flag.String("mlog", "", "Enable logging for tags matching the given regular expression")
	Reset()
}

// Reset returns the module to its initial state; the next log call
// re-reads the environment variable and flag.
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

// SetPattern overrides the pattern from the environment. The returned
// function restores the previous pattern.
func SetPattern(p string) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	old := pattern
	setPattern(p)
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		setPattern(old)
	}
}

func setPattern(p string) {
	pattern = p
	if p == "" {
		atomic.StoreInt32(&status, stateDisabled)
		return
	}
	patternRe = regexp.MustCompile(p)
	tagEnabled = make(map[string]bool)
	atomic.StoreInt32(&status, stateEnabled)
}

func initialize() {
	p := os.Getenv("MLOG")
	if *flagPattern != "" {
		p = *flagPattern
	}
	setPattern(p)
}

// Printf is drop-in replacement of log.Printf. The source file of the
// caller is used as the tag, which costs a runtime.Caller per call
// whenever mlog is enabled.
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

// Printf2 is the preferred variant; tag is typically "package/file"
// of the caller.
func Printf2(tag string, format string, args ...interface{}) {
	if atomic.LoadInt32(&status) == stateDisabled {
		return
	}
	mutex.Lock()
	defer mutex.Unlock()
	if atomic.LoadInt32(&status) == stateUninitialized {
		initialize()
		if atomic.LoadInt32(&status) != stateEnabled {
			return
		}
	}
	enabled, ok := tagEnabled[tag]
	if !ok {
		enabled = patternRe.MatchString(tag)
		tagEnabled[tag] = enabled
	}
	if !enabled {
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
	logger.Printf(format, args...)
}
