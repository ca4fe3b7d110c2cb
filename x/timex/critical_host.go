//go:build !tinygo

package timex

import "runtime"

// DefaultCritical pins the calibrating goroutine to its OS thread. A hosted
// runtime cannot mask interrupts; this is the closest it gets to keeping the
// sample free of scheduler noise.
var DefaultCritical Critical = &threadLock{}

type threadLock struct{}

func (*threadLock) Enter() { runtime.LockOSThread() }
func (*threadLock) Exit()  { runtime.UnlockOSThread() }
