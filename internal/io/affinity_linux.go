//go:build linux

package io

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore locks the calling goroutine to its OS thread and binds that thread to one CPU.
// The caller must call the returned release function when done. Release restores the previous
// affinity before unlocking; if that fails the thread stays locked and is discarded by the
// runtime when the goroutine exits.
func pinToCore(core int) (func(), error) {
	runtime.LockOSThread()

	var previous unix.CPUSet
	if err := unix.SchedGetaffinity(0, &previous); err != nil {
		runtime.UnlockOSThread()
		return func() {}, err
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return func() {}, err
	}

	return func() {
		if err := unix.SchedSetaffinity(0, &previous); err != nil {
			return
		}
		runtime.UnlockOSThread()
	}, nil
}
