//go:build linux

package io

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPinToCoreRestoresAffinity(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var before unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &before))

	core := -1
	for c := 0; c < 1024; c++ {
		if before.IsSet(c) {
			core = c
			break
		}
	}
	require.GreaterOrEqual(t, core, 0)

	release, err := pinToCore(core)
	require.NoError(t, err)

	var pinned unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &pinned))
	assert.Equal(t, 1, pinned.Count())
	assert.True(t, pinned.IsSet(core))

	release()

	var after unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &after))
	assert.Equal(t, before, after)
}
