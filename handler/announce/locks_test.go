package announce

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistrySingleWinner(t *testing.T) {
	reg := NewLockRegistry()

	var wg sync.WaitGroup
	var wins atomic.Int32
	for n := 0; n < 32; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Acquire("announce-1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestLockRegistryReleaseAllowsReacquire(t *testing.T) {
	reg := NewLockRegistry()

	require.True(t, reg.Acquire("announce-1"))
	require.False(t, reg.Acquire("announce-1"))

	reg.Release("announce-1")
	assert.True(t, reg.Acquire("announce-1"))
}

func TestLockRegistryKeysAreIndependent(t *testing.T) {
	reg := NewLockRegistry()

	require.True(t, reg.Acquire("announce-1"))
	assert.True(t, reg.Acquire("announce-2"))
}
