package lockfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "state.json")
	locker := New(filePath, DefaultConfig())

	release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	release()

	release, err = locker.Acquire(context.Background())
	require.NoError(t, err)
	release()
}

func TestAcquireTimesOut(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "state.json")
	config := Config{Retries: 2, MinDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Factor: 2}

	holder := New(filePath, config)
	release, err := holder.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	contender := New(filePath, config)
	_, err = contender.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestJitterBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		delay := jitter(100 * time.Millisecond)
		assert.GreaterOrEqual(t, delay, 50*time.Millisecond)
		assert.Less(t, delay, 100*time.Millisecond)
	}
}
