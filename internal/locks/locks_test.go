package locks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirMutex_TryLock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mutex := newDirMutex(dir)
	defer func() { _ = mutex.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	result := <-mutex.TryLock(ctx, 50*time.Millisecond)

	assert.True(t, result.Success, "Should successfully acquire the lock")
	assert.Nil(t, result.Error)
	assert.Equal(t, 0, result.Attempt, "Should succeed on the first attempt")
	assert.FileExists(t, filepath.Join(dir, LockFileName))
}

func TestDirMutex_Contention(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mutex1 := newDirMutex(dir)
	mutex2 := newDirMutex(dir)
	defer func() {
		_ = mutex1.Unlock()
		_ = mutex2.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := <-mutex1.TryLock(ctx, 50*time.Millisecond)
	require.True(t, result.Success, "First mutex should acquire the lock")

	resultCh2 := mutex2.TryLock(ctx, 50*time.Millisecond)
	result2 := <-resultCh2
	assert.False(t, result2.Success, "Second mutex should fail to acquire the lock")
	assert.Nil(t, result2.Error, "Second mutex should not return an error yet")
	assert.Equal(t, 0, result2.Attempt)

	require.NoError(t, mutex1.Unlock())

	for result := range resultCh2 {
		require.NoError(t, result.Error)
		if result.Success {
			break
		}
		if result.Attempt > 20 {
			t.Fatal("Timed out waiting for second mutex to acquire the lock")
		}
	}
}

func TestDirMutex_LockTimesOut(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	holder := newDirMutex(dir)
	require.NoError(t, holder.Lock(context.Background(), 10*time.Millisecond, time.Second))
	defer func() { _ = holder.Unlock() }()

	err := newDirMutex(dir).Lock(context.Background(), 10*time.Millisecond, 100*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestForDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, dir)
	require.NoError(t, err)

	assert.Same(t, ForDir(dir), ForDir(dir))
	assert.Equal(t, filepath.Join(dir, LockFileName), ForDir(dir).Path())
	assert.Same(t, ForDir(dir), ForDir(rel))
}
