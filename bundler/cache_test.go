package bundler

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBuilder struct {
	mock.Mock
}

func (m *mockBuilder) Build(entry string) (string, error) {
	args := m.Called(entry)
	return args.String(0), args.Error(1)
}

func setupEntry(t *testing.T) (string, time.Time) {
	t.Helper()
	entry := filepath.Join(t.TempDir(), "index.tsx")
	require.NoError(t, os.WriteFile(entry, []byte("export {};\n"), 0644))
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(entry, mtime, mtime))
	return entry, mtime
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestCacheHitWithoutRebuild(t *testing.T) {
	entry, _ := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("console.log(1);", nil).Once()

	c := NewCache(entry, b, nil)
	first, err := c.Bundle()
	require.NoError(t, err)
	second, err := c.Bundle()
	require.NoError(t, err)

	assert.Equal(t, "console.log(1);", first)
	assert.Equal(t, first, second)
	b.AssertNumberOfCalls(t, "Build", 1)
}

func TestCacheRebuildsOnceAfterModification(t *testing.T) {
	entry, mtime := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("v1", nil).Once()
	b.On("Build", entry).Return("v2", nil).Once()

	c := NewCache(entry, b, nil)
	code, err := c.Bundle()
	require.NoError(t, err)
	require.Equal(t, "v1", code)

	touch(t, entry, mtime.Add(2*time.Second))
	code, err = c.Bundle()
	require.NoError(t, err)
	assert.Equal(t, "v2", code)

	code, err = c.Bundle()
	require.NoError(t, err)
	assert.Equal(t, "v2", code)
	b.AssertNumberOfCalls(t, "Build", 2)
	assert.Equal(t, mtime.Add(2*time.Second).UnixMilli(), c.Current().Timestamp)
}

func TestCacheIgnoresOlderModificationTime(t *testing.T) {
	entry, mtime := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("v1", nil).Once()

	c := NewCache(entry, b, nil)
	_, err := c.Bundle()
	require.NoError(t, err)

	touch(t, entry, mtime.Add(-time.Hour))
	code, err := c.Bundle()
	require.NoError(t, err)
	assert.Equal(t, "v1", code)
	b.AssertNumberOfCalls(t, "Build", 1)
}

func TestCacheKeepsEntryOnFailure(t *testing.T) {
	entry, mtime := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("v1", nil).Once()
	b.On("Build", entry).Return("", errors.New("Expected \";\" but found \"}\"")).Once()
	b.On("Build", entry).Return("v3", nil).Once()

	c := NewCache(entry, b, nil)
	_, err := c.Bundle()
	require.NoError(t, err)
	before := c.Current()

	touch(t, entry, mtime.Add(time.Second))
	_, err = c.Bundle()
	require.Error(t, err)
	assert.ErrorContains(t, err, `Expected ";"`)
	assert.Same(t, before, c.Current())

	code, err := c.Bundle()
	require.NoError(t, err)
	assert.Equal(t, "v3", code)
	b.AssertNumberOfCalls(t, "Build", 3)
}

func TestCacheRejectsEmptyOutput(t *testing.T) {
	entry, _ := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("", nil)

	c := NewCache(entry, b, nil)
	_, err := c.Bundle()
	require.Error(t, err)
	assert.ErrorContains(t, err, "build produced empty output")
	assert.Nil(t, c.Current())
}

func TestCacheMissingEntry(t *testing.T) {
	b := &mockBuilder{}
	c := NewCache(filepath.Join(t.TempDir(), "missing.tsx"), b, nil)

	_, err := c.Bundle()
	require.Error(t, err)
	assert.ErrorContains(t, err, "stat entry")
	b.AssertNotCalled(t, "Build", mock.Anything)
}

func TestCacheInvalidate(t *testing.T) {
	entry, _ := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("v1", nil).Twice()

	c := NewCache(entry, b, nil)
	_, err := c.Bundle()
	require.NoError(t, err)

	c.Invalidate()
	assert.Nil(t, c.Current())
	_, err = c.Bundle()
	require.NoError(t, err)
	b.AssertNumberOfCalls(t, "Build", 2)
}

func TestCacheConcurrentReaders(t *testing.T) {
	entry, _ := setupEntry(t)
	b := &mockBuilder{}
	b.On("Build", entry).Return("v1", nil)

	c := NewCache(entry, b, nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := c.Bundle()
			assert.NoError(t, err)
			assert.Equal(t, "v1", code)
		}()
	}
	wg.Wait()
	assert.Equal(t, "v1", c.Current().Code)
}
