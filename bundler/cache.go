// Package bundler builds the demo app and the library with esbuild.
package bundler

import (
	"os"
	"sync/atomic"
	"time"

	logx "github.com/ije/gox/log"
	"go.trai.ch/zerr"
)

// ErrEmptyOutput is returned when a build succeeds without producing code.
var ErrEmptyOutput = zerr.New("build produced empty output")

// Entry is a built bundle and the entry file's modification time (Unix
// milliseconds) it was built from.
type Entry struct {
	Code      string
	Timestamp int64
}

// Cache holds the last good bundle of a single entry file. Staleness is
// checked against the entry's mtime on every call. Concurrent callers that
// see a stale entry may each rebuild; the last store wins.
type Cache struct {
	entry   string
	builder Builder
	log     *logx.Logger
	current atomic.Pointer[Entry]
}

// NewCache returns an empty Cache for entry.
func NewCache(entry string, builder Builder, log *logx.Logger) *Cache {
	if log == nil {
		log = &logx.Logger{}
	}
	return &Cache{entry: entry, builder: builder, log: log}
}

// Bundle returns the cached code, rebuilding first when the entry file was
// modified after the cached build. A failed build leaves the cache as it was.
func (c *Cache) Bundle() (string, error) {
	fi, err := os.Stat(c.entry)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "stat entry"), "entry", c.entry)
	}
	mtime := fi.ModTime().UnixMilli()

	if e := c.current.Load(); e != nil && e.Timestamp >= mtime {
		return e.Code, nil
	}

	start := time.Now()
	code, err := c.builder.Build(c.entry)
	if err != nil {
		c.log.Errorf("Build %s failed: %v", c.entry, err)
		return "", err
	}
	if code == "" {
		return "", zerr.With(ErrEmptyOutput, "entry", c.entry)
	}

	c.current.Store(&Entry{Code: code, Timestamp: mtime})
	c.log.Debugf("Build %s in %v (%d bytes)", c.entry, time.Since(start), len(code))
	return code, nil
}

// Current returns the cached entry, or nil before the first good build.
func (c *Cache) Current() *Entry {
	return c.current.Load()
}

// Invalidate drops the cached entry so the next Bundle call rebuilds.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}
