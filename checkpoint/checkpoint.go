// Package checkpoint decorates errors with the location they passed through,
// building a short trace while keeping every decorated error reachable through
// errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From records the caller location on err.
// It returns nil for a nil err and passes io.EOF and io.ErrUnexpectedEOF through
// untouched, as callers compare those with ==.
func From(err error) error {
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}
	return newCheckpoint(err, nil)
}

// Wrap records the caller location on prev and attaches reason, a second error
// describing what failed at this point. Both stay visible to errors.Is:
//  var ErrGeometry = errors.New("invalid volume geometry")
//
//  func check() error {
//  	return checkpoint.Wrap(fmt.Errorf("sector shift %d", shift), ErrGeometry)
//  }
//
//  errors.Is(check(), ErrGeometry) // true
// Wrap returns nil if prev is nil and io.EOF if prev is io.EOF.
func Wrap(prev, reason error) error {
	if prev == nil || prev == io.EOF {
		return prev
	}
	return newCheckpoint(reason, prev)
}

type checkpoint struct {
	reason error
	prev   error

	file string
	line int
}

func newCheckpoint(reason, prev error) *checkpoint {
	// Skip newCheckpoint and the exported helper calling it.
	_, file, line, ok := runtime.Caller(2)
	c := &checkpoint{reason: reason, prev: prev}
	if ok {
		c.file = filepath.Base(file)
		c.line = line
	}
	return c
}

func (c *checkpoint) location() string {
	if c.file == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", c.file, c.line)
}

func (c *checkpoint) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "at %s\n\t%v", c.location(), c.reason)
	if c.prev == nil {
		return b.String()
	}

	if _, ok := c.prev.(*checkpoint); ok {
		b.WriteString("\n" + c.prev.Error())
		return b.String()
	}
	b.WriteString("\nat unknown\n\t" + strings.ReplaceAll(c.prev.Error(), "\n", "\n\t"))
	return b.String()
}

func (c *checkpoint) Unwrap() error {
	return c.prev
}

func (c *checkpoint) Is(target error) bool {
	return errors.Is(c.reason, target)
}

func (c *checkpoint) As(target interface{}) bool {
	return errors.As(c.reason, target)
}
