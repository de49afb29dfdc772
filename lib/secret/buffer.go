// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds one credential in locked, non-dumpable memory that is
// zeroed on Close. A Buffer must not be copied. Reading a closed
// Buffer panics.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// New allocates a zero-filled Buffer of size bytes. The caller must
// Close it.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}
	data, err := lockedRegion(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data}, nil
}

// NewFromBytes moves source into a new Buffer: the bytes are copied
// and source is zeroed in place.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errors.New("secret: cannot create buffer from empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.data, source)
	Zero(source)
	return buffer, nil
}

// NewFromString copies value into a new Buffer. The string stays on
// the heap until collected; use this only where the credential already
// arrived as a string (an inline config value, a login response).
func NewFromString(value string) (*Buffer, error) {
	return NewFromBytes([]byte(value))
}

// Clone copies the credential into an independent Buffer with its own
// lifetime. Sessions clone the token they are built from so that the
// caller may close its copy.
func (b *Buffer) Clone() (*Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpen()

	clone, err := New(len(b.data))
	if err != nil {
		return nil, err
	}
	copy(clone.data, b.data)
	return clone, nil
}

// Bytes returns the credential. The slice points into the locked
// region and must not outlive the Buffer.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpen()
	return b.data
}

// String returns a heap copy of the credential for API boundaries that
// need one: the login request body and the Authorization header.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkOpen()
	return string(b.data)
}

// Len returns the credential length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Close zeros and releases the region. Calling it again is a no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	data := b.data
	b.data = nil
	return releaseRegion(data)
}

func (b *Buffer) checkOpen() {
	if b.closed {
		panic("secret: read from closed buffer")
	}
}

// lockedRegion maps an anonymous region that is locked against swap
// and excluded from core dumps.
func lockedRegion(size int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock failed (check RLIMIT_MEMLOCK): %w", err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}
	return data, nil
}

func releaseRegion(data []byte) error {
	Zero(data)
	var errs []error
	if err := unix.Munlock(data); err != nil {
		errs = append(errs, fmt.Errorf("secret: munlock failed: %w", err))
	}
	if err := unix.Munmap(data); err != nil {
		errs = append(errs, fmt.Errorf("secret: munmap failed: %w", err))
	}
	return errors.Join(errs...)
}

// Zero overwrites data with zero bytes.
func Zero(data []byte) {
	clear(data)
}
