// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadFile reads a token or password file. Only the first line counts,
// with surrounding whitespace trimmed, so files written by editors or
// `echo` work unchanged. Files readable by group or others are
// refused. The caller must close the returned Buffer.
func ReadFile(path string) (*Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("secret: %s is not a regular file", path)
	}
	if permissions := info.Mode().Perm(); permissions&0o077 != 0 {
		return nil, fmt.Errorf("secret: %s is accessible by other users (mode %04o); run chmod 600 %s", path, permissions, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	defer Zero(data)

	line, _, _ := bytes.Cut(data, []byte("\n"))
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("secret: %s is empty", path)
	}
	return NewFromBytes(line)
}
