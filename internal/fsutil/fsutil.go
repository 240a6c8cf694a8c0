/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package fsutil is the filesystem collaborator the core handlers depend
// on: existence/permission probes, reads, writes, directory listing. None
// of it is specific to HTTP; it exists so handlers never call os.* directly.
package fsutil

import (
	"os"
	"path/filepath"
	"syscall"
)

// Exists reports whether path names an existing filesystem entry.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsReadable reports whether path can currently be opened for reading.
func IsReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// IsWritable reports whether path's containing directory would currently
// accept a new or replaced file at that name.
func IsWritable(path string) bool {
	target := path
	if !Exists(path) {
		target = filepath.Dir(path)
	}
	return syscall.Access(target, 0x2) == nil // W_OK
}

// Size returns path's byte length.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Read returns path's full contents.
func Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Write creates or truncates path and writes data to it.
func Write(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// Unlink removes the file at path.
func Unlink(path string) error {
	return os.Remove(path)
}

// Mkdir creates path and any missing parents with the given mode.
func Mkdir(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}

// Entry is one child of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// ListDirectory returns path's children, excluding "." and "..".
func ListDirectory(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), IsDir: de.IsDir(), Size: info.Size()})
	}
	return entries, nil
}

// IsSafePath rejects traversal attempts, NUL bytes, and raw control bytes
// in a request-derived path before it ever reaches the filesystem.
func IsSafePath(p string) bool {
	for i := 0; i < len(p); i++ {
		if p[i] == 0 || p[i] < 0x20 {
			return false
		}
	}
	return !containsDotDotSegment(p)
}

func containsDotDotSegment(p string) bool {
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if p[start:i] == ".." {
				return true
			}
			start = i + 1
		}
	}
	return false
}
