// Package safefile provides regular-file-only reads for log tailing.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotRegularFile is returned when attempting to open a file that is not a regular file.
// This includes symlinks, FIFOs, devices, sockets, and directories.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens a file and verifies it is a regular file, both before
// opening (without following symlinks) and on the open descriptor.
//
// The caller must close the returned file when done.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	// First, lstat the path to detect symlinks
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}

	// Reject symlinks, FIFOs, devices, sockets, directories
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	// Stat the descriptor: the path may have been replaced since Lstat
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	return f, info, nil
}

// ReadFrom reads a regular file from offset up to the size observed when
// the file was opened, so bytes appended during the read are left for the
// next call. It returns the data and that size.
//
// If the file is shorter than offset, nothing is read and size reports the
// current length; the caller decides how to recover.
func ReadFrom(path string, offset int64) ([]byte, int64, error) {
	if offset < 0 {
		return nil, 0, fmt.Errorf("negative offset %d", offset)
	}

	f, info, err := OpenRegular(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	size := info.Size()
	if size <= offset {
		return nil, size, nil
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, size, err
	}
	data, err := io.ReadAll(io.LimitReader(f, size-offset))
	if err != nil {
		return nil, size, err
	}
	return data, size, nil
}
