//go:build unix

package main

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func mapFile(path string) (data []byte, release func() error, err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		return nil, nil, errors.Wrapf(err, "open %v", path)
	}
	defer f.Close()

	var fi os.FileInfo
	if fi, err = f.Stat(); err != nil {
		return nil, nil, errors.Wrapf(err, "stat %v", path)
	}
	// mmap rejects empty lengths.
	if fi.Size() == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	if int64(int(fi.Size())) != fi.Size() {
		return nil, nil, errors.Errorf("%v too large to map, %v bytes", path, fi.Size())
	}

	if data, err = unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED); err != nil {
		return nil, nil, errors.Wrapf(err, "mmap %v", path)
	}
	release = func() error {
		return unix.Munmap(data)
	}
	return
}
