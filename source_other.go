//go:build !unix

package main

import "github.com/pkg/errors"

func mapFile(path string) ([]byte, func() error, error) {
	return nil, nil, errors.Errorf("mmap not supported on this platform, %v", path)
}
