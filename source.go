package main

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// loadFile returns the whole file and a function releasing it. With mmap the file is mapped
// read-only where the platform allows, otherwise it is read into memory.
func loadFile(path string, mmap bool) (data []byte, release func() error, err error) {
	noop := func() error { return nil }

	if mmap {
		if data, release, err = mapFile(path); err == nil {
			log.Tracef("mapped %v, %v bytes", path, len(data))
			return
		}
		log.Warnf("map %v failed, read it instead, err is %v", path, err)
	}

	if data, err = os.ReadFile(path); err != nil {
		return nil, nil, errors.Wrapf(err, "read %v", path)
	}
	log.Tracef("read %v, %v bytes", path, len(data))
	return data, noop, nil
}
