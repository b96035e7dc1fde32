package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abema/go-mp4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// dumpFile prints the box tree of the file, one box a line, with the decoded fields of the
// boxes the mp4 library knows. The media data payload is never read.
func dumpFile(w io.Writer, path string) (err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		return errors.Wrapf(err, "open %v", path)
	}
	defer f.Close()

	_, err = mp4.ReadBoxStructure(f, func(h *mp4.ReadHandle) (interface{}, error) {
		indent := strings.Repeat("  ", max(len(h.Path)-1, 0))
		info := h.BoxInfo
		fmt.Fprintf(w, "%v[%v] offset=%v size=%v\n", indent, info.Type.String(), info.Offset, info.Size)

		if !info.IsSupportedType() || info.Type == mp4.BoxTypeMdat() {
			return nil, nil
		}

		box, _, err := h.ReadPayload()
		if err != nil {
			log.Warnf("read payload of %v at %v failed, err is %v", info.Type.String(), info.Offset, err)
			return nil, nil
		}
		if str, err := mp4.Stringify(box, info.Context); err == nil && str != "" {
			fmt.Fprintf(w, "%v  %v\n", indent, str)
		}
		return h.Expand()
	})
	if err != nil {
		return errors.Wrapf(err, "read box structure of %v", path)
	}
	return nil
}
