//go:build !linux

package walker

import (
	"io/fs"
	"time"
)

func createdTime(_ string, fi fs.FileInfo) time.Time {
	return fi.ModTime()
}
