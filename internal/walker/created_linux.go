package walker

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// createdTime reads the birth time via statx, falling back to the
// modification time where the filesystem does not record one.
func createdTime(path string, fi fs.FileInfo) time.Time {
	var st unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &st); err != nil {
		return fi.ModTime()
	}
	if st.Mask&unix.STATX_BTIME == 0 {
		return fi.ModTime()
	}
	return time.Unix(st.Btime.Sec, int64(st.Btime.Nsec))
}
