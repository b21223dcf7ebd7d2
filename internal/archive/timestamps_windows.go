//go:build windows

package archive

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// clampCreationTime sets a future creation time to now
func clampCreationTime(path string, info os.FileInfo, now time.Time) (bool, error) {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false, nil
	}
	created := time.Unix(0, attrs.CreationTime.Nanoseconds())
	if !created.After(now) {
		return false, nil
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, err
	}
	h, err := windows.CreateFile(p, windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return false, err
	}
	defer windows.CloseHandle(h)

	ft := windows.NsecToFiletime(now.UnixNano())
	if err := windows.SetFileTime(h, &ft, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}
