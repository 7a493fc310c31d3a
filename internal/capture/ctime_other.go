//go:build !linux

package capture

import (
	"os"
	"time"
)

func changeTime(os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
