package recorder

import (
	"fmt"
	"time"
)

// FormatDuration renders d as HH:MM:SS, truncating to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// FormatDateTime renders t in local time as YYYY-MM-DD HH:MM:SS, or none
// when t is nil.
func FormatDateTime(t *time.Time, none string) string {
	if t == nil {
		return none
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
