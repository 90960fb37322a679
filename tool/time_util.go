package tool

import (
	"time"
)

var (
	l, _ = time.LoadLocation("UTC")
)

func MakeTimestamp() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

func MakeDate(timestamp int64) string {
	timeFormat := "2006-01-02 15:04:05(UTC)"
	return time.Unix(timestamp/1000, 0).In(l).Format(timeFormat)
}

// FormatMessageTime 消息时间显示格式 HH:MM
func FormatMessageTime(t time.Time) string {
	return t.Local().Format("15:04")
}
