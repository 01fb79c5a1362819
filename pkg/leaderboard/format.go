package leaderboard

import (
	"fmt"
	"math"
	"time"
)

// FormatTime renders seconds as mm:ss.t, truncating to tenths.
func FormatTime(seconds float64) string {
	if !(seconds > 0) {
		seconds = 0
	}
	totalMs := int64(math.Floor(seconds * 1000))
	minutes := totalMs / 60000
	remaining := totalMs % 60000
	secs := remaining / 1000
	tenths := (remaining % 1000) / 100
	return fmt.Sprintf("%02d:%02d.%d", minutes, secs, tenths)
}

// PositionLabel is the name of a leaderboard entry, e.g. "P2 • 10/18/2026".
func PositionLabel(position int, date time.Time) string {
	return fmt.Sprintf("P%d • %s", position, date.Local().Format("1/2/2006"))
}
