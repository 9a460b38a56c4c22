package utils

import (
    "fmt"
    "time"
)

// FormatRemaining renders a remaining lifetime in the coarse form clients
// display next to the refresh token: "2d 5h", "5h 12m" or "12m". Negative
// durations render as "0m".
func FormatRemaining(d time.Duration) string {
    secs := int64(d / time.Second)
    if secs < 0 {
        secs = 0
    }
    days := secs / (24 * 60 * 60)
    hours := (secs % (24 * 60 * 60)) / (60 * 60)
    minutes := (secs % (60 * 60)) / 60

    if days > 0 {
        return fmt.Sprintf("%dd %dh", days, hours)
    }
    if hours > 0 {
        return fmt.Sprintf("%dh %dm", hours, minutes)
    }
    return fmt.Sprintf("%dm", minutes)
}
