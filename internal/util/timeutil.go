package util

import "time"

// NowUTC is the single clock entry point for the attempt engine. All
// persisted timestamps are UTC; comparisons go through model.CompareUTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}
