package vexfat

import (
	"time"
)

// Timestamp encodes t into the exFAT timestamp layout:
//  Bits 0–4:   2-second count, valid value range 0–29 inclusive (0 – 58 seconds).
//  Bits 5–10:  Minutes, valid value range 0–59 inclusive.
//  Bits 11–15: Hours, valid value range 0–23 inclusive.
//  Bits 16–20: Day of month, valid value range 1–31 inclusive.
//  Bits 21–24: Month of year, valid value range 1–12 inclusive.
//  Bits 25–31: Count of years from 1980, valid value range 0–127 inclusive (1980–2107).
// The odd second and the sub-second part are returned as the 10ms increment
// (0–199) which belongs next to each timestamp.
//
// t is converted to UTC first because the only UtcOffset written is UTCOffsetUTC.
// Instants outside 1980–2107 are clamped to the nearest representable one.
func Timestamp(t time.Time) (timestamp uint32, increment10ms uint8) {
	t = t.UTC()

	switch {
	case t.Year() < 1980:
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	case t.Year() > 2107:
		t = time.Date(2107, 12, 31, 23, 59, 59, 990*int(time.Millisecond), time.UTC)
	}

	timestamp = uint32(t.Second()/2) |
		uint32(t.Minute())<<5 |
		uint32(t.Hour())<<11 |
		uint32(t.Day())<<16 |
		uint32(t.Month())<<21 |
		uint32(t.Year()-1980)<<25

	increment10ms = uint8((t.Second()%2)*100 + t.Nanosecond()/int(10*time.Millisecond))
	return timestamp, increment10ms
}

// ParseTimestamp reads a timestamp and its 10ms increment back into a time.Time in UTC.
//
// As value 0 for day and month is invalid in exFAT timestamps
// the value time.Time{} is used to be compatible with time.Time.IsZero() if any of that cases occurs.
func ParseTimestamp(timestamp uint32, increment10ms uint8) time.Time {
	doubleSeconds := timestamp & 0x1F
	minute := timestamp >> 5 & 0x3F
	hour := timestamp >> 11 & 0x1F
	day := timestamp >> 16 & 0x1F
	month := timestamp >> 21 & 0x0F
	year := timestamp >> 25 & 0x7F

	if day == 0 || month == 0 {
		return time.Time{}
	}

	if increment10ms > 199 {
		increment10ms = 199
	}

	seconds := int(doubleSeconds)*2 + int(increment10ms)/100
	nanos := int(increment10ms%100) * int(10*time.Millisecond)

	return time.Date(1980+int(year), time.Month(month), int(day), int(hour), int(minute), seconds, nanos, time.UTC)
}
