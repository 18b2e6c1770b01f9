package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// A Timestamp is a time of day with minute granularity, as used for the
// configured tracking-hours window ("HH:MM").
type Timestamp struct {
	Hour, Minute int
}

// TimestampFromGotime extracts the time-of-day from a time.Time.
func TimestampFromGotime(t time.Time) Timestamp {
	return Timestamp{Hour: t.Hour(), Minute: t.Minute()}
}

// TimestampFromString parses a timestamp in strict "HH:MM" format.
func TimestampFromString(s string) (Timestamp, error) {
	components := strings.Split(s, ":")
	if len(components) != 2 || len(components[0]) != 2 || len(components[1]) != 2 {
		return Timestamp{}, fmt.Errorf("given string '%s' does not fit the HH:MM format", s)
	}
	h, err := strconv.Atoi(components[0])
	if err != nil {
		return Timestamp{}, fmt.Errorf("error converting hour string '%s' to a number (%w)", components[0], err)
	}
	m, err := strconv.Atoi(components[1])
	if err != nil {
		return Timestamp{}, fmt.Errorf("error converting minute string '%s' to a number (%w)", components[1], err)
	}
	result := Timestamp{Hour: h, Minute: m}
	if !result.Legal() {
		return Timestamp{}, fmt.Errorf("timestamp values out of range (%d) (%d)", h, m)
	}
	return result, nil
}

func (t Timestamp) ToString() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Legal verifies that the timestamp is a representable time of day.
func (t Timestamp) Legal() bool {
	return (t.Hour < 24 && t.Minute < 60) && (t.Hour >= 0 && t.Minute >= 0)
}

func (a Timestamp) IsBefore(b Timestamp) bool {
	if b.Hour > a.Hour {
		return true
	} else if b.Hour == a.Hour {
		return b.Minute > a.Minute
	} else {
		return false
	}
}

func (a Timestamp) IsAfter(b Timestamp) bool {
	if a.Hour > b.Hour {
		return true
	} else if a.Hour == b.Hour {
		return a.Minute > b.Minute
	} else {
		return false
	}
}

// DurationInMinutesUntil returns the duration in minutes to a given timestamp
// t2. Does not check that t2 is in fact later!
func (t1 Timestamp) DurationInMinutesUntil(t2 Timestamp) int {
	return t2.toMinutes() - t1.toMinutes()
}

// toMinutes returns the number of minutes into the day (from 00:00) that this
// timestamp is.
func (t Timestamp) toMinutes() int {
	return t.Hour*60 + t.Minute
}
