package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// A Date identifies a calendar day.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateFromGotime takes the date components of a time.Time.
func DateFromGotime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

var dateFormatRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// DateFromString parses a date in "YYYY-MM-DD" format.
func DateFromString(s string) (Date, error) {
	parsed := dateFormatRegex.FindStringSubmatch(s)
	if len(parsed) != 4 {
		return Date{}, fmt.Errorf("string '%s' does not fit the YYYY-MM-DD format", s)
	}

	year, _ := strconv.Atoi(parsed[1])
	month, _ := strconv.Atoi(parsed[2])
	day, _ := strconv.Atoi(parsed[3])

	result := Date{Year: year, Month: month, Day: day}
	if !result.Valid() {
		return Date{}, fmt.Errorf("date '%s' is not a valid calendar day", s)
	}
	return result, nil
}

func (d Date) ToString() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	if d.Day < 1 || d.Day > d.lastOfMonth().Day {
		return false
	}
	return true
}

// ToGotime returns midnight (local) of this date.
func (d Date) ToGotime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.Local)
}

func (d Date) Prev() Date {
	return DateFromGotime(d.ToGotime().AddDate(0, 0, -1))
}

func (d Date) Next() Date {
	return DateFromGotime(d.ToGotime().AddDate(0, 0, 1))
}

func (d Date) Forward(by int) Date {
	return DateFromGotime(d.ToGotime().AddDate(0, 0, by))
}

func (d Date) IsBefore(other Date) bool {
	return d.ToGotime().Before(other.ToGotime())
}

func (d Date) IsAfter(other Date) bool {
	return d.ToGotime().After(other.ToGotime())
}

// WeekBounds returns the Monday and Sunday of the week containing this date.
func (d Date) WeekBounds() (monday Date, sunday Date) {
	t := d.ToGotime()
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := t.AddDate(0, 0, -offset+1)
	return DateFromGotime(start), DateFromGotime(start.AddDate(0, 0, 6))
}

func (d Date) lastOfMonth() Date {
	firstOfMonth := time.Date(d.Year, time.Month(d.Month), 1, 0, 0, 0, 0, time.Local)
	return DateFromGotime(firstOfMonth.AddDate(0, 1, -1))
}
