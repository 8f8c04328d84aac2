package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a minute-of-day offset.
// It is also accepted as an interval end meaning "midnight, end of day".
const MinutesPerDay = 24 * 60

const dateLayout = "2006-01-02"

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidInterval  = errors.New("start time must be before end time")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
)

// Clock abstracts wall-clock access so time-based rules can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// ParseMinute converts "HH:MM" or "HH:MM:SS" into a minute-of-day offset.
// "24:00" is accepted and yields MinutesPerDay. Seconds are truncated.
func ParseMinute(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ErrInvalidTimeOfDay
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 {
		return 0, ErrInvalidTimeOfDay
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || len(parts[2]) != 2 || sec < 0 || sec > 59 {
			return 0, ErrInvalidTimeOfDay
		}
	}

	if hour == 24 && minute == 0 {
		return MinutesPerDay, nil
	}
	if hour < 0 || hour > 23 {
		return 0, ErrInvalidTimeOfDay
	}
	return hour*60 + minute, nil
}

// FormatMinute renders a minute-of-day offset as "HH:MM".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// MinuteOf returns the minute-of-day of t in t's own location.
func MinuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight of d in UTC. Used as the value for DATE columns.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// At returns the instant at the given minute-of-day of d in loc.
func (d Date) At(minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, minute, 0, 0, loc)
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// MarshalText and UnmarshalText let Date travel as "YYYY-MM-DD" in JSON and query strings.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Interval is a half-open [Start, End) range of minutes within one day.
type Interval struct {
	Start int
	End   int
}

// NewInterval validates 0 <= start < end <= MinutesPerDay.
func NewInterval(start, end int) (Interval, error) {
	if start < 0 || end > MinutesPerDay || start >= end {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval builds an Interval from two "HH:MM" strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseMinute(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseMinute(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Overlaps reports strict overlap. Intervals that only touch at an endpoint do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

func (i Interval) Minutes() int {
	return i.End - i.Start
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i.Minutes()) * time.Minute
}

func (i Interval) Hours() float64 {
	return float64(i.Minutes()) / 60
}

func (i Interval) String() string {
	return "[" + FormatMinute(i.Start) + "," + FormatMinute(i.End) + ")"
}
