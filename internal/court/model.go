package court

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "court not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "court name is required")
	ErrOwnerRequired    = apperror.New(http.StatusBadRequest, "court owner is required")
	ErrInvalidHours     = apperror.New(http.StatusBadRequest, "invalid operating hours")
	ErrInvalidPrice     = apperror.New(http.StatusBadRequest, "hourly price cannot be negative")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
)

// WeeklyHours maps a weekday to the interval the court is open on that day.
// A missing weekday means the court is closed.
type WeeklyHours map[time.Weekday]timewindow.Interval

type dayHoursJSON struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// MarshalJSON encodes hours as {"monday": {"open": "06:00", "close": "22:00"}}.
func (w WeeklyHours) MarshalJSON() ([]byte, error) {
	out := make(map[string]dayHoursJSON, len(w))
	for day, iv := range w {
		out[strings.ToLower(day.String())] = dayHoursJSON{
			Open:  timewindow.FormatMinute(iv.Start),
			Close: timewindow.FormatMinute(iv.End),
		}
	}
	return json.Marshal(out)
}

func (w *WeeklyHours) UnmarshalJSON(b []byte) error {
	var raw map[string]dayHoursJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	hours := make(WeeklyHours, len(raw))
	for name, dh := range raw {
		day, ok := ParseWeekday(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		iv, err := timewindow.ParseInterval(dh.Open, dh.Close)
		if err != nil {
			return fmt.Errorf("hours for %s: %w", name, err)
		}
		hours[day] = iv
	}
	*w = hours
	return nil
}

// ParseWeekday accepts full English weekday names in any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, true
		}
	}
	return 0, false
}

// Court represents a bookable resource owned by a third party.
type Court struct {
	ID             string
	OwnerID        string
	Name           string
	Description    string
	HourlyPrice    float64
	IsActive       bool
	OperatingHours WeeklyHours
	Rating         float64
	ReviewCount    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HoursOn returns the open interval for a weekday and false when the court is closed.
func (c *Court) HoursOn(day time.Weekday) (timewindow.Interval, bool) {
	iv, ok := c.OperatingHours[day]
	return iv, ok
}

// Filter defines parameters for listing courts.
type Filter struct {
	OwnerID   string
	IsActive  *bool
	Keyword   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
