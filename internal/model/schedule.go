package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayOfWeek uses its own numbering: 0 = Monday, 6 = Sunday.
type DayOfWeek uint8

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// FromWeekday converts Go's native numbering (Sunday = 0) into DayOfWeek.
func FromWeekday(w time.Weekday) DayOfWeek {
	return DayOfWeek((int(w) + 6) % 7)
}

// Weekday converts back into Go's native numbering.
func (d DayOfWeek) Weekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

func (d DayOfWeek) Valid() bool {
	return d <= Sunday
}

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DayOfWeek(%d)", uint8(d))
	}
	return dayNames[d]
}

// TimeOfDay offset from local midnight.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from hours and minutes.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// EndOfDay is "24:00", the only value past 23:59:59 that parses.
const EndOfDay = TimeOfDay(24 * time.Hour)

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS", plus "24:00[:00]" as a
// window end.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse time of day %q: expected HH:MM or HH:MM:SS", s)
	}

	limits := []int{24, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}

	var d time.Duration
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("parse time of day %q: %w", s, err)
		}
		if v < 0 || v > limits[i] {
			return 0, fmt.Errorf("parse time of day %q: out of range", s)
		}
		d += time.Duration(v) * units[i]
	}
	if d > EndOfDay.Duration() {
		return 0, fmt.Errorf("parse time of day %q: out of range", s)
	}

	return TimeOfDay(d), nil
}

// TimeOfDayOf extracts the wall-clock offset of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second)
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

func (t TimeOfDay) Clock() (hour, minute, second int) {
	d := time.Duration(t)
	return int(d / time.Hour), int(d % time.Hour / time.Minute), int(d % time.Minute / time.Second)
}

func (t TimeOfDay) String() string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Window is a half-open [Start, End) range within one day.
type Window struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

type DaySchedule struct {
	DayOfWeek DayOfWeek `json:"day_of_week"`
	Windows   []Window  `json:"durations"`
}

// WeeklySchedule is a teacher's schedule grouped by day.
type WeeklySchedule struct {
	TeacherID     string        `json:"teacher_id"`
	Days          []DaySchedule `json:"teacher_day_schedules"`
	EffectiveFrom time.Time     `json:"effective_from_date"`
	EffectiveTo   *time.Time    `json:"effective_to_date,omitempty"`
}

// TeacherSchedule is one teacher_schedule row: a single window on a single day.
type TeacherSchedule struct {
	ID            string     `json:"id"`
	TeacherID     string     `json:"teacher_id"`
	DayOfWeek     DayOfWeek  `json:"day_of_week"`
	StartTime     TimeOfDay  `json:"start_time"`
	EndTime       TimeOfDay  `json:"end_time"`
	EffectiveFrom time.Time  `json:"effective_from_date"`
	EffectiveTo   *time.Time `json:"effective_to_date"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// EffectiveAt reports whether t falls into [EffectiveFrom, EffectiveTo).
func (s *TeacherSchedule) EffectiveAt(t time.Time) bool {
	if t.Before(s.EffectiveFrom) {
		return false
	}
	if s.EffectiveTo != nil && !t.Before(*s.EffectiveTo) {
		return false
	}
	return true
}
