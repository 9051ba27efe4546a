package service

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// NextWeekOccurrence returns the UTC instant of day/tod in the calendar week after now,
// as seen in loc. A target day equal to today is pushed a full week ahead.
func NextWeekOccurrence(now time.Time, loc *time.Location, day model.DayOfWeek, tod model.TimeOfDay) time.Time {
	local := now.In(loc)

	nativeTarget := int(day.Weekday())
	nativeToday := int(local.Weekday())

	delta := (nativeTarget - nativeToday + 7) % 7
	if delta == 0 {
		delta = 7
	}

	year, month, date := local.Date()
	h, m, s := tod.Clock()

	// time.Date normalises day overflow and DST gaps
	return time.Date(year, month, date+delta, h, m, s, 0, loc).UTC()
}

// NextMonday is the start of the generation window: next Monday 00:00 in loc.
func NextMonday(now time.Time, loc *time.Location) time.Time {
	return NextWeekOccurrence(now, loc, model.Monday, 0)
}

// Projector binds the projection to a fixed zone and clock.
type Projector struct {
	Location *time.Location
	Now      func() time.Time
}

func NewProjector(loc *time.Location) *Projector {
	return &Projector{Location: loc, Now: time.Now}
}

func (p *Projector) NextMonday() time.Time {
	return NextMonday(p.Now(), p.Location)
}
