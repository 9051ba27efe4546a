package model

import "time"

type BookableSlot struct {
	ID                string    `json:"id"`
	TeacherScheduleID *string   `json:"teacher_schedule_id"` // nil once the schedule row was replaced
	TeacherID         string    `json:"teacher_id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	IsBooked          bool      `json:"is_booked"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SlotDetail is a slot as shown to a student, in the display time zone.
type SlotDetail struct {
	BookableSlotID  string    `json:"bookable_slot_id"`
	DayOfWeek       DayOfWeek `json:"day_of_week"`
	Date            string    `json:"date"` // 2006-01-02
	StartTime       TimeOfDay `json:"start_time"`
	EndTime         TimeOfDay `json:"end_time"`
	IsBooked        bool      `json:"is_booked"`
	BookedByStudent bool      `json:"booked_by_student"`

	start time.Time
}

// NewSlotDetail projects slot into loc.
func NewSlotDetail(slot *BookableSlot, loc *time.Location) *SlotDetail {
	start := slot.StartTime.In(loc)
	end := slot.EndTime.In(loc)

	return &SlotDetail{
		BookableSlotID: slot.ID,
		DayOfWeek:      FromWeekday(start.Weekday()),
		Date:           start.Format(time.DateOnly),
		StartTime:      TimeOfDayOf(start),
		EndTime:        TimeOfDayOf(end),
		IsBooked:       slot.IsBooked,
		start:          start,
	}
}

// Start returns the absolute start instant.
func (d *SlotDetail) Start() time.Time {
	return d.start
}
