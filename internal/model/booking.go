package model

import "time"

type BookingStatus int16

// Codes 1 and 3 exist in stored data and client filters but no transition assigns them.
const (
	BookingStatusUpcoming BookingStatus = 0
	BookingStatusCanceled BookingStatus = 2
)

func (s BookingStatus) String() string {
	switch s {
	case BookingStatusUpcoming:
		return "upcoming"
	case BookingStatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type Booking struct {
	ID             string        `json:"id"`
	StudentID      string        `json:"student_id"`
	TeacherID      string        `json:"teacher_id"`
	BookableSlotID string        `json:"bookable_slot_id"`
	LessonID       string        `json:"lesson_id"`
	Status         BookingStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Filled by joins, not stored on the booking row
	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`
}

// BookingFilter selects bookings for history listings. Nil fields are not applied.
type BookingFilter struct {
	StudentID *string
	TeacherID *string
	Status    *BookingStatus
}

// BookingDetail is a booking with resolved names, in the display time zone.
type BookingDetail struct {
	BookingID      string        `json:"booking_id"`
	BookableSlotID string        `json:"bookable_slot_id"`
	TeacherID      string        `json:"teacher_id"`
	TeacherName    string        `json:"teacher_name"`
	StudentID      string        `json:"student_id"`
	StudentName    string        `json:"student_name"`
	LessonID       string        `json:"lesson_id"`
	LessonTitle    string        `json:"lesson_title"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Status         BookingStatus `json:"status"`
}
