package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// ScheduleStore persists teacher_schedule rows.
type ScheduleStore interface {
	DeleteActiveByTeacher(ctx context.Context, teacherID string) (int64, error)
	CreateBatch(ctx context.Context, rows []*model.TeacherSchedule) error
	GetActiveByTeacher(ctx context.Context, teacherID string) ([]*model.TeacherSchedule, error)
	ListActive(ctx context.Context, teacherID *string) ([]*model.TeacherSchedule, error)
}

// SlotStore persists bookable_slot rows.
type SlotStore interface {
	LockTeacher(ctx context.Context, teacherID string) error
	ExistsFrom(ctx context.Context, teacherID string, from time.Time) (bool, error)
	CreateBatch(ctx context.Context, slots []*model.BookableSlot) (int64, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.BookableSlot, error)
	SetBooked(ctx context.Context, id string, booked bool) error
	ListByTeacherFrom(ctx context.Context, teacherID string, from time.Time) ([]*model.BookableSlot, error)
}

// BookingStore persists booking rows. List methods fill StartTime/EndTime from the slot.
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	ListUpcomingByStudent(ctx context.Context, studentID, teacherID string) ([]*model.Booking, error)
}

// UserDirectory resolves user ids into profiles.
type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// LessonCatalog resolves lesson ids into lessons.
type LessonCatalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Lesson, error)
}

// Stores groups the stores that take part in one unit of work.
type Stores struct {
	Schedules ScheduleStore
	Slots     SlotStore
	Bookings  BookingStore
}

// Transactor runs fn inside a transaction; fn's error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
