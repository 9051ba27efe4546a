package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

// QueryService serves the read paths: bookable slots and booking history.
type QueryService struct {
	slots     repository.SlotStore
	bookings  repository.BookingStore
	details   *detailResolver
	projector *Projector
}

func NewQueryService(
	slots repository.SlotStore,
	bookings repository.BookingStore,
	users repository.UserDirectory,
	lessons repository.LessonCatalog,
	projector *Projector,
) *QueryService {
	return &QueryService{
		slots:     slots,
		bookings:  bookings,
		details:   &detailResolver{users: users, lessons: lessons, loc: projector.Location},
		projector: projector,
	}
}

// GetBookableSlots lists the teacher's slots from next Monday on, in the display zone,
// ordered by day then start. A slot is reported booked for studentID when the student
// holds an upcoming booking with the same start instant; (teacher_id, start_time) is
// unique, so the start identifies the slot.
func (s *QueryService) GetBookableSlots(ctx context.Context, teacherID, studentID string) ([]*model.SlotDetail, error) {
	if teacherID == "" {
		return nil, fmt.Errorf("teacher id is required: %w", ErrInvalidArgument)
	}

	slots, err := s.slots.ListByTeacherFrom(ctx, teacherID, s.projector.NextMonday())
	if err != nil {
		return nil, fmt.Errorf("get bookable slots: %w", err)
	}

	ownStarts := make(map[int64]struct{})
	if studentID != "" {
		own, err := s.bookings.ListUpcomingByStudent(ctx, studentID, teacherID)
		if err != nil {
			return nil, fmt.Errorf("get student bookings: %w", err)
		}
		for _, b := range own {
			ownStarts[b.StartTime.UnixNano()] = struct{}{}
		}
	}

	out := make([]*model.SlotDetail, 0, len(slots))
	for _, slot := range slots {
		d := model.NewSlotDetail(slot, s.projector.Location)
		if _, ok := ownStarts[slot.StartTime.UnixNano()]; ok {
			d.IsBooked = true
			d.BookedByStudent = true
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Start().Before(b.Start())
	})

	return out, nil
}

// GetBookingList returns bookings for a student, a teacher, or both.
// At least one of the two ids is required.
func (s *QueryService) GetBookingList(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetail, error) {
	if isBlank(filter.StudentID) && isBlank(filter.TeacherID) {
		return nil, fmt.Errorf("student or teacher id is required: %w", ErrInvalidArgument)
	}
	if isBlank(filter.StudentID) {
		filter.StudentID = nil
	}
	if isBlank(filter.TeacherID) {
		filter.TeacherID = nil
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get booking list: %w", err)
	}

	details, err := s.details.resolve(ctx, bookings)
	if err != nil {
		return nil, fmt.Errorf("get booking list: %w", err)
	}

	return details, nil
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
