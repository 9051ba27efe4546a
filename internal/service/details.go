package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

// detailResolver turns bookings into BookingDetail with names and titles resolved.
// Missing users or lessons resolve to empty strings.
type detailResolver struct {
	users   repository.UserDirectory
	lessons repository.LessonCatalog
	loc     *time.Location
}

func (r *detailResolver) resolve(ctx context.Context, bookings []*model.Booking) ([]*model.BookingDetail, error) {
	userIDs := make([]string, 0, len(bookings)*2)
	lessonIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		userIDs = append(userIDs, b.StudentID, b.TeacherID)
		lessonIDs = append(lessonIDs, b.LessonID)
	}

	users, err := r.users.GetByIDs(ctx, unique(userIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}

	lessons, err := r.lessons.GetByIDs(ctx, unique(lessonIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve lessons: %w", err)
	}

	details := make([]*model.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		d := r.bare(b)
		if u, ok := users[b.StudentID]; ok {
			d.StudentName = u.Username
		}
		if u, ok := users[b.TeacherID]; ok {
			d.TeacherName = u.Username
		}
		if l, ok := lessons[b.LessonID]; ok {
			d.LessonTitle = l.Title
		}
		details = append(details, d)
	}

	return details, nil
}

// bare converts without touching collaborators.
func (r *detailResolver) bare(b *model.Booking) *model.BookingDetail {
	return &model.BookingDetail{
		BookingID:      b.ID,
		BookableSlotID: b.BookableSlotID,
		TeacherID:      b.TeacherID,
		StudentID:      b.StudentID,
		LessonID:       b.LessonID,
		StartTime:      b.StartTime.In(r.loc),
		EndTime:        b.EndTime.In(r.loc),
		Status:         b.Status,
	}
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
