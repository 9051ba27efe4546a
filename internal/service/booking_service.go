package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultNotifyTimeout = 10 * time.Second

// BookRequest identifies who books which slot for which lesson.
type BookRequest struct {
	StudentID      string `json:"student_id"`
	LessonID       string `json:"lesson_id"`
	BookableSlotID string `json:"bookable_slot_id"`
}

// BookingService is the booking ledger: it claims and releases slots.
type BookingService struct {
	tx       repository.Transactor
	details  *detailResolver
	notifier notify.Notifier
	logger   *zap.Logger

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

func NewBookingService(
	tx repository.Transactor,
	users repository.UserDirectory,
	lessons repository.LessonCatalog,
	notifier notify.Notifier,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &BookingService{
		tx:            tx,
		details:       &detailResolver{users: users, lessons: lessons, loc: loc},
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Book claims a free slot for the student. The slot row stays locked until commit,
// so of two concurrent calls for one slot only the first succeeds; the second gets
// ErrAlreadyBooked. The teacher is notified after commit.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (detail *model.BookingDetail, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.Book")
	defer func() { endSpan(span, err) }()

	if req.StudentID == "" || req.LessonID == "" || req.BookableSlotID == "" {
		return nil, fmt.Errorf("student, lesson and slot ids are required: %w", ErrInvalidArgument)
	}
	span.SetAttributes(
		attribute.String("bookable_slot_id", req.BookableSlotID),
		attribute.String("student_id", req.StudentID),
	)

	var booking *model.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		slot, err := st.Slots.GetByIDForUpdate(ctx, req.BookableSlotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return fmt.Errorf("slot %s: %w", req.BookableSlotID, ErrNotFound)
		}
		if slot.IsBooked {
			return ErrAlreadyBooked
		}

		booking = &model.Booking{
			ID:             uuid.NewString(),
			StudentID:      req.StudentID,
			TeacherID:      slot.TeacherID,
			BookableSlotID: slot.ID,
			LessonID:       req.LessonID,
			Status:         model.BookingStatusUpcoming,
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
		}

		if err := st.Bookings.Create(ctx, booking); err != nil {
			// partial unique index on upcoming bookings
			if base.IsUniqueViolation(err) {
				return ErrAlreadyBooked
			}
			return err
		}

		return st.Slots.SetBooked(ctx, slot.ID, true)
	})
	if err != nil {
		return nil, fmt.Errorf("book slot: %w", err)
	}

	s.logger.Info("Slot booked",
		zap.String("booking_id", booking.ID),
		zap.String("student_id", booking.StudentID),
		zap.String("teacher_id", booking.TeacherID),
		zap.String("slot_id", booking.BookableSlotID),
		zap.Time("start_time", booking.StartTime),
	)

	details, err := s.details.resolve(ctx, []*model.Booking{booking})
	if err != nil {
		// the booking is committed; return it without names
		s.logger.Warn("Failed to resolve booking details",
			zap.String("booking_id", booking.ID),
			zap.Error(err))
		detail = s.details.bare(booking)
	} else {
		detail = details[0]
	}

	s.notifyTeacher(ctx, detail)

	return detail, nil
}

// Cancel moves an upcoming booking to Canceled and frees its slot in one transaction.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (err error) {
	ctx, span := tracer.Start(ctx, "BookingService.Cancel")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("booking_id", bookingID))

	var booking *model.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		b, err := st.Bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
		}
		if b.Status != model.BookingStatusUpcoming {
			return fmt.Errorf("booking %s has status %s: %w", bookingID, b.Status, ErrNotCancelable)
		}

		if err := st.Bookings.UpdateStatus(ctx, b.ID, model.BookingStatusCanceled); err != nil {
			return err
		}
		if err := st.Slots.SetBooked(ctx, b.BookableSlotID, false); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.logger.Info("Booking canceled",
		zap.String("booking_id", booking.ID),
		zap.String("slot_id", booking.BookableSlotID),
		zap.String("student_id", booking.StudentID),
	)

	return nil
}

// Wait blocks until in-flight notifications finish.
func (s *BookingService) Wait() {
	s.pending.Wait()
}

func (s *BookingService) notifyTeacher(ctx context.Context, detail *model.BookingDetail) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.BookingCreated(ctx, detail); err != nil {
			s.logger.Warn("Failed to notify teacher about booking",
				zap.String("booking_id", detail.BookingID),
				zap.String("teacher_id", detail.TeacherID),
				zap.Error(err),
			)
		}
	}()
}
