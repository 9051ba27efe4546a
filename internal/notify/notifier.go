// Package notify delivers "new booking" events to teachers. Delivery is best effort:
// callers log failures and never roll back a booking because of them.
package notify

import (
	"context"
	"errors"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.BookingDetail) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) BookingCreated(context.Context, *model.BookingDetail) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) BookingCreated(ctx context.Context, booking *model.BookingDetail) error {
	var errs []error
	for _, n := range m {
		if err := n.BookingCreated(ctx, booking); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
