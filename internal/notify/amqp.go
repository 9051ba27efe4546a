package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

const RoutingKeyBookingCreated = "booking.created"

// BookingCreatedEvent is the JSON body published on the exchange.
type BookingCreatedEvent struct {
	BookingID      string    `json:"booking_id"`
	BookableSlotID string    `json:"bookable_slot_id"`
	TeacherID      string    `json:"teacher_id"`
	StudentID      string    `json:"student_id"`
	LessonID       string    `json:"lesson_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewBookingCreatedEvent(b *model.BookingDetail, now time.Time) BookingCreatedEvent {
	return BookingCreatedEvent{
		BookingID:      b.BookingID,
		BookableSlotID: b.BookableSlotID,
		TeacherID:      b.TeacherID,
		StudentID:      b.StudentID,
		LessonID:       b.LessonID,
		StartTime:      b.StartTime.UTC(),
		EndTime:        b.EndTime.UTC(),
		OccurredAt:     now.UTC(),
	}
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes booking events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) BookingCreated(ctx context.Context, booking *model.BookingDetail) error {
	return p.PublishJSON(ctx, RoutingKeyBookingCreated, NewBookingCreatedEvent(booking, time.Now()))
}

// PublishJSON publishes v as a persistent JSON message.
func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
