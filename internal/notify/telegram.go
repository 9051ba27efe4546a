package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

const newBookingText = "A new booking has been made for your slot by a student!"

// ChatResolver finds the Telegram chat linked to a user.
type ChatResolver interface {
	TelegramChatID(ctx context.Context, userID string) (int64, bool, error)
}

// TelegramNotifier pushes a message to the teacher's Telegram chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chats  ChatResolver
	loc    *time.Location
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chats ChatResolver, loc *time.Location, logger *zap.Logger, opts ...bot.Option) (*TelegramNotifier, error) {
	// the notifier only sends, it never polls for updates
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    b,
		chats:  chats,
		loc:    loc,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) BookingCreated(ctx context.Context, booking *model.BookingDetail) error {
	chatID, ok, err := n.chats.TelegramChatID(ctx, booking.TeacherID)
	if err != nil {
		return fmt.Errorf("resolve teacher chat: %w", err)
	}
	if !ok {
		n.logger.Debug("Teacher has no linked Telegram chat",
			zap.String("teacher_id", booking.TeacherID))
		return nil
	}

	_, err = n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   FormatBookingMessage(booking, n.loc),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

// FormatBookingMessage renders the text sent to the teacher.
func FormatBookingMessage(booking *model.BookingDetail, loc *time.Location) string {
	start := booking.StartTime.In(loc)
	end := booking.EndTime.In(loc)

	text := newBookingText + "\n\n"
	if booking.StudentName != "" {
		text += "Student: " + booking.StudentName + "\n"
	}
	if booking.LessonTitle != "" {
		text += "Lesson: " + booking.LessonTitle + "\n"
	}
	text += fmt.Sprintf("When: %s, %s-%s", start.Format("Mon 02 Jan 2006"), start.Format("15:04"), end.Format("15:04"))

	return text
}
