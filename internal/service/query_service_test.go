package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQueryService(db *memDB, loc *time.Location, now time.Time) *QueryService {
	projector := &Projector{Location: loc, Now: func() time.Time { return now }}
	st := db.stores()
	return NewQueryService(st.Slots, st.Bookings, memUsers{db}, memLessons{db}, projector)
}

func TestGetBookableSlots(t *testing.T) {
	loc := auckland(t)
	db := newMemDB()
	now := time.Date(2024, 5, 15, 10, 0, 0, 0, loc)

	at := func(day, hour int) time.Time { return time.Date(2024, 5, day, hour, 0, 0, 0, loc).UTC() }
	for _, s := range []model.BookableSlot{
		{ID: "past", TeacherID: "teacher-1", StartTime: at(13, 9), EndTime: at(13, 10)},
		{ID: "fri", TeacherID: "teacher-1", StartTime: at(24, 9), EndTime: at(24, 10)},
		{ID: "mon-late", TeacherID: "teacher-1", StartTime: at(20, 15), EndTime: at(20, 16)},
		{ID: "mon-early", TeacherID: "teacher-1", StartTime: at(20, 9), EndTime: at(20, 10)},
		{ID: "sun", TeacherID: "teacher-1", StartTime: at(26, 9), EndTime: at(26, 10)},
		{ID: "other", TeacherID: "teacher-2", StartTime: at(21, 9), EndTime: at(21, 10)},
	} {
		db.addSlot(s)
	}

	got, err := newQueryService(db, loc, now).GetBookableSlots(context.Background(), "teacher-1", "")
	require.NoError(t, err)

	var ids []string
	for _, d := range got {
		ids = append(ids, d.BookableSlotID)
	}
	assert.Equal(t, []string{"mon-early", "mon-late", "fri", "sun"}, ids)

	first := got[0]
	assert.Equal(t, model.Monday, first.DayOfWeek)
	assert.Equal(t, "2024-05-20", first.Date)
	assert.Equal(t, model.NewTimeOfDay(9, 0), first.StartTime)
	assert.Equal(t, model.NewTimeOfDay(10, 0), first.EndTime)
	assert.False(t, first.IsBooked)

	assert.Equal(t, model.Sunday, got[3].DayOfWeek)
}

func TestGetBookableSlots_MergesStudentBookings(t *testing.T) {
	loc := auckland(t)
	f := newLedgerFixture(t)
	ctx := context.Background()

	second := f.start.Add(time.Hour)
	f.db.addSlot(model.BookableSlot{ID: "slot-2", TeacherID: "teacher-1", StartTime: second, EndTime: second.Add(25 * time.Minute)})
	f.db.addSlot(model.BookableSlot{ID: "slot-3", TeacherID: "teacher-1", StartTime: second.Add(time.Hour), EndTime: second.Add(85 * time.Minute), IsBooked: true})

	_, err := f.ledger.Book(ctx, bookReq("student-1"))
	require.NoError(t, err)
	f.ledger.Wait()

	svc := newQueryService(f.db, loc, time.Date(2024, 5, 15, 10, 0, 0, 0, loc))

	got, err := svc.GetBookableSlots(ctx, "teacher-1", "student-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "slot-1", got[0].BookableSlotID)
	assert.True(t, got[0].IsBooked)
	assert.True(t, got[0].BookedByStudent)

	assert.False(t, got[1].IsBooked)
	assert.False(t, got[1].BookedByStudent)

	assert.True(t, got[2].IsBooked)
	assert.False(t, got[2].BookedByStudent)

	// another student sees the slot booked, but not as theirs
	got, err = svc.GetBookableSlots(ctx, "teacher-1", "student-2")
	require.NoError(t, err)
	assert.True(t, got[0].IsBooked)
	assert.False(t, got[0].BookedByStudent)
}

func TestGetBookingList(t *testing.T) {
	loc := auckland(t)
	f := newLedgerFixture(t)
	ctx := context.Background()

	booked, err := f.ledger.Book(ctx, bookReq("student-1"))
	require.NoError(t, err)
	f.ledger.Wait()

	svc := newQueryService(f.db, loc, time.Date(2024, 5, 15, 10, 0, 0, 0, loc))
	student := "student-1"
	teacher := "teacher-1"

	got, err := svc.GetBookingList(ctx, model.BookingFilter{StudentID: &student})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, booked.BookingID, got[0].BookingID)
	assert.Equal(t, "Aroha", got[0].StudentName)
	assert.Equal(t, "Ms Rangi", got[0].TeacherName)
	assert.Equal(t, "Beginner Piano", got[0].LessonTitle)
	assert.True(t, got[0].StartTime.Equal(f.start))

	canceled := model.BookingStatusCanceled
	got, err = svc.GetBookingList(ctx, model.BookingFilter{TeacherID: &teacher, Status: &canceled})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, f.ledger.Cancel(ctx, booked.BookingID))
	got, err = svc.GetBookingList(ctx, model.BookingFilter{StudentID: &student, TeacherID: &teacher, Status: &canceled})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.BookingStatusCanceled, got[0].Status)
}

func TestGetBookingList_RequiresAnID(t *testing.T) {
	loc := auckland(t)
	svc := newQueryService(newMemDB(), loc, time.Now())
	empty := ""

	_, err := svc.GetBookingList(context.Background(), model.BookingFilter{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.GetBookingList(context.Background(), model.BookingFilter{StudentID: &empty, TeacherID: &empty})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Monday 09:00-09:25 schedule, generated on a Wednesday, listed and booked twice.
func TestScenario_GenerateListBook(t *testing.T) {
	ctx := context.Background()
	f := newGeneratorFixture(t)
	f.db.addUser("teacher-1", "Ms Rangi")
	f.db.addLesson("lesson-1", "Beginner Piano")

	f.replace(t, "teacher-1", model.DaySchedule{DayOfWeek: model.Monday, Windows: []model.Window{window(9, 0, 9, 25)}})
	_, err := f.generator.GenerateForWeek(ctx, nil)
	require.NoError(t, err)

	query := newQueryService(f.db, f.loc, f.now)
	slots, err := query.GetBookableSlots(ctx, "teacher-1", "student-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.False(t, slots[0].IsBooked)
	assert.Equal(t, model.Monday, slots[0].DayOfWeek)
	assert.Equal(t, "2024-05-20", slots[0].Date)

	ledger := NewBookingService(f.db, memUsers{f.db}, memLessons{f.db}, nil, f.loc, zap.NewNop())
	detail, err := ledger.Book(ctx, BookRequest{StudentID: "student-1", LessonID: "lesson-1", BookableSlotID: slots[0].BookableSlotID})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", detail.TeacherID)
	assert.True(t, detail.StartTime.Equal(time.Date(2024, 5, 20, 9, 0, 0, 0, f.loc)))
	assert.True(t, detail.EndTime.Equal(time.Date(2024, 5, 20, 9, 25, 0, 0, f.loc)))

	_, err = ledger.Book(ctx, BookRequest{StudentID: "student-2", LessonID: "lesson-1", BookableSlotID: slots[0].BookableSlotID})
	require.ErrorIs(t, err, ErrAlreadyBooked)
	ledger.Wait()
}
