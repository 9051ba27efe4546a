package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

var errBoom = errors.New("boom")

// memDB is an in-memory stand-in for Postgres. Transactions are serialised by txMu,
// which plays the role of the row and advisory locks; a failed transaction restores
// the snapshot taken when it began.
type memDB struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	schedules map[string]model.TeacherSchedule
	slots     map[string]model.BookableSlot
	bookings  map[string]model.Booking
	users     map[string]*model.User
	lessons   map[string]*model.Lesson

	failOn map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		schedules: make(map[string]model.TeacherSchedule),
		slots:     make(map[string]model.BookableSlot),
		bookings:  make(map[string]model.Booking),
		users:     make(map[string]*model.User),
		lessons:   make(map[string]*model.Lesson),
		failOn:    make(map[string]error),
	}
}

func (db *memDB) stores() repository.Stores {
	return repository.Stores{
		Schedules: memSchedules{db},
		Slots:     memSlots{db},
		Bookings:  memBookings{db},
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := db.fail("WithinTx"); err != nil {
		return err
	}

	db.dataMu.Lock()
	schedules := cloneMap(db.schedules)
	slots := cloneMap(db.slots)
	bookings := cloneMap(db.bookings)
	db.dataMu.Unlock()

	if err := fn(ctx, db.stores()); err != nil {
		db.dataMu.Lock()
		db.schedules, db.slots, db.bookings = schedules, slots, bookings
		db.dataMu.Unlock()
		return err
	}

	return nil
}

func (db *memDB) setFail(op string, err error) {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	db.failOn[op] = err
}

func (db *memDB) fail(op string) error {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	return db.failOn[op]
}

func (db *memDB) addUser(id, name string) {
	db.users[id] = &model.User{ID: id, Username: name}
}

func (db *memDB) addLesson(id, title string) {
	db.lessons[id] = &model.Lesson{ID: id, Title: title}
}

func (db *memDB) addSlot(slot model.BookableSlot) {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	db.slots[slot.ID] = slot
}

func (db *memDB) slot(id string) model.BookableSlot {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	return db.slots[id]
}

func (db *memDB) booking(id string) model.Booking {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	return db.bookings[id]
}

func (db *memDB) allSlots() []model.BookableSlot {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	out := make([]model.BookableSlot, 0, len(db.slots))
	for _, s := range db.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (db *memDB) upcomingFor(slotID string) int {
	db.dataMu.Lock()
	defer db.dataMu.Unlock()
	n := 0
	for _, b := range db.bookings {
		if b.BookableSlotID == slotID && b.Status == model.BookingStatusUpcoming {
			n++
		}
	}
	return n
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memSchedules struct{ db *memDB }

func (s memSchedules) DeleteActiveByTeacher(_ context.Context, teacherID string) (int64, error) {
	if err := s.db.fail("Schedules.DeleteActiveByTeacher"); err != nil {
		return 0, err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	var n int64
	for id, row := range s.db.schedules {
		if row.TeacherID == teacherID && row.IsActive {
			delete(s.db.schedules, id)
			n++
		}
	}
	for id, slot := range s.db.slots {
		if slot.TeacherScheduleID != nil {
			if _, ok := s.db.schedules[*slot.TeacherScheduleID]; !ok {
				slot.TeacherScheduleID = nil
				s.db.slots[id] = slot
			}
		}
	}
	return n, nil
}

func (s memSchedules) CreateBatch(_ context.Context, rows []*model.TeacherSchedule) error {
	if err := s.db.fail("Schedules.CreateBatch"); err != nil {
		return err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	for _, row := range rows {
		row.CreatedAt = time.Now()
		row.UpdatedAt = row.CreatedAt
		s.db.schedules[row.ID] = *row
	}
	return nil
}

func (s memSchedules) GetActiveByTeacher(ctx context.Context, teacherID string) ([]*model.TeacherSchedule, error) {
	return s.ListActive(ctx, &teacherID)
}

func (s memSchedules) ListActive(_ context.Context, teacherID *string) ([]*model.TeacherSchedule, error) {
	if err := s.db.fail("Schedules.ListActive"); err != nil {
		return nil, err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	var out []*model.TeacherSchedule
	for _, row := range s.db.schedules {
		if !row.IsActive || (teacherID != nil && row.TeacherID != *teacherID) {
			continue
		}
		r := row
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		return a.StartTime < b.StartTime
	})
	return out, nil
}

type memSlots struct{ db *memDB }

func (s memSlots) LockTeacher(context.Context, string) error {
	return s.db.fail("Slots.LockTeacher")
}

func (s memSlots) ExistsFrom(_ context.Context, teacherID string, from time.Time) (bool, error) {
	if err := s.db.fail("Slots.ExistsFrom"); err != nil {
		return false, err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	for _, slot := range s.db.slots {
		if slot.TeacherID == teacherID && !slot.StartTime.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (s memSlots) CreateBatch(_ context.Context, slots []*model.BookableSlot) (int64, error) {
	if err := s.db.fail("Slots.CreateBatch"); err != nil {
		return 0, err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	var n int64
	for _, slot := range slots {
		conflict := false
		for _, existing := range s.db.slots {
			if existing.TeacherID == slot.TeacherID && existing.StartTime.Equal(slot.StartTime) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		s.db.slots[slot.ID] = *slot
		n++
	}
	return n, nil
}

func (s memSlots) get(id string) *model.BookableSlot {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	slot, ok := s.db.slots[id]
	if !ok {
		return nil
	}
	return &slot
}

func (s memSlots) GetByIDForUpdate(_ context.Context, id string) (*model.BookableSlot, error) {
	if err := s.db.fail("Slots.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return s.get(id), nil
}

func (s memSlots) SetBooked(_ context.Context, id string, booked bool) error {
	if err := s.db.fail("Slots.SetBooked"); err != nil {
		return err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	slot, ok := s.db.slots[id]
	if !ok {
		return errors.New("slot not found")
	}
	slot.IsBooked = booked
	s.db.slots[id] = slot
	return nil
}

func (s memSlots) ListByTeacherFrom(_ context.Context, teacherID string, from time.Time) ([]*model.BookableSlot, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	var out []*model.BookableSlot
	for _, slot := range s.db.slots {
		if slot.TeacherID == teacherID && !slot.StartTime.Before(from) {
			sl := slot
			out = append(out, &sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

type memBookings struct{ db *memDB }

func (s memBookings) Create(_ context.Context, b *model.Booking) error {
	if err := s.db.fail("Bookings.Create"); err != nil {
		return err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.db.bookings[b.ID] = *b
	return nil
}

func (s memBookings) GetByIDForUpdate(_ context.Context, id string) (*model.Booking, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	b, ok := s.db.bookings[id]
	if !ok {
		return nil, nil
	}
	s.withSlotTimes(&b)
	return &b, nil
}

func (s memBookings) UpdateStatus(_ context.Context, id string, status model.BookingStatus) error {
	if err := s.db.fail("Bookings.UpdateStatus"); err != nil {
		return err
	}
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	b, ok := s.db.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.Status = status
	s.db.bookings[id] = b
	return nil
}

func (s memBookings) List(_ context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	s.db.dataMu.Lock()
	defer s.db.dataMu.Unlock()

	var out []*model.Booking
	for _, b := range s.db.bookings {
		if f.StudentID != nil && b.StudentID != *f.StudentID {
			continue
		}
		if f.TeacherID != nil && b.TeacherID != *f.TeacherID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		bk := b
		s.withSlotTimes(&bk)
		out = append(out, &bk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s memBookings) ListUpcomingByStudent(ctx context.Context, studentID, teacherID string) ([]*model.Booking, error) {
	status := model.BookingStatusUpcoming
	return s.List(ctx, model.BookingFilter{StudentID: &studentID, TeacherID: &teacherID, Status: &status})
}

// withSlotTimes must be called with dataMu held.
func (s memBookings) withSlotTimes(b *model.Booking) {
	if slot, ok := s.db.slots[b.BookableSlotID]; ok {
		b.StartTime = slot.StartTime
		b.EndTime = slot.EndTime
	}
}

type memUsers struct{ db *memDB }

func (u memUsers) GetByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	if err := u.db.fail("Users.GetByIDs"); err != nil {
		return nil, err
	}
	out := make(map[string]*model.User)
	for _, id := range ids {
		if user, ok := u.db.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

type memLessons struct{ db *memDB }

func (l memLessons) GetByIDs(_ context.Context, ids []string) (map[string]*model.Lesson, error) {
	out := make(map[string]*model.Lesson)
	for _, id := range ids {
		if lesson, ok := l.db.lessons[id]; ok {
			out[id] = lesson
		}
	}
	return out, nil
}

// recordingNotifier captures delivered events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*model.BookingDetail
	err    error
}

func (n *recordingNotifier) BookingCreated(_ context.Context, b *model.BookingDetail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, b)
	return n.err
}

func (n *recordingNotifier) delivered() []*model.BookingDetail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*model.BookingDetail(nil), n.events...)
}
