package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOfWeekWeekdayMapping(t *testing.T) {
	tests := []struct {
		day     DayOfWeek
		weekday time.Weekday
	}{
		{Monday, time.Monday},
		{Wednesday, time.Wednesday},
		{Saturday, time.Saturday},
		{Sunday, time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.day.String(), func(t *testing.T) {
			assert.Equal(t, tt.weekday, tt.day.Weekday())
			assert.Equal(t, tt.day, FromWeekday(tt.weekday))
		})
	}

	assert.False(t, DayOfWeek(7).Valid())
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: NewTimeOfDay(9, 0)},
		{in: "09:25:00", want: NewTimeOfDay(9, 25)},
		{in: "23:59:30", want: NewTimeOfDay(23, 59) + TimeOfDay(30*time.Second)},
		{in: "24:00", want: EndOfDay},
		{in: "24:00:00", want: EndOfDay},
		{in: "24:01", wantErr: true},
		{in: "24:00:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowJSON(t *testing.T) {
	var w Window
	require.NoError(t, json.Unmarshal([]byte(`{"start_time":"09:00","end_time":"09:25:00"}`), &w))
	assert.Equal(t, Window{Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(9, 25)}, w)

	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_time":"09:00:00","end_time":"09:25:00"}`, string(b))
}

func TestTeacherScheduleEffectiveAt(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := &TeacherSchedule{EffectiveFrom: from, EffectiveTo: &to}

	assert.False(t, s.EffectiveAt(from.Add(-time.Second)))
	assert.True(t, s.EffectiveAt(from))
	assert.True(t, s.EffectiveAt(to.Add(-time.Second)))
	assert.False(t, s.EffectiveAt(to))
	assert.False(t, s.EffectiveAt(to.Add(time.Second)))

	s.EffectiveTo = nil
	assert.True(t, s.EffectiveAt(to.AddDate(10, 0, 0)))
}

func TestNewSlotDetail(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	// Sunday 21:00 UTC is Monday 09:00 in Auckland
	start := time.Date(2024, 5, 19, 21, 0, 0, 0, time.UTC)
	d := NewSlotDetail(&BookableSlot{ID: "s", StartTime: start, EndTime: start.Add(25 * time.Minute)}, loc)

	assert.Equal(t, Monday, d.DayOfWeek)
	assert.Equal(t, "2024-05-20", d.Date)
	assert.Equal(t, NewTimeOfDay(9, 0), d.StartTime)
	assert.Equal(t, NewTimeOfDay(9, 25), d.EndTime)
	assert.True(t, d.Start().Equal(start))
}
