package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ScheduleService interface {
	Replace(ctx context.Context, in *model.WeeklySchedule) error
	Get(ctx context.Context, teacherID string) (*model.WeeklySchedule, error)
}

type BookingLedger interface {
	Book(ctx context.Context, req service.BookRequest) (*model.BookingDetail, error)
	Cancel(ctx context.Context, bookingID string) error
}

type QueryService interface {
	GetBookableSlots(ctx context.Context, teacherID, studentID string) ([]*model.SlotDetail, error)
	GetBookingList(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetail, error)
}

type SlotGenerator interface {
	GenerateForWeek(ctx context.Context, teacherID *string) (*service.GenerateResult, error)
}

// HealthChecker is satisfied by *pgxpool.Pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handlers serves the booking API.
type Handlers struct {
	schedules ScheduleService
	ledger    BookingLedger
	queries   QueryService
	generator SlotGenerator
	health    HealthChecker
	loc       *time.Location
	logger    *zap.Logger
}

func NewHandlers(
	schedules ScheduleService,
	ledger BookingLedger,
	queries QueryService,
	generator SlotGenerator,
	health HealthChecker,
	loc *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		schedules: schedules,
		ledger:    ledger,
		queries:   queries,
		generator: generator,
		health:    health,
		loc:       loc,
		logger:    logger,
	}
}

// ListResult wraps every collection response.
type ListResult[T any] struct {
	Items []T `json:"items"`
}

type addScheduleRequest struct {
	TeacherID     string              `json:"teacher_id"`
	Days          []model.DaySchedule `json:"teacher_day_schedules"`
	EffectiveFrom string              `json:"effective_from_date"`
	EffectiveTo   string              `json:"effective_to_date"`
}

type generateRequest struct {
	TeacherID string `json:"teacher_id"`
}

// AddSchedule handles POST /api/booking/addSchedule.
func (h *Handlers) AddSchedule(c echo.Context) error {
	var req addScheduleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	in := &model.WeeklySchedule{
		TeacherID: strings.TrimSpace(req.TeacherID),
		Days:      req.Days,
	}

	if req.EffectiveFrom != "" {
		from, _, err := parseDate(req.EffectiveFrom, h.loc)
		if err != nil {
			return badRequest("effective_from_date: " + err.Error())
		}
		in.EffectiveFrom = from
	}
	if req.EffectiveTo != "" {
		to, dateOnly, err := parseDate(req.EffectiveTo, h.loc)
		if err != nil {
			return badRequest("effective_to_date: " + err.Error())
		}
		// the end bound is exclusive, so a bare date keeps its whole day
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		in.EffectiveTo = &to
	}

	if err := h.schedules.Replace(c.Request().Context(), in); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}

// GetSchedule handles GET /api/booking/getSchedule/:teacher_id. A teacher without
// an active schedule yields a JSON null.
func (h *Handlers) GetSchedule(c echo.Context) error {
	schedule, err := h.schedules.Get(c.Request().Context(), c.Param("teacher_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, schedule)
}

// GetBookableSlots handles GET /api/booking/getBookableSlot/:teacher_id.
func (h *Handlers) GetBookableSlots(c echo.Context) error {
	slots, err := h.queries.GetBookableSlots(c.Request().Context(), c.Param("teacher_id"), c.QueryParam("student_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ListResult[*model.SlotDetail]{Items: nonNil(slots)})
}

// Book handles POST /api/booking/book.
func (h *Handlers) Book(c echo.Context) error {
	var req service.BookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	detail, err := h.ledger.Book(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, detail)
}

// GetBookingList handles GET /api/booking/getBookingList.
func (h *Handlers) GetBookingList(c echo.Context) error {
	var filter model.BookingFilter

	if v := c.QueryParam("student_id"); v != "" {
		filter.StudentID = &v
	}
	if v := c.QueryParam("teacher_id"); v != "" {
		filter.TeacherID = &v
	}
	if v := c.QueryParam("status"); v != "" {
		n, err := strconv.ParseInt(v, 10, 16)
		if err != nil || n < 0 {
			return badRequest("status must be a non-negative integer")
		}
		status := model.BookingStatus(n)
		filter.Status = &status
	}

	bookings, err := h.queries.GetBookingList(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ListResult[*model.BookingDetail]{Items: nonNil(bookings)})
}

// Cancel handles POST /api/booking/cancel/:booking_id.
func (h *Handlers) Cancel(c echo.Context) error {
	if err := h.ledger.Cancel(c.Request().Context(), c.Param("booking_id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}

// GenerateBookableSlots handles POST /api/booking/generateBookableSlot. An empty
// body regenerates next week for every teacher.
func (h *Handlers) GenerateBookableSlots(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("malformed request body")
	}

	var teacherID *string
	if id := strings.TrimSpace(req.TeacherID); id != "" {
		teacherID = &id
	}

	res, err := h.generator.GenerateForWeek(c.Request().Context(), teacherID)
	if err != nil {
		return err
	}

	h.logger.Info("On-demand slot generation finished",
		zap.Int("generated", res.Generated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))

	return c.JSON(http.StatusOK, res)
}

// Health handles GET /healthz.
func (h *Handlers) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// parseDate accepts RFC 3339 timestamps or bare dates; a bare date is midnight
// in loc and reports dateOnly.
func parseDate(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}

	t, err = time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 timestamp or YYYY-MM-DD, got %q", s)
	}

	return t, true, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
