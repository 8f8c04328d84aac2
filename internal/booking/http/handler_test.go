package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

const (
	courtID   = "7f8c2a52-5a0e-4d5c-9a53-3c3f3c8f4a10"
	bookingID = "0b0e4b4e-8a8a-4d8e-b0a7-5f1c7d0f9e21"
	renterID  = "renter-1"
	ownerID   = "owner-1"
)

// stubService overrides only what the handler tests touch.
type stubService struct {
	booking.Service

	created    booking.CreateRequest
	createErr  error
	stored     *booking.Booking
	transition func(actor booking.Actor, action booking.Action) (*booking.Booking, error)
	lastFilter booking.Filter
	free       []timewindow.Interval
	reclaimed  int
	completed  int
	completes  int
}

func (s *stubService) Create(_ context.Context, req booking.CreateRequest) (*booking.Booking, error) {
	s.created = req
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &booking.Booking{
		ID: bookingID, CourtID: req.CourtID, RenterID: req.RenterID, OwnerID: ownerID,
		Date: req.Date, Slot: req.Slot, Status: booking.StatusPending, PaymentStatus: booking.PaymentUnpaid,
	}, nil
}

func (s *stubService) GetByID(context.Context, string) (*booking.Booking, error) {
	if s.stored == nil {
		return nil, booking.ErrNotFound
	}
	return s.stored, nil
}

func (s *stubService) List(_ context.Context, f booking.Filter) ([]*booking.Booking, int, error) {
	s.lastFilter = f
	return []*booking.Booking{s.stored}, 1, nil
}

func (s *stubService) Transition(_ context.Context, _ string, actor booking.Actor, action booking.Action, _ string) (*booking.Booking, error) {
	return s.transition(actor, action)
}

func (s *stubService) Availability(context.Context, string, timewindow.Date) ([]timewindow.Interval, error) {
	return s.free, nil
}

func (s *stubService) SweepStalePending(context.Context, time.Duration) (int, error) {
	return s.reclaimed, nil
}

func (s *stubService) CompleteElapsed(context.Context) (int, error) {
	s.completes++
	return s.completed, nil
}

func (s *stubService) IsWithinPendingWindow(b *booking.Booking) bool {
	return b.Status == booking.StatusPending
}

type testEnv struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	svc    *stubService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, true)
}

func newTestEnvWith(t *testing.T, autoComplete bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, request.RegisterValidators())

	env := &testEnv{
		jwt: auth.NewJWTManager("test-secret", time.Minute),
		svc: &stubService{
			stored: &booking.Booking{
				ID: bookingID, CourtID: courtID, CourtName: "Center Court",
				RenterID: renterID, OwnerID: ownerID,
				Date:   timewindow.Date{Year: 2026, Month: time.February, Day: 8},
				Slot:   timewindow.Interval{Start: 18 * 60, End: 20 * 60},
				Status: booking.StatusConfirmed,
			},
		},
	}
	env.router = gin.New()
	RegisterRoutes(env.router.Group("/v1"), NewHandler(env.svc, 10*time.Minute, autoComplete),
		auth.AuthRequired(env.jwt), auth.RequireRole(auth.RoleAdmin))
	return env
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateBookingHandler(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, renterID, auth.RoleRenter)

	t.Run("Success", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"court_id": courtID, "date": "2026-02-08", "start_time": "18:00", "end_time": "20:00",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "18:00", resp.StartTime)
		assert.Equal(t, "20:00", resp.EndTime)
		assert.Equal(t, "2026-02-08", resp.Date)
		assert.True(t, resp.WithinPendingWindow)
		assert.Equal(t, renterID, env.svc.created.RenterID, "renter comes from the token")
	})

	t.Run("Bad time format", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"court_id": courtID, "date": "2026-02-08", "start_time": "6pm", "end_time": "20:00",
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Reversed interval", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"court_id": courtID, "date": "2026-02-08", "start_time": "20:00", "end_time": "18:00",
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Conflict", func(t *testing.T) {
		env.svc.createErr = booking.ErrTimeConflict
		defer func() { env.svc.createErr = nil }()

		w := env.executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"court_id": courtID, "date": "2026-02-08", "start_time": "18:00", "end_time": "20:00",
		}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "time slot already booked")
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/bookings", map[string]any{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTransitionHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Too late to cancel", func(t *testing.T) {
		env.svc.transition = func(booking.Actor, booking.Action) (*booking.Booking, error) {
			return nil, apperror.Wrap(booking.ErrTooLateToCancel, http.StatusUnprocessableEntity,
				"too late to cancel: cancellations close 24h00m before start, 3h00m remaining")
		}
		w := env.executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/transitions",
			map[string]string{"action": "cancel"}, env.token(t, renterID, auth.RoleRenter))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "3h00m remaining")
	})

	t.Run("Actor is taken from the token", func(t *testing.T) {
		var got booking.Actor
		env.svc.transition = func(actor booking.Actor, action booking.Action) (*booking.Booking, error) {
			got = actor
			b := *env.svc.stored
			b.Status = booking.StatusConfirmed
			return &b, nil
		}
		w := env.executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/transitions",
			map[string]string{"action": "approve"}, env.token(t, ownerID, auth.RoleOwner))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, booking.Actor{ID: ownerID, Role: booking.RoleOwner}, got)
	})

	t.Run("Unknown action", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/transitions",
			map[string]string{"action": "pause"}, env.token(t, ownerID, auth.RoleOwner))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid id", func(t *testing.T) {
		w := env.executeRequest(http.MethodPost, "/v1/bookings/not-a-uuid/transitions",
			map[string]string{"action": "approve"}, env.token(t, ownerID, auth.RoleOwner))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetBookingAccess(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		userID string
		role   string
		want   int
	}{
		{name: "renter", userID: renterID, role: auth.RoleRenter, want: http.StatusOK},
		{name: "court owner", userID: ownerID, role: auth.RoleOwner, want: http.StatusOK},
		{name: "admin", userID: "admin-1", role: auth.RoleAdmin, want: http.StatusOK},
		{name: "other owner", userID: "owner-2", role: auth.RoleOwner, want: http.StatusForbidden},
		{name: "stranger", userID: "renter-2", role: auth.RoleRenter, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, env.token(t, tt.userID, tt.role))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestListBookingsScope(t *testing.T) {
	env := newTestEnv(t)

	w := env.executeRequest(http.MethodGet, "/v1/bookings?renter_id="+courtID, nil, env.token(t, renterID, auth.RoleRenter))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, renterID, env.svc.lastFilter.RenterID, "non-admins cannot list other renters")

	w = env.executeRequest(http.MethodGet, "/v1/bookings?view=owner", nil, env.token(t, ownerID, auth.RoleOwner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ownerID, env.svc.lastFilter.OwnerID)
	assert.Empty(t, env.svc.lastFilter.RenterID)

	w = env.executeRequest(http.MethodGet, "/v1/bookings?date_from=2026-02-10&date_to=2026-02-01", nil, env.token(t, "admin-1", auth.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandler(t *testing.T) {
	env := newTestEnv(t)
	env.svc.free = []timewindow.Interval{{Start: 6 * 60, End: 18 * 60}, {Start: 20 * 60, End: 22 * 60}}

	w := env.executeRequest(http.MethodGet, "/v1/bookings/availability?court_id="+courtID+"&date=2026-02-08", nil, env.token(t, renterID, auth.RoleRenter))
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []SlotResponse{
		{StartTime: "06:00", EndTime: "18:00"},
		{StartTime: "20:00", EndTime: "22:00"},
	}, resp.Slots)
}

func TestSweepRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.executeRequest(http.MethodPost, "/v1/bookings/sweep", nil, env.token(t, ownerID, auth.RoleOwner))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSweepHonorsAutoComplete(t *testing.T) {
	tests := []struct {
		name          string
		autoComplete  bool
		wantCompleted int
		wantCalls     int
	}{
		{name: "enabled", autoComplete: true, wantCompleted: 3, wantCalls: 1},
		{name: "disabled", autoComplete: false, wantCompleted: 0, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWith(t, tt.autoComplete)
			env.svc.reclaimed = 2
			env.svc.completed = 3

			w := env.executeRequest(http.MethodPost, "/v1/bookings/sweep", nil, env.token(t, "admin-1", auth.RoleAdmin))
			require.Equal(t, http.StatusOK, w.Code)

			var resp SweepResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, 2, resp.Reclaimed)
			assert.Equal(t, tt.wantCompleted, resp.Completed)
			assert.Equal(t, tt.wantCalls, env.svc.completes)
		})
	}
}
