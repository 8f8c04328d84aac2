package court

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

type memRepo struct {
	courts map[string]*Court
}

func newMemRepo() *memRepo {
	return &memRepo{courts: make(map[string]*Court)}
}

func (r *memRepo) Create(_ context.Context, c *Court) error {
	c.ID = "court-" + strconv.Itoa(len(r.courts)+1)
	cp := *c
	r.courts[c.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Court, error) {
	c, ok := r.courts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) List(context.Context, Filter) ([]*Court, int, error) {
	var out []*Court
	for _, c := range r.courts {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, c *Court) error {
	if _, ok := r.courts[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	r.courts[c.ID] = &cp
	return nil
}

func TestCreateCourt(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateRequest{
		OwnerID: "owner-1", Name: "  Center Court ", HourlyPrice: 300,
		OperatingHours: WeeklyHours{time.Monday: {Start: 360, End: 1320}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Center Court", c.Name)
	assert.True(t, c.IsActive)

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{name: "blank name", req: CreateRequest{OwnerID: "owner-1", Name: " "}, wantErr: ErrNameRequired},
		{name: "no owner", req: CreateRequest{Name: "A"}, wantErr: ErrOwnerRequired},
		{name: "negative price", req: CreateRequest{OwnerID: "owner-1", Name: "A", HourlyPrice: -1}, wantErr: ErrInvalidPrice},
		{
			name:    "closing before opening",
			req:     CreateRequest{OwnerID: "owner-1", Name: "A", OperatingHours: WeeklyHours{time.Friday: {Start: 600, End: 500}}},
			wantErr: ErrInvalidHours,
		},
		{
			name:    "past midnight",
			req:     CreateRequest{OwnerID: "owner-1", Name: "A", OperatingHours: WeeklyHours{time.Friday: {Start: 600, End: 1500}}},
			wantErr: ErrInvalidHours,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateCourt(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateRequest{OwnerID: "owner-1", Name: "Court"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, c.ID, UpdateRequest{IsActive: &inactive}, "owner-2", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := svc.Update(ctx, c.ID, UpdateRequest{IsActive: &inactive}, "owner-1", false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	price := 450.0
	updated, err = svc.Update(ctx, c.ID, UpdateRequest{HourlyPrice: &price}, "admin-1", true)
	require.NoError(t, err)
	assert.Equal(t, 450.0, updated.HourlyPrice)

	_, err = svc.Update(ctx, "missing", UpdateRequest{}, "owner-1", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWeeklyHoursJSON(t *testing.T) {
	hours := WeeklyHours{
		time.Monday:   {Start: 6 * 60, End: 22 * 60},
		time.Saturday: {Start: 8 * 60, End: timewindow.MinutesPerDay},
	}

	raw, err := json.Marshal(hours)
	require.NoError(t, err)
	assert.JSONEq(t, `{"monday":{"open":"06:00","close":"22:00"},"saturday":{"open":"08:00","close":"24:00"}}`, string(raw))

	var decoded WeeklyHours
	require.NoError(t, json.Unmarshal([]byte(`{"Monday":{"open":"06:00","close":"22:00"}}`), &decoded))
	iv, ok := (&Court{OperatingHours: decoded}).HoursOn(time.Monday)
	assert.True(t, ok)
	assert.Equal(t, timewindow.Interval{Start: 360, End: 1320}, iv)
	_, ok = (&Court{OperatingHours: decoded}).HoursOn(time.Sunday)
	assert.False(t, ok, "missing day means closed")

	assert.Error(t, json.Unmarshal([]byte(`{"funday":{"open":"06:00","close":"22:00"}}`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"monday":{"open":"22:00","close":"06:00"}}`), &decoded))
}
