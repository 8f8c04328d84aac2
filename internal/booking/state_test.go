package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from    Status
		action  Action
		want    Status
		wantErr error
	}{
		{from: StatusPending, action: ActionApprove, want: StatusConfirmed},
		{from: StatusPending, action: ActionReject, want: StatusRejected},
		{from: StatusPending, action: ActionCancel, want: StatusCancelled},
		{from: StatusPending, action: ActionComplete, wantErr: ErrIllegalTransition},
		{from: StatusConfirmed, action: ActionCancel, want: StatusCancelled},
		{from: StatusConfirmed, action: ActionComplete, want: StatusCompleted},
		{from: StatusConfirmed, action: ActionApprove, wantErr: ErrIllegalTransition},
		{from: StatusConfirmed, action: ActionReject, wantErr: ErrIllegalTransition},
		{from: StatusRejected, action: ActionApprove, wantErr: ErrIllegalTransition},
		{from: StatusCancelled, action: ActionCancel, wantErr: ErrIllegalTransition},
		{from: StatusCompleted, action: ActionCancel, wantErr: ErrIllegalTransition},
		{from: StatusPending, action: Action("pause"), wantErr: ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := NextStatus(tt.from, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusProperties(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.IsActive(), s)
	}
	for _, s := range []Status{StatusPending, StatusConfirmed} {
		assert.False(t, s.IsTerminal(), s)
		assert.True(t, s.IsActive(), s)
	}

	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending), "no transition back to pending")
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))

	_, err := ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	st, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)

	_, err = ParseAction("")
	assert.ErrorIs(t, err, ErrInvalidAction)
}
