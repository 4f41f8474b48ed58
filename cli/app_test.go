package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"betfin/models"
	"betfin/service"
)

func TestWaitForChange_PausesBeforeReconcile(t *testing.T) {
	mockReconciler := new(service.MockSessionReconciler)
	app := New("0xabc", nil, mockReconciler, nil)

	merged := &models.GameSession{
		Kind:    models.GameSlots,
		Account: "0xabc",
		State:   models.StateActive,
	}
	mockReconciler.On("Reconcile", mock.Anything, "slots/0xabc").Return(merged, nil)

	start := time.Now()
	session, err := app.waitForChange(context.Background(), "slots/0xabc")
	require.NoError(t, err)

	assert.Equal(t, models.StateActive, session.State)
	// Each refresh waits out the pause first; the gateway is never polled
	// back-to-back
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)
	mockReconciler.AssertNumberOfCalls(t, "Reconcile", 1)
}

func TestWaitForChange_AbsorbsTransientFailure(t *testing.T) {
	mockReconciler := new(service.MockSessionReconciler)
	app := New("0xabc", nil, mockReconciler, nil)

	held := &models.GameSession{
		Kind:    models.GameSlots,
		Account: "0xabc",
		State:   models.StateWaiting,
	}
	mockReconciler.On("Reconcile", mock.Anything, "slots/0xabc").
		Return(held, &models.NetworkError{Op: "get state", Err: errors.New("connection reset")})

	session, err := app.waitForChange(context.Background(), "slots/0xabc")
	require.NoError(t, err)
	assert.Equal(t, models.StateWaiting, session.State)
}

func TestWaitForChange_StopsOnCancel(t *testing.T) {
	mockReconciler := new(service.MockSessionReconciler)
	app := New("0xabc", nil, mockReconciler, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := app.waitForChange(ctx, "slots/0xabc")
	assert.ErrorIs(t, err, context.Canceled)
	mockReconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}
