package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/tracker/mocks"
)

func TestSweepOnce_MarksStaleEmployeesOfflineOnce(t *testing.T) {
	f, m, pub := newTestMachine(t, time.Minute)
	ctx := context.Background()

	stale, _, _ := f.employee(t, "", "Silent One")
	fresh, _, _ := f.employee(t, "", "Chatty One")

	now := time.Now().UTC()
	require.NoError(t, f.store.UpsertPresence(ctx, &models.Presence{EmployeeID: stale.ID, IsOnline: true, LastSeenAt: now.Add(-5 * time.Minute)}))
	require.NoError(t, f.store.UpsertPresence(ctx, &models.Presence{EmployeeID: fresh.ID, IsOnline: true, LastSeenAt: now}))

	sweeper := NewSweeper(f.store, m, time.Hour)

	swept, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, swept, 1)

	_, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, presenceUpdates(pub.For(stale.ID), false))
	assert.Empty(t, pub.For(fresh.ID))

	p, err := f.store.GetPresence(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
}

func TestSweepOnce_StopsBetweenEmployeesOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenceStore := mocks.NewMockPresenceStore(ctrl)
	pub := &recordingPublisher{}
	m := NewPresenceMachine(presenceStore, pub, time.Minute)
	sweeper := NewSweeper(presenceStore, m, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	presenceStore.EXPECT().ListStaleOnline(gomock.Any(), gomock.Any()).Return([]string{"A", "B"}, nil)
	presenceStore.EXPECT().GetPresence(gomock.Any(), "A").DoAndReturn(func(ctx context.Context, id string) (*models.Presence, error) {
		cancel()
		return &models.Presence{EmployeeID: id, IsOnline: true, LastSeenAt: time.Now().UTC().Add(-time.Hour)}, nil
	})
	presenceStore.EXPECT().UpsertPresence(gomock.Any(), gomock.Any()).Return(nil)

	swept, err := sweeper.SweepOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, swept, "the in-flight employee completes")
	assert.Equal(t, 1, presenceUpdates(pub.For("A"), false))
	assert.Empty(t, pub.For("B"))
}

func TestSweepOnce_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenceStore := mocks.NewMockPresenceStore(ctrl)
	m := NewPresenceMachine(presenceStore, &recordingPublisher{}, time.Minute)
	sweeper := NewSweeper(presenceStore, m, time.Hour)

	presenceStore.EXPECT().ListStaleOnline(gomock.Any(), gomock.Any()).Return(nil, errors.New("gone"))

	_, err := sweeper.SweepOnce(context.Background())
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestSweeperRun(t *testing.T) {
	f, m, pub := newTestMachine(t, 20*time.Millisecond)
	employee, _, _ := f.employee(t, "", "Run Loop")

	require.NoError(t, f.store.UpsertPresence(context.Background(), &models.Presence{
		EmployeeID: employee.ID, IsOnline: true, LastSeenAt: time.Now().UTC().Add(-time.Minute),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		NewSweeper(f.store, m, 10*time.Millisecond).Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		return presenceUpdates(pub.For(employee.ID), false) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
