package reservation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

func TestLifecycle_Walkthrough(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(101)
	svc := reservation.NewService(store)

	res, err := svc.Create(ctx, reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5)})
	require.NoError(t, err)
	assert.Equal(t, reservation.RoomPendingPayment, store.room(101).Status)

	_, err = svc.Create(ctx, reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 10), CheckOut: date(2025, 10, 12)})
	assert.ErrorIs(t, err, reservation.ErrRoomUnavailable)

	conf, err := svc.Confirm(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, conf.ReservationID)
	assert.Equal(t, reservation.RoomPaid, store.room(101).Status)

	got, err := svc.Get(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)

	_, err = svc.Confirm(ctx, res.ID)
	assert.ErrorIs(t, err, reservation.ErrNotAwaitingPayment)

	require.NoError(t, svc.Cancel(ctx, res.ID))
	assert.Equal(t, reservation.RoomAvailable, store.room(101).Status)

	got, err = svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.NoteCancel, got.Noted)

	_, err = svc.Confirm(ctx, 999999)
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestConfirm_CancelledReservationCannotTakeNewerHold(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(101)
	svc := reservation.NewService(store)

	stale, err := svc.Create(ctx, reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5)})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, stale.ID))

	current, err := svc.Create(ctx, reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 6), CheckOut: date(2025, 10, 8)})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, stale.ID)
	require.ErrorIs(t, err, reservation.ErrConflict)
	assert.ErrorIs(t, err, reservation.ErrAlreadyNoted)

	got, err := svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaidAt)
	assert.Equal(t, reservation.RoomPendingPayment, store.room(101).Status)

	_, err = svc.Confirm(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.RoomPaid, store.room(101).Status)
}

func TestCreate_ConcurrentSameRoom(t *testing.T) {
	const n = 50

	store := newMemStore(101)
	svc := reservation.NewService(store)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
		start     = make(chan struct{})
	)

	for i := range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			<-start

			_, err := svc.Create(context.Background(), reservation.CreateParams{
				RoomID:   101,
				CheckIn:  date(2025, 10, 1).AddDate(0, 0, i),
				CheckOut: date(2025, 10, 3).AddDate(0, 0, i),
			})

			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, reservation.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(n-1), conflicts.Load())
	assert.Len(t, store.snapshot().reservations, 1)
	assert.Equal(t, reservation.RoomPendingPayment, store.room(101).Status)
}

func TestConfirm_ConcurrentOnlyOneWins(t *testing.T) {
	const n = 20

	store := newMemStore(101)
	svc := reservation.NewService(store)

	res, err := svc.Create(context.Background(), reservation.CreateParams{
		RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5),
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := svc.Confirm(context.Background(), res.ID); err == nil {
				successes.Add(1)
			} else if !errors.Is(err, reservation.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, reservation.RoomPaid, store.room(101).Status)
}

func TestFailedOperations_LeaveNoPartialWrites(t *testing.T) {
	params := reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5)}

	tests := []struct {
		name   string
		failOn string
		setup  func(t *testing.T, svc *reservation.Service) int64
		run    func(svc *reservation.Service, id int64) error
	}{
		{
			name:   "CreateAfterInsert",
			failOn: "UpdateRoomStatus",
			setup:  func(*testing.T, *reservation.Service) int64 { return 0 },
			run: func(svc *reservation.Service, _ int64) error {
				_, err := svc.Create(context.Background(), params)
				return err
			},
		},
		{
			name:   "CreateOnCommit",
			failOn: "Commit",
			setup:  func(*testing.T, *reservation.Service) int64 { return 0 },
			run: func(svc *reservation.Service, _ int64) error {
				_, err := svc.Create(context.Background(), params)
				return err
			},
		},
		{
			name:   "ConfirmAfterMarkPaid",
			failOn: "UpdateRoomStatus",
			setup:  createOne(params),
			run: func(svc *reservation.Service, id int64) error {
				_, err := svc.Confirm(context.Background(), id)
				return err
			},
		},
		{
			name:   "CancelAfterRelease",
			failOn: "MarkCancelled",
			setup:  createOne(params),
			run: func(svc *reservation.Service, id int64) error {
				return svc.Cancel(context.Background(), id)
			},
		},
		{
			name:   "CancelOnCommit",
			failOn: "Commit",
			setup:  createOne(params),
			run: func(svc *reservation.Service, id int64) error {
				return svc.Cancel(context.Background(), id)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(101)
			svc := reservation.NewService(store)

			id := tt.setup(t, svc)
			before := store.snapshot()

			store.failOn = tt.failOn

			err := tt.run(svc, id)
			require.ErrorIs(t, err, errInjected)

			assert.Equal(t, before, store.snapshot())
		})
	}
}

func createOne(params reservation.CreateParams) func(*testing.T, *reservation.Service) int64 {
	return func(t *testing.T, svc *reservation.Service) int64 {
		res, err := svc.Create(context.Background(), params)
		require.NoError(t, err)

		return res.ID
	}
}

func TestCancel_ResetsAnyRoomStatus(t *testing.T) {
	for _, status := range []reservation.RoomStatus{
		reservation.RoomAvailable, reservation.RoomPendingPayment, reservation.RoomPaid,
	} {
		t.Run(status.String(), func(t *testing.T) {
			store := newMemStore(101)
			svc := reservation.NewService(store)

			res, err := svc.Create(context.Background(), reservation.CreateParams{
				RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5),
			})
			require.NoError(t, err)

			store.setRoomStatus(101, status)

			require.NoError(t, svc.Cancel(context.Background(), res.ID))
			assert.Equal(t, reservation.RoomAvailable, store.room(101).Status)
		})
	}
}

func TestCreate_DateOrderingIgnoresRoomState(t *testing.T) {
	for _, status := range []reservation.RoomStatus{
		reservation.RoomAvailable, reservation.RoomPendingPayment, reservation.RoomPaid,
	} {
		store := newMemStore(101)
		store.setRoomStatus(101, status)

		svc := reservation.NewService(store)

		_, err := svc.Create(context.Background(), reservation.CreateParams{
			RoomID: 101, CheckIn: date(2025, 10, 10), CheckOut: date(2025, 10, 8),
		})
		assert.ErrorIs(t, err, reservation.ErrValidation)

		_, err = svc.Create(context.Background(), reservation.CreateParams{
			RoomID: 404, CheckIn: date(2025, 10, 10), CheckOut: date(2025, 10, 10),
		})
		assert.ErrorIs(t, err, reservation.ErrValidation)
	}
}

func TestExpire_RacesWithConfirm(t *testing.T) {
	store := newMemStore(101)
	svc := reservation.NewService(store)

	res, err := svc.Create(context.Background(), reservation.CreateParams{
		RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5),
	})
	require.NoError(t, err)

	var (
		wg                    sync.WaitGroup
		confirmErr, expireErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, confirmErr = svc.Confirm(context.Background(), res.ID)
	}()

	go func() {
		defer wg.Done()

		expireErr = svc.Expire(context.Background(), res.ID)
	}()

	wg.Wait()

	// Exactly one of the two transitions wins; the loser sees a conflict.
	if confirmErr == nil {
		assert.ErrorIs(t, expireErr, reservation.ErrConflict)
		assert.Equal(t, reservation.RoomPaid, store.room(101).Status)
	} else {
		assert.NoError(t, expireErr)
		assert.ErrorIs(t, confirmErr, reservation.ErrConflict)
		assert.Equal(t, reservation.RoomAvailable, store.room(101).Status)
	}
}

func TestListExpired_OnlyLatestOpenHold(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(101, 102)
	svc := reservation.NewService(store)

	first, err := svc.Create(ctx, reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 5)})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, first.ID))

	second, err := svc.Create(ctx, reservation.CreateParams{RoomID: 101, CheckIn: date(2025, 10, 6), CheckOut: date(2025, 10, 8)})
	require.NoError(t, err)

	paid, err := svc.Create(ctx, reservation.CreateParams{RoomID: 102, CheckIn: date(2025, 10, 1), CheckOut: date(2025, 10, 2)})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, paid.ID)
	require.NoError(t, err)

	expired, err := svc.ListExpired(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, second.ID, expired[0].ID)

	expired, err = svc.ListExpired(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}
