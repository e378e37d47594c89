package expiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

//go:generate mockgen -source=sweeper.go -destination=releaser_mock.go -package=expiry
type Releaser interface {
	ListExpired(ctx context.Context, cutoff time.Time) ([]*reservation.Reservation, error)
	Expire(ctx context.Context, id int64) error
}

// Sweeper releases rooms held by reservations that were not paid within the payment window.
type Sweeper struct {
	releaser Releaser
	window   time.Duration
	now      func() time.Time
}

func NewSweeper(releaser Releaser, window time.Duration) *Sweeper {
	return &Sweeper{releaser: releaser, window: window, now: time.Now}
}

// Run performs one sweep and returns how many reservations were released. A reservation that
// fails to expire is logged and skipped; only a failed listing aborts the sweep.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.window)

	expired, err := s.releaser.ListExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing expired reservations: %w", err)
	}

	released := 0

	for _, res := range expired {
		if err := ctx.Err(); err != nil {
			return released, err
		}

		err := s.releaser.Expire(ctx, res.ID)

		switch {
		case err == nil:
			released++

			slog.Info("released unpaid reservation", "reservation_id", res.ID, "room_id", res.RoomID)
		case errors.Is(err, reservation.ErrConflict), errors.Is(err, reservation.ErrNotFound):
			// Paid or cancelled between listing and locking.
			slog.Debug("skipping reservation", "reservation_id", res.ID, "reason", err)
		default:
			slog.Error("failed to expire reservation", "reservation_id", res.ID, "error", err)
		}
	}

	return released, nil
}

// Start schedules Run every interval. Overlapping runs are skipped rather than queued.
// The caller owns the returned scheduler and must shut it down.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.Run(ctx); err != nil {
				slog.Error("expiry sweep failed", "error", err)
			}
		}),
		gocron.WithName("expire-unpaid-reservations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("scheduling sweep: %w", err)
	}

	sched.Start()

	slog.Info("expiry sweeper started", "interval", interval, "payment_window", s.window)

	return sched, nil
}
