package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reservation
type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	GetReservation(ctx context.Context, id int64) (*Reservation, error)
	ListRooms(ctx context.Context) ([]*Room, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]*Reservation, error)
}

// Tx is one unit of work. Rows read through the Lock methods stay exclusively locked until
// Commit or Rollback. Rollback after Commit is a no-op.
type Tx interface {
	LockRoom(ctx context.Context, roomID int64) (*Room, error)
	LockReservationWithRoom(ctx context.Context, id int64) (*LockedReservation, error)
	InsertReservation(ctx context.Context, params CreateParams) (*Reservation, error)
	UpdateRoomStatus(ctx context.Context, roomID int64, status RoomStatus) error
	MarkPaid(ctx context.Context, id int64) (time.Time, error)
	MarkCancelled(ctx context.Context, id int64, note string) error
	Commit() error
	Rollback() error
}

// Publisher receives lifecycle events after their unit of work has committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Service struct {
	repo      Repository
	publisher Publisher
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	RoomID   int64
	CheckIn  time.Time
	CheckOut time.Time
}

func (p CreateParams) Validate() error {
	if p.RoomID <= 0 || p.CheckIn.IsZero() || p.CheckOut.IsZero() {
		return ErrMissingInput
	}

	if !p.CheckOut.After(p.CheckIn) {
		return ErrInvalidDates
	}

	return nil
}

// Create inserts a reservation and moves its room from available to pending payment.
// Concurrent calls for the same room serialize on the room lock; only the first sees it available.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Reservation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, s.fail("beginning create", err)
	}
	defer tx.Rollback()

	room, err := tx.LockRoom(ctx, params.RoomID)
	if err != nil {
		return nil, s.fail("locking room", err)
	}

	if room.Status != RoomAvailable {
		return nil, ErrRoomUnavailable
	}

	res, err := tx.InsertReservation(ctx, params)
	if err != nil {
		return nil, s.fail("inserting reservation", err)
	}

	if err := tx.UpdateRoomStatus(ctx, room.ID, RoomPendingPayment); err != nil {
		return nil, s.fail("reserving room", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail("committing create", err)
	}

	s.publish(ctx, Event{Type: EventCreated, ReservationID: res.ID, RoomID: res.RoomID, OccurredAt: res.CreatedAt})

	return res, nil
}

// Confirm records payment. It is one-shot: a second confirmation is a conflict, and a
// cancelled or expired reservation can no longer be paid.
func (s *Service) Confirm(ctx context.Context, id int64) (*Confirmation, error) {
	if id <= 0 {
		return nil, ErrMissingInput
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, s.fail("beginning confirm", err)
	}
	defer tx.Rollback()

	locked, err := tx.LockReservationWithRoom(ctx, id)
	if err != nil {
		return nil, s.fail("locking reservation", err)
	}

	if err := checkConfirm(locked); err != nil {
		return nil, err
	}

	paidAt, err := tx.MarkPaid(ctx, id)
	if err != nil {
		return nil, s.fail("marking paid", err)
	}

	if err := tx.UpdateRoomStatus(ctx, locked.RoomID, RoomPaid); err != nil {
		return nil, s.fail("updating room status", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail("committing confirm", err)
	}

	s.publish(ctx, Event{Type: EventConfirmed, ReservationID: id, RoomID: locked.RoomID, OccurredAt: paidAt})

	return &Confirmation{ReservationID: id, RoomID: locked.RoomID, PaidAt: paidAt}, nil
}

// Cancel releases the room of any existing reservation, whatever its current status.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingInput
	}

	return s.release(ctx, id, NoteCancel, nil)
}

// Expire releases a reservation whose payment window has passed. Unlike Cancel it only
// applies while the reservation is still the unpaid, open hold on its room.
func (s *Service) Expire(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrMissingInput
	}

	return s.release(ctx, id, NoteExpired, checkConfirm)
}

func (s *Service) release(ctx context.Context, id int64, note string, check func(*LockedReservation) error) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return s.fail("beginning release", err)
	}
	defer tx.Rollback()

	locked, err := tx.LockReservationWithRoom(ctx, id)
	if err != nil {
		return s.fail("locking reservation", err)
	}

	if check != nil {
		if err := check(locked); err != nil {
			return err
		}
	}

	if err := tx.UpdateRoomStatus(ctx, locked.RoomID, RoomAvailable); err != nil {
		return s.fail("releasing room", err)
	}

	if err := tx.MarkCancelled(ctx, id, note); err != nil {
		return s.fail("annotating reservation", err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("committing release", err)
	}

	evType := EventCancelled
	if note == NoteExpired {
		evType = EventExpired
	}

	s.publish(ctx, Event{Type: evType, ReservationID: id, RoomID: locked.RoomID, OccurredAt: time.Now().UTC()})

	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Reservation, error) {
	if id <= 0 {
		return nil, ErrMissingInput
	}

	return s.repo.GetReservation(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]*Room, error) {
	return s.repo.ListRooms(ctx)
}

// ListExpired returns open, unpaid reservations created before cutoff that still hold their room.
func (s *Service) ListExpired(ctx context.Context, cutoff time.Time) ([]*Reservation, error) {
	return s.repo.ListExpired(ctx, cutoff)
}

func checkConfirm(l *LockedReservation) error {
	if l.RoomStatus != RoomPendingPayment {
		return ErrNotAwaitingPayment
	}

	if l.PaidAt != nil {
		return ErrAlreadyPaid
	}

	// The room may be pending for a newer reservation.
	if l.Noted != "" {
		return ErrAlreadyNoted
	}

	return nil
}

func (s *Service) fail(step string, err error) error {
	if isOutcome(err) {
		return err
	}

	slog.Error("reservation operation failed", "step", step, "error", err)

	return fmt.Errorf("%s: %w", step, err)
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish reservation event",
			"type", ev.Type, "reservation_id", ev.ReservationID, "error", err)
	}
}
