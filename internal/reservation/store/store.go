package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectReservationColumns = `
	r.id, r.room_id, r.check_in, r.check_out, r.paid_at, r.noted, r.created_at
`

// scanReservation expects selectReservationColumns, optionally followed by extra destinations.
func scanReservation(s scanner, extra ...any) (*reservation.Reservation, error) {
	var res reservation.Reservation

	var noted sql.NullString

	dest := []any{
		&res.ID, &res.RoomID, &res.CheckIn, &res.CheckOut, &res.PaidAt, &noted, &res.CreatedAt,
	}

	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	res.Noted = noted.String

	return &res, nil
}

func scanRoom(s scanner) (*reservation.Room, error) {
	var room reservation.Room

	var status int

	if err := s.Scan(&room.ID, &status, &room.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := reservation.ParseRoomStatus(status)
	if err != nil {
		return nil, err
	}

	room.Status = parsed

	return &room, nil
}

func (s *Store) Begin(ctx context.Context) (reservation.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &unitOfWork{tx: dbTx}, nil
}

func (s *Store) GetReservation(ctx context.Context, id int64) (*reservation.Reservation, error) {
	query := `SELECT ` + selectReservationColumns + `
		FROM reservations r
		WHERE r.id = $1`

	res, err := scanReservation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}

		return nil, fmt.Errorf("getting reservation: %w", err)
	}

	return res, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]*reservation.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, status, created_at FROM rooms ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*reservation.Room

	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}

		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}

	return rooms, nil
}

// ListExpired only returns the newest reservation of each pending room, so an older open
// reservation can never release a hold that belongs to a later one.
func (s *Store) ListExpired(ctx context.Context, cutoff time.Time) ([]*reservation.Reservation, error) {
	query := `SELECT ` + selectReservationColumns + `
		FROM reservations r
		JOIN rooms ro ON ro.id = r.room_id
		WHERE ro.status = $1
			AND r.paid_at IS NULL
			AND r.noted IS NULL
			AND r.created_at < $2
			AND r.id = (SELECT MAX(l.id) FROM reservations l WHERE l.room_id = r.room_id)
		ORDER BY r.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, int(reservation.RoomPendingPayment), cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing expired reservations: %w", err)
	}
	defer rows.Close()

	var expired []*reservation.Reservation

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}

		expired = append(expired, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservation rows: %w", err)
	}

	return expired, nil
}

// AddRooms inserts rooms as available. Rooms that already exist keep their current status.
func (s *Store) AddRooms(ctx context.Context, ids []int64) (int, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO rooms (id, status, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	added := 0

	for _, id := range ids {
		result, err := dbTx.ExecContext(ctx, query, id, int(reservation.RoomAvailable))
		if err != nil {
			return 0, fmt.Errorf("inserting room %d: %w", id, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}

		added += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rooms: %w", err)
	}

	return added, nil
}

type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) Commit() error { return u.tx.Commit() }

func (u *unitOfWork) Rollback() error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

func (u *unitOfWork) LockRoom(ctx context.Context, roomID int64) (*reservation.Room, error) {
	query := `
		SELECT id, status, created_at
		FROM rooms
		WHERE id = $1
		FOR UPDATE
	`

	room, err := scanRoom(u.tx.QueryRowContext(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrRoomNotFound
		}

		return nil, fmt.Errorf("locking room: %w", err)
	}

	return room, nil
}

// LockReservationWithRoom locks both the reservation row and its room row.
func (u *unitOfWork) LockReservationWithRoom(ctx context.Context, id int64) (*reservation.LockedReservation, error) {
	query := `SELECT ` + selectReservationColumns + `, ro.status
		FROM reservations r
		JOIN rooms ro ON ro.id = r.room_id
		WHERE r.id = $1
		FOR UPDATE`

	var status int

	res, err := scanReservation(u.tx.QueryRowContext(ctx, query, id), &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}

		return nil, fmt.Errorf("locking reservation: %w", err)
	}

	roomStatus, err := reservation.ParseRoomStatus(status)
	if err != nil {
		return nil, err
	}

	return &reservation.LockedReservation{Reservation: *res, RoomStatus: roomStatus}, nil
}

func (u *unitOfWork) InsertReservation(ctx context.Context, params reservation.CreateParams) (*reservation.Reservation, error) {
	query := `
		INSERT INTO reservations (room_id, check_in, check_out)
		VALUES ($1, $2, $3)
		RETURNING id, room_id, check_in, check_out, paid_at, noted, created_at
	`

	res, err := scanReservation(u.tx.QueryRowContext(ctx, query, params.RoomID, params.CheckIn, params.CheckOut))
	if err != nil {
		return nil, fmt.Errorf("inserting reservation: %w", err)
	}

	return res, nil
}

func (u *unitOfWork) UpdateRoomStatus(ctx context.Context, roomID int64, status reservation.RoomStatus) error {
	query := `
		UPDATE rooms
		SET status = $1
		WHERE id = $2
	`

	if _, err := u.tx.ExecContext(ctx, query, int(status), roomID); err != nil {
		return fmt.Errorf("updating room status: %w", err)
	}

	return nil
}

func (u *unitOfWork) MarkPaid(ctx context.Context, id int64) (time.Time, error) {
	query := `
		UPDATE reservations
		SET paid_at = NOW()
		WHERE id = $1
		RETURNING paid_at
	`

	var paidAt time.Time
	if err := u.tx.QueryRowContext(ctx, query, id).Scan(&paidAt); err != nil {
		return time.Time{}, fmt.Errorf("marking reservation paid: %w", err)
	}

	return paidAt, nil
}

func (u *unitOfWork) MarkCancelled(ctx context.Context, id int64, note string) error {
	query := `
		UPDATE reservations
		SET noted = $1
		WHERE id = $2
	`

	if _, err := u.tx.ExecContext(ctx, query, note, id); err != nil {
		return fmt.Errorf("annotating reservation: %w", err)
	}

	return nil
}
