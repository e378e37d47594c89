package reservation_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory Repository with per-room row locks held until commit or rollback.
// Writes are buffered in the transaction and only become visible on Commit.
type memStore struct {
	mu           sync.Mutex
	rooms        map[int64]reservation.Room
	reservations map[int64]reservation.Reservation
	locks        map[int64]*sync.Mutex
	nextID       int64

	// failOn names a Tx method that returns errInjected.
	failOn string
}

func newMemStore(roomIDs ...int64) *memStore {
	s := &memStore{
		rooms:        make(map[int64]reservation.Room),
		reservations: make(map[int64]reservation.Reservation),
		locks:        make(map[int64]*sync.Mutex),
	}

	for _, id := range roomIDs {
		s.rooms[id] = reservation.Room{ID: id, Status: reservation.RoomAvailable, CreatedAt: time.Now()}
	}

	return s
}

type snapshot struct {
	rooms        map[int64]reservation.Room
	reservations map[int64]reservation.Reservation
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		rooms:        make(map[int64]reservation.Room, len(s.rooms)),
		reservations: make(map[int64]reservation.Reservation, len(s.reservations)),
	}

	for id, r := range s.rooms {
		snap.rooms[id] = r
	}

	for id, r := range s.reservations {
		snap.reservations[id] = r
	}

	return snap
}

func (s *memStore) room(id int64) reservation.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rooms[id]
}

func (s *memStore) setRoomStatus(id int64, status reservation.RoomStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rooms[id]
	r.Status = status
	s.rooms[id] = r
}

func (s *memStore) lockFor(roomID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}

	return l
}

func (s *memStore) Begin(context.Context) (reservation.Tx, error) {
	return &memTx{
		store:    s,
		statuses: make(map[int64]reservation.RoomStatus),
		paid:     make(map[int64]time.Time),
		noted:    make(map[int64]string),
	}, nil
}

func (s *memStore) GetReservation(_ context.Context, id int64) (*reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}

	return &res, nil
}

func (s *memStore) ListRooms(context.Context) ([]*reservation.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]*reservation.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, &r)
	}

	return rooms, nil
}

func (s *memStore) ListExpired(_ context.Context, cutoff time.Time) ([]*reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[int64]int64)
	for id, r := range s.reservations {
		if id > latest[r.RoomID] {
			latest[r.RoomID] = id
		}
	}

	var out []*reservation.Reservation

	for id, r := range s.reservations {
		if latest[r.RoomID] != id || r.PaidAt != nil || r.Noted != "" || !r.CreatedAt.Before(cutoff) {
			continue
		}

		if s.rooms[r.RoomID].Status != reservation.RoomPendingPayment {
			continue
		}

		out = append(out, &r)
	}

	return out, nil
}

type memTx struct {
	store *memStore
	held  *sync.Mutex
	done  bool

	inserts  []reservation.Reservation
	statuses map[int64]reservation.RoomStatus
	paid     map[int64]time.Time
	noted    map[int64]string
}

func (t *memTx) fail(method string) error {
	if t.store.failOn == method {
		return errInjected
	}

	return nil
}

func (t *memTx) LockRoom(_ context.Context, roomID int64) (*reservation.Room, error) {
	if err := t.fail("LockRoom"); err != nil {
		return nil, err
	}

	t.held = t.store.lockFor(roomID)
	t.held.Lock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	room, ok := t.store.rooms[roomID]
	if !ok {
		return nil, reservation.ErrRoomNotFound
	}

	return &room, nil
}

func (t *memTx) LockReservationWithRoom(_ context.Context, id int64) (*reservation.LockedReservation, error) {
	if err := t.fail("LockReservationWithRoom"); err != nil {
		return nil, err
	}

	t.store.mu.Lock()
	res, ok := t.store.reservations[id]
	t.store.mu.Unlock()

	if !ok {
		return nil, reservation.ErrReservationNotFound
	}

	t.held = t.store.lockFor(res.RoomID)
	t.held.Lock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	// Re-read under the lock: a concurrent transaction may have committed in between.
	res = t.store.reservations[id]

	return &reservation.LockedReservation{Reservation: res, RoomStatus: t.store.rooms[res.RoomID].Status}, nil
}

func (t *memTx) InsertReservation(_ context.Context, params reservation.CreateParams) (*reservation.Reservation, error) {
	if err := t.fail("InsertReservation"); err != nil {
		return nil, err
	}

	t.store.mu.Lock()
	t.store.nextID++
	id := t.store.nextID
	t.store.mu.Unlock()

	res := reservation.Reservation{
		ID:        id,
		RoomID:    params.RoomID,
		CheckIn:   params.CheckIn,
		CheckOut:  params.CheckOut,
		CreatedAt: time.Now(),
	}
	t.inserts = append(t.inserts, res)

	return &res, nil
}

func (t *memTx) UpdateRoomStatus(_ context.Context, roomID int64, status reservation.RoomStatus) error {
	if err := t.fail("UpdateRoomStatus"); err != nil {
		return err
	}

	t.statuses[roomID] = status

	return nil
}

func (t *memTx) MarkPaid(_ context.Context, id int64) (time.Time, error) {
	if err := t.fail("MarkPaid"); err != nil {
		return time.Time{}, err
	}

	now := time.Now().UTC()
	t.paid[id] = now

	return now, nil
}

func (t *memTx) MarkCancelled(_ context.Context, id int64, note string) error {
	if err := t.fail("MarkCancelled"); err != nil {
		return err
	}

	t.noted[id] = note

	return nil
}

func (t *memTx) Commit() error {
	if err := t.fail("Commit"); err != nil {
		return err
	}

	t.store.mu.Lock()

	for _, res := range t.inserts {
		t.store.reservations[res.ID] = res
	}

	for id, status := range t.statuses {
		r := t.store.rooms[id]
		r.Status = status
		t.store.rooms[id] = r
	}

	for id, at := range t.paid {
		r := t.store.reservations[id]
		r.PaidAt = &at
		t.store.reservations[id] = r
	}

	for id, note := range t.noted {
		r := t.store.reservations[id]
		r.Noted = note
		t.store.reservations[id] = r
	}

	t.store.mu.Unlock()

	t.finish()

	return nil
}

func (t *memTx) Rollback() error {
	t.finish()

	return nil
}

func (t *memTx) finish() {
	if t.done {
		return
	}

	t.done = true

	if t.held != nil {
		t.held.Unlock()
	}
}
