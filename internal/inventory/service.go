package inventory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=inventory
type Repository interface {
	AddRooms(ctx context.Context, ids []int64) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Result struct {
	Parsed int
	Added  int
}

// Import registers every room in the file as available. Rooms that already exist keep
// their status and are not counted as added.
func (s *Service) Import(ctx context.Context, r io.Reader) (Result, error) {
	ids, err := Parse(r)
	if err != nil {
		return Result{}, err
	}

	added, err := s.repo.AddRooms(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("adding rooms: %w", err)
	}

	slog.Info("room inventory imported", "parsed", len(ids), "added", added)

	return Result{Parsed: len(ids), Added: added}, nil
}
