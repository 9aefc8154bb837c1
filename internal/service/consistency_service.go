package service

import (
	"context"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// existenceChecker is the read-only part of the storage used by ConsistencyService.
type existenceChecker interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	ItemExists(ctx context.Context, id int64) (bool, error)
	BookingExists(ctx context.Context, id int64) (bool, error)
	ItemRequestExists(ctx context.Context, id int64) (bool, error)
}

// ConsistencyService implements domain.Guard. Every check is a side-effect-free read.
type ConsistencyService struct {
	repo   existenceChecker
	logger *zerolog.Logger
}

func NewConsistencyService(repo existenceChecker, logger *zerolog.Logger) *ConsistencyService {
	return &ConsistencyService{repo: repo, logger: logger}
}

func (s *ConsistencyService) UserExists(ctx context.Context, id int64) error {
	return s.check(ctx, s.repo.UserExists, id, "user")
}

func (s *ConsistencyService) ItemExists(ctx context.Context, id int64) error {
	return s.check(ctx, s.repo.ItemExists, id, "item")
}

func (s *ConsistencyService) BookingExists(ctx context.Context, id int64) error {
	return s.check(ctx, s.repo.BookingExists, id, "booking")
}

func (s *ConsistencyService) ItemRequestExists(ctx context.Context, id int64) error {
	return s.check(ctx, s.repo.ItemRequestExists, id, "request")
}

func (s *ConsistencyService) check(ctx context.Context, exists func(context.Context, int64) (bool, error), id int64, entity string) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn().Str("entity", entity).Int64("id", id).Msg("entity not found")
		return domain.NotFoundf("%s with id = %d not found", entity, id)
	}
	return nil
}

func (s *ConsistencyService) ValidateState(name string) (models.BookingState, error) {
	state, ok := models.ParseState(name)
	if !ok {
		return "", domain.InvalidArgumentf("Unknown state: %s", name)
	}
	return state, nil
}

// ValidatePagination checks from and size independently; the page is unbounded
// unless both are given.
func (s *ConsistencyService) ValidatePagination(from, size *int) (models.Page, error) {
	if from != nil && *from < 0 {
		return models.Page{}, domain.InvalidArgumentf("from must not be negative, got %d", *from)
	}
	if size != nil && *size <= 0 {
		return models.Page{}, domain.InvalidArgumentf("size must be positive, got %d", *size)
	}
	return models.NewPage(from, size), nil
}
