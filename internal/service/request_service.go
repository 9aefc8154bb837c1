package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	guard  domain.Guard
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRequestService(repo domain.Repository, guard domain.Guard, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, guard: guard, logger: logger, now: time.Now}
}

func (s *RequestService) CreateRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error) {
	if err := s.guard.UserExists(ctx, requesterID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.InvalidArgumentf("request description must not be blank")
	}

	request := &models.ItemRequest{
		Description: description,
		RequesterID: requesterID,
		Created:     s.now().UTC(),
		Items:       []models.Item{},
	}
	if err := s.repo.CreateItemRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetOwnRequests lists the requester's requests newest first, with their answers.
func (s *RequestService) GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	if err := s.guard.UserExists(ctx, requesterID); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetItemRequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// GetOtherRequests lists requests made by everyone except userID.
func (s *RequestService) GetOtherRequests(ctx context.Context, userID int64, from, size *int) ([]*models.ItemRequest, error) {
	if err := s.guard.UserExists(ctx, userID); err != nil {
		return nil, err
	}
	page, err := s.guard.ValidatePagination(from, size)
	if err != nil {
		return nil, err
	}

	requests, err := s.repo.GetItemRequestsExcept(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) GetRequest(ctx context.Context, requestID, userID int64) (*models.ItemRequest, error) {
	if err := s.guard.UserExists(ctx, userID); err != nil {
		return nil, err
	}

	request, err := s.repo.GetItemRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, []*models.ItemRequest{request}); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *RequestService) attachItems(ctx context.Context, requests []*models.ItemRequest) error {
	if len(requests) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(requests))
	byID := make(map[int64]*models.ItemRequest, len(requests))
	for _, r := range requests {
		r.Items = []models.Item{}
		ids = append(ids, r.ID)
		byID[r.ID] = r
	}

	items, err := s.repo.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.RequestID == nil {
			continue
		}
		if r, ok := byID[*item.RequestID]; ok {
			r.Items = append(r.Items, *item)
		}
	}
	return nil
}
