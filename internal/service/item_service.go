package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	guard  domain.Guard
	cache  *expirable.LRU[int64, models.Item]
	logger *zerolog.Logger
	now    func() time.Time
}

func NewItemService(repo domain.Repository, guard domain.Guard, cacheSize int, cacheTTL time.Duration, logger *zerolog.Logger) *ItemService {
	if cacheSize <= 0 {
		cacheSize = models.DefaultItemCacheSize
	}
	return &ItemService{
		repo:   repo,
		guard:  guard,
		cache:  expirable.NewLRU[int64, models.Item](cacheSize, nil, cacheTTL),
		logger: logger,
		now:    time.Now,
	}
}

// GetItem returns the item through the read cache.
func (s *ItemService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	if item, ok := s.cache.Get(id); ok {
		return &item, nil
	}

	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, *item)
	return item, nil
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if err := s.guard.UserExists(ctx, ownerID); err != nil {
		return nil, err
	}
	if item.RequestID != nil {
		if err := s.guard.ItemRequestExists(ctx, *item.RequestID); err != nil {
			return nil, err
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.cache.Add(item.ID, *item)

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies the non-nil fields of patch. Items of other owners are reported as not found.
func (s *ItemService) UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		s.logger.Warn().Int64("item_id", itemID).Int64("actor_id", ownerID).Msg("item update by non-owner")
		return nil, domain.NotFoundf("item with id = %d not found for owner %d", itemID, ownerID)
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		item.Name = *patch.Name
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	s.cache.Remove(itemID)
	return item, nil
}

// GetItemDetails returns the item with its comments. The owner also sees the
// nearest approved bookings.
func (s *ItemService) GetItemDetails(ctx context.Context, itemID, actorID int64) (*models.ItemDetails, error) {
	if err := s.guard.UserExists(ctx, actorID); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, item, item.OwnerID == actorID)
}

func (s *ItemService) GetOwnerItems(ctx context.Context, ownerID int64, from, size *int) ([]*models.ItemDetails, error) {
	if err := s.guard.UserExists(ctx, ownerID); err != nil {
		return nil, err
	}
	page, err := s.guard.ValidatePagination(from, size)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}

	result := make([]*models.ItemDetails, 0, len(items))
	for _, item := range items {
		details, err := s.details(ctx, item, true)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, nil
}

func (s *ItemService) details(ctx context.Context, item *models.Item, withBookings bool) (*models.ItemDetails, error) {
	details := &models.ItemDetails{Item: *item}

	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	details.Comments = comments

	if !withBookings {
		return details, nil
	}

	now := s.now()
	last, err := s.repo.GetLastBooking(ctx, item.ID, now)
	if err != nil {
		return nil, err
	}
	next, err := s.repo.GetNextBooking(ctx, item.ID, now)
	if err != nil {
		return nil, err
	}
	details.LastBooking = last.Short()
	details.NextBooking = next.Short()
	return details, nil
}

func (s *ItemService) SearchItems(ctx context.Context, text string, from, size *int) ([]*models.Item, error) {
	page, err := s.guard.ValidatePagination(from, size)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, page)
}

// AddComment stores a comment from a user who has already used the item
// under an approved booking.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.InvalidArgumentf("comment text must not be blank")
	}

	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.ItemExists(ctx, itemID); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repo.HasStartedApprovedBooking(ctx, authorID, itemID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn().Int64("item_id", itemID).Int64("author_id", authorID).Msg("comment without approved booking")
		return nil, domain.InvalidArgumentf("user %d has no approved booking of item %d", authorID, itemID)
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Created:    now.UTC(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
