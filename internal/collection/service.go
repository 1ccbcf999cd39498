// Package collection manages per-user favorites. It delegates storage to
// the collections table and absorbs store failures the same way the
// catalog layer does: a log line and a zero-value result.
package collection

import (
	"context"

	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/models"
)

// Store is what the collection service needs from the relational store.
type Store interface {
	AddToCollection(ctx context.Context, userID string, romID int64) (bool, error)
	RemoveFromCollection(ctx context.Context, userID string, romID int64) (bool, error)
	IsInCollection(ctx context.Context, userID string, romID int64) (bool, error)
	UserCollection(ctx context.Context, userID string) ([]models.CollectionWithRom, error)
	CollectionCount(ctx context.Context, userID string) (int, error)
	UpdateCollectionNotes(ctx context.Context, userID string, romID int64, notes string) (bool, error)
}

// Service answers collection reads and writes for one resolved user.
type Service struct {
	store Store
	log   *zap.Logger
}

// New creates a collection service.
func New(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// Add saves a rom into the user's collection. Adding a rom that is
// already there succeeds with AlreadyExists set; the unique constraint
// is the dedup mechanism, not an error.
func (s *Service) Add(ctx context.Context, userID string, romID int64) models.AddResult {
	if userID == "" || romID <= 0 {
		return models.AddResult{}
	}

	created, err := s.store.AddToCollection(ctx, userID, romID)
	if err != nil {
		s.log.Error("collection add failed",
			zap.String("user_id", userID), zap.Int64("rom_id", romID), zap.Error(err))
		return models.AddResult{}
	}
	return models.AddResult{Success: true, AlreadyExists: !created}
}

// Remove drops a rom from the user's collection. Removing a rom that is
// not there succeeds with AlreadyRemoved set.
func (s *Service) Remove(ctx context.Context, userID string, romID int64) models.RemoveResult {
	if userID == "" || romID <= 0 {
		return models.RemoveResult{}
	}

	removed, err := s.store.RemoveFromCollection(ctx, userID, romID)
	if err != nil {
		s.log.Error("collection remove failed",
			zap.String("user_id", userID), zap.Int64("rom_id", romID), zap.Error(err))
		return models.RemoveResult{}
	}
	return models.RemoveResult{Success: true, AlreadyRemoved: !removed}
}

// IsMember reports whether the rom is in the user's collection. Failures
// read as false.
func (s *Service) IsMember(ctx context.Context, userID string, romID int64) bool {
	if userID == "" || romID <= 0 {
		return false
	}

	member, err := s.store.IsInCollection(ctx, userID, romID)
	if err != nil {
		s.log.Error("collection membership check failed",
			zap.String("user_id", userID), zap.Int64("rom_id", romID), zap.Error(err))
		return false
	}
	return member
}

// ListForUser returns the user's collection, newest addition first.
func (s *Service) ListForUser(ctx context.Context, userID string) []models.CollectionWithRom {
	if userID == "" {
		return []models.CollectionWithRom{}
	}

	items, err := s.store.UserCollection(ctx, userID)
	if err != nil {
		s.log.Error("collection list failed", zap.String("user_id", userID), zap.Error(err))
		return []models.CollectionWithRom{}
	}
	if items == nil {
		items = []models.CollectionWithRom{}
	}
	return items
}

// Count returns the size of the user's collection.
func (s *Service) Count(ctx context.Context, userID string) int {
	if userID == "" {
		return 0
	}

	count, err := s.store.CollectionCount(ctx, userID)
	if err != nil {
		s.log.Error("collection count failed", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return count
}

// UpdateNotes replaces the notes on an existing membership row.
func (s *Service) UpdateNotes(ctx context.Context, userID string, romID int64, notes string) bool {
	if userID == "" || romID <= 0 {
		return false
	}

	found, err := s.store.UpdateCollectionNotes(ctx, userID, romID, notes)
	if err != nil {
		s.log.Error("collection notes update failed",
			zap.String("user_id", userID), zap.Int64("rom_id", romID), zap.Error(err))
		return false
	}
	return found
}
