package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reforma-budgets/pkg/cache"

	"github.com/google/uuid"
)

var ErrDraftNotFound = errors.New("draft not found")

type DraftStore interface {
	Get(ctx context.Context, id uuid.UUID) (*BudgetForm, error)
	Save(ctx context.Context, f *BudgetForm) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CacheDraftStore keeps drafts as JSON in a cache.Client (Redis in
// production). Drafts expire after ttl of inactivity.
type CacheDraftStore struct {
	cache cache.Client
	ttl   time.Duration
}

func NewCacheDraftStore(c cache.Client, ttl time.Duration) *CacheDraftStore {
	return &CacheDraftStore{cache: c, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return "draft:" + id.String()
}

func (s *CacheDraftStore) Get(ctx context.Context, id uuid.UUID) (*BudgetForm, error) {
	raw, err := s.cache.Get(ctx, draftKey(id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var f BudgetForm
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &f, nil
}

func (s *CacheDraftStore) Save(ctx context.Context, f *BudgetForm) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.cache.Set(ctx, draftKey(f.ID()), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *CacheDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, draftKey(id))
}
