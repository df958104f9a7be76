package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/examprep-backend/internal/model"
)

// CatalogStore reads banks and categories.
type CatalogStore interface {
	ListBanks(ctx context.Context) ([]model.QuestionBank, error)
	GetBank(ctx context.Context, id uuid.UUID) (*model.QuestionBank, error)
	ListCategories(ctx context.Context, bankID uuid.UUID) ([]model.Category, error)
	CategoryBanks(ctx context.Context, categoryIDs []uuid.UUID) (map[uuid.UUID]model.QuestionBank, error)
}

// SubscriptionStore persists bank subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, s *model.Subscription) error
	ListByUser(ctx context.Context, userID int) ([]model.Subscription, error)
}

// CatalogService serves the question catalog and decides bank access.
type CatalogService struct {
	catalog CatalogStore
	subs    SubscriptionStore
	now     func() time.Time
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog CatalogStore, subs SubscriptionStore) *CatalogService {
	return &CatalogService{catalog: catalog, subs: subs, now: time.Now}
}

// ListBanks returns every bank.
func (s *CatalogService) ListBanks(ctx context.Context) ([]model.QuestionBank, error) {
	banks, err := s.catalog.ListBanks(ctx)
	if banks == nil && err == nil {
		banks = []model.QuestionBank{}
	}
	return banks, err
}

// ListCategories returns a bank's categories.
func (s *CatalogService) ListCategories(ctx context.Context, bankID uuid.UUID) ([]model.Category, error) {
	if _, err := s.catalog.GetBank(ctx, bankID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBankNotFound
		}
		return nil, err
	}
	cats, err := s.catalog.ListCategories(ctx, bankID)
	if cats == nil && err == nil {
		cats = []model.Category{}
	}
	return cats, err
}

// CheckAccess fails with ErrCategoryNotFound for unknown categories and with
// ErrSubscriptionRequired when a category's bank is neither free nor subscribed.
func (s *CatalogService) CheckAccess(ctx context.Context, userID int, categoryIDs []uuid.UUID) error {
	banks, err := s.catalog.CategoryBanks(ctx, categoryIDs)
	if err != nil {
		return fmt.Errorf("resolve categories: %w", err)
	}

	needed := make(map[uuid.UUID]bool)
	for _, id := range categoryIDs {
		b, ok := banks[id]
		if !ok {
			return ErrCategoryNotFound
		}
		if !b.IsFree {
			needed[b.ID] = true
		}
	}
	if len(needed) == 0 {
		return nil
	}

	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	now := s.now()
	for _, sub := range subs {
		if sub.Active(now) {
			delete(needed, sub.BankID)
		}
	}
	if len(needed) > 0 {
		return ErrSubscriptionRequired
	}
	return nil
}

// Subscriptions lists the user's subscriptions.
func (s *CatalogService) Subscriptions(ctx context.Context, userID int) ([]model.Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if subs == nil && err == nil {
		subs = []model.Subscription{}
	}
	return subs, err
}

// Grant upserts a subscription keyed by (user, bank).
func (s *CatalogService) Grant(ctx context.Context, req model.GrantSubscriptionRequest) (*model.Subscription, error) {
	if _, err := s.catalog.GetBank(ctx, req.BankID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBankNotFound
		}
		return nil, err
	}
	sub := &model.Subscription{UserID: req.UserID, BankID: req.BankID, ExpiresAt: req.ExpiresAt}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return sub, nil
}
