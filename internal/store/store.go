package store

import (
	"context"

	"marketplacego/internal/domain"
)

// ListingStore is the persistence contract used by the lifecycle services.
// Update runs the mutator as an atomic read-modify-write: calls against the
// same listing id are serialized, calls against different listings are
// independent. If the mutator returns an error the listing is left untouched.
type ListingStore interface {
	Create(ctx context.Context, l *domain.Listing) error
	Get(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context) ([]*domain.Listing, error)
	Update(ctx context.Context, id string, mutate func(*domain.Listing) error) (*domain.Listing, error)
}
