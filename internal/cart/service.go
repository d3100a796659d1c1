package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/identity"
)

// Service is the cart store: every mutation re-validates the stock
// invariant against the catalog, and every failure leaves the cart exactly
// as it was.
type Service interface {
	AddToCart(ctx context.Context, userID, productID uuid.UUID, delta int) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]LineWithProduct, error)
	Observe(ctx context.Context, userID uuid.UUID) (<-chan []LineWithProduct, error)
}

type service struct {
	repo  Repository
	watch *Watch
}

func NewService(repo Repository, watch *Watch) Service {
	return &service{repo: repo, watch: watch}
}

func (s *service) AddToCart(ctx context.Context, userID, productID uuid.UUID, delta int) error {
	if userID == uuid.Nil {
		return identity.ErrNotAuthenticated
	}
	if delta < 1 {
		return fmt.Errorf("service: add delta must be positive, got %d", delta)
	}

	if err := s.repo.AddChecked(ctx, userID, productID, delta); err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
			log.Warn().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).
				Msg("service: add to cart rejected")
			return err
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).
			Msg("service: failed to add to cart")
		return fmt.Errorf("service: failed to add to cart: %w", err)
	}

	s.watch.Notify(ctx, userID)
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if userID == uuid.Nil {
		return identity.ErrNotAuthenticated
	}

	// Zero or negative means "take it out of the cart".
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, userID, productID)
	}

	if err := s.repo.SetChecked(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
			log.Warn().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).
				Msg("service: quantity update rejected")
			return err
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).
			Msg("service: failed to update quantity")
		return fmt.Errorf("service: failed to update quantity: %w", err)
	}

	s.watch.Notify(ctx, userID)
	return nil
}

func (s *service) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return identity.ErrNotAuthenticated
	}

	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).
			Msg("service: failed to remove cart line")
		return fmt.Errorf("service: failed to remove cart line: %w", err)
	}

	s.watch.Notify(ctx, userID)
	return nil
}

// ClearCart is best-effort: a failed delete leaves the rows for a later
// retry, and the caller decides whether that matters.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return identity.ErrNotAuthenticated
	}

	if err := s.repo.Clear(ctx, userID); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	s.watch.Notify(ctx, userID)
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]LineWithProduct, error) {
	if userID == uuid.Nil {
		return nil, identity.ErrNotAuthenticated
	}

	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list cart")
		return nil, fmt.Errorf("service: failed to list cart: %w", err)
	}

	return lines, nil
}

func (s *service) Observe(ctx context.Context, userID uuid.UUID) (<-chan []LineWithProduct, error) {
	if userID == uuid.Nil {
		return nil, identity.ErrNotAuthenticated
	}

	return s.watch.Subscribe(ctx, userID)
}
