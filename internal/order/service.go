package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/identity"
)

// Status transitions are driven externally (admin console); the service
// only guards that they stay on the allowed paths.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// Service covers the order reads and the externally driven status updates.
// Placement goes through Placer.
type Service interface {
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// GetOrderByID returns the order with its lines. Orders are only visible
// to the identity that placed them; anything else reads as not found.
func (s *service) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*Order, error) {
	if userID == uuid.Nil {
		return nil, identity.ErrNotAuthenticated
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	if o.UserID != userID {
		return nil, ErrNotFound
	}

	return o, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	if userID == uuid.Nil {
		return nil, identity.ErrNotAuthenticated
	}

	orders, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).
			Msg("service: order status already set, no update needed")
		return nil
	}

	if !allowedTransitions[current.Status][newStatus] {
		log.Warn().Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).
			Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).
		Stringer("old_status", current.Status).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")

	return nil
}
