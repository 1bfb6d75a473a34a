package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request referenced missing entities or violated an input invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrNotFound signals the addressed order does not exist.
	ErrNotFound = errors.New("order lookup failed")
	// ErrDomainRule signals the aggregate rejected the requested change.
	ErrDomainRule = errors.New("order rule violated")
	// ErrConflict signals a concurrent modification or a reused idempotency key.
	ErrConflict = errors.New("order conflict")

	ErrOrderTableNotFound = errors.New("order table does not exist")
	ErrMenuNotFound       = errors.New("one or more menus do not exist")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDomainRule) ||
		errors.Is(err, ErrConflict) {
		return err
	}
	switch {
	case errors.Is(err, ErrOrderTableNotFound),
		errors.Is(err, ErrMenuNotFound),
		errors.Is(err, domain.ErrInvalidOrderTableID),
		errors.Is(err, domain.ErrInvalidMenuID),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyOrderLineItems),
		errors.Is(err, domain.ErrInvalidOrderStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, domain.ErrOrderCompleted):
		return fmt.Errorf("%w: %w", ErrDomainRule, err)
	case errors.Is(err, ports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ports.ErrVersionConflict),
		errors.Is(err, ports.ErrIdempotencyConflict),
		errors.Is(err, ports.ErrIdempotencyInProgress):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
