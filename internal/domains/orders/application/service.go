package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

// Service orchestrates order use cases.
type Service struct {
	orders      ports.OrderRepository
	menus       ports.MenuRepository
	tables      ports.OrderTableService
	tx          ports.TxManager
	idempotency ports.IdempotencyStore
	events      ports.EventPublisher
	now         func() time.Time
}

type Option func(*Service)

// WithIdempotencyStore enables replay of create requests carrying an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orders service with its collaborators. A nil tx runs without transactions.
func NewService(
	orders ports.OrderRepository,
	menus ports.MenuRepository,
	tables ports.OrderTableService,
	tx ports.TxManager,
	opts ...Option,
) *Service {
	if tx == nil {
		tx = ports.NoopTxManager
	}
	s := &Service{
		orders: orders,
		menus:  menus,
		tables: tables,
		tx:     tx,
		events: ports.NoopEventPublisher,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create validates the referenced table and menus, then persists a new order.
func (s *Service) Create(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	key := strings.TrimSpace(request.IdempotencyKey)
	var hash string
	if key != "" && s.idempotency != nil {
		fingerprint, err := FingerprintCreateOrder(request)
		if err != nil {
			return nil, err
		}
		hash = fingerprint
	}

	// Stores outside the transaction are reserved up front and completed after commit.
	reservations, external := s.idempotency.(ports.IdempotencyReservations)
	reserved := false
	if hash != "" && external {
		existing, err := reservations.Reserve(ctx, key, hash)
		if err != nil {
			return nil, mapError(err)
		}
		if existing != nil {
			order, err := s.replayRecord(ctx, key, hash, existing)
			if err != nil {
				return nil, mapError(err)
			}
			return MapToResponse(order), nil
		}
		reserved = true
	}

	var (
		saved    *domain.Order
		replayed bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if hash != "" && !external {
			existing, err := s.replay(ctx, key, hash)
			if err != nil {
				return err
			}
			if existing != nil {
				saved, replayed = existing, true
				return nil
			}
		}
		if err := s.checkOrderTableExists(ctx, request.OrderTableID); err != nil {
			return err
		}
		if err := s.checkAllMenuExists(ctx, request); err != nil {
			return err
		}
		order, err := s.makeOrder(request)
		if err != nil {
			return err
		}
		persisted, err := s.orders.Save(ctx, order)
		if err != nil {
			return err
		}
		if hash != "" && !external {
			if _, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
				Key:         key,
				RequestHash: hash,
				OrderID:     persisted.ID,
			}); err != nil {
				return err
			}
		}
		saved = persisted
		return nil
	})
	if err != nil {
		if reserved {
			if releaseErr := reservations.Release(ctx, key); releaseErr != nil {
				err = errors.Join(err, fmt.Errorf("release idempotency key %q: %w", key, releaseErr))
			}
		}
		return nil, mapError(err)
	}
	if reserved {
		// The order is committed either way; an uncompleted reservation expires on its own.
		_, _ = s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: hash,
			OrderID:     saved.ID,
		})
	}
	if !replayed {
		s.publish(ctx, domain.OrderCreated{
			BaseEvent:    domain.BaseEvent{Timestamp: s.now()},
			OrderID:      saved.ID,
			OrderTableID: saved.OrderTableID,
			OrderStatus:  saved.OrderStatus,
			MenuIDs:      saved.OrderLineItems.MenuIDs(),
		})
	}
	return MapToResponse(saved), nil
}

// List returns every order in store order.
func (s *Service) List(ctx context.Context) ([]*types.OrderResponse, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return MapToResponses(orders), nil
}

// ChangeOrderStatus applies a status transition; the aggregate decides whether it is legal.
func (s *Service) ChangeOrderStatus(ctx context.Context, orderID int64, request types.OrderStatusChangeRequest) (*types.OrderResponse, error) {
	status, err := MapToOrderStatus(request)
	if err != nil {
		return nil, mapError(err)
	}
	var (
		saved    *domain.Order
		previous domain.OrderStatus
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		previous = order.OrderStatus
		if err := order.ChangeOrderStatus(status); err != nil {
			return err
		}
		saved, err = s.orders.Save(ctx, order)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.OrderStatusChanged{
		BaseEvent:  domain.BaseEvent{Timestamp: s.now()},
		OrderID:    saved.ID,
		FromStatus: previous,
		ToStatus:   saved.OrderStatus,
	})
	return MapToResponse(saved), nil
}

func (s *Service) checkOrderTableExists(ctx context.Context, orderTableID int64) error {
	notExist, err := s.tables.IsOrderTableNotExist(ctx, orderTableID)
	if err != nil {
		return err
	}
	if notExist {
		return fmt.Errorf("%w: id %d", ErrOrderTableNotFound, orderTableID)
	}
	return nil
}

func (s *Service) checkAllMenuExists(ctx context.Context, request types.OrderCreateRequest) error {
	menuIDs := request.MenuIDs()
	if len(menuIDs) == 0 {
		return domain.ErrEmptyOrderLineItems
	}
	exists, err := s.menus.ExistsAllByIDIn(ctx, menuIDs)
	if err != nil {
		return err
	}
	if !exists {
		return ErrMenuNotFound
	}
	return nil
}

func (s *Service) makeOrder(request types.OrderCreateRequest) (*domain.Order, error) {
	items := make([]domain.OrderLineItem, 0, len(request.OrderLineItems))
	for _, it := range request.OrderLineItems {
		item, err := domain.NewOrderLineItem(it.MenuID, it.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	lineItems, err := domain.NewOrderLineItems(items)
	if err != nil {
		return nil, err
	}
	return domain.NewOrder(request.OrderTableID, lineItems, s.now())
}

func (s *Service) replay(ctx context.Context, key, hash string) (*domain.Order, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil || record == nil {
		return nil, err
	}
	return s.replayRecord(ctx, key, hash, record)
}

func (s *Service) replayRecord(ctx context.Context, key, hash string, record *ports.IdempotencyRecord) (*domain.Order, error) {
	if record.RequestHash != hash {
		return nil, ports.ErrIdempotencyConflict
	}
	if record.Pending() {
		return nil, fmt.Errorf("%w: key %q", ports.ErrIdempotencyInProgress, key)
	}
	order, err := s.orders.FindByID(ctx, record.OrderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("%w: key %q points to missing order %d", ports.ErrIdempotencyConflict, key, record.OrderID)
	}
	return order, err
}

// publish runs after commit. Delivery failures are reported by the publisher and never undo the order.
func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	_ = s.events.Publish(ctx, events...)
}

var _ ports.Service = (*Service)(nil)
