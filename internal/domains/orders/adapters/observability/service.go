package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/application/types"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Create(ctx context.Context, request types.OrderCreateRequest) (*types.OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(
			attribute.Int64("order.table_id", request.OrderTableID),
			attribute.Int("order.line_items", len(request.OrderLineItems)),
			attribute.Bool("order.idempotent", request.IdempotencyKey != ""),
		))
	defer span.End()

	s.logInfo(ctx, "creating order",
		slog.Int64("order.table_id", request.OrderTableID),
		slog.Int("order.line_items", len(request.OrderLineItems)))
	result, err := s.inner.Create(ctx, request)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.Int64("order.table_id", request.OrderTableID))
	}
	span.SetAttributes(attribute.Int64("order.id", result.ID))
	s.metrics.recordCreated(ctx, result.OrderStatus)
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.ID), slog.String("status", result.OrderStatus))
	return result, nil
}

func (s *Service) List(ctx context.Context) ([]*types.OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer span.End()

	result, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	s.logInfo(ctx, "orders listed", slog.Int("count", len(result)))
	return result, nil
}

func (s *Service) ChangeOrderStatus(ctx context.Context, orderID int64, request types.OrderStatusChangeRequest) (*types.OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ChangeOrderStatus",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.requested_status", request.OrderStatus)))
	defer span.End()

	s.logInfo(ctx, "changing order status", slog.Int64("order.id", orderID), slog.String("status", request.OrderStatus))
	result, err := s.inner.ChangeOrderStatus(ctx, orderID, request)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to change order status", slog.Int64("order.id", orderID))
	}
	s.metrics.recordStatusChange(ctx, result.OrderStatus)
	s.logInfo(ctx, "order status changed", slog.Int64("order.id", result.ID), slog.String("status", result.OrderStatus))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated metric.Int64Counter
	statusChanges metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.orders_created", metric.WithDescription("Number of orders created"))
	statusChanges, _ := m.Int64Counter("orders.service.status_changes", metric.WithDescription("Number of order status changes"))
	return serviceMetrics{ordersCreated: ordersCreated, statusChanges: statusChanges}
}

func (m serviceMetrics) recordCreated(ctx context.Context, status string) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", status)))
	}
}

func (m serviceMetrics) recordStatusChange(ctx context.Context, status string) {
	if m.statusChanges != nil {
		m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", status)))
	}
}

var _ ports.Service = (*Service)(nil)
