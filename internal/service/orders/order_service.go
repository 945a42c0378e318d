package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/kafka"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/Domenick1991/alphatravel/internal/repository"
	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type OrderUseCase interface {
	Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	CreateManual(ctx context.Context, input CreateOrderInput, author string) (*domain.Order, error)
	List(ctx context.Context, filter ListOrdersFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, merchantID string) (*domain.Order, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// CreateOrderInput is the order payload posted by the web surfaces. TotalPrice
// is a decimal amount in major units of Currency.
type CreateOrderInput struct {
	Type         domain.OrderType `json:"type"`
	OrderData    json.RawMessage  `json:"orderData"`
	CustomerInfo json.RawMessage  `json:"customerInfo"`
	TotalPrice   json.Number      `json:"totalPrice"`
	Currency     string           `json:"currency"`
	MerchantID   string           `json:"merchantId"`
}

// ListOrdersFilter narrows the listing. A non-empty MerchantID limits it to
// that merchant's orders.
type ListOrdersFilter struct {
	Type       domain.OrderType
	Status     domain.OrderStatus
	MerchantID string
	Limit      int
	Offset     int
}

type customerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type OrderService struct {
	orders             repository.OrderRepository
	producer           Producer
	orderTopic         string
	notificationsTopic string
	currency           string
	log                logger.ILogger
	now                func() time.Time
}

type OrderServiceOption func(*OrderService)

func WithNotificationsTopic(topic string) OrderServiceOption {
	return func(s *OrderService) {
		s.notificationsTopic = topic
	}
}

func NewOrderService(orders repository.OrderRepository, producer Producer, orderTopic, currency string, log logger.ILogger, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		orders:     orders,
		producer:   producer,
		orderTopic: orderTopic,
		currency:   strings.ToUpper(currency),
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	order, err := s.build(input, domain.OrderSourceWeb, domain.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

// CreateManual records an order entered by staff. It starts confirmed and
// keeps the author in the order data.
func (s *OrderService) CreateManual(ctx context.Context, input CreateOrderInput, author string) (*domain.Order, error) {
	order, err := s.build(input, domain.OrderSourceManual, domain.OrderStatusConfirmed)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if len(order.OrderData) > 0 {
		if err := json.Unmarshal(order.OrderData, &data); err != nil {
			return nil, domain.Invalid("orderData", "must be a JSON object")
		}
	}
	data["createdBy"] = author
	data["createdAt"] = s.now().UTC().Format(time.RFC3339)
	if order.OrderData, err = json.Marshal(data); err != nil {
		return nil, err
	}
	return s.save(ctx, order)
}

func (s *OrderService) List(ctx context.Context, f ListOrdersFilter) ([]domain.Order, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, domain.Invalid("type", "must be hotel, car, shortlet or flight")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Invalid("status", "must be pending, confirmed, completed or cancelled")
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.orders.List(ctx, repository.OrderFilter{
		Type:       f.Type,
		Status:     f.Status,
		MerchantID: f.MerchantID,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
}

// UpdateStatus moves an order along its lifecycle. With a merchantID only
// that merchant's orders can be changed; others read as not found.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, merchantID string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.Invalid("id", "must be a UUID")
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", "must be pending, confirmed, completed or cancelled")
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if merchantID != "" && current.MerchantID != merchantID {
		s.log.Warning("order status change outside merchant scope", logger.String("order", id), logger.String("merchant", merchantID))
		return nil, domain.NotFoundError{Resource: "order"}
	}
	if current.Status == status {
		return current, nil
	}
	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("order %s %s -> %s: %w", id, current.Status, status, domain.ErrInvalidTransition)
	}

	updated, err := s.orders.UpdateStatus(ctx, id, current.Status, status)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, fmt.Errorf("order %s changed concurrently: %w", id, err)
		}
		return nil, err
	}

	s.log.Info("order status changed", logger.String("order", id), logger.String("from", string(current.Status)), logger.String("to", string(status)))
	if err := s.publish(ctx, kafka.EventOrderStatusChanged, updated, current.Status); err != nil {
		s.log.Warning("publish order event failed", logger.String("order", id), logger.Error(err))
	}
	return updated, nil
}

func (s *OrderService) build(input CreateOrderInput, source domain.OrderSource, status domain.OrderStatus) (*domain.Order, error) {
	input.Type = domain.OrderType(strings.ToLower(string(input.Type)))
	if !input.Type.Valid() {
		return nil, domain.Invalid("type", "must be hotel, car, shortlet or flight")
	}
	if len(input.OrderData) > 0 && !json.Valid(input.OrderData) {
		return nil, domain.Invalid("orderData", "must be valid JSON")
	}

	var customer customerInfo
	if len(input.CustomerInfo) == 0 || json.Unmarshal(input.CustomerInfo, &customer) != nil {
		return nil, domain.Invalid("customerInfo", "must be a JSON object")
	}
	if strings.TrimSpace(customer.Email) == "" && strings.TrimSpace(customer.Phone) == "" {
		return nil, domain.Invalid("customerInfo", "email or phone is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.currency
	}
	exp, err := money.Exponent(currency)
	if err != nil {
		return nil, domain.Invalid("currency", err.Error())
	}
	total, err := money.ParseMinor(input.TotalPrice.String(), exp)
	if errors.Is(err, money.ErrOverflow) {
		return nil, domain.Invalid("totalPrice", "is too large")
	}
	if err != nil {
		return nil, domain.Invalid("totalPrice", "must be a decimal amount")
	}
	if total <= 0 {
		return nil, domain.Invalid("totalPrice", "must be greater than zero")
	}

	data := input.OrderData
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	return &domain.Order{
		ID:           uuid.NewString(),
		Type:         input.Type,
		OrderData:    data,
		CustomerInfo: input.CustomerInfo,
		TotalPrice:   total,
		Currency:     currency,
		Status:       status,
		Source:       source,
		MerchantID:   strings.TrimSpace(input.MerchantID),
	}, nil
}

func (s *OrderService) save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("order created",
		logger.String("order", order.ID),
		logger.String("type", string(order.Type)),
		logger.String("source", string(order.Source)),
	)
	if err := s.publish(ctx, kafka.EventOrderCreated, order, ""); err != nil {
		s.log.Warning("publish order event failed", logger.String("order", order.ID), logger.Error(err))
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, o *domain.Order, previous domain.OrderStatus) error {
	if s.producer == nil || s.orderTopic == "" {
		return nil
	}
	event := kafka.OrderEvent{
		Type:           eventType,
		OrderID:        o.ID,
		OrderType:      string(o.Type),
		Status:         string(o.Status),
		PreviousStatus: string(previous),
		Source:         string(o.Source),
		Total:          o.TotalPrice,
		Currency:       o.Currency,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.orderTopic, o.ID, event); err != nil {
		return err
	}

	var customer customerInfo
	_ = json.Unmarshal(o.CustomerInfo, &customer)
	if s.notificationsTopic == "" || customer.Email == "" {
		return nil
	}
	return s.producer.Publish(ctx, s.notificationsTopic, o.ID, kafka.Notification{
		Kind:      eventType,
		Email:     customer.Email,
		Reference: o.ID,
		Status:    string(o.Status),
		Summary:   fmt.Sprintf("%s order, %s", o.Type, money.Format(o.TotalPrice, o.Currency)),
	})
}

var _ OrderUseCase = (*OrderService)(nil)
