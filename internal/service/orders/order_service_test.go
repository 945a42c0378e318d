package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/kafka"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newService(repo *MockOrderRepository, producer *MockProducer) *OrderService {
	s := NewOrderService(repo, producer, "order-events", "NGN", logger.Nop(), WithNotificationsTopic("notifications"))
	s.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func hotelInput() CreateOrderInput {
	return CreateOrderInput{
		Type:         "Hotel",
		OrderData:    json.RawMessage(`{"hotel":"Eko Hotel","nights":2}`),
		CustomerInfo: json.RawMessage(`{"name":"Ada Obi","email":"ada@example.com"}`),
		TotalPrice:   json.Number("150000.50"),
	}
}

func TestOrderService_Create(t *testing.T) {
	repo := &MockOrderRepository{}
	producer := &MockProducer{}
	s := newService(repo, producer)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(o *domain.Order) bool {
		_, err := uuid.Parse(o.ID)
		return err == nil && o.Status == domain.OrderStatusPending && o.Source == domain.OrderSourceWeb
	})).Return(nil).Once()
	producer.On("Publish", ctx, "order-events", mock.AnythingOfType("string"), mock.MatchedBy(func(e kafka.OrderEvent) bool {
		return e.Type == kafka.EventOrderCreated && e.Total == 15_000_050
	})).Return(nil).Once()
	producer.On("Publish", ctx, "notifications", mock.AnythingOfType("string"), mock.MatchedBy(func(n kafka.Notification) bool {
		return n.Email == "ada@example.com"
	})).Return(nil).Once()

	order, err := s.Create(ctx, hotelInput())

	require.NoError(t, err)
	assert.Equal(t, domain.OrderTypeHotel, order.Type)
	assert.Equal(t, int64(15_000_050), order.TotalPrice)
	assert.Equal(t, "NGN", order.Currency)
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestOrderService_Create_PhoneOnlyCustomerSkipsNotification(t *testing.T) {
	repo := &MockOrderRepository{}
	producer := &MockProducer{}
	s := newService(repo, producer)
	ctx := context.Background()

	in := hotelInput()
	in.CustomerInfo = json.RawMessage(`{"phone":"08030000000"}`)
	in.OrderData = nil

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, "order-events", mock.Anything, mock.Anything).Return(nil).Once()

	order, err := s.Create(ctx, in)

	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(order.OrderData))
	producer.AssertExpectations(t)
}

func TestOrderService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(in *CreateOrderInput)
		field string
	}{
		{"unknown type", func(in *CreateOrderInput) { in.Type = "cruise" }, "type"},
		{"zero total", func(in *CreateOrderInput) { in.TotalPrice = "0" }, "totalPrice"},
		{"negative total", func(in *CreateOrderInput) { in.TotalPrice = "-10" }, "totalPrice"},
		{"missing total", func(in *CreateOrderInput) { in.TotalPrice = "" }, "totalPrice"},
		{"total out of range", func(in *CreateOrderInput) { in.TotalPrice = "184467440737095517" }, "totalPrice"},
		{"no customer", func(in *CreateOrderInput) { in.CustomerInfo = nil }, "customerInfo"},
		{"customer without contact", func(in *CreateOrderInput) { in.CustomerInfo = json.RawMessage(`{"name":"Ada"}`) }, "customerInfo"},
		{"bad order data", func(in *CreateOrderInput) { in.OrderData = json.RawMessage(`{`) }, "orderData"},
		{"bad currency", func(in *CreateOrderInput) { in.Currency = "XYZW" }, "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOrderRepository{}
			s := newService(repo, &MockProducer{})
			in := hotelInput()
			tt.mod(&in)

			_, err := s.Create(context.Background(), in)

			var verr domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_CreateManual(t *testing.T) {
	repo := &MockOrderRepository{}
	producer := &MockProducer{}
	s := newService(repo, producer)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := s.CreateManual(ctx, hotelInput(), "admin@alphatravel.ng")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderSourceManual, order.Source)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(order.OrderData, &data))
	assert.Equal(t, "admin@alphatravel.ng", data["createdBy"])
	assert.Equal(t, "Eko Hotel", data["hotel"])
}

func TestOrderService_List_Limits(t *testing.T) {
	repo := &MockOrderRepository{}
	s := newService(repo, &MockProducer{})
	ctx := context.Background()

	repo.On("List", ctx, repository.OrderFilter{Limit: 50}).Return([]domain.Order{}, nil).Once()
	repo.On("List", ctx, repository.OrderFilter{Type: domain.OrderTypeCar, Limit: 200, Offset: 10}).Return([]domain.Order{{ID: "x"}}, nil).Once()

	_, err := s.List(ctx, ListOrdersFilter{})
	require.NoError(t, err)

	orders, err := s.List(ctx, ListOrdersFilter{Type: domain.OrderTypeCar, Limit: 1000, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	repo.On("List", ctx, repository.OrderFilter{MerchantID: "m-1", Limit: 50}).Return([]domain.Order{}, nil).Once()
	_, err = s.List(ctx, ListOrdersFilter{MerchantID: "m-1"})
	require.NoError(t, err)

	_, err = s.List(ctx, ListOrdersFilter{Status: "lost"})
	assert.True(t, domain.IsValidation(err))
	repo.AssertExpectations(t)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	repo := &MockOrderRepository{}
	producer := &MockProducer{}
	s := newService(repo, producer)
	ctx := context.Background()
	id := uuid.NewString()

	current := &domain.Order{ID: id, Type: domain.OrderTypeCar, Status: domain.OrderStatusPending, CustomerInfo: json.RawMessage(`{"email":"ada@example.com"}`)}
	updated := *current
	updated.Status = domain.OrderStatusConfirmed

	repo.On("GetByID", ctx, id).Return(current, nil).Once()
	repo.On("UpdateStatus", ctx, id, domain.OrderStatusPending, domain.OrderStatusConfirmed).Return(&updated, nil).Once()
	producer.On("Publish", ctx, "order-events", id, mock.MatchedBy(func(e kafka.OrderEvent) bool {
		return e.Type == kafka.EventOrderStatusChanged && e.PreviousStatus == "pending" && e.Status == "confirmed"
	})).Return(nil).Once()
	producer.On("Publish", ctx, "notifications", id, mock.Anything).Return(nil).Once()

	order, err := s.UpdateStatus(ctx, id, domain.OrderStatusConfirmed, "")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	producer.AssertExpectations(t)
}

func TestOrderService_UpdateStatus_MerchantScope(t *testing.T) {
	repo := &MockOrderRepository{}
	producer := &MockProducer{}
	s := newService(repo, producer)
	ctx := context.Background()
	id := uuid.NewString()

	current := &domain.Order{ID: id, Type: domain.OrderTypeHotel, MerchantID: "m-2", Status: domain.OrderStatusPending}
	repo.On("GetByID", ctx, id).Return(current, nil)

	_, err := s.UpdateStatus(ctx, id, domain.OrderStatusConfirmed, "m-1")

	var nf domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	updated := *current
	updated.Status = domain.OrderStatusConfirmed
	repo.On("UpdateStatus", ctx, id, domain.OrderStatusPending, domain.OrderStatusConfirmed).Return(&updated, nil).Once()
	producer.On("Publish", ctx, mock.Anything, id, mock.Anything).Return(nil)

	order, err := s.UpdateStatus(ctx, id, domain.OrderStatusConfirmed, "m-2")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
}

func TestOrderService_UpdateStatus_SameStatusIsNoop(t *testing.T) {
	repo := &MockOrderRepository{}
	s := newService(repo, &MockProducer{})
	ctx := context.Background()
	id := uuid.NewString()

	current := &domain.Order{ID: id, Status: domain.OrderStatusCompleted}
	repo.On("GetByID", ctx, id).Return(current, nil).Once()

	order, err := s.UpdateStatus(ctx, id, domain.OrderStatusCompleted, "")

	require.NoError(t, err)
	assert.Equal(t, current, order)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_UpdateStatus_InvalidTransition(t *testing.T) {
	repo := &MockOrderRepository{}
	s := newService(repo, &MockProducer{})
	ctx := context.Background()
	id := uuid.NewString()

	repo.On("GetByID", ctx, id).Return(&domain.Order{ID: id, Status: domain.OrderStatusCancelled}, nil).Once()

	_, err := s.UpdateStatus(ctx, id, domain.OrderStatusConfirmed, "")

	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestOrderService_UpdateStatus_ConcurrentChange(t *testing.T) {
	repo := &MockOrderRepository{}
	s := newService(repo, &MockProducer{})
	ctx := context.Background()
	id := uuid.NewString()

	repo.On("GetByID", ctx, id).Return(&domain.Order{ID: id, Status: domain.OrderStatusPending}, nil).Once()
	repo.On("UpdateStatus", ctx, id, domain.OrderStatusPending, domain.OrderStatusCancelled).Return(nil, domain.ErrInvalidTransition).Once()

	_, err := s.UpdateStatus(ctx, id, domain.OrderStatusCancelled, "")

	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestOrderService_UpdateStatus_BadInput(t *testing.T) {
	s := newService(&MockOrderRepository{}, &MockProducer{})

	_, err := s.UpdateStatus(context.Background(), "42", domain.OrderStatusConfirmed, "")
	assert.True(t, domain.IsValidation(err))

	_, err = s.UpdateStatus(context.Background(), uuid.NewString(), "shipped", "")
	assert.True(t, domain.IsValidation(err))
}
