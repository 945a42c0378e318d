package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Book(ctx context.Context, input booking.BookInput) (*domain.FlightBooking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightBooking), args.Error(1)
}

func (m *MockBookingUseCase) Get(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightBooking), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightBooking), args.Error(1)
}

func (m *MockBookingUseCase) ExpirePending(ctx context.Context) ([]domain.FlightBooking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FlightBooking), args.Error(1)
}

func (m *MockBookingUseCase) Ticket(ctx context.Context, reference string) ([]byte, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func testBooking(status domain.BookingStatus) *domain.FlightBooking {
	return &domain.FlightBooking{
		ID:        1,
		Reference: "ALT7K2M9QXA",
		PNR:       "QWERTY",
		Status:    status,
		Verified:  true,
		Offer:     testOffer(),
		Passengers: []domain.Passenger{
			{FirstName: "Ada", LastName: "Obi", DateOfBirth: "1990-01-01", Gender: domain.GenderFemale},
		},
		Contact: domain.Contact{Email: "ada@example.com", Phone: "+2348030000000"},
		Pricing: domain.Breakdown{
			Currency: "NGN", Base: 45_000_000, Tax: 6_750_000, ServiceFee: 2_500_000, Total: 54_250_000,
		},
		CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	b := testBooking(domain.BookingStatusConfirmed)
	input := booking.BookInput{
		Offer:       b.Offer,
		Passengers:  b.Passengers,
		Contact:     b.Contact,
		Destination: "Abuja",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/api/flights/book", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Book", c.Request.Context(), mock.AnythingOfType("booking.BookInput")).Return(b, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ALT7K2M9QXA", response.Reference)
	assert.Equal(t, "QWERTY", response.PNR)
	assert.Equal(t, string(domain.BookingStatusConfirmed), response.Status)
	assert.Equal(t, "₦542,500.00", response.Display.Total)
	assert.Empty(t, response.ExpiresAt)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid travellers", domain.Invalid("passengers[0].firstName", "is required"), http.StatusBadRequest},
		{"duplicate submit", domain.ErrLocked, http.StatusConflict},
		{"internal", fmt.Errorf("insert booking: connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/api/flights/book", bytes.NewReader([]byte(`{"passengers":[]}`)))
			c.Request.Header.Set("Content-Type", "application/json")

			mockService.On("Book", c.Request.Context(), mock.Anything).Return(nil, tt.err)

			handler.create(c)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestBookingHandler_create_malformed(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/flights/book", bytes.NewReader([]byte(`{`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_get(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	reference := "ALT7K2M9QXA"
	c.Params = gin.Params{{Key: "reference", Value: reference}}
	c.Request = httptest.NewRequest("GET", "/api/flights/bookings/"+reference, nil)

	b := testBooking(domain.BookingStatusPending)
	b.PNR = ""
	b.ExpiresAt = time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)
	mockService.On("Get", c.Request.Context(), reference).Return(b, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.BookingStatusPending), response.Status)
	assert.Empty(t, response.PNR)
	assert.Equal(t, "2025-05-01T10:30:00Z", response.ExpiresAt)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_notFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "reference", Value: "NOPE"}}
	c.Request = httptest.NewRequest("GET", "/api/flights/bookings/NOPE", nil)

	mockService.On("Get", c.Request.Context(), "NOPE").Return(nil, domain.NotFoundError{Resource: "booking"})

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	reference := "ALT7K2M9QXA"
	c.Params = gin.Params{{Key: "reference", Value: reference}}
	c.Request = httptest.NewRequest("DELETE", "/api/flights/bookings/"+reference, nil)

	mockService.On("Cancel", c.Request.Context(), reference).Return(testBooking(domain.BookingStatusCancelled), nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.BookingStatusCancelled), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_invalidTransition(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "reference", Value: "ALT7K2M9QXA"}}
	c.Request = httptest.NewRequest("DELETE", "/api/flights/bookings/ALT7K2M9QXA", nil)

	mockService.On("Cancel", c.Request.Context(), "ALT7K2M9QXA").
		Return(nil, fmt.Errorf("cancel booking: %w", domain.ErrInvalidTransition))

	handler.cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandler_ticket(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	reference := "ALT7K2M9QXA"
	c.Params = gin.Params{{Key: "reference", Value: reference}}
	c.Request = httptest.NewRequest("GET", "/api/flights/bookings/"+reference+"/ticket", nil)

	pdf := []byte("%PDF-1.3 test")
	mockService.On("Ticket", c.Request.Context(), reference).Return(pdf, nil)

	handler.ticket(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ticket-ALT7K2M9QXA.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, pdf, w.Body.Bytes())

	mockService.AssertExpectations(t)
}
