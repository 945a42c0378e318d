package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/alphatravel/config"
	"github.com/Domenick1991/alphatravel/internal/auth"
	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/Domenick1991/alphatravel/internal/repository"
	"github.com/Domenick1991/alphatravel/internal/service/orders"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultRevenueWindow = 30 * 24 * time.Hour
	maxRevenueWindow     = 366 * 24 * time.Hour
)

type AdminUseCase interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Revenue(ctx context.Context, filter RevenueFilter) (*domain.RevenueReport, error)
	ManualBooking(ctx context.Context, input orders.CreateOrderInput, author string) (*domain.Order, error)
}

type ManualOrders interface {
	CreateManual(ctx context.Context, input orders.CreateOrderInput, author string) (*domain.Order, error)
}

type TokenIssuer interface {
	Issue(subject, role, merchantID string) (string, time.Time, error)
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}

// RevenueFilter bounds a report. MerchantID limits it to one merchant's
// orders; flight bookings belong to the platform and are left out.
type RevenueFilter struct {
	From       time.Time
	To         time.Time
	MerchantID string
}

type AdminService struct {
	accounts       map[string]config.AdminAccount
	tokens         TokenIssuer
	reports        repository.ReportRepository
	orders         ManualOrders
	currency       string
	commissionRate int64
	log            logger.ILogger
	now            func() time.Time
}

func NewAdminService(accounts []config.AdminAccount, tokens TokenIssuer, reports repository.ReportRepository, orders ManualOrders, currency string, commissionRate int64, log logger.ILogger) *AdminService {
	byEmail := make(map[string]config.AdminAccount, len(accounts))
	for _, a := range accounts {
		byEmail[strings.ToLower(strings.TrimSpace(a.Email))] = a
	}
	return &AdminService{
		accounts:       byEmail,
		tokens:         tokens,
		reports:        reports,
		orders:         orders,
		currency:       currency,
		commissionRate: commissionRate,
		log:            log,
		now:            time.Now,
	}
}

// dummyHash is compared when the account is unknown.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z.pyXSrFZu7CSyVVZq3tIRnO")

func (s *AdminService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.Invalid("email", "email and password are required")
	}

	account, ok := s.accounts[email]
	hash := dummyHash
	if ok {
		hash = []byte(account.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		s.log.Warning("admin login failed", logger.String("email", email))
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	role := account.Role
	if role != auth.RoleMerchant {
		role = auth.RoleAdmin
	}
	token, expires, err := s.tokens.Issue(email, role, account.MerchantID)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin login", logger.String("email", email), logger.String("role", role))
	return &Session{Token: token, ExpiresAt: expires, Role: role}, nil
}

func (s *AdminService) Revenue(ctx context.Context, f RevenueFilter) (*domain.RevenueReport, error) {
	if f.To.IsZero() {
		f.To = s.now().UTC()
	}
	if f.From.IsZero() {
		f.From = f.To.Add(-defaultRevenueWindow)
	}
	if !f.From.Before(f.To) {
		return nil, domain.Invalid("from", "must be before to")
	}
	if f.To.Sub(f.From) > maxRevenueWindow {
		return nil, domain.Invalid("from", "range must not exceed one year")
	}

	aggregates, err := s.reports.OrderTotals(ctx, f.MerchantID, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}
	var bookings repository.BookingAggregate
	if f.MerchantID == "" {
		bookings, err = s.reports.BookingTotals(ctx, f.From, f.To)
		if err != nil {
			return nil, fmt.Errorf("booking totals: %w", err)
		}
	}
	daily, err := s.reports.Daily(ctx, f.MerchantID, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}

	report := &domain.RevenueReport{
		Currency:    s.currency,
		From:        f.From,
		To:          f.To,
		ServiceFees: bookings.ServiceFee,
		Taxes:       bookings.Tax,
		Daily:       daily,
	}
	byType := map[string]*domain.RevenueBucket{}
	byStatus := map[string]*domain.RevenueBucket{}
	bucket := func(m map[string]*domain.RevenueBucket, key string) *domain.RevenueBucket {
		b, ok := m[key]
		if !ok {
			b = &domain.RevenueBucket{Key: key}
			m[key] = b
		}
		return b
	}

	for _, a := range aggregates {
		st := bucket(byStatus, string(a.Status))
		st.Count += a.Count
		st.Gross += a.Gross
		if a.Status == domain.OrderStatusCancelled {
			continue
		}
		fee := money.Commission(a.MerchantGross, s.commissionRate)
		st.PlatformFees += fee

		tb := bucket(byType, string(a.Type))
		tb.Count += a.Count
		tb.Gross += a.Gross
		tb.PlatformFees += fee

		report.GrossRevenue += a.Gross
		report.PlatformFees += fee
	}
	if bookings.Count > 0 {
		fb := bucket(byType, string(domain.OrderTypeFlight))
		fb.Count += bookings.Count
		fb.Gross += bookings.Total
		report.GrossRevenue += bookings.Total
	}

	report.ByType = sortedBuckets(byType)
	report.ByStatus = sortedBuckets(byStatus)
	if report.Daily == nil {
		report.Daily = []domain.DailyRevenue{}
	}
	return report, nil
}

func (s *AdminService) ManualBooking(ctx context.Context, input orders.CreateOrderInput, author string) (*domain.Order, error) {
	order, err := s.orders.CreateManual(ctx, input, author)
	if err != nil {
		return nil, err
	}
	s.log.Info("manual booking recorded", logger.String("order", order.ID), logger.String("author", author))
	return order, nil
}

func sortedBuckets(m map[string]*domain.RevenueBucket) []domain.RevenueBucket {
	out := make([]domain.RevenueBucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

var _ AdminUseCase = (*AdminService)(nil)
var _ TokenIssuer = (*auth.Tokens)(nil)
