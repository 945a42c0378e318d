package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.FlightBooking) error
	GetByReference(ctx context.Context, reference string) (*domain.FlightBooking, error)
	UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.FlightBooking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.FlightBooking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, pnr, gds_order_id, status, verified, offer, passengers, contact, destination,
	currency, base_amount, tax_amount, service_fee, total_amount, expires_at, created_at, updated_at`

// Create inserts a booking. A duplicate reference yields domain.ErrConflict.
func (r *PGBookingRepository) Create(ctx context.Context, b *domain.FlightBooking) error {
	offer, err := json.Marshal(b.Offer)
	if err != nil {
		return err
	}
	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return err
	}
	contact, err := json.Marshal(b.Contact)
	if err != nil {
		return err
	}

	var expiresAt *time.Time
	if !b.ExpiresAt.IsZero() {
		expiresAt = &b.ExpiresAt
	}

	err = r.db.QueryRow(ctx, `INSERT INTO flight_bookings
		(reference, pnr, gds_order_id, status, verified, offer, passengers, contact, destination,
		 currency, base_amount, tax_amount, service_fee, total_amount, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.PNR, b.GDSOrderID, b.Status, b.Verified, offer, passengers, contact, b.Destination,
		b.Pricing.Currency, b.Pricing.Base, b.Pricing.Tax, b.Pricing.ServiceFee, b.Pricing.Total, expiresAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("booking reference %s: %w", b.Reference, domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM flight_bookings WHERE reference=$1`, reference)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.FlightBooking, error) {
	row := r.db.QueryRow(ctx, `UPDATE flight_bookings SET status=$1, updated_at=now() WHERE reference=$2 RETURNING `+bookingColumns, status, reference)
	return scanBooking(row)
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.FlightBooking, error) {
	rows, err := r.db.Query(ctx, `UPDATE flight_bookings SET status=$1, updated_at=now()
		WHERE status=$2 AND expires_at IS NOT NULL AND expires_at <= $3
		RETURNING `+bookingColumns, domain.BookingStatusExpired, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.FlightBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.FlightBooking, error) {
	var (
		b                          domain.FlightBooking
		offer, passengers, contact []byte
		expiresAt                  *time.Time
	)
	err := row.Scan(&b.ID, &b.Reference, &b.PNR, &b.GDSOrderID, &b.Status, &b.Verified, &offer, &passengers, &contact, &b.Destination,
		&b.Pricing.Currency, &b.Pricing.Base, &b.Pricing.Tax, &b.Pricing.ServiceFee, &b.Pricing.Total, &expiresAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return nil, err
	}

	if err := json.Unmarshal(offer, &b.Offer); err != nil {
		return nil, fmt.Errorf("decode offer: %w", err)
	}
	if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
		return nil, fmt.Errorf("decode passengers: %w", err)
	}
	if err := json.Unmarshal(contact, &b.Contact); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	if expiresAt != nil {
		b.ExpiresAt = *expiresAt
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
