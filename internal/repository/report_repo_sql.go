package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// OrderAggregate is one (type, status) group of orders.
type OrderAggregate struct {
	Type          domain.OrderType
	Status        domain.OrderStatus
	Count         int64
	Gross         int64
	MerchantGross int64
}

type BookingAggregate struct {
	Count      int64
	Base       int64
	Tax        int64
	ServiceFee int64
	Total      int64
}

// ReportRepository aggregates revenue. A non-empty merchantID limits order
// figures to that merchant and leaves flight bookings out.
type ReportRepository interface {
	OrderTotals(ctx context.Context, merchantID string, from, to time.Time) ([]OrderAggregate, error)
	BookingTotals(ctx context.Context, from, to time.Time) (BookingAggregate, error)
	Daily(ctx context.Context, merchantID string, from, to time.Time) ([]domain.DailyRevenue, error)
}

// SQLReportRepository runs the read-only admin reports over database/sql so
// they can be pointed at a replica.
type SQLReportRepository struct {
	db *sql.DB
}

// OpenReporting opens a database/sql handle using the pgx driver.
func OpenReporting(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open reporting db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &SQLReportRepository{db: db}
}

func (r *SQLReportRepository) OrderTotals(ctx context.Context, merchantID string, from, to time.Time) ([]OrderAggregate, error) {
	where := `created_at >= $1 AND created_at < $2`
	args := []interface{}{from, to}
	if merchantID != "" {
		where += ` AND merchant_id = $3`
		args = append(args, merchantID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT type, status, COUNT(*),
		COALESCE(SUM(total_price), 0),
		COALESCE(SUM(CASE WHEN merchant_id IS NOT NULL THEN total_price ELSE 0 END), 0)
		FROM orders
		WHERE `+where+`
		GROUP BY type, status
		ORDER BY type, status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderAggregate
	for rows.Next() {
		var a OrderAggregate
		if err := rows.Scan(&a.Type, &a.Status, &a.Count, &a.Gross, &a.MerchantGross); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLReportRepository) BookingTotals(ctx context.Context, from, to time.Time) (BookingAggregate, error) {
	var a BookingAggregate
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(SUM(base_amount), 0), COALESCE(SUM(tax_amount), 0),
		COALESCE(SUM(service_fee), 0), COALESCE(SUM(total_amount), 0)
		FROM flight_bookings
		WHERE status = $1 AND created_at >= $2 AND created_at < $3`,
		domain.BookingStatusConfirmed, from, to,
	).Scan(&a.Count, &a.Base, &a.Tax, &a.ServiceFee, &a.Total)
	return a, err
}

func (r *SQLReportRepository) Daily(ctx context.Context, merchantID string, from, to time.Time) ([]domain.DailyRevenue, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if merchantID != "" {
		rows, err = r.db.QueryContext(ctx, `SELECT date_trunc('day', created_at) AS day, COUNT(*), SUM(total_price)
			FROM orders
			WHERE status <> $1 AND merchant_id = $2 AND created_at >= $3 AND created_at < $4
			GROUP BY 1 ORDER BY 1`,
			domain.OrderStatusCancelled, merchantID, from, to)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT day, SUM(cnt), SUM(gross) FROM (
				SELECT date_trunc('day', created_at) AS day, COUNT(*) AS cnt, SUM(total_price) AS gross
				FROM orders WHERE status <> $1 AND created_at >= $3 AND created_at < $4 GROUP BY 1
				UNION ALL
				SELECT date_trunc('day', created_at), COUNT(*), SUM(total_amount)
				FROM flight_bookings WHERE status = $2 AND created_at >= $3 AND created_at < $4 GROUP BY 1
			) t GROUP BY day ORDER BY day`,
			domain.OrderStatusCancelled, domain.BookingStatusConfirmed, from, to)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyRevenue
	for rows.Next() {
		var d domain.DailyRevenue
		if err := rows.Scan(&d.Day, &d.Count, &d.Gross); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ ReportRepository = (*SQLReportRepository)(nil)
