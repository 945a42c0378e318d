package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderFilter struct {
	Type       domain.OrderType
	Status     domain.OrderStatus
	MerchantID string
	Limit      int
	Offset     int
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// UpdateStatus moves the order only if it is still in status from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

const orderColumns = `id, type, order_data, customer_info, total_price, currency, status, source, COALESCE(merchant_id, ''), created_at, updated_at`

func (r *PGOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	var merchantID *string
	if o.MerchantID != "" {
		merchantID = &o.MerchantID
	}

	return r.db.QueryRow(ctx, `INSERT INTO orders (id, type, order_data, customer_info, total_price, currency, status, source, merchant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		o.ID, o.Type, []byte(o.OrderData), []byte(o.CustomerInfo), o.TotalPrice, o.Currency, o.Status, o.Source, merchantID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *PGOrderRepository) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	query, args := listOrdersQuery(f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *PGOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `UPDATE orders SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+orderColumns, to, id, from)
	o, err := scanOrder(row)
	if domain.IsNotFound(err) {
		// either gone or moved concurrently
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, domain.ErrInvalidTransition
		}
	}
	return o, err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                   domain.Order
		orderData, customer []byte
	)
	err := row.Scan(&o.ID, &o.Type, &orderData, &customer, &o.TotalPrice, &o.Currency, &o.Status, &o.Source, &o.MerchantID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "order", Err: err}
		}
		return nil, err
	}
	o.OrderData = orderData
	o.CustomerInfo = customer
	return &o, nil
}

var _ OrderRepository = (*PGOrderRepository)(nil)

func listOrdersQuery(f OrderFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, "type=$"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status=$"+strconv.Itoa(len(args)))
	}
	if f.MerchantID != "" {
		args = append(args, f.MerchantID)
		where = append(where, "merchant_id=$"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	return query, args
}
