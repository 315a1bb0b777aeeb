package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"restaurant-api/internal/domain"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

const orderColumns = `id::text, customer_name, customer_email, customer_phone, pickup_time, notes, total_amount, status, created_at`

// PostgresStore is the order gateway over a plain Postgres database. Every method issues autocommitted
// statements only, so it keeps the same contract as the hosted store and order creation still goes
// through the compensating saga.
type PostgresStore struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, driver, dsn string) (*PostgresStore, error) {
	switch driver {
	case "", DriverPQ:
		driver = DriverPQ
	case DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (r *PostgresStore) Close() error {
	return r.db.Close()
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresStore) FetchMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error) {
	valid := validIDs(ids)
	if len(valid) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, name, price, category, available FROM menu_items WHERE id = ANY($1::uuid[])`,
		pq.Array(valid))
	if err != nil {
		return nil, storeErr("fetch menu items", err)
	}
	defer rows.Close()
	var out []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.Available); err != nil {
			return nil, storeErr("scan menu item", err)
		}
		out = append(out, m)
	}
	return out, storeErr("fetch menu items", rows.Err())
}

func (r *PostgresStore) InsertOrder(ctx context.Context, o *domain.Order) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `INSERT INTO orders
		(customer_name, customer_email, customer_phone, pickup_time, notes, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text`,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.PickupTime, o.Notes, o.TotalAmount, string(o.Status),
	).Scan(&id)
	if err != nil {
		return "", storeErr("insert order", err)
	}
	return id, nil
}

func (r *PostgresStore) InsertOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query, args := buildInsertItems(orderID, items)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if IsForeignKeyViolation(err) {
			return &domain.StoreError{Op: "insert order items", Err: fmt.Errorf("menu item no longer exists: %w", err)}
		}
		return storeErr("insert order items", err)
	}
	return nil
}

// buildInsertItems renders one multi-row INSERT so the items land in a single statement.
func buildInsertItems(orderID string, items []domain.OrderItem) (string, []any) {
	var b strings.Builder
	b.WriteString(`INSERT INTO order_items (order_id, line_no, menu_item_id, quantity, price, notes) VALUES `)
	args := make([]any, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6)
		args = append(args, orderID, i+1, it.MenuItemID, it.Quantity, it.Price, it.Notes)
	}
	return b.String(), args
}

func (r *PostgresStore) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return storeErr("delete order", err)
	}
	return nil
}

func (r *PostgresStore) FetchOrderWithItems(ctx context.Context, orderID string) (*domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrNotFound("order")
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("order")
	}
	if err != nil {
		return nil, storeErr("fetch order", err)
	}
	items, err := r.fetchItems(ctx, []string{o.ID}, true)
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *PostgresStore) ListOrders(ctx context.Context, f domain.OrderFilter, p domain.Page) ([]domain.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, string(f.Status),
	).Scan(&total); err != nil {
		return nil, 0, storeErr("count orders", err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, string(f.Status), p.Limit, p.Offset())
	if err != nil {
		return nil, 0, storeErr("list orders", err)
	}
	orders, err := r.collectOrders(ctx, rows, false)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *PostgresStore) ListOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE customer_phone = $1
		ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, storeErr("list orders by phone", err)
	}
	return r.collectOrders(ctx, rows, true)
}

func (r *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrNotFound("order")
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 RETURNING `+orderColumns, string(status), orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("order")
	}
	if err != nil {
		return nil, storeErr("update order status", err)
	}
	return o, nil
}

func (r *PostgresStore) collectOrders(ctx context.Context, rows *sql.Rows, withMenu bool) ([]domain.Order, error) {
	defer rows.Close()
	var (
		orders []domain.Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storeErr("scan order", err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list orders", err)
	}
	if len(ids) == 0 {
		return []domain.Order{}, nil
	}
	items, err := r.fetchItems(ctx, ids, withMenu)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *PostgresStore) fetchItems(ctx context.Context, orderIDs []string, withMenu bool) (map[string][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT oi.id::text, oi.order_id::text, oi.menu_item_id::text,
			oi.quantity, oi.price, oi.notes, m.name, m.price, m.category
		FROM order_items oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.line_no`, pq.Array(orderIDs))
	if err != nil {
		return nil, storeErr("fetch order items", err)
	}
	defer rows.Close()
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			it       domain.OrderItem
			notes    sql.NullString
			name     sql.NullString
			category sql.NullString
			price    decimal.NullDecimal
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.Price, &notes,
			&name, &price, &category); err != nil {
			return nil, storeErr("scan order item", err)
		}
		it.Notes = nullString(notes)
		if withMenu && name.Valid {
			ref := &domain.MenuItemRef{Name: name.String, Category: category.String}
			if price.Valid {
				p := price.Decimal
				ref.Price = &p
			}
			it.MenuItem = ref
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, storeErr("fetch order items", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o      domain.Order
		email  sql.NullString
		notes  sql.NullString
		status string
	)
	if err := row.Scan(&o.ID, &o.CustomerName, &email, &o.CustomerPhone, &o.PickupTime, &notes,
		&o.TotalAmount, &status, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.CustomerEmail = nullString(email)
	o.Notes = nullString(notes)
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// validIDs drops ids that cannot be uuids; they can never match a row and would fail the cast.
func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// SQLState returns the Postgres error code regardless of which driver produced the error.
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == "23503"
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if code := SQLState(err); code != "" {
		return &domain.StoreError{Op: op, Err: fmt.Errorf("sqlstate %s: %w", code, err)}
	}
	return domain.NewStoreError(op, err)
}
