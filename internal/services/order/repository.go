package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront-api/internal/database"
	"storefront-api/internal/models"
)

// Repository is the order record store boundary. It exists as an interface
// so the service can be tested against an in-memory fake.
type Repository interface {
	// CreateOrder persists the order, its item snapshots and the initial
	// status-log entry in one transaction.
	CreateOrder(ctx context.Context, order *models.Order) error

	// GetByID returns the order with its items, or NotFoundError.
	GetByID(ctx context.Context, orderID string) (*models.Order, error)

	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)

	// MarkPaid flips the order to paid and placed. It reports false when the
	// order was already paid, which callers treat as a conflict.
	MarkPaid(ctx context.Context, orderID, paymentID string) (bool, error)

	// UpdateStatus overwrites the status and appends a status-log entry.
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, changedBy string) error

	// MarkCancelled sets the cancelled status and refund id. It reports
	// false when the order was no longer cancellable.
	MarkCancelled(ctx context.Context, orderID, refundID, changedBy string) (bool, error)

	GetStatusHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error)
}

// PostgresRepository implements Repository on pgx.
type PostgresRepository struct {
	db *database.DB
}

// NewRepository creates the Postgres-backed order repository.
func NewRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	addr := order.Address
	if addr == nil {
		addr = &models.Address{}
	}

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.ID, order.UserID, order.DeliveryMethod,
		addr.Street, addr.City, addr.State, addr.Zipcode, addr.Phone,
		order.TableNumber, order.Subtotal, order.ShippingTotal, order.GrandTotal,
		order.Status, order.Payment, order.GatewayOrderID, order.ContactEmail,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, database.InsertOrderItemSQL,
			order.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.ShippingCharge)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		order.ID, order.Status, "order-service", "order created, awaiting payment")
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	row := r.db.QueryRow(ctx, database.GetOrderByIDSQL, orderID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NotFoundError{Resource: "order"}
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.list(ctx, database.ListOrdersByUserSQL, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, database.ListAllOrdersSQL)
}

func (r *PostgresRepository) list(ctx context.Context, sql string, args ...interface{}) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order rows: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.ShippingCharge)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, orderID, paymentID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.MarkOrderPaidSQL, orderID, paymentID, models.StatusPlaced)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		orderID, models.StatusPlaced, "payment-verification", "payment verified")
	if err != nil {
		return false, fmt.Errorf("failed to insert status log: %w", err)
	}

	return true, tx.Commit(ctx)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.UpdateOrderStatusSQL, orderID, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundError{Resource: "order"}
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, status, changedBy, nil)
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) MarkCancelled(ctx context.Context, orderID, refundID, changedBy string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.MarkOrderCancelledSQL, orderID, models.StatusCancelled, refundID)
	if err != nil {
		return false, fmt.Errorf("failed to mark order cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		orderID, models.StatusCancelled, changedBy, "order cancelled")
	if err != nil {
		return false, fmt.Errorf("failed to insert status log: %w", err)
	}

	return true, tx.Commit(ctx)
}

func (r *PostgresRepository) GetStatusHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	rows, err := r.db.Query(ctx, database.GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.OrderStatusHistory
	for rows.Next() {
		var entry models.OrderStatusHistory
		err := rows.Scan(&entry.Status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history row: %w", err)
		}
		history = append(history, entry)
	}

	return history, rows.Err()
}

// scanOrder reads one order row in the column order the SELECTs share.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order models.Order
		addr  models.Address
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.DeliveryMethod,
		&addr.Street,
		&addr.City,
		&addr.State,
		&addr.Zipcode,
		&addr.Phone,
		&order.TableNumber,
		&order.Subtotal,
		&order.ShippingTotal,
		&order.GrandTotal,
		&order.Status,
		&order.Payment,
		&order.PaymentID,
		&order.GatewayOrderID,
		&order.RefundID,
		&order.ContactEmail,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.DeliveryMethod == models.MethodDelivery {
		order.Address = &addr
	}

	return &order, nil
}
