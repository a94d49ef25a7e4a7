package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, user_id, delivery_method, street, city, state, zipcode, phone,
			   table_number, subtotal, shipping_total, grand_total, status, payment,
			   gateway_order_id, contact_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, shipping_charge)
		VALUES ($1, $2, $3, $4, $5, $6)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	GetOrderByIDSQL = `
		SELECT id::text, user_id, delivery_method, street, city, state, zipcode, phone,
			   table_number, subtotal, shipping_total, grand_total, status, payment,
			   payment_id, gateway_order_id, refund_id, contact_email, created_at, updated_at
		FROM orders WHERE id = $1`

	ListOrdersByUserSQL = `
		SELECT id::text, user_id, delivery_method, street, city, state, zipcode, phone,
			   table_number, subtotal, shipping_total, grand_total, status, payment,
			   payment_id, gateway_order_id, refund_id, contact_email, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`

	ListAllOrdersSQL = `
		SELECT id::text, user_id, delivery_method, street, city, state, zipcode, phone,
			   table_number, subtotal, shipping_total, grand_total, status, payment,
			   payment_id, gateway_order_id, refund_id, contact_email, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC`

	GetOrderItemsSQL = `
		SELECT product_id, name, unit_price, quantity, shipping_charge
		FROM order_items WHERE order_id = $1
		ORDER BY id ASC`

	// The payment = FALSE guard makes double verification a no-op at the
	// database level.
	MarkOrderPaidSQL = `
		UPDATE orders
		SET payment = TRUE, payment_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND payment = FALSE`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1`

	// The status guard makes a racing second cancellation a no-op.
	MarkOrderCancelledSQL = `
		UPDATE orders
		SET status = $2, refund_id = $3, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('cancelled', 'delivered', 'out_for_delivery')`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC`
)

// Catalog queries
const (
	GetProductsByIDsSQL = `
		SELECT id, name, price, available
		FROM products WHERE id = ANY($1)`
)
