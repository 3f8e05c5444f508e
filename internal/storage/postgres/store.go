package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/platformbuilds/salescope-core/internal/analytics"
	"github.com/platformbuilds/salescope-core/internal/models"
)

// qualifyingStatuses selects the order states that count as revenue.
func qualifyingStatuses() interface{} {
	return pq.Array([]string{models.OrderStatusConfirmed, models.OrderStatusInvoiced})
}

// industryArg maps an IDFilter to the SQL convention used by the queries
// below: zero means no industry restriction.
func industryArg(f models.IDFilter) int64 {
	if f.All {
		return 0
	}
	return f.ID
}

// Store reads tenant fact data through the scoped executor. Every method
// resolves against whatever schema the caller passes; table names are left
// unqualified so the search path decides which tenant's rows are visible.
type Store struct {
	exec Executor
}

func NewStore(exec Executor) *Store {
	return &Store{exec: exec}
}

// ProductRevenue aggregates net revenue per product over qualifying orders in
// the given period. Products with no qualifying sales are absent from the
// result; callers merge against the catalog for no-movement detection.
func (s *Store) ProductRevenue(ctx context.Context, schema string, year, month int, industry models.IDFilter) ([]models.ProductRevenue, error) {
	const query = `
		SELECT l.product_id, p.name, SUM(l.net_amount) AS revenue
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		JOIN products p ON p.id = l.product_id
		WHERE o.status = ANY($1)
		  AND EXTRACT(YEAR FROM o.order_date) = $2
		  AND ($3 = 0 OR EXTRACT(MONTH FROM o.order_date) = $3)
		  AND ($4 = 0 OR p.industry_id = $4)
		GROUP BY l.product_id, p.name`

	var rows []models.ProductRevenue
	err := s.exec.Run(ctx, schema, "product_revenue", func(ctx context.Context, q Querier) error {
		rs, err := q.QueryContext(ctx, query, qualifyingStatuses(), year, month, industryArg(industry))
		if err != nil {
			return fmt.Errorf("query product revenue: %w", err)
		}
		defer rs.Close()

		rows = rows[:0]
		for rs.Next() {
			var r models.ProductRevenue
			if err := rs.Scan(&r.ProductID, &r.Name, &r.Revenue); err != nil {
				return fmt.Errorf("scan product revenue: %w", err)
			}
			rows = append(rows, r)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Catalog lists the tenant's products, optionally restricted to one industry.
func (s *Store) Catalog(ctx context.Context, schema string, industry models.IDFilter) ([]models.Product, error) {
	const query = `
		SELECT id, name, industry_id, COALESCE(code, '')
		FROM products
		WHERE $1 = 0 OR industry_id = $1
		ORDER BY id`

	var products []models.Product
	err := s.exec.Run(ctx, schema, "catalog", func(ctx context.Context, q Querier) error {
		rs, err := q.QueryContext(ctx, query, industryArg(industry))
		if err != nil {
			return fmt.Errorf("query catalog: %w", err)
		}
		defer rs.Close()

		products = products[:0]
		for rs.Next() {
			var p models.Product
			if err := rs.Scan(&p.ID, &p.Name, &p.IndustryID, &p.Code); err != nil {
				return fmt.Errorf("scan product: %w", err)
			}
			products = append(products, p)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Goal fetches the goal row for a vendor/year/industry. Returns nil without
// error when no goal is configured; the aggregator treats that case
// differently from a zero target.
func (s *Store) Goal(ctx context.Context, schema string, vendorID int64, year int, industry models.IDFilter) (*models.Goal, error) {
	const query = `
		SELECT vendor_id, industry_id, year,
		       m01, m02, m03, m04, m05, m06, m07, m08, m09, m10, m11, m12
		FROM goals
		WHERE vendor_id = $1 AND year = $2 AND industry_id = $3`

	var goal *models.Goal
	err := s.exec.Run(ctx, schema, "goal", func(ctx context.Context, q Querier) error {
		var g models.Goal
		dest := []interface{}{&g.VendorID, &g.IndustryID, &g.Year}
		for i := range g.Monthly {
			dest = append(dest, &g.Monthly[i])
		}
		err := q.QueryRowContext(ctx, query, vendorID, year, industryArg(industry)).Scan(dest...)
		if err == sql.ErrNoRows {
			goal = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("query goal: %w", err)
		}
		goal = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// VendorSales sums qualifying order totals for a vendor in a period.
func (s *Store) VendorSales(ctx context.Context, schema string, vendorID int64, year, month int, industry models.IDFilter) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(o.total), 0)
		FROM orders o
		WHERE o.status = ANY($1)
		  AND o.vendor_id = $2
		  AND EXTRACT(YEAR FROM o.order_date) = $3
		  AND ($4 = 0 OR EXTRACT(MONTH FROM o.order_date) = $4)
		  AND ($5 = 0 OR o.industry_id = $5)`

	var total float64
	err := s.exec.Run(ctx, schema, "vendor_sales", func(ctx context.Context, q Querier) error {
		if err := q.QueryRowContext(ctx, query, qualifyingStatuses(), vendorID, year, month, industryArg(industry)).Scan(&total); err != nil {
			return fmt.Errorf("query vendor sales: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// MonthlyRollup aggregates revenue, order count and distinct active clients
// per month of one year. Months without orders have no row.
func (s *Store) MonthlyRollup(ctx context.Context, schema string, year int) ([]analytics.MonthlyRow, error) {
	const query = `
		SELECT EXTRACT(MONTH FROM o.order_date)::int AS month,
		       COALESCE(SUM(o.total), 0),
		       COUNT(*),
		       COUNT(DISTINCT o.client_id)
		FROM orders o
		WHERE o.status = ANY($1)
		  AND EXTRACT(YEAR FROM o.order_date) = $2
		GROUP BY 1
		ORDER BY 1`

	var rows []analytics.MonthlyRow
	err := s.exec.Run(ctx, schema, "monthly_rollup", func(ctx context.Context, q Querier) error {
		rs, err := q.QueryContext(ctx, query, qualifyingStatuses(), year)
		if err != nil {
			return fmt.Errorf("query monthly rollup: %w", err)
		}
		defer rs.Close()

		rows = rows[:0]
		for rs.Next() {
			var r analytics.MonthlyRow
			if err := rs.Scan(&r.Month, &r.Revenue, &r.OrderCount, &r.ActiveClients); err != nil {
				return fmt.Errorf("scan monthly rollup: %w", err)
			}
			rows = append(rows, r)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OrderLines returns the line items of qualifying orders in a period, the raw
// material for the correlation engine.
func (s *Store) OrderLines(ctx context.Context, schema string, year, month int) ([]models.OrderLine, error) {
	const query = `
		SELECT l.order_id, l.product_id, l.quantity, l.net_amount, l.gross_amount
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.status = ANY($1)
		  AND EXTRACT(YEAR FROM o.order_date) = $2
		  AND ($3 = 0 OR EXTRACT(MONTH FROM o.order_date) = $3)`

	var lines []models.OrderLine
	err := s.exec.Run(ctx, schema, "order_lines", func(ctx context.Context, q Querier) error {
		rs, err := q.QueryContext(ctx, query, qualifyingStatuses(), year, month)
		if err != nil {
			return fmt.Errorf("query order lines: %w", err)
		}
		defer rs.Close()

		lines = lines[:0]
		for rs.Next() {
			var l models.OrderLine
			if err := rs.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.NetAmount, &l.GrossAmt); err != nil {
				return fmt.Errorf("scan order line: %w", err)
			}
			lines = append(lines, l)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ProductActivity returns the last qualifying sale date per catalog product.
// Products that never sold carry a NULL date.
func (s *Store) ProductActivity(ctx context.Context, schema string) ([]analytics.ProductActivity, error) {
	const query = `
		SELECT p.id, p.name, MAX(o.order_date)
		FROM products p
		LEFT JOIN order_lines l ON l.product_id = p.id
		LEFT JOIN orders o ON o.id = l.order_id AND o.status = ANY($1)
		GROUP BY p.id, p.name
		ORDER BY p.id`

	var items []analytics.ProductActivity
	err := s.exec.Run(ctx, schema, "product_activity", func(ctx context.Context, q Querier) error {
		rs, err := q.QueryContext(ctx, query, qualifyingStatuses())
		if err != nil {
			return fmt.Errorf("query product activity: %w", err)
		}
		defer rs.Close()

		items = items[:0]
		for rs.Next() {
			var (
				p    analytics.ProductActivity
				last sql.NullTime
			)
			if err := rs.Scan(&p.ProductID, &p.Name, &last); err != nil {
				return fmt.Errorf("scan product activity: %w", err)
			}
			p.LastSale = nullableTime(last)
			items = append(items, p)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ClientActivity returns the last qualifying order date per client.
func (s *Store) ClientActivity(ctx context.Context, schema string) ([]analytics.ClientActivity, error) {
	const query = `
		SELECT c.id, MAX(o.order_date)
		FROM clients c
		LEFT JOIN orders o ON o.client_id = c.id AND o.status = ANY($1)
		GROUP BY c.id
		ORDER BY c.id`

	var items []analytics.ClientActivity
	err := s.exec.Run(ctx, schema, "client_activity", func(ctx context.Context, q Querier) error {
		rs, err := q.QueryContext(ctx, query, qualifyingStatuses())
		if err != nil {
			return fmt.Errorf("query client activity: %w", err)
		}
		defer rs.Close()

		items = items[:0]
		for rs.Next() {
			var (
				c    analytics.ClientActivity
				last sql.NullTime
			)
			if err := rs.Scan(&c.ClientID, &last); err != nil {
				return fmt.Errorf("scan client activity: %w", err)
			}
			c.LastOrder = nullableTime(last)
			items = append(items, c)
		}
		return rs.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
