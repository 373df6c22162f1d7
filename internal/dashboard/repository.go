package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Summary aggregates a wallet's confirmed retirements
type Summary struct {
	WalletAddress    string             `json:"wallet_address"`
	TotalTonnes      float64            `json:"total_tonnes"`
	OrderCount       int                `json:"order_count"`
	LastRetirementAt *time.Time         `json:"last_retirement_at,omitempty"`
	Projects         []ProjectBreakdown `json:"projects"`
}

// ProjectBreakdown is the per-project slice of a summary
type ProjectBreakdown struct {
	ProjectKey  string  `db:"project_key" json:"project_key"`
	ProjectName string  `db:"project_name" json:"project_name"`
	Tonnes      float64 `db:"tonnes" json:"tonnes"`
	Orders      int     `db:"orders" json:"orders"`
}

// HistoryRow is one confirmed retirement in an export
type HistoryRow struct {
	OrderID     string    `db:"id" json:"order_id"`
	ProjectKey  string    `db:"project_key" json:"project_key"`
	ProjectName string    `db:"project_name" json:"project_name"`
	Vintage     string    `db:"vintage" json:"vintage"`
	Quantity    float64   `db:"quantity" json:"quantity"`
	UnitPrice   string    `db:"unit_price" json:"unit_price"`
	TotalCost   string    `db:"total_cost" json:"total_cost"`
	Currency    string    `db:"currency" json:"currency"`
	RetiredAt   time.Time `db:"retired_at" json:"retired_at"`
}

// Repository reads retirement aggregates
type Repository interface {
	GetSummary(ctx context.Context, wallet string) (*Summary, error)
	ListHistory(ctx context.Context, wallet string) ([]HistoryRow, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetSummary(ctx context.Context, wallet string) (*Summary, error) {
	summary := &Summary{WalletAddress: wallet, Projects: []ProjectBreakdown{}}

	query := `
		SELECT COALESCE(SUM(quantity), 0) AS total_tonnes,
		       COUNT(*)                   AS order_count,
		       MAX(retired_at)            AS last_retirement_at
		FROM retirement_orders
		WHERE wallet_address = $1
		  AND status = 'CONFIRMED'
		  AND deleted_at IS NULL
	`

	var row struct {
		TotalTonnes      float64      `db:"total_tonnes"`
		OrderCount       int          `db:"order_count"`
		LastRetirementAt sql.NullTime `db:"last_retirement_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, wallet); err != nil {
		return nil, fmt.Errorf("failed to aggregate retirements: %w", err)
	}

	summary.TotalTonnes = row.TotalTonnes
	summary.OrderCount = row.OrderCount
	if row.LastRetirementAt.Valid {
		t := row.LastRetirementAt.Time
		summary.LastRetirementAt = &t
	}

	breakdownQuery := `
		SELECT project_key,
		       MAX(project_name) AS project_name,
		       SUM(quantity)     AS tonnes,
		       COUNT(*)          AS orders
		FROM retirement_orders
		WHERE wallet_address = $1
		  AND status = 'CONFIRMED'
		  AND deleted_at IS NULL
		GROUP BY project_key
		ORDER BY tonnes DESC
	`
	if err := r.db.SelectContext(ctx, &summary.Projects, breakdownQuery, wallet); err != nil {
		return nil, fmt.Errorf("failed to load project breakdown: %w", err)
	}

	return summary, nil
}

func (r *PostgresRepository) ListHistory(ctx context.Context, wallet string) ([]HistoryRow, error) {
	query := `
		SELECT id, project_key, project_name, vintage, quantity,
		       unit_price, total_cost, currency, retired_at
		FROM retirement_orders
		WHERE wallet_address = $1
		  AND status = 'CONFIRMED'
		  AND deleted_at IS NULL
		ORDER BY retired_at DESC
	`

	rows := []HistoryRow{}
	if err := r.db.SelectContext(ctx, &rows, query, wallet); err != nil {
		return nil, fmt.Errorf("failed to load retirement history: %w", err)
	}
	return rows, nil
}
