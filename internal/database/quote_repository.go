package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/optionlab/pricer/internal/models"
)

// ErrQuoteNotFound is returned when no quote has the requested ID.
var ErrQuoteNotFound = errors.New("quote not found")

// DefaultQuoteLimit caps List when no limit is given.
const DefaultQuoteLimit = 50

// MaxQuoteLimit is the largest page List will return.
const MaxQuoteLimit = 500

// QuoteFilter narrows List results.
type QuoteFilter struct {
	ClientID string
	Engine   string
	Limit    int
}

// QuoteRepository persists pricing results
type QuoteRepository struct {
	db *sql.DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, created_at, client_id, engine, engine_spec, option_type, style,
	strike, expiry, spot, rate, volatility, dividend,
	price, delta, gamma, theta, vega, rho, std_err, ci_lower, ci_upper, paths`

// Store inserts q, assigning an ID when it has none.
func (r *QuoteRepository) Store(ctx context.Context, q *models.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	spec := string(q.EngineSpec)
	if spec == "" {
		spec = "{}"
	}

	var paths sql.NullInt64
	if q.Paths != nil {
		paths = sql.NullInt64{Int64: int64(*q.Paths), Valid: true}
	}

	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.CreatedAt, q.ClientID, q.Engine, spec, q.OptionType, q.Style,
		q.Strike, q.Expiry, q.Spot, q.Rate, q.Volatility, q.Dividend,
		q.Price, q.Delta, q.Gamma, q.Theta, q.Vega, q.Rho, q.StdErr, q.CILower, q.CIUpper, paths,
	)
	if err != nil {
		return fmt.Errorf("failed to store quote: %w", err)
	}
	return nil
}

// Get retrieves a quote by ID
func (r *QuoteRepository) Get(ctx context.Context, id string) (*models.Quote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrQuoteNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// List returns the most recent quotes matching filter, newest first.
func (r *QuoteRepository) List(ctx context.Context, filter QuoteFilter) ([]*models.Quote, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*models.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}
	return quotes, nil
}

func buildListQuery(filter QuoteFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Engine != "" {
		args = append(args, filter.Engine)
		conditions = append(conditions, fmt.Sprintf("engine = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQuoteLimit
	}
	if limit > MaxQuoteLimit {
		limit = MaxQuoteLimit
	}
	args = append(args, limit)

	var b strings.Builder
	b.WriteString("SELECT " + quoteColumns + " FROM quotes")
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY created_at DESC LIMIT $%d", len(args))
	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*models.Quote, error) {
	var (
		q     models.Quote
		spec  []byte
		paths sql.NullInt64
	)
	err := row.Scan(
		&q.ID, &q.CreatedAt, &q.ClientID, &q.Engine, &spec, &q.OptionType, &q.Style,
		&q.Strike, &q.Expiry, &q.Spot, &q.Rate, &q.Volatility, &q.Dividend,
		&q.Price, &q.Delta, &q.Gamma, &q.Theta, &q.Vega, &q.Rho, &q.StdErr, &q.CILower, &q.CIUpper, &paths,
	)
	if err != nil {
		return nil, err
	}
	q.EngineSpec = spec
	if paths.Valid {
		n := int(paths.Int64)
		q.Paths = &n
	}
	return &q, nil
}
