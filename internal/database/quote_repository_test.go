package database

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"

	"github.com/optionlab/pricer/internal/models"
	"github.com/optionlab/pricer/internal/pricing"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    QuoteFilter
		where     string
		limitArg  string
		wantArgs  int
		wantLimit int
	}{
		{name: "default", filter: QuoteFilter{}, limitArg: "LIMIT $1", wantArgs: 1, wantLimit: DefaultQuoteLimit},
		{name: "client", filter: QuoteFilter{ClientID: "desk", Limit: 10}, where: "WHERE client_id = $1", limitArg: "LIMIT $2", wantArgs: 2, wantLimit: 10},
		{name: "client and engine", filter: QuoteFilter{ClientID: "desk", Engine: "lattice"}, where: "WHERE client_id = $1 AND engine = $2", limitArg: "LIMIT $3", wantArgs: 3, wantLimit: DefaultQuoteLimit},
		{name: "capped", filter: QuoteFilter{Limit: 10000}, limitArg: "LIMIT $1", wantArgs: 1, wantLimit: MaxQuoteLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.filter)
			if tt.where != "" && !strings.Contains(query, tt.where) {
				t.Errorf("query %q missing %q", query, tt.where)
			}
			if tt.where == "" && strings.Contains(query, "WHERE") {
				t.Errorf("query %q should not filter", query)
			}
			if !strings.HasSuffix(query, "ORDER BY created_at DESC "+tt.limitArg) {
				t.Errorf("query %q should end with %q", query, tt.limitArg)
			}
			if len(args) != tt.wantArgs {
				t.Fatalf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
			if got := args[len(args)-1]; got != tt.wantLimit {
				t.Errorf("limit = %v, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2")},
		"001_first.sql":  {Data: []byte("SELECT 1")},
		"003_third.sql":  {Data: []byte("SELECT 3")},
		"README.md":      {Data: []byte("ignored")},
	}

	pending, err := PendingMigrations(fsys, map[string]bool{"001_first.sql": true})
	if err != nil {
		t.Fatalf("PendingMigrations returned error: %v", err)
	}
	want := []string{"002_second.sql", "003_third.sql"}
	if len(pending) != len(want) {
		t.Fatalf("pending = %v, want %v", pending, want)
	}
	for i := range want {
		if pending[i] != want[i] {
			t.Errorf("pending[%d] = %s, want %s", i, pending[i], want[i])
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	pending, err := PendingMigrations(Migrations(), nil)
	if err != nil {
		t.Fatalf("PendingMigrations returned error: %v", err)
	}
	if len(pending) == 0 || pending[0] != "001_create_quotes.sql" {
		t.Fatalf("expected quotes table migration first, got %v", pending)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestQuoteRepository(t *testing.T) {
	dbURL := os.Getenv("PRICER_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("PRICER_TEST_DATABASE_URL not set - requires a PostgreSQL instance")
	}

	ctx := context.Background()
	db, err := Connect(ctx, DefaultConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := HealthCheck(ctx, db); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if err := RunMigrations(ctx, db, discardLogger()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	repo := NewQuoteRepository(db)
	client := "test-" + uuid.New().String()

	p := pricing.Params{Type: pricing.Put, Style: pricing.American, Strike: 100, Expiry: 1, Spot: 100, Rate: 0.05, Volatility: 0.2}
	est := pricing.Estimate{Price: 6.08, StdErr: 0.01, Lower: 6.06, Upper: 6.10, Paths: 1000}
	quote, err := models.NewQuote(pricing.EngineSpec{Paths: 1000}, pricing.KindMonteCarlo, p, est.Price, nil, &est)
	if err != nil {
		t.Fatalf("NewQuote returned error: %v", err)
	}
	quote.ClientID = client

	if err := repo.Store(ctx, quote); err != nil {
		t.Fatalf("failed to store quote: %v", err)
	}

	t.Run("get stored quote", func(t *testing.T) {
		got, err := repo.Get(ctx, quote.ID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if !got.Price.Equal(quote.Price) {
			t.Errorf("price = %s, want %s", got.Price, quote.Price)
		}
		if got.Delta.Valid {
			t.Error("expected delta to be NULL")
		}
		if got.Paths == nil || *got.Paths != 1000 {
			t.Errorf("paths = %v, want 1000", got.Paths)
		}
		if got.Style != "american" {
			t.Errorf("style = %s, want american", got.Style)
		}
	})

	t.Run("missing quote", func(t *testing.T) {
		if _, err := repo.Get(ctx, uuid.New().String()); !errors.Is(err, ErrQuoteNotFound) {
			t.Errorf("expected ErrQuoteNotFound, got %v", err)
		}
		if _, err := repo.Get(ctx, "not-a-uuid"); !errors.Is(err, ErrQuoteNotFound) {
			t.Errorf("expected ErrQuoteNotFound for malformed id, got %v", err)
		}
	})

	t.Run("list by client", func(t *testing.T) {
		quotes, err := repo.List(ctx, QuoteFilter{ClientID: client})
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(quotes) != 1 || quotes[0].ID != quote.ID {
			t.Errorf("expected the stored quote only, got %d quotes", len(quotes))
		}
	})
}
