package snapshot

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/factors"
	"github.com/wonny/moat/backend/internal/moat"
	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/database"
)

func valuation(ticker string, at time.Time) contracts.TickerValuation {
	f, _ := factors.Lookup(factors.InformationTechnology)
	in := contracts.NewValuationInput(contracts.MarketQuote{}, f, nil)
	return contracts.TickerValuation{
		Ticker:     ticker,
		Sector:     factors.InformationTechnology,
		Factors:    f,
		Inputs:     in.Market,
		Result:     moat.Compute(in),
		ComputedAt: at,
	}
}

func exerciseRepository(t *testing.T, repo contracts.SnapshotRepository, ticker string) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC)

	_, err := repo.SaveBatch(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	run1, err := repo.SaveBatch(ctx, []contracts.TickerValuation{valuation(ticker, base)})
	require.NoError(t, err)
	_, err = uuid.Parse(run1)
	require.NoError(t, err)

	run2, err := repo.SaveBatch(ctx, []contracts.TickerValuation{
		valuation(ticker, base.Add(24*time.Hour)),
		valuation(ticker+"X", base.Add(24*time.Hour)),
	})
	require.NoError(t, err)
	assert.NotEqual(t, run1, run2)

	history, err := repo.ListByTicker(ctx, ticker, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, run2, history[0].RunID, "newest first")
	assert.Equal(t, run1, history[1].RunID)
	assert.Equal(t, contracts.TierLowMedium, history[0].Result.Tier)
	assert.Equal(t, 14, history[0].Result.AdjCAP)
	assert.Equal(t, 4.0, history[0].Factors.SC)

	limited, err := repo.ListByTicker(ctx, ticker, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository(), "MSFT")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0))
	assert.Equal(t, 20, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxListLimit, clampLimit(MaxListLimit+1))
}

func TestRepository_Live(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := database.New(context.Background(), &config.Config{
		Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute},
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ticker := fmt.Sprintf("T%d", time.Now().UnixNano()%1_000_000)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(),
			`DELETE FROM app.valuation_snapshots WHERE ticker IN ($1, $2)`, ticker, ticker+"X")
	})

	repo := NewRepository(db.Pool)
	exerciseRepository(t, repo, ticker)

	history, err := repo.ListByTicker(context.Background(), ticker, 1)
	require.NoError(t, err)
	run, err := repo.ListRun(context.Background(), history[0].RunID)
	require.NoError(t, err)
	assert.Len(t, run, 2)

	_, err = repo.ListRun(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}
