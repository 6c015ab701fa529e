package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/logger"
)

type fakeRevaluer struct {
	got []config.WatchlistEntry
	err error
}

func (f *fakeRevaluer) Revalue(_ context.Context, w []config.WatchlistEntry) (*analyzer.RunResult, error) {
	f.got = w
	if f.err != nil {
		return nil, f.err
	}
	return &analyzer.RunResult{RunID: "run"}, nil
}

func TestWatchlistRevalueJob(t *testing.T) {
	watchlist := []config.WatchlistEntry{{Ticker: "MSFT", Sector: "Information Technology"}}
	r := &fakeRevaluer{}
	job := NewWatchlistRevalueJob(r, watchlist, "0 30 21 * * 1-5", logger.Nop())

	assert.Equal(t, "watchlist_revalue", job.Name())
	assert.Equal(t, "0 30 21 * * 1-5", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, watchlist, r.got)

	r.err = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))
}

func TestWatchlistRevalueJob_Empty(t *testing.T) {
	r := &fakeRevaluer{}
	job := NewWatchlistRevalueJob(r, nil, "@daily", logger.Nop())

	assert.NoError(t, job.Run(context.Background()))
	assert.Nil(t, r.got, "revaluer is not called for an empty watchlist")
}
