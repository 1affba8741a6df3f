package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysniper/internal/adapters/storage"
	"github.com/alejandrodnm/polysniper/internal/domain"
)

func makeOutcome(kind domain.OutcomeKind, cost float64) domain.TradeOutcome {
	w := domain.Window{
		Asset:    "btc",
		Interval: 15 * time.Minute,
		Start:    time.Unix(1770034500, 0).UTC(),
	}
	return domain.TradeOutcome{
		ID:   uuid.NewString(),
		Kind: kind,
		Market: domain.Market{
			Window:   w,
			Question: "Bitcoin Up or Down",
		},
		Side:        domain.SideUp,
		TargetPrice: 0.92,
		Price:       0.93,
		Shares:      10,
		Cost:        cost,
		At:          time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStorage_SaveAndGetOutcomes(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	fill := makeOutcome(domain.OutcomeFilled, 9.3)
	block := makeOutcome(domain.OutcomeBlockedMomentum, 0)
	block.At = fill.At.Add(-time.Minute)

	require.NoError(t, db.SaveOutcome(ctx, fill))
	require.NoError(t, db.SaveOutcome(ctx, block))

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Minute)
	outcomes, err := db.GetOutcomes(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// Más recientes primero
	assert.Equal(t, fill.ID, outcomes[0].ID)
	assert.Equal(t, domain.OutcomeFilled, outcomes[0].Kind)
	assert.Equal(t, "btc", outcomes[0].Market.Window.Asset)
	assert.Equal(t, "btc-updown-15m-1770034500", outcomes[0].Market.Window.Slug())
	assert.Equal(t, domain.SideUp, outcomes[0].Side)
	assert.InDelta(t, 9.3, outcomes[0].Cost, 0.001)
	assert.Equal(t, block.ID, outcomes[1].ID)
}

func TestSQLiteStorage_GetOutcomes_EmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	outcomes, err := db.GetOutcomes(context.Background(),
		time.Now().Add(-time.Hour),
		time.Now(),
	)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestSQLiteStorage_GetStats(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	fill := makeOutcome(domain.OutcomeFilled, 9.3)
	fillUnchecked := makeOutcome(domain.OutcomeFilled, 46.0)
	fillUnchecked.Unchecked = true
	buffer := makeOutcome(domain.OutcomeBlockedBuffer, 0)
	momentum := makeOutcome(domain.OutcomeBlockedMomentum, 0)
	rejected := makeOutcome(domain.OutcomeRejectedExposure, 0)
	failed := makeOutcome(domain.OutcomeOrderFailed, 0)

	for _, o := range []domain.TradeOutcome{fill, fillUnchecked, buffer, momentum, rejected, failed} {
		require.NoError(t, db.SaveOutcome(ctx, o))
	}

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Attempts)
	assert.Equal(t, 2, stats.Fills)
	assert.Equal(t, 2, stats.GateBlocks)
	assert.Equal(t, 1, stats.Rejections)
	assert.Equal(t, 1, stats.OrderFails)
	assert.Equal(t, 1, stats.Unchecked)
	assert.InDelta(t, 55.3, stats.TotalCost, 0.001, "solo los fills suman coste")
	assert.False(t, stats.FirstAttempt.IsZero())
	assert.False(t, stats.LastAttempt.Before(stats.FirstAttempt))
}

func TestSQLiteStorage_StatsEmpty(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Attempts)
	assert.Zero(t, stats.TotalCost)
	assert.True(t, stats.FirstAttempt.IsZero())
}
