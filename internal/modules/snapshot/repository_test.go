package snapshot

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/wealthpulse/signals/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(db))
	return db
}

func TestRepositoryInsertAndReadBack(t *testing.T) {
	repo := NewRepository(testDB(t), zerolog.Nop())

	asOf := time.Date(2026, 8, 28, 21, 30, 0, 0, time.UTC)
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      KindFreshSignals,
		AsOf:      asOf,
		Params:    `{"fresh_days":7}`,
		Digest:    "abc123",
		CreatedAt: asOf,
	}
	results := []domain.ScoreResult{
		{Ticker: "AAA", Segment: "s", Action: domain.ActionBuy, Direction: domain.DirectionBullish, Score: 90, Confidence: 0.8, Reasons: map[string]any{"k": "v"}},
		{Ticker: "BBB", Segment: "s", Action: domain.ActionWatch, Direction: domain.DirectionNeutral, Score: 55, Confidence: 0.4, Reasons: map[string]any{}},
	}

	require.NoError(t, repo.InsertRun(run, results))

	latest, err := repo.LatestRun(KindFreshSignals)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "abc123", latest.Digest)
	assert.True(t, latest.AsOf.Equal(asOf))

	rows, err := repo.RecommendationsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAA", rows[0].Ticker)
	assert.Equal(t, domain.ActionBuy, rows[0].Action)
	assert.JSONEq(t, `{"k":"v"}`, string(rows[0].Reasons))
}

func TestRepositoryRejectsDuplicateTickerInRun(t *testing.T) {
	repo := NewRepository(testDB(t), zerolog.Nop())

	run := &Run{ID: uuid.NewString(), Kind: KindFreshSignals, AsOf: time.Now().UTC(), Params: "{}", CreatedAt: time.Now().UTC()}
	results := []domain.ScoreResult{
		{Ticker: "DUP", Action: domain.ActionWatch, Direction: domain.DirectionNeutral},
		{Ticker: "DUP", Action: domain.ActionBuy, Direction: domain.DirectionBullish},
	}

	err := repo.InsertRun(run, results)
	require.Error(t, err)

	// The whole run rolls back, nothing partial remains.
	latest, lerr := repo.LatestRun(KindFreshSignals)
	require.NoError(t, lerr)
	assert.Nil(t, latest)
}

func TestRepositoryLatestRunPrefersNewerAsOf(t *testing.T) {
	repo := NewRepository(testDB(t), zerolog.Nop())

	old := &Run{ID: "run-old", Kind: KindFreshSignals, AsOf: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), Params: "{}", CreatedAt: time.Now().UTC()}
	newer := &Run{ID: "run-new", Kind: KindFreshSignals, AsOf: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), Params: "{}", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.InsertRun(old, nil))
	require.NoError(t, repo.InsertRun(newer, nil))

	latest, err := repo.LatestRun(KindFreshSignals)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-new", latest.ID)
}

func TestRepositoryLatestSegments(t *testing.T) {
	repo := NewRepository(testDB(t), zerolog.Nop())

	run := &Run{ID: "run-1", Kind: KindFreshSignals, AsOf: time.Now().UTC(), Params: "{}", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.InsertRun(run, nil))
	require.NoError(t, repo.InsertSegments(run.ID, []domain.SegmentAssignment{
		{Ticker: "AAA", Segment: domain.SegmentInsider, Strength: 88.5, Score: 80, Action: domain.ActionBuy, Confidence: 0.7, Why: "why", SourceKind: "fresh_signals"},
	}))

	got, err := repo.LatestSegments()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SegmentInsider, got[0].Segment)
	assert.Equal(t, 88.5, got[0].Strength)
}
